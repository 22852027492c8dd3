package geometry

import (
	"math"

	"github.com/twpayne/go-geom"
)

// Locate projects (x, y) onto ls and returns the fraction of the nearest
// point along ls together with the planar distance to it.
func Locate(ls *geom.LineString, x, y float64) (fraction, distance float64) {
	m := measures(ls)
	total := m[len(m)-1]
	best := math.Inf(1)
	bestMeasure := 0.0
	for i := 0; i < ls.NumCoords()-1; i++ {
		a, b := ls.Coord(i), ls.Coord(i+1)
		dx, dy := b[0]-a[0], b[1]-a[1]
		segLen2 := dx*dx + dy*dy
		t := 0.0
		if segLen2 > 0 {
			t = ((x-a[0])*dx + (y-a[1])*dy) / segLen2
			t = math.Max(0, math.Min(1, t))
		}
		px, py := a[0]+t*dx, a[1]+t*dy
		d := math.Hypot(x-px, y-py)
		if d < best {
			best = d
			bestMeasure = m[i] + t*(m[i+1]-m[i])
		}
	}
	if total == 0 {
		return 0, best
	}
	return Clamp(bestMeasure / total), best
}

// Bounds returns the planar bounding box of ls as minX, minY, maxX, maxY.
func Bounds(ls *geom.LineString) (float64, float64, float64, float64) {
	b := ls.Bounds()
	return b.Min(0), b.Min(1), b.Max(0), b.Max(1)
}
