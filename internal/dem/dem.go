// Package dem samples a digital elevation model to give paths their Z
// values and derives the elevation statistics stored on paths and
// topologies.
package dem

import (
	"math"

	"github.com/twpayne/go-geom"
)

// Sampler returns the ground elevation at a planar position. ok is false
// outside the model or on no-data cells.
type Sampler interface {
	Elevation(x, y float64) (z float64, ok bool)
}

// Grid is a regular raster in the working CRS. Values are stored row-major
// starting with the northernmost row, as in ESRI ASCII grids.
type Grid struct {
	Cols, Rows int
	// XLL and YLL are the coordinates of the lower-left corner of the grid.
	XLL, YLL float64
	CellSize float64
	NoData   float64
	Values   []float64
}

func (g *Grid) value(col, row int) (float64, bool) {
	v := g.Values[row*g.Cols+col]
	if v == g.NoData || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Elevation interpolates bilinearly between the four nearest cell centres.
func (g *Grid) Elevation(x, y float64) (float64, bool) {
	if g == nil || g.Cols == 0 || g.Rows == 0 {
		return 0, false
	}
	top := g.YLL + float64(g.Rows)*g.CellSize
	right := g.XLL + float64(g.Cols)*g.CellSize
	if x < g.XLL || x > right || y < g.YLL || y > top {
		return 0, false
	}

	fx := (x-g.XLL)/g.CellSize - 0.5
	fy := (top-y)/g.CellSize - 0.5
	fx = math.Max(0, math.Min(float64(g.Cols-1), fx))
	fy = math.Max(0, math.Min(float64(g.Rows-1), fy))

	c0, r0 := int(math.Floor(fx)), int(math.Floor(fy))
	c1, r1 := minInt(c0+1, g.Cols-1), minInt(r0+1, g.Rows-1)
	tx, ty := fx-float64(c0), fy-float64(r0)

	v00, ok00 := g.value(c0, r0)
	v10, ok10 := g.value(c1, r0)
	v01, ok01 := g.value(c0, r1)
	v11, ok11 := g.value(c1, r1)
	if !(ok00 && ok10 && ok01 && ok11) {
		return 0, false
	}
	top0 := v00 + (v10-v00)*tx
	bottom := v01 + (v11-v01)*tx
	return top0 + (bottom-top0)*ty, true
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Drape densifies ls so that no segment is longer than step and sets every
// vertex Z from the sampler. Vertices the sampler cannot resolve keep their
// existing Z. A nil sampler returns ls unchanged.
func Drape(s Sampler, ls *geom.LineString, step float64) *geom.LineString {
	if s == nil || ls == nil || ls.NumCoords() == 0 {
		return ls
	}
	stride := ls.Stride()
	flat := make([]float64, 0, ls.NumCoords()*3)
	emit := func(x, y, z float64) {
		if v, ok := s.Elevation(x, y); ok {
			z = v
		}
		flat = append(flat, x, y, z)
	}
	zAt := func(c geom.Coord) float64 {
		if stride >= 3 {
			return c[2]
		}
		return 0
	}
	for i := 0; i < ls.NumCoords()-1; i++ {
		a, b := ls.Coord(i), ls.Coord(i+1)
		emit(a[0], a[1], zAt(a))
		if step <= 0 {
			continue
		}
		d := math.Hypot(b[0]-a[0], b[1]-a[1])
		n := int(math.Ceil(d/step)) - 1
		for k := 1; k <= n; k++ {
			t := float64(k) / float64(n+1)
			emit(a[0]+t*(b[0]-a[0]), a[1]+t*(b[1]-a[1]), zAt(a)+t*(zAt(b)-zAt(a)))
		}
	}
	last := ls.Coord(ls.NumCoords() - 1)
	emit(last[0], last[1], zAt(last))
	return geom.NewLineStringFlat(geom.XYZ, flat).SetSRID(ls.SRID())
}
