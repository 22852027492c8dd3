package geometry

import (
	"math"

	"github.com/twpayne/go-geom"
)

// maxMiter bounds how far a vertex may be pushed on sharp turns, as a
// multiple of the offset distance.
const maxMiter = 4.0

// Offset shifts ls laterally by d. Positive distances move the line to the
// left of its direction of travel. Z values are kept.
func Offset(ls *geom.LineString, d float64) *geom.LineString {
	if d == 0 || ls.NumCoords() < 2 {
		return ls
	}
	n := ls.NumCoords()
	normals := make([][2]float64, n-1)
	for i := 0; i < n-1; i++ {
		normals[i] = leftNormal(ls.Coord(i), ls.Coord(i+1))
	}
	flat := make([]float64, 0, n*3)
	for i := 0; i < n; i++ {
		c := xyz(ls.Coord(i))
		var nx, ny float64
		switch i {
		case 0:
			nx, ny = normals[0][0]*d, normals[0][1]*d
		case n - 1:
			nx, ny = normals[n-2][0]*d, normals[n-2][1]*d
		default:
			nx, ny = miter(normals[i-1], normals[i], d)
		}
		flat = append(flat, c[0]+nx, c[1]+ny, c[2])
	}
	return geom.NewLineStringFlat(geom.XYZ, flat).SetSRID(ls.SRID())
}

// OffsetPoint returns the coordinate at fraction f of ls shifted by d along
// the left normal of the segment holding it.
func OffsetPoint(ls *geom.LineString, f, d float64) geom.Coord {
	c := Interpolate(ls, f)
	if d == 0 || ls.NumCoords() < 2 {
		return c
	}
	m := measures(ls)
	i := segmentAt(m, Clamp(f)*m[len(m)-1])
	nrm := leftNormal(ls.Coord(i), ls.Coord(i+1))
	return geom.Coord{c[0] + nrm[0]*d, c[1] + nrm[1]*d, c[2]}
}

func leftNormal(a, b geom.Coord) [2]float64 {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l := math.Hypot(dx, dy)
	if l == 0 {
		return [2]float64{0, 0}
	}
	return [2]float64{-dy / l, dx / l}
}

func miter(n1, n2 [2]float64, d float64) (float64, float64) {
	mx, my := n1[0]+n2[0], n1[1]+n2[1]
	l := math.Hypot(mx, my)
	if l == 0 {
		return n1[0] * d, n1[1] * d
	}
	mx, my = mx/l, my/l
	cos := mx*n1[0] + my*n1[1]
	scale := d / math.Max(cos, 1/maxMiter)
	return mx * scale, my * scale
}
