// Package geometry holds the linestring algorithms the topology core relies on:
// validation, measurement, fractional interpolation, substrings, offsets,
// point location, and cutting/joining lines. Every function works on XYZ
// linestrings; use ToXYZ to normalise input first.
package geometry

import (
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"github.com/twpayne/go-geom/xy/orientation"
)

// ToXYZ converts a 2D or 3D linestring to the XYZ layout, with Z=0 for 2D
// input, and drops consecutive repeated vertices.
func ToXYZ(ls *geom.LineString) (*geom.LineString, error) {
	if ls == nil || ls.NumCoords() == 0 {
		return nil, invalid("empty linestring")
	}
	layout := ls.Layout()
	if layout != geom.XY && layout != geom.XYZ {
		return nil, invalid("unsupported layout %v", layout)
	}
	flat := make([]float64, 0, ls.NumCoords()*3)
	var prev geom.Coord
	for i := 0; i < ls.NumCoords(); i++ {
		c := ls.Coord(i)
		z := 0.0
		if layout == geom.XYZ {
			z = c[2]
		}
		if prev != nil && prev[0] == c[0] && prev[1] == c[1] {
			continue
		}
		flat = append(flat, c[0], c[1], z)
		prev = c
	}
	return geom.NewLineStringFlat(geom.XYZ, flat).SetSRID(ls.SRID()), nil
}

// Validate checks that ls is a usable path geometry: at least two distinct
// vertices, finite coordinates, non-zero length, and no self-intersection.
// A closed line touching itself only at its endpoints is accepted.
func Validate(ls *geom.LineString) error {
	if ls == nil || ls.NumCoords() == 0 {
		return invalid("empty linestring")
	}
	if ls.NumCoords() < 2 {
		return invalid("linestring needs at least 2 vertices, got %d", ls.NumCoords())
	}
	for i := 0; i < ls.NumCoords(); i++ {
		for _, v := range ls.Coord(i) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return invalid("non-finite coordinate at vertex %d", i)
			}
		}
	}
	if Length2D(ls) == 0 {
		return invalid("zero-length linestring")
	}
	if i, j, ok := selfIntersection(ls); ok {
		return invalid("self-intersection between segments %d and %d", i, j)
	}
	return nil
}

func selfIntersection(ls *geom.LineString) (int, int, bool) {
	n := ls.NumCoords()
	closed := coordsEqual(ls.Coord(0), ls.Coord(n-1))
	for i := 0; i < n-1; i++ {
		a0, a1 := ls.Coord(i), ls.Coord(i+1)
		for j := i + 1; j < n-1; j++ {
			b0, b1 := ls.Coord(j), ls.Coord(j+1)
			switch {
			case j == i+1:
				if folds(a0, a1, b1) {
					return i, j, true
				}
			case closed && i == 0 && j == n-2:
				if folds(a1, a0, b0) {
					return i, j, true
				}
			default:
				if segmentsIntersect(a0, a1, b0, b1) {
					return i, j, true
				}
			}
		}
	}
	return 0, 0, false
}

// folds reports whether the segments (p, shared) and (shared, q) double back
// over each other.
func folds(p, shared, q geom.Coord) bool {
	if xy.OrientationIndex(p, shared, q) != orientation.Collinear {
		return false
	}
	return (p[0]-shared[0])*(q[0]-shared[0])+(p[1]-shared[1])*(q[1]-shared[1]) > 0
}

func segmentsIntersect(p1, p2, q1, q2 geom.Coord) bool {
	o1 := xy.OrientationIndex(p1, p2, q1)
	o2 := xy.OrientationIndex(p1, p2, q2)
	o3 := xy.OrientationIndex(q1, q2, p1)
	o4 := xy.OrientationIndex(q1, q2, p2)
	if o1 != o2 && o3 != o4 {
		return true
	}
	switch {
	case o1 == orientation.Collinear && onSegment(p1, p2, q1):
		return true
	case o2 == orientation.Collinear && onSegment(p1, p2, q2):
		return true
	case o3 == orientation.Collinear && onSegment(q1, q2, p1):
		return true
	case o4 == orientation.Collinear && onSegment(q1, q2, p2):
		return true
	}
	return false
}

// onSegment assumes c is collinear with a-b.
func onSegment(a, b, c geom.Coord) bool {
	return c[0] >= math.Min(a[0], b[0]) && c[0] <= math.Max(a[0], b[0]) &&
		c[1] >= math.Min(a[1], b[1]) && c[1] <= math.Max(a[1], b[1])
}

func coordsEqual(a, b geom.Coord) bool {
	return a[0] == b[0] && a[1] == b[1]
}

// Length2D is the planar length of ls.
func Length2D(ls *geom.LineString) float64 {
	total := 0.0
	for i := 1; i < ls.NumCoords(); i++ {
		total += xy.Distance(ls.Coord(i-1), ls.Coord(i))
	}
	return total
}

// Length3D is the length of ls accounting for elevation.
func Length3D(ls *geom.LineString) float64 {
	if ls.Layout() != geom.XYZ {
		return Length2D(ls)
	}
	total := 0.0
	for i := 1; i < ls.NumCoords(); i++ {
		a, b := ls.Coord(i-1), ls.Coord(i)
		d := xy.Distance(a, b)
		dz := b[2] - a[2]
		total += math.Sqrt(d*d + dz*dz)
	}
	return total
}

// measures returns the cumulative planar distance at every vertex.
func measures(ls *geom.LineString) []float64 {
	m := make([]float64, ls.NumCoords())
	for i := 1; i < ls.NumCoords(); i++ {
		m[i] = m[i-1] + xy.Distance(ls.Coord(i-1), ls.Coord(i))
	}
	return m
}

// Start returns the first vertex of ls.
func Start(ls *geom.LineString) geom.Coord { return ls.Coord(0) }

// End returns the last vertex of ls.
func End(ls *geom.LineString) geom.Coord { return ls.Coord(ls.NumCoords() - 1) }

// Within reports whether a and b are at most tol apart in the plane.
func Within(a, b geom.Coord, tol float64) bool {
	return xy.Distance(a, b) <= tol
}

// Reverse returns ls with its vertex order inverted.
func Reverse(ls *geom.LineString) *geom.LineString {
	n := ls.NumCoords()
	flat := make([]float64, 0, n*3)
	for i := n - 1; i >= 0; i-- {
		flat = append(flat, xyz(ls.Coord(i))...)
	}
	return geom.NewLineStringFlat(geom.XYZ, flat).SetSRID(ls.SRID())
}

// WithEndpoints returns a copy of ls whose first and last vertices are
// replaced by start and end.
func WithEndpoints(ls *geom.LineString, start, end geom.Coord) *geom.LineString {
	flat := append([]float64(nil), ls.FlatCoords()...)
	copy(flat[0:3], xyz(start))
	copy(flat[len(flat)-3:], xyz(end))
	return geom.NewLineStringFlat(geom.XYZ, flat).SetSRID(ls.SRID())
}

func xyz(c geom.Coord) []float64 {
	if len(c) >= 3 {
		return []float64{c[0], c[1], c[2]}
	}
	return []float64{c[0], c[1], 0}
}
