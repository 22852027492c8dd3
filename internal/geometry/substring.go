package geometry

import (
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// junctionTolerance is the distance under which a junction vertex is
// considered to lie on the straight line between its neighbours.
const junctionTolerance = 1e-9

// Clamp forces a fraction into [0,1].
func Clamp(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}

// Interpolate returns the XYZ coordinate located at fraction f of the planar
// length of ls. Z is interpolated linearly along the containing segment.
func Interpolate(ls *geom.LineString, f float64) geom.Coord {
	f = Clamp(f)
	m := measures(ls)
	total := m[len(m)-1]
	if f == 0 || total == 0 {
		return geom.Coord(xyz(ls.Coord(0)))
	}
	if f == 1 {
		return geom.Coord(xyz(End(ls)))
	}
	target := f * total
	i := segmentAt(m, target)
	return pointOnSegment(ls.Coord(i), ls.Coord(i+1), m[i], m[i+1], target)
}

// segmentAt returns the index of the segment containing the measure target.
func segmentAt(m []float64, target float64) int {
	for i := 1; i < len(m); i++ {
		if target <= m[i] {
			return i - 1
		}
	}
	return len(m) - 2
}

func pointOnSegment(a, b geom.Coord, ma, mb, target float64) geom.Coord {
	a, b = xyz(a), xyz(b)
	if mb == ma || target <= ma {
		return geom.Coord(a)
	}
	if target >= mb {
		return geom.Coord(b)
	}
	t := (target - ma) / (mb - ma)
	return geom.Coord{
		a[0] + t*(b[0]-a[0]),
		a[1] + t*(b[1]-a[1]),
		a[2] + t*(b[2]-a[2]),
	}
}

// Substring extracts the part of ls between fractions start and end. When
// start > end the part is returned in reverse direction. start == end yields a
// two-vertex degenerate line at that position; callers wanting a point should
// use Interpolate.
func Substring(ls *geom.LineString, start, end float64) *geom.LineString {
	start, end = Clamp(start), Clamp(end)
	if start > end {
		return Reverse(Substring(ls, end, start))
	}
	m := measures(ls)
	total := m[len(m)-1]
	from, to := start*total, end*total

	flat := make([]float64, 0, ls.NumCoords()*3+6)
	flat = append(flat, Interpolate(ls, start)...)
	for i := 1; i < len(m)-1; i++ {
		if m[i] > from && m[i] < to {
			flat = append(flat, xyz(ls.Coord(i))...)
		}
	}
	flat = append(flat, Interpolate(ls, end)...)
	return geom.NewLineStringFlat(geom.XYZ, flat).SetSRID(ls.SRID())
}

// SplitAt cuts ls at fraction f into two lines sharing the cut vertex.
func SplitAt(ls *geom.LineString, f float64) (*geom.LineString, *geom.LineString) {
	return Substring(ls, 0, f), Substring(ls, f, 1)
}

// Concat chains lines end to end. A vertex repeated at a junction is kept
// only once; lines that do not touch are bridged by a straight segment.
func Concat(parts ...*geom.LineString) *geom.LineString {
	var flat []float64
	srid := 0
	for _, p := range parts {
		if p == nil || p.NumCoords() == 0 {
			continue
		}
		srid = p.SRID()
		for i := 0; i < p.NumCoords(); i++ {
			c := xyz(p.Coord(i))
			if n := len(flat); n >= 3 && flat[n-3] == c[0] && flat[n-2] == c[1] {
				continue
			}
			flat = append(flat, c...)
		}
	}
	return geom.NewLineStringFlat(geom.XYZ, flat).SetSRID(srid)
}

// Join merges a and b, where the end of a touches the start of b, into a
// single line. The junction vertex is dropped when it is collinear with its
// neighbours so that joining the two halves of a split restores the original
// vertex list.
func Join(a, b *geom.LineString) *geom.LineString {
	joined := Concat(a, b)
	k := a.NumCoords() - 1
	if k <= 0 || k >= joined.NumCoords()-1 {
		return joined
	}
	prev, junction, next := joined.Coord(k-1), joined.Coord(k), joined.Coord(k+1)
	if xy.DistanceFromPointToLine(junction, prev, next) > junctionTolerance {
		return joined
	}
	flat := append([]float64(nil), joined.FlatCoords()[:k*3]...)
	flat = append(flat, joined.FlatCoords()[(k+1)*3:]...)
	return geom.NewLineStringFlat(geom.XYZ, flat).SetSRID(joined.SRID())
}
