package geometry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func line(coords ...float64) *geom.LineString {
	return geom.NewLineStringFlat(geom.XY, coords)
}

func line3(coords ...float64) *geom.LineString {
	return geom.NewLineStringFlat(geom.XYZ, coords)
}

func assertFlat(t *testing.T, want []float64, ls *geom.LineString) {
	t.Helper()
	got := ls.FlatCoords()
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-9, "ordinate %d", i)
	}
}

func TestToXYZDropsRepeatedVertices(t *testing.T) {
	ls, err := ToXYZ(line(0, 0, 0, 0, 5, 0, 10, 0))
	require.NoError(t, err)
	assert.Equal(t, geom.XYZ, ls.Layout())
	assert.Equal(t, []float64{0, 0, 0, 5, 0, 0, 10, 0, 0}, ls.FlatCoords())
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name  string
		ls    *geom.LineString
		valid bool
	}{
		{"straight", line3(0, 0, 0, 10, 0, 0), true},
		{"zigzag", line3(0, 0, 0, 5, 5, 0, 10, 0, 0), true},
		{"closed loop", line3(0, 0, 0, 10, 0, 0, 10, 10, 0, 0, 0, 0), true},
		{"single vertex", line3(1, 1, 0), false},
		{"zero length", line3(1, 1, 0, 1, 1, 5), false},
		{"bow tie", line3(0, 0, 0, 10, 10, 0, 10, 0, 0, 0, 10, 0), false},
		{"folds back", line3(0, 0, 0, 10, 0, 0, 5, 0, 0), false},
		{"touches own interior", line3(0, 0, 0, 10, 0, 0, 10, 10, 0, 5, 0, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.ls)
			if tc.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidGeometry))
			var ige *InvalidGeometryError
			assert.True(t, errors.As(err, &ige))
		})
	}
}

func TestLengths(t *testing.T) {
	ls := line3(0, 0, 0, 3, 4, 0, 3, 4, 12)
	assert.InDelta(t, 5.0, Length2D(ls), 1e-12)
	ramp := line3(0, 0, 0, 3, 0, 4)
	assert.InDelta(t, 3.0, Length2D(ramp), 1e-12)
	assert.InDelta(t, 5.0, Length3D(ramp), 1e-12)
}

func TestInterpolateAndSubstring(t *testing.T) {
	ls := line3(0, 0, 100, 10, 0, 200)

	c := Interpolate(ls, 0.25)
	assert.InDelta(t, 2.5, c[0], 1e-12)
	assert.InDelta(t, 125.0, c[2], 1e-12)

	sub := Substring(ls, 0.5, 1.0)
	assertFlat(t, []float64{5, 0, 150, 10, 0, 200}, sub)

	rev := Substring(ls, 0.8, 0.2)
	assertFlat(t, []float64{8, 0, 180, 2, 0, 120}, rev)
}

func TestSubstringKeepsInteriorVertices(t *testing.T) {
	ls := line3(0, 0, 0, 10, 0, 0, 10, 10, 0)
	sub := Substring(ls, 0.25, 0.75)
	assertFlat(t, []float64{5, 0, 0, 10, 0, 0, 10, 5, 0}, sub)
}

func TestSplitAndJoinRoundTrip(t *testing.T) {
	ls := line3(0, 0, 0, 4, 3, 1, 10, 3, 2, 12, 8, 3)
	for _, f := range []float64{0.1, 0.33, 0.5, 0.9} {
		a, b := SplitAt(ls, f)
		assert.Equal(t, End(a), Start(b))
		joined := Join(a, b)
		require.Equal(t, ls.NumCoords(), joined.NumCoords(), "fraction %v", f)
		for i, v := range ls.FlatCoords() {
			assert.InDelta(t, v, joined.FlatCoords()[i], 1e-9)
		}
	}
}

func TestJoinKeepsCorner(t *testing.T) {
	a := line3(0, 0, 0, 10, 0, 0)
	b := line3(10, 0, 0, 10, 10, 0)
	assert.Equal(t, []float64{0, 0, 0, 10, 0, 0, 10, 10, 0}, Join(a, b).FlatCoords())
}

func TestConcatKeepsCollinearJunction(t *testing.T) {
	a := line3(5, 0, 0, 10, 0, 0)
	b := line3(10, 0, 0, 15, 0, 0)
	assert.Equal(t, []float64{5, 0, 0, 10, 0, 0, 15, 0, 0}, Concat(a, b).FlatCoords())
}

func TestOffset(t *testing.T) {
	ls := line3(0, 0, 0, 10, 0, 0)
	assert.Equal(t, []float64{0, 2, 0, 10, 2, 0}, Offset(ls, 2).FlatCoords())
	assert.Equal(t, []float64{0, -2, 0, 10, -2, 0}, Offset(ls, -2).FlatCoords())

	corner := Offset(line3(0, 0, 0, 10, 0, 0, 10, 10, 0), 1)
	assert.InDelta(t, 9.0, corner.Coord(1)[0], 1e-9)
	assert.InDelta(t, 1.0, corner.Coord(1)[1], 1e-9)

	p := OffsetPoint(ls, 0.5, 3)
	assert.InDelta(t, 5.0, p[0], 1e-12)
	assert.InDelta(t, 3.0, p[1], 1e-12)
}

func TestLocate(t *testing.T) {
	ls := line3(0, 0, 0, 10, 0, 0, 10, 10, 0)
	f, d := Locate(ls, 4, 2)
	assert.InDelta(t, 0.2, f, 1e-12)
	assert.InDelta(t, 2.0, d, 1e-12)

	f, d = Locate(ls, 12, 15)
	assert.InDelta(t, 1.0, f, 1e-12)
	assert.InDelta(t, 5.385164807, d, 1e-9)
}
