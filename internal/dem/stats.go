package dem

import (
	"math"

	"github.com/twpayne/go-geom"
)

// ElevationInfo is the set of elevation attributes derived from a 3D
// geometry.
type ElevationInfo struct {
	Ascent       float64 `json:"ascent"`
	Descent      float64 `json:"descent"`
	MinElevation float64 `json:"min_elevation"`
	MaxElevation float64 `json:"max_elevation"`
	Slope        float64 `json:"slope"`
}

// Stats computes cumulated positive and negative elevation gain, the
// elevation range and the mean slope (end minus start over planar length)
// of a point or linestring. Geometries without Z yield a zero value.
func Stats(g geom.T) ElevationInfo {
	if g == nil || g.Layout() != geom.XYZ {
		return ElevationInfo{}
	}
	flat := g.FlatCoords()
	n := len(flat) / 3
	if n == 0 {
		return ElevationInfo{}
	}
	info := ElevationInfo{MinElevation: math.Inf(1), MaxElevation: math.Inf(-1)}
	planar := 0.0
	for i := 0; i < n; i++ {
		z := flat[i*3+2]
		info.MinElevation = math.Min(info.MinElevation, z)
		info.MaxElevation = math.Max(info.MaxElevation, z)
		if i == 0 {
			continue
		}
		dz := z - flat[(i-1)*3+2]
		if dz > 0 {
			info.Ascent += dz
		} else {
			info.Descent -= dz
		}
		planar += math.Hypot(flat[i*3]-flat[(i-1)*3], flat[i*3+1]-flat[(i-1)*3+1])
	}
	if planar > 0 {
		info.Slope = (flat[(n-1)*3+2] - flat[2]) / planar
	}
	return info
}
