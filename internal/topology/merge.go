package topology

import (
	"math"

	"github.com/sirupsen/logrus"
	"github.com/twpayne/go-geom"

	"geotrek_core/internal/geometry"
)

const positionEpsilon = 1e-9

// MergeResult describes the outcome of joining two paths.
type MergeResult struct {
	Merged   PathRef
	Removed  PathRef
	Affected []TopoRef
}

// Merge joins two paths sharing an endpoint into the first one. The second
// path is removed and every aggregation on either path is remapped onto the
// merged geometry, proportionally to planar length. Contiguous aggregations
// that end up on the merged path are collapsed into one.
//
// Paths can only be merged at a junction no other live path touches.
func (n *Network) Merge(a, b PathRef) (*MergeResult, error) {
	pa, pb := n.livePath(a), n.livePath(b)
	if pa == nil || pb == nil {
		return nil, ErrPathNotFound
	}
	if a == b {
		return nil, ErrPathsNotConnected
	}

	tol := n.opts.Tolerance
	var reverseA, reverseB bool
	var junction geom.Coord
	switch {
	case geometry.Within(geometry.End(pa.Geom), geometry.Start(pb.Geom), tol):
		junction = geometry.End(pa.Geom)
	case geometry.Within(geometry.End(pa.Geom), geometry.End(pb.Geom), tol):
		junction, reverseB = geometry.End(pa.Geom), true
	case geometry.Within(geometry.Start(pa.Geom), geometry.End(pb.Geom), tol):
		junction, reverseA, reverseB = geometry.Start(pa.Geom), true, true
	case geometry.Within(geometry.Start(pa.Geom), geometry.Start(pb.Geom), tol):
		junction, reverseA = geometry.Start(pa.Geom), true
	default:
		return nil, ErrPathsNotConnected
	}
	for _, ref := range n.PathRefs() {
		if ref == a || ref == b {
			continue
		}
		p := n.Path(ref)
		if geometry.Within(geometry.Start(p.Geom), junction, tol) || geometry.Within(geometry.End(p.Geom), junction, tol) {
			return nil, ErrPathsNotConnected
		}
	}

	ga, gb := pa.Geom, pb.Geom
	if reverseA {
		ga = geometry.Reverse(ga)
	}
	if reverseB {
		gb = geometry.Reverse(gb)
	}
	la, lb := geometry.Length2D(ga), geometry.Length2D(gb)
	total := la + lb
	mapA := func(p float64) float64 {
		if reverseA {
			p = 1 - p
		}
		return geometry.Clamp(p * la / total)
	}
	mapB := func(p float64) float64 {
		if reverseB {
			p = 1 - p
		}
		return geometry.Clamp((la + p*lb) / total)
	}

	work := n.clone()
	work.setPathGeometry(a, geometry.Join(ga, gb))
	work.Path(b).Removed = true
	work.dirtyPaths[b] = true

	users := work.topologiesOn(true, a, b)
	for _, tref := range users {
		t := work.Topology(tref)
		for i, agg := range t.Aggregations {
			switch agg.Path {
			case a:
				t.Aggregations[i] = Aggregation{Path: a, Start: mapA(agg.Start), End: mapA(agg.End), Order: agg.Order}
			case b:
				t.Aggregations[i] = Aggregation{Path: a, Start: mapB(agg.Start), End: mapB(agg.End), Order: agg.Order}
			}
		}
		t.Aggregations = renumber(collapse(t.Aggregations))
		work.dirtyTopos[tref] = true
	}

	affected, err := work.cascade(work.topologiesOn(false, a))
	if err != nil {
		return nil, err
	}
	n.commit(work)

	logrus.WithFields(logrus.Fields{
		"path_id":    pa.ID,
		"removed_id": pb.ID,
		"topologies": len(users),
	}).Info("paths merged")
	return &MergeResult{Merged: a, Removed: b, Affected: affected}, nil
}

// collapse fuses consecutive aggregations continuing each other on the same
// path in the same direction. aggs must be sorted by order.
func collapse(aggs []Aggregation) []Aggregation {
	out := make([]Aggregation, 0, len(aggs))
	for _, a := range aggs {
		if k := len(out) - 1; k >= 0 {
			prev := &out[k]
			if prev.Path == a.Path && !prev.IsPoint() && !a.IsPoint() &&
				prev.Forward() == a.Forward() && math.Abs(prev.End-a.Start) < positionEpsilon {
				prev.End = a.End
				continue
			}
		}
		out = append(out, a)
	}
	return out
}
