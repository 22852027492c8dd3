package topology

import (
	"github.com/sirupsen/logrus"

	"geotrek_core/internal/geometry"
)

// SplitResult describes the outcome of cutting a path.
type SplitResult struct {
	First    PathRef
	Second   PathRef
	Affected []TopoRef
}

// Split cuts a path at fraction f into two new paths and rewrites every
// aggregation that referenced it, soft-deleted topologies included, so that
// each keeps the same physical location. The original path is removed.
func (n *Network) Split(ref PathRef, f float64) (*SplitResult, error) {
	orig := n.livePath(ref)
	if orig == nil {
		return nil, ErrPathNotFound
	}
	if !(f > 0 && f < 1) {
		return nil, ErrInvalidSplit
	}

	work := n.clone()
	head, tail := geometry.SplitAt(orig.Geom, f)
	first := work.InsertPath(Path{StructureID: orig.StructureID, Origin: orig.ID, Geom: head})
	second := work.InsertPath(Path{StructureID: orig.StructureID, Origin: orig.ID, Geom: tail})
	work.Path(ref).Removed = true
	work.dirtyPaths[ref] = true

	users := work.topologiesOn(true, ref)
	for _, tref := range users {
		t := work.Topology(tref)
		var rewritten []Aggregation
		for _, a := range t.Aggregations {
			if a.Path != ref {
				rewritten = append(rewritten, a)
				continue
			}
			rewritten = append(rewritten, splitAggregation(a, f, first, second)...)
		}
		t.Aggregations = renumber(rewritten)
		work.dirtyTopos[tref] = true
	}

	affected, err := work.cascade(work.topologiesOn(false, first, second))
	if err != nil {
		return nil, err
	}
	n.commit(work)

	logrus.WithFields(logrus.Fields{
		"path_id":    orig.ID,
		"fraction":   f,
		"topologies": len(users),
	}).Info("path split")
	return &SplitResult{First: first, Second: second, Affected: affected}, nil
}

// splitAggregation maps an aggregation on a path cut at f onto the two
// parts. Fractions are rescaled into each part's own [0,1] range; a range
// straddling the cut becomes two aggregations in walk order. A point at
// exactly f stays on the first part.
func splitAggregation(a Aggregation, f float64, first, second PathRef) []Aggregation {
	toFirst := func(p float64) float64 { return geometry.Clamp(p / f) }
	toSecond := func(p float64) float64 { return geometry.Clamp((p - f) / (1 - f)) }

	if a.IsPoint() {
		if a.Start <= f {
			p := toFirst(a.Start)
			return []Aggregation{{Path: first, Start: p, End: p}}
		}
		p := toSecond(a.Start)
		return []Aggregation{{Path: second, Start: p, End: p}}
	}

	lo, hi := a.Start, a.End
	if !a.Forward() {
		lo, hi = hi, lo
	}
	var parts []Aggregation
	if lo < f {
		parts = append(parts, Aggregation{Path: first, Start: toFirst(lo), End: toFirst(minFloat(hi, f))})
	}
	if hi > f {
		parts = append(parts, Aggregation{Path: second, Start: toSecond(maxFloat(lo, f)), End: toSecond(hi)})
	}
	if a.Forward() {
		return parts
	}
	reversed := make([]Aggregation, len(parts))
	for i, p := range parts {
		reversed[len(parts)-1-i] = Aggregation{Path: p.Path, Start: p.End, End: p.Start}
	}
	return reversed
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
