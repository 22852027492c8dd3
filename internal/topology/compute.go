package topology

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/twpayne/go-geom"

	"geotrek_core/internal/dem"
	"geotrek_core/internal/geometry"
)

// segment returns the part of the aggregation's path it covers, oriented in
// walk direction.
func (n *Network) segment(a Aggregation) (*geom.LineString, error) {
	p := n.livePath(a.Path)
	if p == nil {
		return nil, fmt.Errorf("%w: ref %d", ErrPathNotFound, a.Path)
	}
	return geometry.Substring(p.Geom, a.Start, a.End), nil
}

// ComputeGeometry builds the geometry of a topology from its aggregations:
// the sub-segments are chained in order and shifted by offset. A single
// zero-length aggregation yields a point.
func (n *Network) ComputeGeometry(aggs []Aggregation, offset float64) (geom.T, error) {
	aggs = sortedAggregations(aggs)
	if len(aggs) == 0 {
		return nil, ErrEmptyTopology
	}

	var parts []*geom.LineString
	for _, a := range aggs {
		if a.IsPoint() {
			continue
		}
		seg, err := n.segment(a)
		if err != nil {
			return nil, err
		}
		if len(parts) > 0 {
			prev := parts[len(parts)-1]
			if !geometry.Within(geometry.End(prev), geometry.Start(seg), n.opts.Tolerance) {
				logrus.WithFields(logrus.Fields{
					"path_ref": a.Path,
					"order":    a.Order,
				}).Warn("topology walk has a gap, bridging it")
			}
		}
		parts = append(parts, seg)
	}

	if len(parts) == 0 {
		a := aggs[0]
		p := n.livePath(a.Path)
		if p == nil {
			return nil, fmt.Errorf("%w: ref %d", ErrPathNotFound, a.Path)
		}
		c := geometry.OffsetPoint(p.Geom, a.Start, offset)
		return geom.NewPointFlat(geom.XYZ, c).SetSRID(n.opts.SRID), nil
	}
	line := geometry.Offset(geometry.Concat(parts...), offset)
	return line.SetSRID(n.opts.SRID), nil
}

// ComputeLength sums the 3D length of every aggregation's sub-segment.
func (n *Network) ComputeLength(aggs []Aggregation) (float64, error) {
	total := 0.0
	for _, a := range aggs {
		if a.IsPoint() {
			continue
		}
		seg, err := n.segment(a)
		if err != nil {
			return 0, err
		}
		total += geometry.Length3D(seg)
	}
	return total, nil
}

// Recompute refreshes the derived fields of a single topology without
// cascading to its dependents.
func (n *Network) Recompute(ref TopoRef) error {
	if n.Topology(ref) == nil {
		return ErrTopologyNotFound
	}
	return n.recompute(ref)
}

func (n *Network) recompute(ref TopoRef) error {
	t := n.Topology(ref)
	if t.Reference != 0 {
		src := n.Topology(t.Reference)
		if src == nil {
			return fmt.Errorf("%w: reference of topology %d", ErrTopologyNotFound, t.ID)
		}
		t.Aggregations = append([]Aggregation(nil), src.Aggregations...)
	}
	n.dirtyTopos[ref] = true

	if len(t.Aggregations) == 0 {
		t.Geom, t.Length, t.ElevationInfo = nil, 0, dem.ElevationInfo{}
		return nil
	}
	g, err := n.ComputeGeometry(t.Aggregations, t.Offset)
	if err != nil {
		return err
	}
	length, err := n.ComputeLength(t.Aggregations)
	if err != nil {
		return err
	}
	t.Geom = g
	t.Length = length
	t.ElevationInfo = dem.Stats(g)
	return nil
}

// ValidateWalk checks that aggregations reference live paths with positions
// in [0,1] and that, taken in order, each one starts where the previous one
// ended.
func (n *Network) ValidateWalk(aggs []Aggregation) error {
	if len(aggs) == 0 {
		return ErrEmptyTopology
	}
	aggs = sortedAggregations(aggs)
	var prevEnd geom.Coord
	for _, a := range aggs {
		if a.Start < 0 || a.Start > 1 || a.End < 0 || a.End > 1 {
			return fmt.Errorf("%w: order %d [%v, %v]", ErrInvalidPosition, a.Order, a.Start, a.End)
		}
		p := n.livePath(a.Path)
		if p == nil {
			return fmt.Errorf("%w: ref %d", ErrPathNotFound, a.Path)
		}
		if a.IsPoint() {
			continue
		}
		start := geometry.Interpolate(p.Geom, a.Start)
		if prevEnd != nil && !geometry.Within(prevEnd, start, n.opts.Tolerance) {
			return fmt.Errorf("%w: gap before order %d", ErrDisconnectedWalk, a.Order)
		}
		prevEnd = geometry.Interpolate(p.Geom, a.End)
	}
	return nil
}

// Insert validates a new topology, computes its geometry and adds it to the
// network. A topology with a Reference mirrors the aggregations of the
// referenced one.
func (n *Network) Insert(t Topology) (TopoRef, error) {
	if !t.Kind.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidKind, t.Kind)
	}
	if t.Reference != 0 {
		src := n.Topology(t.Reference)
		if src == nil {
			return 0, ErrTopologyNotFound
		}
		t.Aggregations = append([]Aggregation(nil), src.Aggregations...)
	}
	if err := n.ValidateWalk(t.Aggregations); err != nil {
		return 0, err
	}

	work := n.clone()
	ref := work.AddTopology(t)
	if err := work.checkReferenceChain(ref); err != nil {
		return 0, err
	}
	if err := work.recompute(ref); err != nil {
		return 0, err
	}
	n.commit(work)
	return ref, nil
}

// SoftDelete flags a topology as deleted. Its aggregations are kept.
func (n *Network) SoftDelete(ref TopoRef) error {
	t := n.Topology(ref)
	if t == nil {
		return ErrTopologyNotFound
	}
	t.Deleted = true
	n.dirtyTopos[ref] = true
	return nil
}
