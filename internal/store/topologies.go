package store

import (
	"context"
	"fmt"

	"github.com/twpayne/go-geom"
	"gorm.io/gorm"

	"geotrek_core/internal/events"
	"geotrek_core/internal/models"
	"geotrek_core/internal/topology"
)

// AggregationInput is one step of an explicit topology walk.
type AggregationInput struct {
	PathID uint    `json:"path_id" binding:"required"`
	Start  float64 `json:"start_position"`
	End    float64 `json:"end_position"`
}

// TopologyInput describes a topology to create. Exactly one of
// Aggregations, Drawn and ReferenceID is expected; they are tried in that
// order.
type TopologyInput struct {
	Kind         topology.Kind
	Offset       float64
	Aggregations []AggregationInput
	// Drawn is a point or linestring snapped onto the network.
	Drawn       geom.T
	ReferenceID uint
}

// CreateTopology stores a new topology and computes its geometry.
func (s *Store) CreateTopology(ctx context.Context, structureID uint, in TopologyInput) (*models.Topology, error) {
	var row *models.Topology
	err := s.write(ctx, func(tx *gorm.DB) error {
		var err error
		row, err = s.createTopology(tx, structureID, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(events.TopologyCreated, row.StructureID, nil, []uint{row.ID})
	return row, nil
}

func (s *Store) createTopology(tx *gorm.DB, structureID uint, in TopologyInput) (*models.Topology, error) {
	sc := scope{structureID: structureID, noPathTopologies: true}
	switch {
	case len(in.Aggregations) > 0:
		for _, a := range in.Aggregations {
			sc.paths = append(sc.paths, a.PathID)
		}
	case in.Drawn != nil:
		sc.allPaths = true
	case in.ReferenceID != 0:
		sc.topologies = []uint{in.ReferenceID}
	default:
		return nil, topology.ErrEmptyTopology
	}
	l, err := s.load(tx, sc)
	if err != nil {
		return nil, err
	}

	t := topology.Topology{StructureID: structureID, Kind: in.Kind, Offset: in.Offset}
	switch {
	case len(in.Aggregations) > 0:
		for i, a := range in.Aggregations {
			ref, _ := l.net.PathRef(a.PathID)
			t.Aggregations = append(t.Aggregations, topology.Aggregation{Path: ref, Start: a.Start, End: a.End, Order: i})
		}
	case in.Drawn != nil:
		if t.Aggregations, err = snap(l.net, in.Drawn); err != nil {
			return nil, err
		}
	default:
		t.Reference, _ = l.net.TopologyRef(in.ReferenceID)
	}

	if t.StructureID == 0 {
		t.StructureID = ownerOf(l.net, t)
	}
	ref, err := l.net.Insert(t)
	if err != nil {
		return nil, err
	}
	if err := checkShape(l.net.Topology(ref)); err != nil {
		return nil, err
	}
	if _, err := s.persist(tx, l); err != nil {
		return nil, err
	}
	return l.topos[l.net.Topology(ref).ID], nil
}

// ownerOf resolves the structure of an unscoped topology from the one it
// mirrors or from the first path it walks over.
func ownerOf(net *topology.Network, t topology.Topology) uint {
	if t.Reference != 0 {
		return net.Topology(t.Reference).StructureID
	}
	if len(t.Aggregations) > 0 {
		if p := net.Path(t.Aggregations[0].Path); p != nil {
			return p.StructureID
		}
	}
	return 0
}

// snap turns a drawn point or line into aggregations on the network: a
// point becomes a position on the nearest path, a line a walk routed
// through the projection of each of its vertices.
func snap(net *topology.Network, drawn geom.T) ([]topology.Aggregation, error) {
	switch g := drawn.(type) {
	case *geom.Point:
		loc, err := net.Locate(g.X(), g.Y())
		if err != nil {
			return nil, err
		}
		return []topology.Aggregation{{Path: loc.Path, Start: loc.Fraction, End: loc.Fraction}}, nil
	case *geom.LineString:
		locs := make([]topology.Location, 0, g.NumCoords())
		for i := 0; i < g.NumCoords(); i++ {
			c := g.Coord(i)
			loc, err := net.Locate(c[0], c[1])
			if err != nil {
				return nil, err
			}
			locs = append(locs, loc)
		}
		return net.RouteThrough(locs...)
	}
	return nil, fmt.Errorf("%w: cannot snap %T", ErrKindShape, drawn)
}

// checkShape enforces point topologies for POIs and linear ones for treks
// and land edges.
func checkShape(t *topology.Topology) error {
	switch t.Kind {
	case topology.KindPOI:
		if !t.IsPoint() {
			return fmt.Errorf("%w: %s must be a point", ErrKindShape, t.Kind)
		}
	case topology.KindTrek, topology.KindLandEdge:
		if t.IsPoint() {
			return fmt.Errorf("%w: %s must be a line", ErrKindShape, t.Kind)
		}
	}
	return nil
}

func orderedAggregations(db *gorm.DB) *gorm.DB { return db.Order("order_index") }

// GetTopology returns a topology of the structure with its aggregations in
// walk order.
func (s *Store) GetTopology(ctx context.Context, structureID, id uint) (*models.Topology, error) {
	q := s.db.WithContext(ctx)
	if structureID != 0 {
		q = q.Where("structure_id = ?", structureID)
	}
	var row models.Topology
	err := q.Preload("Aggregations", orderedAggregations).First(&row, id).Error
	if err != nil {
		return nil, notFound(err, topology.ErrTopologyNotFound)
	}
	return &row, nil
}

// DeleteTopology flags a topology as deleted. Its aggregations are kept so
// that later path splits keep it consistent.
func (s *Store) DeleteTopology(ctx context.Context, structureID, id uint) error {
	var owner uint
	err := s.write(ctx, func(tx *gorm.DB) error {
		l, err := s.load(tx, scope{structureID: structureID, topologies: []uint{id}, noPathTopologies: true})
		if err != nil {
			return err
		}
		owner = l.topos[id].StructureID
		ref, _ := l.net.TopologyRef(id)
		if err := l.net.SoftDelete(ref); err != nil {
			return err
		}
		_, err = s.persist(tx, l)
		return err
	})
	if err != nil {
		return err
	}
	s.publish(events.TopologyDeleted, owner, nil, []uint{id})
	return nil
}
