package store

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"geotrek_core/internal/events"
	"geotrek_core/internal/models"
	"geotrek_core/internal/topology"
)

// ErrOverlayNotFound is returned when no overlay has the requested id.
var ErrOverlayNotFound = errors.New("overlay not found")

// CreateOverlay creates the topology of o from in, then o itself, in one
// transaction. o is reloaded with its computed topology.
func (s *Store) CreateOverlay(ctx context.Context, structureID uint, o models.Overlay, in TopologyInput) error {
	in.Kind = topology.Kind(o.OverlayKind())
	var topoID, owner uint
	err := s.write(ctx, func(tx *gorm.DB) error {
		t, err := s.createTopology(tx, structureID, in)
		if err != nil {
			return err
		}
		topoID, owner = t.ID, t.StructureID
		o.SetTopologyID(t.ID)
		o.SetStructureID(t.StructureID)
		return tx.Omit("Topology").Create(o).Error
	})
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{"kind": in.Kind, "topology_id": topoID}).Info("overlay created")
	s.publish(events.TopologyCreated, owner, nil, []uint{topoID})
	return s.overlayQuery(ctx, 0).First(o, "topology_id = ?", topoID).Error
}

// GetOverlay loads the overlay id into dst, a pointer to an overlay model,
// with its topology.
func (s *Store) GetOverlay(ctx context.Context, structureID, id uint, dst models.Overlay) error {
	q := s.overlayQuery(ctx, structureID)
	if err := q.First(dst, id).Error; err != nil {
		return notFound(err, ErrOverlayNotFound)
	}
	return nil
}

// ListOverlays loads every overlay of a structure into dst, a pointer to a
// slice of overlay models. Overlays whose topology was deleted are skipped.
func (s *Store) ListOverlays(ctx context.Context, structureID uint, dst interface{}) error {
	q := s.overlayQuery(ctx, structureID).
		Where("topology_id IN (?)", s.db.Model(&models.Topology{}).Select("id").Where("deleted = ?", false)).
		Order("id")
	return q.Find(dst).Error
}

func (s *Store) overlayQuery(ctx context.Context, structureID uint) *gorm.DB {
	q := s.db.WithContext(ctx).
		Preload("Topology").
		Preload("Topology.Aggregations", orderedAggregations)
	if structureID != 0 {
		q = q.Where("structure_id = ?", structureID)
	}
	return q
}
