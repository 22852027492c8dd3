package store

import (
	"fmt"

	"gorm.io/gorm"

	"geotrek_core/internal/geometry"
	"geotrek_core/internal/models"
	"geotrek_core/internal/topology"
)

// written lists the rows touched by a persisted change set.
type written struct {
	paths      []uint
	removed    []uint
	topologies []uint
}

// persist writes every path and topology the network reports as changed.
// New paths are created first so that aggregations can refer to their ids;
// removed paths are deleted last, once no aggregation points at them.
func (s *Store) persist(tx *gorm.DB, l *loaded) (*written, error) {
	ch := l.net.Changes()
	w := &written{}

	for _, ref := range ch.Paths {
		p := l.net.Path(ref)
		switch {
		case p.Removed:
			if p.ID != 0 {
				w.removed = append(w.removed, p.ID)
			}
		case p.ID == 0:
			row := l.newPathRow(ref, p)
			if err := tx.Create(row).Error; err != nil {
				return nil, fmt.Errorf("create path: %w", err)
			}
			l.net.SetPathID(ref, row.ID)
			l.paths[row.ID] = row
			w.paths = append(w.paths, row.ID)
		default:
			row := l.paths[p.ID]
			fillPath(row, p)
			if err := tx.Model(row).Select(models.GeometryColumns).Updates(row).Error; err != nil {
				return nil, fmt.Errorf("update path %d: %w", p.ID, err)
			}
			w.paths = append(w.paths, p.ID)
		}
	}

	for _, ref := range ch.Topologies {
		t := l.net.Topology(ref)
		row, err := s.saveTopology(tx, l, ref, t)
		if err != nil {
			return nil, err
		}
		w.topologies = append(w.topologies, row.ID)
	}

	for _, id := range w.removed {
		if err := tx.Delete(&models.Path{Model: gorm.Model{ID: id}}).Error; err != nil {
			return nil, fmt.Errorf("delete path %d: %w", id, err)
		}
		delete(l.paths, id)
	}

	l.net.ClearChanges()
	return w, nil
}

func (s *Store) saveTopology(tx *gorm.DB, l *loaded, ref topology.TopoRef, t *topology.Topology) (*models.Topology, error) {
	row, ok := l.topos[t.ID]
	if !ok {
		row = &models.Topology{}
	}
	fillTopology(row, t)
	if t.Reference != 0 {
		id := l.net.Topology(t.Reference).ID
		row.ReferenceID = &id
	} else {
		row.ReferenceID = nil
	}

	if t.ID == 0 {
		if err := tx.Omit("Aggregations").Create(row).Error; err != nil {
			return nil, fmt.Errorf("create topology: %w", err)
		}
		l.net.SetTopologyID(ref, row.ID)
		l.topos[row.ID] = row
	} else {
		err := tx.Model(&models.Topology{ID: t.ID}).Select(models.DerivedColumns).Updates(row).Error
		if err != nil {
			return nil, fmt.Errorf("update topology %d: %w", t.ID, err)
		}
	}

	if err := tx.Where("topology_id = ?", row.ID).Delete(&models.PathAggregation{}).Error; err != nil {
		return nil, fmt.Errorf("clear aggregations of topology %d: %w", row.ID, err)
	}
	aggs := make([]models.PathAggregation, 0, len(t.Aggregations))
	for _, a := range t.Aggregations {
		aggs = append(aggs, models.PathAggregation{
			TopologyID:    row.ID,
			PathID:        l.net.Path(a.Path).ID,
			StartPosition: a.Start,
			EndPosition:   a.End,
			Order:         a.Order,
		})
	}
	if len(aggs) > 0 {
		if err := tx.Create(&aggs).Error; err != nil {
			return nil, fmt.Errorf("write aggregations of topology %d: %w", row.ID, err)
		}
	}
	row.Aggregations = aggs
	return row, nil
}

// newPathRow builds the row of a path created in memory. Paths cut from
// another one inherit its attributes.
func (l *loaded) newPathRow(ref topology.PathRef, p *topology.Path) *models.Path {
	row, ok := l.pending[ref]
	if !ok {
		row = &models.Path{StructureID: p.StructureID, Valid: true}
		if src, found := l.paths[p.Origin]; found && p.Origin != 0 {
			cp := *src
			cp.Model = gorm.Model{}
			cp.GeomCadastre = models.Geometry{}
			row = &cp
		}
	}
	if p.Origin != 0 {
		origin := p.Origin
		row.OriginID = &origin
	}
	fillPath(row, p)
	return row
}

func fillPath(row *models.Path, p *topology.Path) {
	row.Geom = models.NewGeometry(p.Geom)
	row.Length = p.Length
	row.Length2D = p.Length2D
	row.Ascent = p.Ascent
	row.Descent = p.Descent
	row.MinElevation = p.MinElevation
	row.MaxElevation = p.MaxElevation
	row.Slope = p.Slope

	start, end := geometry.Start(p.Geom), geometry.End(p.Geom)
	row.StartX, row.StartY = start[0], start[1]
	row.EndX, row.EndY = end[0], end[1]
	row.MinX, row.MinY, row.MaxX, row.MaxY = geometry.Bounds(p.Geom)
}

func fillTopology(row *models.Topology, t *topology.Topology) {
	row.StructureID = t.StructureID
	row.Kind = string(t.Kind)
	row.Offset = t.Offset
	row.Deleted = t.Deleted
	row.Geom = models.NewGeometry(t.Geom)
	row.Length = t.Length
	row.Ascent = t.Ascent
	row.Descent = t.Descent
	row.MinElevation = t.MinElevation
	row.MaxElevation = t.MaxElevation
	row.Slope = t.Slope
}
