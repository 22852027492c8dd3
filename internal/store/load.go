package store

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/twpayne/go-geom"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"geotrek_core/internal/models"
	"geotrek_core/internal/topology"
)

// scope describes which part of the network an operation needs.
type scope struct {
	structureID uint
	// allPaths loads every live path of the structure.
	allPaths bool
	paths    []uint
	// near pulls in the paths with an endpoint close to one of these
	// coordinates.
	near []geom.Coord
	// topologies are loaded with their reference closure.
	topologies []uint
	// noPathTopologies skips the topologies laid on the loaded paths.
	noPathTopologies bool
	// readOnly loads without row locks.
	readOnly bool
}

// loaded is a network together with the rows it was built from.
type loaded struct {
	net   *topology.Network
	paths map[uint]*models.Path
	topos map[uint]*models.Topology
	// pending holds the attribute rows of paths inserted in memory.
	pending map[topology.PathRef]*models.Path
}

// load builds the network an operation works on. Unless the scope is read
// only, every path and topology row is read with FOR UPDATE, in id order,
// so concurrent mutations over the same rows run one after the other and
// each one sees the rows the previous one committed.
func (s *Store) load(tx *gorm.DB, sc scope) (*loaded, error) {
	rowTx := tx
	if !sc.readOnly {
		rowTx = tx.Clauses(clause.Locking{Strength: "UPDATE"}).Session(&gorm.Session{})
	}
	l := &loaded{
		net:     topology.New(s.cfg.Network),
		paths:   map[uint]*models.Path{},
		topos:   map[uint]*models.Topology{},
		pending: map[topology.PathRef]*models.Path{},
	}

	var rows []models.Path
	if sc.allPaths {
		q := rowTx.Order("id")
		if sc.structureID != 0 {
			q = q.Where("structure_id = ?", sc.structureID)
		}
		if err := q.Find(&rows).Error; err != nil {
			return nil, err
		}
	} else {
		ids := append([]uint(nil), sc.paths...)
		near, err := s.nearPaths(tx, sc.structureID, sc.near)
		if err != nil {
			return nil, err
		}
		ids = append(ids, near...)
		if err := findPaths(rowTx, ids, &rows); err != nil {
			return nil, err
		}
	}
	for i := range rows {
		l.addPath(&rows[i])
	}
	for _, id := range sc.paths {
		p, ok := l.paths[id]
		if !ok || (sc.structureID != 0 && p.StructureID != sc.structureID) {
			return nil, topology.ErrPathNotFound
		}
	}

	seeds := append([]uint(nil), sc.topologies...)
	if !sc.noPathTopologies && len(l.paths) > 0 {
		var onPaths []uint
		err := tx.Model(&models.PathAggregation{}).
			Where("path_id IN ?", keys(l.paths)).
			Distinct().Pluck("topology_id", &onPaths).Error
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, onPaths...)
	}
	topoRows, err := loadTopologyClosure(tx, rowTx, seeds)
	if err != nil {
		return nil, err
	}
	for i := range topoRows {
		l.topos[topoRows[i].ID] = &topoRows[i]
	}
	for _, id := range sc.topologies {
		t, ok := l.topos[id]
		if !ok || (sc.structureID != 0 && t.StructureID != sc.structureID) {
			return nil, topology.ErrTopologyNotFound
		}
	}

	// paths the loaded topologies walk over
	var missing []uint
	for _, t := range topoRows {
		for _, a := range t.Aggregations {
			if _, ok := l.paths[a.PathID]; !ok {
				missing = append(missing, a.PathID)
			}
		}
	}
	if len(missing) > 0 {
		var extra []models.Path
		if err := findPaths(rowTx, missing, &extra); err != nil {
			return nil, err
		}
		for i := range extra {
			if _, ok := l.paths[extra[i].ID]; !ok {
				l.addPath(&extra[i])
			}
		}
	}

	if err := l.addTopologies(topoRows); err != nil {
		return nil, err
	}
	return l, nil
}

// loadTopologyClosure loads seeds, the topologies they reference and the
// topologies referencing them, transitively. Rows are read through rowTx.
func loadTopologyClosure(tx, rowTx *gorm.DB, seeds []uint) ([]models.Topology, error) {
	seen := map[uint]bool{}
	var frontier []uint
	for _, id := range seeds {
		if !seen[id] {
			seen[id] = true
			frontier = append(frontier, id)
		}
	}

	var out []models.Topology
	for len(frontier) > 0 {
		var batch []models.Topology
		err := rowTx.Preload("Aggregations").Where("id IN ?", frontier).Order("id").Find(&batch).Error
		if err != nil {
			return nil, err
		}
		var dependents []uint
		err = tx.Model(&models.Topology{}).Where("reference_id IN ?", frontier).Pluck("id", &dependents).Error
		if err != nil {
			return nil, err
		}

		frontier = nil
		for _, t := range batch {
			out = append(out, t)
			if t.ReferenceID != nil && !seen[*t.ReferenceID] {
				seen[*t.ReferenceID] = true
				frontier = append(frontier, *t.ReferenceID)
			}
		}
		for _, id := range dependents {
			if !seen[id] {
				seen[id] = true
				frontier = append(frontier, id)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// nearPaths lists the live paths with an endpoint inside the box of side
// twice the snapping distance around any of pts.
func (s *Store) nearPaths(tx *gorm.DB, structureID uint, pts []geom.Coord) ([]uint, error) {
	d := math.Max(s.cfg.Network.SnapDistance, 1e-6)
	if len(pts) == 0 {
		return nil, nil
	}
	clauses := make([]string, 0, len(pts))
	args := make([]interface{}, 0, len(pts)*8)
	for _, c := range pts {
		clauses = append(clauses, "(start_x BETWEEN ? AND ? AND start_y BETWEEN ? AND ?) OR (end_x BETWEEN ? AND ? AND end_y BETWEEN ? AND ?)")
		args = append(args, c[0]-d, c[0]+d, c[1]-d, c[1]+d, c[0]-d, c[0]+d, c[1]-d, c[1]+d)
	}
	q := tx.Model(&models.Path{}).Where("("+strings.Join(clauses, " OR ")+")", args...)
	if structureID != 0 {
		q = q.Where("structure_id = ?", structureID)
	}
	var ids []uint
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func findPaths(tx *gorm.DB, ids []uint, rows *[]models.Path) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Where("id IN ?", ids).Order("id").Find(rows).Error
}

func (l *loaded) addPath(row *models.Path) {
	ls := row.Geom.LineString()
	if ls == nil {
		logrus.WithField("path_id", row.ID).Warn("store: path without linestring geometry skipped")
		return
	}
	p := topology.Path{ID: row.ID, StructureID: row.StructureID, Geom: ls}
	if row.OriginID != nil {
		p.Origin = *row.OriginID
	}
	l.net.AddPath(p)
	l.paths[row.ID] = row
}

func (l *loaded) addTopologies(rows []models.Topology) error {
	refs := make(map[uint]topology.TopoRef, len(rows))
	for _, row := range rows {
		t := topology.Topology{
			ID:          row.ID,
			StructureID: row.StructureID,
			Kind:        topology.Kind(row.Kind),
			Offset:      row.Offset,
			Deleted:     row.Deleted,
			Geom:        row.Geom.T,
			Length:      row.Length,
		}
		t.Ascent, t.Descent = row.Ascent, row.Descent
		t.MinElevation, t.MaxElevation, t.Slope = row.MinElevation, row.MaxElevation, row.Slope
		for _, a := range row.Aggregations {
			ref, ok := l.net.PathRef(a.PathID)
			if !ok {
				logrus.WithFields(logrus.Fields{
					"topology_id": row.ID,
					"path_id":     a.PathID,
				}).Error("store: aggregation on a path that could not be loaded")
				return fmt.Errorf("%w: topology %d, path %d", ErrUnloadablePath, row.ID, a.PathID)
			}
			t.Aggregations = append(t.Aggregations, topology.Aggregation{
				Path:  ref,
				Start: a.StartPosition,
				End:   a.EndPosition,
				Order: a.Order,
			})
		}
		refs[row.ID] = l.net.AddTopology(t)
	}
	for _, row := range rows {
		if row.ReferenceID == nil {
			continue
		}
		if src, ok := refs[*row.ReferenceID]; ok {
			l.net.Topology(refs[row.ID]).Reference = src
		}
	}
	return nil
}

func keys[V any](m map[uint]V) []uint {
	out := make([]uint, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
