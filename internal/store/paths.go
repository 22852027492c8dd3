package store

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/twpayne/go-geom"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"geotrek_core/internal/dem"
	"geotrek_core/internal/events"
	"geotrek_core/internal/geometry"
	"geotrek_core/internal/models"
	"geotrek_core/internal/topology"
)

// PathInput carries the writable fields of a path. Nil fields are left
// untouched on update.
type PathInput struct {
	Geom         *geom.LineString
	GeomCadastre geom.T
	Name         *string
	Comments     *string
	Valid        *bool

	TrailID      *uint
	NetworkID    *uint
	UsageID      *uint
	ComfortID    *uint
	StakeID      *uint
	DatasourceID *uint
}

var attributeColumns = []string{
	"geom_cadastre", "name", "comments", "valid", "trail_id", "network_id",
	"usage_id", "comfort_id", "stake_id", "datasource_id",
}

func (in PathInput) apply(row *models.Path) {
	if in.GeomCadastre != nil {
		row.GeomCadastre = models.NewGeometry(in.GeomCadastre)
	}
	if in.Name != nil {
		row.Name = *in.Name
	}
	if in.Comments != nil {
		row.Comments = *in.Comments
	}
	if in.Valid != nil {
		row.Valid = *in.Valid
	}
	for _, f := range []struct {
		src *uint
		dst **uint
	}{
		{in.TrailID, &row.TrailID},
		{in.NetworkID, &row.NetworkID},
		{in.UsageID, &row.UsageID},
		{in.ComfortID, &row.ComfortID},
		{in.StakeID, &row.StakeID},
		{in.DatasourceID, &row.DatasourceID},
	} {
		if f.src != nil {
			*f.dst = f.src
		}
	}
}

// SplitResult holds the two paths produced by a split.
type SplitResult struct {
	First      *models.Path `json:"first"`
	Second     *models.Path `json:"second"`
	Topologies []uint       `json:"topologies"`
}

// Location is a position on a stored path.
type Location struct {
	PathID   uint    `json:"path_id"`
	Fraction float64 `json:"fraction"`
	Distance float64 `json:"distance"`
}

// prepareLine normalises and validates an input geometry.
func prepareLine(ls *geom.LineString) (*geom.LineString, error) {
	out, err := geometry.ToXYZ(ls)
	if err != nil {
		return nil, err
	}
	if err := geometry.Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

// finishLine snaps the endpoints of ls onto the network, validates the
// result again and drapes it on the DEM.
func (s *Store) finishLine(l *loaded, ls *geom.LineString, exclude topology.PathRef) (*geom.LineString, error) {
	ls = l.net.SnapEndpoints(ls, exclude)
	if err := geometry.Validate(ls); err != nil {
		return nil, err
	}
	if s.cfg.DEM != nil {
		ls = dem.Drape(s.cfg.DEM, ls, s.cfg.DEMStep)
	}
	return ls, nil
}

func endpoints(ls *geom.LineString) []geom.Coord {
	return []geom.Coord{geometry.Start(ls), geometry.End(ls)}
}

// CreatePath validates, snaps and drapes a new path and stores it.
func (s *Store) CreatePath(ctx context.Context, structureID uint, in PathInput) (*models.Path, error) {
	ls, err := prepareLine(in.Geom)
	if err != nil {
		return nil, err
	}

	var row *models.Path
	err = s.write(ctx, func(tx *gorm.DB) error {
		l, err := s.load(tx, scope{structureID: structureID, near: endpoints(ls), noPathTopologies: true})
		if err != nil {
			return err
		}
		final, err := s.finishLine(l, ls, 0)
		if err != nil {
			return err
		}
		row = &models.Path{StructureID: structureID, Valid: true}
		in.apply(row)
		ref := l.net.InsertPath(topology.Path{StructureID: structureID, Geom: final})
		l.pending[ref] = row
		_, err = s.persist(tx, l)
		return err
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"path_id": row.ID, "length": row.Length}).Info("path created")
	s.publish(events.PathCreated, structureID, []uint{row.ID}, nil)
	return row, nil
}

// UpdatePath rewrites the attributes of a path and, when a geometry is
// given, its geometry; every dependent topology is recomputed in the same
// transaction. It returns the path and the recomputed topology ids.
func (s *Store) UpdatePath(ctx context.Context, structureID, id uint, in PathInput) (*models.Path, []uint, error) {
	var ls *geom.LineString
	if in.Geom != nil {
		var err error
		if ls, err = prepareLine(in.Geom); err != nil {
			return nil, nil, err
		}
	}

	var row *models.Path
	var affected []uint
	err := s.write(ctx, func(tx *gorm.DB) error {
		sc := scope{structureID: structureID, paths: []uint{id}}
		if ls != nil {
			sc.near = endpoints(ls)
		}
		l, err := s.load(tx, sc)
		if err != nil {
			return err
		}
		row = l.paths[id]
		in.apply(row)
		if err := tx.Model(row).Select(attributeColumns).Updates(row).Error; err != nil {
			return err
		}
		if ls == nil {
			return nil
		}

		ref, _ := l.net.PathRef(id)
		final, err := s.finishLine(l, ls, ref)
		if err != nil {
			return err
		}
		if _, err := l.net.UpdatePath(ref, final); err != nil {
			return err
		}
		w, err := s.persist(tx, l)
		if err != nil {
			return err
		}
		affected = w.topologies
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logrus.WithFields(logrus.Fields{"path_id": id, "topologies": len(affected)}).Info("path updated")
	s.publish(events.PathUpdated, structureID, []uint{id}, affected)
	return row, affected, nil
}

// GetPath returns a live path.
func (s *Store) GetPath(ctx context.Context, structureID, id uint) (*models.Path, error) {
	q := s.db.WithContext(ctx)
	if structureID != 0 {
		q = q.Where("structure_id = ?", structureID)
	}
	var row models.Path
	if err := q.First(&row, id).Error; err != nil {
		return nil, notFound(err, topology.ErrPathNotFound)
	}
	return &row, nil
}

// ListPaths returns the live paths of a structure, every structure when
// structureID is zero.
func (s *Store) ListPaths(ctx context.Context, structureID uint) ([]models.Path, error) {
	q := s.db.WithContext(ctx).Order("id")
	if structureID != 0 {
		q = q.Where("structure_id = ?", structureID)
	}
	var rows []models.Path
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DeletePath removes a path according to the configured DeletePolicy and
// returns the recomputed topology ids.
func (s *Store) DeletePath(ctx context.Context, structureID, id uint) ([]uint, error) {
	var affected []uint
	err := s.write(ctx, func(tx *gorm.DB) error {
		l, err := s.load(tx, scope{structureID: structureID, paths: []uint{id}})
		if err != nil {
			return err
		}
		ref, _ := l.net.PathRef(id)
		if _, err := l.net.RemovePath(ref, s.cfg.Delete == DeleteCascade); err != nil {
			return err
		}
		w, err := s.persist(tx, l)
		if err != nil {
			return err
		}
		affected = w.topologies
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"path_id": id, "policy": s.cfg.Delete}).Info("path deleted")
	s.publish(events.PathDeleted, structureID, []uint{id}, affected)
	return affected, nil
}

// SplitPath cuts a path at fraction f into two new paths.
func (s *Store) SplitPath(ctx context.Context, structureID, id uint, f float64) (*SplitResult, error) {
	var res *SplitResult
	err := s.write(ctx, func(tx *gorm.DB) error {
		l, err := s.load(tx, scope{structureID: structureID, paths: []uint{id}})
		if err != nil {
			return err
		}
		ref, _ := l.net.PathRef(id)
		split, err := l.net.Split(ref, f)
		if err != nil {
			return err
		}
		w, err := s.persist(tx, l)
		if err != nil {
			return err
		}
		res = &SplitResult{
			First:      l.paths[l.net.Path(split.First).ID],
			Second:     l.paths[l.net.Path(split.Second).ID],
			Topologies: w.topologies,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.PathSplit, structureID, []uint{id, res.First.ID, res.Second.ID}, res.Topologies)
	return res, nil
}

// MergePaths joins path b into path a.
func (s *Store) MergePaths(ctx context.Context, structureID, a, b uint) (*models.Path, []uint, error) {
	var row *models.Path
	var affected []uint
	err := s.write(ctx, func(tx *gorm.DB) error {
		if a == b {
			return topology.ErrPathsNotConnected
		}
		var rows []models.Path
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id IN ?", []uint{a, b}).Order("id").Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) != 2 {
			return topology.ErrPathNotFound
		}
		var near []geom.Coord
		for _, p := range rows {
			if ls := p.Geom.LineString(); ls != nil {
				near = append(near, endpoints(ls)...)
			}
		}
		l, err := s.load(tx, scope{structureID: structureID, paths: []uint{a, b}, near: near})
		if err != nil {
			return err
		}
		ra, _ := l.net.PathRef(a)
		rb, _ := l.net.PathRef(b)
		if _, err := l.net.Merge(ra, rb); err != nil {
			return err
		}
		w, err := s.persist(tx, l)
		if err != nil {
			return err
		}
		row, affected = l.paths[a], w.topologies
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.publish(events.PathsMerged, structureID, []uint{a, b}, affected)
	return row, affected, nil
}

// LocatePoint finds the live path nearest to (x, y). It only reads.
func (s *Store) LocatePoint(ctx context.Context, structureID uint, x, y float64) (*Location, error) {
	sc := scope{structureID: structureID, allPaths: true, noPathTopologies: true, readOnly: true}
	l, err := s.load(s.db.WithContext(ctx), sc)
	if err != nil {
		return nil, err
	}
	found, err := l.net.Locate(x, y)
	if err != nil {
		return nil, err
	}
	return &Location{PathID: l.net.Path(found.Path).ID, Fraction: found.Fraction, Distance: found.Distance}, nil
}
