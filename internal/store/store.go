// Package store persists the path network. Each mutation loads the part of
// the network it can reach into a topology.Network, runs the operation in
// memory and writes the resulting change set back in one transaction.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"geotrek_core/internal/dem"
	"geotrek_core/internal/events"
	"geotrek_core/internal/topology"
)

// DeletePolicy decides what happens to aggregations on a deleted path.
type DeletePolicy string

const (
	// DeleteBlock refuses to delete a path still used by a topology.
	DeleteBlock DeletePolicy = "block"
	// DeleteCascade drops the aggregations and recomputes the topologies.
	DeleteCascade DeletePolicy = "cascade"
)

// ErrKindShape is returned when a topology's shape does not fit its kind,
// such as a POI spanning a line.
var ErrKindShape = errors.New("topology shape does not match its kind")

// ErrUnloadablePath is returned when a stored walk crosses a path whose
// row is missing or has no linestring geometry. The walk is left as stored.
var ErrUnloadablePath = errors.New("aggregation on a path that cannot be loaded")

// Config tunes a Store.
type Config struct {
	Network topology.Options
	// DEM drapes path geometries when set.
	DEM     dem.Sampler
	DEMStep float64
	Delete  DeletePolicy
}

// Store is the persistent path network.
type Store struct {
	db  *gorm.DB
	cfg Config
	pub events.Publisher
}

// New returns a Store writing through db and announcing committed changes
// to pub.
func New(db *gorm.DB, cfg Config, pub events.Publisher) *Store {
	if cfg.Delete == "" {
		cfg.Delete = DeleteBlock
	}
	if pub == nil {
		pub = events.Discard
	}
	return &Store{db: db, cfg: cfg, pub: pub}
}

// DB returns the underlying handle.
func (s *Store) DB() *gorm.DB { return s.db }

// writeAttempts bounds how often a transaction aborted by a deadlock or a
// serialization failure is replayed.
const writeAttempts = 3

// write runs fn inside a transaction, rolling back on any error. fn is run
// again from scratch when PostgreSQL aborts the transaction to resolve a
// lock conflict, so it must not keep state across calls.
func (s *Store) write(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= writeAttempts; attempt++ {
		if err = s.writeOnce(ctx, fn); !retryable(err) {
			return err
		}
		logrus.WithError(err).WithField("attempt", attempt).Warn("store: transaction conflict, retrying")
	}
	return err
}

// retryable reports whether err is a deadlock or a serialization failure.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40P01" || pgErr.Code == "40001"
}

func (s *Store) writeOnce(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		var cascadeErr *topology.ConsistencyCascadeError
		if errors.As(err, &cascadeErr) {
			logrus.WithError(err).WithField("topology_id", cascadeErr.TopologyID).Error("store: cascade aborted, transaction rolled back")
		}
		return err
	}
	return tx.Commit().Error
}

func (s *Store) publish(kind string, structureID uint, paths, topologies []uint) {
	s.pub.Publish(events.Event{
		Type:        kind,
		StructureID: structureID,
		PathIDs:     paths,
		TopologyIDs: topologies,
		At:          time.Now().UTC(),
	})
}

// notFound turns a missing row into the matching domain error.
func notFound(err, domain error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain
	}
	return err
}
