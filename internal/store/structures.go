package store

import (
	"context"

	"geotrek_core/internal/models"
)

// CreateStructure registers a new structure.
func (s *Store) CreateStructure(ctx context.Context, name string) (*models.Structure, error) {
	row := &models.Structure{Name: name}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// ListStructures returns every structure.
func (s *Store) ListStructures(ctx context.Context) ([]models.Structure, error) {
	var rows []models.Structure
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
