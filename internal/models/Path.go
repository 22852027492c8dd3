package models

import (
	"gorm.io/gorm"
)

// Path is an atomic trail segment of the network.
// Geometry is a 3D linestring; every other numeric column is derived from it
// and rewritten whenever the geometry changes.
type Path struct {
	gorm.Model

	StructureID uint `gorm:"index" json:"structure_id"`

	Geom         Geometry `json:"geom"`
	GeomCadastre Geometry `json:"geom_cadastre"`

	Name     string `json:"name"`
	Comments string `json:"comments"`
	Valid    bool   `json:"valid"`

	Length       float64 `json:"length"`
	Length2D     float64 `gorm:"column:length_2d" json:"length_2d"`
	Ascent       float64 `json:"ascent"`
	Descent      float64 `json:"descent"`
	MinElevation float64 `json:"min_elevation"`
	MaxElevation float64 `json:"max_elevation"`
	Slope        float64 `json:"slope"`

	// Endpoints and bounding box, kept for neighbourhood queries.
	StartX float64 `gorm:"index:idx_path_start" json:"-"`
	StartY float64 `gorm:"index:idx_path_start" json:"-"`
	EndX   float64 `gorm:"index:idx_path_end" json:"-"`
	EndY   float64 `gorm:"index:idx_path_end" json:"-"`
	MinX   float64 `json:"-"`
	MinY   float64 `json:"-"`
	MaxX   float64 `json:"-"`
	MaxY   float64 `json:"-"`

	// Classification
	TrailID      *uint `json:"trail_id"`
	NetworkID    *uint `json:"network_id"`
	UsageID      *uint `json:"usage_id"`
	ComfortID    *uint `json:"comfort_id"`
	StakeID      *uint `json:"stake_id"`
	DatasourceID *uint `json:"datasource_id"`

	// Origin is the path this one was cut from by a split.
	OriginID *uint `json:"origin_id,omitempty"`
}

// GeometryColumns lists the columns written when a path geometry changes.
var GeometryColumns = []string{
	"geom", "length", "length_2d", "ascent", "descent", "min_elevation",
	"max_elevation", "slope", "start_x", "start_y", "end_x", "end_y",
	"min_x", "min_y", "max_x", "max_y",
}

// BeforeDelete keeps gorm from soft-deleting a path that still carries
// aggregations, as a last line of protection under the block policy.
func (p *Path) BeforeDelete(tx *gorm.DB) error {
	var count int64
	if err := tx.Model(&PathAggregation{}).Where("path_id = ?", p.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrPathReferenced
	}
	return nil
}
