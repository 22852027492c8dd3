package models

import (
	"time"
)

// Topology is a linear reference over one or more paths. Geom, Length and
// the elevation columns are derived from the aggregations and the offset.
type Topology struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	StructureID uint `gorm:"index" json:"structure_id"`

	Kind   string  `gorm:"index;not null" json:"kind"`
	Offset float64 `json:"offset"`

	Geom         Geometry `json:"geom"`
	Length       float64  `json:"length"`
	Ascent       float64  `json:"ascent"`
	Descent      float64  `json:"descent"`
	MinElevation float64  `json:"min_elevation"`
	MaxElevation float64  `json:"max_elevation"`
	Slope        float64  `json:"slope"`

	Deleted bool `gorm:"index;default:false" json:"deleted"`

	// ReferenceID is the topology this one mirrors.
	ReferenceID *uint `gorm:"index" json:"reference_id,omitempty"`

	Aggregations []PathAggregation `gorm:"foreignKey:TopologyID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"aggregations"`
}

// DerivedColumns lists the columns written when a topology is recomputed.
var DerivedColumns = []string{
	"geom", "length", "ascent", "descent", "min_elevation", "max_elevation",
	"slope", "deleted", "reference_id", "offset",
}
