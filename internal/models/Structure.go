// internal/models/structure.go
package models

import (
	"gorm.io/gorm"
)

// Structure is the organisation owning a part of the trail network.
// Paths and overlays are always scoped to one structure.
type Structure struct {
	gorm.Model

	Name string `gorm:"uniqueIndex;not null" json:"name" binding:"required"`

	Paths []Path `gorm:"foreignKey:StructureID" json:"paths,omitempty"`
}

// All lists every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&Structure{}, &Path{}, &Topology{}, &PathAggregation{},
		&Trek{}, &Intervention{}, &POI{}, &LandEdge{},
	}
}
