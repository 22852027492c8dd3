package models

import (
	"time"

	"gorm.io/gorm"
)

// Overlay is a domain object located on the network through a topology.
type Overlay interface {
	OverlayKind() string
	GetTopologyID() uint
	SetTopologyID(id uint)
	SetStructureID(id uint)
}

// Trek is a hiking itinerary.
type Trek struct {
	gorm.Model

	StructureID uint      `gorm:"index" json:"structure_id"`
	TopologyID  uint      `gorm:"uniqueIndex;not null" json:"topology_id"`
	Topology    *Topology `gorm:"foreignKey:TopologyID" json:"topology,omitempty"`

	Name      string  `json:"name" binding:"required"`
	Departure string  `json:"departure"`
	Arrival   string  `json:"arrival"`
	Duration  float64 `json:"duration"`
}

func (*Trek) OverlayKind() string { return "trek" }
func (t *Trek) GetTopologyID() uint { return t.TopologyID }
func (t *Trek) SetTopologyID(id uint) { t.TopologyID = id }
func (t *Trek) SetStructureID(id uint) { t.StructureID = id }

// Intervention is maintenance work, optionally carried out on another
// overlay's topology.
type Intervention struct {
	gorm.Model

	StructureID uint      `gorm:"index" json:"structure_id"`
	TopologyID  uint      `gorm:"uniqueIndex;not null" json:"topology_id"`
	Topology    *Topology `gorm:"foreignKey:TopologyID" json:"topology,omitempty"`

	Name             string    `json:"name" binding:"required"`
	Date             time.Time `json:"date"`
	Cost             float64   `json:"cost"`
	TargetTopologyID *uint     `json:"target_topology_id,omitempty"`
}

func (*Intervention) OverlayKind() string { return "intervention" }
func (i *Intervention) GetTopologyID() uint { return i.TopologyID }
func (i *Intervention) SetTopologyID(id uint) { i.TopologyID = id }
func (i *Intervention) SetStructureID(id uint) { i.StructureID = id }

// POI is a point of interest.
type POI struct {
	gorm.Model

	StructureID uint      `gorm:"index" json:"structure_id"`
	TopologyID  uint      `gorm:"uniqueIndex;not null" json:"topology_id"`
	Topology    *Topology `gorm:"foreignKey:TopologyID" json:"topology,omitempty"`

	Name        string `json:"name" binding:"required"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

func (*POI) OverlayKind() string { return "poi" }
func (p *POI) GetTopologyID() uint { return p.TopologyID }
func (p *POI) SetTopologyID(id uint) { p.TopologyID = id }
func (p *POI) SetStructureID(id uint) { p.StructureID = id }

// LandEdge is a stretch of land type along the network.
type LandEdge struct {
	gorm.Model

	StructureID uint      `gorm:"index" json:"structure_id"`
	TopologyID  uint      `gorm:"uniqueIndex;not null" json:"topology_id"`
	Topology    *Topology `gorm:"foreignKey:TopologyID" json:"topology,omitempty"`

	LandType string `json:"land_type" binding:"required"`
}

func (*LandEdge) OverlayKind() string { return "landedge" }
func (e *LandEdge) GetTopologyID() uint { return e.TopologyID }
func (e *LandEdge) SetTopologyID(id uint) { e.TopologyID = id }
func (e *LandEdge) SetStructureID(id uint) { e.StructureID = id }
