package models

// PathAggregation places a topology on a path between two fractions.
// Order gives the position of the aggregation in the topology walk.
type PathAggregation struct {
	ID uint `gorm:"primaryKey" json:"id"`

	TopologyID    uint    `gorm:"index;not null" json:"topology_id"`
	PathID        uint    `gorm:"index;not null" json:"path_id"`
	StartPosition float64 `json:"start_position"`
	EndPosition   float64 `json:"end_position"`
	Order         int     `gorm:"column:order_index" json:"order"`
}
