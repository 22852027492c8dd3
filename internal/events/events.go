// Package events carries cascade notifications from the store to the
// websocket clients, optionally through PostgreSQL LISTEN/NOTIFY so that
// every running instance sees the changes made by the others.
package events

import (
	"encoding/json"
	"time"
)

// Event types.
const (
	PathCreated     = "path.created"
	PathUpdated     = "path.updated"
	PathDeleted     = "path.deleted"
	PathSplit       = "path.split"
	PathsMerged     = "paths.merged"
	TopologyCreated = "topology.created"
	TopologyDeleted = "topology.deleted"
)

// Event reports the paths and topologies written by one committed mutation.
type Event struct {
	Type        string    `json:"type"`
	StructureID uint      `json:"structure_id"`
	PathIDs     []uint    `json:"path_ids,omitempty"`
	TopologyIDs []uint    `json:"topology_ids,omitempty"`
	At          time.Time `json:"at"`
}

// Publisher receives committed events.
type Publisher interface {
	Publish(ev Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ev Event)

func (f PublisherFunc) Publish(ev Event) { f(ev) }

// Discard drops every event.
var Discard Publisher = PublisherFunc(func(Event) {})

// Encode serializes ev as a notification payload.
func Encode(ev Event) (string, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode parses a notification payload.
func Decode(payload string) (Event, error) {
	var ev Event
	err := json.Unmarshal([]byte(payload), &ev)
	return ev, err
}
