package topology

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPathNotFound      = errors.New("path not found")
	ErrTopologyNotFound  = errors.New("topology not found")
	ErrPathInUse         = errors.New("path is referenced by topologies")
	ErrPathsNotConnected = errors.New("paths do not share a free endpoint")
	ErrInvalidSplit      = errors.New("split fraction must lie strictly between 0 and 1")
	ErrInvalidPosition   = errors.New("aggregation position out of [0,1]")
	ErrDisconnectedWalk  = errors.New("aggregations do not form a connected walk")
	ErrEmptyTopology     = errors.New("topology has no aggregation")
	ErrNoRoute           = errors.New("no route between locations")
	ErrInvalidKind       = errors.New("unknown topology kind")
)

// ConsistencyCascadeError aborts a recomputation cascade that does not
// converge. Nothing computed during the cascade is kept.
type ConsistencyCascadeError struct {
	TopologyID uint
	Depth      int
	// Cycle lists the topology ids of the reference loop, when one was found.
	Cycle  []uint
	Reason string
}

func (e *ConsistencyCascadeError) Error() string {
	msg := fmt.Sprintf("consistency cascade aborted at topology %d (depth %d): %s", e.TopologyID, e.Depth, e.Reason)
	if len(e.Cycle) > 0 {
		ids := make([]string, len(e.Cycle))
		for i, id := range e.Cycle {
			ids[i] = fmt.Sprint(id)
		}
		msg += " [" + strings.Join(ids, " -> ") + "]"
	}
	return msg
}
