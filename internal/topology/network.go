// Package topology implements linear referencing over the path network.
//
// Paths and topologies live in an arena (Network) and refer to each other
// through PathRef/TopoRef indices rather than pointers, so a network loaded
// from the database can be cloned, mutated and discarded without touching
// persistent state. Every mutating operation works on a clone and swaps it
// in only when the whole operation, cascade included, succeeded.
package topology

import (
	"sort"

	"github.com/twpayne/go-geom"

	"geotrek_core/internal/dem"
	"geotrek_core/internal/geometry"
)

// PathRef indexes a path in a Network. The zero value refers to nothing.
type PathRef int

// TopoRef indexes a topology in a Network. The zero value refers to nothing.
type TopoRef int

// Kind discriminates the overlays built on top of a topology.
type Kind string

const (
	KindTrek         Kind = "trek"
	KindIntervention Kind = "intervention"
	KindPOI          Kind = "poi"
	KindLandEdge     Kind = "landedge"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindTrek, KindIntervention, KindPOI, KindLandEdge:
		return true
	}
	return false
}

// Path is an atomic trail segment.
type Path struct {
	ID          uint
	StructureID uint
	// Origin is the id of the path this one was cut from, if any.
	Origin   uint
	Geom     *geom.LineString
	Length   float64
	Length2D float64
	dem.ElevationInfo
	Removed bool
}

// Aggregation places a topology on one path between two fractions.
type Aggregation struct {
	Path  PathRef
	Start float64
	End   float64
	Order int
}

// IsPoint reports whether the aggregation anchors a single position.
func (a Aggregation) IsPoint() bool { return a.Start == a.End }

// Forward reports whether the aggregation follows the path direction.
func (a Aggregation) Forward() bool { return a.Start <= a.End }

// Topology is a linear reference over one or more paths. Geom, Length and
// the elevation fields are always derived from Aggregations and Offset.
type Topology struct {
	ID           uint
	StructureID  uint
	Kind         Kind
	Offset       float64
	Aggregations []Aggregation
	// Reference is the topology this one mirrors, for nested topologies.
	Reference TopoRef
	Deleted   bool

	Geom   geom.T
	Length float64
	dem.ElevationInfo
}

// IsPoint reports whether the topology is a single point position.
func (t *Topology) IsPoint() bool {
	return len(t.Aggregations) == 1 && t.Aggregations[0].IsPoint()
}

// Options tune the network behaviour.
type Options struct {
	// SnapDistance is the distance under which path endpoints are merged.
	SnapDistance float64
	// Tolerance is the distance under which two coordinates are the same
	// node of the path graph.
	Tolerance float64
	// MaxCascadeDepth bounds how many levels of nested topologies a single
	// path change may propagate through.
	MaxCascadeDepth int
	// SRID is stamped on computed geometries.
	SRID int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		SnapDistance:    1,
		Tolerance:       1e-6,
		MaxCascadeDepth: 16,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SnapDistance < 0 {
		o.SnapDistance = 0
	}
	if o.Tolerance <= 0 {
		o.Tolerance = d.Tolerance
	}
	if o.MaxCascadeDepth <= 0 {
		o.MaxCascadeDepth = d.MaxCascadeDepth
	}
	return o
}

// Changes lists the nodes modified since the last ClearChanges.
type Changes struct {
	Paths      []PathRef
	Topologies []TopoRef
}

// Network is the arena holding paths and topologies.
type Network struct {
	opts    Options
	paths   []Path
	topos   []Topology
	pathIDs map[uint]PathRef
	topoIDs map[uint]TopoRef

	dirtyPaths map[PathRef]bool
	dirtyTopos map[TopoRef]bool
}

// New returns an empty network.
func New(opts Options) *Network {
	return &Network{
		opts:       opts.withDefaults(),
		pathIDs:    map[uint]PathRef{},
		topoIDs:    map[uint]TopoRef{},
		dirtyPaths: map[PathRef]bool{},
		dirtyTopos: map[TopoRef]bool{},
	}
}

// Options returns the effective options.
func (n *Network) Options() Options { return n.opts }

// AddPath loads a path into the arena without marking it changed. Length
// and elevation fields are measured from the geometry.
func (n *Network) AddPath(p Path) PathRef {
	measurePath(&p)
	n.paths = append(n.paths, p)
	ref := PathRef(len(n.paths))
	if p.ID != 0 {
		n.pathIDs[p.ID] = ref
	}
	return ref
}

// AddTopology loads a topology into the arena as is: nothing is validated
// or recomputed.
func (n *Network) AddTopology(t Topology) TopoRef {
	t.Aggregations = sortedAggregations(t.Aggregations)
	n.topos = append(n.topos, t)
	ref := TopoRef(len(n.topos))
	if t.ID != 0 {
		n.topoIDs[t.ID] = ref
	}
	return ref
}

// Path returns the path at ref, or nil.
func (n *Network) Path(ref PathRef) *Path {
	if ref <= 0 || int(ref) > len(n.paths) {
		return nil
	}
	return &n.paths[ref-1]
}

// Topology returns the topology at ref, or nil.
func (n *Network) Topology(ref TopoRef) *Topology {
	if ref <= 0 || int(ref) > len(n.topos) {
		return nil
	}
	return &n.topos[ref-1]
}

func (n *Network) livePath(ref PathRef) *Path {
	p := n.Path(ref)
	if p == nil || p.Removed {
		return nil
	}
	return p
}

// PathRef resolves a persisted path id.
func (n *Network) PathRef(id uint) (PathRef, bool) {
	ref, ok := n.pathIDs[id]
	return ref, ok
}

// TopologyRef resolves a persisted topology id.
func (n *Network) TopologyRef(id uint) (TopoRef, bool) {
	ref, ok := n.topoIDs[id]
	return ref, ok
}

// SetPathID records the id a new path received when persisted.
func (n *Network) SetPathID(ref PathRef, id uint) {
	if p := n.Path(ref); p != nil {
		p.ID = id
		n.pathIDs[id] = ref
	}
}

// SetTopologyID records the id a new topology received when persisted.
func (n *Network) SetTopologyID(ref TopoRef, id uint) {
	if t := n.Topology(ref); t != nil {
		t.ID = id
		n.topoIDs[id] = ref
	}
}

// PathRefs lists the live paths.
func (n *Network) PathRefs() []PathRef {
	out := make([]PathRef, 0, len(n.paths))
	for i := range n.paths {
		if !n.paths[i].Removed {
			out = append(out, PathRef(i+1))
		}
	}
	return out
}

// TopologyRefs lists every topology, soft-deleted ones included.
func (n *Network) TopologyRefs() []TopoRef {
	out := make([]TopoRef, len(n.topos))
	for i := range n.topos {
		out[i] = TopoRef(i + 1)
	}
	return out
}

// Changes returns the paths and topologies modified since the last call to
// ClearChanges, in arena order.
func (n *Network) Changes() Changes {
	var c Changes
	for ref := range n.dirtyPaths {
		c.Paths = append(c.Paths, ref)
	}
	for ref := range n.dirtyTopos {
		c.Topologies = append(c.Topologies, ref)
	}
	sort.Slice(c.Paths, func(i, j int) bool { return c.Paths[i] < c.Paths[j] })
	sort.Slice(c.Topologies, func(i, j int) bool { return c.Topologies[i] < c.Topologies[j] })
	return c
}

// ClearChanges forgets modifications reported so far.
func (n *Network) ClearChanges() {
	n.dirtyPaths = map[PathRef]bool{}
	n.dirtyTopos = map[TopoRef]bool{}
}

func (n *Network) clone() *Network {
	c := &Network{
		opts:       n.opts,
		paths:      append([]Path(nil), n.paths...),
		topos:      make([]Topology, len(n.topos)),
		pathIDs:    make(map[uint]PathRef, len(n.pathIDs)),
		topoIDs:    make(map[uint]TopoRef, len(n.topoIDs)),
		dirtyPaths: make(map[PathRef]bool, len(n.dirtyPaths)),
		dirtyTopos: make(map[TopoRef]bool, len(n.dirtyTopos)),
	}
	for i, t := range n.topos {
		t.Aggregations = append([]Aggregation(nil), t.Aggregations...)
		c.topos[i] = t
	}
	for k, v := range n.pathIDs {
		c.pathIDs[k] = v
	}
	for k, v := range n.topoIDs {
		c.topoIDs[k] = v
	}
	for k := range n.dirtyPaths {
		c.dirtyPaths[k] = true
	}
	for k := range n.dirtyTopos {
		c.dirtyTopos[k] = true
	}
	return c
}

func (n *Network) commit(work *Network) { *n = *work }

// InsertPath adds a new path and marks it changed.
func (n *Network) InsertPath(p Path) PathRef {
	p.Geom = p.Geom.SetSRID(n.opts.SRID)
	ref := n.AddPath(p)
	n.dirtyPaths[ref] = true
	return ref
}

// UpdatePath replaces the geometry of a path and cascades the change to
// every topology depending on it. It returns the recomputed topologies.
func (n *Network) UpdatePath(ref PathRef, ls *geom.LineString) ([]TopoRef, error) {
	if n.livePath(ref) == nil {
		return nil, ErrPathNotFound
	}
	work := n.clone()
	work.setPathGeometry(ref, ls)
	affected, err := work.cascade(work.topologiesOn(false, ref))
	if err != nil {
		return nil, err
	}
	n.commit(work)
	return affected, nil
}

func (n *Network) setPathGeometry(ref PathRef, ls *geom.LineString) {
	p := n.Path(ref)
	p.Geom = ls.SetSRID(n.opts.SRID)
	measurePath(p)
	n.dirtyPaths[ref] = true
}

func measurePath(p *Path) {
	if p.Geom == nil {
		return
	}
	p.Length = geometry.Length3D(p.Geom)
	p.Length2D = geometry.Length2D(p.Geom)
	p.ElevationInfo = dem.Stats(p.Geom)
}

// topologiesOn lists the topologies with an aggregation on one of paths.
// Soft-deleted topologies are included only when withDeleted is set.
func (n *Network) topologiesOn(withDeleted bool, paths ...PathRef) []TopoRef {
	set := make(map[PathRef]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	var out []TopoRef
	for i := range n.topos {
		t := &n.topos[i]
		if t.Deleted && !withDeleted {
			continue
		}
		for _, a := range t.Aggregations {
			if set[a.Path] {
				out = append(out, TopoRef(i+1))
				break
			}
		}
	}
	return out
}

func sortedAggregations(aggs []Aggregation) []Aggregation {
	out := append([]Aggregation(nil), aggs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func renumber(aggs []Aggregation) []Aggregation {
	for i := range aggs {
		aggs[i].Order = i
	}
	return aggs
}
