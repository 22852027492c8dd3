package topology

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"geotrek_core/internal/geometry"
)

func newNetwork() *Network {
	return New(Options{SnapDistance: 1, MaxCascadeDepth: 4})
}

func addPath(n *Network, id uint, coords ...float64) PathRef {
	return n.AddPath(Path{ID: id, Geom: geom.NewLineStringFlat(geom.XYZ, coords)})
}

func assertFlat(t *testing.T, want []float64, g geom.T) {
	t.Helper()
	require.NotNil(t, g)
	got := g.FlatCoords()
	require.Len(t, got, len(want), "got %v", got)
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-9, "ordinate %d of %v", i, got)
	}
}

func assertAggregation(t *testing.T, want, got Aggregation) {
	t.Helper()
	assert.Equal(t, want.Path, got.Path)
	assert.InDelta(t, want.Start, got.Start, 1e-9)
	assert.InDelta(t, want.End, got.End, 1e-9)
	assert.Equal(t, want.Order, got.Order)
}

// twoPaths builds A=(0,0)-(10,0) and B=(10,0)-(20,0).
func twoPaths() (*Network, PathRef, PathRef) {
	n := newNetwork()
	a := addPath(n, 1, 0, 0, 0, 10, 0, 0)
	b := addPath(n, 2, 10, 0, 0, 20, 0, 0)
	return n, a, b
}

func TestTopologyAcrossTwoPaths(t *testing.T) {
	n, a, b := twoPaths()
	ref, err := n.Insert(Topology{Kind: KindTrek, Aggregations: []Aggregation{
		{Path: a, Start: 0.5, End: 1, Order: 0},
		{Path: b, Start: 0, End: 0.5, Order: 1},
	}})
	require.NoError(t, err)

	topo := n.Topology(ref)
	assertFlat(t, []float64{5, 0, 0, 10, 0, 0, 15, 0, 0}, topo.Geom)
	assert.InDelta(t, 10.0, topo.Length, 1e-12)
}

func TestLengthIsSumOfAggregationLengths(t *testing.T) {
	n := newNetwork()
	a := addPath(n, 1, 0, 0, 100, 30, 0, 140, 30, 40, 140)
	b := addPath(n, 2, 30, 40, 140, 30, 80, 110)
	aggs := []Aggregation{
		{Path: a, Start: 0, End: 1, Order: 0},
		{Path: b, Start: 0, End: 0.75, Order: 1},
	}
	ref, err := n.Insert(Topology{Kind: KindTrek, Aggregations: aggs})
	require.NoError(t, err)

	want := 0.0
	for _, agg := range aggs {
		want += geometry.Length3D(geometry.Substring(n.Path(agg.Path).Geom, agg.Start, agg.End))
	}
	got, err := n.ComputeLength(aggs)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-9)
	assert.InDelta(t, want, n.Topology(ref).Length, 1e-9)
	assert.Greater(t, n.Topology(ref).Length, geometry.Length2D(n.Topology(ref).Geom.(*geom.LineString)))
	assert.InDelta(t, 40.0, n.Topology(ref).Ascent, 1e-9)
	assert.InDelta(t, 22.5, n.Topology(ref).Descent, 1e-9)
}

func TestPointTopology(t *testing.T) {
	n, a, _ := twoPaths()
	ref, err := n.Insert(Topology{Kind: KindPOI, Aggregations: []Aggregation{{Path: a, Start: 0.3, End: 0.3}}})
	require.NoError(t, err)

	topo := n.Topology(ref)
	assert.True(t, topo.IsPoint())
	_, isPoint := topo.Geom.(*geom.Point)
	require.True(t, isPoint)
	assertFlat(t, []float64{3, 0, 0}, topo.Geom)
	assert.Zero(t, topo.Length)

	shifted, err := n.Insert(Topology{Kind: KindPOI, Offset: 2, Aggregations: []Aggregation{{Path: a, Start: 0.3, End: 0.3}}})
	require.NoError(t, err)
	assertFlat(t, []float64{3, 2, 0}, n.Topology(shifted).Geom)
}

func TestOffsetTopology(t *testing.T) {
	n, a, b := twoPaths()
	ref, err := n.Insert(Topology{Kind: KindLandEdge, Offset: -1, Aggregations: []Aggregation{
		{Path: a, Start: 0, End: 1, Order: 0},
		{Path: b, Start: 0, End: 1, Order: 1},
	}})
	require.NoError(t, err)
	assertFlat(t, []float64{0, -1, 0, 10, -1, 0, 20, -1, 0}, n.Topology(ref).Geom)
	assert.InDelta(t, 20.0, n.Topology(ref).Length, 1e-12)
}

func TestRecomputeIsIdempotent(t *testing.T) {
	n := newNetwork()
	a := addPath(n, 1, 0, 0, 10, 3.3, 7.1, 12.5, 9.7, 2.2, 8)
	ref, err := n.Insert(Topology{Kind: KindTrek, Offset: 1.5, Aggregations: []Aggregation{{Path: a, Start: 0.17, End: 0.83}}})
	require.NoError(t, err)

	require.NoError(t, n.Recompute(ref))
	first := *n.Topology(ref)
	require.NoError(t, n.Recompute(ref))
	second := *n.Topology(ref)

	assert.Equal(t, first.Geom.FlatCoords(), second.Geom.FlatCoords())
	assert.Equal(t, first.Length, second.Length)
	assert.Equal(t, first.ElevationInfo, second.ElevationInfo)
}

func TestSplitRemapsAggregations(t *testing.T) {
	n := newNetwork()
	a := addPath(n, 1, 0, 0, 0, 10, 0, 0)
	ref, err := n.Insert(Topology{ID: 7, Kind: KindTrek, Aggregations: []Aggregation{{Path: a, Start: 0.2, End: 0.8}}})
	require.NoError(t, err)
	n.ClearChanges()

	res, err := n.Split(a, 0.5)
	require.NoError(t, err)

	assertFlat(t, []float64{0, 0, 0, 5, 0, 0}, n.Path(res.First).Geom)
	assertFlat(t, []float64{5, 0, 0, 10, 0, 0}, n.Path(res.Second).Geom)
	assert.True(t, n.Path(a).Removed)
	assert.Equal(t, uint(1), n.Path(res.First).Origin)

	topo := n.Topology(ref)
	require.Len(t, topo.Aggregations, 2)
	assertAggregation(t, Aggregation{Path: res.First, Start: 0.4, End: 1, Order: 0}, topo.Aggregations[0])
	assertAggregation(t, Aggregation{Path: res.Second, Start: 0, End: 0.6, Order: 1}, topo.Aggregations[1])
	assertFlat(t, []float64{2, 0, 0, 5, 0, 0, 8, 0, 0}, topo.Geom)
	assert.InDelta(t, 6.0, topo.Length, 1e-9)
	assert.Equal(t, []TopoRef{ref}, res.Affected)

	changes := n.Changes()
	assert.ElementsMatch(t, []PathRef{a, res.First, res.Second}, changes.Paths)
	assert.Equal(t, []TopoRef{ref}, changes.Topologies)
}

func TestSplitReversedAggregation(t *testing.T) {
	n := newNetwork()
	a := addPath(n, 1, 0, 0, 0, 10, 0, 0)
	ref, err := n.Insert(Topology{Kind: KindTrek, Aggregations: []Aggregation{{Path: a, Start: 0.8, End: 0.2}}})
	require.NoError(t, err)

	res, err := n.Split(a, 0.5)
	require.NoError(t, err)

	topo := n.Topology(ref)
	require.Len(t, topo.Aggregations, 2)
	assertAggregation(t, Aggregation{Path: res.Second, Start: 0.6, End: 0, Order: 0}, topo.Aggregations[0])
	assertAggregation(t, Aggregation{Path: res.First, Start: 1, End: 0.4, Order: 1}, topo.Aggregations[1])
	assertFlat(t, []float64{8, 0, 0, 5, 0, 0, 2, 0, 0}, topo.Geom)
}

func TestSplitPointsAndOneSidedRanges(t *testing.T) {
	n := newNetwork()
	a := addPath(n, 1, 0, 0, 0, 10, 0, 0)
	atCut, err := n.Insert(Topology{Kind: KindPOI, Aggregations: []Aggregation{{Path: a, Start: 0.5, End: 0.5}}})
	require.NoError(t, err)
	after, err := n.Insert(Topology{Kind: KindPOI, Aggregations: []Aggregation{{Path: a, Start: 0.7, End: 0.7}}})
	require.NoError(t, err)
	tail, err := n.Insert(Topology{Kind: KindTrek, Aggregations: []Aggregation{{Path: a, Start: 0.5, End: 1}}})
	require.NoError(t, err)

	res, err := n.Split(a, 0.5)
	require.NoError(t, err)

	assertAggregation(t, Aggregation{Path: res.First, Start: 1, End: 1}, n.Topology(atCut).Aggregations[0])
	assertAggregation(t, Aggregation{Path: res.Second, Start: 0.4, End: 0.4}, n.Topology(after).Aggregations[0])
	require.Len(t, n.Topology(tail).Aggregations, 1)
	assertAggregation(t, Aggregation{Path: res.Second, Start: 0, End: 1}, n.Topology(tail).Aggregations[0])
	assertFlat(t, []float64{5, 0, 0}, n.Topology(atCut).Geom)
}

func TestSplitRejectsBoundaryFractions(t *testing.T) {
	n, a, _ := twoPaths()
	for _, f := range []float64{0, 1, -0.1, 1.5} {
		_, err := n.Split(a, f)
		assert.ErrorIs(t, err, ErrInvalidSplit)
	}
	_, err := n.Split(PathRef(99), 0.5)
	assert.ErrorIs(t, err, ErrPathNotFound)
}

func TestSplitRewritesSoftDeletedTopologies(t *testing.T) {
	n := newNetwork()
	a := addPath(n, 1, 0, 0, 0, 10, 0, 0)
	ref, err := n.Insert(Topology{Kind: KindTrek, Aggregations: []Aggregation{{Path: a, Start: 0, End: 1}}})
	require.NoError(t, err)
	require.NoError(t, n.SoftDelete(ref))

	res, err := n.Split(a, 0.25)
	require.NoError(t, err)
	assert.Empty(t, res.Affected)
	require.Len(t, n.Topology(ref).Aggregations, 2)
	assert.Equal(t, res.First, n.Topology(ref).Aggregations[0].Path)
	assert.Equal(t, res.Second, n.Topology(ref).Aggregations[1].Path)
}

func TestSplitThenMergeRestoresPath(t *testing.T) {
	n := newNetwork()
	original := []float64{0, 0, 100, 4, 3, 101, 10, 3, 102, 12, 8, 103}
	a := n.AddPath(Path{ID: 1, Geom: geom.NewLineStringFlat(geom.XYZ, append([]float64(nil), original...))})
	ref, err := n.Insert(Topology{Kind: KindTrek, Aggregations: []Aggregation{{Path: a, Start: 0.2, End: 0.8}}})
	require.NoError(t, err)
	before := n.Topology(ref).Geom.FlatCoords()

	split, err := n.Split(a, 0.37)
	require.NoError(t, err)
	merged, err := n.Merge(split.First, split.Second)
	require.NoError(t, err)

	assertFlat(t, original, n.Path(merged.Merged).Geom)
	assert.True(t, n.Path(merged.Removed).Removed)

	topo := n.Topology(ref)
	require.Len(t, topo.Aggregations, 1)
	assertAggregation(t, Aggregation{Path: split.First, Start: 0.2, End: 0.8}, topo.Aggregations[0])
	assertFlat(t, before, topo.Geom)
}

func TestMergeEndToEnd(t *testing.T) {
	n := newNetwork()
	a := addPath(n, 1, 0, 0, 0, 10, 0, 0)
	b := addPath(n, 2, 20, 0, 0, 10, 0, 0)
	onB, err := n.Insert(Topology{Kind: KindTrek, Aggregations: []Aggregation{{Path: b, Start: 0, End: 0.5}}})
	require.NoError(t, err)

	res, err := n.Merge(a, b)
	require.NoError(t, err)
	assertFlat(t, []float64{0, 0, 0, 20, 0, 0}, n.Path(res.Merged).Geom)
	assert.InDelta(t, 20.0, n.Path(res.Merged).Length, 1e-12)

	assertAggregation(t, Aggregation{Path: a, Start: 1, End: 0.75}, n.Topology(onB).Aggregations[0])
	assertFlat(t, []float64{20, 0, 0, 15, 0, 0}, n.Topology(onB).Geom)
}

func TestMergeRefusesBusyOrDisjointJunction(t *testing.T) {
	n, a, b := twoPaths()
	addPath(n, 3, 10, 0, 0, 10, 10, 0)
	_, err := n.Merge(a, b)
	assert.ErrorIs(t, err, ErrPathsNotConnected)

	m := newNetwork()
	c := addPath(m, 1, 0, 0, 0, 10, 0, 0)
	d := addPath(m, 2, 30, 0, 0, 40, 0, 0)
	_, err = m.Merge(c, d)
	assert.ErrorIs(t, err, ErrPathsNotConnected)
}

func TestCascadeReachesNestedTopologies(t *testing.T) {
	n, a, b := twoPaths()
	trek, err := n.Insert(Topology{ID: 10, Kind: KindTrek, Aggregations: []Aggregation{
		{Path: a, Start: 0, End: 1, Order: 0},
		{Path: b, Start: 0, End: 1, Order: 1},
	}})
	require.NoError(t, err)
	intervention, err := n.Insert(Topology{ID: 11, Kind: KindIntervention, Reference: trek})
	require.NoError(t, err)
	assert.Equal(t, n.Topology(trek).Aggregations, n.Topology(intervention).Aggregations)

	affected, err := n.UpdatePath(a, geom.NewLineStringFlat(geom.XYZ, []float64{0, 5, 50, 10, 0, 60}))
	require.NoError(t, err)
	assert.Equal(t, []TopoRef{trek, intervention}, affected)

	assertFlat(t, []float64{0, 5, 50, 10, 0, 60, 20, 0, 0}, n.Topology(trek).Geom)
	assert.Equal(t, n.Topology(trek).Geom.FlatCoords(), n.Topology(intervention).Geom.FlatCoords())
	assert.InDelta(t, 60.0, n.Topology(intervention).MaxElevation, 1e-12)
}

func TestCascadeCycleRaisesConsistencyError(t *testing.T) {
	n, a, _ := twoPaths()
	first := n.AddTopology(Topology{ID: 1, Kind: KindTrek, Aggregations: []Aggregation{{Path: a, Start: 0, End: 1}}})
	second := n.AddTopology(Topology{ID: 2, Kind: KindIntervention, Reference: first, Aggregations: []Aggregation{{Path: a, Start: 0, End: 1}}})
	n.Topology(first).Reference = second

	before := n.Path(a).Geom
	_, err := n.UpdatePath(a, geom.NewLineStringFlat(geom.XYZ, []float64{0, 1, 0, 10, 1, 0}))

	var cascadeErr *ConsistencyCascadeError
	require.True(t, errors.As(err, &cascadeErr), "got %v", err)
	assert.NotEmpty(t, cascadeErr.Cycle)
	assert.Same(t, before, n.Path(a).Geom)
	assert.Nil(t, n.Topology(first).Geom)
	assert.Empty(t, n.Changes().Paths)
	assert.Empty(t, n.Changes().Topologies)
}

func TestCascadeDepthLimit(t *testing.T) {
	n, a, _ := twoPaths()
	prev := n.AddTopology(Topology{ID: 1, Kind: KindTrek, Aggregations: []Aggregation{{Path: a, Start: 0, End: 1}}})
	for id := uint(2); id <= 7; id++ {
		prev = n.AddTopology(Topology{ID: id, Kind: KindIntervention, Reference: prev})
	}

	_, err := n.Cascade(a)
	var cascadeErr *ConsistencyCascadeError
	require.True(t, errors.As(err, &cascadeErr), "got %v", err)
	assert.Equal(t, 5, cascadeErr.Depth)
	assert.Empty(t, cascadeErr.Cycle)
}

func TestInsertRejectsDeepReferenceChain(t *testing.T) {
	n, a, _ := twoPaths()
	prev, err := n.Insert(Topology{Kind: KindTrek, Aggregations: []Aggregation{{Path: a, Start: 0, End: 1}}})
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		prev, err = n.Insert(Topology{Kind: KindIntervention, Reference: prev})
		require.NoError(t, err)
	}
	_, err = n.Insert(Topology{Kind: KindIntervention, Reference: prev})
	var cascadeErr *ConsistencyCascadeError
	assert.True(t, errors.As(err, &cascadeErr), "got %v", err)
}

func TestInsertValidation(t *testing.T) {
	n, a, b := twoPaths()

	_, err := n.Insert(Topology{Kind: "boat", Aggregations: []Aggregation{{Path: a, Start: 0, End: 1}}})
	assert.ErrorIs(t, err, ErrInvalidKind)

	_, err = n.Insert(Topology{Kind: KindTrek})
	assert.ErrorIs(t, err, ErrEmptyTopology)

	_, err = n.Insert(Topology{Kind: KindTrek, Aggregations: []Aggregation{{Path: a, Start: 0, End: 1.2}}})
	assert.ErrorIs(t, err, ErrInvalidPosition)

	_, err = n.Insert(Topology{Kind: KindTrek, Aggregations: []Aggregation{
		{Path: a, Start: 0, End: 0.5, Order: 0},
		{Path: b, Start: 0, End: 1, Order: 1},
	}})
	assert.ErrorIs(t, err, ErrDisconnectedWalk)

	assert.Empty(t, n.TopologyRefs())
}

func TestSnapEndpoints(t *testing.T) {
	n, _, b := twoPaths()
	drawn := geom.NewLineStringFlat(geom.XYZ, []float64{20.4, 0.3, 0, 30, 0, 0})
	snapped := n.SnapEndpoints(drawn, 0)
	assertFlat(t, []float64{20, 0, 0, 30, 0, 0}, snapped)

	far := geom.NewLineStringFlat(geom.XYZ, []float64{25, 5, 0, 30, 0, 0})
	assert.Same(t, far, n.SnapEndpoints(far, 0))

	self := geom.NewLineStringFlat(geom.XYZ, []float64{10.5, 0, 0, 20.5, 0, 0})
	assertFlat(t, []float64{10, 0, 0, 20.5, 0, 0}, n.SnapEndpoints(self, b))
}

func TestLocateAndRoute(t *testing.T) {
	n := newNetwork()
	a := addPath(n, 1, 0, 0, 0, 10, 0, 0)
	b := addPath(n, 2, 10, 0, 0, 10, 10, 0)
	c := addPath(n, 3, 20, 10, 0, 10, 10, 0)
	addPath(n, 4, 0, 0, 0, 0, 50, 0)

	from, err := n.Locate(5, 1)
	require.NoError(t, err)
	assert.Equal(t, a, from.Path)
	assert.InDelta(t, 0.5, from.Fraction, 1e-12)

	to, err := n.Locate(15, 11)
	require.NoError(t, err)
	assert.Equal(t, c, to.Path)

	walk, err := n.Route(from, to)
	require.NoError(t, err)
	require.Len(t, walk, 3)
	assertAggregation(t, Aggregation{Path: a, Start: 0.5, End: 1, Order: 0}, walk[0])
	assertAggregation(t, Aggregation{Path: b, Start: 0, End: 1, Order: 1}, walk[1])
	assertAggregation(t, Aggregation{Path: c, Start: 1, End: 0.5, Order: 2}, walk[2])
	require.NoError(t, n.ValidateWalk(walk))

	same, err := n.Route(Location{Path: a, Fraction: 0.9}, Location{Path: a, Fraction: 0.1})
	require.NoError(t, err)
	assertAggregation(t, Aggregation{Path: a, Start: 0.9, End: 0.1}, same[0])
}

func TestRouteUnreachable(t *testing.T) {
	n := newNetwork()
	a := addPath(n, 1, 0, 0, 0, 10, 0, 0)
	b := addPath(n, 2, 100, 0, 0, 110, 0, 0)
	_, err := n.Route(Location{Path: a, Fraction: 0.5}, Location{Path: b, Fraction: 0.5})
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestRemovePath(t *testing.T) {
	n, a, b := twoPaths()
	ref, err := n.Insert(Topology{Kind: KindTrek, Aggregations: []Aggregation{
		{Path: a, Start: 0, End: 1, Order: 0},
		{Path: b, Start: 0, End: 1, Order: 1},
	}})
	require.NoError(t, err)

	_, err = n.RemovePath(a, false)
	assert.ErrorIs(t, err, ErrPathInUse)
	assert.False(t, n.Path(a).Removed)

	affected, err := n.RemovePath(a, true)
	require.NoError(t, err)
	assert.Equal(t, []TopoRef{ref}, affected)
	assert.True(t, n.Path(a).Removed)
	require.Len(t, n.Topology(ref).Aggregations, 1)
	assertAggregation(t, Aggregation{Path: b, Start: 0, End: 1, Order: 0}, n.Topology(ref).Aggregations[0])
	assertFlat(t, []float64{10, 0, 0, 20, 0, 0}, n.Topology(ref).Geom)
}

func TestRouteThroughFusesLegs(t *testing.T) {
	n := newNetwork()
	a := addPath(n, 1, 0, 0, 0, 10, 0, 0)
	b := addPath(n, 2, 10, 0, 0, 20, 0, 0)

	walk, err := n.RouteThrough(
		Location{Path: a, Fraction: 0.2},
		Location{Path: a, Fraction: 0.6},
		Location{Path: b, Fraction: 0.5},
	)
	require.NoError(t, err)
	require.Len(t, walk, 2)
	assertAggregation(t, Aggregation{Path: a, Start: 0.2, End: 1, Order: 0}, walk[0])
	assertAggregation(t, Aggregation{Path: b, Start: 0, End: 0.5, Order: 1}, walk[1])

	_, err = n.RouteThrough(Location{Path: a})
	assert.ErrorIs(t, err, ErrNoRoute)
}
