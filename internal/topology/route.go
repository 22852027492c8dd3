package topology

import (
	"math"

	"github.com/emirpasic/gods/queues/priorityqueue"
	"github.com/emirpasic/gods/utils"
	"github.com/twpayne/go-geom"

	"geotrek_core/internal/geometry"
)

// nodeKey identifies a graph node by its coordinates rounded to the
// network tolerance.
type nodeKey struct{ x, y int64 }

type graphEdge struct {
	path    PathRef
	to      nodeKey
	forward bool
	cost    float64
}

type hop struct {
	from    nodeKey
	edge    graphEdge
	initial bool
	// origin is the end (0 or 1) of the starting path left through.
	origin float64
}

type queued struct {
	node nodeKey
	cost float64
}

func (n *Network) key(c geom.Coord) nodeKey {
	return nodeKey{int64(math.Round(c[0] / n.opts.Tolerance)), int64(math.Round(c[1] / n.opts.Tolerance))}
}

// Route returns the aggregations of the shortest walk over the path graph
// from one location to another. Path lengths are planar. Both locations on
// the same path give a single aggregation between them.
func (n *Network) Route(from, to Location) ([]Aggregation, error) {
	src, dst := n.livePath(from.Path), n.livePath(to.Path)
	if src == nil || dst == nil {
		return nil, ErrPathNotFound
	}
	if from.Path == to.Path {
		return []Aggregation{{Path: from.Path, Start: from.Fraction, End: to.Fraction}}, nil
	}

	graph := map[nodeKey][]graphEdge{}
	for _, ref := range n.PathRefs() {
		if ref == from.Path || ref == to.Path {
			continue
		}
		p := n.Path(ref)
		s, e := n.key(geometry.Start(p.Geom)), n.key(geometry.End(p.Geom))
		graph[s] = append(graph[s], graphEdge{path: ref, to: e, forward: true, cost: p.Length2D})
		graph[e] = append(graph[e], graphEdge{path: ref, to: s, forward: false, cost: p.Length2D})
	}

	dist := map[nodeKey]float64{}
	prev := map[nodeKey]hop{}
	queue := priorityqueue.NewWith(func(a, b interface{}) int {
		return utils.Float64Comparator(a.(queued).cost, b.(queued).cost)
	})
	seed := func(node nodeKey, cost, origin float64) {
		if d, ok := dist[node]; ok && d <= cost {
			return
		}
		dist[node] = cost
		prev[node] = hop{initial: true, origin: origin}
		queue.Enqueue(queued{node: node, cost: cost})
	}
	seed(n.key(geometry.Start(src.Geom)), from.Fraction*src.Length2D, 0)
	seed(n.key(geometry.End(src.Geom)), (1-from.Fraction)*src.Length2D, 1)

	for !queue.Empty() {
		v, _ := queue.Dequeue()
		cur := v.(queued)
		if cur.cost > dist[cur.node] {
			continue
		}
		for _, e := range graph[cur.node] {
			c := cur.cost + e.cost
			if d, ok := dist[e.to]; ok && d <= c {
				continue
			}
			dist[e.to] = c
			prev[e.to] = hop{from: cur.node, edge: e}
			queue.Enqueue(queued{node: e.to, cost: c})
		}
	}

	best := math.Inf(1)
	var arrival nodeKey
	var entry float64
	for _, cand := range []struct {
		node  nodeKey
		extra float64
		entry float64
	}{
		{n.key(geometry.Start(dst.Geom)), to.Fraction * dst.Length2D, 0},
		{n.key(geometry.End(dst.Geom)), (1 - to.Fraction) * dst.Length2D, 1},
	} {
		if d, ok := dist[cand.node]; ok && d+cand.extra < best {
			best, arrival, entry = d+cand.extra, cand.node, cand.entry
		}
	}
	if math.IsInf(best, 1) {
		return nil, ErrNoRoute
	}

	var middle []Aggregation
	node := arrival
	for {
		h := prev[node]
		if h.initial {
			middle = append(middle, Aggregation{Path: from.Path, Start: from.Fraction, End: h.origin})
			break
		}
		if h.edge.forward {
			middle = append(middle, Aggregation{Path: h.edge.path, Start: 0, End: 1})
		} else {
			middle = append(middle, Aggregation{Path: h.edge.path, Start: 1, End: 0})
		}
		node = h.from
	}
	for i, j := 0, len(middle)-1; i < j; i, j = i+1, j-1 {
		middle[i], middle[j] = middle[j], middle[i]
	}
	walk := append(middle, Aggregation{Path: to.Path, Start: entry, End: to.Fraction})

	var out []Aggregation
	for _, a := range walk {
		if !a.IsPoint() {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		out = []Aggregation{{Path: to.Path, Start: to.Fraction, End: to.Fraction}}
	}
	return renumber(out), nil
}

// RouteThrough chains the shortest walks between consecutive locations
// into a single walk. Legs continuing each other on the same path are
// fused.
func (n *Network) RouteThrough(locs ...Location) ([]Aggregation, error) {
	if len(locs) < 2 {
		return nil, ErrNoRoute
	}
	var walk []Aggregation
	for i := 1; i < len(locs); i++ {
		leg, err := n.Route(locs[i-1], locs[i])
		if err != nil {
			return nil, err
		}
		for _, a := range leg {
			if !a.IsPoint() {
				walk = append(walk, a)
			}
		}
	}
	if len(walk) == 0 {
		last := locs[len(locs)-1]
		return []Aggregation{{Path: last.Path, Start: last.Fraction, End: last.Fraction}}, nil
	}
	return renumber(collapse(walk)), nil
}
