package topology

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

type cascadeItem struct {
	ref   TopoRef
	depth int
	// chain holds the topologies whose recomputation led to this one.
	chain []TopoRef
}

// Cascade recomputes every live topology laid on one of the changed paths,
// then every topology referencing a recomputed one, level by level. It
// returns the recomputed topologies in first-recomputed order.
//
// A topology reached again through its own chain of references, or a chain
// deeper than MaxCascadeDepth, aborts with a *ConsistencyCascadeError and
// leaves the network untouched.
func (n *Network) Cascade(changed ...PathRef) ([]TopoRef, error) {
	work := n.clone()
	affected, err := work.cascade(work.topologiesOn(false, changed...))
	if err != nil {
		return nil, err
	}
	n.commit(work)
	return affected, nil
}

func (n *Network) dependentsIndex() map[TopoRef][]TopoRef {
	idx := map[TopoRef][]TopoRef{}
	for i := range n.topos {
		t := &n.topos[i]
		if t.Reference != 0 && !t.Deleted {
			idx[t.Reference] = append(idx[t.Reference], TopoRef(i+1))
		}
	}
	return idx
}

func (n *Network) cascade(seeds []TopoRef) ([]TopoRef, error) {
	dependents := n.dependentsIndex()
	queue := make([]cascadeItem, 0, len(seeds))
	for _, ref := range seeds {
		queue = append(queue, cascadeItem{ref: ref})
	}

	var affected []TopoRef
	seen := map[TopoRef]bool{}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]

		t := n.Topology(it.ref)
		if it.depth > n.opts.MaxCascadeDepth {
			return nil, &ConsistencyCascadeError{
				TopologyID: t.ID,
				Depth:      it.depth,
				Reason:     fmt.Sprintf("maximum depth %d exceeded", n.opts.MaxCascadeDepth),
			}
		}
		for i, anc := range it.chain {
			if anc == it.ref {
				return nil, &ConsistencyCascadeError{
					TopologyID: t.ID,
					Depth:      it.depth,
					Cycle:      n.topologyIDs(append(it.chain[i:], it.ref)),
					Reason:     "topology references itself",
				}
			}
		}

		if err := n.recompute(it.ref); err != nil {
			return nil, fmt.Errorf("recompute topology %d: %w", t.ID, err)
		}
		if !seen[it.ref] {
			seen[it.ref] = true
			affected = append(affected, it.ref)
		}

		chain := append(append([]TopoRef(nil), it.chain...), it.ref)
		for _, dep := range dependents[it.ref] {
			queue = append(queue, cascadeItem{ref: dep, depth: it.depth + 1, chain: chain})
		}
	}

	logrus.WithFields(logrus.Fields{
		"seeds":    len(seeds),
		"affected": len(affected),
	}).Debug("topology cascade converged")
	return affected, nil
}

// checkReferenceChain follows the references starting at ref and fails when
// they loop back or run deeper than MaxCascadeDepth.
func (n *Network) checkReferenceChain(ref TopoRef) error {
	chain := []TopoRef{ref}
	cur := n.Topology(ref).Reference
	for cur != 0 {
		for i, r := range chain {
			if r == cur {
				return &ConsistencyCascadeError{
					TopologyID: n.Topology(ref).ID,
					Depth:      len(chain),
					Cycle:      n.topologyIDs(append(chain[i:], cur)),
					Reason:     "reference chain loops",
				}
			}
		}
		if len(chain) > n.opts.MaxCascadeDepth {
			return &ConsistencyCascadeError{
				TopologyID: n.Topology(ref).ID,
				Depth:      len(chain),
				Reason:     fmt.Sprintf("reference chain deeper than %d", n.opts.MaxCascadeDepth),
			}
		}
		chain = append(chain, cur)
		t := n.Topology(cur)
		if t == nil {
			return ErrTopologyNotFound
		}
		cur = t.Reference
	}
	return nil
}

func (n *Network) topologyIDs(refs []TopoRef) []uint {
	ids := make([]uint, len(refs))
	for i, r := range refs {
		ids[i] = n.Topology(r).ID
	}
	return ids
}
