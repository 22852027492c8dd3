package topology

// RemovePath deletes a path from the network. Unless dropAggregations is
// set, a path still referenced by any topology, soft-deleted ones included,
// is refused with ErrPathInUse. Otherwise the aggregations on it are dropped
// and the remaining topologies recomputed.
func (n *Network) RemovePath(ref PathRef, dropAggregations bool) ([]TopoRef, error) {
	if n.livePath(ref) == nil {
		return nil, ErrPathNotFound
	}
	users := n.topologiesOn(true, ref)
	if len(users) > 0 && !dropAggregations {
		return nil, ErrPathInUse
	}

	work := n.clone()
	var live []TopoRef
	for _, tref := range users {
		t := work.Topology(tref)
		kept := t.Aggregations[:0]
		for _, a := range t.Aggregations {
			if a.Path != ref {
				kept = append(kept, a)
			}
		}
		t.Aggregations = renumber(kept)
		work.dirtyTopos[tref] = true
		if !t.Deleted {
			live = append(live, tref)
		}
	}
	work.Path(ref).Removed = true
	work.dirtyPaths[ref] = true

	affected, err := work.cascade(live)
	if err != nil {
		return nil, err
	}
	n.commit(work)
	return affected, nil
}
