package reactive

import "github.com/nodalui/drift/pkg/slotid"

// BuildAndRealize drives build/reconcile to a fixed point for roots and
// everything they (recursively) produce. Nodes are processed LIFO — a
// node's own children are built before its siblings further back in the
// queue — using a plain slice as a push_back/pop_back stack, matching
// the original's VecDeque-based build_queue.
//
// A node disappearing from the tree before its turn (because an
// ancestor's reconciliation unmounted it first) is not an error; it is
// simply skipped.
func (t *Tree[V, D]) BuildAndRealize(strategy Strategy[V, D], roots []slotid.ID) error {
	queue := append([]slotid.ID(nil), roots...)

	for len(queue) > 0 {
		id := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		if !t.storage.Contains(id) {
			continue
		}

		var childDefs []D
		ok := t.storage.With(id, func(tree *slotid.Tree[V], v *V) {
			childDefs = strategy.Build(BuildContext[V]{Tree: tree, NodeID: id, Value: v})
		})
		if !ok {
			return &BuildError{NodeID: id, Err: ErrInUse}
		}

		result, err := t.UpdateChildren(strategy, id, childDefs)
		if err != nil {
			return &BuildError{NodeID: id, Err: err}
		}
		queue = append(queue, result.Touched...)
	}

	return nil
}
