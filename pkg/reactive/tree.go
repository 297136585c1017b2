package reactive

import "github.com/nodalui/drift/pkg/slotid"

// Tree is a [slotid.Tree] plus the bookkeeping the reconciliation
// algorithm needs on top of raw storage: a key index (both directions,
// so old children can be classified as keyed-or-not during a diff) and a
// broken flag that is set once a reconciliation failure leaves the tree
// in a state callers must no longer operate on.
type Tree[V any, D Definition] struct {
	storage *slotid.Tree[V]

	keyedForward map[Key]slotid.ID
	keyedReverse map[slotid.ID]Key

	broken bool
}

// New creates an empty reactive Tree.
func New[V any, D Definition]() *Tree[V, D] {
	return &Tree[V, D]{
		storage:      slotid.New[V](),
		keyedForward: make(map[Key]slotid.ID),
		keyedReverse: make(map[slotid.ID]Key),
	}
}

// Storage exposes the underlying slot-map tree, mainly for read-only
// traversal by higher layers (e.g. dirty-depth sorting, ancestor walks).
func (t *Tree[V, D]) Storage() *slotid.Tree[V] {
	return t.storage
}

// Broken reports whether a prior reconciliation failure poisoned the
// tree. A broken tree must be discarded by the caller.
func (t *Tree[V, D]) Broken() bool {
	return t.broken
}

func (t *Tree[V, D]) markBroken() {
	t.broken = true
}

// Root returns the root node, if any.
func (t *Tree[V, D]) Root() (slotid.ID, bool) {
	return t.storage.Root()
}

// Get returns a copy of id's value.
func (t *Tree[V, D]) Get(id slotid.ID) (V, bool) {
	return t.storage.Get(id)
}

// With scopes an exclusive borrow of id's value; see [slotid.Tree.With].
func (t *Tree[V, D]) With(id slotid.ID, f func(*slotid.Tree[V], *V)) bool {
	return t.storage.With(id, f)
}

// LookupKey returns the node currently registered under key, if any.
func (t *Tree[V, D]) LookupKey(key Key) (slotid.ID, bool) {
	id, ok := t.keyedForward[key]
	return id, ok
}

func (t *Tree[V, D]) registerKey(id slotid.ID, key Key) {
	t.keyedForward[key] = id
	t.keyedReverse[id] = key
}

func (t *Tree[V, D]) keyOf(id slotid.ID) (Key, bool) {
	k, ok := t.keyedReverse[id]
	return k, ok
}

func (t *Tree[V, D]) unregisterKey(id slotid.ID) {
	if k, ok := t.keyedReverse[id]; ok {
		delete(t.keyedReverse, id)
		if t.keyedForward[k] == id {
			delete(t.keyedForward, k)
		}
	}
}

// mount allocates a new node under parent (or as the root, if parent is
// [slotid.None]) and asks strategy to produce its value. The node's key,
// if any, is registered in the key index.
func (t *Tree[V, D]) mount(strategy Strategy[V, D], parent slotid.ID, def D) (slotid.ID, error) {
	if !parent.IsNone() && !t.storage.Contains(parent) {
		return slotid.None, nodeErr(ErrParentNotFound, parent)
	}

	var zero V
	id := t.storage.Add(parent, zero)
	t.storage.With(id, func(tree *slotid.Tree[V], v *V) {
		*v = strategy.Mount(MountContext[V]{Tree: tree, ParentID: parent, NodeID: id}, def)
	})
	if key, ok := def.Key(); ok {
		t.registerKey(id, key)
	}
	return id, nil
}

// SetRoot discards any existing root (forgetting it, not unmounting —
// callers that need a clean teardown of the previous root should call
// [Tree.RemoveAll] on it first) and mounts def as the new root.
func (t *Tree[V, D]) SetRoot(strategy Strategy[V, D], def D) (slotid.ID, error) {
	if root, ok := t.storage.Root(); ok {
		strategy.OnForgotten(root)
		t.unregisterKey(root)
		t.storage.RemoveSubtree(root)
	}
	return t.mount(strategy, slotid.None, def)
}

// Spawn mounts def as a new last child of parent.
func (t *Tree[V, D]) Spawn(strategy Strategy[V, D], parent slotid.ID, def D) (slotid.ID, error) {
	return t.mount(strategy, parent, def)
}

// destroySubtree tears down id and its entire subtree: the top node is
// reported to the strategy as forgotten (so it can drop any identity
// bookkeeping, e.g. the key index entry) and then every node in the
// subtree, including id itself, has its value taken and passed to
// Strategy.Unmount before the structural entries are freed. A node whose
// value is currently checked out cannot be unmounted; it is still
// removed, and an ErrInUse failure is returned for it.
func (t *Tree[V, D]) destroySubtree(strategy Strategy[V, D], id slotid.ID) []error {
	strategy.OnForgotten(id)
	t.unregisterKey(id)

	var failures []error
	queue := []slotid.ID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if children, ok := t.storage.GetChildren(cur); ok {
			queue = append(queue, children...)
		}
		if value, ok := t.storage.Take(cur); ok {
			strategy.Unmount(UnmountContext[V]{Tree: t.storage, NodeID: cur}, value)
		} else {
			failures = append(failures, nodeErr(ErrInUse, cur))
		}
		t.unregisterKey(cur)
	}
	t.storage.RemoveSubtree(id)
	return failures
}

// RemoveAll removes id and its subtree, running the full unmount
// lifecycle. It is the external entry point used to tear down a root (or
// any subtree) outside of reconciliation. Nodes that could not be
// unmounted because their value was checked out are reported together
// in a *RemoveError.
func (t *Tree[V, D]) RemoveAll(strategy Strategy[V, D], id slotid.ID) error {
	if !t.storage.Contains(id) {
		return nodeErr(ErrNotFound, id)
	}
	if failures := t.destroySubtree(strategy, id); len(failures) > 0 {
		return &RemoveError{Failures: failures}
	}
	return nil
}
