package slotid

import "fmt"

// node is the storage cell for a single tree entry. Slots are heap
// allocated once and referenced by pointer from the arena so that
// [Tree.With] and [Tree.GetMut] can hand out addresses that remain stable
// across unrelated Add calls (which only grow the index slice, never move
// an existing node).
type node[V any] struct {
	generation uint32
	occupied   bool

	depth     int
	parent    ID
	hasParent bool
	children  []ID

	value V
	taken bool // true while the payload is checked out via With or Take
}

// Tree is a generic parent/child tree keyed by generational [ID]s. It
// implements the keyed tree storage contract: depth tracking, ordered
// children, scoped exclusive borrow of the payload via [Tree.With], and
// sibling reordering in terms of index or child ID.
//
// A Tree is not safe for concurrent use; callers running a split
// element/render pipeline (see package engine's SplitEngine) must
// serialize access to each Tree themselves.
type Tree[V any] struct {
	slots []*node[V]
	free  []uint32

	root    ID
	hasRoot bool
	count   int
}

// New creates an empty Tree.
func New[V any]() *Tree[V] {
	return &Tree[V]{}
}

func (t *Tree[V]) slot(id ID) *node[V] {
	if id.IsNone() || int(id.index) >= len(t.slots) {
		return nil
	}
	n := t.slots[id.index]
	if n == nil || !n.occupied || n.generation != id.generation {
		return nil
	}
	return n
}

// Contains reports whether id refers to a live node.
func (t *Tree[V]) Contains(id ID) bool {
	return t.slot(id) != nil
}

// Len returns the number of live nodes.
func (t *Tree[V]) Len() int {
	return t.count
}

// Root returns the current root ID, if any.
func (t *Tree[V]) Root() (ID, bool) {
	return t.root, t.hasRoot
}

func (t *Tree[V]) allocate(value V) ID {
	var idx uint32
	var n *node[V]
	if len(t.free) > 0 {
		idx = t.free[len(t.free)-1]
		t.free = t.free[:len(t.free)-1]
		n = t.slots[idx]
		n.generation++
	} else {
		idx = uint32(len(t.slots))
		n = &node[V]{generation: 1}
		t.slots = append(t.slots, n)
	}
	n.occupied = true
	n.depth = 0
	n.parent = None
	n.hasParent = false
	n.children = nil
	n.value = value
	n.taken = false
	t.count++
	return ID{index: idx, generation: n.generation}
}

// Add inserts value as a new node. If parent is [None], the new node
// becomes the tree's root; this is only permitted when the tree is
// currently empty of a root, otherwise Add panics (an unguarded attempt to
// add a second root is a programmer error, not a recoverable condition).
// If parent is non-None but not a live node, Add panics.
func (t *Tree[V]) Add(parent ID, value V) ID {
	if parent.IsNone() {
		if t.hasRoot {
			panic("slotid: tree already has a root")
		}
		id := t.allocate(value)
		t.root = id
		t.hasRoot = true
		return id
	}

	parentNode := t.slot(parent)
	if parentNode == nil {
		panic(fmt.Sprintf("slotid: add: parent %s not found", parent))
	}

	id := t.allocate(value)
	n := t.slot(id)
	n.parent = parent
	n.hasParent = true
	n.depth = parentNode.depth + 1
	parentNode.children = append(parentNode.children, id)
	return id
}

func (t *Tree[V]) detachFromParent(id ID, n *node[V]) {
	if !n.hasParent {
		if t.hasRoot && t.root == id {
			t.hasRoot = false
			t.root = None
		}
		return
	}
	if parentNode := t.slot(n.parent); parentNode != nil {
		for i, c := range parentNode.children {
			if c == id {
				parentNode.children = append(parentNode.children[:i], parentNode.children[i+1:]...)
				break
			}
		}
	}
}

func (t *Tree[V]) free_(id ID, n *node[V]) {
	n.occupied = false
	n.children = nil
	var zero V
	n.value = zero
	t.free = append(t.free, id.index)
	t.count--
}

// Remove removes only the node itself from its parent's child list and
// from storage; its children are left orphaned (their parent ID becomes
// dangling) and must be cleaned up by the caller, typically via
// [Tree.RemoveSubtree] on each former child. Returns the node's payload
// and true, or the zero value and false if id is not live or its payload
// is currently checked out.
func (t *Tree[V]) Remove(id ID) (V, bool) {
	var zero V
	n := t.slot(id)
	if n == nil || n.taken {
		return zero, false
	}
	value := n.value
	t.detachFromParent(id, n)
	t.free_(id, n)
	return value, true
}

// RemoveSubtree removes id and every descendant of id from storage in a
// single bulk operation. Unlike [Tree.Remove], this is the safe form: no
// orphans are left behind. Payloads are dropped without being returned;
// callers that need to observe them (to unmount, for instance) must call
// [Tree.Take] on each node before invoking RemoveSubtree.
func (t *Tree[V]) RemoveSubtree(id ID) {
	n := t.slot(id)
	if n == nil {
		return
	}
	t.detachFromParent(id, n)
	t.removeDescendants(id, n)
}

// removeDescendants frees id and its entire subtree without touching the
// parent linkage (already handled by the caller).
func (t *Tree[V]) removeDescendants(id ID, n *node[V]) {
	queue := append([]ID(nil), n.children...)
	t.free_(id, n)
	for len(queue) > 0 {
		cid := queue[0]
		queue = queue[1:]
		cn := t.slot(cid)
		if cn == nil {
			continue
		}
		queue = append(queue, cn.children...)
		t.free_(cid, cn)
	}
}

// Get returns a copy of id's payload.
func (t *Tree[V]) Get(id ID) (V, bool) {
	var zero V
	n := t.slot(id)
	if n == nil || n.taken {
		return zero, false
	}
	return n.value, true
}

// GetMut returns a pointer directly into id's payload slot. The pointer
// remains valid until the node is removed or re-taken; it must not be
// retained across a [Tree.With] call on the same id.
func (t *Tree[V]) GetMut(id ID) (*V, bool) {
	n := t.slot(id)
	if n == nil || n.taken {
		return nil, false
	}
	return &n.value, true
}

// With moves the payload out of id's slot for the duration of f, calls
// f(t, &value), then moves the (possibly mutated) value back. The tree
// itself remains readable from within f (e.g. to inspect children), but a
// re-entrant With on the same id fails fast — the payload is already
// checked out. Returns false if id is not live or is already checked out.
func (t *Tree[V]) With(id ID, f func(tree *Tree[V], value *V)) bool {
	n := t.slot(id)
	if n == nil || n.taken {
		return false
	}
	n.taken = true
	f(t, &n.value)
	// The flag is cleared on the same node f borrowed from; n is not
	// re-fetched. Remove refuses a checked-out node, but RemoveSubtree
	// does not check the flag, so f must not remove id itself.
	n.taken = false
	return true
}

// Take permanently removes the payload from id's slot without removing
// the node's tree structure (depth, parent, children remain queryable).
// This is used during bulk removal: the caller takes every payload first
// (to run unmount callbacks) and only afterwards calls [Tree.RemoveSubtree]
// to physically free the nodes. Returns false if id is not live or the
// payload is already checked out.
func (t *Tree[V]) Take(id ID) (V, bool) {
	var zero V
	n := t.slot(id)
	if n == nil || n.taken {
		return zero, false
	}
	n.taken = true
	value := n.value
	n.value = zero
	return value, true
}

// GetParent returns id's parent, if any. A node orphaned by [Tree.Remove]
// reports no parent once its recorded parent is no longer live.
func (t *Tree[V]) GetParent(id ID) (ID, bool) {
	n := t.slot(id)
	if n == nil || !n.hasParent || t.slot(n.parent) == nil {
		return None, false
	}
	return n.parent, true
}

// GetChildren returns id's children in their current sibling order
// (insertion order unless changed by [Tree.SwapSiblings]). The returned
// slice is owned by the tree and must not be mutated by the caller.
func (t *Tree[V]) GetChildren(id ID) ([]ID, bool) {
	n := t.slot(id)
	if n == nil {
		return nil, false
	}
	return n.children, true
}

// GetDepth returns id's depth (root is 0).
func (t *Tree[V]) GetDepth(id ID) (int, bool) {
	n := t.slot(id)
	if n == nil {
		return 0, false
	}
	return n.depth, true
}

// Reparent moves id to become the last child of newParent, recomputing
// depth for id's entire subtree breadth-first. It is a no-op if newParent
// already is id's parent. Reparenting to [None] is only permitted to
// install id as the tree's new root, and only once the old root has
// already been removed; otherwise it panics.
func (t *Tree[V]) Reparent(newParent, id ID) {
	n := t.slot(id)
	if n == nil {
		panic(fmt.Sprintf("slotid: reparent: %s not found", id))
	}
	if n.hasParent && n.parent == newParent {
		return
	}
	if !n.hasParent && newParent.IsNone() {
		return
	}

	if newParent.IsNone() {
		if t.hasRoot {
			panic("slotid: reparent: cannot make a new root while one exists")
		}
		t.detachFromParent(id, n)
		n.hasParent = false
		n.parent = None
		t.root = id
		t.hasRoot = true
		t.setDepthBFS(id, n, 0)
		return
	}

	newParentNode := t.slot(newParent)
	if newParentNode == nil {
		panic(fmt.Sprintf("slotid: reparent: new parent %s not found", newParent))
	}

	t.detachFromParent(id, n)
	n.hasParent = true
	n.parent = newParent
	newParentNode.children = append(newParentNode.children, id)
	t.setDepthBFS(id, n, newParentNode.depth+1)
}

// setDepthBFS assigns newDepth to id and recomputes every descendant's
// depth breadth-first, relative to the same offset.
func (t *Tree[V]) setDepthBFS(id ID, n *node[V], newDepth int) {
	if n.depth == newDepth {
		return
	}
	n.depth = newDepth
	queue := append([]ID(nil), n.children...)
	for len(queue) > 0 {
		cid := queue[0]
		queue = queue[1:]
		cn := t.slot(cid)
		if cn == nil {
			continue
		}
		if parentNode := t.slot(cn.parent); parentNode != nil {
			cn.depth = parentNode.depth + 1
		}
		queue = append(queue, cn.children...)
	}
}

// SwapPosition identifies a child either by index within the parent's
// children list or by its ID.
type SwapPosition struct {
	byID  bool
	index int
	id    ID
}

// SwapIndex builds a [SwapPosition] referring to a child by its current
// index in the parent's children list.
func SwapIndex(i int) SwapPosition { return SwapPosition{index: i} }

// SwapID builds a [SwapPosition] referring to a child by its ID.
func SwapID(id ID) SwapPosition { return SwapPosition{byID: true, id: id} }

// SwapSiblings exchanges the positions of two children of parent. Both
// positions must refer to existing children of parent; an index outside
// [0, len(children)) or an ID that is not a child of parent is an error.
func (t *Tree[V]) SwapSiblings(parent ID, a, b SwapPosition) error {
	n := t.slot(parent)
	if n == nil {
		return fmt.Errorf("slotid: swap_siblings: parent %s not found", parent)
	}
	ai, err := t.resolveChildIndex(n, a)
	if err != nil {
		return err
	}
	bi, err := t.resolveChildIndex(n, b)
	if err != nil {
		return err
	}
	n.children[ai], n.children[bi] = n.children[bi], n.children[ai]
	return nil
}

func (t *Tree[V]) resolveChildIndex(n *node[V], pos SwapPosition) (int, error) {
	if pos.byID {
		for i, c := range n.children {
			if c == pos.id {
				return i, nil
			}
		}
		return 0, fmt.Errorf("slotid: %s is not a child of this node", pos.id)
	}
	if pos.index < 0 || pos.index >= len(n.children) {
		return 0, fmt.Errorf("slotid: swap index %d out of range [0,%d)", pos.index, len(n.children))
	}
	return pos.index, nil
}

// Iter calls f for every live node whose payload is not checked out, in
// unspecified order, stopping early if f returns false.
func (t *Tree[V]) Iter(f func(id ID, value *V) bool) {
	for idx, n := range t.slots {
		if n == nil || !n.occupied || n.taken {
			continue
		}
		id := ID{index: uint32(idx), generation: n.generation}
		if !f(id, &n.value) {
			return
		}
	}
}
