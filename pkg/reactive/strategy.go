package reactive

import "github.com/nodalui/drift/pkg/slotid"

// UpdateResult is returned by [Strategy.TryUpdate] to tell the
// reconciler what happened when it asked the strategy to reuse an
// existing node in place for a new definition.
type UpdateResult int

const (
	// Unchanged means the existing node's definition is identical to the
	// new one (by comparable equality); no rebuild is necessary.
	Unchanged UpdateResult = iota
	// Changed means the node was updated in place with the new
	// definition and should be scheduled for a rebuild.
	Changed
	// Invalid means the existing node cannot represent the new
	// definition at all (different concrete kind, or mismatched key) and
	// must be replaced: unmounted, then the new definition mounted fresh
	// in its place.
	Invalid
)

// Key is an opaque, comparable identity attached to a definition. A nil
// Key (the interface's zero value) means "no key"; see [Definition.Key].
type Key any

// Definition is the contract a reconciled value's "blueprint" type (a
// widget, in package element) must satisfy. It mirrors the generic parameter D in the reactivity core
// this package's algorithm is grounded on.
type Definition interface {
	// Key returns the definition's identity key and whether it has one.
	// Definitions without a key are matched positionally during
	// reconciliation instead of by identity.
	Key() (Key, bool)
}

// MountContext is passed to [Strategy.Mount] when a new node is being
// inserted into the tree.
type MountContext[V any] struct {
	Tree     *slotid.Tree[V]
	ParentID slotid.ID
	NodeID   slotid.ID
}

// UnmountContext is passed to [Strategy.Unmount] right before a node's
// storage is freed.
type UnmountContext[V any] struct {
	Tree   *slotid.Tree[V]
	NodeID slotid.ID
}

// BuildContext is passed to [Strategy.Build] to produce the child
// definitions of a node during [Tree.BuildAndRealize].
type BuildContext[V any] struct {
	Tree   *slotid.Tree[V]
	NodeID slotid.ID
	Value  *V
}

// Strategy supplies the domain-specific behavior the generic
// reconciliation core needs: how to turn a definition into a value, how
// to try reusing a value in place, how to produce a value's children,
// and how to react to a subtree being torn down (OnForgotten for its top
// node, Unmount for each node in it).
type Strategy[V any, D Definition] interface {
	// Mount creates a new value for def, freshly inserted at the
	// position described by ctx.
	Mount(ctx MountContext[V], def D) V

	// TryUpdate attempts to reuse the existing value at id (addressable
	// via value) for def in place, and reports the outcome. Strategies
	// that can't tell without inspecting def's kind should return
	// Invalid when the kinds differ.
	TryUpdate(id slotid.ID, value *V, def D) UpdateResult

	// Build returns the child definitions a freshly mounted or changed
	// node should realize next.
	Build(ctx BuildContext[V]) []D

	// Unmount is called once per node removed by reconciliation or
	// [Tree.RemoveAll], after its payload has been taken out of the tree
	// but before the node's structural entry is freed.
	Unmount(ctx UnmountContext[V], value V)

	// OnForgotten is called once for the top node of every subtree the
	// tree drops: a child discarded during reconciliation (see
	// [Tree.UpdateChildren]), a subtree passed to [Tree.RemoveAll], or a
	// root replaced by [Tree.SetRoot]. It runs before any Unmount call
	// for that subtree; a root replaced by SetRoot gets no Unmount calls.
	OnForgotten(id slotid.ID)
}
