// Package schedule implements dirty/needs-build tracking (C4): which
// elements need a rebuild, processed in an order that guarantees a
// parent is always rebuilt before any descendant that also asked to be
// rebuilt, plus a one-shot callback queue used for deferred,
// frame-scoped work (the Go counterpart of a (element, slot) callback
// id).
package schedule

import (
	"sort"

	"github.com/nodalui/drift/pkg/element"
	"github.com/nodalui/drift/pkg/slotid"
)

// CallbackID identifies a callback previously registered with
// [Owner.ScheduleCallback], pairing the element it belongs to with a
// monotonically increasing slot.
type CallbackID struct {
	Element slotid.ID
	Slot    uint64
}

// Owner is the engine's single dirty-tracking authority (C7's executor
// holds exactly one). It is *not* safe for concurrent use; a Split-mode
// engine confines it to the element-tree thread.
type Owner struct {
	tree *element.Tree

	dirty    []slotid.ID
	dirtySet map[slotid.ID]struct{}

	callbacks []func()
	nextSlot  uint64
}

// NewOwner creates an Owner driving tree.
func NewOwner(tree *element.Tree) *Owner {
	return &Owner{
		tree:     tree,
		dirtySet: make(map[slotid.ID]struct{}),
	}
}

// ScheduleBuild marks id dirty. Scheduling an already-dirty element is a
// no-op; this satisfies [element.Scheduler].
func (o *Owner) ScheduleBuild(id slotid.ID) {
	if _, ok := o.dirtySet[id]; ok {
		return
	}
	o.dirtySet[id] = struct{}{}
	o.dirty = append(o.dirty, id)
}

// ScheduleCallback enqueues fn to run on the next [Owner.FlushCallbacks],
// returning an id the caller can use to correlate it (e.g. in logs).
func (o *Owner) ScheduleCallback(id slotid.ID, fn func()) CallbackID {
	o.nextSlot++
	o.callbacks = append(o.callbacks, fn)
	return CallbackID{Element: id, Slot: o.nextSlot}
}

// NeedsWork reports whether there is a dirty element or a queued
// callback waiting to run.
func (o *Owner) NeedsWork() bool {
	return len(o.dirty) > 0 || len(o.callbacks) > 0
}

// FlushCallbacks runs and clears every queued callback, in the order
// they were scheduled.
func (o *Owner) FlushCallbacks() {
	pending := o.callbacks
	o.callbacks = nil
	for _, fn := range pending {
		fn()
	}
}

// FlushBuild drains the dirty set, always rebuilding the shallowest
// remaining element first: rebuilding a parent can itself dirty a
// descendant (through inherited-widget notification or a state change
// triggered from Build), so depth is recomputed before every pick
// rather than sorted once up front. An element that was unmounted after
// being scheduled (by an ancestor's own rebuild) is silently dropped.
func (o *Owner) FlushBuild() error {
	for len(o.dirty) > 0 {
		sort.SliceStable(o.dirty, func(i, j int) bool {
			di, _ := o.tree.Storage().GetDepth(o.dirty[i])
			dj, _ := o.tree.Storage().GetDepth(o.dirty[j])
			return di < dj
		})

		id := o.dirty[0]
		o.dirty = o.dirty[1:]
		delete(o.dirtySet, id)

		if !o.tree.Storage().Contains(id) {
			continue
		}
		if err := o.tree.Rebuild(id); err != nil {
			return err
		}
	}
	return nil
}
