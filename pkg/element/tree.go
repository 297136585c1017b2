package element

import (
	"fmt"
	"reflect"

	"github.com/nodalui/drift/pkg/reactive"
	"github.com/nodalui/drift/pkg/rendering"
	"github.com/nodalui/drift/pkg/slotid"
)

// Scheduler is the minimal dirty-tracking contract a [Tree] needs (see
// package schedule for the concrete implementation, C4). Kept as a
// small local interface rather than importing package schedule, so the
// two packages don't depend on each other.
type Scheduler interface {
	ScheduleBuild(id slotid.ID)
}

type noopScheduler struct{}

func (noopScheduler) ScheduleBuild(slotid.ID) {}

// Tree is the element tree: a [reactive.Tree] of [Element] values driven
// by [Widget] definitions, plus the element-specific bookkeeping the
// generic reconciler doesn't know about — the inherited-widget
// dependency tracking consulted by [Context.DependOnInherited], and the
// [SyncHooks] for the render layer. The key index lives in the wrapped
// [reactive.Tree]; Tree itself offers no key lookup.
type Tree struct {
	core      *reactive.Tree[Element, Widget]
	scheduler Scheduler

	// dependents maps an InheritedElement's ID to, per aspect, the set
	// of descendant element IDs that asked to be notified when that
	// widget changes. A nil aspect key means "notify on any change".
	dependents map[slotid.ID]map[any]map[slotid.ID]struct{}

	hooks SyncHooks
}

// SyncHooks lets an external observer — the render synchronization pass
// (package render), via the engine facade — learn about every mount,
// in-place update, and forgetting the element tree performs, without
// the element tree importing package render itself. A nil func is
// simply never called.
type SyncHooks struct {
	OnMounted   func(id slotid.ID)
	OnUpdated   func(id slotid.ID)
	OnForgotten func(id slotid.ID)
}

// SetSyncHooks installs hooks, replacing any previously set.
func (t *Tree) SetSyncHooks(hooks SyncHooks) {
	t.hooks = hooks
}

// NewContext builds the [Context] handed to element and widget
// operations for id. Exposed for the engine facade's [render.Host]
// implementation, which must invoke widget methods (CreateRenderObject,
// DeferredWidget.Build's constraints-driven sibling) outside of the
// ordinary build pass.
func (t *Tree) NewContext(id slotid.ID) *Context {
	return &Context{tree: t, id: id}
}

// New creates an empty element Tree. A nil scheduler is replaced with
// one that silently drops every ScheduleBuild call, which is only
// useful for tests that drive BuildAndRealize manually.
func New(scheduler Scheduler) *Tree {
	if scheduler == nil {
		scheduler = noopScheduler{}
	}
	return &Tree{
		core:       reactive.New[Element, Widget](),
		scheduler:  scheduler,
		dependents: make(map[slotid.ID]map[any]map[slotid.ID]struct{}),
	}
}

// SetScheduler rebinds the tree's scheduler, used to wire a [Tree] to a
// package schedule Owner constructed after the tree itself (the Owner's
// constructor needs the tree to exist first).
func (t *Tree) SetScheduler(scheduler Scheduler) {
	if scheduler == nil {
		scheduler = noopScheduler{}
	}
	t.scheduler = scheduler
}

// Root returns the tree's root element ID.
func (t *Tree) Root() (slotid.ID, bool) { return t.core.Root() }

// Widget returns the widget currently backing id.
func (t *Tree) Widget(id slotid.ID) (Widget, bool) {
	v, ok := t.core.Get(id)
	if !ok {
		return nil, false
	}
	return v.widget(), true
}

// Storage exposes the underlying slot-map tree for ancestor/depth
// queries by other components (the scheduler sorts by depth; the render
// sync pass walks parents to find the nearest RenderObjectWidget
// ancestor).
func (t *Tree) Storage() *slotid.Tree[Element] { return t.core.Storage() }

// SetRootWidget installs w as the tree's root, replacing and forgetting
// any existing root, then recursively builds and realizes it.
func (t *Tree) SetRootWidget(w Widget) (slotid.ID, error) {
	root, err := t.core.SetRoot(t, w)
	if err != nil {
		return slotid.None, fmt.Errorf("element: set root: %w", err)
	}
	if err := t.core.BuildAndRealize(t, []slotid.ID{root}); err != nil {
		return slotid.None, fmt.Errorf("element: set root: %w", err)
	}
	return root, nil
}

// Spawn mounts w as a new child of parent and realizes it.
func (t *Tree) Spawn(parent slotid.ID, w Widget) (slotid.ID, error) {
	id, err := t.core.Spawn(t, parent, w)
	if err != nil {
		return slotid.None, fmt.Errorf("element: spawn: %w", err)
	}
	if err := t.core.BuildAndRealize(t, []slotid.ID{id}); err != nil {
		return slotid.None, err
	}
	return id, nil
}

// RemoveAll tears down id and its entire subtree.
func (t *Tree) RemoveAll(id slotid.ID) error {
	return t.core.RemoveAll(t, id)
}

// Rebuild reconciles id's children against a freshly computed build and
// realizes whatever changed. It is the operation the scheduler's flush
// loop (package schedule) calls for every dirty element, in depth order.
func (t *Tree) Rebuild(id slotid.ID) error {
	return t.core.BuildAndRealize(t, []slotid.ID{id})
}

func (t *Tree) scheduleBuild(id slotid.ID) {
	t.scheduler.ScheduleBuild(id)
}

// --- reactive.Strategy[Element, Widget] ---

func (t *Tree) Mount(ctx reactive.MountContext[Element], w Widget) Element {
	el := w.CreateElement()
	elCtx := &Context{tree: t, id: ctx.NodeID}
	el.mount(elCtx)
	if t.hooks.OnMounted != nil {
		t.hooks.OnMounted(ctx.NodeID)
	}
	return el
}

func (t *Tree) TryUpdate(id slotid.ID, value *Element, w Widget) reactive.UpdateResult {
	if !canUpdate((*value).widget(), w) {
		return reactive.Invalid
	}
	result := (*value).update(w)
	if result == reactive.Changed {
		if _, ok := (*value).(*inheritedElement); ok {
			t.notifyDependents(id)
		}
		if t.hooks.OnUpdated != nil {
			t.hooks.OnUpdated(id)
		}
	}
	return result
}

func (t *Tree) Build(ctx reactive.BuildContext[Element]) []Widget {
	elCtx := &Context{tree: t, id: ctx.NodeID}
	return (*ctx.Value).build(elCtx)
}

func (t *Tree) Unmount(ctx reactive.UnmountContext[Element], value Element) {
	if t.hooks.OnForgotten != nil {
		t.hooks.OnForgotten(ctx.NodeID)
	}
	elCtx := &Context{tree: t, id: ctx.NodeID}
	value.unmount(elCtx)
	delete(t.dependents, ctx.NodeID)
}

func (t *Tree) OnForgotten(id slotid.ID) {
	delete(t.dependents, id)
	for _, byAspect := range t.dependents {
		for _, set := range byAspect {
			delete(set, id)
		}
	}
}

// --- inherited widget dependency tracking ---

func (t *Tree) dependOnInherited(from slotid.ID, widgetType reflect.Type, aspect any) (InheritedWidget, bool) {
	cur := from
	for {
		parent, ok := t.core.Storage().GetParent(cur)
		if !ok {
			return nil, false
		}
		cur = parent
		v, ok := t.core.Get(cur)
		if !ok {
			continue
		}
		ie, ok := v.(*inheritedElement)
		if !ok {
			continue
		}
		if reflect.TypeOf(ie.w) != widgetType {
			continue
		}
		t.registerDependent(cur, from, aspect)
		return ie.w, true
	}
}

func (t *Tree) registerDependent(inheritedID, dependentID slotid.ID, aspect any) {
	byAspect, ok := t.dependents[inheritedID]
	if !ok {
		byAspect = make(map[any]map[slotid.ID]struct{})
		t.dependents[inheritedID] = byAspect
	}
	set, ok := byAspect[aspect]
	if !ok {
		set = make(map[slotid.ID]struct{})
		byAspect[aspect] = set
	}
	set[dependentID] = struct{}{}
}

// notifyDependents schedules a rebuild for every element depending on
// inheritedID, across every aspect bucket (aspect-granular filtering
// happens at DependOnInherited registration time: a dependent that
// registered for a specific aspect is still notified on every change and
// is expected to re-check its aspect during its own rebuild, the same
// over-notify-safe, never-under-notify guarantee described for the
// inheritance component).
func (t *Tree) notifyDependents(inheritedID slotid.ID) {
	for _, set := range t.dependents[inheritedID] {
		for dependentID := range set {
			t.scheduleBuild(dependentID)
		}
	}
}

// --- deferred (layout-builder style) elements ---

// ResolveDeferred is called by the render layer's layout pass with the
// constraints id's render object was just given. It rebuilds id's child
// only if the constraints changed since the last resolution, or a
// dependency marked it dirty (see [Tree.MarkDeferredDirty]); otherwise
// it is a no-op. Returns whether a rebuild actually happened.
func (t *Tree) ResolveDeferred(id slotid.ID, constraints rendering.Constraints) (bool, error) {
	v, ok := t.core.Get(id)
	if !ok {
		return false, fmt.Errorf("element: resolve deferred: %s not found", id)
	}
	de, ok := v.(*deferredElement)
	if !ok {
		return false, fmt.Errorf("element: resolve deferred: %s is not a deferred element", id)
	}

	if de.hasResolved && !de.dirty && de.lastConstraints.Equal(constraints) {
		return false, nil
	}
	de.lastConstraints = constraints
	de.hasResolved = true
	de.dirty = false

	elCtx := &Context{tree: t, id: id}
	var defs []Widget
	if child := de.w.Build(elCtx, constraints); child != nil {
		defs = []Widget{child}
	}
	result, err := t.core.UpdateChildren(t, id, defs)
	if err != nil {
		return false, err
	}
	if err := t.core.BuildAndRealize(t, result.Touched); err != nil {
		return false, err
	}
	return true, nil
}

// MarkDeferredDirty flags id (which must be a deferred element) so its
// next [Tree.ResolveDeferred] rebuilds unconditionally even if the
// incoming constraints haven't changed — used when a deferred widget
// depends on something other than layout (an inherited value, say).
func (t *Tree) MarkDeferredDirty(id slotid.ID) {
	if v, ok := t.core.Get(id); ok {
		if de, ok := v.(*deferredElement); ok {
			de.dirty = true
		}
	}
}
