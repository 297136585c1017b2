// Package element implements the element tree (C3): a reconciled,
// ID-addressed mirror of the application's widget descriptions, built
// on top of package reactive and package slotid.
package element

import (
	"reflect"

	"github.com/nodalui/drift/pkg/reactive"
	"github.com/nodalui/drift/pkg/render"
	"github.com/nodalui/drift/pkg/rendering"
	"github.com/nodalui/drift/pkg/view"
)

// Widget is an immutable description of a piece of UI. Concrete widget
// types normally embed [github.com/nodalui/drift/pkg/widget.KeyedBase]
// to get Key() for free.
type Widget interface {
	// Key returns the widget's identity key, if any.
	Key() (reactive.Key, bool)
	// CreateElement constructs the element kind that knows how to keep
	// a live node of the tree in sync with widgets of this Go type.
	CreateElement() Element
}

// StatelessWidget builds its entire visual subtree from its own fields
// on every rebuild, with no persistent state of its own.
type StatelessWidget interface {
	Widget
	Build(ctx *Context) Widget
}

// StatefulWidget carries a CreateState constructor producing a [State]
// value that is created once when the widget is first mounted and
// persists, mutated in place, across every subsequent rebuild.
type StatefulWidget interface {
	Widget
	CreateState() State
}

// State is the persistent, mutable counterpart of a [StatefulWidget].
type State interface {
	// Build produces the widget's visual subtree.
	Build(ctx *Context) Widget
	// DidUpdateWidget is called after the owning element swaps in
	// newWidget (of the same concrete type as oldWidget), before the
	// next Build.
	DidUpdateWidget(oldWidget, newWidget StatefulWidget)
	// Dispose runs once, when the element is permanently unmounted.
	Dispose()
}

// InheritedWidget makes a value available to descendants via
// [Context.DependOnInherited]; UpdateShouldNotify decides, when the
// widget is replaced, whether dependents must be scheduled for rebuild.
type InheritedWidget interface {
	Widget
	Child() Widget
	UpdateShouldNotify(old InheritedWidget) bool
}

// RenderObjectWidget produces a render-tree node (see package render).
// Child returns the single child widget whose own render object will
// be attached beneath the produced render object; leaf render widgets
// return nil. CreateRenderObject/UpdateRenderObject are invoked by the
// render synchronization pass (never by the element tree itself) — the
// engine facade's [Host] implementation dispatches to them by the
// element's [WidgetKind].
type RenderObjectWidget interface {
	Widget
	Child() Widget
	CreateRenderObject(ctx *Context) render.RenderObject
	UpdateRenderObject(ctx *Context, obj render.RenderObject)
}

// DeferredWidget builds its child lazily, from layout-time constraints
// rather than from ambient build-time context — the generalized
// counterpart of a widget like LayoutBuilder. Build is never called by
// the ordinary build pass; it is invoked by the render layer's layout
// pass instead (see [Tree.ResolveDeferred]).
type DeferredWidget interface {
	Widget
	Build(ctx *Context, constraints rendering.Constraints) Widget
}

// ViewWidget marks a render-tree subtree as its own compositing root
// (see package view); it has exactly one child. Like
// [RenderObjectWidget], it produces its own render object (the view's
// root), plus a compositor instance via CreateView.
type ViewWidget interface {
	Widget
	Child() Widget
	CreateRenderObject(ctx *Context) render.RenderObject
	UpdateRenderObject(ctx *Context, obj render.RenderObject)
	CreateView(ctx *Context) view.View
}

// canUpdate reports whether an existing widget of type old can be
// updated in place to represent new — the concrete Go type must match
// and the keys must compare equal (including both having no key).
func canUpdate(old, new Widget) bool {
	if reflect.TypeOf(old) != reflect.TypeOf(new) {
		return false
	}
	oldKey, oldHas := old.Key()
	newKey, newHas := new.Key()
	if oldHas != newHas {
		return false
	}
	if oldHas {
		equal, safe := keysEqual(oldKey, newKey)
		return safe && equal
	}
	return true
}

func keysEqual(a, b reactive.Key) (equal bool, safe bool) {
	defer func() {
		if recover() != nil {
			equal, safe = false, false
		}
	}()
	return a == b, true
}
