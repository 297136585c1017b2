package element

import (
	"github.com/nodalui/drift/pkg/reactive"
	"github.com/nodalui/drift/pkg/rendering"
	"github.com/nodalui/drift/pkg/slotid"
)

// Element is the live, stateful counterpart of a [Widget]. The
// interface's methods are unexported so the only types that can satisfy
// it are the kinds defined in this package — Go's nearest equivalent of
// the Rust original's closed Element enum.
type Element interface {
	mount(ctx *Context)
	unmount(ctx *Context)
	// update swaps in newWidget (already confirmed updatable: same
	// concrete type and key as the current widget) and reports whether
	// anything actually changed.
	update(newWidget Widget) reactive.UpdateResult
	build(ctx *Context) []Widget
	widget() Widget
}

// NewStatelessElement constructs the element kind backing a
// [StatelessWidget]; call it from the widget's CreateElement method.
func NewStatelessElement(w StatelessWidget) Element { return &statelessElement{w: w} }

// NewStatefulElement constructs the element kind backing a
// [StatefulWidget]; call it from the widget's CreateElement method.
func NewStatefulElement(w StatefulWidget) Element { return &statefulElement{w: w} }

// NewInheritedElement constructs the element kind backing an
// [InheritedWidget]; call it from the widget's CreateElement method.
func NewInheritedElement(w InheritedWidget) Element { return &inheritedElement{w: w} }

// NewRenderObjectElement constructs the element kind backing a
// [RenderObjectWidget]; call it from the widget's CreateElement method.
func NewRenderObjectElement(w RenderObjectWidget) Element { return &renderObjectElement{w: w} }

// NewDeferredElement constructs the element kind backing a
// [DeferredWidget]; call it from the widget's CreateElement method.
func NewDeferredElement(w DeferredWidget) Element { return &deferredElement{w: w} }

// NewViewElement constructs the element kind backing a [ViewWidget];
// call it from the widget's CreateElement method.
func NewViewElement(w ViewWidget) Element { return &viewElement{w: w} }

// statelessElement backs any [StatelessWidget].
type statelessElement struct {
	w StatelessWidget
}

func (e *statelessElement) mount(ctx *Context)   {}
func (e *statelessElement) unmount(ctx *Context) {}
func (e *statelessElement) widget() Widget       { return e.w }

func (e *statelessElement) update(newWidget Widget) reactive.UpdateResult {
	nw := newWidget.(StatelessWidget)
	if widgetsEqual(e.w, nw) {
		e.w = nw
		return reactive.Unchanged
	}
	e.w = nw
	return reactive.Changed
}

func (e *statelessElement) build(ctx *Context) []Widget {
	if child := e.w.Build(ctx); child != nil {
		return []Widget{child}
	}
	return nil
}

// statefulElement backs any [StatefulWidget]; its State is created once
// at Mount and persists, mutated in place, across every Update.
type statefulElement struct {
	w     StatefulWidget
	state State
}

func (e *statefulElement) mount(ctx *Context) {
	e.state = e.w.CreateState()
}

func (e *statefulElement) unmount(ctx *Context) {
	e.state.Dispose()
}

func (e *statefulElement) widget() Widget { return e.w }

func (e *statefulElement) update(newWidget Widget) reactive.UpdateResult {
	old := e.w
	nw := newWidget.(StatefulWidget)
	e.w = nw
	e.state.DidUpdateWidget(old, nw)
	if widgetsEqual(old, nw) {
		return reactive.Unchanged
	}
	return reactive.Changed
}

func (e *statefulElement) build(ctx *Context) []Widget {
	if child := e.state.Build(ctx); child != nil {
		return []Widget{child}
	}
	return nil
}

// inheritedElement backs any [InheritedWidget]; the set of descendants
// depending on it is tracked by [Tree.dependents], keyed by this
// element's own ID, not stored here.
type inheritedElement struct {
	w InheritedWidget
}

func (e *inheritedElement) mount(ctx *Context) {}

func (e *inheritedElement) unmount(ctx *Context) {}

func (e *inheritedElement) widget() Widget { return e.w }

func (e *inheritedElement) update(newWidget Widget) reactive.UpdateResult {
	old := e.w
	nw := newWidget.(InheritedWidget)
	e.w = nw
	if nw.UpdateShouldNotify(old) {
		return reactive.Changed
	}
	return reactive.Unchanged
}

func (e *inheritedElement) build(ctx *Context) []Widget {
	if child := e.w.Child(); child != nil {
		return []Widget{child}
	}
	return nil
}

// renderObjectElement backs any [RenderObjectWidget]. The widget's
// corresponding render-tree node is tracked externally, by the engine
// facade's element-to-render-object map (see package render), not here
// — the element tree and the render tree are two independent arenas,
// kept in sync by a separate synchronization pass, exactly as specified
// for the rendering component.
type renderObjectElement struct {
	w RenderObjectWidget
}

func (e *renderObjectElement) mount(ctx *Context)   {}
func (e *renderObjectElement) unmount(ctx *Context) {}
func (e *renderObjectElement) widget() Widget       { return e.w }

func (e *renderObjectElement) update(newWidget Widget) reactive.UpdateResult {
	old := e.w
	nw := newWidget.(RenderObjectWidget)
	e.w = nw
	if widgetsEqual(old, nw) {
		return reactive.Unchanged
	}
	return reactive.Changed
}

func (e *renderObjectElement) build(ctx *Context) []Widget {
	if child := e.w.Child(); child != nil {
		return []Widget{child}
	}
	return nil
}

// viewElement backs any [ViewWidget], marking the element subtree below
// it as its own compositing root; see package view.
type viewElement struct {
	w ViewWidget
}

func (e *viewElement) mount(ctx *Context)   {}
func (e *viewElement) unmount(ctx *Context) {}
func (e *viewElement) widget() Widget       { return e.w }

func (e *viewElement) update(newWidget Widget) reactive.UpdateResult {
	old := e.w
	nw := newWidget.(ViewWidget)
	e.w = nw
	if widgetsEqual(old, nw) {
		return reactive.Unchanged
	}
	return reactive.Changed
}

func (e *viewElement) build(ctx *Context) []Widget {
	if child := e.w.Child(); child != nil {
		return []Widget{child}
	}
	return nil
}

// deferredElement backs any [DeferredWidget]. Unlike the other kinds,
// its build method (called by the ordinary reconciliation pass) never
// produces a child — its child is resolved lazily by the render layer,
// from layout-time constraints, via [Tree.ResolveDeferred].
type deferredElement struct {
	w DeferredWidget

	lastConstraints rendering.Constraints
	hasResolved     bool
	dirty           bool
}

func (e *deferredElement) mount(ctx *Context)   {}
func (e *deferredElement) unmount(ctx *Context) {}
func (e *deferredElement) widget() Widget       { return e.w }

func (e *deferredElement) update(newWidget Widget) reactive.UpdateResult {
	old := e.w
	nw := newWidget.(DeferredWidget)
	e.w = nw
	e.dirty = true
	if widgetsEqual(old, nw) {
		return reactive.Unchanged
	}
	return reactive.Changed
}

func (e *deferredElement) build(ctx *Context) []Widget { return nil }

// WidgetKind classifies a mounted element for the render
// synchronization pass (package render, via the engine facade's [Host]
// implementation), which needs to know, without importing this
// package's unexported element kinds, whether an element produces its
// own render object, is a compositing root, or defers its child to
// layout time.
type WidgetKind int

const (
	// KindPlain backs a Stateless/Stateful/Inherited widget: it never
	// produces a render object of its own.
	KindPlain WidgetKind = iota
	// KindRenderObject backs a [RenderObjectWidget].
	KindRenderObject
	// KindView backs a [ViewWidget].
	KindView
	// KindDeferred backs a [DeferredWidget].
	KindDeferred
)

// KindOf reports id's [WidgetKind], or false if id is not a live
// element.
func (t *Tree) KindOf(id slotid.ID) (WidgetKind, bool) {
	v, ok := t.core.Get(id)
	if !ok {
		return KindPlain, false
	}
	switch v.(type) {
	case *renderObjectElement:
		return KindRenderObject, true
	case *viewElement:
		return KindView, true
	case *deferredElement:
		return KindDeferred, true
	default:
		return KindPlain, true
	}
}

// widgetsEqual reports whether two widgets of the same concrete type
// compare equal under Go's == operator; widgets whose fields make them
// incomparable (a slice or func field, say) are always treated as
// Changed rather than panicking.
func widgetsEqual(a, b any) (equal bool) {
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()
	return a == b
}
