package engine

import (
	"github.com/nodalui/drift/pkg/element"
	"github.com/nodalui/drift/pkg/render"
	"github.com/nodalui/drift/pkg/rendering"
	"github.com/nodalui/drift/pkg/slotid"
	"github.com/nodalui/drift/pkg/view"
)

// treeHost implements [render.Host] over an [element.Tree], dispatching
// to the appropriate widget method by [element.WidgetKind] rather than
// by type-asserting the element tree's own unexported kinds.
type treeHost struct {
	tree *element.Tree
}

func newTreeHost(tree *element.Tree) *treeHost {
	return &treeHost{tree: tree}
}

func (h *treeHost) ElementParent(id slotid.ID) (slotid.ID, bool) {
	return h.tree.Storage().GetParent(id)
}

func (h *treeHost) CreateRenderObject(id slotid.ID) (render.RenderObject, bool) {
	kind, ok := h.tree.KindOf(id)
	if !ok {
		return nil, false
	}
	w, ok := h.tree.Widget(id)
	if !ok {
		return nil, false
	}
	ctx := h.tree.NewContext(id)
	switch kind {
	case element.KindRenderObject:
		return w.(element.RenderObjectWidget).CreateRenderObject(ctx), true
	case element.KindView:
		return w.(element.ViewWidget).CreateRenderObject(ctx), true
	default:
		return nil, false
	}
}

func (h *treeHost) UpdateRenderObject(id slotid.ID, obj render.RenderObject) {
	kind, ok := h.tree.KindOf(id)
	if !ok {
		return
	}
	w, ok := h.tree.Widget(id)
	if !ok {
		return
	}
	ctx := h.tree.NewContext(id)
	switch kind {
	case element.KindRenderObject:
		w.(element.RenderObjectWidget).UpdateRenderObject(ctx, obj)
	case element.KindView:
		w.(element.ViewWidget).UpdateRenderObject(ctx, obj)
	}
}

// RenderChildren walks id's element subtree, collecting the nearest
// render-producing descendant along every branch — the elements whose
// render objects should become id's own render-tree children. Plain and
// deferred elements are transparent to this walk; a render-object or
// view element ends the branch without descending further, since
// whatever is beneath it belongs to its own subtree.
func (h *treeHost) RenderChildren(id slotid.ID) []slotid.ID {
	var out []slotid.ID
	children, _ := h.tree.Storage().GetChildren(id)
	for _, c := range children {
		h.collectRenderChildren(c, &out)
	}
	return out
}

func (h *treeHost) collectRenderChildren(id slotid.ID, out *[]slotid.ID) {
	kind, ok := h.tree.KindOf(id)
	if !ok {
		return
	}
	if kind == element.KindRenderObject || kind == element.KindView {
		*out = append(*out, id)
		return
	}
	children, _ := h.tree.Storage().GetChildren(id)
	for _, c := range children {
		h.collectRenderChildren(c, out)
	}
}

func (h *treeHost) ViewFor(id slotid.ID) (view.View, bool) {
	kind, ok := h.tree.KindOf(id)
	if !ok || kind != element.KindView {
		return nil, false
	}
	w, ok := h.tree.Widget(id)
	if !ok {
		return nil, false
	}
	ctx := h.tree.NewContext(id)
	return w.(element.ViewWidget).CreateView(ctx), true
}

func (h *treeHost) IsDeferred(id slotid.ID) bool {
	kind, ok := h.tree.KindOf(id)
	return ok && kind == element.KindDeferred
}

func (h *treeHost) ResolveDeferred(id slotid.ID, constraints rendering.Constraints) (bool, error) {
	return h.tree.ResolveDeferred(id, constraints)
}
