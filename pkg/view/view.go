// Package view defines the contract a compositing root implements, and
// the association a render object carries to the nearest such root —
// the Go counterpart of the Rust original's RenderView::Owner/Within
// enum, generalized (unlike the single-root view this engine's
// teacher implements) to support arbitrarily nested views, as required
// for view-within-view compositing.
package view

import (
	"github.com/nodalui/drift/pkg/rendering"
	"github.com/nodalui/drift/pkg/slotid"
)

// View is a compositing root: a render object subtree whose size,
// offset, and paint output are managed independently of its logical
// parent's layout pass (e.g. a platform window, or a texture target
// nested inside another view). Every method but OnSync is keyed by the
// render-object id it concerns, since a view may own more than one
// render object (its root, plus everything attached Within it) and the
// view must be able to tell them apart.
type View interface {
	// OnAttach is called once per render object that joins this view:
	// id is the new object, parent is the render object it attaches
	// beneath within the view, or [slotid.None] for the view's own root.
	OnAttach(parent, id slotid.ID)
	// OnDetach is called once for every render object id this view
	// owned, when id is removed or the view itself is torn down.
	OnDetach(id slotid.ID)
	// OnSizeChanged is called whenever id's computed size changes.
	OnSizeChanged(id slotid.ID, size rendering.Size)
	// OnOffsetChanged is called whenever id's offset within its render
	// parent changes, whether or not its size changed too.
	OnOffsetChanged(id slotid.ID, offset rendering.Offset)
	// OnPaint hands the view the canvas id was just painted into. The
	// canvas type is opaque to this package (see package render's
	// PaintContext) — out of scope here per spec's treatment of
	// canvas/paint command types as an external collaborator.
	OnPaint(id slotid.ID, canvas any)
	// OnSync is called at most once per frame, after every dirty view
	// has been given a chance to request a paint, to let the view
	// reconcile its own composited state (e.g. push a new frame to the
	// platform) once rather than once per size/offset change.
	OnSync()
}

// Assoc records a render object's relationship to the view tree: either
// the object IS a view's root (Owner), or it lives somewhere beneath
// one (Within, naming that ancestor's render object ID).
type Assoc struct {
	Owner    bool
	ParentID slotid.ID // meaningful only when !Owner
}

// OwnerAssoc builds an Assoc for a render object that is itself a view
// root.
func OwnerAssoc() Assoc { return Assoc{Owner: true} }

// WithinAssoc builds an Assoc for a render object nested within the
// view rooted at parentID.
func WithinAssoc(parentID slotid.ID) Assoc { return Assoc{ParentID: parentID} }
