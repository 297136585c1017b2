package render

import (
	"github.com/nodalui/drift/pkg/rendering"
	"github.com/nodalui/drift/pkg/slotid"
)

// RenderObject is a node of the render tree. Concrete types embed
// [Base] to get the relayout-boundary bookkeeping every object needs,
// and implement PerformLayout/Paint for their own geometry.
type RenderObject interface {
	base() *Base
	// PerformLayout computes this object's size for constraints, laying
	// out and positioning any children through m (via [Manager.Layout]
	// and [Manager.SetOffset]) itself.
	PerformLayout(m *Manager, constraints rendering.Constraints) rendering.Size
	// Paint paints this object, and is expected to paint its children
	// (by calling their Paint with the same m and ctx) at their stored
	// offsets.
	Paint(m *Manager, ctx *PaintContext)
}

// Painter is implemented optionally by a [RenderObject] that sometimes
// produces no visible output of its own (a pure layout wrapper, say).
// A render object that doesn't implement it is always assumed to paint.
type Painter interface {
	DoesPaint() bool
}

// PaintContext is the minimal drawing surface handed to Paint. It is
// deliberately left as a thin placeholder: the concrete graphics API a
// render object draws through is out of scope here (see DESIGN.md); any
// canvas-like type can be plugged in by the host application.
type PaintContext struct {
	Canvas any
}

// Base is embedded by every concrete [RenderObject]. It is not safe for
// concurrent use.
type Base struct {
	id        slotid.ID
	hasID     bool
	parentID  slotid.ID
	hasParent bool

	relayoutBoundaryID  slotid.ID
	hasRelayoutBoundary bool
	parentUsesSize      bool

	size   rendering.Size
	offset rendering.Offset

	needsLayout bool
}

func (b *Base) base() *Base { return b }

// ID returns the render object's own ID, valid once it has been added
// to a [Manager]'s tree.
func (b *Base) ID() slotid.ID { return b.id }

// Size returns the object's size as of its last layout.
func (b *Base) Size() rendering.Size { return b.size }

// Offset returns the object's offset within its parent.
func (b *Base) Offset() rendering.Offset { return b.offset }

// NeedsLayout reports whether the object is due a [RenderObject.PerformLayout]
// call on the next layout pass that reaches it.
func (b *Base) NeedsLayout() bool { return b.needsLayout }

// RelayoutBoundary returns the nearest ancestor (possibly itself) that
// is its own relayout boundary.
func (b *Base) RelayoutBoundary() (slotid.ID, bool) {
	return b.relayoutBoundaryID, b.hasRelayoutBoundary
}

func (b *Base) boundaryOrSelf() slotid.ID {
	if b.hasRelayoutBoundary {
		return b.relayoutBoundaryID
	}
	return b.id
}
