package render

import (
	"sort"

	"github.com/nodalui/drift/pkg/rendering"
	"github.com/nodalui/drift/pkg/slotid"
	"github.com/nodalui/drift/pkg/view"
)

// Host is everything the Manager needs from the element tree, supplied
// by the engine facade that glues the two trees together. Every method
// is keyed by element ID, never by render-object ID — the Manager owns
// the element-ID -> render-object-ID mapping itself. Host lets this
// package avoid importing package element directly (see doc.go).
type Host interface {
	// ElementParent returns id's parent element ID.
	ElementParent(id slotid.ID) (slotid.ID, bool)
	// CreateRenderObject asks the element backing id to produce its
	// render object. ok is false for elements that never produce one
	// (Stateless, Stateful, Inherited, Deferred).
	CreateRenderObject(id slotid.ID) (obj RenderObject, ok bool)
	// UpdateRenderObject asks the element backing id to apply its
	// current widget's properties onto obj, already live in the tree.
	UpdateRenderObject(id slotid.ID, obj RenderObject)
	// RenderChildren returns, in order, the nearest descendant element
	// IDs beneath id that themselves produce (or will produce) a render
	// object — skipping over non-render-producing elements in between
	// (Stateless, Stateful, Inherited, Deferred). Used to keep
	// render-tree child order in sync with the element tree's.
	RenderChildren(id slotid.ID) []slotid.ID
	// ViewFor returns the compositor a View element backs, if id is one.
	ViewFor(id slotid.ID) (v view.View, ok bool)
	// IsDeferred reports whether id is backed by a deferred element.
	IsDeferred(id slotid.ID) bool
	// ResolveDeferred re-enters the element tree to rebuild id's
	// subtree for newly observed constraints. changed reports whether a
	// rebuild actually happened.
	ResolveDeferred(id slotid.ID, constraints rendering.Constraints) (changed bool, err error)
}

// layoutUpdate accumulates what changed about a render object during a
// single layout pass, drained and applied once the whole
// depth-ordered boundary walk finishes.
type layoutUpdate struct {
	size          rendering.Size
	sizeChanged   bool
	offset        rendering.Offset
	offsetChanged bool
	boundary      slotid.ID
}

// Manager owns the render tree and every piece of per-frame state
// described for rendering-tree synchronization: the create/update/
// forgotten element queues, the layout and paint dirty sets, and the
// per-render-object view association.
//
// A Manager is not safe for concurrent use.
type Manager struct {
	host Host
	tree *slotid.Tree[RenderObject]

	elementToRender map[slotid.ID]slotid.ID
	renderToElement map[slotid.ID]slotid.ID

	createQueue  []slotid.ID
	createSeen   map[slotid.ID]struct{}
	updateSet    map[slotid.ID]struct{}
	forgottenSet map[slotid.ID]struct{}

	needsLayout           map[slotid.ID]struct{}
	needsPaint            map[slotid.ID]struct{}
	dirtyLayoutBoundaries map[slotid.ID]struct{}
	layoutChanged         map[slotid.ID]layoutUpdate
	cachedConstraints     map[slotid.ID]rendering.Constraints

	viewAssoc map[slotid.ID]view.Assoc
	views     map[slotid.ID]view.View
	needsSync map[slotid.ID]struct{}

	// deferredByOwner maps a render object's ID to the deferred
	// elements whose nearest render-producing ancestor it is, so
	// layout can resolve them before laying out that render object's
	// own children.
	deferredByOwner map[slotid.ID][]slotid.ID

	ambientConstraints rendering.Constraints
}

// NewManager creates an empty render tree driven by host.
func NewManager(host Host) *Manager {
	return &Manager{
		host:                  host,
		tree:                  slotid.New[RenderObject](),
		elementToRender:       make(map[slotid.ID]slotid.ID),
		renderToElement:       make(map[slotid.ID]slotid.ID),
		createSeen:            make(map[slotid.ID]struct{}),
		updateSet:             make(map[slotid.ID]struct{}),
		forgottenSet:          make(map[slotid.ID]struct{}),
		needsLayout:           make(map[slotid.ID]struct{}),
		needsPaint:            make(map[slotid.ID]struct{}),
		dirtyLayoutBoundaries: make(map[slotid.ID]struct{}),
		layoutChanged:         make(map[slotid.ID]layoutUpdate),
		cachedConstraints:     make(map[slotid.ID]rendering.Constraints),
		viewAssoc:             make(map[slotid.ID]view.Assoc),
		views:                 make(map[slotid.ID]view.View),
		needsSync:             make(map[slotid.ID]struct{}),
		deferredByOwner:       make(map[slotid.ID][]slotid.ID),
	}
}

// SetAmbientConstraints sets the constraints the root render object
// receives when it has no parent to inherit cached constraints from —
// typically the host window or surface size. It marks the root (if one
// exists) as needing layout.
func (m *Manager) SetAmbientConstraints(c rendering.Constraints) {
	m.ambientConstraints = c
	if root, ok := m.tree.Root(); ok {
		m.needsLayout[root] = struct{}{}
	}
}

// Root returns the render tree's root ID, if any.
func (m *Manager) Root() (slotid.ID, bool) { return m.tree.Root() }

// Object returns the render object stored at id.
func (m *Manager) Object(id slotid.ID) (RenderObject, bool) { return m.tree.Get(id) }

// Children returns id's render-tree children, in order.
func (m *Manager) Children(id slotid.ID) []slotid.ID {
	children, _ := m.tree.GetChildren(id)
	return children
}

// SetOffset records a render object's offset within its parent — called
// by the parent's own PerformLayout once it has placed the child.
func (m *Manager) SetOffset(id slotid.ID, offset rendering.Offset) {
	obj, ok := m.tree.Get(id)
	if !ok {
		return
	}
	base := obj.base()
	if base.offset == offset {
		return
	}
	base.offset = offset
	upd := m.layoutChanged[id]
	upd.offsetChanged = true
	upd.offset = offset
	m.layoutChanged[id] = upd
}

// --- signal queue (fed by element.Tree.SetSyncHooks) ---

// QueueCreate records that an element was just mounted; harmless to
// call for elements that never produce a render object, since [Sync]
// filters on [Host.CreateRenderObject]'s ok result.
func (m *Manager) QueueCreate(id slotid.ID) {
	if _, ok := m.createSeen[id]; ok {
		return
	}
	m.createSeen[id] = struct{}{}
	m.createQueue = append(m.createQueue, id)
}

// QueueUpdate records that an element was updated in place (its
// TryUpdate reported Changed).
func (m *Manager) QueueUpdate(id slotid.ID) {
	m.updateSet[id] = struct{}{}
}

// QueueForgotten records that an element was permanently removed.
func (m *Manager) QueueForgotten(id slotid.ID) {
	m.forgottenSet[id] = struct{}{}
}

// --- 4.5.1 sync pass ---

// Sync drains the create/update/forgotten queues against the render
// tree, in the order specified for rendering-tree synchronization:
// removal, update-set pruning, creation, then update.
func (m *Manager) Sync() error {
	forgotten := m.forgottenSet
	m.forgottenSet = make(map[slotid.ID]struct{})
	for id := range forgotten {
		m.removeElement(id)
	}

	for id := range m.createSeen {
		delete(m.updateSet, id)
	}

	queue := m.createQueue
	m.createQueue = nil
	m.createSeen = make(map[slotid.ID]struct{})
	for _, id := range queue {
		if err := m.createOne(id); err != nil {
			return err
		}
	}

	updates := m.updateSet
	m.updateSet = make(map[slotid.ID]struct{})
	for id := range updates {
		if err := m.updateOne(id); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) removeElement(elementID slotid.ID) {
	renderID, ok := m.elementToRender[elementID]
	if !ok {
		return
	}
	subtree := m.collectSubtree(renderID)

	// Every render object in the subtree carries its own view
	// association (Owner or Within), so notify each one individually —
	// a multi-object view must hear on_detach once per object it owned,
	// not once for the subtree root.
	for _, id := range subtree {
		assoc, hasView := m.viewAssoc[id]
		if !hasView {
			continue
		}
		if v, ok := m.views[m.viewOwnerID(id, assoc)]; ok {
			v.OnDetach(id)
		}
	}

	m.tree.RemoveSubtree(renderID)
	for _, id := range subtree {
		if elID, ok := m.renderToElement[id]; ok {
			delete(m.elementToRender, elID)
		}
		delete(m.renderToElement, id)
		if assoc, ok := m.viewAssoc[id]; ok && assoc.Owner {
			delete(m.views, id)
		}
		delete(m.viewAssoc, id)
		delete(m.needsLayout, id)
		delete(m.needsPaint, id)
		delete(m.dirtyLayoutBoundaries, id)
		delete(m.layoutChanged, id)
		delete(m.cachedConstraints, id)
		delete(m.needsSync, id)
		delete(m.deferredByOwner, id)
	}
}

// collectSubtree returns renderID and every descendant of it, in no
// particular order.
func (m *Manager) collectSubtree(renderID slotid.ID) []slotid.ID {
	out := []slotid.ID{renderID}
	children, _ := m.tree.GetChildren(renderID)
	for _, c := range children {
		out = append(out, m.collectSubtree(c)...)
	}
	return out
}

func (m *Manager) findRenderAncestor(elementID slotid.ID) (slotid.ID, bool) {
	cur := elementID
	for {
		parent, ok := m.host.ElementParent(cur)
		if !ok {
			return slotid.None, false
		}
		if renderID, ok := m.elementToRender[parent]; ok {
			return renderID, true
		}
		cur = parent
	}
}

func (m *Manager) createOne(elementID slotid.ID) error {
	if _, ok := m.elementToRender[elementID]; ok {
		return nil
	}

	ownerRenderID, hasOwner := m.findRenderAncestor(elementID)

	if m.host.IsDeferred(elementID) && hasOwner {
		m.deferredByOwner[ownerRenderID] = append(m.deferredByOwner[ownerRenderID], elementID)
	}

	obj, ok := m.host.CreateRenderObject(elementID)
	if !ok {
		return nil
	}

	var renderID slotid.ID
	if hasOwner {
		renderID = m.tree.Add(ownerRenderID, obj)
	} else {
		renderID = m.tree.Add(slotid.None, obj)
	}
	m.elementToRender[elementID] = renderID
	m.renderToElement[renderID] = elementID

	base := obj.base()
	base.id = renderID
	base.hasID = true
	if hasOwner {
		base.parentID = ownerRenderID
		base.hasParent = true
		if parentObj, ok := m.tree.Get(ownerRenderID); ok {
			base.relayoutBoundaryID = parentObj.base().boundaryOrSelf()
			base.hasRelayoutBoundary = true
		}
	}
	// A render object with a parent inherits the parent's relayout
	// boundary (above); one with no parent render object is its own
	// boundary.
	if !base.hasRelayoutBoundary {
		base.relayoutBoundaryID = renderID
		base.hasRelayoutBoundary = true
	}

	if v, isView := m.host.ViewFor(elementID); isView {
		m.views[renderID] = v
		m.viewAssoc[renderID] = view.OwnerAssoc()
		v.OnAttach(slotid.None, renderID)
	} else if hasOwner {
		if parentAssoc, ok := m.viewAssoc[ownerRenderID]; ok {
			owner := ownerRenderID
			if !parentAssoc.Owner {
				owner = parentAssoc.ParentID
			}
			m.viewAssoc[renderID] = view.WithinAssoc(owner)
			if v, ok := m.views[owner]; ok {
				v.OnAttach(ownerRenderID, renderID)
			}
		}
	}

	base.needsLayout = true
	m.needsLayout[base.boundaryOrSelf()] = struct{}{}
	if doesPaint(obj) {
		m.needsPaint[renderID] = struct{}{}
	}
	return nil
}

func (m *Manager) updateOne(elementID slotid.ID) error {
	renderID, ok := m.elementToRender[elementID]
	if !ok {
		return nil
	}
	obj, ok := m.tree.Get(renderID)
	if !ok {
		return nil
	}
	m.host.UpdateRenderObject(elementID, obj)

	wantElems := m.host.RenderChildren(elementID)
	want := make([]slotid.ID, 0, len(wantElems))
	for _, childElementID := range wantElems {
		if childRenderID, ok := m.elementToRender[childElementID]; ok {
			want = append(want, childRenderID)
		}
	}
	if err := m.reorderChildren(renderID, want); err != nil {
		return err
	}

	base := obj.base()
	base.needsLayout = true
	m.needsLayout[base.boundaryOrSelf()] = struct{}{}
	return nil
}

// reorderChildren swaps parentID's live render-tree children into
// target's order, the render-tree counterpart of the element
// reconciler's own sibling-swap reorder pass. A target entry with no
// live counterpart yet (its create hasn't run this sync) is skipped;
// the next sync's creation step appends it in the right place.
func (m *Manager) reorderChildren(parentID slotid.ID, target []slotid.ID) error {
	for idx, wantID := range target {
		current, ok := m.tree.GetChildren(parentID)
		if !ok {
			return nodeErr(ErrNoRenderObject, parentID)
		}
		if idx >= len(current) {
			break
		}
		if current[idx] == wantID {
			continue
		}
		if err := m.tree.SwapSiblings(parentID, slotid.SwapIndex(idx), slotid.SwapID(wantID)); err != nil {
			return err
		}
	}
	return nil
}

func doesPaint(obj RenderObject) bool {
	p, ok := obj.(Painter)
	return !ok || p.DoesPaint()
}

// --- dirtying API, for RenderObject implementations and the engine ---

// MarkNeedsLayout flags renderID as needing layout, walking up to its
// cached relayout boundary (C6): a render object flagged this way
// causes at most its relayout boundary to be revisited on the next
// [Manager.FlushLayout] — never anything above it.
func (m *Manager) MarkNeedsLayout(renderID slotid.ID) {
	obj, ok := m.tree.Get(renderID)
	if !ok {
		return
	}
	base := obj.base()
	if base.needsLayout {
		return
	}
	base.needsLayout = true
	if base.hasRelayoutBoundary && base.relayoutBoundaryID == renderID {
		m.needsLayout[renderID] = struct{}{}
		return
	}
	if base.hasParent {
		m.MarkNeedsLayout(base.parentID)
		return
	}
	m.needsLayout[renderID] = struct{}{}
}

// MarkNeedsPaint flags renderID for the next [Manager.FlushPaint]. Paint
// isn't boundary-cached the way layout is: every dirty
// render object with a view association repaints directly on flush.
func (m *Manager) MarkNeedsPaint(renderID slotid.ID) {
	m.needsPaint[renderID] = struct{}{}
}

// --- 4.5.2 layout pass ---

// FlushLayout performs C5's layout pass: flushing needs_layout into
// dirty relayout boundaries, laying each out in depth order, then
// draining the resulting size/offset changes and propagating them to
// any associated views.
func (m *Manager) FlushLayout() error {
	for renderID := range m.needsLayout {
		obj, ok := m.tree.Get(renderID)
		if !ok {
			continue
		}
		m.dirtyLayoutBoundaries[obj.base().boundaryOrSelf()] = struct{}{}
	}
	m.needsLayout = make(map[slotid.ID]struct{})

	boundaries := make([]slotid.ID, 0, len(m.dirtyLayoutBoundaries))
	for id := range m.dirtyLayoutBoundaries {
		boundaries = append(boundaries, id)
	}
	m.dirtyLayoutBoundaries = make(map[slotid.ID]struct{})
	sort.SliceStable(boundaries, func(i, j int) bool {
		di, _ := m.tree.GetDepth(boundaries[i])
		dj, _ := m.tree.GetDepth(boundaries[j])
		return di < dj
	})

	for _, boundaryID := range boundaries {
		if _, done := m.layoutChanged[boundaryID]; done {
			continue
		}
		if err := m.layoutRoot(boundaryID); err != nil {
			return err
		}
	}

	return m.drainLayoutChanged()
}

func (m *Manager) layoutRoot(boundaryID slotid.ID) error {
	obj, ok := m.tree.Get(boundaryID)
	if !ok {
		return nil
	}
	base := obj.base()
	constraints := m.ambientConstraints
	if base.hasParent {
		if c, ok := m.cachedConstraints[base.parentID]; ok {
			constraints = c
		}
	}
	return m.Layout(boundaryID, constraints, false)
}

// Layout lays renderID out against constraints, first resolving any
// deferred elements it owns (C6), then calling its own PerformLayout.
// parentUsesSize controls whether renderID becomes its own relayout
// boundary, along with tight constraints and an absent parent.
// RenderObject implementations call this on their children from within
// their own PerformLayout.
func (m *Manager) Layout(renderID slotid.ID, constraints rendering.Constraints, parentUsesSize bool) error {
	obj, ok := m.tree.Get(renderID)
	if !ok {
		return nodeErr(ErrNoRenderObject, renderID)
	}
	base := obj.base()

	if elementID, ok := m.renderToElement[renderID]; ok {
		if err := m.resolveDeferredDescendants(elementID, constraints); err != nil {
			return err
		}
		// resolving may have re-fetched/replaced nothing in the render
		// tree itself (deferred elements never own a render object),
		// but re-read obj in case a sync pass it triggered reordered
		// this node's own children.
		if obj, ok = m.tree.Get(renderID); !ok {
			return nodeErr(ErrNoRenderObject, renderID)
		}
		base = obj.base()
	}

	m.cachedConstraints[renderID] = constraints

	var boundary slotid.ID
	shouldBeBoundary := constraints.IsTight() || !base.hasParent || !parentUsesSize
	if shouldBeBoundary {
		boundary = renderID
	} else if parentObj, ok := m.tree.Get(base.parentID); ok {
		boundary = parentObj.base().boundaryOrSelf()
	} else {
		boundary = renderID
	}

	size := obj.PerformLayout(m, constraints)
	base.needsLayout = false
	base.parentUsesSize = parentUsesSize

	sizeChanged := !base.hasRelayoutBoundary || base.size != size
	base.size = size
	base.relayoutBoundaryID = boundary
	base.hasRelayoutBoundary = true

	upd := m.layoutChanged[renderID]
	upd.size = size
	upd.sizeChanged = upd.sizeChanged || sizeChanged
	upd.boundary = boundary
	m.layoutChanged[renderID] = upd
	return nil
}

// resolveDeferredDescendants resolves every deferred element registered
// as hanging directly off currentElementID's own render object (see
// deferredByOwner), before currentElementID's render object itself is
// laid out.
func (m *Manager) resolveDeferredDescendants(currentElementID slotid.ID, constraints rendering.Constraints) error {
	renderID, ok := m.elementToRender[currentElementID]
	if !ok {
		return nil
	}
	for _, deferredID := range m.deferredByOwner[renderID] {
		changed, err := m.host.ResolveDeferred(deferredID, constraints)
		if err != nil {
			return err
		}
		if changed {
			if err := m.Sync(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Manager) drainLayoutChanged() error {
	changed := m.layoutChanged
	m.layoutChanged = make(map[slotid.ID]layoutUpdate)

	for renderID, upd := range changed {
		obj, ok := m.tree.Get(renderID)
		if !ok {
			continue
		}
		assoc, hasView := m.viewAssoc[renderID]
		owner := renderID
		if hasView {
			owner = m.viewOwnerID(renderID, assoc)
		}

		if upd.sizeChanged {
			if hasView {
				if v, ok := m.views[owner]; ok {
					v.OnSizeChanged(renderID, upd.size)
				}
			}
			if doesPaint(obj) {
				m.needsPaint[renderID] = struct{}{}
			}
		}
		if upd.offsetChanged {
			if hasView {
				if v, ok := m.views[owner]; ok {
					v.OnOffsetChanged(renderID, upd.offset)
				}
				if !upd.sizeChanged {
					m.needsSync[owner] = struct{}{}
				}
			}
		}
	}
	return nil
}

func (m *Manager) viewOwnerID(renderID slotid.ID, assoc view.Assoc) slotid.ID {
	if assoc.Owner {
		return renderID
	}
	return assoc.ParentID
}

// --- 4.5.3 paint pass ---

// FlushPaint performs C5's paint pass: every dirty render object that
// has a view association paints, anchored at that view, which is then
// marked as needing a sync. Render objects without a view association
// are skipped — they paint into nothing.
func (m *Manager) FlushPaint(ctx *PaintContext) {
	ids := make([]slotid.ID, 0, len(m.needsPaint))
	for id := range m.needsPaint {
		ids = append(ids, id)
	}
	m.needsPaint = make(map[slotid.ID]struct{})

	for _, renderID := range ids {
		obj, ok := m.tree.Get(renderID)
		if !ok {
			continue
		}
		assoc, hasView := m.viewAssoc[renderID]
		if !hasView {
			continue
		}
		obj.Paint(m, ctx)
		owner := m.viewOwnerID(renderID, assoc)
		if v, ok := m.views[owner]; ok {
			v.OnPaint(renderID, ctx.Canvas)
		}
		m.needsSync[owner] = struct{}{}
	}
}

// --- 4.5.4 view sync ---

// SyncViews calls OnSync exactly once on every view marked dirty since
// the last call, the point at which the external compositor is told a
// frame is ready.
func (m *Manager) SyncViews() {
	owners := m.needsSync
	m.needsSync = make(map[slotid.ID]struct{})
	for ownerID := range owners {
		if v, ok := m.views[ownerID]; ok {
			v.OnSync()
		}
	}
}

// NeedsSync reports whether the next [Manager.Sync] call has anything
// to create, update, or remove.
func (m *Manager) NeedsSync() bool {
	return len(m.createQueue) > 0 || len(m.updateSet) > 0 || len(m.forgottenSet) > 0
}

// NeedsLayoutOrPaint reports whether [Manager.FlushLayout] or
// [Manager.FlushPaint] has anything dirty to process.
func (m *Manager) NeedsLayoutOrPaint() bool {
	return len(m.needsLayout) > 0 || len(m.needsPaint) > 0
}

// NeedsWork reports whether any pending queue or dirty set has work
// for the next Sync/FlushLayout/FlushPaint/SyncViews round.
func (m *Manager) NeedsWork() bool {
	return len(m.createQueue) > 0 || len(m.updateSet) > 0 || len(m.forgottenSet) > 0 ||
		len(m.needsLayout) > 0 || len(m.needsPaint) > 0 || len(m.needsSync) > 0
}
