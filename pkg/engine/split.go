package engine

import (
	"sync"

	"github.com/nodalui/drift/pkg/element"
	"github.com/nodalui/drift/pkg/errors"
	"github.com/nodalui/drift/pkg/render"
	"github.com/nodalui/drift/pkg/rendering"
	"github.com/nodalui/drift/pkg/schedule"
	"github.com/nodalui/drift/pkg/slotid"
)

// deferredRequest is how the render-tree goroutine asks the
// element-tree goroutine to resolve a deferred element's child during
// layout (§5: "deferred resolution in the split mode is initiated by
// the rendering-tree thread and serviced by the element-tree thread").
type deferredRequest struct {
	id          slotid.ID
	constraints rendering.Constraints
	reply       chan deferredReply
}

type deferredReply struct {
	changed bool
	err     error
}

// splitHost is [treeHost] with ResolveDeferred rerouted across the
// element/render goroutine boundary instead of calling the element
// tree directly — every other method is still safe to call inline,
// because the render goroutine only ever runs while the element-tree
// goroutine is blocked awaiting it (see [SplitEngine.RunFrame]), so the
// tree itself is never touched from two goroutines at once.
type splitHost struct {
	*treeHost
	req chan deferredRequest
}

func (h *splitHost) ResolveDeferred(id slotid.ID, constraints rendering.Constraints) (bool, error) {
	reply := make(chan deferredReply, 1)
	h.req <- deferredRequest{id: id, constraints: constraints, reply: reply}
	r := <-reply
	return r.changed, r.err
}

// SplitEngine runs the element tree and the render tree on separate
// goroutines (the Split concurrency model, §5). [SplitEngine.RunFrame]
// must be called from a single, consistent goroutine — the
// element-tree thread; the render-tree goroutine is managed internally
// and never exposed.
type SplitEngine struct {
	tree  *element.Tree
	owner *schedule.Owner
	mgr   *render.Manager
	host  *splitHost

	syncReq  chan struct{}
	syncDone chan error

	dispatchMu sync.Mutex
	pending    []func()

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewSplitEngine mounts root and starts the render-tree goroutine.
func NewSplitEngine(root element.Widget, constraints rendering.Constraints) (*SplitEngine, error) {
	tree := element.New(nil)
	owner := schedule.NewOwner(tree)
	tree.SetScheduler(owner)

	req := make(chan deferredRequest)
	host := &splitHost{treeHost: newTreeHost(tree), req: req}
	mgr := render.NewManager(host)
	mgr.SetAmbientConstraints(constraints)

	tree.SetSyncHooks(element.SyncHooks{
		OnMounted:   mgr.QueueCreate,
		OnUpdated:   mgr.QueueUpdate,
		OnForgotten: mgr.QueueForgotten,
	})

	e := &SplitEngine{
		tree:     tree,
		owner:    owner,
		mgr:      mgr,
		host:     host,
		syncReq:  make(chan struct{}, 1),
		syncDone: make(chan error, 1),
		stop:     make(chan struct{}),
	}

	if _, err := tree.SetRootWidget(root); err != nil {
		return nil, err
	}

	e.wg.Add(1)
	go e.renderLoop()
	return e, nil
}

func (e *SplitEngine) renderLoop() {
	defer e.wg.Done()
	for {
		select {
		case <-e.stop:
			return
		case <-e.syncReq:
			e.syncDone <- e.runRenderPass()
		}
	}
}

func (e *SplitEngine) runRenderPass() (err error) {
	defer func() {
		if r := recover(); r != nil {
			be := &errors.BoundaryError{Phase: "frame", Recovered: r, StackTrace: errors.CaptureStack()}
			errors.ReportBoundaryError(be)
			err = be
		}
	}()
	if e.mgr.NeedsSync() {
		if err := e.mgr.Sync(); err != nil {
			return err
		}
	}
	if e.mgr.NeedsLayoutOrPaint() {
		if err := e.mgr.FlushLayout(); err != nil {
			return err
		}
		e.mgr.FlushPaint(&render.PaintContext{})
		e.mgr.SyncViews()
	}
	return nil
}

// Dispatch schedules fn to run at the start of the next update cycle
// on the element-tree thread. Safe to call from any goroutine.
func (e *SplitEngine) Dispatch(fn func()) {
	if fn == nil {
		return
	}
	e.dispatchMu.Lock()
	e.pending = append(e.pending, fn)
	e.dispatchMu.Unlock()
}

func (e *SplitEngine) drainDispatch() []func() {
	e.dispatchMu.Lock()
	defer e.dispatchMu.Unlock()
	fns := e.pending
	e.pending = nil
	return fns
}

// RunFrame drains dispatched callbacks, flushes rebuilds on the calling
// goroutine, then — if the render tree has anything queued or dirty —
// hands a sync request to the render-tree goroutine and blocks,
// servicing any deferred-resolution requests it sends back in the
// meantime, until the render-tree goroutine reports the pass done.
func (e *SplitEngine) RunFrame() (err error) {
	defer func() {
		if r := recover(); r != nil {
			be := &errors.BoundaryError{Phase: "frame", Recovered: r, StackTrace: errors.CaptureStack()}
			errors.ReportBoundaryError(be)
			err = be
		}
	}()

	for _, fn := range e.drainDispatch() {
		fn()
	}
	e.owner.FlushCallbacks()
	if err := e.owner.FlushBuild(); err != nil {
		return err
	}

	if !e.mgr.NeedsWork() {
		return nil
	}
	select {
	case e.syncReq <- struct{}{}:
	default:
	}
	return e.awaitSync()
}

func (e *SplitEngine) awaitSync() error {
	for {
		select {
		case err := <-e.syncDone:
			return err
		case req := <-e.host.req:
			changed, derr := e.tree.ResolveDeferred(req.id, req.constraints)
			req.reply <- deferredReply{changed: changed, err: derr}
		}
	}
}

// NeedsWork reports whether the next RunFrame would have anything to
// do: dispatched callbacks, pending rebuilds, or queued render-tree
// work. The render-tree goroutine is idle between frames, so reading the
// render manager's queues here does not race with it.
func (e *SplitEngine) NeedsWork() bool {
	e.dispatchMu.Lock()
	hasDispatch := len(e.pending) > 0
	e.dispatchMu.Unlock()
	return hasDispatch || e.owner.NeedsWork() || e.mgr.NeedsWork()
}

// Stop terminates the render-tree goroutine. The engine must not be
// used again afterward.
func (e *SplitEngine) Stop() {
	close(e.stop)
	e.wg.Wait()
}
