package engine

import (
	"sync"
	"time"

	"github.com/nodalui/drift/pkg/element"
	"github.com/nodalui/drift/pkg/errors"
	"github.com/nodalui/drift/pkg/render"
	"github.com/nodalui/drift/pkg/rendering"
	"github.com/nodalui/drift/pkg/schedule"
)

// Engine drives one update cycle at a time on the calling goroutine —
// the Local concurrency model (§5): element tree, render tree and
// executor all share one thread, and mutations are ordered by the
// sequence of [Engine.RunFrame] calls. [Dispatch] is the one method
// safe to call from another goroutine, for posting work (a timer
// firing, a completed I/O callback) back onto the engine's thread.
type Engine struct {
	tree  *element.Tree
	owner *schedule.Owner
	mgr   *render.Manager
	host  *treeHost

	frames  *FrameTraceBuffer
	runtime *RuntimeSampleBuffer

	dispatchMu sync.Mutex
	pending    []func()
	notify     chan struct{}
}

// NewEngine mounts root as the tree's root widget and records
// constraints as the root layout constraints, returning a ready-to-pump
// Engine. Nothing is laid out until the first [Engine.RunFrame].
func NewEngine(root element.Widget, constraints rendering.Constraints) (*Engine, error) {
	tree := element.New(nil)
	owner := schedule.NewOwner(tree)
	tree.SetScheduler(owner)

	host := newTreeHost(tree)
	mgr := render.NewManager(host)
	mgr.SetAmbientConstraints(constraints)

	tree.SetSyncHooks(element.SyncHooks{
		OnMounted:   mgr.QueueCreate,
		OnUpdated:   mgr.QueueUpdate,
		OnForgotten: mgr.QueueForgotten,
	})

	e := &Engine{
		tree:    tree,
		owner:   owner,
		mgr:     mgr,
		host:    host,
		frames:  NewFrameTraceBuffer(0, 0),
		runtime: NewRuntimeSampleBuffer(0),
		notify:  make(chan struct{}, 1),
	}

	if _, err := tree.SetRootWidget(root); err != nil {
		return nil, err
	}
	return e, nil
}

// Tree exposes the underlying element tree, for callers that need to
// spawn detached subtrees or inspect live state directly.
func (e *Engine) Tree() *element.Tree { return e.tree }

// Render exposes the underlying render manager.
func (e *Engine) Render() *render.Manager { return e.mgr }

// SetConstraints changes the root layout constraints (e.g. on a window
// resize), marking the render tree as needing a fresh layout pass.
func (e *Engine) SetConstraints(constraints rendering.Constraints) {
	e.mgr.SetAmbientConstraints(constraints)
	if root, ok := e.mgr.Root(); ok {
		e.mgr.MarkNeedsLayout(root)
	}
}

// Dispatch schedules fn to run at the start of the next update cycle.
// Safe to call from any goroutine.
func (e *Engine) Dispatch(fn func()) {
	if fn == nil {
		return
	}
	e.dispatchMu.Lock()
	e.pending = append(e.pending, fn)
	e.dispatchMu.Unlock()
	select {
	case e.notify <- struct{}{}:
	default:
	}
}

func (e *Engine) drainDispatch() []func() {
	e.dispatchMu.Lock()
	defer e.dispatchMu.Unlock()
	fns := e.pending
	e.pending = nil
	return fns
}

func (e *Engine) hasPendingDispatch() bool {
	e.dispatchMu.Lock()
	defer e.dispatchMu.Unlock()
	return len(e.pending) > 0
}

// NeedsWork reports whether the next [Engine.RunFrame] would have
// anything to do.
func (e *Engine) NeedsWork() bool {
	return e.hasPendingDispatch() || e.owner.NeedsWork() || e.mgr.NeedsWork()
}

// RunFrame executes exactly one update cycle (§4.7): drain dispatched
// callbacks, flush rebuilds, synchronize the render tree, then — only
// if layout or paint is actually dirty — lay out, paint, and sync
// views. A panic anywhere in the cycle is recovered, reported to
// package errors as a BoundaryError with Phase "frame", and returned as
// an error rather than crashing the caller.
func (e *Engine) RunFrame() (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			be := &errors.BoundaryError{
				Phase:      "frame",
				Recovered:  r,
				StackTrace: errors.CaptureStack(),
				Timestamp:  time.Now(),
			}
			errors.ReportBoundaryError(be)
			err = be
		}
	}()

	var timings FramePhaseTimings

	t := time.Now()
	for _, fn := range e.drainDispatch() {
		fn()
	}
	e.owner.FlushCallbacks()
	timings.DispatchMs = durationToMillis(time.Since(t))

	t = time.Now()
	if err := e.owner.FlushBuild(); err != nil {
		return err
	}
	timings.BuildMs = durationToMillis(time.Since(t))

	if e.mgr.NeedsSync() {
		t = time.Now()
		if err := e.mgr.Sync(); err != nil {
			return err
		}
		timings.SyncMs = durationToMillis(time.Since(t))
	}

	if e.mgr.NeedsLayoutOrPaint() {
		t = time.Now()
		if err := e.mgr.FlushLayout(); err != nil {
			return err
		}
		timings.LayoutMs = durationToMillis(time.Since(t))

		t = time.Now()
		e.mgr.FlushPaint(&render.PaintContext{})
		timings.PaintMs = durationToMillis(time.Since(t))

		e.mgr.SyncViews()
	}

	elapsed := time.Since(start)
	e.frames.Add(FrameSample{Timestamp: start.UnixMilli(), FrameMs: durationToMillis(elapsed), Phases: timings}, elapsed)
	e.runtime.Sample()
	return nil
}

// RunUntilStalled runs cycles back to back until none has any work
// left to do.
func (e *Engine) RunUntilStalled() error {
	for e.NeedsWork() {
		if err := e.RunFrame(); err != nil {
			return err
		}
	}
	return nil
}

// RunUntil runs cycles, blocking between them when there is no work,
// until done is closed. It is the Go counterpart of the original
// engine's run_until(future): done plays the role of the future being
// awaited.
func (e *Engine) RunUntil(done <-chan struct{}) error {
	for {
		select {
		case <-done:
			return nil
		default:
		}
		if e.NeedsWork() {
			if err := e.RunFrame(); err != nil {
				return err
			}
			continue
		}
		select {
		case <-done:
			return nil
		case <-e.notify:
		}
	}
}

// Frames returns a snapshot of recent per-cycle timings.
func (e *Engine) Frames() FrameTimeline { return e.frames.Snapshot() }

// RuntimeSamples returns a snapshot of recent Go runtime memory/GC stats.
func (e *Engine) RuntimeSamples() []RuntimeSample { return e.runtime.Snapshot() }
