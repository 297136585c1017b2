package element

import (
	"fmt"
	"testing"

	"github.com/nodalui/drift/pkg/rendering"
	"github.com/nodalui/drift/pkg/slotid"
	"github.com/nodalui/drift/pkg/widget"
)

type recordingScheduler struct {
	scheduled []slotid.ID
}

func (s *recordingScheduler) ScheduleBuild(id slotid.ID) {
	s.scheduled = append(s.scheduled, id)
}

// leafWidget is a terminal StatelessWidget used across these tests.
type leafWidget struct {
	widget.KeyedBase
	label string
}

func (w *leafWidget) CreateElement() Element   { return NewStatelessElement(w) }
func (w *leafWidget) Build(ctx *Context) Widget { return nil }

func leafLabel(t *testing.T, tr *Tree, id slotid.ID) string {
	t.Helper()
	w, ok := tr.Widget(id)
	if !ok {
		t.Fatalf("no widget at %s", id)
	}
	lw, ok := w.(*leafWidget)
	if !ok {
		t.Fatalf("widget at %s is not a leafWidget: %T", id, w)
	}
	return lw.label
}

func TestStatelessRootBuildsChild(t *testing.T) {
	tr := New(nil)
	root, err := tr.SetRootWidget(&leafWidget{label: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if leafLabel(t, tr, root) != "hi" {
		t.Fatal("unexpected root label")
	}
}

// counterWidget/counterState exercise StatefulWidget: state persists
// across rebuilds and MarkNeedsBuild schedules the owning element.
type counterWidget struct {
	widget.KeyedBase
	start int
}

func (w *counterWidget) CreateElement() Element { return NewStatefulElement(w) }
func (w *counterWidget) CreateState() State     { return &counterState{count: w.start} }

type counterState struct {
	count int
	ctx   *Context
}

func (s *counterState) Build(ctx *Context) Widget {
	s.ctx = ctx
	return &leafWidget{label: fmt.Sprintf("%d", s.count)}
}
func (s *counterState) DidUpdateWidget(old, new StatefulWidget) {}
func (s *counterState) Dispose()                                {}

func TestStatefulStatePersistsAcrossRebuild(t *testing.T) {
	sched := &recordingScheduler{}
	tr := New(sched)

	root, err := tr.SetRootWidget(&counterWidget{start: 0})
	if err != nil {
		t.Fatal(err)
	}
	children, _ := tr.Storage().GetChildren(root)
	if leafLabel(t, tr, children[0]) != "0" {
		t.Fatal("expected initial label 0")
	}

	v, _ := tr.core.Get(root)
	cs := v.(*statefulElement).state.(*counterState)
	cs.count = 1
	cs.ctx.MarkNeedsBuild()

	if len(sched.scheduled) != 1 || sched.scheduled[0] != root {
		t.Fatalf("expected root scheduled for rebuild, got %v", sched.scheduled)
	}

	if err := tr.Rebuild(root); err != nil {
		t.Fatal(err)
	}
	children, _ = tr.Storage().GetChildren(root)
	if leafLabel(t, tr, children[0]) != "1" {
		t.Fatal("expected label 1 after rebuild")
	}
}

// themeWidget/consumerWidget exercise InheritedWidget dependency
// tracking and notify-on-change.
type themeWidget struct {
	widget.KeyedBase
	color string
	child Widget
}

func (w *themeWidget) CreateElement() Element                      { return NewInheritedElement(w) }
func (w *themeWidget) Child() Widget                                { return w.child }
func (w *themeWidget) UpdateShouldNotify(old InheritedWidget) bool { return old.(*themeWidget).color != w.color }

type consumerWidget struct {
	widget.KeyedBase
}

func (w *consumerWidget) CreateElement() Element { return NewStatelessElement(w) }
func (w *consumerWidget) Build(ctx *Context) Widget {
	theme, ok := ctx.DependOnInherited(&themeWidget{}, nil)
	if !ok {
		return &leafWidget{label: "none"}
	}
	return &leafWidget{label: theme.(*themeWidget).color}
}

// hostWidget is a StatefulWidget whose state's Build produces the
// themeWidget, so that changing the color and scheduling a rebuild goes
// through ordinary in-place reconciliation rather than SetRootWidget's
// forget-and-remount path.
type hostWidget struct {
	widget.KeyedBase
	color *string
}

func (w *hostWidget) CreateElement() Element { return NewStatefulElement(w) }
func (w *hostWidget) CreateState() State     { return &hostState{w: w} }

type hostState struct {
	w   *hostWidget
	ctx *Context
}

func (s *hostState) Build(ctx *Context) Widget {
	s.ctx = ctx
	return &themeWidget{color: *s.w.color, child: &consumerWidget{}}
}
func (s *hostState) DidUpdateWidget(old, new StatefulWidget) { s.w = new.(*hostWidget) }
func (s *hostState) Dispose()                                {}

func TestInheritedNotifiesDependentsOnChange(t *testing.T) {
	sched := &recordingScheduler{}
	tr := New(sched)

	color := "red"
	root, err := tr.SetRootWidget(&hostWidget{color: &color})
	if err != nil {
		t.Fatal(err)
	}
	hostChildren, _ := tr.Storage().GetChildren(root)
	themeChildren, _ := tr.Storage().GetChildren(hostChildren[0])
	consumerID := themeChildren[0]
	consumerChildren, _ := tr.Storage().GetChildren(consumerID)
	if leafLabel(t, tr, consumerChildren[0]) != "red" {
		t.Fatal("expected consumer to read the initial theme color")
	}

	color = "blue"
	v, _ := tr.core.Get(root)
	v.(*statefulElement).state.(*hostState).ctx.MarkNeedsBuild()
	sched.scheduled = nil

	if err := tr.Rebuild(root); err != nil {
		t.Fatal(err)
	}
	if len(sched.scheduled) != 1 || sched.scheduled[0] != consumerID {
		t.Fatalf("expected the consumer to be scheduled after the theme changed, got %v", sched.scheduled)
	}

	if err := tr.Rebuild(consumerID); err != nil {
		t.Fatal(err)
	}
	consumerChildren, _ = tr.Storage().GetChildren(consumerID)
	if leafLabel(t, tr, consumerChildren[0]) != "blue" {
		t.Fatal("expected consumer to pick up the new theme color")
	}
}

// deferredLeaf exercises DeferredWidget's layout-driven resolution: it
// counts how many times it was actually asked to build.
type deferredLeaf struct {
	widget.KeyedBase
	built int
}

func (w *deferredLeaf) CreateElement() Element { return NewDeferredElement(w) }
func (w *deferredLeaf) Build(ctx *Context, c rendering.Constraints) Widget {
	w.built++
	return &leafWidget{label: fmt.Sprintf("w=%v", c.MaxWidth)}
}

func TestDeferredResolveOnlyRebuildsWhenConstraintsOrDirtyChange(t *testing.T) {
	tr := New(nil)
	dl := &deferredLeaf{}
	root, err := tr.SetRootWidget(dl)
	if err != nil {
		t.Fatal(err)
	}

	c1 := rendering.Tight(rendering.Size{Width: 100, Height: 100})
	changed, err := tr.ResolveDeferred(root, c1)
	if err != nil {
		t.Fatal(err)
	}
	if !changed || dl.built != 1 {
		t.Fatalf("expected first resolve to build, built=%d", dl.built)
	}

	changed, err = tr.ResolveDeferred(root, c1)
	if err != nil {
		t.Fatal(err)
	}
	if changed || dl.built != 1 {
		t.Fatalf("expected same constraints to skip rebuilding, built=%d", dl.built)
	}

	c2 := rendering.Tight(rendering.Size{Width: 200, Height: 100})
	changed, err = tr.ResolveDeferred(root, c2)
	if err != nil {
		t.Fatal(err)
	}
	if !changed || dl.built != 2 {
		t.Fatalf("expected changed constraints to rebuild, built=%d", dl.built)
	}

	tr.MarkDeferredDirty(root)
	changed, err = tr.ResolveDeferred(root, c2)
	if err != nil {
		t.Fatal(err)
	}
	if !changed || dl.built != 3 {
		t.Fatalf("expected MarkDeferredDirty to force a rebuild, built=%d", dl.built)
	}
}
