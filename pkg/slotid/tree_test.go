package slotid

import "testing"

func TestAddRootAndChildren(t *testing.T) {
	tr := New[string]()
	root := tr.Add(None, "root")
	if d, _ := tr.GetDepth(root); d != 0 {
		t.Fatalf("root depth = %d, want 0", d)
	}

	a := tr.Add(root, "a")
	b := tr.Add(root, "b")

	if d, _ := tr.GetDepth(a); d != 1 {
		t.Fatalf("a depth = %d, want 1", d)
	}
	children, _ := tr.GetChildren(root)
	if len(children) != 2 || children[0] != a || children[1] != b {
		t.Fatalf("children = %v, want [a b]", children)
	}
	if tr.Len() != 3 {
		t.Fatalf("len = %d, want 3", tr.Len())
	}
}

func TestAddSecondRootPanics(t *testing.T) {
	tr := New[int]()
	tr.Add(None, 1)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic adding a second root")
		}
	}()
	tr.Add(None, 2)
}

func TestAddMissingParentPanics(t *testing.T) {
	tr := New[int]()
	root := tr.Add(None, 1)
	tr.Remove(root)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic adding to a removed parent")
		}
	}()
	tr.Add(root, 2)
}

func TestRemoveOrphansChildren(t *testing.T) {
	tr := New[int]()
	root := tr.Add(None, 0)
	child := tr.Add(root, 1)
	grandchild := tr.Add(child, 2)

	if _, ok := tr.Remove(child); !ok {
		t.Fatal("remove failed")
	}
	if tr.Contains(child) {
		t.Fatal("child still present after remove")
	}
	// grandchild is orphaned, not cleaned up automatically.
	if !tr.Contains(grandchild) {
		t.Fatal("grandchild should still be present (orphaned) after Remove")
	}
	if _, ok := tr.GetParent(grandchild); ok {
		t.Fatal("grandchild parent should be dangling once its parent slot is reused/gone")
	}
}

func TestRemoveSubtreeCleansUpEverything(t *testing.T) {
	tr := New[int]()
	root := tr.Add(None, 0)
	child := tr.Add(root, 1)
	_ = tr.Add(child, 2)
	_ = tr.Add(child, 3)

	tr.RemoveSubtree(child)

	if tr.Contains(child) {
		t.Fatal("child should be gone")
	}
	if tr.Len() != 1 {
		t.Fatalf("len = %d, want 1 (root only)", tr.Len())
	}
	children, _ := tr.GetChildren(root)
	if len(children) != 0 {
		t.Fatalf("root children = %v, want empty", children)
	}
}

func TestWithRejectsReentrantBorrow(t *testing.T) {
	tr := New[int]()
	root := tr.Add(None, 42)

	ok := tr.With(root, func(inner *Tree[int], v *int) {
		if reentered := inner.With(root, func(*Tree[int], *int) {}); reentered {
			t.Fatal("re-entrant With on the same id should fail")
		}
		*v = 43
	})
	if !ok {
		t.Fatal("outer With should succeed")
	}

	got, _ := tr.Get(root)
	if got != 43 {
		t.Fatalf("value after With = %d, want 43", got)
	}
}

func TestTakeThenRemoveSubtree(t *testing.T) {
	tr := New[string]()
	root := tr.Add(None, "root")

	v, ok := tr.Take(root)
	if !ok || v != "root" {
		t.Fatalf("Take() = %q, %v", v, ok)
	}
	// Still structurally present until RemoveSubtree runs.
	if !tr.Contains(root) {
		t.Fatal("node should still exist after Take, before RemoveSubtree")
	}
	if _, ok := tr.Take(root); ok {
		t.Fatal("second Take should fail, payload already taken")
	}

	tr.RemoveSubtree(root)
	if tr.Contains(root) {
		t.Fatal("node should be gone after RemoveSubtree")
	}
}

func TestReparentRecomputesDepthBFS(t *testing.T) {
	tr := New[int]()
	root := tr.Add(None, 0)
	a := tr.Add(root, 1)
	b := tr.Add(root, 2)
	aChild := tr.Add(a, 3)

	tr.Reparent(b, a)

	if d, _ := tr.GetDepth(a); d != 2 {
		t.Fatalf("a depth after reparent = %d, want 2", d)
	}
	if d, _ := tr.GetDepth(aChild); d != 3 {
		t.Fatalf("aChild depth after reparent = %d, want 3", d)
	}
	children, _ := tr.GetChildren(b)
	if len(children) != 1 || children[0] != a {
		t.Fatalf("b children = %v, want [a]", children)
	}
}

func TestReparentIsNoOpForSameParent(t *testing.T) {
	tr := New[int]()
	root := tr.Add(None, 0)
	a := tr.Add(root, 1)
	tr.Reparent(root, a) // same parent: no-op
	children, _ := tr.GetChildren(root)
	if len(children) != 1 {
		t.Fatalf("children = %v, want [a]", children)
	}
}

func TestSwapSiblings(t *testing.T) {
	tr := New[int]()
	root := tr.Add(None, 0)
	a := tr.Add(root, 1)
	b := tr.Add(root, 2)
	c := tr.Add(root, 3)

	if err := tr.SwapSiblings(root, SwapIndex(0), SwapID(c)); err != nil {
		t.Fatal(err)
	}
	children, _ := tr.GetChildren(root)
	if children[0] != c || children[2] != a {
		t.Fatalf("children = %v, want [c b a]", children)
	}
	_ = b
}

func TestSwapSiblingsOutOfRange(t *testing.T) {
	tr := New[int]()
	root := tr.Add(None, 0)
	tr.Add(root, 1)

	if err := tr.SwapSiblings(root, SwapIndex(5), SwapIndex(0)); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestGenerationPreventsAliasing(t *testing.T) {
	tr := New[int]()
	root := tr.Add(None, 0)
	a := tr.Add(root, 1)
	tr.Remove(a)
	b := tr.Add(root, 2) // likely reuses a's slot index

	if tr.Contains(a) {
		t.Fatal("stale id a should not be considered live")
	}
	if !tr.Contains(b) {
		t.Fatal("b should be live")
	}
}
