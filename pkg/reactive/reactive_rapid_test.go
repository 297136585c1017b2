package reactive

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

// genChildList draws a random list of testDef children. Keys are unique
// within one list (siblings never share a key, invariant 4) but drawn
// from a small alphabet so collisions between the old and new lists (and
// therefore key reuse across generations) are likely, which is the
// scenario invariant 5 (key reuse preserves identity) and invariant 6
// (unkeyed determinism) care about. A drawn key already used earlier in
// the list yields an unkeyed child instead.
func genChildList(t *rapid.T, label string) []testDef {
	n := rapid.IntRange(0, 6).Draw(t, label+".len")
	out := make([]testDef, n)
	used := map[string]bool{}
	for i := range n {
		kind := rapid.SampledFrom([]string{"A", "B", "C"}).Draw(t, fmt.Sprintf("%s[%d].kind", label, i))
		if rapid.Bool().Draw(t, fmt.Sprintf("%s[%d].keyed", label, i)) {
			k := rapid.SampledFrom([]string{"k1", "k2", "k3", "k4"}).Draw(t, fmt.Sprintf("%s[%d].key", label, i))
			if !used[k] {
				used[k] = true
				out[i] = keyed(k, kind)
				continue
			}
		}
		out[i] = plain(kind)
	}
	return out
}

// TestKeyReusePreservesIdentityRapid checks invariant 5: whenever the same
// key appears in both the old and new child lists and the two definitions
// share a kind (so TryUpdate can't return Invalid), the reconciled child
// keeps its ElementId.
func TestKeyReusePreservesIdentityRapid(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tr := New[testValue, testDef]()
		s := &testStrategy{}
		root, err := tr.SetRoot(s, plain("root"))
		if err != nil {
			rt.Fatal(err)
		}

		oldDefs := genChildList(rt, "old")
		oldResult, err := tr.UpdateChildren(s, root, oldDefs)
		if err != nil {
			rt.Fatal(err)
		}
		oldByKey := map[string]struct {
			id   int
			kind string
		}{}
		for i, def := range oldDefs {
			if k, ok := def.Key(); ok {
				oldByKey[k.(string)] = struct {
					id   int
					kind string
				}{id: i, kind: def.label}
			}
		}

		newDefs := genChildList(rt, "new")
		newResult, err := tr.UpdateChildren(s, root, newDefs)
		if err != nil {
			rt.Fatal(err)
		}

		for i, def := range newDefs {
			k, ok := def.Key()
			if !ok {
				continue
			}
			prev, ok := oldByKey[k.(string)]
			if !ok || prev.kind != def.label {
				continue // key is new, or kind differs (TryUpdate would report Invalid)
			}
			if oldResult.ChildIDs[prev.id] != newResult.ChildIDs[i] {
				rt.Fatalf("key %v present in both lists with matching kind %q did not preserve identity: old id %s, new id %s",
					k, def.label, oldResult.ChildIDs[prev.id], newResult.ChildIDs[i])
			}
		}
	})
}

// TestUnkeyedDeterminismRapid checks invariant 6: feeding the same child
// list through UpdateChildren twice touches nothing and changes no
// identity on the second pass.
func TestUnkeyedDeterminismRapid(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tr := New[testValue, testDef]()
		s := &testStrategy{}
		root, err := tr.SetRoot(s, plain("root"))
		if err != nil {
			rt.Fatal(err)
		}

		defs := genChildList(rt, "defs")
		first, err := tr.UpdateChildren(s, root, defs)
		if err != nil {
			rt.Fatal(err)
		}

		s.changed = nil
		s.mounted = nil
		s.unmounted = nil
		second, err := tr.UpdateChildren(s, root, defs)
		if err != nil {
			rt.Fatal(err)
		}

		if len(second.Touched) != 0 {
			rt.Fatalf("identical child list re-applied produced touched nodes: %v", second.Touched)
		}
		if len(s.changed) != 0 || len(s.mounted) != 0 || len(s.unmounted) != 0 {
			rt.Fatalf("identical child list re-applied caused mutation: changed=%v mounted=%v unmounted=%v",
				s.changed, s.mounted, s.unmounted)
		}
		if len(first.ChildIDs) != len(second.ChildIDs) {
			rt.Fatalf("child count changed: %d vs %d", len(first.ChildIDs), len(second.ChildIDs))
		}
		for i := range first.ChildIDs {
			if first.ChildIDs[i] != second.ChildIDs[i] {
				rt.Fatalf("position %d changed identity: %s vs %s", i, first.ChildIDs[i], second.ChildIDs[i])
			}
		}
	})
}
