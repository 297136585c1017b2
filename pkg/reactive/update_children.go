package reactive

import "github.com/nodalui/drift/pkg/slotid"

// UpdateChildrenResult reports the outcome of reconciling a parent's
// child list against a new list of definitions.
type UpdateChildrenResult struct {
	// ChildIDs is the new child list, in final order, one entry per
	// element of the newDefs slice passed to UpdateChildren.
	ChildIDs []slotid.ID
	// Touched holds every ID that was freshly mounted or updated with
	// Changed; these are the nodes that still need a build pass. IDs
	// whose definition compared Unchanged are omitted.
	Touched []slotid.ID
}

// UpdateChildren reconciles parentID's children against newDefs,
// reusing existing nodes wherever a definition can be matched to one
// (same key and, per the strategy, a compatible kind), mounting fresh
// nodes otherwise, and unmounting whatever is left over. It then
// reorders parentID's live children in storage to match newDefs' order
// using sibling swaps, so that storage iteration order always reflects
// the most recent definition order.
//
// The algorithm runs in four passes, mirroring the Rust original this
// engine's reconciliation was distilled from:
//
//  1. a top-down two-pointer scan reusing nodes while old and new line
//     up positionally from the front;
//  2. a bottom-up two-pointer scan doing the same from the back;
//  3. a middle pass that can only reuse *keyed* old children (looked up
//     by key, regardless of position) — non-keyed old children caught
//     in the middle are always unmounted, and non-keyed new definitions
//     in the middle are always freshly mounted;
//  4. a reorder pass that swaps live children into their final
//     positions.
func (t *Tree[V, D]) UpdateChildren(strategy Strategy[V, D], parentID slotid.ID, newDefs []D) (UpdateChildrenResult, error) {
	if t.broken {
		return UpdateChildrenResult{}, nodeErr(ErrBroken, parentID)
	}

	oldChildren, ok := t.storage.GetChildren(parentID)
	if !ok {
		return UpdateChildrenResult{}, nodeErr(ErrParentNotFound, parentID)
	}
	oldIDs := append([]slotid.ID(nil), oldChildren...)

	newLen := len(newDefs)
	oldLen := len(oldIDs)

	if newLen == 0 {
		for _, oldID := range oldIDs {
			t.destroySubtree(strategy, oldID)
		}
		return UpdateChildrenResult{}, nil
	}

	if oldLen == 0 {
		newIDs := make([]slotid.ID, newLen)
		touched := make([]slotid.ID, 0, newLen)
		for i, def := range newDefs {
			id, err := t.mount(strategy, parentID, def)
			if err != nil {
				t.markBroken()
				return UpdateChildrenResult{}, err
			}
			newIDs[i] = id
			touched = append(touched, id)
		}
		if err := t.reorder(parentID, newIDs); err != nil {
			t.markBroken()
			return UpdateChildrenResult{}, err
		}
		return UpdateChildrenResult{ChildIDs: newIDs, Touched: touched}, nil
	}

	newIDs := make([]slotid.ID, newLen)
	var touched []slotid.ID

	// Pass 1: top-down two-pointer scan.
	top := 0
	for top < oldLen && top < newLen {
		result, ok := t.tryUpdateChecked(strategy, oldIDs[top], newDefs[top])
		if !ok {
			t.markBroken()
			return UpdateChildrenResult{}, nodeErr(ErrInUse, oldIDs[top])
		}
		if result == Invalid {
			break
		}
		newIDs[top] = oldIDs[top]
		if result == Changed {
			touched = append(touched, oldIDs[top])
		}
		top++
	}

	// Pass 2: bottom-up two-pointer scan.
	oldBottom := oldLen - 1
	newBottom := newLen - 1
	for oldBottom >= top && newBottom >= top {
		oldID := oldIDs[oldBottom]
		result, ok := t.tryUpdateChecked(strategy, oldID, newDefs[newBottom])
		if !ok {
			t.markBroken()
			return UpdateChildrenResult{}, nodeErr(ErrInUse, oldID)
		}
		if result == Invalid {
			break
		}
		newIDs[newBottom] = oldID
		if result == Changed {
			touched = append(touched, oldID)
		}
		oldBottom--
		newBottom--
	}

	// Pass 3: middle, keyed-only reuse.
	oldKeyed := make(map[Key]slotid.ID, oldBottom-top+1)
	for i := top; i <= oldBottom; i++ {
		oldID := oldIDs[i]
		if key, ok := t.keyOf(oldID); ok {
			oldKeyed[key] = oldID
		} else {
			t.destroySubtree(strategy, oldID)
		}
	}

	for i := top; i <= newBottom; i++ {
		def := newDefs[i]
		key, hasKey := def.Key()

		var reused slotid.ID
		var haveReused bool
		if hasKey {
			if oldID, found := oldKeyed[key]; found {
				delete(oldKeyed, key)
				reused = oldID
				haveReused = true
			}
		}

		if haveReused {
			result, ok := t.tryUpdateChecked(strategy, reused, def)
			if !ok {
				t.markBroken()
				return UpdateChildrenResult{}, nodeErr(ErrInUse, reused)
			}
			if result == Invalid {
				t.destroySubtree(strategy, reused)
				id, err := t.mount(strategy, parentID, def)
				if err != nil {
					t.markBroken()
					return UpdateChildrenResult{}, err
				}
				newIDs[i] = id
				touched = append(touched, id)
				continue
			}
			newIDs[i] = reused
			if result == Changed {
				touched = append(touched, reused)
			}
			continue
		}

		id, err := t.mount(strategy, parentID, def)
		if err != nil {
			t.markBroken()
			return UpdateChildrenResult{}, err
		}
		newIDs[i] = id
		touched = append(touched, id)
	}

	// Any old keyed child left unclaimed lost its place entirely.
	for _, oldID := range oldKeyed {
		t.destroySubtree(strategy, oldID)
	}

	for i, id := range newIDs {
		if id.IsNone() {
			panic("reactive: update_children: position not filled during reconciliation")
		}
		_ = i
	}

	if err := t.reorder(parentID, newIDs); err != nil {
		t.markBroken()
		return UpdateChildrenResult{}, err
	}

	return UpdateChildrenResult{ChildIDs: newIDs, Touched: touched}, nil
}

// tryUpdateChecked compares def's key against oldID's registered key
// before delegating to the strategy: a key mismatch (including either
// side having a key the other lacks) is always Invalid without
// consulting the strategy at all.
func (t *Tree[V, D]) tryUpdateChecked(strategy Strategy[V, D], oldID slotid.ID, def D) (UpdateResult, bool) {
	oldKey, oldHasKey := t.keyOf(oldID)
	newKey, newHasKey := def.Key()
	if oldHasKey != newHasKey || (oldHasKey && oldKey != newKey) {
		return Invalid, true
	}

	var result UpdateResult
	ok := t.storage.With(oldID, func(_ *slotid.Tree[V], v *V) {
		result = strategy.TryUpdate(oldID, v, def)
	})
	return result, ok
}

// reorder swaps parentID's live children into the order given by
// target, one sibling swap per out-of-place position.
func (t *Tree[V, D]) reorder(parentID slotid.ID, target []slotid.ID) error {
	for idx, wantID := range target {
		current, ok := t.storage.GetChildren(parentID)
		if !ok {
			return nodeErr(ErrParentNotFound, parentID)
		}
		if current[idx] == wantID {
			continue
		}
		if err := t.storage.SwapSiblings(parentID, slotid.SwapIndex(idx), slotid.SwapID(wantID)); err != nil {
			return err
		}
	}
	return nil
}
