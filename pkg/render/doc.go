// Package render implements the rendering tree (C5): a second keyed
// tree (package slotid), shadowing the element tree one-to-one for
// every element that produces a render object, driving layout with a
// relayout-boundary optimization (C6), deferred (layout-dependent)
// element resolution, paint scheduling, and per-view compositing.
//
// Unlike package element, the render tree is not built on package
// reactive's generic list-diff reconciler: its structure changes are
// driven by explicit create/update/forgotten signals the element tree
// emits as it reconciles (see [element.Tree.SetSyncHooks]), not by
// diffing against a list of "definitions" every frame. This mirrors
// the original engine's render manager, which is likewise signal-driven
// rather than list-diffed — the two trees solve different problems and
// intentionally don't share an algorithm.
//
// Manager never imports package element directly; everything it needs
// from the element tree is asked for through the caller-supplied [Host]
// interface, so the two packages depend on each other in one direction
// only (element -> render, for the RenderObject return type of
// RenderObjectWidget/ViewWidget; never render -> element). The engine
// facade (package engine) is what implements Host, gluing the two
// trees together.
package render
