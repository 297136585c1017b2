// Package slotid is the generic keyed tree storage layer (see package
// reactive for the reconciliation algorithm built on top of it, and
// packages element/render for its two concrete instantiations).
//
// This is the Go counterpart of the generational slot-map tree
// (`Tree<K, V>` over a `HopSlotMap`) found in the Rust original this
// engine's design was distilled from. Go has no standard-library slotmap,
// so Add/Remove/Take implement a small hand-rolled generational arena with
// a free list rather than pulling in a third-party slotmap dependency —
// see DESIGN.md for why this one primitive stays on the standard library.
package slotid
