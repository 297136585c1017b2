// Package reactive implements the generic reconciliation core: a tree of
// values, each produced from a caller-supplied "definition" (such as a
// widget), kept in sync with a changing list of child definitions one
// diff at a time.
//
// This is the Go counterpart of the Rust original's generic
// `ReactiveTree<K, V, Storage>`. It is intentionally storage-agnostic:
// package element instantiates it over element values driven by widget
// definitions, supplying its own [Strategy]. Package render does not use
// it; the render tree is driven by sync signals from the element tree.
package reactive
