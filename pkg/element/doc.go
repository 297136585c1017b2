// Package element implements the element tree (C3): the first of the
// engine's two reconciled trees. A [Tree] mirrors the application's
// [Widget] descriptions one-to-one as live [Element] values, kept in
// sync by package reactive's generic reconciliation core.
//
// Six widget contracts (Stateless, Stateful, Inherited, RenderObject,
// Deferred, View) cover every widget kind the rest of the engine needs;
// each has a corresponding unexported element kind in kinds.go and an
// exported constructor a widget's CreateElement method calls.
package element
