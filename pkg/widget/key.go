// Package widget defines [Key], the optional identity a widget
// description carries, and [KeyedBase], the embeddable helper concrete
// widget types use to satisfy package element's Widget contract.
package widget

import "fmt"

type keyKind int

const (
	keyLocal keyKind = iota
	keyGlobal
)

// Scope distinguishes keys created by different child-list builders so
// that two unrelated lists may reuse the same local key value without
// colliding. NewScope allocates a fresh one; callers building a child
// list call it once and pass the result to [Local] for every key in
// that list.
type Scope struct{ _ byte }

// NewScope allocates a new, distinct [Scope].
func NewScope() *Scope { return &Scope{} }

// Key is a widget's optional identity. Two keys are equal only if they
// have the same kind, the same scope (for Local keys; Global keys share
// one implicit nil scope) and an equal value. Value must be a
// comparable Go value — using a non-comparable value (a slice, map, or
// func) as a key panics the first time it is compared, which happens
// during reconciliation, not at construction.
type Key struct {
	kind  keyKind
	scope *Scope
	value any
}

// Local builds a key scoped to scope, unique only among sibling widgets
// built within that same scope.
func Local(scope *Scope, value any) Key {
	return Key{kind: keyLocal, scope: scope, value: value}
}

// Global builds a key unique across the entire element tree, regardless
// of where the widget appears.
func Global(value any) Key {
	return Key{kind: keyGlobal, value: value}
}

// Equal reports whether k and other identify the same widget.
func (k Key) Equal(other Key) bool {
	return k.kind == other.kind && k.scope == other.scope && k.value == other.value
}

func (k Key) String() string {
	switch k.kind {
	case keyGlobal:
		return fmt.Sprintf("Global(%v)", k.value)
	default:
		return fmt.Sprintf("Local(%p,%v)", k.scope, k.value)
	}
}
