package widget

import "github.com/nodalui/drift/pkg/reactive"

// KeyedBase is embedded by concrete widget types to satisfy the Key()
// method every element.Widget requires, without repeating the
// boilerplate in every widget type.
type KeyedBase struct {
	key    Key
	hasKey bool
}

// WithKey returns a copy of b carrying key. Widget constructors
// typically expose this as an optional trailing parameter or builder
// method rather than a public field.
func (b KeyedBase) WithKey(key Key) KeyedBase {
	return KeyedBase{key: key, hasKey: true}
}

// Key implements the element.Widget / reactive.Definition contract.
func (b KeyedBase) Key() (reactive.Key, bool) {
	if !b.hasKey {
		return nil, false
	}
	return b.key, true
}
