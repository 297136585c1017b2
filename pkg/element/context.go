package element

import (
	"reflect"

	"github.com/nodalui/drift/pkg/slotid"
)

// Context is handed to an element's lifecycle methods so it can reach
// back into the owning [Tree]: look up inherited ancestors, register a
// render object, or schedule itself for another build.
type Context struct {
	tree *Tree
	id   slotid.ID
}

// ID returns the context's element ID.
func (c *Context) ID() slotid.ID { return c.id }

// DependOnInherited walks up from c's element looking for the nearest
// live ancestor whose widget is an [InheritedWidget] of the exact
// concrete type pointed to by sample (a zero value of the desired
// widget type, only used for its reflect.Type). If found, c's element
// is registered as a dependent for aspect (nil means "depend on any
// change") and the ancestor's current widget is returned.
//
// Matching the nearest ancestor's scope, not a cached scope table,
// mirrors InheritedElement's own ancestor walk in the example this
// package is grounded on; see DESIGN.md.
func (c *Context) DependOnInherited(sample InheritedWidget, aspect any) (InheritedWidget, bool) {
	return c.tree.dependOnInherited(c.id, reflect.TypeOf(sample), aspect)
}

// MarkNeedsBuild schedules c's element for another build pass.
func (c *Context) MarkNeedsBuild() {
	c.tree.scheduleBuild(c.id)
}

// ElementTree exposes the owning [Tree] for render-layer plumbing (the
// engine facade wires render objects to elements this way).
func (c *Context) ElementTree() *Tree { return c.tree }
