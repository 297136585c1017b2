package render

import (
	"errors"
	"fmt"

	"github.com/nodalui/drift/pkg/slotid"
)

// ErrNoRenderObject is returned when an element ID queued for update or
// layout has no corresponding render object — either it never produced
// one, or it was already forgotten.
var ErrNoRenderObject = errors.New("render: element has no render object")

// NodeError wraps a render-tree failure with the render-object ID it
// happened at.
type NodeError struct {
	Err error
	ID  slotid.ID
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("render: %s: %v", e.ID, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

func nodeErr(err error, id slotid.ID) error {
	return &NodeError{Err: err, ID: id}
}
