package reactive

import (
	"errors"
	"fmt"

	"github.com/nodalui/drift/pkg/slotid"
)

// Sentinel error kinds a caller can test for with errors.Is. These mirror
// the Rust original's per-operation enum error types (SpawnError<K>,
// UpdateChildrenError<K>, BuildError<K>, RemoveError<K>).
var (
	// ErrParentNotFound indicates an operation referenced a parent ID that
	// is not present in the tree.
	ErrParentNotFound = errors.New("reactive: parent not found")
	// ErrInUse indicates a node's payload is currently checked out via a
	// concurrent With/Take and cannot be borrowed again.
	ErrInUse = errors.New("reactive: node in use")
	// ErrBroken indicates the tree suffered an unrecoverable reconciliation
	// failure and must be discarded.
	ErrBroken = errors.New("reactive: tree is broken")
	// ErrNotFound indicates an operation referenced a node ID that is not
	// present in the tree.
	ErrNotFound = errors.New("reactive: node not found")
)

// NodeError wraps one of the sentinel errors above with the offending ID.
type NodeError struct {
	Err error
	ID  slotid.ID
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.ID)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

func nodeErr(err error, id slotid.ID) error {
	return &NodeError{Err: err, ID: id}
}

// RemoveError aggregates the per-node failures reported by RemoveAll.
type RemoveError struct {
	Failures []error
}

func (e *RemoveError) Error() string {
	return fmt.Sprintf("reactive: %d node(s) failed to unmount", len(e.Failures))
}

// BuildError wraps a failure encountered while building a specific node
// during BuildAndRealize.
type BuildError struct {
	NodeID slotid.ID
	Err    error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("reactive: build %s: %v", e.NodeID, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
