package node

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is.
var (
	ErrResourceLifetime = errors.New("resource lifetime violation")
	ErrState            = errors.New("invalid node state")
	ErrFrameQuery       = errors.New("invalid frame query")
)

// ResourceLifetimeError reports unbalanced lease calls or access to a list
// while the node holds no lease.
type ResourceLifetimeError struct {
	Node    string
	Message string
}

func (e *ResourceLifetimeError) Error() string {
	return fmt.Sprintf("node %q: %s", e.Node, e.Message)
}

func (e *ResourceLifetimeError) Unwrap() error { return ErrResourceLifetime }

// StateError reports an operation that the node's current state forbids,
// such as selecting a node that belongs to no model.
type StateError struct {
	Node    string
	Message string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("node %q: %s", e.Node, e.Message)
}

func (e *StateError) Unwrap() error { return ErrState }

// FrameQueryError reports a frame query against a node that is not an
// ancestor, or between nodes of different trees.
type FrameQueryError struct {
	Node  string
	Other string
}

func (e *FrameQueryError) Error() string {
	return fmt.Sprintf("node %q: %q is not an ancestor", e.Node, e.Other)
}

func (e *FrameQueryError) Unwrap() error { return ErrFrameQuery }

// RevalidationError wraps a failed revalidation. The tier stays invalid.
type RevalidationError struct {
	Node string
	Tier Tier
	Err  error
}

func (e *RevalidationError) Error() string {
	return fmt.Sprintf("revalidating %s list of %q: %v", e.Tier, e.Node, e.Err)
}

func (e *RevalidationError) Unwrap() error { return e.Err }
