package storage

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrGraphNotFound    = errors.New("graph not found")
	ErrGraphExists      = errors.New("graph already exists")
	ErrNodeNotFound     = errors.New("node not found")
	ErrEdgeNotFound     = errors.New("edge not found")
	ErrIdentityConflict = errors.New("identity conflict")
	ErrEmptyIdentity    = errors.New("empty node identity")
	ErrTxClosed         = errors.New("transaction has already been committed or rolled back")
)

// IdentityConflictError reports a duplicate identity within a graph.
// It surfaces when identity resolution was bypassed and the store
// independently rejects the duplicate.
func IdentityConflictError(graph, identity string) error {
	return fmt.Errorf("%w: %q in graph %q", ErrIdentityConflict, identity, graph)
}

// GraphNotFoundError wraps ErrGraphNotFound with the graph name.
func GraphNotFoundError(graph string) error {
	return fmt.Errorf("%w: %q", ErrGraphNotFound, graph)
}

// NodeNotFoundError wraps ErrNodeNotFound with the node's identity.
func NodeNotFoundError(graph, identity string) error {
	return fmt.Errorf("%w: %q in graph %q", ErrNodeNotFound, identity, graph)
}

// IsNotFound returns true if the error is any not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound) ||
		errors.Is(err, ErrEdgeNotFound) ||
		errors.Is(err, ErrGraphNotFound)
}
