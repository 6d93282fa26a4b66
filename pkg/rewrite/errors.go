package rewrite

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrEmptyMergeList         = errors.New("merge requires at least one node")
	ErrDuplicateMergeNode     = errors.New("duplicate node in merge list")
	ErrDuplicateCloneNode     = errors.New("duplicate node in clone batch")
	ErrOverlappingMergeGroups = errors.New("node appears in more than one merge group")
	ErrCloneLimitExceeded     = errors.New("clone multiplicity exceeds configured maximum")
	ErrBatchLimitExceeded     = errors.New("batch size exceeds configured maximum")
	ErrUnknownPatternNode     = errors.New("pattern edge references undeclared node")
	ErrDuplicatePatternNode   = errors.New("duplicate pattern node")
	ErrIncompleteInstance     = errors.New("instance does not bind every pattern node")
	ErrInstanceMismatch       = errors.New("instance does not match the current graph")
)

// OverlappingMergeGroupsError names the node shared by two groups.
func OverlappingMergeGroupsError(identity string) error {
	return fmt.Errorf("%w: %q", ErrOverlappingMergeGroups, identity)
}

// CloneLimitError reports a multiplicity above the configured cap.
func CloneLimitError(count, limit int) error {
	return fmt.Errorf("%w: %d > %d", ErrCloneLimitExceeded, count, limit)
}

// BatchLimitError reports a batch above the configured cap.
func BatchLimitError(size, limit int) error {
	return fmt.Errorf("%w: %d > %d", ErrBatchLimitExceeded, size, limit)
}

// InstanceMismatchError explains which part of an instance failed to
// restate structurally.
func InstanceMismatchError(detail string) error {
	return fmt.Errorf("%w: %s", ErrInstanceMismatch, detail)
}
