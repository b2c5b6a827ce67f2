package domain

import (
	"errors"
	"fmt"
)

// ErrNodeNotFound is returned when an id or identifier has no match in the tree.
var ErrNodeNotFound = errors.New("node not found")

// ErrSnapshotNotFound is returned by a SnapshotStore when the key holds no value.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrDuplicateID is returned when an added node would share its id with an existing node.
var ErrDuplicateID = errors.New("duplicate node id")

// ErrParentNotFound is returned when a child is added under an id that is not in the tree.
var ErrParentNotFound = fmt.Errorf("parent %w", ErrNodeNotFound)

// ErrReadOnly is returned by stores that refuse writes.
var ErrReadOnly = errors.New("registry is read-only")
