package ports

import (
	"context"

	"github.com/aretw0/oidtree/pkg/domain"
)

// SnapshotStore persists the registry as one opaque value per key.
// The default key is domain.DefaultRegistryKey.
type SnapshotStore interface {
	// Save replaces the value stored under key.
	Save(ctx context.Context, key string, snapshot *domain.Snapshot) error

	// Load retrieves the value stored under key.
	// Returns domain.ErrSnapshotNotFound if nothing is stored there.
	Load(ctx context.Context, key string) (*domain.Snapshot, error)

	// Delete removes the value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the keys that currently hold a value.
	List(ctx context.Context) ([]string, error)
}
