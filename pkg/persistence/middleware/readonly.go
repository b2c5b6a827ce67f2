package middleware

import (
	"context"

	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/aretw0/oidtree/pkg/ports"
)

// ReadOnly rejects Save and Delete with domain.ErrReadOnly. Loads and lists
// reach the wrapped store, so a mirror still follows another writer.
func ReadOnly() Middleware {
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &readOnlyStore{passthrough{next}}
	}
}

type readOnlyStore struct {
	passthrough
}

func (s *readOnlyStore) Save(ctx context.Context, key string, snapshot *domain.Snapshot) error {
	return domain.ErrReadOnly
}

func (s *readOnlyStore) Load(ctx context.Context, key string) (*domain.Snapshot, error) {
	return s.next.Load(ctx, key)
}

func (s *readOnlyStore) Delete(ctx context.Context, key string) error {
	return domain.ErrReadOnly
}

func (s *readOnlyStore) List(ctx context.Context) ([]string, error) {
	return s.next.List(ctx)
}
