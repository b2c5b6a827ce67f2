package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/aretw0/oidtree/pkg/tree"
)

// Store implements ports.SnapshotStore in memory.
// Safe for concurrent use. It also implements ports.Watchable: every Save or
// Delete signals the active watchers.
type Store struct {
	data map[string]*domain.Snapshot
	mu   sync.RWMutex

	watchers []chan struct{}
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Snapshot),
	}
}

// copySnapshot deep copies the tree so callers never share nodes with the store.
func copySnapshot(s *domain.Snapshot) *domain.Snapshot {
	cp := *s
	cp.Root = tree.Clone(s.Root)
	return &cp
}

// Save persists the snapshot in memory.
func (s *Store) Save(ctx context.Context, key string, snapshot *domain.Snapshot) error {
	cp := copySnapshot(snapshot)

	s.mu.Lock()
	s.data[key] = cp
	s.mu.Unlock()

	s.notify()
	return nil
}

// Load retrieves the snapshot from memory.
func (s *Store) Load(ctx context.Context, key string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[key]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	return copySnapshot(snap), nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	_, existed := s.data[key]
	delete(s.data, key)
	s.mu.Unlock()

	if existed {
		s.notify()
	}
	return nil
}

// List returns the stored keys in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Watch returns a channel signaled after every change until ctx is done.
func (s *Store) Watch(ctx context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, w := range s.watchers {
			if w == ch {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

func (s *Store) notify() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.watchers {
		// Coalesce: one pending signal is enough to trigger a reload.
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
