package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/oidtree/internal/logging"
	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/aretw0/oidtree/pkg/ports"
	"github.com/aretw0/oidtree/pkg/seed"
	"github.com/aretw0/oidtree/pkg/tree"
)

// DefaultLockTTL bounds how long a crashed writer can hold the distributed lock.
const DefaultLockTTL = 30 * time.Second

// ErrNotOpen is returned by operations that need a snapshot before Open succeeded.
var ErrNotOpen = errors.New("session not open")

// Manager owns the published snapshot of one registry key together with the
// selection and search text of its user.
//
// Readers get the current *domain.Snapshot by pointer and may use it without
// locking: published trees are never mutated. Writers are serialised by a local
// mutex and, when configured, a distributed lock.
type Manager struct {
	store ports.SnapshotStore
	key   string
	ns    domain.Namespace
	seed  func(domain.Namespace) *domain.Node
	clock func() time.Time

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
	hooks   domain.LifecycleHooks

	writeMu sync.Mutex // serialises AddChild and Reload

	mu       sync.RWMutex // guards the fields below
	current  *domain.Snapshot
	selected string
	query    string
	subs     map[chan *domain.Snapshot]struct{}
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithKey changes the store key (default domain.DefaultRegistryKey).
func WithKey(key string) Option {
	return func(m *Manager) {
		m.key = key
	}
}

// WithNamespace sets the namespace used to validate new children and build the seed.
func WithNamespace(ns domain.Namespace) Option {
	return func(m *Manager) {
		m.ns = ns.WithDefaults()
	}
}

// WithSeed replaces the tree used when the store holds nothing yet.
func WithSeed(fn func(domain.Namespace) *domain.Node) Option {
	return func(m *Manager) {
		m.seed = fn
	}
}

// WithClock injects the time source stamped on new snapshots.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// NewManager creates a new Manager backed by store. Call Open before use.
func NewManager(store ports.SnapshotStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		key:     domain.DefaultRegistryKey,
		ns:      domain.DefaultNamespace(),
		seed:    seed.Default,
		clock:   time.Now,
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(), // Default to no-op
		subs:    make(map[chan *domain.Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open loads the persisted snapshot, falling back to the seed tree when the
// store has nothing under the key. The seed is not written until the first change.
func (m *Manager) Open(ctx context.Context) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	snap, err := m.store.Load(ctx, m.key)
	seeded := false
	switch {
	case errors.Is(err, domain.ErrSnapshotNotFound):
		snap = &domain.Snapshot{Version: 0, SavedAt: m.clock().UTC(), Root: m.seed(m.ns)}
		seeded = true
	case err != nil:
		return fmt.Errorf("failed to load registry %q: %w", m.key, err)
	case snap.Root == nil:
		return fmt.Errorf("registry %q holds an empty tree", m.key)
	}

	m.publish(ctx, snap, seeded)
	return nil
}

// Key returns the store key of this registry.
func (m *Manager) Key() string {
	return m.key
}

// Namespace returns the namespace new children are validated against.
func (m *Manager) Namespace() domain.Namespace {
	return m.ns
}

// Snapshot returns the current snapshot, or nil before Open.
func (m *Manager) Snapshot() *domain.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Tree returns the current root node, or nil before Open.
func (m *Manager) Tree() *domain.Node {
	if s := m.Snapshot(); s != nil {
		return s.Root
	}
	return nil
}

// Version returns the current snapshot version.
func (m *Manager) Version() uint64 {
	if s := m.Snapshot(); s != nil {
		return s.Version
	}
	return 0
}

// Select marks the node with id as selected.
func (m *Manager) Select(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || tree.FindByID(m.current.Root, id) == nil {
		return fmt.Errorf("%w: %q", domain.ErrNodeNotFound, id)
	}
	m.selected = id
	return nil
}

// Deselect clears the selection.
func (m *Manager) Deselect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = ""
}

// Selected returns the selected node in the current tree, or nil.
func (m *Manager) Selected() *domain.Node {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.selected == "" || m.current == nil {
		return nil
	}
	return tree.FindByID(m.current.Root, m.selected)
}

// SetQuery stores the search text.
func (m *Manager) SetQuery(q string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.query = q
}

// Query returns the search text.
func (m *Manager) Query() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.query
}

// Results runs the stored query against the current tree.
func (m *Manager) Results() []*domain.Node {
	m.mu.RLock()
	q, snap := m.query, m.current
	m.mu.RUnlock()

	if snap == nil {
		return []*domain.Node{}
	}
	return tree.Search(snap.Root, q)
}

// AddChild validates d, appends the resulting node under parentID and persists
// the new snapshot. The published snapshot only changes after the store
// accepted the write; on any error the previous tree stays in place.
func (m *Manager) AddChild(ctx context.Context, parentID string, d tree.Draft) (*domain.Node, error) {
	var added *domain.Node
	var next *domain.Snapshot

	err := m.WithLock(ctx, func(ctx context.Context) error {
		base := m.Snapshot()
		if base == nil {
			return ErrNotOpen
		}

		// Another replica may have written since our last reload.
		if m.locker != nil {
			if latest, err := m.store.Load(ctx, m.key); err == nil && latest.Root != nil && latest.Version > base.Version {
				m.reconcile(ctx, latest)
				base = latest
			}
		}

		parent := tree.FindByID(base.Root, parentID)
		if parent == nil {
			return fmt.Errorf("%w: %q", domain.ErrParentNotFound, parentID)
		}

		child, err := tree.BuildChild(m.ns, parent, d)
		if err != nil {
			return err
		}
		if tree.FindByID(base.Root, child.ID) != nil {
			return fmt.Errorf("%w: %q", domain.ErrDuplicateID, child.ID)
		}
		if tree.FindByIdentifier(base.Root, child.Identifier) != nil {
			return fmt.Errorf("%w: identifier %s is already assigned", domain.ErrDuplicateID, child.Identifier)
		}

		root, ok := tree.AppendChild(base.Root, parentID, child)
		if !ok {
			return fmt.Errorf("%w: %q", domain.ErrParentNotFound, parentID)
		}

		next = base.Next(root, m.clock())
		if err := m.store.Save(ctx, m.key, next); err != nil {
			return fmt.Errorf("failed to persist registry: %w", err)
		}

		m.swap(next)
		added = child
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("node added",
		"node_id", added.ID,
		"identifier", added.Identifier,
		"parent_id", parentID,
		"version", next.Version,
	)
	if m.hooks.OnNodeAdded != nil {
		m.hooks.OnNodeAdded(ctx, &domain.NodeEvent{
			EventBase:  domain.EventBase{Timestamp: next.SavedAt, Type: domain.EventNodeAdded, Version: next.Version},
			NodeID:     added.ID,
			Identifier: added.Identifier,
			ParentID:   parentID,
			Kind:       added.Kind,
		})
	}
	return added, nil
}

// Reload re-reads the store and publishes its value when it differs from the
// current version. It reports whether the tree changed. A store that has lost
// its value keeps the current tree, and a stored value without a root is an
// error that leaves the current tree in place.
func (m *Manager) Reload(ctx context.Context) (bool, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	snap, err := m.store.Load(ctx, m.key)
	if errors.Is(err, domain.ErrSnapshotNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to reload registry %q: %w", m.key, err)
	}
	if snap.Root == nil {
		return false, fmt.Errorf("registry %q holds an empty tree", m.key)
	}

	cur := m.Snapshot()
	if cur != nil && cur.Version == snap.Version && cur.SavedAt.Equal(snap.SavedAt) {
		return false, nil
	}
	m.reconcile(ctx, snap)
	return true, nil
}

// Watch reloads the registry whenever w signals a change, until ctx is done.
// It returns once the watch is established.
func (m *Manager) Watch(ctx context.Context, w ports.Watchable) error {
	ch, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch registry: %w", err)
	}

	go func() {
		for range ch {
			changed, err := m.Reload(ctx)
			if err != nil {
				m.logger.Warn("reload after change notification failed", "key", m.key, "err", err)
				continue
			}
			if changed {
				m.logger.Debug("registry reloaded", "key", m.key, "version", m.Version())
			}
		}
	}()
	return nil
}

// Subscribe returns a channel receiving every snapshot published after the call.
// Slow subscribers miss intermediate snapshots rather than blocking writers.
// Call the returned function to unsubscribe.
func (m *Manager) Subscribe() (<-chan *domain.Snapshot, func()) {
	ch := make(chan *domain.Snapshot, 1)

	m.mu.Lock()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, ch)
			m.mu.Unlock()
			close(ch)
		})
	}
}

// WithLock executes fn while holding the write lock of the registry.
func (m *Manager) WithLock(ctx context.Context, fn func(context.Context) error) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, m.key, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"key", m.key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// reconcile publishes snap as an external update and drops a selection that no
// longer resolves.
func (m *Manager) reconcile(ctx context.Context, snap *domain.Snapshot) {
	m.publish(ctx, snap, false)

	m.mu.Lock()
	cleared := ""
	if m.selected != "" && tree.FindByID(snap.Root, m.selected) == nil {
		cleared = m.selected
		m.selected = ""
	}
	m.mu.Unlock()

	if cleared == "" {
		return
	}
	m.logger.Info("selected node vanished, selection cleared", "node_id", cleared, "version", snap.Version)
	if m.hooks.OnSelectionCleared != nil {
		m.hooks.OnSelectionCleared(ctx, &domain.SelectionEvent{
			EventBase: domain.EventBase{Timestamp: m.clock().UTC(), Type: domain.EventSelectionCleared, Version: snap.Version},
			NodeID:    cleared,
		})
	}
}

// publish swaps in a snapshot read from the store or the seed.
func (m *Manager) publish(ctx context.Context, snap *domain.Snapshot, seeded bool) {
	m.swap(snap)

	nodes := tree.Count(snap.Root)
	m.logger.Info("registry loaded", "key", m.key, "version", snap.Version, "nodes", nodes, "seeded", seeded)
	if m.hooks.OnSnapshotLoaded != nil {
		m.hooks.OnSnapshotLoaded(ctx, &domain.SnapshotEvent{
			EventBase: domain.EventBase{Timestamp: m.clock().UTC(), Type: domain.EventSnapshotLoaded, Version: snap.Version},
			Seeded:    seeded,
			Nodes:     nodes,
		})
	}
}

func (m *Manager) swap(snap *domain.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = snap
	for ch := range m.subs {
		// Keep only the newest pending snapshot.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
