package oidtree

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/oidtree/internal/logging"
	"github.com/aretw0/oidtree/pkg/adapters/memory"
	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/aretw0/oidtree/pkg/observability"
	"github.com/aretw0/oidtree/pkg/ports"
	"github.com/aretw0/oidtree/pkg/session"
	"github.com/aretw0/oidtree/pkg/snippet"
	"github.com/aretw0/oidtree/pkg/suggest"
	"github.com/aretw0/oidtree/pkg/tree"
)

// Registry is the high-level entry point of the library. It wires a snapshot
// store, a session manager, the snippet generators and an optional suggestion
// provider around one namespace.
type Registry struct {
	session   *session.Manager
	store     ports.SnapshotStore
	suggester ports.Suggester
	metrics   *observability.Metrics
	ns        domain.Namespace
	clock     func() time.Time
	logger    *slog.Logger
	hooks     domain.LifecycleHooks

	sessionOpts []session.Option
}

// Option defines a functional option for configuring the Registry.
type Option func(*Registry)

// WithStore sets the snapshot store. The default is an in-memory store.
func WithStore(store ports.SnapshotStore) Option {
	return func(r *Registry) {
		r.store = store
	}
}

// WithNamespace sets the organization namespace. Empty fields keep their defaults.
func WithNamespace(ns domain.Namespace) Option {
	return func(r *Registry) {
		r.ns = ns.WithDefaults()
	}
}

// WithSuggester enables Suggest. Without it Suggest falls back to the offline provider.
func WithSuggester(s ports.Suggester) Option {
	return func(r *Registry) {
		r.suggester = s
	}
}

// WithMetrics feeds lifecycle events, snippet renders and suggestion calls into m.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Registry) {
		r.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithClock injects the time source used for snapshots and timestamped snippets.
func WithClock(clock func() time.Time) Option {
	return func(r *Registry) {
		r.clock = clock
	}
}

// WithLocker serialises writers across processes sharing the store.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(r *Registry) {
		r.sessionOpts = append(r.sessionOpts, session.WithLocker(locker))
	}
}

// WithLockTTL bounds how long a crashed writer can hold the distributed lock.
func WithLockTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		if ttl > 0 {
			r.sessionOpts = append(r.sessionOpts, session.WithLockTTL(ttl))
		}
	}
}

// WithKey sets the store key of the registry (default "oid-registry").
func WithKey(key string) Option {
	return func(r *Registry) {
		r.sessionOpts = append(r.sessionOpts, session.WithKey(key))
	}
}

// WithSeed replaces the tree used when the store is empty.
func WithSeed(fn func(domain.Namespace) *domain.Node) Option {
	return func(r *Registry) {
		r.sessionOpts = append(r.sessionOpts, session.WithSeed(fn))
	}
}

// New builds a Registry. Call Open before use.
func New(opts ...Option) *Registry {
	r := &Registry{
		ns:    domain.DefaultNamespace(),
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.store == nil {
		r.store = memory.NewStore()
	}
	if r.logger == nil {
		r.logger = logging.NewNop()
	}
	if r.suggester == nil {
		r.suggester = suggest.NewStatic()
	}

	hooks := r.hooks
	if r.metrics != nil {
		hooks = observability.Combine(hooks, r.metrics.Hooks())
		r.suggester = r.metrics.InstrumentSuggester(r.suggester, nil)
	}

	sessOpts := []session.Option{
		session.WithNamespace(r.ns),
		session.WithClock(r.clock),
		session.WithLogger(r.logger),
		session.WithLifecycleHooks(hooks),
	}
	sessOpts = append(sessOpts, r.sessionOpts...)
	r.session = session.NewManager(r.store, sessOpts...)
	return r
}

// Open loads the registry from the store, or the seed tree when it is empty.
func (r *Registry) Open(ctx context.Context) error {
	return r.session.Open(ctx)
}

// Close releases the store when it holds resources.
func (r *Registry) Close() error {
	if c, ok := r.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Session exposes the underlying session manager.
func (r *Registry) Session() *session.Manager {
	return r.session
}

// Store returns the snapshot store.
func (r *Registry) Store() ports.SnapshotStore {
	return r.store
}

// Namespace returns the configured namespace.
func (r *Registry) Namespace() domain.Namespace {
	return r.ns
}

// Snapshot returns the current snapshot.
func (r *Registry) Snapshot() *domain.Snapshot {
	return r.session.Snapshot()
}

// Tree returns the current root node.
func (r *Registry) Tree() *domain.Node {
	return r.session.Tree()
}

// Node looks a node up by id.
func (r *Registry) Node(id string) (*domain.Node, error) {
	n := tree.FindByID(r.session.Tree(), id)
	if n == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrNodeNotFound, id)
	}
	return n, nil
}

// NodeByIdentifier looks a node up by its dotted identifier.
func (r *Registry) NodeByIdentifier(identifier string) (*domain.Node, error) {
	n := tree.FindByIdentifier(r.session.Tree(), identifier)
	if n == nil {
		return nil, fmt.Errorf("%w: identifier %q", domain.ErrNodeNotFound, identifier)
	}
	return n, nil
}

// Search returns every node matching query in pre-order.
func (r *Registry) Search(query string) []*domain.Node {
	return tree.Search(r.session.Tree(), query)
}

// Path returns the nodes from the root down to id.
func (r *Registry) Path(id string) ([]*domain.Node, error) {
	p := tree.Path(r.session.Tree(), id)
	if len(p) == 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrNodeNotFound, id)
	}
	return p, nil
}

// NextIdentifier previews the identifier the next child of id would receive.
func (r *Registry) NextIdentifier(id string) (string, error) {
	n, err := r.Node(id)
	if err != nil {
		return "", err
	}
	return tree.NextChildIdentifier(n), nil
}

// AddChild validates d and appends it under parentID.
func (r *Registry) AddChild(ctx context.Context, parentID string, d tree.Draft) (*domain.Node, error) {
	return r.session.AddChild(ctx, parentID, d)
}

// ValidateIdentifier reports whether identifier is well formed and inside the namespace.
func (r *Registry) ValidateIdentifier(identifier string) bool {
	return tree.ValidateIdentifier(r.ns, identifier)
}

// InspectIdentifier describes identifier relative to the namespace.
func (r *Registry) InspectIdentifier(identifier string) domain.IdentifierInfo {
	return domain.InspectIdentifier(r.ns, identifier)
}

// SnippetContext returns the generator context at the current clock.
func (r *Registry) SnippetContext() snippet.Context {
	return snippet.Context{Namespace: r.ns, Now: r.clock()}
}

// Snippet renders one format for node id.
func (r *Registry) Snippet(id string, format snippet.Format) (snippet.Snippet, error) {
	n, err := r.Node(id)
	if err != nil {
		return snippet.Snippet{}, err
	}
	s, err := snippet.Render(format, n, r.SnippetContext())
	if err != nil {
		return snippet.Snippet{}, err
	}
	r.observeSnippet(s.Format)
	return s, nil
}

// Snippets renders every format for node id in catalogue order.
func (r *Registry) Snippets(id string) ([]snippet.Snippet, error) {
	n, err := r.Node(id)
	if err != nil {
		return nil, err
	}
	out, err := snippet.RenderAll(n, r.SnippetContext())
	if err != nil {
		return nil, err
	}
	for _, s := range out {
		r.observeSnippet(s.Format)
	}
	return out, nil
}

// Export returns the "download all" bundle of node id and its file name.
func (r *Registry) Export(id string) (filename, content string, err error) {
	n, err := r.Node(id)
	if err != nil {
		return "", "", err
	}
	content, err = snippet.Bundle(n, r.SnippetContext())
	if err != nil {
		return "", "", err
	}
	for _, f := range snippet.Formats() {
		r.observeSnippet(f)
	}
	return snippet.BundleFilename(n), content, nil
}

// Suggest asks the configured provider for children of parentID. The tree is
// never modified; callers add an accepted suggestion with AddChild.
func (r *Registry) Suggest(ctx context.Context, parentID, useCase string) ([]domain.Suggestion, error) {
	parent, err := r.Node(parentID)
	if err != nil {
		return nil, err
	}
	out, err := r.suggester.Suggest(ctx, domain.SuggestRequest{UseCase: useCase, Parent: parent})
	if err != nil {
		r.logger.Warn("suggestion failed", "parent_id", parentID, "transient", suggest.IsTransient(err), "err", err)
		return nil, err
	}
	return out, nil
}

// Watch reloads the registry whenever the store reports a change. Stores that
// cannot signal changes return an error.
func (r *Registry) Watch(ctx context.Context) error {
	w, ok := r.store.(ports.Watchable)
	if !ok {
		return fmt.Errorf("store %T does not support watching", r.store)
	}
	return r.session.Watch(ctx, w)
}

// Subscribe returns a channel receiving every snapshot published after the call.
func (r *Registry) Subscribe() (<-chan *domain.Snapshot, func()) {
	return r.session.Subscribe()
}

func (r *Registry) observeSnippet(f snippet.Format) {
	if r.metrics != nil {
		r.metrics.ObserveSnippet(string(f))
	}
}
