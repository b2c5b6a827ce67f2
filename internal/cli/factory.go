package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/oidtree"
	"github.com/aretw0/oidtree/internal/config"
	"github.com/aretw0/oidtree/pkg/adapters/file"
	"github.com/aretw0/oidtree/pkg/adapters/memory"
	redisadapter "github.com/aretw0/oidtree/pkg/adapters/redis"
	"github.com/aretw0/oidtree/pkg/adapters/sqlite"
	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/aretw0/oidtree/pkg/observability"
	"github.com/aretw0/oidtree/pkg/persistence/middleware"
	"github.com/aretw0/oidtree/pkg/ports"
	"github.com/aretw0/oidtree/pkg/seed"
	"github.com/aretw0/oidtree/pkg/suggest"
	backend "github.com/redis/go-redis/v9"
)

// Options are the per-invocation switches that do not live in the config file.
type Options struct {
	Debug   bool
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// OpenRegistry builds and opens a Registry following cfg: store driver,
// optional distributed lock, suggestion provider and seed override.
func OpenRegistry(ctx context.Context, cfg config.Config, opts Options) (*oidtree.Registry, error) {
	logger := opts.Logger
	if logger == nil {
		logger = NewLogger(cfg.Log, opts.Debug)
	}

	store, locker, err := newStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	var mws []middleware.Middleware
	if cfg.Store.ReadOnly {
		mws = append(mws, middleware.ReadOnly())
	}
	if opts.Metrics != nil {
		mws = append(mws, middleware.Observe(opts.Metrics.ObserveStore))
	}
	if opts.Debug {
		mws = append(mws, middleware.Observe(middleware.Logging(logger)))
	}
	store = middleware.Chain(store, mws...)

	suggester, err := newSuggester(cfg.Suggest, logger)
	if err != nil {
		closeStore(store)
		return nil, err
	}

	regOpts := []oidtree.Option{
		oidtree.WithStore(store),
		oidtree.WithNamespace(cfg.Namespace),
		oidtree.WithKey(cfg.Key),
		oidtree.WithSuggester(suggester),
		oidtree.WithLogger(logger),
	}
	if locker != nil {
		regOpts = append(regOpts, oidtree.WithLocker(locker), oidtree.WithLockTTL(cfg.Store.Redis.LockTTL))
	}
	if opts.Metrics != nil {
		regOpts = append(regOpts, oidtree.WithMetrics(opts.Metrics))
	}
	if opts.Debug {
		regOpts = append(regOpts, oidtree.WithLifecycleHooks(observability.LoggingHooks(logger)))
	}
	if cfg.SeedFile != "" {
		root, err := seed.LoadFile(cfg.SeedFile)
		if err != nil {
			closeStore(store)
			return nil, fmt.Errorf("loading seed file: %w", err)
		}
		regOpts = append(regOpts, oidtree.WithSeed(func(domain.Namespace) *domain.Node { return root }))
	}

	reg := oidtree.New(regOpts...)
	if err := reg.Open(ctx); err != nil {
		_ = reg.Close()
		return nil, err
	}
	if cfg.Store.Watch {
		if err := reg.Watch(ctx); err != nil {
			logger.Warn("store watch unavailable", "driver", cfg.Store.Driver, "err", err)
		}
	}
	logger.Debug("registry opened",
		"driver", cfg.Store.Driver,
		"key", cfg.Key,
		"version", reg.Snapshot().Version,
	)
	return reg, nil
}

func newStore(cfg config.StoreConfig) (ports.SnapshotStore, ports.DistributedLocker, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.NewStore(), nil, nil
	case config.DriverFile:
		return file.New(cfg.Path), nil, nil
	case config.DriverSQLite:
		path := cfg.Path
		if path == "" || path == config.Defaults().Store.Path {
			path = ".oidtree/registry.db"
		}
		s, err := sqlite.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return s, nil, nil
	case config.DriverRedis:
		redisOpts, err := backend.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid redis url: %w", err)
		}
		client := backend.NewClient(redisOpts)
		s := redisadapter.NewFromClient(client,
			redisadapter.WithPrefix(cfg.Redis.Prefix),
			redisadapter.WithTTL(cfg.Redis.TTL),
		)
		var locker ports.DistributedLocker
		if cfg.Redis.Lock {
			locker = redisadapter.NewLocker(client, cfg.Redis.Prefix)
		}
		return s, locker, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

func newSuggester(cfg config.SuggestConfig, logger *slog.Logger) (ports.Suggester, error) {
	var s ports.Suggester
	switch cfg.Provider {
	case config.ProviderStatic, "":
		s = suggest.NewStatic()
	case config.ProviderOpenAI:
		s = suggest.NewClient(
			suggest.WithBaseURL(cfg.BaseURL),
			suggest.WithModel(cfg.Model),
			suggest.WithAPIKey(cfg.APIKey),
			suggest.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
			suggest.WithLogger(logger),
		)
	default:
		return nil, fmt.Errorf("unknown suggestion provider %q", cfg.Provider)
	}
	if cfg.CacheTTL > 0 {
		s = suggest.NewCached(s, cfg.CacheTTL)
	}
	return s, nil
}

func closeStore(store ports.SnapshotStore) {
	if c, ok := store.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}
