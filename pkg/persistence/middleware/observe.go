package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/aretw0/oidtree/pkg/ports"
)

// Observer receives the outcome of every store call.
type Observer func(op string, d time.Duration, err error)

// Observe reports each operation to fn.
func Observe(fn Observer) Middleware {
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &observedStore{passthrough: passthrough{next}, observe: fn}
	}
}

// Logging is an Observer that logs failed calls at warn level and the rest at debug.
// A Load that finds nothing is not a failure.
func Logging(logger *slog.Logger) Observer {
	return func(op string, d time.Duration, err error) {
		if err != nil && !errors.Is(err, domain.ErrSnapshotNotFound) {
			logger.Warn("store call failed", "op", op, "duration", d, "err", err)
			return
		}
		logger.Debug("store call", "op", op, "duration", d)
	}
}

type observedStore struct {
	passthrough
	observe Observer
}

func (s *observedStore) Save(ctx context.Context, key string, snapshot *domain.Snapshot) error {
	start := time.Now()
	err := s.next.Save(ctx, key, snapshot)
	s.observe("save", time.Since(start), err)
	return err
}

func (s *observedStore) Load(ctx context.Context, key string) (*domain.Snapshot, error) {
	start := time.Now()
	snap, err := s.next.Load(ctx, key)
	s.observe("load", time.Since(start), err)
	return snap, err
}

func (s *observedStore) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.next.Delete(ctx, key)
	s.observe("delete", time.Since(start), err)
	return err
}

func (s *observedStore) List(ctx context.Context) ([]string, error) {
	start := time.Now()
	keys, err := s.next.List(ctx)
	s.observe("list", time.Since(start), err)
	return keys, err
}
