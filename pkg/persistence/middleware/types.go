// Package middleware decorates a ports.SnapshotStore with cross-cutting behavior.
package middleware

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/oidtree/pkg/ports"
)

// Middleware allows wrapping a SnapshotStore to add behavior.
type Middleware func(ports.SnapshotStore) ports.SnapshotStore

// Chain applies mws to store; the first middleware is the outermost.
func Chain(store ports.SnapshotStore, mws ...Middleware) ports.SnapshotStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}

// passthrough forwards the optional store capabilities to next, so wrapping a
// store does not hide its watcher or its Close.
type passthrough struct {
	next ports.SnapshotStore
}

// Watch implements ports.Watchable when next does.
func (p passthrough) Watch(ctx context.Context) (<-chan struct{}, error) {
	w, ok := p.next.(ports.Watchable)
	if !ok {
		return nil, fmt.Errorf("store %T does not support watching", p.next)
	}
	return w.Watch(ctx)
}

// Close closes next when it holds resources.
func (p passthrough) Close() error {
	if c, ok := p.next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Unwrap returns the decorated store.
func (p passthrough) Unwrap() ports.SnapshotStore {
	return p.next
}
