package ports

import (
	"context"
	"time"
)

// Watchable is implemented by stores that can notify about changes made by
// another process, e.g. a file edited by hand or a replica writing to Redis.
type Watchable interface {
	// Watch returns a channel that receives a value whenever a reload is required.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// UnlockFunc releases a lock obtained from a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serialises registry writers across replicas.
type DistributedLocker interface {
	// Lock blocks until the lock for key is held or ctx is done.
	// The lock expires after ttl if the holder never calls the returned UnlockFunc.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
