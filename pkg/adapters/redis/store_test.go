package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/oidtree/pkg/adapters/redis"
	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/aretw0/oidtree/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunSnapshotStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "short-lived", &domain.Snapshot{Version: 1, Root: &domain.Node{ID: "root"}}))

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, keys, "short-lived")

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, "short-lived")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.DefaultRegistryKey, &domain.Snapshot{Version: 1}))

	assert.True(t, mr.Exists("custom:app:registry:oid-registry"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")
}

func TestRedisStore_Watch(t *testing.T) {
	_, client := newClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher := redis.NewFromClient(client)
	ch, err := watcher.Watch(ctx)
	require.NoError(t, err)

	// A second replica sharing the server.
	writer := redis.NewFromClient(backend.NewClient(&backend.Options{Addr: client.Options().Addr}))
	defer writer.Close()
	require.NoError(t, writer.Save(context.Background(), domain.DefaultRegistryKey, &domain.Snapshot{Version: 2}))

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("expected change notification from another replica")
	}
}
