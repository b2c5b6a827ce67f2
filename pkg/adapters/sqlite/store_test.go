package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/oidtree/pkg/adapters/sqlite"
	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/aretw0/oidtree/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_Contract(t *testing.T) {
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ports.RunSnapshotStoreContract(t, store)
}

func TestSQLiteStore_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "registry.db")
	ctx := context.Background()

	store, err := sqlite.Open(path)
	require.NoError(t, err)
	root := &domain.Node{ID: "root", Identifier: "1.3.6.1.4.1.61026", Kind: domain.KindRoot, Status: domain.StatusActive}
	require.NoError(t, store.Save(ctx, domain.DefaultRegistryKey, &domain.Snapshot{Version: 4, Root: root}))
	require.NoError(t, store.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	snap, err := reopened.Load(ctx, domain.DefaultRegistryKey)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), snap.Version)
	assert.Equal(t, root, snap.Root)
}
