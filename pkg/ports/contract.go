package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contractTree is a small registry exercising every persisted field.
func contractTree() *domain.Node {
	return &domain.Node{
		ID:          "root",
		Identifier:  "1.3.6.1.4.1.61026",
		Name:        "Root",
		Description: "Contract root",
		Kind:        domain.KindRoot,
		Status:      domain.StatusActive,
		UseCases:    []string{"first", "second"},
		Children: []*domain.Node{
			{
				ID:          "branch",
				Identifier:  "1.3.6.1.4.1.61026.1",
				Name:        `Branch "quoted"`,
				Description: "multi\nline",
				Kind:        domain.KindBranch,
				Status:      domain.StatusExperimental,
				Children: []*domain.Node{
					{
						ID:          "leaf",
						Identifier:  "1.3.6.1.4.1.61026.1.1",
						Name:        "Leaf",
						Description: "Leaf node",
						Kind:        domain.KindLeaf,
						Status:      domain.StatusDeprecated,
					},
				},
			},
		},
	}
}

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	key := "contract-test-" + time.Now().Format("20060102150405.000000000")

	t.Run("Save and Load", func(t *testing.T) {
		snap := &domain.Snapshot{
			Version: 7,
			SavedAt: time.Date(2025, 5, 1, 10, 30, 0, 0, time.UTC),
			Root:    contractTree(),
		}

		require.NoError(t, store.Save(ctx, key, snap), "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap.Version, loaded.Version)
		assert.True(t, snap.SavedAt.Equal(loaded.SavedAt))
		assert.Equal(t, snap.Root, loaded.Root)
	})

	t.Run("Loaded value is isolated", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, &domain.Snapshot{Version: 1, Root: contractTree()}))

		first, err := store.Load(ctx, key)
		require.NoError(t, err)
		first.Root.Name = "mutated"
		first.Root.Children[0].Children = nil

		second, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "Root", second.Root.Name)
		assert.Len(t, second.Root.Children[0].Children, 1)
	})

	t.Run("Save overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, &domain.Snapshot{Version: 1, Root: contractTree()}))
		next := &domain.Snapshot{Version: 2, Root: &domain.Node{ID: "root", Kind: domain.KindRoot, Status: domain.StatusActive}}
		require.NoError(t, store.Save(ctx, key, next))

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), loaded.Version)
		assert.Empty(t, loaded.Root.Children)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, &domain.Snapshot{Version: 1, Root: contractTree()}))

		require.NoError(t, store.Delete(ctx, key), "Delete should not return error")

		_, err := store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "Load after Delete should return ErrSnapshotNotFound")

		assert.NoError(t, store.Delete(ctx, key), "Deleting a missing key should succeed")
	})

	t.Run("List", func(t *testing.T) {
		k1 := key + "-1"
		k2 := key + "-2"
		require.NoError(t, store.Save(ctx, k1, &domain.Snapshot{Version: 1, Root: contractTree()}))
		require.NoError(t, store.Save(ctx, k2, &domain.Snapshot{Version: 1, Root: contractTree()}))

		defer func() {
			_ = store.Delete(ctx, k1)
			_ = store.Delete(ctx, k2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, k1)
		assert.Contains(t, keys, k2)
		assert.NotContains(t, keys, key)
	})
}
