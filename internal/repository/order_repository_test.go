package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photoorder/server/internal/models"
)

func setupTestDB(t *testing.T) *OrderRepository {
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewOrderRepository(db)
}

func testImages(srcs ...string) []models.ImageItem {
	out := make([]models.ImageItem, len(srcs))
	for i, src := range srcs {
		out[i] = models.ImageItem{Src: src, Pos: float64(i + 1)}
	}
	return out
}

func TestOrderRepository_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("first save from version 0 creates version 1", func(t *testing.T) {
		repo := setupTestDB(t)

		version, err := repo.Save(ctx, "milan-manor", testImages("a.jpg", "b.jpg"), 0)
		require.NoError(t, err)
		assert.Equal(t, 1, version)

		order, err := repo.Get(ctx, "milan-manor")
		require.NoError(t, err)
		assert.Equal(t, 1, order.Version)
		assert.Equal(t, []string{"a.jpg", "b.jpg"}, models.Srcs(order.Images))
	})

	t.Run("each accepted write bumps version by one", func(t *testing.T) {
		repo := setupTestDB(t)

		v1, err := repo.Save(ctx, "milan-manor", testImages("a.jpg"), 0)
		require.NoError(t, err)
		v2, err := repo.Save(ctx, "milan-manor", testImages("b.jpg"), v1)
		require.NoError(t, err)
		v3, err := repo.Save(ctx, "milan-manor", testImages("c.jpg"), v2)
		require.NoError(t, err)

		assert.Equal(t, []int{1, 2, 3}, []int{v1, v2, v3})
	})

	t.Run("stale version is rejected and store untouched", func(t *testing.T) {
		repo := setupTestDB(t)

		_, err := repo.Save(ctx, "milan-manor", testImages("a.jpg"), 0)
		require.NoError(t, err)
		_, err = repo.Save(ctx, "milan-manor", testImages("b.jpg"), 1)
		require.NoError(t, err)

		// A writer still holding version 1 loses
		_, err = repo.Save(ctx, "milan-manor", testImages("stale.jpg"), 1)
		assert.ErrorIs(t, err, models.ErrVersionConflict)

		order, err := repo.Get(ctx, "milan-manor")
		require.NoError(t, err)
		assert.Equal(t, 2, order.Version)
		assert.Equal(t, []string{"b.jpg"}, models.Srcs(order.Images))
	})

	t.Run("two writers from the same version produce one winner", func(t *testing.T) {
		repo := setupTestDB(t)

		_, err := repo.Save(ctx, "milan-manor", testImages("a.jpg"), 0)
		require.NoError(t, err)

		_, errA := repo.Save(ctx, "milan-manor", testImages("winner.jpg"), 1)
		_, errB := repo.Save(ctx, "milan-manor", testImages("loser.jpg"), 1)

		require.NoError(t, errA)
		assert.ErrorIs(t, errB, models.ErrVersionConflict)

		order, err := repo.Get(ctx, "milan-manor")
		require.NoError(t, err)
		assert.Equal(t, 2, order.Version)
		assert.Equal(t, []string{"winner.jpg"}, models.Srcs(order.Images))
	})

	t.Run("version 0 against an existing row conflicts", func(t *testing.T) {
		repo := setupTestDB(t)

		_, err := repo.Save(ctx, "milan-manor", testImages("a.jpg"), 0)
		require.NoError(t, err)

		_, err = repo.Save(ctx, "milan-manor", testImages("b.jpg"), 0)
		assert.ErrorIs(t, err, models.ErrVersionConflict)
	})

	t.Run("rejects empty property key", func(t *testing.T) {
		repo := setupTestDB(t)

		_, err := repo.Save(ctx, "", testImages("a.jpg"), 0)
		assert.ErrorIs(t, err, models.ErrEmptyProperty)
	})

	t.Run("rejects duplicate srcs", func(t *testing.T) {
		repo := setupTestDB(t)

		_, err := repo.Save(ctx, "milan-manor", testImages("a.jpg", "a.jpg"), 0)
		assert.ErrorIs(t, err, models.ErrDuplicateSrc)
	})

	t.Run("empty order is a valid save", func(t *testing.T) {
		repo := setupTestDB(t)

		version, err := repo.Save(ctx, "milan-manor", []models.ImageItem{}, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, version)

		order, err := repo.Get(ctx, "milan-manor")
		require.NoError(t, err)
		assert.Empty(t, order.Images)
	})

	t.Run("preserves pos and lock state round trip", func(t *testing.T) {
		repo := setupTestDB(t)

		in := []models.ImageItem{
			{Src: "a.jpg", Pos: 2.5},
			{Src: "b.jpg", Pos: 7, Locked: true},
		}
		_, err := repo.Save(ctx, "milan-manor", in, 0)
		require.NoError(t, err)

		order, err := repo.Get(ctx, "milan-manor")
		require.NoError(t, err)
		assert.Equal(t, in, order.Images)
	})
}

func TestOrderRepository_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown property returns not found", func(t *testing.T) {
		repo := setupTestDB(t)

		_, err := repo.Get(ctx, "never-saved")
		assert.ErrorIs(t, err, models.ErrOrderNotFound)
	})
}

func TestOrderRepository_GetAll(t *testing.T) {
	ctx := context.Background()

	t.Run("returns every saved property with versions", func(t *testing.T) {
		repo := setupTestDB(t)

		_, err := repo.Save(ctx, "milan-manor", testImages("a.jpg"), 0)
		require.NoError(t, err)
		v, err := repo.Save(ctx, "cedar-hollow", testImages("b.jpg"), 0)
		require.NoError(t, err)
		_, err = repo.Save(ctx, "cedar-hollow", testImages("c.jpg"), v)
		require.NoError(t, err)

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, 1, all["milan-manor"].Version)
		assert.Equal(t, 2, all["cedar-hollow"].Version)
		assert.Equal(t, []string{"c.jpg"}, models.Srcs(all["cedar-hollow"].Images))
	})

	t.Run("empty store yields empty map", func(t *testing.T) {
		repo := setupTestDB(t)

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func TestOrderRepository_Upsert(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts then overwrites with version bumps", func(t *testing.T) {
		repo := setupTestDB(t)

		require.NoError(t, repo.Upsert(ctx, "milan-manor", testImages("a.jpg")))
		require.NoError(t, repo.Upsert(ctx, "milan-manor", testImages("b.jpg")))

		order, err := repo.Get(ctx, "milan-manor")
		require.NoError(t, err)
		assert.Equal(t, 2, order.Version)
		assert.Equal(t, []string{"b.jpg"}, models.Srcs(order.Images))
	})
}
