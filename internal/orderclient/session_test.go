package orderclient

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photoorder/server/internal/models"
)

func milanManor() *models.Property {
	return &models.Property{
		ID:     "milan-manor",
		Name:   "Milan Manor",
		Image:  "a.jpg",
		Images: []string{"a.jpg", "b.jpg", "c.jpg"},
	}
}

func setupSession(t *testing.T, store *fakeStore) (*Session, *Client) {
	client := newTestClient(t, store)
	require.NoError(t, client.RefreshNow(context.Background()))
	return NewSession(client, milanManor()), client
}

func TestSession_SelectProperty(t *testing.T) {
	t.Run("starts idle with merged catalog order", func(t *testing.T) {
		session, _ := setupSession(t, newFakeStore())

		assert.Equal(t, StatusIdle, session.Status())
		assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, models.Srcs(session.Items()))
	})

	t.Run("saved order wins over catalog sequence", func(t *testing.T) {
		store := newFakeStore()
		store.set("milan-manor", 2,
			models.ImageItem{Src: "c.jpg", Pos: 1},
			models.ImageItem{Src: "a.jpg", Pos: 2})
		session, _ := setupSession(t, store)

		// b.jpg is in the catalog but not the saved order, so it appends
		assert.Equal(t, []string{"c.jpg", "a.jpg", "b.jpg"}, models.Srcs(session.Items()))
	})

	t.Run("switching properties discards edits", func(t *testing.T) {
		session, _ := setupSession(t, newFakeStore())
		require.NoError(t, session.Move(2, 0))
		assert.Equal(t, StatusEditing, session.Status())

		session.SelectProperty(milanManor())
		assert.Equal(t, StatusIdle, session.Status())
		assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, models.Srcs(session.Items()))
	})
}

func TestSession_Editing(t *testing.T) {
	t.Run("move renumbers and marks editing", func(t *testing.T) {
		session, _ := setupSession(t, newFakeStore())

		require.NoError(t, session.Move(2, 0))
		items := session.Items()
		assert.Equal(t, []string{"c.jpg", "a.jpg", "b.jpg"}, models.Srcs(items))
		assert.Equal(t, 1.0, items[0].Pos)
		assert.Equal(t, StatusEditing, session.Status())
	})

	t.Run("set position re-sorts without renumbering others", func(t *testing.T) {
		session, _ := setupSession(t, newFakeStore())

		// Pull c.jpg between a.jpg and b.jpg
		require.NoError(t, session.SetPosition(2, 1.5))
		items := session.Items()
		assert.Equal(t, []string{"a.jpg", "c.jpg", "b.jpg"}, models.Srcs(items))
		assert.Equal(t, 1.5, items[1].Pos)
		assert.Equal(t, 2.0, items[2].Pos)
	})

	t.Run("toggle lock flips state", func(t *testing.T) {
		session, _ := setupSession(t, newFakeStore())

		require.NoError(t, session.ToggleLock(1))
		assert.True(t, session.Items()[1].Locked)
		require.NoError(t, session.ToggleLock(1))
		assert.False(t, session.Items()[1].Locked)
	})

	t.Run("locked item refuses to be dragged", func(t *testing.T) {
		session, _ := setupSession(t, newFakeStore())

		require.NoError(t, session.ToggleLock(0))
		err := session.Move(0, 2)
		assert.ErrorIs(t, err, models.ErrItemLocked)
	})

	t.Run("out of range indices are rejected", func(t *testing.T) {
		session, _ := setupSession(t, newFakeStore())

		assert.ErrorIs(t, session.SetPosition(9, 1), models.ErrIndexOutOfRange)
		assert.ErrorIs(t, session.ToggleLock(-1), models.ErrIndexOutOfRange)
	})
}

func TestSession_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("successful save reaches saved state", func(t *testing.T) {
		store := newFakeStore()
		store.set("milan-manor", 1,
			models.ImageItem{Src: "a.jpg", Pos: 1},
			models.ImageItem{Src: "b.jpg", Pos: 2},
			models.ImageItem{Src: "c.jpg", Pos: 3})
		session, _ := setupSession(t, store)

		require.NoError(t, session.Move(0, 2))
		require.NoError(t, session.Save(ctx))

		assert.Equal(t, StatusSaved, session.Status())
		assert.Equal(t, 2, store.versions["milan-manor"])
		assert.Equal(t, []string{"b.jpg", "c.jpg", "a.jpg"}, models.Srcs(store.orders["milan-manor"]))
	})

	t.Run("conflict keeps local edits and allows retry", func(t *testing.T) {
		store := newFakeStore()
		store.set("milan-manor", 1,
			models.ImageItem{Src: "a.jpg", Pos: 1},
			models.ImageItem{Src: "b.jpg", Pos: 2},
			models.ImageItem{Src: "c.jpg", Pos: 3})
		session, _ := setupSession(t, store)

		require.NoError(t, session.Move(2, 0))
		edited := models.Srcs(session.Items())

		// Another writer lands first
		store.set("milan-manor", 2, models.ImageItem{Src: "b.jpg", Pos: 1})

		err := session.Save(ctx)
		assert.ErrorIs(t, err, models.ErrVersionConflict)
		assert.Equal(t, StatusConflict, session.Status())
		assert.Equal(t, edited, models.Srcs(session.Items()))

		// Retry refreshes the version first and wins
		require.NoError(t, session.Save(ctx))
		assert.Equal(t, StatusSaved, session.Status())
		assert.Equal(t, edited, models.Srcs(store.orders["milan-manor"]))
		assert.Equal(t, 3, store.versions["milan-manor"])
	})

	t.Run("reload discards edits after conflict", func(t *testing.T) {
		store := newFakeStore()
		store.set("milan-manor", 1, models.ImageItem{Src: "a.jpg", Pos: 1})
		session, _ := setupSession(t, store)

		require.NoError(t, session.Move(1, 0))
		store.set("milan-manor", 2,
			models.ImageItem{Src: "c.jpg", Pos: 1},
			models.ImageItem{Src: "a.jpg", Pos: 2})

		require.ErrorIs(t, session.Save(ctx), models.ErrVersionConflict)
		require.NoError(t, session.Reload(ctx))

		assert.Equal(t, StatusIdle, session.Status())
		assert.Equal(t, []string{"c.jpg", "a.jpg", "b.jpg"}, models.Srcs(session.Items()))
	})
}

func TestSession_Remove(t *testing.T) {
	ctx := context.Background()

	t.Run("removes, trashes, renumbers and saves", func(t *testing.T) {
		store := newFakeStore()
		store.set("milan-manor", 1,
			models.ImageItem{Src: "a.jpg", Pos: 1},
			models.ImageItem{Src: "b.jpg", Pos: 2},
			models.ImageItem{Src: "c.jpg", Pos: 3})
		session, _ := setupSession(t, store)

		require.NoError(t, session.Remove(ctx, 1))

		items := session.Items()
		assert.Equal(t, []string{"a.jpg", "c.jpg"}, models.Srcs(items))
		assert.Equal(t, 2.0, items[1].Pos)
		assert.Equal(t, StatusSaved, session.Status())

		require.Len(t, store.deletes, 1)
		assert.Equal(t, "milan-manor", store.deletes[0].Property)
		assert.Equal(t, "b.jpg", store.deletes[0].Src)
	})
}

func TestSession_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("appends unlocked items with continuing positions and saves", func(t *testing.T) {
		store := newFakeStore()
		store.set("milan-manor", 1,
			models.ImageItem{Src: "a.jpg", Pos: 1},
			models.ImageItem{Src: "b.jpg", Pos: 2},
			models.ImageItem{Src: "c.jpg", Pos: 3})
		session, _ := setupSession(t, store)

		files := []UploadFile{
			{Name: "deck.jpg", Reader: strings.NewReader("jpeg bytes")},
			{Name: "view.jpg", Reader: strings.NewReader("jpeg bytes")},
		}
		require.NoError(t, session.Upload(ctx, files))

		items := session.Items()
		require.Len(t, items, 5)
		assert.Equal(t, "/media/milan-manor/deck.jpg", items[3].Src)
		assert.Equal(t, 4.0, items[3].Pos)
		assert.Equal(t, "/media/milan-manor/view.jpg", items[4].Src)
		assert.Equal(t, 5.0, items[4].Pos)
		assert.False(t, items[3].Locked)
		assert.Equal(t, StatusSaved, session.Status())
	})
}
