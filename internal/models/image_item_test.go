package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyKey(t *testing.T) {
	t.Run("lowercases and hyphenates", func(t *testing.T) {
		assert.Equal(t, "milan-manor", PropertyKey("Milan Manor"))
	})

	t.Run("collapses whitespace runs", func(t *testing.T) {
		assert.Equal(t, "lakeside-retreat", PropertyKey("  Lakeside \t  Retreat  "))
	})

	t.Run("idempotent on normalized keys", func(t *testing.T) {
		key := PropertyKey("Cedar Hollow")
		assert.Equal(t, key, PropertyKey(key))
	})

	t.Run("empty input stays empty", func(t *testing.T) {
		assert.Equal(t, "", PropertyKey("   "))
	})
}

func TestNewImageItem(t *testing.T) {
	t.Run("creates unlocked item", func(t *testing.T) {
		item, err := NewImageItem("/media/milan-manor/pool.jpg", 3)
		require.NoError(t, err)
		assert.Equal(t, "/media/milan-manor/pool.jpg", item.Src)
		assert.Equal(t, 3.0, item.Pos)
		assert.False(t, item.Locked)
	})

	t.Run("rejects blank src", func(t *testing.T) {
		_, err := NewImageItem("   ", 1)
		assert.ErrorIs(t, err, ErrEmptySrc)
	})
}

func TestValidateOrder(t *testing.T) {
	t.Run("accepts valid order", func(t *testing.T) {
		items := []ImageItem{
			{Src: "a.jpg", Pos: 1},
			{Src: "b.jpg", Pos: 2},
		}
		assert.NoError(t, ValidateOrder(items))
	})

	t.Run("accepts empty order", func(t *testing.T) {
		assert.NoError(t, ValidateOrder(nil))
	})

	t.Run("rejects duplicate src", func(t *testing.T) {
		items := []ImageItem{
			{Src: "a.jpg", Pos: 1},
			{Src: "a.jpg", Pos: 2},
		}
		assert.ErrorIs(t, ValidateOrder(items), ErrDuplicateSrc)
	})

	t.Run("rejects blank src", func(t *testing.T) {
		items := []ImageItem{{Src: " ", Pos: 1}}
		assert.ErrorIs(t, ValidateOrder(items), ErrEmptySrc)
	})
}

func TestSrcs(t *testing.T) {
	items := []ImageItem{
		{Src: "b.jpg", Pos: 1},
		{Src: "a.jpg", Pos: 2},
	}
	assert.Equal(t, []string{"b.jpg", "a.jpg"}, Srcs(items))
	assert.Empty(t, Srcs(nil))
}
