package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenpulse/internal/storage"
)

func TestSettingStore_Integration(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSettingStore(pool)
	ctx := context.Background()

	t.Run("GetInt_AbsentReturnsDefault", func(t *testing.T) {
		v, err := store.GetInt(ctx, "top_token_scope", 1000)
		require.NoError(t, err)
		assert.Equal(t, 1000, v)
	})

	t.Run("SetAndGetInt", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "top_token_scope", "500"))

		v, err := store.GetInt(ctx, "top_token_scope", 1000)
		require.NoError(t, err)
		assert.Equal(t, 500, v)
	})

	t.Run("SetReplacesValue", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "top_token_scope", "250"))

		raw, err := store.Get(ctx, "top_token_scope")
		require.NoError(t, err)
		assert.Equal(t, "250", raw)
	})

	t.Run("Get_NotFound", func(t *testing.T) {
		_, err := store.Get(ctx, "no_such_key")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("GetInt_NonInteger", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "report_locale", "en-US"))

		_, err := store.GetInt(ctx, "report_locale", 1000)
		assert.Error(t, err)
	})
}
