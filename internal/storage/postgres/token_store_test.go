package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenpulse/internal/domain"
	"tokenpulse/internal/storage"
)

func TestTokenStore_Integration(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenStore(pool)
	ctx := context.Background()

	t.Run("UpsertAndGet", func(t *testing.T) {
		chain := "Ethereum"
		launched := time.Date(2015, 7, 30, 0, 0, 0, 0, time.UTC).UnixMilli()

		err := store.Upsert(ctx, &domain.Token{
			ExternalID: 1027,
			Name:       "Ethereum",
			Symbol:     "ETH",
			Slug:       "ethereum",
			Chain:      &chain,
			LaunchedAt: &launched,
			Categories: []string{"Layer 1", "Smart Contracts"},
			IsTracked:  true,
		})
		require.NoError(t, err)

		got, err := store.GetByExternalID(ctx, 1027)
		require.NoError(t, err)
		assert.Equal(t, "ETH", got.Symbol)
		assert.Equal(t, "ethereum", got.Slug)
		require.NotNil(t, got.Chain)
		assert.Equal(t, "Ethereum", *got.Chain)
		assert.ElementsMatch(t, []string{"Layer 1", "Smart Contracts"}, got.Categories)
		assert.True(t, got.IsTracked)
		assert.NotZero(t, got.CreatedAt)
	})

	t.Run("UpsertRefreshesMutableFieldsOnly", func(t *testing.T) {
		launched := time.Date(2015, 7, 30, 0, 0, 0, 0, time.UTC).UnixMilli()
		first, err := store.GetByExternalID(ctx, 1027)
		require.NoError(t, err)

		otherLaunch := time.Now().UnixMilli()
		err = store.Upsert(ctx, &domain.Token{
			ExternalID: 1027,
			Name:       "Ether",
			Symbol:     "ETH",
			Slug:       "ethereum",
			Chain:      nil,
			LaunchedAt: &otherLaunch,
			Categories: []string{"DeFi"},
			IsTracked:  true,
		})
		require.NoError(t, err)

		got, err := store.GetByExternalID(ctx, 1027)
		require.NoError(t, err)
		assert.Equal(t, "Ether", got.Name)
		assert.Nil(t, got.Chain, "chain should refresh to NULL")
		assert.Equal(t, []string{"DeFi"}, got.Categories)
		require.NotNil(t, got.LaunchedAt)
		assert.Equal(t, launched, *got.LaunchedAt, "launched_at must survive upsert")
		assert.Equal(t, first.CreatedAt, got.CreatedAt, "created_at must survive upsert")
	})

	t.Run("GetByExternalID_NotFound", func(t *testing.T) {
		_, err := store.GetByExternalID(ctx, 424242)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("GetTrackedAndCount", func(t *testing.T) {
		require.NoError(t, store.Upsert(ctx, &domain.Token{
			ExternalID: 1, Name: "Bitcoin", Symbol: "BTC", Slug: "bitcoin", IsTracked: true,
		}))
		require.NoError(t, store.Upsert(ctx, &domain.Token{
			ExternalID: 2, Name: "Litecoin", Symbol: "LTC", Slug: "litecoin", IsTracked: false,
		}))

		tracked, err := store.GetTracked(ctx)
		require.NoError(t, err)
		require.Len(t, tracked, 2)
		assert.Equal(t, int64(1), tracked[0].ExternalID)
		assert.Equal(t, int64(1027), tracked[1].ExternalID)

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})
}
