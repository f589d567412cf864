//go:build integration

package redis

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/bistro-orders/internal/domain/cart"
)

// Run with: TEST_REDIS_URL=redis://localhost:6379/1 go test -tags integration ./internal/redis

func testClient(t *testing.T) *redis.Client {
	t.Helper()

	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	client, err := NewClient(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Ping(t.Context()).Err())
	return client
}

func TestCartStore(t *testing.T) {
	store := NewCartStore(testClient(t), time.Minute)
	ctx := t.Context()
	session := "it-" + uuid.New().String()

	t.Run("unknown session yields empty cart", func(t *testing.T) {
		c, err := store.Get(ctx, session)
		require.NoError(t, err)
		assert.Empty(t, c.Items)
	})

	t.Run("add merges lines by product", func(t *testing.T) {
		item := cart.Item{
			ProductID: "p1", Name: "Margherita",
			Price: decimal.RequireFromString("12.00"), Quantity: 1,
		}
		_, err := store.AddItem(ctx, session, item)
		require.NoError(t, err)
		c, err := store.AddItem(ctx, session, item)
		require.NoError(t, err)

		require.Len(t, c.Items, 1)
		assert.Equal(t, 2, c.Items[0].Quantity)
		assert.True(t, decimal.RequireFromString("24.00").Equal(c.Total()))
	})

	t.Run("survives a round trip", func(t *testing.T) {
		c, err := store.Get(ctx, session)
		require.NoError(t, err)
		require.Len(t, c.Items, 1)
		assert.Equal(t, "Margherita", c.Items[0].Name)
		assert.True(t, decimal.RequireFromString("12.00").Equal(c.Items[0].Price))
	})

	t.Run("clear removes the cart", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx, session))
		c, err := store.Get(ctx, session)
		require.NoError(t, err)
		assert.Empty(t, c.Items)
	})
}

func TestIdempotencyGuard(t *testing.T) {
	guard := NewIdempotencyGuard(testClient(t), time.Minute)
	ctx := t.Context()
	key := "it-" + uuid.New().String()

	// Fresh key is acquired.
	orderID, acquired, err := guard.Acquire(ctx, key)
	require.NoError(t, err)
	assert.True(t, acquired)
	assert.Empty(t, orderID)

	// While in flight, a second acquire sees no order ID.
	orderID, acquired, err = guard.Acquire(ctx, key)
	require.NoError(t, err)
	assert.False(t, acquired)
	assert.Empty(t, orderID)

	// After completion, the original order ID is replayed.
	require.NoError(t, guard.Complete(ctx, key, "order-123"))
	orderID, acquired, err = guard.Acquire(ctx, key)
	require.NoError(t, err)
	assert.False(t, acquired)
	assert.Equal(t, "order-123", orderID)

	// Release frees the key for a fresh claim.
	require.NoError(t, guard.Release(ctx, key))
	_, acquired, err = guard.Acquire(ctx, key)
	require.NoError(t, err)
	assert.True(t, acquired)
	require.NoError(t, guard.Release(ctx, key))
}
