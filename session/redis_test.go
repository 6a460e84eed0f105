package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis instance and returns a redis client.
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, client
}

func TestRedisStorePutResolve(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	store, err := NewRedisStore(ctx, client, "test:session:", 0)
	require.NoError(t, err)

	err = store.Put(ctx, Session{
		Shop:        "example.myshopify.com",
		AccessToken: "shpat_test_token",
	})
	require.NoError(t, err)

	got, err := store.Resolve(ctx, "example.myshopify.com")
	require.NoError(t, err)
	require.Equal(t, "example.myshopify.com", got.Shop)
	require.Equal(t, "shpat_test_token", got.AccessToken)
	require.False(t, got.LastUpdated.IsZero())
}

func TestRedisStoreResolveMissing(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	store, err := NewRedisStore(ctx, client, "test:session:", 0)
	require.NoError(t, err)

	_, err = store.Resolve(ctx, "missing.myshopify.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreDelete(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	store, err := NewRedisStore(ctx, client, "test:session:", 0)
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, Session{Shop: "shop.myshopify.com", AccessToken: "tok"}))
	require.NoError(t, store.Delete(ctx, "shop.myshopify.com"))

	_, err = store.Resolve(ctx, "shop.myshopify.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreTTL(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	store, err := NewRedisStore(ctx, client, "test:session:", time.Minute)
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, Session{Shop: "shop.myshopify.com", AccessToken: "tok"}))

	// miniredis lets us advance the clock to trigger key expiry.
	mr.FastForward(2 * time.Minute)

	_, err = store.Resolve(ctx, "shop.myshopify.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreKeyPrefix(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	store, err := NewRedisStore(ctx, client, "relay:session:", 0)
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, Session{Shop: "shop.myshopify.com", AccessToken: "tok"}))
	require.True(t, mr.Exists("relay:session:shop.myshopify.com"))
}

func TestRedisStoreConnectionFailure(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "localhost:1", // nothing listens here
		DialTimeout: 100 * time.Millisecond,
	})
	defer client.Close()

	_, err := NewRedisStore(context.Background(), client, "test:session:", 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to connect to Redis")
}
