package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func TestRevocationCacheMarkAndLookup(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewRevocationCacheRepository(client, zap.NewNop())
	ctx := context.Background()

	hit, err := cache.IsRevoked(ctx, "hash")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.MarkRevoked(ctx, "hash", time.Now().Add(time.Minute)))

	hit, err = cache.IsRevoked(ctx, "hash")
	require.NoError(t, err)
	assert.True(t, hit)

	ttl := mr.TTL(revocationKeyPrefix + "hash")
	assert.True(t, ttl > 0 && ttl <= time.Minute, "unexpected ttl %s", ttl)
}

func TestRevocationCacheEntryExpiresWithToken(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewRevocationCacheRepository(client, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, cache.MarkRevoked(ctx, "hash", time.Now().Add(30*time.Second)))
	mr.FastForward(31 * time.Second)

	hit, err := cache.IsRevoked(ctx, "hash")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRevocationCacheSkipsExpiredTokens(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewRevocationCacheRepository(client, zap.NewNop())

	require.NoError(t, cache.MarkRevoked(context.Background(), "hash", time.Now().Add(-time.Second)))
	assert.False(t, mr.Exists(revocationKeyPrefix+"hash"))
}

func TestRevocationCacheErrorsSurface(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewRevocationCacheRepository(client, zap.NewNop())
	mr.SetError("LOADING")

	_, err := cache.IsRevoked(context.Background(), "hash")
	assert.Error(t, err)
}

func TestRevocationCacheDisabled(t *testing.T) {
	cache := NewRevocationCacheRepository(nil, nil)
	assert.False(t, cache.Enabled())

	require.NoError(t, cache.MarkRevoked(context.Background(), "hash", time.Now().Add(time.Minute)))
	hit, err := cache.IsRevoked(context.Background(), "hash")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, cache.Close())
}
