package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"text-vectorizer/internal/embeddings"
)

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	// nothing listens on port 1; the ping must fail fast
	c, err := NewRedisCache("127.0.0.1:1", "")
	if err == nil {
		_ = c.Close()
		t.Fatal("expected connection error")
	}
	if c != nil {
		t.Errorf("expected nil cache on error, got %v", c)
	}
}

func TestNewRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewRedisCache(mr.Addr(), "")
	require.NoError(t, err)
	assert.NoError(t, c.Close())
}

func TestRedisCacheRoundTrip(t *testing.T) {
	c, mr := newTestRedisCache(t)
	ctx := context.Background()
	vec := embeddings.Vector{0.5, -1, 2}

	require.NoError(t, c.SetVector(ctx, "abc", vec, time.Hour))

	raw, err := mr.Get("vector:abc")
	require.NoError(t, err)
	assert.JSONEq(t, `[0.5,-1,2]`, raw)
	assert.Equal(t, time.Hour, mr.TTL("vector:abc"))

	got, err := c.GetVector(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, vec, got)
}

func TestRedisCacheDefaultTTL(t *testing.T) {
	c, mr := newTestRedisCache(t)

	for _, ttl := range []time.Duration{0, -time.Second} {
		require.NoError(t, c.SetVector(context.Background(), "k", embeddings.Vector{1}, ttl))
		assert.Equal(t, defaultVectorTTL, mr.TTL("vector:k"))
	}
}

func TestRedisCacheMiss(t *testing.T) {
	c, mr := newTestRedisCache(t)
	ctx := context.Background()

	got, err := c.GetVector(ctx, "absent")
	require.NoError(t, err)
	assert.Nil(t, got)

	t.Run("after expiry", func(t *testing.T) {
		require.NoError(t, c.SetVector(ctx, "short", embeddings.Vector{1}, time.Minute))
		mr.FastForward(2 * time.Minute)

		got, err := c.GetVector(ctx, "short")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestRedisCacheCorruptPayload(t *testing.T) {
	c, mr := newTestRedisCache(t)
	require.NoError(t, mr.Set("vector:bad", "not json"))

	got, err := c.GetVector(context.Background(), "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode cached vector")
	assert.Nil(t, got)
}

