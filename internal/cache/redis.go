package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"text-vectorizer/internal/embeddings"
)

const (
	// Key prefix for cached vectors
	vectorKeyPrefix = "vector:"

	defaultVectorTTL = 7 * 24 * time.Hour
)

type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache client
func NewRedisCache(addr, password string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return NewRedisCacheWithClient(client), nil
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// GetVector retrieves a cached vector by key
func (c *RedisCache) GetVector(ctx context.Context, key string) (embeddings.Vector, error) {
	data, err := c.client.Get(ctx, vectorKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, err
	}

	var vec embeddings.Vector
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, fmt.Errorf("decode cached vector: %w", err)
	}
	return vec, nil
}

// SetVector stores a vector with TTL; a zero TTL falls back to seven days.
func (c *RedisCache) SetVector(ctx context.Context, key string, vec embeddings.Vector, ttl time.Duration) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = defaultVectorTTL
	}
	return c.client.Set(ctx, vectorKeyPrefix+key, data, ttl).Err()
}

// Close closes the cache connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
