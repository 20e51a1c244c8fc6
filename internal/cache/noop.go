package cache

import (
	"context"
	"time"

	"text-vectorizer/internal/embeddings"
)

// NoOpCache is a cache implementation that does nothing.
// Used when caching is disabled or Redis is unavailable: all operations
// succeed but no actual caching occurs (always cache miss).
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache instance
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// GetVector always returns nil (cache miss)
func (c *NoOpCache) GetVector(ctx context.Context, key string) (embeddings.Vector, error) {
	return nil, nil
}

// SetVector does nothing and always succeeds
func (c *NoOpCache) SetVector(ctx context.Context, key string, vec embeddings.Vector, ttl time.Duration) error {
	return nil
}

// Close does nothing and always succeeds
func (c *NoOpCache) Close() error {
	return nil
}
