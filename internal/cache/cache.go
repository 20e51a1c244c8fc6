package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"text-vectorizer/internal/embeddings"
)

// Cache stores computed vectors keyed by model and text.
type Cache interface {
	// GetVector retrieves a cached vector by key.
	// Returns nil if not found.
	GetVector(ctx context.Context, key string) (embeddings.Vector, error)

	// SetVector stores a vector with TTL.
	SetVector(ctx context.Context, key string, vec embeddings.Vector, ttl time.Duration) error

	// Close closes the cache connection.
	Close() error
}

// Key derives the cache key for text embedded by model. Texts are hashed so
// keys stay short regardless of input size.
func Key(model, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
