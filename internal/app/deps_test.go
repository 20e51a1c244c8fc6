package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"text-vectorizer/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildWithHashProvider(t *testing.T) {
	cfg := config.Config{
		EmbeddingProvider:   "hash",
		EmbeddingDimensions: 48,
		MaxSeqLength:        128,
		ModelLanguage:       "en",
		CacheProvider:       "none",
	}

	deps, err := BuildWith(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	defer deps.Close()

	assert.Equal(t, 48, deps.Vectorizer.Dim())
	assert.Nil(t, deps.Cache)

	info := deps.Meta.Info()
	assert.Equal(t, "hash", info.Name)
	assert.Equal(t, "en", info.Language)
	assert.Equal(t, "48", info.EmbeddingSize)
	assert.Equal(t, "128", info.MaxSeqLength)
}

func TestBuildWithInvalidProviders(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
	}{
		{"unknown provider", config.Config{EmbeddingProvider: "bert"}},
		{"openai without key", config.Config{EmbeddingProvider: "openai"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildWith(context.Background(), tt.cfg, discardLogger())
			assert.Error(t, err)
		})
	}
}

func TestBuildCacheFallsBack(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
	}{
		{"disabled", config.Config{CacheProvider: "none"}},
		{"redis without addr", config.Config{CacheProvider: "redis"}},
		{"redis unreachable", config.Config{CacheProvider: "redis", RedisAddr: "127.0.0.1:1"}},
		{"unknown", config.Config{CacheProvider: "memcached"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, buildCache(tt.cfg, discardLogger()))
		})
	}
}

func TestBuildWithUnreachableBackendFails(t *testing.T) {
	cfg := config.Config{
		EmbeddingProvider: "ollama",
		EmbeddingBaseURL:  "http://127.0.0.1:1/v1",
	}
	_, err := BuildWith(context.Background(), cfg, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load model")
}
