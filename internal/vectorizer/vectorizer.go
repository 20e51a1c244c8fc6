// Package vectorizer turns text into vectors using a preloaded embedding model.
package vectorizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"text-vectorizer/internal/cache"
	"text-vectorizer/internal/embeddings"
	"text-vectorizer/internal/metrics"
	"text-vectorizer/internal/tokenizer"
)

// ErrInvalidInput matches every error caused by the caller's input.
var ErrInvalidInput = errors.New("invalid input")

// ErrNilText is returned when no text is supplied at all.
var ErrNilText = &InputError{Reason: "nil value is not allowed"}

// ErrDimensionMismatch is returned when the model answers with a vector whose
// size differs from the one observed at load time.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// InputError reports text rejected before it reaches the model.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return e.Reason }

// Is makes every InputError match ErrInvalidInput.
func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

// Options tunes a Vectorizer. The zero value disables caching and logging.
type Options struct {
	Cache    cache.Cache
	CacheTTL time.Duration
	Log      *slog.Logger
}

// Vectorizer is the loaded model handle. It is immutable after Load and safe
// for concurrent use.
type Vectorizer struct {
	embedder embeddings.Embedder
	info     embeddings.ModelInfo
	dim      int

	cache    cache.Cache
	caching  bool
	cacheTTL time.Duration
	log      *slog.Logger
}

// Load prepares embedder for serving. The empty string is embedded once to
// check that the backend answers and to fix the vector dimension.
func Load(ctx context.Context, embedder embeddings.Embedder, opts Options) (*Vectorizer, error) {
	if embedder == nil {
		return nil, errors.New("embedder required")
	}
	info := embedder.Info()

	probe, err := embedder.Embed(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", info.Model, err)
	}
	if len(probe) == 0 {
		return nil, fmt.Errorf("load model %s: %w", info.Model, embeddings.ErrNoEmbedding)
	}

	v := &Vectorizer{
		embedder: embedder,
		info:     info,
		dim:      len(probe),
		cache:    opts.Cache,
		caching:  opts.Cache != nil,
		cacheTTL: opts.CacheTTL,
		log:      opts.Log,
	}
	if v.cache == nil {
		v.cache = cache.NewNoOpCache()
	}
	if v.log == nil {
		v.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	metrics.SetModel(info.Provider, info.Model, v.dim)
	return v, nil
}

// Dim is the number of entries in every vector this Vectorizer returns.
func (v *Vectorizer) Dim() int { return v.dim }

// Info describes the loaded model.
func (v *Vectorizer) Info() embeddings.ModelInfo { return v.info }

// Vectorize returns the embedding of text. A nil text fails with ErrNilText;
// the empty string is a valid input. Texts longer than the model's sequence
// limit are truncated before embedding.
func (v *Vectorizer) Vectorize(ctx context.Context, text *string) (embeddings.Vector, error) {
	if text == nil {
		metrics.RecordVectorize(metrics.StatusInvalidInput)
		return nil, ErrNilText
	}

	input, truncated := tokenizer.Truncate(*text, v.info.MaxSeqLength)
	if truncated {
		metrics.TruncatedInputs.Inc()
		v.log.Debug("input truncated to model sequence length",
			"tokens", tokenizer.Count(*text),
			"max_seq_length", v.info.MaxSeqLength,
		)
	}

	key := cache.Key(v.info.Model, input)
	if vec := v.cached(ctx, key); vec != nil {
		metrics.RecordVectorize(metrics.StatusOK)
		return vec, nil
	}

	start := time.Now()
	vec, err := v.embedder.Embed(ctx, input)
	metrics.RecordEmbed(v.info.Provider, time.Since(start).Seconds())
	if err != nil {
		metrics.RecordVectorize(metrics.StatusError)
		return nil, fmt.Errorf("embed text: %w", err)
	}
	if len(vec) != v.dim {
		metrics.RecordVectorize(metrics.StatusError)
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), v.dim)
	}

	if v.caching {
		if err := v.cache.SetVector(ctx, key, vec, v.cacheTTL); err != nil {
			// Log cache write failure but don't fail the request
			v.log.Warn("failed to cache vector", "err", err)
		}
	}
	metrics.RecordVectorize(metrics.StatusOK)
	return vec, nil
}

// cached returns the stored vector for key, or nil on miss or cache failure.
func (v *Vectorizer) cached(ctx context.Context, key string) embeddings.Vector {
	if !v.caching {
		return nil
	}
	vec, err := v.cache.GetVector(ctx, key)
	if err != nil {
		v.log.Warn("cache lookup failed", "err", err)
		metrics.RecordCacheLookup(false)
		return nil
	}
	if len(vec) != v.dim {
		metrics.RecordCacheLookup(false)
		return nil
	}
	metrics.RecordCacheLookup(true)
	return vec
}
