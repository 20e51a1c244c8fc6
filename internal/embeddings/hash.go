package embeddings

import (
	"context"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const (
	defaultHashDimensions = 384

	// startToken is always hashed so that every text, including the empty
	// one, has a defined non-zero embedding.
	startToken = "<s>"
)

// HashEmbedder is a deterministic feature-hashing embedder. It needs no
// network and no model files, which makes it suitable for local runs, smoke
// tests and CI. Similar texts share features, so cosine similarity is
// meaningful for lexical overlap only.
type HashEmbedder struct {
	dims         int
	maxSeqLength int
}

// NewHashEmbedder creates a hashing embedder producing vectors of dims entries.
func NewHashEmbedder(dims, maxSeqLength int) *HashEmbedder {
	if dims <= 0 {
		dims = defaultHashDimensions
	}
	return &HashEmbedder{dims: dims, maxSeqLength: maxSeqLength}
}

// Info describes the hashing model.
func (e *HashEmbedder) Info() ModelInfo {
	return ModelInfo{
		Provider:     "hash",
		Model:        fmt.Sprintf("xxhash-unigram-bigram-%d", e.dims),
		Version:      "1",
		Description:  "deterministic feature-hashing embedder over lower-cased unigrams and bigrams",
		MaxSeqLength: e.maxSeqLength,
	}
}

// Embed hashes the text features into a unit-length vector.
func (e *HashEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make(Vector, e.dims)
	e.add(vec, startToken)

	words := strings.Fields(strings.ToLower(text))
	for i, w := range words {
		e.add(vec, w)
		if i > 0 {
			e.add(vec, words[i-1]+" "+w)
		}
	}
	return Normalize(vec), nil
}

func (e *HashEmbedder) add(vec Vector, feature string) {
	h := xxhash.Sum64String(feature)
	idx := h % uint64(e.dims)
	// top bit picks the sign so that collisions tend to cancel out
	if h>>63 == 1 {
		vec[idx]--
	} else {
		vec[idx]++
	}
}
