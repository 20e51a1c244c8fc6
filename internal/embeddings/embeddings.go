package embeddings

import (
	"context"
	"errors"
	"math"
)

// Vector is a simple float32 slice wrapper.
type Vector []float32

// ErrNoEmbedding is returned when a backend answers without any vector.
var ErrNoEmbedding = errors.New("embedding backend returned no vectors")

// ModelInfo describes the model behind an Embedder.
type ModelInfo struct {
	Provider     string
	Model        string
	Version      string
	Description  string
	MaxSeqLength int // 0 when the backend does not expose a limit
}

// Embedder defines the embedding interface. Implementations must be safe for
// concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) (Vector, error)
	Info() ModelInfo
}

// Normalize scales v in place to unit length. Zero vectors are left unchanged.
func Normalize(v Vector) Vector {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}
