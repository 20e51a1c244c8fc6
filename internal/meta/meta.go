// Package meta builds the static description of the loaded model served on /meta.
package meta

import (
	"strconv"

	"text-vectorizer/internal/embeddings"
)

// Info is the metadata record. Every field is a descriptive string; limits
// that the backend does not expose are omitted.
type Info struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	Language      string `json:"language"`
	Model         string `json:"model"`
	Description   string `json:"description"`
	MaxSeqLength  string `json:"max_seq_length,omitempty"`
	EmbeddingSize string `json:"embedding_size"`
}

// Overrides replace model-reported values when non-empty.
type Overrides struct {
	Version     string
	Language    string
	Description string
}

// Provider hands out the metadata computed once at load time.
type Provider struct {
	info Info
}

// New computes the metadata for a model with the given dimension.
func New(model embeddings.ModelInfo, dim int, o Overrides) *Provider {
	info := Info{
		Name:          model.Provider,
		Version:       model.Version,
		Language:      "en",
		Model:         model.Model,
		Description:   model.Description,
		EmbeddingSize: strconv.Itoa(dim),
	}
	if model.MaxSeqLength > 0 {
		info.MaxSeqLength = strconv.Itoa(model.MaxSeqLength)
	}
	if o.Version != "" {
		info.Version = o.Version
	}
	if o.Language != "" {
		info.Language = o.Language
	}
	if o.Description != "" {
		info.Description = o.Description
	}
	return &Provider{info: info}
}

// Info returns the metadata record.
func (p *Provider) Info() Info {
	return p.info
}
