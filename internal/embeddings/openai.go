package embeddings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	defaultEmbeddingTimeout = 30 * time.Second

	// The embeddings API rejects an empty input; a single space is the closest
	// text it accepts.
	emptyInputPlaceholder = " "

	ollamaDefaultBaseURL = "http://localhost:11434/v1"
	ollamaDefaultModel   = "nomic-embed-text"
)

// OpenAIConfig configures an OpenAI-compatible embedder.
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	Dimensions   int
	MaxSeqLength int
	Version      string
	Timeout      time.Duration
}

// OpenAIEmbedder calls OpenAI's embeddings API, or any server exposing the same API.
type OpenAIEmbedder struct {
	provider   string
	model      openai.EmbeddingModel
	dimensions int
	info       ModelInfo
	timeout    time.Duration
	client     *openai.Client
}

// NewOpenAIEmbedder creates a new OpenAI embedder.
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	return newOpenAICompatible("openai", cfg)
}

// NewOllamaEmbedder creates an embedder that talks to the OpenAI-compatible
// /v1 endpoint of an Ollama server.
func NewOllamaEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = ollamaDefaultBaseURL
	}
	if cfg.APIKey == "" {
		cfg.APIKey = "ollama" // Ollama ignores the key but the client requires one
	}
	if cfg.Model == "" {
		cfg.Model = ollamaDefaultModel
	}
	return newOpenAICompatible("ollama", cfg)
}

func newOpenAICompatible(provider string, cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	model := openai.EmbeddingModel(cfg.Model)
	if model == "" {
		model = openai.EmbeddingModelTextEmbedding3Small
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultEmbeddingTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}
	cli := openai.NewClient(opts...)

	version := cfg.Version
	if version == "" {
		version = string(model)
	}
	return &OpenAIEmbedder{
		provider:   provider,
		model:      model,
		dimensions: cfg.Dimensions,
		timeout:    timeout,
		client:     &cli,
		info: ModelInfo{
			Provider:     provider,
			Model:        string(model),
			Version:      version,
			Description:  fmt.Sprintf("%s embedding model %s served through the OpenAI embeddings API", provider, model),
			MaxSeqLength: cfg.MaxSeqLength,
		},
	}, nil
}

// Info describes the configured model.
func (e *OpenAIEmbedder) Info() ModelInfo {
	return e.info
}

// Embed returns the embedding of text. The call is bounded by the embedder
// timeout and by ctx.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	if e == nil || e.client == nil {
		return nil, fmt.Errorf("nil openai embedder")
	}
	if text == "" {
		text = emptyInputPlaceholder
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
		Model: e.model,
	}
	if e.dimensions > 0 {
		params.Dimensions = openai.Int(int64(e.dimensions))
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s embeddings request: %w", e.provider, err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, ErrNoEmbedding
	}
	// Convert []float64 to []float32
	embedding := resp.Data[0].Embedding
	vec := make(Vector, len(embedding))
	for i, v := range embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}
