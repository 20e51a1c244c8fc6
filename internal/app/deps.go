package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"

	"text-vectorizer/internal/cache"
	"text-vectorizer/internal/config"
	"text-vectorizer/internal/embeddings"
	"text-vectorizer/internal/logger"
	"text-vectorizer/internal/meta"
	"text-vectorizer/internal/vectorizer"
)

// Deps bundles the runtime dependencies of the service. Everything in it is
// created once at startup and read-only afterwards.
type Deps struct {
	Config     config.Config
	Log        *slog.Logger
	Vectorizer *vectorizer.Vectorizer
	Meta       *meta.Provider
	Cache      cache.Cache
}

// Close releases connections held by the dependencies.
func (d Deps) Close() error {
	if d.Cache != nil {
		return d.Cache.Close()
	}
	return nil
}

// LoadConfig loads an optional .env file and the environment.
func LoadConfig() (config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config.Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	return config.Load(), nil
}

// Build loads env, config and the embedding model. It returns only once the
// model has answered a probe request, so callers may start serving right away.
func Build(ctx context.Context) (Deps, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return Deps{}, err
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	return BuildWith(ctx, cfg, log)
}

// BuildWith is Build with an explicit configuration and logger.
func BuildWith(ctx context.Context, cfg config.Config, log *slog.Logger) (Deps, error) {
	embedder, err := buildEmbedder(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	vc := buildCache(cfg, log)

	loadCtx := ctx
	if cfg.LoadTimeout > 0 {
		var cancel context.CancelFunc
		loadCtx, cancel = context.WithTimeout(ctx, cfg.LoadTimeout)
		defer cancel()
	}
	v, err := vectorizer.Load(loadCtx, embedder, vectorizer.Options{
		Cache:    vc,
		CacheTTL: cfg.CacheTTL,
		Log:      log,
	})
	if err != nil {
		if vc != nil {
			_ = vc.Close()
		}
		return Deps{}, fmt.Errorf("failed to load model: %w", err)
	}

	provider := meta.New(v.Info(), v.Dim(), meta.Overrides{
		Version:     cfg.ModelVersion,
		Language:    cfg.ModelLanguage,
		Description: cfg.ModelDescription,
	})
	log.Info("model loaded", "provider", v.Info().Provider, "model", v.Info().Model, "dim", v.Dim())

	return Deps{
		Config:     cfg,
		Log:        log,
		Vectorizer: v,
		Meta:       provider,
		Cache:      vc,
	}, nil
}

func buildEmbedder(cfg config.Config, log *slog.Logger) (embeddings.Embedder, error) {
	oc := embeddings.OpenAIConfig{
		APIKey:       cfg.OpenAIKey,
		BaseURL:      cfg.EmbeddingBaseURL,
		Model:        cfg.EmbeddingModel,
		Dimensions:   cfg.EmbeddingDimensions,
		MaxSeqLength: cfg.MaxSeqLength,
		Version:      cfg.ModelVersion,
		Timeout:      cfg.RequestTimeout,
	}
	switch cfg.EmbeddingProvider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when EMBEDDING_PROVIDER=openai")
		}
		embedder, err := embeddings.NewOpenAIEmbedder(oc)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI embedder: %w", err)
		}
		log.Info("using OpenAI embedder", "model", embedder.Info().Model)
		return embedder, nil
	case "ollama":
		embedder, err := embeddings.NewOllamaEmbedder(oc)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Ollama embedder: %w", err)
		}
		log.Info("using Ollama embedder", "model", embedder.Info().Model)
		return embedder, nil
	case "hash":
		log.Warn("using offline hash embedder; vectors carry lexical similarity only")
		return embeddings.NewHashEmbedder(cfg.EmbeddingDimensions, cfg.MaxSeqLength), nil
	default:
		return nil, fmt.Errorf("invalid EMBEDDING_PROVIDER: %s (valid options: openai, ollama, hash)", cfg.EmbeddingProvider)
	}
}

// buildCache returns nil when caching is disabled. A Redis that cannot be
// reached disables caching instead of failing startup.
func buildCache(cfg config.Config, log *slog.Logger) cache.Cache {
	switch cfg.CacheProvider {
	case "redis":
		if cfg.RedisAddr == "" {
			log.Warn("REDIS_ADDR is empty; vector cache disabled")
			return nil
		}
		rc, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Warn("redis unavailable; vector cache disabled", "err", err)
			return nil
		}
		log.Info("using Redis vector cache", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
		return rc
	case "", "none":
		return nil
	default:
		log.Warn("unknown CACHE_PROVIDER; vector cache disabled", "provider", cfg.CacheProvider)
		return nil
	}
}
