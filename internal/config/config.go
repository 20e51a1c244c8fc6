package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration for the vectorizer service and its tooling.
type Config struct {
	// Server
	Host           string        `env:"HOST" envDefault:"0.0.0.0"`
	Port           int           `env:"PORT" envDefault:"8080"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"LOG_FORMAT" envDefault:"json"` // "json" or "text"
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	MaxBodySize    int64         `env:"MAX_BODY_SIZE" envDefault:"1048576"` // 1MB in bytes
	MetricsEnabled bool          `env:"METRICS_ENABLED" envDefault:"true"`

	// Embedding model
	EmbeddingProvider   string        `env:"EMBEDDING_PROVIDER" envDefault:"openai"` // "openai", "ollama" or "hash" (offline)
	OpenAIKey           string        `env:"OPENAI_API_KEY"`
	EmbeddingBaseURL    string        `env:"EMBEDDING_BASE_URL"`
	EmbeddingModel      string        `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	EmbeddingDimensions int           `env:"EMBEDDING_DIMENSIONS"`
	MaxSeqLength        int           `env:"MAX_SEQ_LENGTH"`
	LoadTimeout         time.Duration `env:"LOAD_TIMEOUT" envDefault:"2m"`

	// Metadata overrides
	ModelVersion     string `env:"MODEL_VERSION"`
	ModelLanguage    string `env:"MODEL_LANGUAGE" envDefault:"en"`
	ModelDescription string `env:"MODEL_DESCRIPTION"`

	// Cache
	CacheProvider string        `env:"CACHE_PROVIDER" envDefault:"none"` // "none" or "redis"
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"168h"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
