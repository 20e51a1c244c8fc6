// Package metrics provides Prometheus metrics for the vectorizer service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vectorizer"

// Vectorize outcome labels.
const (
	StatusOK           = "ok"
	StatusInvalidInput = "invalid_input"
	StatusError        = "error"
)

var (
	// VectorizeTotal counts vectorize calls by outcome.
	VectorizeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vectorize_total",
			Help:      "Total number of vectorize calls",
		},
		[]string{"status"},
	)

	// EmbedDuration measures backend embedding latency.
	EmbedDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embed_duration_seconds",
			Help:      "Duration of embedding backend calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// CacheLookups counts vector cache lookups by result.
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Total number of vector cache lookups",
		},
		[]string{"result"},
	)

	// TruncatedInputs counts texts cut to the model sequence limit.
	TruncatedInputs = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "truncated_inputs_total",
			Help:      "Total number of inputs truncated to the model sequence length",
		},
	)

	// ModelDimension exposes the loaded model's vector size.
	ModelDimension = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_dimension",
			Help:      "Dimensionality of the loaded embedding model",
		},
		[]string{"provider", "model"},
	)
)

// RecordVectorize records the outcome of a vectorize call.
func RecordVectorize(status string) {
	VectorizeTotal.WithLabelValues(status).Inc()
}

// RecordEmbed records one backend call.
func RecordEmbed(provider string, seconds float64) {
	EmbedDuration.WithLabelValues(provider).Observe(seconds)
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	CacheLookups.WithLabelValues("miss").Inc()
}

// SetModel publishes the loaded model's dimension.
func SetModel(provider, model string, dim int) {
	ModelDimension.WithLabelValues(provider, model).Set(float64(dim))
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
