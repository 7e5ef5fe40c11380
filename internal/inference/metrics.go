package inference

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the fallback chain and agent turns
type Metrics struct {
	// Provider attempts by provider and outcome (ok or an error class)
	ProviderAttempts *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec

	// Chain results
	CacheHits      prometheus.Counter
	ChainExhausted prometheus.Counter

	// Turns by response kind
	Turns *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg. A nil reg gets a private registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		ProviderAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hades_provider_attempts_total",
			Help: "Total number of provider calls by provider and outcome",
		}, []string{"provider", "outcome"}),

		ProviderLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hades_provider_request_duration_seconds",
			Help:    "Provider call latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 15, 30},
		}, []string{"provider"}),

		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "hades_ai_cache_hits_total",
			Help: "Total number of AI answers served from cache",
		}),

		ChainExhausted: factory.NewCounter(prometheus.CounterOpts{
			Name: "hades_ai_chain_exhausted_total",
			Help: "Total number of AI fallbacks where every provider failed",
		}),

		Turns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hades_turns_total",
			Help: "Total number of processed turns by response kind",
		}, []string{"kind"}),
	}
}
