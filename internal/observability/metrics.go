// Package observability provides Prometheus metrics hooks for the adapters.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"chatrelay/internal/adapter"
	"chatrelay/internal/core"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrelay_requests_total",
			Help: "Upstream chat completion requests by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	upstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatrelay_upstream_latency_seconds",
			Help:    "Upstream round-trip latency until response headers, in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"provider"},
	)

	tokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrelay_tokens_total",
			Help: "Tokens consumed by provider and kind.",
		},
		[]string{"provider", "kind"},
	)
)

// NewPrometheusHooks returns adapter hooks feeding the package metrics.
func NewPrometheusHooks() adapter.Hooks {
	return adapter.Hooks{
		ObserveRequest: func(provider, outcome string, elapsed time.Duration) {
			requestsTotal.WithLabelValues(provider, outcome).Inc()
			if elapsed > 0 {
				upstreamLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
			}
		},
		ObserveTokens: func(provider string, usage core.Usage) {
			tokensTotal.WithLabelValues(provider, "prompt").Add(float64(usage.PromptTokens))
			tokensTotal.WithLabelValues(provider, "completion").Add(float64(usage.CompletionTokens))
		},
	}
}
