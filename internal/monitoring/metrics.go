// Package monitoring exposes Prometheus metrics for the preview
// pipeline.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TierAttempts counts generation attempts per tier and outcome.
	TierAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "preview",
		Name:      "tier_attempts_total",
		Help:      "Generation attempts by tier and outcome.",
	}, []string{"tier", "outcome"})

	// TierDuration observes wall-clock seconds spent per tier attempt.
	TierDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "preview",
		Name:      "tier_duration_seconds",
		Help:      "Duration of tier attempts.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 45, 60},
	}, []string{"tier"})

	// GateChecks counts quality-gate evaluations by gate and result.
	GateChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "preview",
		Name:      "gate_checks_total",
		Help:      "Quality gate evaluations by gate and result.",
	}, []string{"gate", "result"})

	// CacheLookups counts cache hits and misses.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "preview",
		Name:      "cache_lookups_total",
		Help:      "Preview cache lookups by result.",
	}, []string{"result"})

	// ReasoningTokens counts tokens consumed by the reasoning service.
	ReasoningTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "preview",
		Name:      "reasoning_tokens_total",
		Help:      "Tokens consumed by reasoning calls, by direction.",
	}, []string{"direction"})

	// RefinementRounds observes critique refinement rounds per preview.
	RefinementRounds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "preview",
		Name:      "refinement_rounds",
		Help:      "Critique refinement rounds performed per preview.",
		Buckets:   []float64{0, 1, 2, 3},
	})

	// JobsActive tracks jobs currently being processed by queue workers.
	JobsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "preview",
		Name:      "jobs_active",
		Help:      "Jobs currently being processed.",
	})
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveGate records one gate evaluation.
func ObserveGate(gate string, passed bool) {
	result := "fail"
	if passed {
		result = "pass"
	}
	GateChecks.WithLabelValues(gate, result).Inc()
}

// ObserveCache records one cache lookup.
func ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(result).Inc()
}
