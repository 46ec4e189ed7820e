// Package observability exposes Prometheus metrics for the analysis
// pipeline and the HTTP API.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all registered collectors.
type Metrics struct {
	registry *prometheus.Registry

	AnalysesTotal         *prometheus.CounterVec
	AnalysisDuration      prometheus.Histogram
	MediaDuration         prometheus.Histogram
	ClipAdapterErrors     *prometheus.CounterVec
	FeedbackFallbackTotal prometheus.Counter
}

// NewMetrics creates and registers all collectors on a fresh registry.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "speechlens_analyses_total",
			Help: "Total analysis requests by outcome",
		}, []string{"status"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "speechlens_analysis_duration_seconds",
			Help:    "Wall time of one full analysis pipeline run",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		MediaDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "speechlens_media_duration_seconds",
			Help:    "Duration of analyzed source media",
			Buckets: prometheus.ExponentialBuckets(5, 2, 8),
		}),
		ClipAdapterErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "speechlens_clip_adapter_errors_total",
			Help: "Per-clip adapter failures that degraded a single clip",
		}, []string{"adapter"}),
		FeedbackFallbackTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "speechlens_feedback_fallback_total",
			Help: "Analyses that used the deterministic fallback feedback",
		}),
	}

	collectors := []prometheus.Collector{
		m.AnalysesTotal,
		m.AnalysisDuration,
		m.MediaDuration,
		m.ClipAdapterErrors,
		m.FeedbackFallbackTotal,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Registry returns the underlying registry for HTTP exposition.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
