// Package metrics exposes fetch and analysis counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder implements collector.Metrics and pipeline.Metrics using Prometheus.
type Recorder struct {
	fetchAttempts *prometheus.CounterVec
	fetchLatency  *prometheus.HistogramVec
	analyses      *prometheus.CounterVec
	enrichments   *prometheus.CounterVec
	lastClose     *prometheus.GaugeVec
	sentiment     *prometheus.GaugeVec
}

// New registers the StockPulse collectors with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		fetchAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_fetch_attempts_total",
				Help: "Route attempts by route label and outcome",
			},
			[]string{"route", "outcome"},
		),
		fetchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockpulse_fetch_attempt_duration_seconds",
				Help:    "Duration of single route attempts in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_analyses_total",
				Help: "Analyses by result (ok or error kind)",
			},
			[]string{"result"},
		),
		enrichments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_enrichments_total",
				Help: "Enrichment calls by provider and status",
			},
			[]string{"provider", "status"},
		),
		lastClose: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockpulse_last_close",
				Help: "Last analyzed close price per symbol",
			},
			[]string{"symbol"},
		),
		sentiment: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockpulse_sentiment_score",
				Help: "Last sentiment score per symbol",
			},
			[]string{"symbol"},
		),
	}
	reg.MustRegister(r.fetchAttempts, r.fetchLatency, r.analyses, r.enrichments, r.lastClose, r.sentiment)
	return r
}

// ObserveAttempt records one route attempt.
func (r *Recorder) ObserveAttempt(route, outcome string, seconds float64) {
	r.fetchAttempts.WithLabelValues(route, outcome).Inc()
	r.fetchLatency.WithLabelValues(route).Observe(seconds)
}

// ObserveAnalysis records a finished analysis. result is "ok" or an error kind.
func (r *Recorder) ObserveAnalysis(symbol, result string, price float64, score int) {
	r.analyses.WithLabelValues(result).Inc()
	if result == "ok" {
		r.lastClose.WithLabelValues(symbol).Set(price)
		r.sentiment.WithLabelValues(symbol).Set(float64(score))
	}
}

// ObserveEnrichment records the status of an enrichment call.
func (r *Recorder) ObserveEnrichment(provider, status string) {
	r.enrichments.WithLabelValues(provider, status).Inc()
}
