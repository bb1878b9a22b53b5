package status

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus view of the remediation loop.
type Metrics struct {
	ChecksTotal     prometheus.Counter // Completed check cycles
	IssuesDetected  prometheus.Counter // Issues emitted by the classifier
	ActionsTaken    prometheus.Counter // Action results recorded, live or dry-run
	ActionFailures  prometheus.Counter // Denied or failed actions
	OracleFallbacks prometheus.Counter // Analyses answered by the deterministic fallback
	TickDuration    prometheus.Histogram
}

// NewMetrics creates and registers the loop metrics. The registerer
// parameter allows flexible registration (global registry, test registry).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ChecksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "remedy_checks_total",
			Help: "Total number of completed check cycles",
		}),
		IssuesDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "remedy_issues_detected_total",
			Help: "Total number of issues emitted by the classifier",
		}),
		ActionsTaken: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "remedy_actions_taken_total",
			Help: "Total number of remediation results recorded, including dry-runs",
		}),
		ActionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "remedy_action_failures_total",
			Help: "Total number of denied or failed remediation attempts",
		}),
		OracleFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "remedy_oracle_fallbacks_total",
			Help: "Total number of analyses answered by the deterministic fallback",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "remedy_tick_duration_seconds",
			Help:    "Duration of one full check cycle",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.ChecksTotal,
		m.IssuesDetected,
		m.ActionsTaken,
		m.ActionFailures,
		m.OracleFallbacks,
		m.TickDuration,
	)

	return m
}
