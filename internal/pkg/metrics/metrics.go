// Package metrics exposes Prometheus collectors for the allowance workflow.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors recorded during a run. A nil *Metrics records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	Lines        *prometheus.CounterVec
	Metadata     *prometheus.CounterVec
	Checks       *prometheus.CounterVec
	Approvals    *prometheus.CounterVec
	Confirmation *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "allowance_lines_total",
			Help: "Input lines by decode result.",
		}, []string{"result"}),
		Metadata: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "allowance_metadata_total",
			Help: "Token metadata resolutions by chain and result.",
		}, []string{"chain", "result"}),
		Checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "allowance_checks_total",
			Help: "Allowance reads by chain and result.",
		}, []string{"chain", "result"}),
		Approvals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "allowance_approvals_total",
			Help: "Approval submissions by chain and result.",
		}, []string{"chain", "result"}),
		Confirmation: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "allowance_confirmation_seconds",
			Help:    "Time from broadcast to receipt for approval transactions.",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		}, []string{"chain"}),
	}
	m.registry.MustRegister(m.Lines, m.Metadata, m.Checks, m.Approvals, m.Confirmation)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IncLine counts one input line by outcome: decoded, skipped or failed.
// All Inc and Observe methods are no-ops on a nil *Metrics.
func (m *Metrics) IncLine(result string) {
	if m != nil {
		m.Lines.WithLabelValues(result).Inc()
	}
}

// IncMetadata counts one metadata resolution on chain.
func (m *Metrics) IncMetadata(chain, result string) {
	if m != nil {
		m.Metadata.WithLabelValues(chain, result).Inc()
	}
}

// IncCheck counts one allowance read on chain by result.
func (m *Metrics) IncCheck(chain, result string) {
	if m != nil {
		m.Checks.WithLabelValues(chain, result).Inc()
	}
}

// IncApproval counts one approval submission on chain by result.
func (m *Metrics) IncApproval(chain, result string) {
	if m != nil {
		m.Approvals.WithLabelValues(chain, result).Inc()
	}
}

// ObserveConfirmation records how long a receipt took to arrive.
func (m *Metrics) ObserveConfirmation(chain string, seconds float64) {
	if m != nil {
		m.Confirmation.WithLabelValues(chain).Observe(seconds)
	}
}
