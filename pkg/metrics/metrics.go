// Package metrics exposes Prometheus collectors for statement processing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "statements"

// Parse outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeCancelled = "cancelled"
	OutcomeNoAdapter = "no_adapter"
)

// Metrics groups the collectors on a private registry. The zero value and a
// nil pointer are both no-ops.
type Metrics struct {
	registry *prometheus.Registry

	documents    *prometheus.CounterVec
	transactions *prometheus.CounterVec
	warnings     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	sources      *prometheus.CounterVec
}

// New registers the statement collectors plus Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Statement documents processed, by bank and outcome.",
		}, []string{"bank", "outcome"}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Transactions extracted, by bank.",
		}, []string{"bank"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      "Parse warnings emitted, by bank.",
		}, []string{"bank"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Time spent parsing one document.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"bank", "outcome"}),
		sources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_source_total",
			Help:      "Enriched transactions by the path that produced them.",
		}, []string{"source"}),
	}
	reg.MustRegister(
		m.documents, m.transactions, m.warnings, m.duration, m.sources,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) enabled() bool {
	return m != nil && m.registry != nil
}

// ObserveParse records one processed document.
func (m *Metrics) ObserveParse(bank, outcome string, elapsed time.Duration, transactions, warnings int) {
	if !m.enabled() {
		return
	}
	m.documents.WithLabelValues(bank, outcome).Inc()
	m.duration.WithLabelValues(bank, outcome).Observe(elapsed.Seconds())
	if transactions > 0 {
		m.transactions.WithLabelValues(bank).Add(float64(transactions))
	}
	if warnings > 0 {
		m.warnings.WithLabelValues(bank).Add(float64(warnings))
	}
}

// ObserveSource counts one enrichment result by source (ml, rules, hybrid).
func (m *Metrics) ObserveSource(source string) {
	if !m.enabled() || source == "" {
		return
	}
	m.sources.WithLabelValues(source).Inc()
}

// Registry returns the underlying registry, nil when disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if !m.enabled() {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if !m.enabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
