// Package metrics provides Prometheus metrics for connector dispatch and
// deletion reconciliation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// Metrics contains all broker engine metrics.
type Metrics struct {
	ConnectorCallsTotal     *prometheus.CounterVec   // by connector, operation, outcome
	ConnectorCallDuration   *prometheus.HistogramVec // by connector, operation
	RecordsFoundTotal       *prometheus.CounterVec   // by connector
	DeletionsSubmittedTotal *prometheus.CounterVec   // by connector, outcome
	StatusTransitionsTotal  *prometheus.CounterVec   // by connector, from, to
	PassesTotal             *prometheus.CounterVec   // by pass (scan, delete, reconcile)
}

// New registers the metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		ConnectorCallsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "databreaker_connector_calls_total",
			Help: "Connector invocations by connector, operation and outcome",
		}, []string{"connector", "operation", "outcome"}),

		ConnectorCallDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "databreaker_connector_call_duration_seconds",
			Help:    "Duration of connector invocations",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"connector", "operation"}),

		RecordsFoundTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "databreaker_records_found_total",
			Help: "Records returned by connector scans",
		}, []string{"connector"}),

		DeletionsSubmittedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "databreaker_deletions_submitted_total",
			Help: "Deletion submissions per broker partition by outcome",
		}, []string{"connector", "outcome"}),

		StatusTransitionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "databreaker_deletion_status_transitions_total",
			Help: "Deletion request status changes applied by reconciliation",
		}, []string{"connector", "from", "to"}),

		PassesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "databreaker_passes_total",
			Help: "Completed orchestration passes by kind",
		}, []string{"pass"}),
	}
}

func (m *Metrics) ObserveCall(connector, operation, outcome string, seconds float64) {
	m.ConnectorCallsTotal.WithLabelValues(connector, operation, outcome).Inc()
	if outcome != OutcomeSkipped {
		m.ConnectorCallDuration.WithLabelValues(connector, operation).Observe(seconds)
	}
}

func (m *Metrics) RecordFound(connector string, n int) {
	m.RecordsFoundTotal.WithLabelValues(connector).Add(float64(n))
}

func (m *Metrics) RecordDeletion(connector, outcome string) {
	m.DeletionsSubmittedTotal.WithLabelValues(connector, outcome).Inc()
}

func (m *Metrics) RecordTransition(connector, from, to string) {
	m.StatusTransitionsTotal.WithLabelValues(connector, from, to).Inc()
}

func (m *Metrics) RecordPass(pass string) {
	m.PassesTotal.WithLabelValues(pass).Inc()
}
