package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveCall("dummy-broker", "scan", OutcomeSuccess, 0.2)
	m.ObserveCall("dummy-broker", "scan", OutcomeSkipped, 0)
	m.RecordFound("dummy-broker", 3)
	m.RecordDeletion("dummy-broker", OutcomeFailure)
	m.RecordTransition("dummy-broker", "submitted", "in_progress")
	m.RecordPass("scan")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConnectorCallsTotal.WithLabelValues("dummy-broker", "scan", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConnectorCallsTotal.WithLabelValues("dummy-broker", "scan", OutcomeSkipped)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RecordsFoundTotal.WithLabelValues("dummy-broker")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeletionsSubmittedTotal.WithLabelValues("dummy-broker", OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatusTransitionsTotal.WithLabelValues("dummy-broker", "submitted", "in_progress")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PassesTotal.WithLabelValues("scan")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ConnectorCallDuration))
}

func TestNew_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
