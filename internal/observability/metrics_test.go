package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	t.Parallel()
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordRequest("/api/v1/targets", "GET", 200, 15*time.Millisecond)
	m.RecordRequest("/api/v1/targets", "GET", 200, 30*time.Millisecond)
	m.RecordError("/api/v1/targets/:id/status", "PATCH", "VALIDATION_FAILED")
	m.RecordWorkflow("assign_trainer_target", "failed")

	require.Equal(t, 2.0, testutil.ToFloat64(m.requestTotal.WithLabelValues("/api/v1/targets", "GET", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.errorTotal.WithLabelValues("/api/v1/targets/:id/status", "PATCH", "VALIDATION_FAILED")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.workflowTotal.WithLabelValues("assign_trainer_target", "failed")))
	require.Equal(t, 1, testutil.CollectAndCount(m.requestLatency))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()
	var m *Metrics
	require.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "NOT_FOUND")
		m.RecordWorkflow("create_target", "ok")
	})
}
