package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for HTTP traffic and workflow
// outcomes. A nil *Metrics records nothing.
type Metrics struct {
	requestTotal   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	errorTotal     *prometheus.CounterVec
	workflowTotal  *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gym_targets",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests served.",
		}, []string{"route", "method", "status"}),
		requestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gym_targets",
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution for HTTP requests.",
			Buckets: []float64{
				0.001, 0.005,
				0.01, 0.025, 0.05,
				0.1, 0.25, 0.5,
				1, 2.5, 5,
			},
		}, []string{"route", "method"}),
		errorTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gym_targets",
			Name:      "http_errors_total",
			Help:      "Total number of HTTP requests answered with an error envelope.",
		}, []string{"route", "method", "code"}),
		workflowTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gym_targets",
			Name:      "workflow_operations_total",
			Help:      "Total number of target workflow operations by outcome.",
		}, []string{"operation", "outcome"}),
	}
}

var defaultMetrics = sync.OnceValue(func() *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer)
})

// DefaultMetrics returns collectors registered on the default registry.
func DefaultMetrics() *Metrics {
	return defaultMetrics()
}

// RecordRequest counts a served request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError counts an error response.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errorTotal.WithLabelValues(route, method, code).Inc()
}

// RecordWorkflow counts a workflow operation outcome such as
// ("transition_status", "approved") or ("assign_trainer_target", "failed").
func (m *Metrics) RecordWorkflow(operation, outcome string) {
	if m == nil {
		return
	}
	m.workflowTotal.WithLabelValues(operation, outcome).Inc()
}
