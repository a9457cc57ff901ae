package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments recorded around every resource
// service operation and backend round trip.
type Metrics struct {
	OperationDuration *prometheus.HistogramVec
	OperationTotal    *prometheus.CounterVec
}

// NewMetrics registers the engine's Prometheus instruments on reg. Pass
// prometheus.NewRegistry() in tests to avoid collisions with the default
// global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "trellis",
			Subsystem: "resource",
			Name:      "operation_duration_seconds",
			Help:      "Duration of resource service operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		OperationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trellis",
			Subsystem: "resource",
			Name:      "operation_total",
			Help:      "Count of resource service operations by outcome.",
		}, []string{"operation", "outcome"}),
	}
	reg.MustRegister(m.OperationDuration, m.OperationTotal)
	return m
}

// Observe records one completed operation's duration and outcome.
func (m *Metrics) Observe(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.OperationTotal.WithLabelValues(operation, outcome).Inc()
}
