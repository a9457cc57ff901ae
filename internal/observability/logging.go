// Package observability carries the engine's ambient logging, metrics, and
// tracing stack: zap for structured logs, Prometheus for operation
// counters/histograms, and OpenTelemetry spans around backend I/O
// boundaries (spec.md §5's suspension points). Grounded on the teacher's
// internal/infrastructure/observability decorator layer, generalized from
// node/edge repository wrapping to a single store.QuadStore decorator.
package observability

import "go.uber.org/zap"

// NewLogger builds the process-wide structured logger. Production builds
// use zap's JSON encoder; development builds use the human-readable
// console encoder.
func NewLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
