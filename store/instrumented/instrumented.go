// Package instrumented decorates a store.QuadStore with structured
// logging, Prometheus metrics, and OpenTelemetry spans around each backend
// I/O boundary, grounded on the teacher's
// internal/infrastructure/decorators/logging_repository.go and
// internal/infrastructure/observability/metrics_repository.go decorator
// pairs, generalized from a node/edge repository decorator to a single
// store.QuadStore decorator.
package instrumented

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gregjan/trellis/internal/observability"
	"github.com/gregjan/trellis/rdf"
	"github.com/gregjan/trellis/store"
)

// Store wraps an inner store.QuadStore with observability.
type Store struct {
	inner   store.QuadStore
	logger  *zap.Logger
	metrics *observability.Metrics
}

// New builds an instrumented decorator around inner. Either logger or
// metrics may be nil to disable that concern.
func New(inner store.QuadStore, logger *zap.Logger, metrics *observability.Metrics) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{inner: inner, logger: logger, metrics: metrics}
}

func (s *Store) call(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, span := observability.StartBackendSpan(ctx, op)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	s.metrics.Observe(op, start, err)
	if err != nil {
		s.logger.Debug("backend operation failed", zap.String("op", op), zap.Error(err), zap.Duration("duration", time.Since(start)))
	} else {
		s.logger.Debug("backend operation succeeded", zap.String("op", op), zap.Duration("duration", time.Since(start)))
	}
	return err
}

func (s *Store) Insert(ctx context.Context, q rdf.Quad) error {
	return s.call(ctx, "insert", func(ctx context.Context) error { return s.inner.Insert(ctx, q) })
}

func (s *Store) Remove(ctx context.Context, q rdf.Quad) error {
	return s.call(ctx, "remove", func(ctx context.Context) error { return s.inner.Remove(ctx, q) })
}

func (s *Store) RemoveGraph(ctx context.Context, graph rdf.IRI) error {
	return s.call(ctx, "remove_graph", func(ctx context.Context) error { return s.inner.RemoveGraph(ctx, graph) })
}

func (s *Store) Query(ctx context.Context, pattern rdf.Pattern) ([]rdf.Quad, error) {
	var out []rdf.Quad
	err := s.call(ctx, "query", func(ctx context.Context) error {
		var err error
		out, err = s.inner.Query(ctx, pattern)
		return err
	})
	return out, err
}

func (s *Store) Exists(ctx context.Context, pattern rdf.Pattern) (bool, error) {
	var out bool
	err := s.call(ctx, "exists", func(ctx context.Context) error {
		var err error
		out, err = s.inner.Exists(ctx, pattern)
		return err
	})
	return out, err
}

func (s *Store) Apply(ctx context.Context, ops []store.Mutation) error {
	return s.call(ctx, "apply", func(ctx context.Context) error { return s.inner.Apply(ctx, ops) })
}

var _ store.QuadStore = (*Store)(nil)
