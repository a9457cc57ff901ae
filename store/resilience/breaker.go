// Package resilience wraps a store.QuadStore with a circuit breaker,
// grounded on the teacher's internal/middleware/circuit_breaker.go
// (sony/gobreaker over HTTP handlers), generalized from "5xx response"
// failure detection to "backend call returned an error". Intended for the
// external backend, where a flapping remote triplestore should fail fast
// rather than pile up timeouts.
package resilience

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/gregjan/trellis/internal/apperr"
	"github.com/gregjan/trellis/rdf"
	"github.com/gregjan/trellis/store"
)

// Config controls the breaker's trip threshold, mirroring
// DefaultCircuitBreakerConfig's shape in the teacher.
type Config struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultConfig returns sensible defaults for wrapping an external backend.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      3,
		Interval:         10 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      3,
	}
}

// Store decorates a store.QuadStore, tripping open when the underlying
// backend's failure rate crosses Config.FailureThreshold.
type Store struct {
	inner store.QuadStore
	cb    *gobreaker.CircuitBreaker
}

// New builds a circuit-breaker-guarded decorator around inner.
func New(inner store.QuadStore, cfg Config) *Store {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
	})
	return &Store{inner: inner, cb: cb}
}

func execute[T any](s *Store, fn func() (T, error)) (T, error) {
	v, err := s.cb.Execute(func() (any, error) { return fn() })
	if err != nil {
		var zero T
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return zero, apperr.NewBackendFailure("circuit breaker open", err)
		}
		return zero, err
	}
	return v.(T), nil
}

func (s *Store) Insert(ctx context.Context, q rdf.Quad) error {
	_, err := execute(s, func() (struct{}, error) { return struct{}{}, s.inner.Insert(ctx, q) })
	return err
}

func (s *Store) Remove(ctx context.Context, q rdf.Quad) error {
	_, err := execute(s, func() (struct{}, error) { return struct{}{}, s.inner.Remove(ctx, q) })
	return err
}

func (s *Store) RemoveGraph(ctx context.Context, graph rdf.IRI) error {
	_, err := execute(s, func() (struct{}, error) { return struct{}{}, s.inner.RemoveGraph(ctx, graph) })
	return err
}

func (s *Store) Query(ctx context.Context, pattern rdf.Pattern) ([]rdf.Quad, error) {
	return execute(s, func() ([]rdf.Quad, error) { return s.inner.Query(ctx, pattern) })
}

func (s *Store) Exists(ctx context.Context, pattern rdf.Pattern) (bool, error) {
	return execute(s, func() (bool, error) { return s.inner.Exists(ctx, pattern) })
}

func (s *Store) Apply(ctx context.Context, ops []store.Mutation) error {
	_, err := execute(s, func() (struct{}, error) { return struct{}{}, s.inner.Apply(ctx, ops) })
	return err
}

var _ store.QuadStore = (*Store)(nil)
