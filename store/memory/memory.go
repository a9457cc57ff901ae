// Package memory implements store.QuadStore with a per-graph indexed quad
// set. It is the default backend for tests and small deployments, grounded
// on the teacher's internal/service/memory in-process repository plus
// infrastructure/persistence/memory's "everything lives in process state"
// approach, generalized from node/edge rows to arbitrary quads.
package memory

import (
	"context"
	"sync"

	"github.com/gregjan/trellis/rdf"
	"github.com/gregjan/trellis/store"
)

// Store is an in-memory store.QuadStore. The zero value is not usable; use
// New.
type Store struct {
	mu    sync.RWMutex
	quads map[rdf.IRI]map[quadKey]rdf.Quad
}

type quadKey struct {
	subject   string
	predicate rdf.IRI
	object    string
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{quads: make(map[rdf.IRI]map[quadKey]rdf.Quad)}
}

func keyOf(q rdf.Quad) quadKey {
	return quadKey{subject: q.Subject.String(), predicate: q.Predicate, object: q.Object.String()}
}

func (s *Store) insertLocked(q rdf.Quad) {
	graph, ok := s.quads[q.Graph]
	if !ok {
		graph = make(map[quadKey]rdf.Quad)
		s.quads[q.Graph] = graph
	}
	graph[keyOf(q)] = q
}

func (s *Store) Insert(ctx context.Context, q rdf.Quad) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(q)
	return nil
}

func (s *Store) Remove(ctx context.Context, q rdf.Quad) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if graph, ok := s.quads[q.Graph]; ok {
		delete(graph, keyOf(q))
	}
	return nil
}

func (s *Store) RemoveGraph(ctx context.Context, graph rdf.IRI) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.quads, graph)
	return nil
}

func (s *Store) Query(ctx context.Context, pattern rdf.Pattern) ([]rdf.Quad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []rdf.Quad
	if pattern.Graph != nil {
		for _, q := range s.quads[*pattern.Graph] {
			if pattern.Match(q) {
				out = append(out, q)
			}
		}
		return out, nil
	}
	for _, graph := range s.quads {
		for _, q := range graph {
			if pattern.Match(q) {
				out = append(out, q)
			}
		}
	}
	return out, nil
}

func (s *Store) Exists(ctx context.Context, pattern rdf.Pattern) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if pattern.Graph != nil {
		for _, q := range s.quads[*pattern.Graph] {
			if pattern.Match(q) {
				return true, nil
			}
		}
		return false, nil
	}
	for _, graph := range s.quads {
		for _, q := range graph {
			if pattern.Match(q) {
				return true, nil
			}
		}
	}
	return false, nil
}

// Apply applies the batch under a single write lock, so readers never
// observe a partially-applied batch.
func (s *Store) Apply(ctx context.Context, ops []store.Mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, op := range ops {
		switch op.Kind {
		case store.MutationInsert:
			s.insertLocked(op.Quad)
		case store.MutationRemoveGraph:
			delete(s.quads, op.Graph)
		case store.MutationRemoveSubject:
			graph, ok := s.quads[op.Graph]
			if !ok {
				continue
			}
			subject := op.Subject.String()
			for k, q := range graph {
				if q.Subject.String() == subject {
					delete(graph, k)
				}
			}
		case store.MutationRemovePredicate:
			graph, ok := s.quads[op.Graph]
			if !ok {
				continue
			}
			subject := op.Subject.String()
			for k, q := range graph {
				if q.Subject.String() == subject && q.Predicate == op.Quad.Predicate {
					delete(graph, k)
				}
			}
		}
	}
	return nil
}

var _ store.QuadStore = (*Store)(nil)
