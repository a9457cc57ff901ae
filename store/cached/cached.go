// Package cached adds a Redis read-aside cache in front of a
// store.QuadStore's Query calls (Exists always passes through uncached),
// grounded on the teacher's
// internal/infrastructure/persistence/cache/caching_repository.go
// decorator (cache-aside, configurable TTL, invalidate-on-write), using
// go-redis (the caching stack demonstrated by LerianStudio-midaz's
// redis.v9 client) instead of the teacher's bespoke Cache interface.
//
// Only whole-graph queries (pattern.Subject/Predicate/Object all nil) are
// cached: those are the per-graph projection reads (user-managed, audit,
// access-control) the projection layer issues, and they invalidate cleanly
// on RemoveGraph/Apply without needing sub-pattern cache keys. The
// server-managed metadata fetch names a subject, so it is not cached.
package cached

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gregjan/trellis/rdf"
	"github.com/gregjan/trellis/store"
)

// Store decorates inner with a Redis-backed cache of whole-graph reads.
type Store struct {
	inner     store.QuadStore
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// New builds a cached decorator. A zero ttl disables caching: Query and
// Exists pass straight through to inner, but Insert, Remove, RemoveGraph
// and Apply still issue their invalidating Del calls on client first.
func New(inner store.QuadStore, client *redis.Client, keyPrefix string, ttl time.Duration) *Store {
	return &Store{inner: inner, client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (s *Store) graphKey(graph rdf.IRI) string {
	return fmt.Sprintf("%sgraph:%s", s.keyPrefix, graph)
}

func (s *Store) Query(ctx context.Context, pattern rdf.Pattern) ([]rdf.Quad, error) {
	if s.ttl <= 0 || pattern.Graph == nil || pattern.Subject != nil || pattern.Predicate != nil || pattern.Object != nil {
		return s.inner.Query(ctx, pattern)
	}

	key := s.graphKey(*pattern.Graph)
	if cached, err := s.client.Get(ctx, key).Bytes(); err == nil {
		var quads []cachedQuad
		if json.Unmarshal(cached, &quads) == nil {
			return decodeQuads(quads), nil
		}
	}

	quads, err := s.inner.Query(ctx, pattern)
	if err != nil {
		return nil, err
	}
	if encoded, err := json.Marshal(encodeQuads(quads)); err == nil {
		s.client.Set(ctx, key, encoded, s.ttl)
	}
	return quads, nil
}

func (s *Store) Exists(ctx context.Context, pattern rdf.Pattern) (bool, error) {
	return s.inner.Exists(ctx, pattern)
}

func (s *Store) Insert(ctx context.Context, q rdf.Quad) error {
	s.client.Del(ctx, s.graphKey(q.Graph))
	return s.inner.Insert(ctx, q)
}

func (s *Store) Remove(ctx context.Context, q rdf.Quad) error {
	s.client.Del(ctx, s.graphKey(q.Graph))
	return s.inner.Remove(ctx, q)
}

func (s *Store) RemoveGraph(ctx context.Context, graph rdf.IRI) error {
	s.client.Del(ctx, s.graphKey(graph))
	return s.inner.RemoveGraph(ctx, graph)
}

func (s *Store) Apply(ctx context.Context, ops []store.Mutation) error {
	for _, op := range ops {
		switch op.Kind {
		case store.MutationInsert:
			s.client.Del(ctx, s.graphKey(op.Quad.Graph))
		case store.MutationRemoveGraph, store.MutationRemoveSubject, store.MutationRemovePredicate:
			s.client.Del(ctx, s.graphKey(op.Graph))
		}
	}
	return s.inner.Apply(ctx, ops)
}

// cachedQuad is the JSON-friendly wire shape for a cached quad: RDF terms
// don't round-trip through encoding/json on their own since rdf.Term is an
// interface, so we flatten each term to a tagged (kind, value, extra) triple.
type cachedQuad struct {
	Graph     rdf.IRI `json:"g"`
	Subject   term    `json:"s"`
	Predicate rdf.IRI `json:"p"`
	Object    term    `json:"o"`
}

type term struct {
	Kind     string `json:"k"` // "iri" | "blank" | "literal"
	Value    string `json:"v"`
	Datatype string `json:"dt,omitempty"`
	Lang     string `json:"lang,omitempty"`
}

func encodeTerm(t rdf.Term) term {
	switch v := t.(type) {
	case rdf.IRI:
		return term{Kind: "iri", Value: string(v)}
	case rdf.BlankNode:
		return term{Kind: "blank", Value: string(v)}
	case rdf.Literal:
		return term{Kind: "literal", Value: v.Lexical, Datatype: string(v.Datatype), Lang: v.Lang}
	default:
		return term{Kind: "iri", Value: t.String()}
	}
}

func decodeTerm(t term) rdf.Term {
	switch t.Kind {
	case "blank":
		return rdf.BlankNode(t.Value)
	case "literal":
		return rdf.Literal{Lexical: t.Value, Datatype: rdf.IRI(t.Datatype), Lang: t.Lang}
	default:
		return rdf.IRI(t.Value)
	}
}

func encodeQuads(quads []rdf.Quad) []cachedQuad {
	out := make([]cachedQuad, len(quads))
	for i, q := range quads {
		out[i] = cachedQuad{Graph: q.Graph, Subject: encodeTerm(q.Subject), Predicate: q.Predicate, Object: encodeTerm(q.Object)}
	}
	return out
}

func decodeQuads(quads []cachedQuad) []rdf.Quad {
	out := make([]rdf.Quad, len(quads))
	for i, q := range quads {
		out[i] = rdf.Quad{
			Graph:     q.Graph,
			Subject:   decodeTerm(q.Subject).(rdf.SubjectTerm),
			Predicate: q.Predicate,
			Object:    decodeTerm(q.Object),
		}
	}
	return out
}

var _ store.QuadStore = (*Store)(nil)
