// Package store defines the minimal quad-store capability every backend
// must satisfy, grounded on the teacher's interface-segregation style
// (internal/repository/interfaces.go) but trimmed to spec.md §4.1's
// explicit minimal capability set: insert, remove, remove-all-of-graph,
// pattern query, and existence check. No query-engine vocabulary leaks
// above this interface.
package store

import (
	"context"

	"github.com/gregjan/trellis/rdf"
)

// QuadStore is the capability interface a backend must implement. Callers
// above this package never see backend-specific types.
type QuadStore interface {
	// Insert adds a single quad. Duplicate inserts are tolerated but not
	// retained: inserting a quad identical to one already stored leaves a
	// single copy, so each graph holds a set of quads, not a multiset like
	// rdf.Dataset.
	Insert(ctx context.Context, q rdf.Quad) error

	// Remove deletes the matching quad, if present.
	Remove(ctx context.Context, q rdf.Quad) error

	// RemoveGraph deletes every quad in the named graph.
	RemoveGraph(ctx context.Context, graph rdf.IRI) error

	// Query returns every quad in the store matching the pattern. No
	// ordering is guaranteed across calls except that repeated calls
	// against unchanged state return the same set (§4.1 "deterministic
	// iteration when the same transaction state is observed").
	Query(ctx context.Context, pattern rdf.Pattern) ([]rdf.Quad, error)

	// Exists reports whether any quad matches the pattern.
	Exists(ctx context.Context, pattern rdf.Pattern) (bool, error)

	// Apply performs a batch of mutations atomically with respect to any
	// single identifier touched by the batch: concurrent readers of that
	// identifier observe either the full pre-state or the full post-state,
	// never a partial application (spec.md §4.3 "atomicity scoped to a
	// single identifier"). Mutations touching distinct identifiers within
	// one call are not required to be atomic with respect to each other.
	Apply(ctx context.Context, ops []Mutation) error
}

// MutationKind distinguishes the operations a Mutation batch can contain.
type MutationKind int

const (
	MutationInsert MutationKind = iota
	MutationRemoveGraph
	// MutationRemoveSubject deletes every quad in Graph whose subject matches
	// Subject. It gives the resource service a way to atomically replace a
	// single identifier's row within the shared server-managed graph (which
	// cannot be cleared wholesale the way a per-resource graph can, since it
	// holds every identifier's metadata) — grounded on the same
	// single-identifier atomicity requirement that motivated Apply itself.
	MutationRemoveSubject
	// MutationRemovePredicate deletes every quad in Graph whose subject and
	// predicate match Subject and Quad.Predicate, leaving the subject's
	// other predicates untouched. Used by touch() to update dc:modified
	// without disturbing the rest of a resource's server-managed row.
	MutationRemovePredicate
)

// Mutation is one step of an atomic batch passed to QuadStore.Apply.
type Mutation struct {
	Kind    MutationKind
	Quad    rdf.Quad        // used when Kind == MutationInsert or MutationRemovePredicate (Predicate field only)
	Graph   rdf.IRI         // used when Kind != MutationInsert
	Subject rdf.SubjectTerm // used when Kind == MutationRemoveSubject or MutationRemovePredicate
}

// InsertMutation builds an insert step.
func InsertMutation(q rdf.Quad) Mutation { return Mutation{Kind: MutationInsert, Quad: q} }

// RemoveGraphMutation builds a remove-all-of-graph step.
func RemoveGraphMutation(graph rdf.IRI) Mutation {
	return Mutation{Kind: MutationRemoveGraph, Graph: graph}
}

// RemoveSubjectMutation builds a remove-all-quads-of-subject-within-graph step.
func RemoveSubjectMutation(graph rdf.IRI, subject rdf.SubjectTerm) Mutation {
	return Mutation{Kind: MutationRemoveSubject, Graph: graph, Subject: subject}
}

// RemovePredicateMutation builds a remove-all-quads-of-subject-and-predicate step.
func RemovePredicateMutation(graph rdf.IRI, subject rdf.SubjectTerm, predicate rdf.IRI) Mutation {
	return Mutation{Kind: MutationRemovePredicate, Graph: graph, Subject: subject, Quad: rdf.Quad{Predicate: predicate}}
}

// ptr is a small helper for building rdf.Pattern literals inline.
func ptr[T any](v T) *T { return &v }

// GraphPattern returns a pattern matching every quad in a single named
// graph, the dispatch table's most common query shape.
func GraphPattern(graph rdf.IRI) rdf.Pattern {
	return rdf.Pattern{Graph: ptr(graph)}
}

// SubjectPattern returns a pattern matching every quad with the given
// subject in the given graph.
func SubjectPattern(graph rdf.IRI, subject rdf.SubjectTerm) rdf.Pattern {
	return rdf.Pattern{Graph: ptr(graph), Subject: subject}
}
