// Package harness implements the store.QuadStore test-harness contract
// (spec.md §8, SPEC_FULL.md §4.5): a single suite of behavioral assertions
// runnable against any backend, so `store/memory` and `store/external` are
// held to exactly the same contract instead of each growing its own
// divergent test file. Grounded on the teacher's
// internal/service/memory/service_test.go mock-driven test style,
// generalized from one concrete backend to a factory-parameterized suite.
package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gregjan/trellis/rdf"
	"github.com/gregjan/trellis/store"
)

// Suite runs every store.QuadStore contract assertion against a fresh
// instance built by factory. factory is called once per subtest so state
// from one assertion never leaks into the next.
func Suite(t *testing.T, factory func() store.QuadStore) {
	t.Helper()

	t.Run("InsertThenQueryByGraph", func(t *testing.T) { testInsertThenQueryByGraph(t, factory()) })
	t.Run("QueryBySubjectWithinGraph", func(t *testing.T) { testQueryBySubjectWithinGraph(t, factory()) })
	t.Run("QueryByPredicateAndObjectWithoutSubject", func(t *testing.T) {
		testQueryByPredicateAndObjectWithoutSubject(t, factory())
	})
	t.Run("ExistsReflectsQuery", func(t *testing.T) { testExistsReflectsQuery(t, factory()) })
	t.Run("RemoveDeletesExactlyOneMatch", func(t *testing.T) { testRemoveDeletesExactlyOneMatch(t, factory()) })
	t.Run("RemoveGraphIsIsolatedToThatGraph", func(t *testing.T) { testRemoveGraphIsIsolated(t, factory()) })
	t.Run("ApplyInsertAndRemoveGraphIsAtomic", func(t *testing.T) { testApplyIsAtomic(t, factory()) })
	t.Run("ApplyRemoveSubjectLeavesOtherSubjects", func(t *testing.T) { testApplyRemoveSubject(t, factory()) })
	t.Run("ApplyRemovePredicateLeavesOtherPredicates", func(t *testing.T) { testApplyRemovePredicate(t, factory()) })
	t.Run("RepeatedQueryIsDeterministic", func(t *testing.T) { testRepeatedQueryDeterministic(t, factory()) })
}

func testInsertThenQueryByGraph(t *testing.T, s store.QuadStore) {
	ctx := context.Background()
	q := rdf.NewQuad("g1", rdf.IRI("s1"), rdf.IRI("p1"), rdf.NewStringLiteral("v1"))
	require.NoError(t, s.Insert(ctx, q))

	got, err := s.Query(ctx, store.GraphPattern("g1"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Equals(q))

	other, err := s.Query(ctx, store.GraphPattern("g2"))
	require.NoError(t, err)
	assert.Empty(t, other)
}

func testQueryBySubjectWithinGraph(t *testing.T, s store.QuadStore) {
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, rdf.NewQuad("g1", rdf.IRI("a"), rdf.IRI("p"), rdf.NewStringLiteral("1"))))
	require.NoError(t, s.Insert(ctx, rdf.NewQuad("g1", rdf.IRI("a"), rdf.IRI("q"), rdf.NewStringLiteral("2"))))
	require.NoError(t, s.Insert(ctx, rdf.NewQuad("g1", rdf.IRI("b"), rdf.IRI("p"), rdf.NewStringLiteral("3"))))

	got, err := s.Query(ctx, store.SubjectPattern("g1", rdf.IRI("a")))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func testQueryByPredicateAndObjectWithoutSubject(t *testing.T, s store.QuadStore) {
	ctx := context.Background()
	member := rdf.IRI("member-1")
	require.NoError(t, s.Insert(ctx, rdf.NewQuad("g1", rdf.IRI("container-a"), rdf.IRI("ldp:member"), member)))
	require.NoError(t, s.Insert(ctx, rdf.NewQuad("g1", rdf.IRI("container-b"), rdf.IRI("ldp:member"), rdf.IRI("member-2"))))

	got, err := s.Query(ctx, rdf.Pattern{Graph: ptr(rdf.IRI("g1")), Predicate: ptr(rdf.IRI("ldp:member")), Object: member})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rdf.IRI("container-a"), got[0].Subject)
}

func testExistsReflectsQuery(t *testing.T, s store.QuadStore) {
	ctx := context.Background()
	pattern := store.SubjectPattern("g1", rdf.IRI("s1"))

	ok, err := s.Exists(ctx, pattern)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Insert(ctx, rdf.NewQuad("g1", rdf.IRI("s1"), rdf.IRI("p1"), rdf.NewStringLiteral("v1"))))

	ok, err = s.Exists(ctx, pattern)
	require.NoError(t, err)
	assert.True(t, ok)
}

func testRemoveDeletesExactlyOneMatch(t *testing.T, s store.QuadStore) {
	ctx := context.Background()
	q := rdf.NewQuad("g1", rdf.IRI("s1"), rdf.IRI("p1"), rdf.NewStringLiteral("v1"))
	other := rdf.NewQuad("g1", rdf.IRI("s1"), rdf.IRI("p2"), rdf.NewStringLiteral("v2"))
	require.NoError(t, s.Insert(ctx, q))
	require.NoError(t, s.Insert(ctx, other))

	require.NoError(t, s.Remove(ctx, q))

	got, err := s.Query(ctx, store.GraphPattern("g1"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Equals(other))
}

func testRemoveGraphIsIsolated(t *testing.T, s store.QuadStore) {
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, rdf.NewQuad("g1", rdf.IRI("s1"), rdf.IRI("p1"), rdf.NewStringLiteral("a"))))
	require.NoError(t, s.Insert(ctx, rdf.NewQuad("g2", rdf.IRI("s1"), rdf.IRI("p1"), rdf.NewStringLiteral("b"))))

	require.NoError(t, s.RemoveGraph(ctx, "g1"))

	g1, err := s.Query(ctx, store.GraphPattern("g1"))
	require.NoError(t, err)
	assert.Empty(t, g1)

	g2, err := s.Query(ctx, store.GraphPattern("g2"))
	require.NoError(t, err)
	assert.Len(t, g2, 1)
}

func testApplyIsAtomic(t *testing.T, s store.QuadStore) {
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, rdf.NewQuad("id", rdf.IRI("id"), rdf.IRI("p"), rdf.NewStringLiteral("old"))))

	ops := []store.Mutation{
		store.RemoveGraphMutation("id"),
		store.InsertMutation(rdf.NewQuad("id", rdf.IRI("id"), rdf.IRI("p"), rdf.NewStringLiteral("new"))),
	}
	require.NoError(t, s.Apply(ctx, ops))

	got, err := s.Query(ctx, store.GraphPattern("id"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rdf.NewStringLiteral("new"), got[0].Object)
}

func testApplyRemoveSubject(t *testing.T, s store.QuadStore) {
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, rdf.NewQuad("shared", rdf.IRI("a"), rdf.IRI("p"), rdf.NewStringLiteral("1"))))
	require.NoError(t, s.Insert(ctx, rdf.NewQuad("shared", rdf.IRI("b"), rdf.IRI("p"), rdf.NewStringLiteral("2"))))

	require.NoError(t, s.Apply(ctx, []store.Mutation{store.RemoveSubjectMutation("shared", rdf.IRI("a"))}))

	got, err := s.Query(ctx, store.GraphPattern("shared"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rdf.IRI("b"), got[0].Subject)
}

func testApplyRemovePredicate(t *testing.T, s store.QuadStore) {
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, rdf.NewQuad("shared", rdf.IRI("a"), rdf.IRI("dc:modified"), rdf.NewStringLiteral("old"))))
	require.NoError(t, s.Insert(ctx, rdf.NewQuad("shared", rdf.IRI("a"), rdf.IRI("rdf:type"), rdf.IRI("RDFSource"))))

	require.NoError(t, s.Apply(ctx, []store.Mutation{
		store.RemovePredicateMutation("shared", rdf.IRI("a"), rdf.IRI("dc:modified")),
		store.InsertMutation(rdf.NewQuad("shared", rdf.IRI("a"), rdf.IRI("dc:modified"), rdf.NewStringLiteral("new"))),
	}))

	got, err := s.Query(ctx, store.SubjectPattern("shared", rdf.IRI("a")))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	var sawOld, sawNew, sawType bool
	for _, q := range got {
		switch {
		case q.Predicate == rdf.IRI("dc:modified") && q.Object == rdf.NewStringLiteral("old"):
			sawOld = true
		case q.Predicate == rdf.IRI("dc:modified") && q.Object == rdf.NewStringLiteral("new"):
			sawNew = true
		case q.Predicate == rdf.IRI("rdf:type"):
			sawType = true
		}
	}
	assert.False(t, sawOld)
	assert.True(t, sawNew)
	assert.True(t, sawType)
}

func testRepeatedQueryDeterministic(t *testing.T, s store.QuadStore) {
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, rdf.NewQuad("g1", rdf.IRI("s1"), rdf.IRI("p1"), rdf.NewStringLiteral("v1"))))
	require.NoError(t, s.Insert(ctx, rdf.NewQuad("g1", rdf.IRI("s2"), rdf.IRI("p1"), rdf.NewStringLiteral("v2"))))

	first, err := s.Query(ctx, store.GraphPattern("g1"))
	require.NoError(t, err)
	second, err := s.Query(ctx, store.GraphPattern("g1"))
	require.NoError(t, err)

	assert.ElementsMatch(t, first, second)
}

func ptr[T any](v T) *T { return &v }
