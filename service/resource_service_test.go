package service

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gregjan/trellis/internal/apperr"
	"github.com/gregjan/trellis/model"
	"github.com/gregjan/trellis/rdf"
	"github.com/gregjan/trellis/session"
	"github.com/gregjan/trellis/store/binary"
	memstore "github.com/gregjan/trellis/store/memory"
)

const (
	dcTitle      rdf.IRI = "http://purl.org/dc/terms/title"
	dcSubject    rdf.IRI = "http://purl.org/dc/terms/subject"
	dcRelation   rdf.IRI = "http://purl.org/dc/terms/relation"
	skosConcept  rdf.IRI = "http://www.w3.org/2004/02/skos/core#Concept"
	skosPrefLbl  rdf.IRI = "http://www.w3.org/2004/02/skos/core#prefLabel"
	skosAltLbl   rdf.IRI = "http://www.w3.org/2004/02/skos/core#altLabel"
	foafTopic    rdf.IRI = "http://xmlns.com/foaf/0.1/primaryTopic"
	provAtTime   rdf.IRI = "http://www.w3.org/ns/prov#atTime"
	provGenBy    rdf.IRI = "http://www.w3.org/ns/prov#wasGeneratedBy"
	provActivity rdf.IRI = "http://www.w3.org/ns/prov#Activity"
	asCreate     rdf.IRI = "https://www.w3.org/ns/activitystreams#Create"
	asUpdate     rdf.IRI = "https://www.w3.org/ns/activitystreams#Update"

	agent rdf.IRI = "http://example.org/agents/tester"
)

func newTestService() *ResourceService {
	return NewResourceService(memstore.New(), nil, nil, nil, nil, nil, nil)
}

func testSession() session.Session {
	return session.New(agent)
}

func mustLive(t *testing.T, view model.ResourceView) *model.Resource {
	t.Helper()
	require.True(t, view.IsLive())
	require.NotNil(t, view.Resource)
	return view.Resource
}

// --- Universal invariants (spec.md §8) ---

func TestUniversalInvariant1CreateThenGetLive(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	id := rdf.IRI("http://example.org/r1")

	require.NoError(t, svc.Create(ctx, id, testSession(), model.RDFSource, rdf.NewDataset(), nil, nil))

	view, err := svc.Get(ctx, id)
	require.NoError(t, err)
	res := mustLive(t, view)
	assert.Equal(t, model.RDFSource, res.InteractionModel)
}

func TestUniversalInvariant2UserManagedGraphMatchesDataset(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	id := rdf.IRI("http://example.org/r2")

	d := rdf.NewDataset(
		rdf.NewQuad(id, id, dcTitle, rdf.NewStringLiteral("hello")),
		rdf.NewQuad(id, id, dcSubject, rdf.IRI("http://ex/subj/1")),
	)
	require.NoError(t, svc.Create(ctx, id, testSession(), model.RDFSource, d, nil, nil))

	view, err := svc.Get(ctx, id)
	require.NoError(t, err)
	res := mustLive(t, view)

	quads, err := res.Stream(ctx, model.PreferUserManaged)
	require.NoError(t, err)
	got := rdf.NewDataset(quads...)
	assert.True(t, got.Equivalent(d))
}

func TestUniversalInvariant3DeleteYieldsDeleted(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	id := rdf.IRI("http://example.org/r3")

	require.NoError(t, svc.Create(ctx, id, testSession(), model.RDFSource, rdf.NewDataset(), nil, nil))
	require.NoError(t, svc.Delete(ctx, id, testSession(), model.RDFSource, rdf.NewDataset()))

	view, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, view.IsDeleted())
}

func TestUniversalInvariant4GetMissingBeforeAnyOperation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	view, err := svc.Get(ctx, rdf.IRI("http://example.org/never-created"))
	require.NoError(t, err)
	assert.True(t, view.IsMissing())
}

func TestUniversalInvariant5ReplaceIsTotalNotAdditive(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	id := rdf.IRI("http://example.org/r5")

	d1 := rdf.NewDataset(rdf.NewQuad(id, id, dcTitle, rdf.NewStringLiteral("first")))
	require.NoError(t, svc.Create(ctx, id, testSession(), model.RDFSource, d1, nil, nil))

	d2 := rdf.NewDataset(rdf.NewQuad(id, id, skosPrefLbl, rdf.NewStringLiteral("second")))
	require.NoError(t, svc.Replace(ctx, id, testSession(), model.RDFSource, d2, nil, nil))

	view, err := svc.Get(ctx, id)
	require.NoError(t, err)
	res := mustLive(t, view)
	quads, err := res.Stream(ctx, model.PreferUserManaged)
	require.NoError(t, err)
	got := rdf.NewDataset(quads...)
	assert.True(t, got.Equivalent(d2))
	assert.Empty(t, got.Filter(rdf.Pattern{Predicate: ptr(dcTitle)}))
}

func TestUniversalInvariant6AddIsAppendOnly(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	id := rdf.IRI("http://example.org/r6")
	require.NoError(t, svc.Create(ctx, id, testSession(), model.RDFSource, rdf.NewDataset(), nil, nil))

	d1 := rdf.NewDataset(rdf.NewQuad(id, rdf.IRI("a1"), provAtTime, rdf.NewStringLiteral("t1")))
	d2 := rdf.NewDataset(rdf.NewQuad(id, rdf.IRI("a2"), provAtTime, rdf.NewStringLiteral("t2")))
	require.NoError(t, svc.Add(ctx, id, testSession(), d1))
	require.NoError(t, svc.Add(ctx, id, testSession(), d2))

	view, err := svc.Get(ctx, id)
	require.NoError(t, err)
	res := mustLive(t, view)
	quads, err := res.Stream(ctx, model.PreferAudit)
	require.NoError(t, err)
	assert.Len(t, quads, 2)
}

func TestUniversalInvariant7BasicContainerContainment(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	c := rdf.IRI("http://example.org/c7")
	child1 := rdf.IRI("http://example.org/c7/child1")
	child2 := rdf.IRI("http://example.org/c7/child2")

	require.NoError(t, svc.Create(ctx, c, testSession(), model.BasicContainer, rdf.NewDataset(), nil, nil))
	require.NoError(t, svc.Create(ctx, child1, testSession(), model.RDFSource, rdf.NewDataset(), &c, nil))
	require.NoError(t, svc.Create(ctx, child2, testSession(), model.RDFSource, rdf.NewDataset(), &c, nil))

	view, err := svc.Get(ctx, c)
	require.NoError(t, err)
	res := mustLive(t, view)
	quads, err := res.Stream(ctx, model.PreferContainment)
	require.NoError(t, err)
	require.Len(t, quads, 2)
	assert.ElementsMatch(t, []rdf.Quad{
		rdf.NewQuad(c, c, rdf.LDPContains, child1),
		rdf.NewQuad(c, c, rdf.LDPContains, child2),
	}, quads)
}

func TestUniversalInvariant8DirectContainerInverseMembership(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	c := rdf.IRI("http://example.org/c8")
	m := rdf.IRI("http://example.org/m8")
	isMemberOf := rdf.IRI("http://example.org/ns#isPartOfCollection")
	child := rdf.IRI("http://example.org/c8/child1")

	cfgDataset := rdf.NewDataset(
		rdf.NewQuad(c, c, rdf.LDPMembershipResource, m),
		rdf.NewQuad(c, c, rdf.LDPIsMemberOfRelation, isMemberOf),
	)
	require.NoError(t, svc.Create(ctx, c, testSession(), model.DirectContainer, cfgDataset, nil, nil))
	require.NoError(t, svc.Create(ctx, child, testSession(), model.RDFSource, rdf.NewDataset(), &c, nil))

	// The inverse sub-query fires on the child itself (see DESIGN.md's
	// projection/ note on invariant 8's prose vs. the literal §4.2 formula).
	view, err := svc.Get(ctx, child)
	require.NoError(t, err)
	res := mustLive(t, view)
	quads, err := res.Stream(ctx, model.PreferMembership)
	require.NoError(t, err)
	require.Len(t, quads, 1)
	assert.Equal(t, rdf.NewQuad(child, child, isMemberOf, m), quads[0])
}

func TestUniversalInvariant9IndirectContainerMembership(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	c := rdf.IRI("http://example.org/c9")
	child := rdf.IRI("http://example.org/c9/child1")

	cfgDataset := rdf.NewDataset(
		rdf.NewQuad(c, c, rdf.LDPMembershipResource, c),
		rdf.NewQuad(c, c, rdf.LDPHasMemberRelation, dcRelation),
		rdf.NewQuad(c, c, rdf.LDPInsertedContentRelation, foafTopic),
	)
	require.NoError(t, svc.Create(ctx, c, testSession(), model.IndirectContainer, cfgDataset, nil, nil))

	v := rdf.IRI("http://example.org/values/v1")
	childDataset := rdf.NewDataset(rdf.NewQuad(child, child, foafTopic, v))
	require.NoError(t, svc.Create(ctx, child, testSession(), model.RDFSource, childDataset, &c, nil))

	view, err := svc.Get(ctx, c)
	require.NoError(t, err)
	res := mustLive(t, view)
	quads, err := res.Stream(ctx, model.PreferMembership)
	require.NoError(t, err)
	require.Len(t, quads, 1)
	assert.Equal(t, c, quads[0].Subject)
	assert.Equal(t, dcRelation, quads[0].Predicate)
	assert.Equal(t, v, quads[0].Object)
}

func TestUniversalInvariant10GenerateIdentifierUniqueness(t *testing.T) {
	svc := newTestService()
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := svc.GenerateIdentifier()
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 1000)
}

func TestUniversalInvariant11ModifiedTimeWithinWindow(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	id := rdf.IRI("http://example.org/r11")

	before := time.Now()
	require.NoError(t, svc.Create(ctx, id, testSession(), model.RDFSource, rdf.NewDataset(), nil, nil))
	after := time.Now()

	view, err := svc.Get(ctx, id)
	require.NoError(t, err)
	res := mustLive(t, view)
	assert.True(t, !res.Modified.Before(before))
	assert.True(t, !res.Modified.After(after))
}

func TestUniversalInvariant12NonRDFSourceBinaryMetadata(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	id := rdf.IRI("http://example.org/r12")
	bin := &model.BinaryMetadata{
		Location: rdf.IRI("http://example.org/r12/content"),
		Modified: time.Now().Truncate(time.Millisecond),
	}
	require.NoError(t, svc.Create(ctx, id, testSession(), model.NonRDFSource, rdf.NewDataset(), nil, bin))

	view, err := svc.Get(ctx, id)
	require.NoError(t, err)
	res := mustLive(t, view)
	require.NotNil(t, res.Binary)
	assert.False(t, res.Binary.Modified.Before(bin.Modified))
}

func TestPutGetBinaryContentRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := NewResourceService(memstore.New(), nil, nil, nil, nil, nil, binary.NewMemoryContent())
	location := rdf.IRI("http://example.org/binaries/1")
	payload := []byte("round trip bytes")

	require.NoError(t, svc.PutBinaryContent(ctx, location, bytes.NewReader(payload), int64(len(payload))))

	rc, err := svc.GetBinaryContent(ctx, location)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	require.NoError(t, svc.DeleteBinaryContent(ctx, location))
	_, err = svc.GetBinaryContent(ctx, location)
	assert.True(t, apperr.IsNotFound(err))
}

func TestBinaryContentUnavailableWithoutConfiguredStore(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	err := svc.PutBinaryContent(ctx, rdf.IRI("http://example.org/binaries/2"), bytes.NewReader(nil), 0)
	assert.True(t, apperr.IsConstraintViolation(err))
}

func TestCreateRejectsUnsupportedInteractionModel(t *testing.T) {
	ctx := context.Background()
	svc := NewResourceService(memstore.New(), nil, nil, nil, nil, []rdf.IRI{model.RDFSource}, nil)
	err := svc.Create(ctx, rdf.IRI("http://example.org/unsupported"), testSession(), model.BasicContainer, rdf.NewDataset(), nil, nil)
	require.Error(t, err)
	assert.True(t, apperr.IsConstraintViolation(err))
}

func TestTouchRequiresLiveResource(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	err := svc.Touch(ctx, rdf.IRI("http://example.org/missing-for-touch"))
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

// --- Concrete scenarios (spec.md §8) ---

func TestScenarioS1CreateRDFSource(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	s1 := rdf.IRI("trellis:data/s1")
	parent := rdf.IRI("trellis:data/")

	d := rdf.NewDataset(
		rdf.NewQuad(s1, s1, dcTitle, rdf.NewStringLiteral("Creation Test")),
		rdf.NewQuad(s1, s1, dcSubject, rdf.IRI("http://ex/subj/1")),
		rdf.NewQuad(s1, s1, rdf.RDFType, skosConcept),
	)
	require.NoError(t, svc.Create(ctx, s1, testSession(), model.RDFSource, d, &parent, nil))

	view, err := svc.Get(ctx, s1)
	require.NoError(t, err)
	res := mustLive(t, view)
	quads, err := res.Stream(ctx, model.PreferUserManaged)
	require.NoError(t, err)
	require.Len(t, quads, 3)
	assert.True(t, rdf.NewDataset(quads...).Equivalent(d))
}

func TestScenarioS2Replace(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	s1 := rdf.IRI("trellis:data/s1")
	d1 := rdf.NewDataset(
		rdf.NewQuad(s1, s1, dcTitle, rdf.NewStringLiteral("Creation Test")),
		rdf.NewQuad(s1, s1, dcSubject, rdf.IRI("http://ex/subj/1")),
		rdf.NewQuad(s1, s1, rdf.RDFType, skosConcept),
	)
	require.NoError(t, svc.Create(ctx, s1, testSession(), model.RDFSource, d1, nil, nil))

	d2 := rdf.NewDataset(
		rdf.NewQuad(s1, s1, skosPrefLbl, rdf.NewStringLiteral("preferred")),
		rdf.NewQuad(s1, s1, skosAltLbl, rdf.NewStringLiteral("alt")),
		rdf.NewQuad(s1, s1, rdf.RDFType, skosConcept),
	)
	require.NoError(t, svc.Replace(ctx, s1, testSession(), model.RDFSource, d2, nil, nil))

	view, err := svc.Get(ctx, s1)
	require.NoError(t, err)
	res := mustLive(t, view)
	quads, err := res.Stream(ctx, model.PreferUserManaged)
	require.NoError(t, err)
	require.Len(t, quads, 3)
	got := rdf.NewDataset(quads...)
	assert.True(t, got.Equivalent(d2))
	assert.Empty(t, got.Filter(rdf.Pattern{Predicate: ptr(dcTitle)}))
	assert.Empty(t, got.Filter(rdf.Pattern{Predicate: ptr(dcSubject)}))
}

func TestScenarioS3Delete(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	s1 := rdf.IRI("trellis:data/s1")
	require.NoError(t, svc.Create(ctx, s1, testSession(), model.RDFSource, rdf.NewDataset(), nil, nil))
	require.NoError(t, svc.Delete(ctx, s1, testSession(), model.RDFSource, rdf.NewDataset()))

	view, err := svc.Get(ctx, s1)
	require.NoError(t, err)
	assert.True(t, view.IsDeleted())
}

func TestScenarioS4AuditAppend(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	s1 := rdf.IRI("trellis:data/s1")
	require.NoError(t, svc.Create(ctx, s1, testSession(), model.RDFSource, rdf.NewDataset(), nil, nil))

	a1 := rdf.IRI("trellis:data/s1#a1")
	createAudit := rdf.NewDataset(
		rdf.NewQuad(s1, s1, provGenBy, a1),
		rdf.NewQuad(s1, a1, rdf.RDFType, provActivity),
		rdf.NewQuad(s1, a1, rdf.RDFType, asCreate),
		rdf.NewQuad(s1, a1, provAtTime, rdf.NewStringLiteral("2026-01-01T00:00:00Z")),
	)
	require.NoError(t, svc.Add(ctx, s1, testSession(), createAudit))

	a2 := rdf.IRI("trellis:data/s1#a2")
	updateAudit := rdf.NewDataset(
		rdf.NewQuad(s1, s1, provGenBy, a2),
		rdf.NewQuad(s1, a2, rdf.RDFType, provActivity),
		rdf.NewQuad(s1, a2, rdf.RDFType, asUpdate),
		rdf.NewQuad(s1, a2, provAtTime, rdf.NewStringLiteral("2026-01-02T00:00:00Z")),
	)
	require.NoError(t, svc.Add(ctx, s1, testSession(), updateAudit))

	view, err := svc.Get(ctx, s1)
	require.NoError(t, err)
	res := mustLive(t, view)
	quads, err := res.Stream(ctx, model.PreferAudit)
	require.NoError(t, err)
	assert.Len(t, quads, 8)
}

func TestScenarioS5BasicContainer(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	c := rdf.IRI("trellis:data/c")
	child1 := rdf.IRI("trellis:data/c/child1")
	child2 := rdf.IRI("trellis:data/c/child2")

	require.NoError(t, svc.Create(ctx, c, testSession(), model.BasicContainer, rdf.NewDataset(), nil, nil))
	require.NoError(t, svc.Create(ctx, child1, testSession(), model.RDFSource, rdf.NewDataset(), &c, nil))
	require.NoError(t, svc.Create(ctx, child2, testSession(), model.RDFSource, rdf.NewDataset(), &c, nil))

	view, err := svc.Get(ctx, c)
	require.NoError(t, err)
	res := mustLive(t, view)
	quads, err := res.Stream(ctx, model.PreferContainment)
	require.NoError(t, err)
	require.Len(t, quads, 2)
	assert.ElementsMatch(t, []rdf.Quad{
		rdf.NewQuad(c, c, rdf.LDPContains, child1),
		rdf.NewQuad(c, c, rdf.LDPContains, child2),
	}, quads)
}

func TestScenarioS6IndirectContainer(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	c := rdf.IRI("trellis:data/c6")
	m := rdf.IRI("trellis:data/m6")
	child1 := rdf.IRI("trellis:data/c6/child1")
	child2 := rdf.IRI("trellis:data/c6/child2")

	// m is itself a live resource distinct from the container: the
	// membership projection is read via get(m), so m must exist.
	require.NoError(t, svc.Create(ctx, m, testSession(), model.RDFSource, rdf.NewDataset(), nil, nil))

	cfgDataset := rdf.NewDataset(
		rdf.NewQuad(c, c, rdf.LDPMembershipResource, m),
		rdf.NewQuad(c, c, rdf.LDPHasMemberRelation, dcRelation),
		rdf.NewQuad(c, c, rdf.LDPInsertedContentRelation, foafTopic),
	)
	require.NoError(t, svc.Create(ctx, c, testSession(), model.IndirectContainer, cfgDataset, nil, nil))

	v1 := rdf.IRI("http://example.org/values/v1")
	v2 := rdf.IRI("http://example.org/values/v2")
	require.NoError(t, svc.Create(ctx, child1, testSession(), model.RDFSource, rdf.NewDataset(rdf.NewQuad(child1, child1, foafTopic, v1)), &c, nil))
	require.NoError(t, svc.Create(ctx, child2, testSession(), model.RDFSource, rdf.NewDataset(rdf.NewQuad(child2, child2, foafTopic, v2)), &c, nil))

	view, err := svc.Get(ctx, m)
	require.NoError(t, err)
	res := mustLive(t, view)
	quads, err := res.Stream(ctx, model.PreferMembership)
	require.NoError(t, err)
	require.Len(t, quads, 2)
	assert.ElementsMatch(t, []rdf.Quad{
		rdf.NewQuad(m, m, dcRelation, v1),
		rdf.NewQuad(m, m, dcRelation, v2),
	}, quads)
}
