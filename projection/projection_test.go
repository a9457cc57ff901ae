package projection_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gregjan/trellis/internal/apperr"
	"github.com/gregjan/trellis/model"
	"github.com/gregjan/trellis/projection"
	"github.com/gregjan/trellis/rdf"
	"github.com/gregjan/trellis/store"
	"github.com/gregjan/trellis/store/memory"
)

func serverManaged(id rdf.IRI, pred rdf.IRI, obj rdf.Term) rdf.Quad {
	return rdf.NewQuad(rdf.TrellisPreferServerManaged, id, pred, obj)
}

func TestFindReturnsMissingForUnknownIdentifier(t *testing.T) {
	s := memory.New()
	view, err := projection.Find(context.Background(), s, rdf.IRI("http://example.org/none"), false)
	require.NoError(t, err)
	assert.True(t, view.IsMissing())
}

func TestFindReturnsDeletedForTombstone(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	id := rdf.IRI("http://example.org/gone")
	require.NoError(t, s.Insert(ctx, serverManaged(id, rdf.RDFType, model.RDFSource)))
	require.NoError(t, s.Insert(ctx, serverManaged(id, rdf.DCType, rdf.TrellisDeletedResource)))

	view, err := projection.Find(ctx, s, id, false)
	require.NoError(t, err)
	assert.True(t, view.IsDeleted())
}

func TestFindLiveResourceUserManagedGraph(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	id := rdf.IRI("http://example.org/doc")
	modified := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Insert(ctx, serverManaged(id, rdf.RDFType, model.RDFSource)))
	require.NoError(t, s.Insert(ctx, serverManaged(id, rdf.DCModified, rdf.NewTypedLiteral(modified.Format(time.RFC3339Nano), rdf.IRI("http://www.w3.org/2001/XMLSchema#dateTime")))))
	require.NoError(t, s.Insert(ctx, rdf.NewQuad(id, id, rdf.IRI("http://example.org/title"), rdf.NewStringLiteral("hello"))))

	view, err := projection.Find(ctx, s, id, false)
	require.NoError(t, err)
	require.True(t, view.IsLive())
	assert.Equal(t, model.RDFSource, view.Resource.InteractionModel)
	assert.True(t, view.Resource.Modified.Equal(modified))

	quads, err := view.Resource.Stream(ctx, model.PreferUserManaged)
	require.NoError(t, err)
	require.Len(t, quads, 1)
	assert.Equal(t, rdf.IRI("http://example.org/title"), quads[0].Predicate)
}

func TestFindIncludesTypeTripleWhenRequested(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	id := rdf.IRI("http://example.org/doc")
	require.NoError(t, s.Insert(ctx, serverManaged(id, rdf.RDFType, model.RDFSource)))

	view, err := projection.Find(ctx, s, id, true)
	require.NoError(t, err)
	quads, err := view.Resource.Stream(ctx, model.PreferUserManaged)
	require.NoError(t, err)
	require.Len(t, quads, 1)
	assert.Equal(t, rdf.RDFType, quads[0].Predicate)
	assert.Equal(t, model.RDFSource, quads[0].Object)
}

func TestFindContainmentListsChildren(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	parent := rdf.IRI("http://example.org/container")
	child := rdf.IRI("http://example.org/container/child")

	require.NoError(t, s.Insert(ctx, serverManaged(parent, rdf.RDFType, model.BasicContainer)))
	require.NoError(t, s.Insert(ctx, serverManaged(child, rdf.RDFType, model.RDFSource)))
	require.NoError(t, s.Insert(ctx, serverManaged(child, rdf.DCIsPartOf, parent)))

	view, err := projection.Find(ctx, s, parent, false)
	require.NoError(t, err)
	require.True(t, view.IsLive())

	quads, err := view.Resource.Stream(ctx, model.PreferContainment)
	require.NoError(t, err)
	require.Len(t, quads, 1)
	assert.Equal(t, rdf.LDPContains, quads[0].Predicate)
	assert.Equal(t, child, quads[0].Object)
}

func TestFindDirectContainerForwardMembership(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	container := rdf.IRI("http://example.org/container")
	m := rdf.IRI("http://example.org/m")
	child := rdf.IRI("http://example.org/container/child")
	relation := rdf.IRI("http://example.org/ns#member")

	require.NoError(t, s.Insert(ctx, serverManaged(container, rdf.RDFType, model.DirectContainer)))
	require.NoError(t, s.Insert(ctx, serverManaged(container, rdf.LDPMembershipResource, m)))
	require.NoError(t, s.Insert(ctx, serverManaged(container, rdf.LDPHasMemberRelation, relation)))
	require.NoError(t, s.Insert(ctx, serverManaged(container, rdf.LDPIsMemberOfRelation, relation)))
	require.NoError(t, s.Insert(ctx, serverManaged(container, rdf.LDPInsertedContentRelation, rdf.LDPMemberSubject)))
	require.NoError(t, s.Insert(ctx, serverManaged(container, rdf.LDPMember, m)))
	require.NoError(t, s.Insert(ctx, serverManaged(m, rdf.RDFType, model.RDFSource)))
	require.NoError(t, s.Insert(ctx, serverManaged(child, rdf.RDFType, model.RDFSource)))
	require.NoError(t, s.Insert(ctx, serverManaged(child, rdf.DCIsPartOf, container)))

	view, err := projection.Find(ctx, s, m, false)
	require.NoError(t, err)
	require.True(t, view.IsLive())

	quads, err := view.Resource.Stream(ctx, model.PreferMembership)
	require.NoError(t, err)
	require.Len(t, quads, 1)
	assert.Equal(t, m, quads[0].Subject)
	assert.Equal(t, relation, quads[0].Predicate)
	assert.Equal(t, child, quads[0].Object)
}

func TestFindDirectContainerInverseMembership(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	container := rdf.IRI("http://example.org/container")
	m := rdf.IRI("http://example.org/m")
	child := rdf.IRI("http://example.org/container/child")
	relation := rdf.IRI("http://example.org/ns#isMemberOf")

	require.NoError(t, s.Insert(ctx, serverManaged(container, rdf.RDFType, model.DirectContainer)))
	require.NoError(t, s.Insert(ctx, serverManaged(container, rdf.LDPMembershipResource, m)))
	require.NoError(t, s.Insert(ctx, serverManaged(container, rdf.LDPIsMemberOfRelation, relation)))
	require.NoError(t, s.Insert(ctx, serverManaged(container, rdf.LDPInsertedContentRelation, rdf.LDPMemberSubject)))
	require.NoError(t, s.Insert(ctx, serverManaged(child, rdf.RDFType, model.RDFSource)))
	require.NoError(t, s.Insert(ctx, serverManaged(child, rdf.DCIsPartOf, container)))

	view, err := projection.Find(ctx, s, child, false)
	require.NoError(t, err)
	require.True(t, view.IsLive())

	quads, err := view.Resource.Stream(ctx, model.PreferMembership)
	require.NoError(t, err)
	require.Len(t, quads, 1)
	assert.Equal(t, child, quads[0].Subject)
	assert.Equal(t, relation, quads[0].Predicate)
	assert.Equal(t, m, quads[0].Object)
}

func TestFindIndirectContainerMembership(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	container := rdf.IRI("http://example.org/container")
	m := rdf.IRI("http://example.org/m")
	child := rdf.IRI("http://example.org/container/child")
	relation := rdf.IRI("http://purl.org/dc/terms/relation")
	icr := rdf.IRI("http://xmlns.com/foaf/0.1/primaryTopic")
	topic := rdf.IRI("http://example.org/topic")

	require.NoError(t, s.Insert(ctx, serverManaged(container, rdf.RDFType, model.IndirectContainer)))
	require.NoError(t, s.Insert(ctx, serverManaged(container, rdf.LDPMembershipResource, m)))
	require.NoError(t, s.Insert(ctx, serverManaged(container, rdf.LDPHasMemberRelation, relation)))
	require.NoError(t, s.Insert(ctx, serverManaged(container, rdf.LDPInsertedContentRelation, icr)))
	require.NoError(t, s.Insert(ctx, serverManaged(container, rdf.LDPMember, m)))
	require.NoError(t, s.Insert(ctx, serverManaged(m, rdf.RDFType, model.RDFSource)))
	require.NoError(t, s.Insert(ctx, serverManaged(child, rdf.RDFType, model.RDFSource)))
	require.NoError(t, s.Insert(ctx, serverManaged(child, rdf.DCIsPartOf, container)))
	require.NoError(t, s.Insert(ctx, rdf.NewQuad(child, child, icr, topic)))

	view, err := projection.Find(ctx, s, m, false)
	require.NoError(t, err)
	require.True(t, view.IsLive())

	quads, err := view.Resource.Stream(ctx, model.PreferMembership)
	require.NoError(t, err)
	require.Len(t, quads, 1)
	assert.Equal(t, m, quads[0].Subject)
	assert.Equal(t, relation, quads[0].Predicate)
	assert.Equal(t, topic, quads[0].Object)
}

func TestFindNonRDFSourceBinaryMetadata(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	id := rdf.IRI("http://example.org/file")
	location := rdf.IRI("http://example.org/file/binary")
	modified := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Insert(ctx, serverManaged(id, rdf.RDFType, model.NonRDFSource)))
	require.NoError(t, s.Insert(ctx, serverManaged(id, rdf.DCHasPart, location)))
	require.NoError(t, s.Insert(ctx, serverManaged(location, rdf.DCModified, rdf.NewStringLiteral(modified.Format(time.RFC3339Nano)))))
	require.NoError(t, s.Insert(ctx, serverManaged(location, rdf.DCFormat, rdf.NewStringLiteral("text/plain"))))
	require.NoError(t, s.Insert(ctx, serverManaged(location, rdf.DCExtent, rdf.NewStringLiteral("42"))))

	view, err := projection.Find(ctx, s, id, false)
	require.NoError(t, err)
	require.True(t, view.IsLive())
	require.NotNil(t, view.Resource.Binary)
	assert.Equal(t, location, view.Resource.Binary.Location)
	assert.True(t, view.Resource.Binary.Modified.Equal(modified))
	require.NotNil(t, view.Resource.Binary.MimeType)
	assert.Equal(t, "text/plain", *view.Resource.Binary.MimeType)
	require.NotNil(t, view.Resource.Binary.Size)
	assert.Equal(t, int64(42), *view.Resource.Binary.Size)
}

func TestFindNonRDFSourceMissingDescriptorIsConstraintViolation(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	id := rdf.IRI("http://example.org/file")
	require.NoError(t, s.Insert(ctx, serverManaged(id, rdf.RDFType, model.NonRDFSource)))

	_, err := projection.Find(ctx, s, id, false)
	require.Error(t, err)
	assert.True(t, apperr.IsConstraintViolation(err))
}

var _ store.QuadStore = (*memory.Store)(nil)
