// Package projection implements the resource-projection algorithm of
// spec.md §4.2: given an identifier, derive the Resource view by executing
// a fixed set of graph patterns against a store.QuadStore. The six
// projection graphs are served by a closed dispatch table (spec.md §9), and
// membership is the union of three independent sub-queries.
package projection

import (
	"context"
	"strconv"
	"time"

	"github.com/gregjan/trellis/internal/apperr"
	"github.com/gregjan/trellis/model"
	"github.com/gregjan/trellis/rdf"
	"github.com/gregjan/trellis/store"
)

// metadataRow is the predicate -> object map read from the server-managed
// graph for a single subject.
type metadataRow map[rdf.IRI][]rdf.Term

func (r metadataRow) first(p rdf.IRI) (rdf.Term, bool) {
	vs, ok := r[p]
	if !ok || len(vs) == 0 {
		return nil, false
	}
	return vs[0], true
}

// Find derives the ResourceView for id per spec.md §4.2: a metadata fetch
// against the server-managed graph (with a left-outer join against the
// binary descriptor subject for NonRDFSource resources), classified into
// MISSING, DELETED, or a live Resource whose projection-graph accessor is
// backed by the closed graph-mapper dispatch below.
func Find(ctx context.Context, qs store.QuadStore, id rdf.IRI, includeTypeTriple bool) (model.ResourceView, error) {
	rows, err := qs.Query(ctx, store.SubjectPattern(rdf.TrellisPreferServerManaged, id))
	if err != nil {
		return model.ResourceView{}, apperr.NewBackendFailure("metadata fetch failed", err)
	}
	meta := rowsToMetadata(rows)
	if len(meta) == 0 {
		return model.Missing(), nil
	}
	if isDeleted(meta) {
		return model.Deleted(), nil
	}

	ixnTerm, ok := meta.first(rdf.RDFType)
	if !ok {
		return model.ResourceView{}, apperr.NewBackendFailure("live resource missing interaction-model triple", nil)
	}
	ixnModel, ok := ixnTerm.(rdf.IRI)
	if !ok {
		return model.ResourceView{}, apperr.NewBackendFailure("interaction-model object is not an IRI", nil)
	}

	modified := time.Now()
	if modTerm, ok := meta.first(rdf.DCModified); ok {
		if lit, ok := modTerm.(rdf.Literal); ok {
			if t, err := time.Parse(time.RFC3339Nano, lit.Lexical); err == nil {
				modified = t
			}
		}
	}

	res := model.NewResource(id, ixnModel, modified, func(ctx context.Context, g model.ProjectionGraph) ([]rdf.Quad, error) {
		return stream(ctx, qs, id, ixnModel, includeTypeTriple, g)
	})

	if parentTerm, ok := meta.first(rdf.DCIsPartOf); ok {
		if iri, ok := parentTerm.(rdf.IRI); ok {
			res.Parent = &iri
		}
	}
	if model.UsesMembership(ixnModel) {
		res.MembershipResource = iriPtr(meta, rdf.LDPMembershipResource)
		res.HasMemberRelation = iriPtr(meta, rdf.LDPHasMemberRelation)
		res.IsMemberOfRelation = iriPtr(meta, rdf.LDPIsMemberOfRelation)
		res.InsertedContentRelation = iriPtr(meta, rdf.LDPInsertedContentRelation)
	}
	if ixnModel == model.NonRDFSource {
		binary, err := fetchBinary(ctx, qs, meta)
		if err != nil {
			return model.ResourceView{}, err
		}
		res.Binary = binary
	}

	return model.Live(res), nil
}

func iriPtr(meta metadataRow, p rdf.IRI) *rdf.IRI {
	t, ok := meta.first(p)
	if !ok {
		return nil
	}
	iri, ok := t.(rdf.IRI)
	if !ok {
		return nil
	}
	return &iri
}

func isDeleted(meta metadataRow) bool {
	t, ok := meta.first(rdf.DCType)
	if !ok {
		return false
	}
	iri, ok := t.(rdf.IRI)
	return ok && iri == rdf.TrellisDeletedResource
}

func rowsToMetadata(rows []rdf.Quad) metadataRow {
	m := make(metadataRow)
	for _, q := range rows {
		m[q.Predicate] = append(m[q.Predicate], q.Object)
	}
	return m
}

// fetchBinary implements the left-outer-join half of the metadata fetch:
// resolve id's dc:hasPart object to a binary descriptor subject and read
// its own row from the server-managed graph.
func fetchBinary(ctx context.Context, qs store.QuadStore, meta metadataRow) (*model.BinaryMetadata, error) {
	locTerm, ok := meta.first(rdf.DCHasPart)
	if !ok {
		return nil, apperr.NewConstraintViolation("NonRDFSource missing required dc:hasPart triple")
	}
	location, ok := locTerm.(rdf.IRI)
	if !ok {
		return nil, apperr.NewConstraintViolation("dc:hasPart object is not an IRI")
	}

	rows, err := qs.Query(ctx, store.SubjectPattern(rdf.TrellisPreferServerManaged, location))
	if err != nil {
		return nil, apperr.NewBackendFailure("binary descriptor fetch failed", err)
	}
	descriptor := rowsToMetadata(rows)

	modTerm, ok := descriptor.first(rdf.DCModified)
	if !ok {
		return nil, apperr.NewConstraintViolation("binary descriptor missing required dc:modified")
	}
	modLit, ok := modTerm.(rdf.Literal)
	if !ok {
		return nil, apperr.NewConstraintViolation("binary descriptor dc:modified is not a literal")
	}
	modified, err := time.Parse(time.RFC3339Nano, modLit.Lexical)
	if err != nil {
		return nil, apperr.NewConstraintViolation("binary descriptor dc:modified is not a valid timestamp")
	}

	bm := &model.BinaryMetadata{Location: location, Modified: modified}
	if fmtTerm, ok := descriptor.first(rdf.DCFormat); ok {
		if lit, ok := fmtTerm.(rdf.Literal); ok {
			mt := lit.Lexical
			bm.MimeType = &mt
		}
	}
	if extTerm, ok := descriptor.first(rdf.DCExtent); ok {
		if lit, ok := extTerm.(rdf.Literal); ok {
			if n, err := strconv.ParseInt(lit.Lexical, 10, 64); err == nil {
				bm.Size = &n
			}
		}
	}
	return bm, nil
}
