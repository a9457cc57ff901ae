package projection

import (
	"context"

	"github.com/gregjan/trellis/internal/apperr"
	"github.com/gregjan/trellis/model"
	"github.com/gregjan/trellis/rdf"
	"github.com/gregjan/trellis/store"
)

// stream is the closed graph-mapper dispatch of spec.md §4.2/§9: every
// ProjectionGraph value is served by exactly one case here; any value outside
// the six known graphs falls to the default case and fails with a
// BackendFailure rather than passing through.
func stream(ctx context.Context, qs store.QuadStore, id, ixnModel rdf.IRI, includeTypeTriple bool, g model.ProjectionGraph) ([]rdf.Quad, error) {
	switch g {
	case model.PreferUserManaged:
		return userManaged(ctx, qs, id, ixnModel, includeTypeTriple)
	case model.PreferServerManaged:
		return qs.Query(ctx, store.SubjectPattern(rdf.TrellisPreferServerManaged, id))
	case model.PreferAudit:
		return qs.Query(ctx, store.GraphPattern(model.GraphName(id, model.PreferAudit)))
	case model.PreferAccessControl:
		return qs.Query(ctx, store.GraphPattern(model.GraphName(id, model.PreferAccessControl)))
	case model.PreferContainment:
		return containment(ctx, qs, id, ixnModel)
	case model.PreferMembership:
		return membership(ctx, qs, id)
	default:
		return nil, apperr.NewBackendFailure("unknown projection graph requested", nil)
	}
}

func userManaged(ctx context.Context, qs store.QuadStore, id, ixnModel rdf.IRI, includeTypeTriple bool) ([]rdf.Quad, error) {
	quads, err := qs.Query(ctx, store.GraphPattern(id))
	if err != nil {
		return nil, err
	}
	if !includeTypeTriple {
		return quads, nil
	}
	typeQuad := rdf.NewQuad(id, id, rdf.RDFType, ixnModel)
	return append([]rdf.Quad{typeQuad}, quads...), nil
}

// containment derives (id, ldp:contains, child) for every child with
// (child, dc:isPartOf, id) in the server-managed graph, for container
// interaction models only (spec.md §4.2).
func containment(ctx context.Context, qs store.QuadStore, id, ixnModel rdf.IRI) ([]rdf.Quad, error) {
	if !model.IsContainer(ixnModel) {
		return nil, nil
	}
	rows, err := qs.Query(ctx, rdf.Pattern{
		Graph:     ptr(rdf.TrellisPreferServerManaged),
		Predicate: ptr(rdf.DCIsPartOf),
		Object:    id,
	})
	if err != nil {
		return nil, err
	}
	out := make([]rdf.Quad, 0, len(rows))
	for _, row := range rows {
		out = append(out, rdf.NewQuad(id, id, rdf.LDPContains, row.Subject))
	}
	return out, nil
}

// membership is the union of the three independent sub-queries of
// spec.md §4.2. Each contributes quads whose subject may be id's own
// membershipResource value, not id itself — the containers that name id as
// their membershipResource are discovered via the auxiliary (container,
// ldp:member, membershipResource) index edge the service layer writes
// alongside ldp:membershipResource at create/replace time.
func membership(ctx context.Context, qs store.QuadStore, id rdf.IRI) ([]rdf.Quad, error) {
	var out []rdf.Quad

	indirect, err := indirectMembership(ctx, qs, id)
	if err != nil {
		return nil, err
	}
	out = append(out, indirect...)

	directForward, err := directForwardMembership(ctx, qs, id)
	if err != nil {
		return nil, err
	}
	out = append(out, directForward...)

	directInverse, err := directInverseMembership(ctx, qs, id)
	if err != nil {
		return nil, err
	}
	out = append(out, directInverse...)

	return out, nil
}

// membershipContainers finds every s such that (s, ldp:member, id) holds in
// the server-managed graph and s is an interaction model satisfying want,
// returning the container's own config row alongside it.
func membershipContainers(ctx context.Context, qs store.QuadStore, id rdf.IRI, want rdf.IRI) ([]rdf.IRI, map[rdf.IRI]metadataRow, error) {
	rows, err := qs.Query(ctx, rdf.Pattern{
		Graph:     ptr(rdf.TrellisPreferServerManaged),
		Predicate: ptr(rdf.LDPMember),
		Object:    id,
	})
	if err != nil {
		return nil, nil, err
	}

	var containers []rdf.IRI
	configs := make(map[rdf.IRI]metadataRow)
	for _, row := range rows {
		s, ok := row.Subject.(rdf.IRI)
		if !ok {
			continue
		}
		cfgRows, err := qs.Query(ctx, store.SubjectPattern(rdf.TrellisPreferServerManaged, s))
		if err != nil {
			return nil, nil, err
		}
		cfg := rowsToMetadata(cfgRows)
		ixnTerm, ok := cfg.first(rdf.RDFType)
		if !ok {
			continue
		}
		if ixn, ok := ixnTerm.(rdf.IRI); !ok || ixn != want {
			continue
		}
		containers = append(containers, s)
		configs[s] = cfg
	}
	return containers, configs, nil
}

// indirectMembership: for every s with (s, ldp:member, id), s an
// IndirectContainer with membershipResource ?subj, hasMemberRelation ?pred,
// insertedContentRelation ?o, and every res with (res, dc:isPartOf, s) and
// (res, ?o, ?obj) in res's own user-managed graph, emit (?subj, ?pred, ?obj).
func indirectMembership(ctx context.Context, qs store.QuadStore, id rdf.IRI) ([]rdf.Quad, error) {
	containers, configs, err := membershipContainers(ctx, qs, id, rdf.LDPIndirectContainer)
	if err != nil {
		return nil, err
	}

	var out []rdf.Quad
	for _, s := range containers {
		cfg := configs[s]
		subjTerm, ok := cfg.first(rdf.LDPMembershipResource)
		if !ok {
			continue
		}
		subj, ok := subjTerm.(rdf.SubjectTerm)
		if !ok {
			continue
		}
		predTerm, ok := cfg.first(rdf.LDPHasMemberRelation)
		if !ok {
			continue
		}
		pred, ok := predTerm.(rdf.IRI)
		if !ok {
			continue
		}
		icrTerm, ok := cfg.first(rdf.LDPInsertedContentRelation)
		if !ok {
			continue
		}
		icr, ok := icrTerm.(rdf.IRI)
		if !ok {
			continue
		}

		children, err := qs.Query(ctx, rdf.Pattern{
			Graph:     ptr(rdf.TrellisPreferServerManaged),
			Predicate: ptr(rdf.DCIsPartOf),
			Object:    s,
		})
		if err != nil {
			return nil, err
		}
		for _, childRow := range children {
			res, ok := childRow.Subject.(rdf.IRI)
			if !ok {
				continue
			}
			objs, err := qs.Query(ctx, rdf.Pattern{Graph: ptr(res), Subject: res, Predicate: ptr(icr)})
			if err != nil {
				return nil, err
			}
			for _, o := range objs {
				out = append(out, rdf.NewQuad(id, subj, pred, o.Object))
			}
		}
	}
	return out, nil
}

// directForwardMembership: for every s with (s, ldp:member, id), s a
// DirectContainer with membershipResource ?subj, hasMemberRelation ?pred
// (not MemberSubject), and every res with (res, dc:isPartOf, s), emit
// (?subj, ?pred, res).
func directForwardMembership(ctx context.Context, qs store.QuadStore, id rdf.IRI) ([]rdf.Quad, error) {
	containers, configs, err := membershipContainers(ctx, qs, id, rdf.LDPDirectContainer)
	if err != nil {
		return nil, err
	}

	var out []rdf.Quad
	for _, s := range containers {
		cfg := configs[s]
		subjTerm, ok := cfg.first(rdf.LDPMembershipResource)
		if !ok {
			continue
		}
		subj, ok := subjTerm.(rdf.SubjectTerm)
		if !ok {
			continue
		}
		predTerm, ok := cfg.first(rdf.LDPHasMemberRelation)
		if !ok {
			continue
		}
		pred, ok := predTerm.(rdf.IRI)
		if !ok {
			continue
		}

		children, err := qs.Query(ctx, rdf.Pattern{
			Graph:     ptr(rdf.TrellisPreferServerManaged),
			Predicate: ptr(rdf.DCIsPartOf),
			Object:    s,
		})
		if err != nil {
			return nil, err
		}
		for _, childRow := range children {
			out = append(out, rdf.NewQuad(id, subj, pred, childRow.Subject))
		}
	}
	return out, nil
}

// directInverseMembership: for every ?s with (id, dc:isPartOf, ?s), ?s a
// DirectContainer with isMemberOfRelation ?pred, membershipResource ?obj,
// and insertedContentRelation ldp:MemberSubject, emit (id, ?pred, ?obj).
func directInverseMembership(ctx context.Context, qs store.QuadStore, id rdf.IRI) ([]rdf.Quad, error) {
	rows, err := qs.Query(ctx, store.SubjectPattern(rdf.TrellisPreferServerManaged, id))
	if err != nil {
		return nil, err
	}
	meta := rowsToMetadata(rows)
	parentTerm, ok := meta.first(rdf.DCIsPartOf)
	if !ok {
		return nil, nil
	}
	parent, ok := parentTerm.(rdf.IRI)
	if !ok {
		return nil, nil
	}

	cfgRows, err := qs.Query(ctx, store.SubjectPattern(rdf.TrellisPreferServerManaged, parent))
	if err != nil {
		return nil, err
	}
	cfg := rowsToMetadata(cfgRows)
	ixnTerm, ok := cfg.first(rdf.RDFType)
	if !ok {
		return nil, nil
	}
	if ixn, ok := ixnTerm.(rdf.IRI); !ok || ixn != rdf.LDPDirectContainer {
		return nil, nil
	}
	icrTerm, ok := cfg.first(rdf.LDPInsertedContentRelation)
	if !ok {
		return nil, nil
	}
	if icr, ok := icrTerm.(rdf.IRI); !ok || icr != rdf.LDPMemberSubject {
		return nil, nil
	}
	predTerm, ok := cfg.first(rdf.LDPIsMemberOfRelation)
	if !ok {
		return nil, nil
	}
	pred, ok := predTerm.(rdf.IRI)
	if !ok {
		return nil, nil
	}
	objTerm, ok := cfg.first(rdf.LDPMembershipResource)
	if !ok {
		return nil, nil
	}
	obj, ok := objTerm.(rdf.Term)
	if !ok {
		return nil, nil
	}

	return []rdf.Quad{rdf.NewQuad(id, id, pred, obj)}, nil
}

func ptr[T any](v T) *T { return &v }
