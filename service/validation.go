package service

import (
	"github.com/gregjan/trellis/internal/apperr"
	"github.com/gregjan/trellis/model"
	"github.com/gregjan/trellis/rdf"
)

// containerConfig is the set of membership predicates scanned out of a
// caller-supplied dataset for a Direct/IndirectContainer, validated per
// spec.md invariants 5-6.
type containerConfig struct {
	membershipResource      rdf.SubjectTerm
	hasMemberRelation       *rdf.IRI
	isMemberOfRelation      *rdf.IRI
	insertedContentRelation rdf.IRI
}

// extractContainerConfig scans dataset for the subject-id rows of the
// membership predicates required by invariants 5-6. Only Direct and
// IndirectContainer carry membership config; other models return a zero
// value unvalidated.
func extractContainerConfig(dataset rdf.Dataset, id rdf.IRI, ixnModel rdf.IRI) (containerConfig, error) {
	var cfg containerConfig
	if !model.UsesMembership(ixnModel) {
		return cfg, nil
	}

	membershipResourceRows := dataset.Filter(rdf.Pattern{Subject: id, Predicate: ptr(rdf.LDPMembershipResource)})
	if len(membershipResourceRows) == 0 {
		return cfg, apperr.NewConstraintViolation("container requires ldp:membershipResource")
	}
	subj, ok := membershipResourceRows[0].Object.(rdf.SubjectTerm)
	if !ok {
		return cfg, apperr.NewConstraintViolation("ldp:membershipResource object must be an IRI or blank node")
	}
	cfg.membershipResource = subj

	hasMemberRows := dataset.Filter(rdf.Pattern{Subject: id, Predicate: ptr(rdf.LDPHasMemberRelation)})
	isMemberOfRows := dataset.Filter(rdf.Pattern{Subject: id, Predicate: ptr(rdf.LDPIsMemberOfRelation)})
	insertedContentRows := dataset.Filter(rdf.Pattern{Subject: id, Predicate: ptr(rdf.LDPInsertedContentRelation)})

	switch ixnModel {
	case model.DirectContainer:
		if len(hasMemberRows) == 1 && len(isMemberOfRows) == 0 {
			pred, ok := hasMemberRows[0].Object.(rdf.IRI)
			if !ok {
				return cfg, apperr.NewConstraintViolation("ldp:hasMemberRelation object must be an IRI")
			}
			cfg.hasMemberRelation = &pred
		} else if len(isMemberOfRows) == 1 && len(hasMemberRows) == 0 {
			pred, ok := isMemberOfRows[0].Object.(rdf.IRI)
			if !ok {
				return cfg, apperr.NewConstraintViolation("ldp:isMemberOfRelation object must be an IRI")
			}
			cfg.isMemberOfRelation = &pred
		} else {
			return cfg, apperr.NewConstraintViolation("DirectContainer requires exactly one of ldp:hasMemberRelation or ldp:isMemberOfRelation")
		}

		cfg.insertedContentRelation = rdf.LDPMemberSubject
		if len(insertedContentRows) == 1 {
			icr, ok := insertedContentRows[0].Object.(rdf.IRI)
			if !ok {
				return cfg, apperr.NewConstraintViolation("ldp:insertedContentRelation object must be an IRI")
			}
			cfg.insertedContentRelation = icr
		}

	case model.IndirectContainer:
		if len(hasMemberRows) != 1 {
			return cfg, apperr.NewConstraintViolation("IndirectContainer requires exactly one ldp:hasMemberRelation")
		}
		pred, ok := hasMemberRows[0].Object.(rdf.IRI)
		if !ok {
			return cfg, apperr.NewConstraintViolation("ldp:hasMemberRelation object must be an IRI")
		}
		cfg.hasMemberRelation = &pred

		if len(insertedContentRows) != 1 {
			return cfg, apperr.NewConstraintViolation("IndirectContainer requires exactly one ldp:insertedContentRelation")
		}
		icr, ok := insertedContentRows[0].Object.(rdf.IRI)
		if !ok {
			return cfg, apperr.NewConstraintViolation("ldp:insertedContentRelation object must be an IRI")
		}
		if icr == rdf.LDPMemberSubject {
			return cfg, apperr.NewConstraintViolation("IndirectContainer's ldp:insertedContentRelation must not be ldp:MemberSubject")
		}
		cfg.insertedContentRelation = icr
	}

	return cfg, nil
}

// validateBinary enforces invariant 4: NonRDFSource requires a binary
// descriptor carrying at least a modification timestamp.
func validateBinary(ixnModel rdf.IRI, binary *model.BinaryMetadata) error {
	if ixnModel != model.NonRDFSource {
		return nil
	}
	if binary == nil {
		return apperr.NewConstraintViolation("NonRDFSource requires binary metadata")
	}
	if binary.Location == "" {
		return apperr.NewConstraintViolation("binary metadata requires a location")
	}
	if binary.Modified.IsZero() {
		return apperr.NewConstraintViolation("binary metadata requires a modification timestamp")
	}
	return nil
}

func ptr[T any](v T) *T { return &v }
