package model

import (
	"strings"

	"github.com/gregjan/trellis/rdf"
)

// Interaction models a resource may advertise. Comparison is by lexical
// equality of the underlying IRI only (spec.md §4.4).
var (
	RDFSource        = rdf.LDPRDFSource
	NonRDFSource     = rdf.LDPNonRDFSource
	Container        = rdf.LDPContainer
	BasicContainer   = rdf.LDPBasicContainer
	DirectContainer  = rdf.LDPDirectContainer
	IndirectContainer = rdf.LDPIndirectContainer
)

// AllInteractionModels lists every model the engine knows about, used by
// the default supportedInteractionModels() advertisement.
var AllInteractionModels = []rdf.IRI{
	RDFSource, NonRDFSource, Container, BasicContainer, DirectContainer, IndirectContainer,
}

// IsContainer reports whether an interaction model IRI denotes a container
// flavor. Per spec.md §4.4, this is a suffix check on the lexical form, not
// a fixed-set membership test, so any future *Container variant classifies
// correctly without a code change here.
func IsContainer(ixn rdf.IRI) bool {
	return strings.HasSuffix(string(ixn), "Container")
}

// UsesMembership reports whether the interaction model derives membership
// quads (only Direct/IndirectContainer do, per spec.md §3).
func UsesMembership(ixn rdf.IRI) bool {
	return ixn == DirectContainer || ixn == IndirectContainer
}

// IsSupported reports whether ixn is one of the models listed in supported.
func IsSupported(ixn rdf.IRI, supported []rdf.IRI) bool {
	for _, s := range supported {
		if s == ixn {
			return true
		}
	}
	return false
}
