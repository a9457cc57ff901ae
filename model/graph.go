package model

import "github.com/gregjan/trellis/rdf"

// ProjectionGraph names one of the six fixed projection graphs a Resource
// view groups its quads by (spec.md §3). It is a closed enumeration: the
// graph mapper in package projection switches on it exhaustively and never
// grows an open registry (spec.md §9 "closed enumeration").
type ProjectionGraph int

const (
	PreferUserManaged ProjectionGraph = iota
	PreferServerManaged
	PreferAudit
	PreferAccessControl
	PreferContainment
	PreferMembership
)

func (g ProjectionGraph) String() string {
	switch g {
	case PreferUserManaged:
		return "PreferUserManaged"
	case PreferServerManaged:
		return "PreferServerManaged"
	case PreferAudit:
		return "PreferAudit"
	case PreferAccessControl:
		return "PreferAccessControl"
	case PreferContainment:
		return "PreferContainment"
	case PreferMembership:
		return "PreferMembership"
	default:
		return "UnknownProjectionGraph"
	}
}

// GraphName returns the named-graph IRI backing a resource's per-graph
// storage, per the persisted-state layout of spec.md §6.
func GraphName(id rdf.IRI, g ProjectionGraph) rdf.IRI {
	switch g {
	case PreferUserManaged:
		return id
	case PreferAudit:
		return id + "?ext=audit"
	case PreferAccessControl:
		return id + "?ext=acl"
	case PreferServerManaged:
		return rdf.TrellisPreferServerManaged
	default:
		// Containment and membership are derived, not stored; they have
		// no backing named graph of their own.
		return ""
	}
}
