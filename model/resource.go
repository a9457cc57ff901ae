package model

import (
	"context"
	"time"

	"github.com/gregjan/trellis/rdf"
)

// BinaryMetadata describes the binary descriptor carried by a NonRDFSource
// resource (spec.md §3 invariant 4).
type BinaryMetadata struct {
	Location rdf.IRI
	Modified time.Time
	MimeType *string
	Size     *int64
}

// Stream is the signature of a Resource's per-projection-graph accessor. It
// is supplied by the projection package when a live Resource is assembled;
// model itself never talks to a store.
type Stream func(ctx context.Context, graph ProjectionGraph) ([]rdf.Quad, error)

// Resource is a derived, immutable snapshot of a single identifier's
// server-managed metadata plus an accessor for its six projection graphs
// (spec.md §3). Its quad streams are read-only and may be consumed at most
// once per call to Stream — re-invoking Stream issues a new backend query
// (spec.md §5).
type Resource struct {
	ID               rdf.IRI
	InteractionModel rdf.IRI
	Modified         time.Time
	Parent           *rdf.IRI
	Binary           *BinaryMetadata

	MembershipResource      *rdf.IRI
	HasMemberRelation       *rdf.IRI
	IsMemberOfRelation      *rdf.IRI
	InsertedContentRelation *rdf.IRI

	stream Stream
}

// NewResource builds a live Resource snapshot with its projection accessor.
func NewResource(id, ixnModel rdf.IRI, modified time.Time, stream Stream) *Resource {
	return &Resource{ID: id, InteractionModel: ixnModel, Modified: modified, stream: stream}
}

// Stream yields the quads of a single projection graph for this resource.
func (r *Resource) Stream(ctx context.Context, graph ProjectionGraph) ([]rdf.Quad, error) {
	return r.stream(ctx, graph)
}

// IsContainer reports whether this resource's interaction model is a
// container flavor.
func (r *Resource) IsContainer() bool {
	return IsContainer(r.InteractionModel)
}

// ViewKind distinguishes the three states get(id) can return (spec.md §9
// "tagged variant ResourceView = Live | Missing | Deleted").
type ViewKind int

const (
	KindLive ViewKind = iota
	KindMissing
	KindDeleted
)

// ResourceView is the tagged-variant result of a get(id) call. Only the
// Live arm carries a Resource; Missing and Deleted carry none.
type ResourceView struct {
	Kind     ViewKind
	Resource *Resource
}

// Missing builds the MISSING_RESOURCE sentinel view.
func Missing() ResourceView { return ResourceView{Kind: KindMissing} }

// Deleted builds the DELETED_RESOURCE sentinel view.
func Deleted() ResourceView { return ResourceView{Kind: KindDeleted} }

// Live builds a live resource view wrapping a concrete Resource.
func Live(r *Resource) ResourceView { return ResourceView{Kind: KindLive, Resource: r} }

func (v ResourceView) IsMissing() bool { return v.Kind == KindMissing }
func (v ResourceView) IsDeleted() bool { return v.Kind == KindDeleted }
func (v ResourceView) IsLive() bool    { return v.Kind == KindLive }
