// Package service implements the resource lifecycle operations of
// spec.md §4.3 (create, replace, delete, add, touch, get,
// supportedInteractionModels, generateIdentifier) against a store.QuadStore,
// grounded on the teacher's internal/service/memory "service wraps
// repository" construction pattern.
package service

import (
	"context"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/gregjan/trellis/event"
	"github.com/gregjan/trellis/internal/apperr"
	"github.com/gregjan/trellis/internal/idgen"
	"github.com/gregjan/trellis/internal/observability"
	"github.com/gregjan/trellis/model"
	"github.com/gregjan/trellis/projection"
	"github.com/gregjan/trellis/rdf"
	"github.com/gregjan/trellis/session"
	"github.com/gregjan/trellis/store"
	"github.com/gregjan/trellis/store/binary"
)

// ResourceService implements the public lifecycle operations over a single
// store.QuadStore. Backend-agnostic: the store may be store/memory,
// store/external, or any decorator stack over either.
type ResourceService struct {
	store     store.QuadStore
	content   binary.Content
	events    event.Serializer
	ids       *idgen.Generator
	logger    *zap.Logger
	metrics   *observability.Metrics
	supported []rdf.IRI
}

// NewResourceService builds a ResourceService. events, ids, logger, metrics,
// and supported may be nil/empty; sensible defaults are substituted (a
// discarding serializer, a fresh generator, a no-op logger, a nil-safe
// metrics observer, and model.AllInteractionModels respectively). content
// may also be nil and is kept as given, with no default. A nil content leaves PutBinaryContent/GetBinaryContent/DeleteBinaryContent
// unavailable without affecting any quad-store operation: a NonRDFSource's
// BinaryMetadata quads commit regardless of whether byte storage is wired.
func NewResourceService(qs store.QuadStore, events event.Serializer, ids *idgen.Generator, logger *zap.Logger, metrics *observability.Metrics, supported []rdf.IRI, content binary.Content) *ResourceService {
	if events == nil {
		events = event.NopSerializer{}
	}
	if ids == nil {
		ids = idgen.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(supported) == 0 {
		supported = model.AllInteractionModels
	}
	return &ResourceService{store: qs, content: content, events: events, ids: ids, logger: logger, metrics: metrics, supported: supported}
}

// PutBinaryContent stores the byte stream for a NonRDFSource's binary
// Location. It is independent of Create/Replace: callers typically write
// the metadata quads via Create/Replace and the bytes via PutBinaryContent
// in either order, since nothing in spec.md §3 invariant 4 requires the two
// to be transactional with each other.
func (s *ResourceService) PutBinaryContent(ctx context.Context, location rdf.IRI, r io.Reader, size int64) error {
	if s.content == nil {
		return apperr.NewConstraintViolation("no binary content store is configured")
	}
	return s.call(ctx, "put-binary-content", location, func(ctx context.Context) error {
		return s.content.Put(ctx, location, r, size)
	})
}

// GetBinaryContent retrieves the byte stream stored at location. The caller
// must Close the returned stream.
func (s *ResourceService) GetBinaryContent(ctx context.Context, location rdf.IRI) (io.ReadCloser, error) {
	if s.content == nil {
		return nil, apperr.NewConstraintViolation("no binary content store is configured")
	}
	var rc io.ReadCloser
	err := s.call(ctx, "get-binary-content", location, func(ctx context.Context) error {
		var err error
		rc, err = s.content.Get(ctx, location)
		return err
	})
	return rc, err
}

// DeleteBinaryContent removes the byte stream stored at location. Called by
// Delete's caller alongside the metadata tombstone when a NonRDFSource is
// torn down; the quad-store tombstone and the byte deletion are not atomic
// with each other, matching PutBinaryContent's non-transactional contract.
func (s *ResourceService) DeleteBinaryContent(ctx context.Context, location rdf.IRI) error {
	if s.content == nil {
		return apperr.NewConstraintViolation("no binary content store is configured")
	}
	return s.call(ctx, "delete-binary-content", location, func(ctx context.Context) error {
		return s.content.Delete(ctx, location)
	})
}

// call wraps a single operation with structured logging and metrics,
// grounded on the teacher's internal/infrastructure/observability wiring.
func (s *ResourceService) call(ctx context.Context, op string, id rdf.IRI, fn func(context.Context) error) error {
	ctx, span := observability.StartBackendSpan(ctx, op)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	s.metrics.Observe(op, start, err)
	fields := []zap.Field{zap.String("op", op), zap.String("id", string(id)), zap.Duration("duration", time.Since(start))}
	if err != nil {
		s.logger.Debug("resource operation failed", append(fields, zap.Error(err))...)
	} else {
		s.logger.Debug("resource operation succeeded", fields...)
	}
	return err
}

// Get returns the current view of id. Per spec.md §4.3, get never fails on
// well-formed input; a backend I/O error is the only failure mode.
func (s *ResourceService) Get(ctx context.Context, id rdf.IRI) (model.ResourceView, error) {
	var view model.ResourceView
	err := s.call(ctx, "get", id, func(ctx context.Context) error {
		var err error
		view, err = projection.Find(ctx, s.store, id, false)
		return err
	})
	return view, err
}

// SupportedInteractionModels returns the set of interaction models this
// instance advertises.
func (s *ResourceService) SupportedInteractionModels() []rdf.IRI {
	out := make([]rdf.IRI, len(s.supported))
	copy(out, s.supported)
	return out
}

// GenerateIdentifier returns a fresh opaque string, unique within this
// service instance (spec.md §4.3, invariant 8).
func (s *ResourceService) GenerateIdentifier() string {
	return s.ids.Next()
}

// Create establishes a new resource. The caller is responsible for the
// precondition that get(id) currently yields MISSING (spec.md §4.3); this
// method does not itself check for an existing live resource, matching the
// literal failure-mode list of §4.3 (ConstraintViolation only for
// unsupported interaction models or invariant 4-6 violations).
func (s *ResourceService) Create(ctx context.Context, id rdf.IRI, sess session.Session, ixnModel rdf.IRI, dataset rdf.Dataset, parent *rdf.IRI, binary *model.BinaryMetadata) error {
	return s.call(ctx, "create", id, func(ctx context.Context) error {
		ops, err := s.buildWriteOps(id, ixnModel, dataset, parent, binary, false)
		if err != nil {
			return err
		}
		if err := s.store.Apply(ctx, ops); err != nil {
			return apperr.Wrap(err, "create failed")
		}
		s.emit(sess, id, ixnModel, "Create")
		return nil
	})
}

// Replace overwrites id's user-managed and server-managed rows in full,
// preserving the audit graph untouched (spec.md §4.3, invariant 5).
func (s *ResourceService) Replace(ctx context.Context, id rdf.IRI, sess session.Session, ixnModel rdf.IRI, dataset rdf.Dataset, parent *rdf.IRI, binary *model.BinaryMetadata) error {
	return s.call(ctx, "replace", id, func(ctx context.Context) error {
		ops, err := s.buildWriteOps(id, ixnModel, dataset, parent, binary, true)
		if err != nil {
			return err
		}
		if err := s.store.Apply(ctx, ops); err != nil {
			return apperr.Wrap(err, "replace failed")
		}
		s.emit(sess, id, ixnModel, "Update")
		return nil
	})
}

// buildWriteOps assembles the atomic mutation batch shared by create and
// replace (spec.md §4.3's numbered algorithm). clearFirst is true only for
// replace: it clears the prior user-managed graph and server-managed row
// before reinserting, so invariants 1-2 ("exactly one" interaction-model
// and modified-timestamp triple) hold after an overwrite.
func (s *ResourceService) buildWriteOps(id rdf.IRI, ixnModel rdf.IRI, dataset rdf.Dataset, parent *rdf.IRI, binary *model.BinaryMetadata, clearFirst bool) ([]store.Mutation, error) {
	if !model.IsSupported(ixnModel, s.supported) {
		return nil, apperr.NewConstraintViolation("unsupported interaction model: " + string(ixnModel))
	}
	cfg, err := extractContainerConfig(dataset, id, ixnModel)
	if err != nil {
		return nil, err
	}
	if err := validateBinary(ixnModel, binary); err != nil {
		return nil, err
	}

	var ops []store.Mutation
	if clearFirst {
		ops = append(ops, store.RemoveGraphMutation(id), store.RemoveSubjectMutation(rdf.TrellisPreferServerManaged, id))
	}

	for _, q := range dataset.Quads() {
		ops = append(ops, store.InsertMutation(rdf.NewQuad(id, q.Subject, q.Predicate, q.Object)))
	}

	ops = append(ops,
		store.InsertMutation(rdf.NewQuad(rdf.TrellisPreferServerManaged, id, rdf.RDFType, ixnModel)),
		store.InsertMutation(rdf.NewQuad(rdf.TrellisPreferServerManaged, id, rdf.DCModified, nowLiteral())),
	)
	if parent != nil {
		ops = append(ops, store.InsertMutation(rdf.NewQuad(rdf.TrellisPreferServerManaged, id, rdf.DCIsPartOf, *parent)))
	}
	if model.UsesMembership(ixnModel) {
		ops = append(ops, store.InsertMutation(rdf.NewQuad(rdf.TrellisPreferServerManaged, id, rdf.LDPMembershipResource, cfg.membershipResource)))
		if cfg.hasMemberRelation != nil {
			ops = append(ops, store.InsertMutation(rdf.NewQuad(rdf.TrellisPreferServerManaged, id, rdf.LDPHasMemberRelation, *cfg.hasMemberRelation)))
		}
		if cfg.isMemberOfRelation != nil {
			ops = append(ops, store.InsertMutation(rdf.NewQuad(rdf.TrellisPreferServerManaged, id, rdf.LDPIsMemberOfRelation, *cfg.isMemberOfRelation)))
		}
		ops = append(ops, store.InsertMutation(rdf.NewQuad(rdf.TrellisPreferServerManaged, id, rdf.LDPInsertedContentRelation, cfg.insertedContentRelation)))
		// Auxiliary index edge: the literal (s, ldp:member, membershipResource)
		// triple spec.md §4.2's indirect/direct-forward sub-queries match on.
		// See DESIGN.md's component-ledger entry for projection/ for why this
		// is necessary to resolve the ldp:member/hasMemberRelation conflation
		// noted in spec.md §9's open questions.
		ops = append(ops, store.InsertMutation(rdf.NewQuad(rdf.TrellisPreferServerManaged, id, rdf.LDPMember, cfg.membershipResource)))
	}
	if ixnModel == model.NonRDFSource {
		ops = append(ops, store.InsertMutation(rdf.NewQuad(rdf.TrellisPreferServerManaged, id, rdf.DCHasPart, binary.Location)))
		ops = append(ops, store.InsertMutation(rdf.NewQuad(rdf.TrellisPreferServerManaged, binary.Location, rdf.DCModified, rdf.NewStringLiteral(binary.Modified.Format(time.RFC3339Nano)))))
		if binary.MimeType != nil {
			ops = append(ops, store.InsertMutation(rdf.NewQuad(rdf.TrellisPreferServerManaged, binary.Location, rdf.DCFormat, rdf.NewStringLiteral(*binary.MimeType))))
		}
		if binary.Size != nil {
			ops = append(ops, store.InsertMutation(rdf.NewQuad(rdf.TrellisPreferServerManaged, binary.Location, rdf.DCExtent, rdf.NewStringLiteral(strconv.FormatInt(*binary.Size, 10)))))
		}
	}
	return ops, nil
}

// Delete writes a tombstone for id and appends dataset to the audit graph
// documenting the transition (spec.md §4.3: "never fails on well-formed
// inputs").
func (s *ResourceService) Delete(ctx context.Context, id rdf.IRI, sess session.Session, ixnType rdf.IRI, dataset rdf.Dataset) error {
	return s.call(ctx, "delete", id, func(ctx context.Context) error {
		ops := []store.Mutation{
			store.RemoveSubjectMutation(rdf.TrellisPreferServerManaged, id),
			store.InsertMutation(rdf.NewQuad(rdf.TrellisPreferServerManaged, id, rdf.DCType, rdf.TrellisDeletedResource)),
			store.InsertMutation(rdf.NewQuad(rdf.TrellisPreferServerManaged, id, rdf.DCModified, nowLiteral())),
		}
		for _, q := range dataset.Quads() {
			ops = append(ops, store.InsertMutation(rdf.NewQuad(model.GraphName(id, model.PreferAudit), q.Subject, q.Predicate, q.Object)))
		}
		if err := s.store.Apply(ctx, ops); err != nil {
			return apperr.Wrap(err, "delete failed")
		}
		s.emit(sess, id, ixnType, "Delete")
		return nil
	})
}

// Add appends dataset to id's audit graph; it never clears prior audit
// quads (spec.md invariant 7, append-only).
func (s *ResourceService) Add(ctx context.Context, id rdf.IRI, sess session.Session, dataset rdf.Dataset) error {
	return s.call(ctx, "add", id, func(ctx context.Context) error {
		ops := make([]store.Mutation, 0, dataset.Len())
		for _, q := range dataset.Quads() {
			ops = append(ops, store.InsertMutation(rdf.NewQuad(model.GraphName(id, model.PreferAudit), q.Subject, q.Predicate, q.Object)))
		}
		if err := s.store.Apply(ctx, ops); err != nil {
			return apperr.Wrap(err, "add failed")
		}
		return nil
	})
}

// Touch updates id's modification timestamp in place, without disturbing
// any other server-managed predicate.
func (s *ResourceService) Touch(ctx context.Context, id rdf.IRI) error {
	return s.call(ctx, "touch", id, func(ctx context.Context) error {
		view, err := projection.Find(ctx, s.store, id, false)
		if err != nil {
			return apperr.Wrap(err, "touch failed")
		}
		if !view.IsLive() {
			return apperr.NewNotFound("touch requires a live resource")
		}
		ops := []store.Mutation{
			store.RemovePredicateMutation(rdf.TrellisPreferServerManaged, id, rdf.DCModified),
			store.InsertMutation(rdf.NewQuad(rdf.TrellisPreferServerManaged, id, rdf.DCModified, nowLiteral())),
		}
		if err := s.store.Apply(ctx, ops); err != nil {
			return apperr.Wrap(err, "touch failed")
		}
		return nil
	})
}

// emit constructs and hands an event.Event to the configured serializer.
// Per spec.md §7, a serializer that fails to produce output never fails the
// triggering operation — the bool result is discarded entirely.
func (s *ResourceService) emit(sess session.Session, id rdf.IRI, ixnType rdf.IRI, activity string) {
	ev := event.Event{
		ID:            s.ids.Next(),
		Agents:        []rdf.IRI{sess.Agent()},
		Target:        id,
		TargetTypes:   []rdf.IRI{ixnType},
		ActivityTypes: []rdf.IRI{rdf.IRI("https://www.w3.org/ns/activitystreams#" + activity)},
		Created:       sess.Issued(),
	}
	s.events.Serialize(ev)
}

func nowLiteral() rdf.Literal {
	return rdf.NewStringLiteral(time.Now().UTC().Format(time.RFC3339Nano))
}

