// Package binary stores the actual bytes a NonRDFSource resource's
// BinaryMetadata.Location points at. store.QuadStore only ever carries that
// pointer plus size/format/modified metadata (spec.md §3 invariant 4); the
// bytes themselves live outside the quad store entirely, the same split a
// production LDP server draws between its triplestore and its binary
// service. Content is the seam: store/external and store/memory never
// import this package, and a ResourceService can run with content storage
// entirely absent (Put/Get simply unavailable) without disturbing any
// quad-store invariant.
package binary

import (
	"context"
	"io"

	"github.com/gregjan/trellis/rdf"
)

// Content persists and retrieves the byte stream a binary.Location IRI
// identifies. Implementations need not be transactional with the quad
// store; ResourceService.buildWriteOps already commits the metadata quads
// independently of any Content call.
type Content interface {
	// Put stores size bytes read from r under location, replacing any prior
	// content at that location.
	Put(ctx context.Context, location rdf.IRI, r io.Reader, size int64) error

	// Get opens the content at location for reading. The caller must Close
	// the returned stream. Returns a NotFound apperr.Error if location has
	// no stored content.
	Get(ctx context.Context, location rdf.IRI) (io.ReadCloser, error)

	// Delete removes any content stored at location. Deleting a location
	// with no stored content is not an error, matching
	// store.QuadStore.Remove's tolerance of a no-op delete.
	Delete(ctx context.Context, location rdf.IRI) error
}
