package binary

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/gregjan/trellis/internal/apperr"
	"github.com/gregjan/trellis/rdf"
)

// MemoryContent is an in-process Content, grounded on store/memory's
// mutex-guarded map approach. It is the default for tests and for
// deployments that never configure an object-storage endpoint.
type MemoryContent struct {
	mu   sync.RWMutex
	data map[rdf.IRI][]byte
}

// NewMemoryContent returns an empty in-memory Content.
func NewMemoryContent() *MemoryContent {
	return &MemoryContent{data: make(map[rdf.IRI][]byte)}
}

func (c *MemoryContent) Put(ctx context.Context, location rdf.IRI, r io.Reader, size int64) error {
	buf, err := io.ReadAll(r)
	if err != nil {
		return apperr.NewBackendFailure("reading binary content", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[location] = buf
	return nil
}

func (c *MemoryContent) Get(ctx context.Context, location rdf.IRI) (io.ReadCloser, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	buf, ok := c.data[location]
	if !ok {
		return nil, apperr.NewNotFound("no binary content stored at " + string(location))
	}
	return io.NopCloser(bytes.NewReader(buf)), nil
}

func (c *MemoryContent) Delete(ctx context.Context, location rdf.IRI) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, location)
	return nil
}

var _ Content = (*MemoryContent)(nil)
