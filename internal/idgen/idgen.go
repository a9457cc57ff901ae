// Package idgen generates collision-free resource identifiers within a
// single service instance (spec.md §4.3, §9): a process-start instance
// number combined with a monotonic per-instance counter, both atomic.
package idgen

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// instanceSeq is incremented once per Generator constructed in this
// process, so multiple ResourceService instances in the same process still
// get disjoint identifier spaces.
var instanceSeq int64

// Generator produces fresh, per-instance-unique identifiers.
type Generator struct {
	instance string
	counter  atomic.Int64
}

// New constructs a Generator with a fresh instance prefix. The prefix
// combines a random UUID (for uniqueness across process restarts, an
// implementation choice the spec permits but does not require) with a
// process-local sequence number (for uniqueness across Generators within
// one process).
func New() *Generator {
	seq := atomic.AddInt64(&instanceSeq, 1)
	return &Generator{instance: fmt.Sprintf("%s-%d", uuid.NewString(), seq)}
}

// Next returns a fresh opaque identifier, unique within this Generator's
// lifetime.
func (g *Generator) Next() string {
	n := g.counter.Add(1)
	return fmt.Sprintf("%s-%d", g.instance, n)
}
