// Package event defines the Event value and Serializer collaborator
// interface the engine emits to on create/replace/delete (spec.md §6). The
// serialization format itself is defined entirely by the collaborator; the
// engine never inspects the produced string.
package event

import (
	"time"

	"github.com/gregjan/trellis/rdf"
)

// Event describes a single lifecycle transition, handed to a Serializer.
type Event struct {
	ID            string
	Agents        []rdf.IRI
	Target        rdf.IRI
	TargetTypes   []rdf.IRI
	ActivityTypes []rdf.IRI
	Inbox         rdf.IRI
	Created       time.Time
}

// Serializer consumes an Event and yields an optional serialized form. A
// serializer reports "no output" by returning ok=false; it must never
// return an error the caller has to handle, since spec.md §7 requires that
// serialization failures in this collaborator never propagate to the
// resource-service operation that triggered them.
type Serializer interface {
	Serialize(e Event) (serialized string, ok bool)
}

// NopSerializer discards every event. It is the default when no serializer
// is configured.
type NopSerializer struct{}

func (NopSerializer) Serialize(Event) (string, bool) { return "", false }
