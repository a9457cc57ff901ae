// Package session defines the narrow Session collaborator interface the
// engine consumes (spec.md §6): the acting agent and a creation timestamp,
// nothing more.
package session

import (
	"time"

	"github.com/gregjan/trellis/rdf"
)

// Session supplies acting-agent identity and timestamp to create, replace,
// delete, and add. It has no other required capability.
type Session interface {
	Agent() rdf.IRI
	Issued() time.Time
}

// Simple is a minimal Session implementation sufficient for tests and
// simple callers.
type Simple struct {
	AgentIRI rdf.IRI
	At       time.Time
}

func (s Simple) Agent() rdf.IRI     { return s.AgentIRI }
func (s Simple) Issued() time.Time { return s.At }

// New builds a Simple session for the given agent, stamped with the
// current time.
func New(agent rdf.IRI) Simple {
	return Simple{AgentIRI: agent, At: time.Now()}
}
