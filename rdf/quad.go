package rdf

// Quad is a single (graph, subject, predicate, object) tuple.
type Quad struct {
	Graph     IRI
	Subject   SubjectTerm
	Predicate IRI
	Object    Term
}

// NewQuad builds a quad, panicking is never necessary since SubjectTerm and
// Term are satisfied by IRI/BlankNode/Literal directly.
func NewQuad(graph IRI, subject SubjectTerm, predicate IRI, object Term) Quad {
	return Quad{Graph: graph, Subject: subject, Predicate: predicate, Object: object}
}

// Equals compares two quads term-by-term, including graph name.
func (q Quad) Equals(other Quad) bool {
	return q.Graph == other.Graph &&
		TermEquals(q.Subject, other.Subject) &&
		q.Predicate == other.Predicate &&
		TermEquals(q.Object, other.Object)
}

// key returns a comparable map key for a quad, used by Dataset's internal
// multiset bookkeeping and by store backends for exact-match dedup.
func (q Quad) key() quadKey {
	return quadKey{
		graph:     q.Graph,
		subject:   q.Subject.String(),
		predicate: q.Predicate,
		object:    q.Object.String(),
	}
}

type quadKey struct {
	graph     IRI
	subject   string
	predicate IRI
	object    string
}
