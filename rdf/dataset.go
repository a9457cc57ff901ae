package rdf

// Dataset is a multiset of quads supporting pattern iteration over an
// optional (graph, subject, predicate, object) pattern. It is the in-memory
// container callers use to hand a batch of quads to the resource service
// (create/replace/add inputs); the projection layer returns a single
// projection graph as a plain []Quad, not a Dataset.
type Dataset struct {
	quads []Quad
	count map[quadKey]int
}

// NewDataset builds a dataset from a slice of quads, preserving duplicates.
func NewDataset(quads ...Quad) Dataset {
	d := Dataset{quads: append([]Quad(nil), quads...), count: make(map[quadKey]int, len(quads))}
	for _, q := range quads {
		d.count[q.key()]++
	}
	return d
}

// Add appends a quad to the dataset.
func (d *Dataset) Add(q Quad) {
	d.quads = append(d.quads, q)
	if d.count == nil {
		d.count = make(map[quadKey]int)
	}
	d.count[q.key()]++
}

// Len returns the number of quads in the dataset, counting duplicates.
func (d Dataset) Len() int { return len(d.quads) }

// Quads returns the materialized, ordered slice of quads. The slice is a
// copy; mutating it does not affect the dataset.
func (d Dataset) Quads() []Quad {
	out := make([]Quad, len(d.quads))
	copy(out, d.quads)
	return out
}

// Pattern describes a conjunctive match over a single quad position set.
// A nil field in any position means "match any value" for that position.
type Pattern struct {
	Graph     *IRI
	Subject   SubjectTerm
	Predicate *IRI
	Object    Term
}

// Match reports whether q satisfies the pattern.
func (p Pattern) Match(q Quad) bool {
	if p.Graph != nil && *p.Graph != q.Graph {
		return false
	}
	if p.Subject != nil && !TermEquals(p.Subject, q.Subject) {
		return false
	}
	if p.Predicate != nil && *p.Predicate != q.Predicate {
		return false
	}
	if p.Object != nil && !TermEquals(p.Object, q.Object) {
		return false
	}
	return true
}

// Filter returns the quads matching the pattern, in dataset order.
func (d Dataset) Filter(p Pattern) []Quad {
	var out []Quad
	for _, q := range d.quads {
		if p.Match(q) {
			out = append(out, q)
		}
	}
	return out
}

// Equivalent reports whether two datasets contain the same multiset of
// quads modulo graph name — used by the test harness contract (§8) to
// compare a stored projection graph against an expected quad set where the
// caller's quads may have been written with a different (or no) graph name
// and the projection re-attaches the resource's graph name on read.
func (d Dataset) Equivalent(other Dataset) bool {
	if len(d.quads) != len(other.quads) {
		return false
	}
	countA := tripleMultiset(d.quads)
	countB := tripleMultiset(other.quads)
	if len(countA) != len(countB) {
		return false
	}
	for k, n := range countA {
		if countB[k] != n {
			return false
		}
	}
	return true
}

type tripleKey struct {
	subject   string
	predicate IRI
	object    string
}

func tripleMultiset(quads []Quad) map[tripleKey]int {
	m := make(map[tripleKey]int, len(quads))
	for _, q := range quads {
		m[tripleKey{subject: q.Subject.String(), predicate: q.Predicate, object: q.Object.String()}]++
	}
	return m
}
