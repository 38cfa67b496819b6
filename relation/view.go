package relation

import "github.com/ramlog/ramlog/domain"

// View is a cheap, thread-local handle over a relation's ordering, cached
// for the duration of a query (spec.md §4.1, §4.6). Multiple views over the
// same ordering may coexist; since this relation layer only grows between
// query iterations (merges act as barriers, spec.md §5), a View never needs
// to invalidate during the read-only phase of a query it was created in —
// it simply forwards to the relation, which is itself read-consistent
// within that phase.
type View struct {
	rel *Relation
	ord int
}

// NewView creates a view over rel's ordering ord.
func NewView(rel *Relation, ord int) *View {
	return &View{rel: rel, ord: ord}
}

// Contains performs a total-key lookup through this view's ordering.
func (v *View) Contains(pattern []domain.Value) bool {
	return v.rel.Contains(v.ord, pattern)
}

// Range performs a range lookup through this view's ordering.
func (v *View) Range(low, high []domain.Value) []Row {
	return v.rel.Range(v.ord, low, high)
}

// Scan returns a full scan, ignoring ordering (every ordering enumerates the
// same tuple set).
func (v *View) Scan() []Row {
	return v.rel.Scan()
}

// Partition splits the view's relation into n disjoint ranges for parallel
// scan; each worker then clones the enclosing context and builds its own
// views per the preamble (spec.md §4.5, §5).
func (v *View) Partition(n int) [][]Row {
	return v.rel.Partition(n)
}
