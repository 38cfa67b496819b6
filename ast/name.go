// Package ast implements the immutable-by-cloning AST model of spec.md
// §3.4: qualified names, types, relations, arguments, literals, clauses and
// lattices, plus the whole-program aggregate transformation passes rewrite.
package ast

import (
	"strings"

	"github.com/ramlog/ramlog/symbol"
)

// NamePool interns dotted qualified names, giving every distinct name a
// dense index; two equal names share an index (spec.md §3.4). It is backed
// directly by package symbol's interner.
type NamePool struct {
	tbl *symbol.Table
}

// NewNamePool returns an empty pool.
func NewNamePool() *NamePool {
	return &NamePool{tbl: symbol.New()}
}

// QualifiedName is an interned dotted name, represented by a dense index
// into its owning pool.
type QualifiedName struct {
	pool *NamePool
	idx  int32
}

// New interns segments joined by "." and returns the QualifiedName.
func (p *NamePool) New(segments ...string) QualifiedName {
	idx := p.tbl.Lookup(strings.Join(segments, "."))
	return QualifiedName{pool: p, idx: idx}
}

// Index returns the dense index backing this name.
func (q QualifiedName) Index() int32 { return q.idx }

// String returns the dotted textual form.
func (q QualifiedName) String() string {
	if q.pool == nil {
		return ""
	}
	return q.pool.tbl.Resolve(q.idx)
}

// Segments splits the dotted textual form back into its parts.
func (q QualifiedName) Segments() []string {
	s := q.String()
	if s == "" {
		return nil
	}
	return strings.Split(s, ".")
}

// Append returns a new name with seg appended as the last segment.
func (q QualifiedName) Append(seg string) QualifiedName {
	return q.pool.New(append(q.Segments(), seg)...)
}

// Prepend returns a new name with seg inserted as the first segment.
func (q QualifiedName) Prepend(seg string) QualifiedName {
	return q.pool.New(append([]string{seg}, q.Segments()...)...)
}

// Equal reports whether q and o name the same qualified name (same pool,
// same index).
func (q QualifiedName) Equal(o QualifiedName) bool {
	return q.pool == o.pool && q.idx == o.idx
}

// IsZero reports whether q was never assigned (the zero value).
func (q QualifiedName) IsZero() bool { return q.pool == nil }

// Compare orders two names lexicographically by their segments, per
// spec.md §3.4 ("lexicographic comparison via segments"). The
// topological-SCC tie-break compares the dotted name strings directly and
// does not call Compare.
func Compare(a, b QualifiedName) int {
	as, bs := a.Segments(), b.Segments()
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] < bs[i] {
			return -1
		}
		if as[i] > bs[i] {
			return 1
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	default:
		return 0
	}
}
