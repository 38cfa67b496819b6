package relation

import (
	"sort"

	"github.com/ramlog/ramlog/domain"
)

// Ordering is a permutation of a relation's columns selected by the
// index-selection analysis (spec.md §4.1 "a relation carries one or more
// orderings"). It maintains tuple-storage indices sorted lexicographically
// by the permuted column order, giving O(log n) total-key and range lookups.
type Ordering struct {
	perm   []int   // perm[i] = original column at permuted position i
	sorted []int32 // indices into Relation.tuples, sorted by permuted key
}

func newOrdering(perm []int) *Ordering {
	return &Ordering{perm: append([]int(nil), perm...)}
}

// key returns tuple's columns reordered by the ordering's permutation.
func (o *Ordering) key(tuple []domain.Value) []domain.Value {
	out := make([]domain.Value, len(o.perm))
	for i, col := range o.perm {
		out[i] = tuple[col]
	}
	return out
}

func compareKeys(a, b []domain.Value) int {
	for i := range a {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	return 0
}

// insert inserts tupleID into this ordering's sorted index, keeping it
// sorted. tuples is the owning relation's backing storage, needed to
// compute keys.
func (o *Ordering) insert(tuples [][]domain.Value, tupleID int32) {
	k := o.key(tuples[tupleID])
	pos := sort.Search(len(o.sorted), func(i int) bool {
		return compareKeys(o.key(tuples[o.sorted[i]]), k) >= 0
	})
	o.sorted = append(o.sorted, 0)
	copy(o.sorted[pos+1:], o.sorted[pos:])
	o.sorted[pos] = tupleID
}

// lowerBound returns the first position whose key is >= low.
func (o *Ordering) lowerBound(tuples [][]domain.Value, low []domain.Value) int {
	return sort.Search(len(o.sorted), func(i int) bool {
		return compareKeys(o.key(tuples[o.sorted[i]]), low) >= 0
	})
}

// upperBound returns the first position whose key is > high.
func (o *Ordering) upperBound(tuples [][]domain.Value, high []domain.Value) int {
	return sort.Search(len(o.sorted), func(i int) bool {
		return compareKeys(o.key(tuples[o.sorted[i]]), high) > 0
	})
}

func (o *Ordering) clone() *Ordering {
	return &Ordering{
		perm:   append([]int(nil), o.perm...),
		sorted: append([]int32(nil), o.sorted...),
	}
}
