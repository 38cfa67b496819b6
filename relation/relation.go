// Package relation implements the relation & index layer described in
// spec.md §4.1: fixed-arity tuple multisets (seen as sets by callers; insert
// dedups under the primary key), with one or more orderings (permutations
// of columns) supporting total-key lookups, inclusive range lookups, full
// scans, and partitioning for parallel consumption. It also implements
// merge-extend (the eqrel closure), swap, and purge.
package relation

import (
	"sync"

	"github.com/mitchellh/hashstructure"

	"github.com/ramlog/ramlog/domain"
)

// Relation is a mutable, fixed-arity tuple store with one or more
// orderings. The zero value is not usable; construct with New.
type Relation struct {
	mu     sync.RWMutex
	arity  int
	tuples [][]domain.Value
	// byHash backs the primary-key dedup path: Insert checks it before
	// appending, so operators only ever observe a set (spec.md §4.1).
	byHash map[uint64][]int32
	// orderings[0] is always the identity ordering (0,1,2,...,arity-1);
	// index-selection analysis adds further orderings as it discovers
	// search patterns.
	orderings []*Ordering
	// eqrel marks a relation using the "equivalence-relation" storage
	// representation (spec.md §3.4 Relation.representation); MergeExtend is
	// only meaningful for these.
	eqrel bool
}

// New returns an empty relation of the given arity with just the identity
// ordering.
func New(arity int) *Relation {
	identity := make([]int, arity)
	for i := range identity {
		identity[i] = i
	}
	return &Relation{
		arity:     arity,
		byHash:    make(map[uint64][]int32),
		orderings: []*Ordering{newOrdering(identity)},
	}
}

// NewEqrel returns an empty arity-2 relation using the eqrel storage
// representation.
func NewEqrel() *Relation {
	r := New(2)
	r.eqrel = true
	return r
}

// Arity returns the relation's fixed tuple arity.
func (r *Relation) Arity() int { return r.arity }

// IsEqrel reports whether this relation uses the equivalence-relation
// representation.
func (r *Relation) IsEqrel() bool { return r.eqrel }

// AddOrdering registers a new ordering (a permutation of columns) chosen by
// the index-selection analysis, backfilling it with every tuple already
// present. It returns the ordering's id for later reference from RAM
// operations.
func (r *Relation) AddOrdering(perm []int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	o := newOrdering(perm)
	for i := range r.tuples {
		o.insert(r.tuples, int32(i))
	}
	r.orderings = append(r.orderings, o)
	return len(r.orderings) - 1
}

// Len returns the number of tuples currently stored.
func (r *Relation) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tuples)
}

// hashOf computes the structural hash of a tuple for the dedup fast path.
func hashOf(tuple []domain.Value) uint64 {
	h, err := hashstructure.Hash(tuple, nil)
	if err != nil {
		panic(err)
	}
	return h
}

// Insert appends tuple if it is not already present (by full-tuple
// equality), maintaining every ordering. It reports whether the tuple was
// newly inserted. Insert is safe to call concurrently from a parallel
// project (spec.md §5: "insertion is internally synchronized and must be
// linearizable").
func (r *Relation) Insert(tuple []domain.Value) bool {
	if len(tuple) != r.arity {
		panic("relation: tuple arity mismatch")
	}
	h := hashOf(tuple)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, idx := range r.byHash[h] {
		if equalTuple(r.tuples[idx], tuple) {
			return false
		}
	}

	cp := make([]domain.Value, len(tuple))
	copy(cp, tuple)
	id := int32(len(r.tuples))
	r.tuples = append(r.tuples, cp)
	r.byHash[h] = append(r.byHash[h], id)
	for _, o := range r.orderings {
		o.insert(r.tuples, id)
	}
	return true
}

func equalTuple(a, b []domain.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Contains reports whether pattern (a total key, one value per column under
// ordering ord) is present. This realizes the "point contains" existence
// check from spec.md §4.6.
func (r *Relation) Contains(ord int, pattern []domain.Value) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o := r.orderings[ord]
	pos := o.lowerBound(r.tuples, pattern)
	return pos < len(o.sorted) && compareKeys(o.key(r.tuples[o.sorted[pos]]), pattern) == 0
}

// Range returns every tuple t under ordering ord with
// low[i] <= t[ord[i]] <= high[i] for every column i (spec.md §8 "Index
// correctness"). Callers fill unbound columns in low/high with the MIN/MAX
// domain sentinels; ordering selection guarantees bound columns form a
// prefix so lexicographic range search between low and high implements the
// full per-column conjunction.
func (r *Relation) Range(ord int, low, high []domain.Value) []Row {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o := r.orderings[ord]
	lo := o.lowerBound(r.tuples, low)
	hi := o.upperBound(r.tuples, high)
	out := make([]Row, 0, hi-lo)
	for _, id := range o.sorted[lo:hi] {
		out = append(out, Row{id: id, data: r.tuples[id]})
	}
	return out
}

// Row is a single materialized tuple together with its internal storage id,
// exposed so the interpreter can thread it through nested operations
// without re-copying.
type Row struct {
	id   int32
	data []domain.Value
}

// Data returns the row's column values.
func (row Row) Data() []domain.Value { return row.data }

// Scan returns every tuple in the relation, in storage (insertion) order.
// The observable order within a single query is otherwise unspecified per
// spec.md §5.
func (r *Relation) Scan() []Row {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Row, len(r.tuples))
	for i, t := range r.tuples {
		out[i] = Row{id: int32(i), data: t}
	}
	return out
}

// Partition splits a full scan into n disjoint, contiguous ranges for
// parallel consumption (spec.md §4.1, §5). If n <= 0 or n > len, it is
// clamped to a sane range.
func (r *Relation) Partition(n int) [][]Row {
	all := r.Scan()
	if n <= 0 {
		n = 1
	}
	if n > len(all) {
		n = len(all)
	}
	if n == 0 {
		return nil
	}
	out := make([][]Row, n)
	base := len(all) / n
	rem := len(all) % n
	start := 0
	for i := 0; i < n; i++ {
		size := base
		if i < rem {
			size++
		}
		out[i] = all[start : start+size]
		start += size
	}
	return out
}

// Purge drops every tuple without freeing the underlying structure (spec.md
// §4.1).
func (r *Relation) Purge() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tuples = r.tuples[:0]
	r.byHash = make(map[uint64][]int32)
	for _, o := range r.orderings {
		o.sorted = o.sorted[:0]
	}
}

// Swap exchanges a and b's underlying storage in O(1) (spec.md §4.1), used
// by the seminaive RAM `swap` statement.
func Swap(a, b *Relation) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a != b {
		b.mu.Lock()
		defer b.mu.Unlock()
	}
	a.tuples, b.tuples = b.tuples, a.tuples
	a.byHash, b.byHash = b.byHash, a.byHash
	a.orderings, b.orderings = b.orderings, a.orderings
}

// MergeExtend performs the equivalence-class closure required for eqrel
// representation (spec.md §4.4 step 3, §4.6 `merge-extend`): src is
// extended to the reflexive-symmetric-transitive closure of src ∪ tgt's
// pairs, then merged into tgt. Only valid for arity-2 relations.
func MergeExtend(src, tgt *Relation) {
	if src.arity != 2 || tgt.arity != 2 {
		panic("relation: MergeExtend requires arity-2 relations")
	}
	uf := newUnionFind()
	for _, row := range tgt.Scan() {
		uf.union(row.data[0], row.data[1])
	}
	for _, row := range src.Scan() {
		uf.union(row.data[0], row.data[1])
	}
	classes := uf.classes()
	for _, members := range classes {
		for _, a := range members {
			for _, b := range members {
				src.Insert([]domain.Value{a, b})
			}
		}
	}
	for _, row := range src.Scan() {
		tgt.Insert(row.data)
	}
}

type unionFind struct {
	parent map[domain.Value]domain.Value
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[domain.Value]domain.Value)}
}

func (u *unionFind) find(x domain.Value) domain.Value {
	if _, ok := u.parent[x]; !ok {
		u.parent[x] = x
		return x
	}
	root := x
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[x] != root {
		u.parent[x], x = root, u.parent[x]
	}
	return root
}

func (u *unionFind) union(a, b domain.Value) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}

func (u *unionFind) classes() map[domain.Value][]domain.Value {
	out := make(map[domain.Value][]domain.Value)
	for x := range u.parent {
		r := u.find(x)
		out[r] = append(out[r], x)
	}
	return out
}
