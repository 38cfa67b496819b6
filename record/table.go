// Package record implements the process-wide record table described in
// spec.md §3.3: a mapping between flat tuples of fixed arity and dense
// record indices, with index 0 reserved for "nil". Packing is idempotent;
// records may transitively contain other record indices.
package record

import (
	"fmt"
	"sync"

	"github.com/mitchellh/hashstructure"
)

// Nil is the reserved record index meaning "no record" (spec.md §3.3).
const Nil int64 = 0

// Table interns flat tuples into record indices, keyed by arity. A Table is
// safe for concurrent use.
type Table struct {
	// mu guards growth of byIndex/byHash; the fast "does this hash already
	// exist" read path below takes only a read lock, approximating the
	// "lock-free intern-or-insert path with a fallback lock on growth"
	// described in spec.md §5 without depending on a non-stdlib atomic map.
	mu      sync.RWMutex
	byIndex [][]int64
	byHash  map[uint64][]int64 // hash -> candidate indices (collisions possible)
}

// New returns an empty table. Index 0 is pre-reserved for Nil.
func New() *Table {
	return &Table{
		byIndex: [][]int64{nil}, // index 0 == nil, data is irrelevant
		byHash:  make(map[uint64][]int64),
	}
}

// Pack interns data (len(data) must equal arity) and returns its record
// index. Pack is idempotent: packing equal data twice returns the same
// index.
func (t *Table) Pack(data []int64, arity int) int64 {
	if len(data) != arity {
		panic(fmt.Sprintf("record: Pack called with %d values for arity %d", len(data), arity))
	}
	if arity == 0 {
		return Nil
	}

	h, err := hashstructure.Hash(data, nil)
	if err != nil {
		// hashstructure only fails on unsupported types; []int64 always
		// succeeds, so this indicates a library contract violation.
		panic(err)
	}

	t.mu.RLock()
	if idx, ok := t.findLocked(h, data); ok {
		t.mu.RUnlock()
		return idx
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if idx, ok := t.findLocked(h, data); ok {
		return idx
	}

	cp := make([]int64, arity)
	copy(cp, data)
	idx := int64(len(t.byIndex))
	t.byIndex = append(t.byIndex, cp)
	t.byHash[h] = append(t.byHash[h], idx)
	return idx
}

func (t *Table) findLocked(h uint64, data []int64) (int64, bool) {
	for _, idx := range t.byHash[h] {
		if equalInts(t.byIndex[idx], data) {
			return idx, true
		}
	}
	return 0, false
}

// Unpack returns the arity-length slice stored at ref. Unpacking Nil is
// invalid; callers must special-case Nil before calling Unpack (mirroring
// the interpreter's unpack-record semantics in spec.md §4.6, which succeeds
// without recursing when ref is nil).
func (t *Table) Unpack(ref int64, arity int) []int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	data := t.byIndex[ref]
	if len(data) != arity {
		panic(fmt.Sprintf("record: Unpack(%d) arity mismatch: stored %d, requested %d", ref, len(data), arity))
	}
	out := make([]int64, arity)
	copy(out, data)
	return out
}

// Len returns the number of interned records, not counting the reserved Nil
// slot at index 0.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byIndex) - 1
}

// Each calls fn once per interned record, in index order starting at 1,
// with that record's own index and flattened data (whose length is its
// arity). Used by iosys's intermediate record-file persistence (spec.md §6),
// which needs to enumerate every record regardless of arity rather than
// probe index-by-index with an arity it would have to guess.
func (t *Table) Each(fn func(idx int64, data []int64)) {
	t.mu.RLock()
	snapshot := make([][]int64, len(t.byIndex))
	copy(snapshot, t.byIndex)
	t.mu.RUnlock()
	for idx := int64(1); idx < int64(len(snapshot)); idx++ {
		fn(idx, snapshot[idx])
	}
}

func equalInts(a, b []int64) bool {
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
