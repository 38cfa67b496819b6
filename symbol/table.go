// Package symbol implements the process-wide symbol interner described in
// spec.md §3.2: a mapping between strings and dense, stable, non-negative
// indices, safe for concurrent lookups with an exclusive lease for writers.
package symbol

import "sync"

// Table interns strings into dense int32 indices. The zero value is not
// usable; construct with New. A Table is safe for concurrent use.
type Table struct {
	mu      sync.RWMutex
	byIndex []string
	byName  map[string]int32
}

// New returns an empty, ready-to-use symbol table.
func New() *Table {
	return &Table{
		byName: make(map[string]int32),
	}
}

// Lookup interns s, returning its index. Lookup is idempotent: interning the
// same string twice returns the same index.
func (t *Table) Lookup(s string) int32 {
	t.mu.RLock()
	if idx, ok := t.byName[s]; ok {
		t.mu.RUnlock()
		return idx
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	// Another writer may have interned s while we waited for the lock.
	if idx, ok := t.byName[s]; ok {
		return idx
	}
	idx := int32(len(t.byIndex))
	t.byIndex = append(t.byIndex, s)
	t.byName[s] = idx
	return idx
}

// Resolve returns the string interned at idx. It panics if idx is out of
// range, which indicates a caller bug (an index that was never returned by
// this table's Lookup).
func (t *Table) Resolve(idx int32) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.byIndex[idx]
}

// Contains reports whether s has already been interned, without interning
// it.
func (t *Table) Contains(s string) (int32, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	idx, ok := t.byName[s]
	return idx, ok
}

// Len returns the number of distinct interned strings.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byIndex)
}

// Lease acquires an exclusive writer lease over the table, blocking
// concurrent Lookup calls that would otherwise race a bulk-load operation
// (e.g. restoring a persisted symbol table, spec.md §6). Callers must call
// the returned release function, typically via defer, so the lease is
// always released even on an error path — the same scoped-acquisition
// discipline spec.md §5 requires of the symbol-table lease.
func (t *Table) Lease() (release func()) {
	t.mu.Lock()
	return t.mu.Unlock
}

// LoadIndexed forces the entry at idx to resolve to s, growing the table as
// needed. Used by the symbol-table file loader (spec.md §6) to restore a
// table from a previously persisted count/index mapping. Callers must hold
// a Lease.
func (t *Table) LoadIndexed(idx int32, s string) {
	for int32(len(t.byIndex)) <= idx {
		t.byIndex = append(t.byIndex, "")
	}
	t.byIndex[idx] = s
	t.byName[s] = idx
}
