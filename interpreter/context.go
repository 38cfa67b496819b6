package interpreter

import (
	"github.com/ramlog/ramlog/domain"
	"github.com/ramlog/ramlog/relation"
)

// execContext is the per-query evaluation context of spec.md §4.6: an
// array of tuple-pointer slots indexed by tuple id, plus the enclosing
// subroutine's argument/return buffers. One execContext is created per
// Run/Call and threaded through every nested Operation/Statement; Parallel
// statements and parallel scans clone it per worker (cloneFor).
type execContext struct {
	in     *Interpreter
	tuples [][]domain.Value
	args   []domain.Value
	ret    []domain.Value
	// views caches one relation.View per (relation, ordering) pair for
	// the life of this context (spec.md §4.6 "a per-query map of view
	// handle id -> relation view"). Worker clones build their own cache,
	// so views stay thread-local (spec.md §4.1, §5).
	views map[viewKey]*relation.View
	// exit is set once an Exit condition inside the current Loop body has
	// evaluated true; the enclosing Loop checks it after each full body
	// run rather than aborting execution mid-body (DESIGN.md: this keeps
	// the bookkeeping statements that follow an Exit check in the same
	// loop body -- delta-diff, merge, clear -- simple sequential code
	// instead of conditionally skipped).
	exit bool
}

func newContext(in *Interpreter, numArgs int) *execContext {
	return &execContext{in: in, args: make([]domain.Value, numArgs)}
}

// cloneFor returns a context sharing the same interpreter, args and ret
// buffers but with an independent tuple slot array, view cache, and exit
// flag, for a parallel worker that must not race on slot writes with its
// siblings.
func (c *execContext) cloneFor() *execContext {
	return &execContext{in: c.in, args: c.args, ret: c.ret}
}

type viewKey struct {
	rel string
	ord int
}

// view returns this context's cached view over rel's ordering ord,
// creating it on first use.
func (c *execContext) view(rel string, ord int) *relation.View {
	key := viewKey{rel: rel, ord: ord}
	if v, ok := c.views[key]; ok {
		return v
	}
	if c.views == nil {
		c.views = make(map[viewKey]*relation.View)
	}
	v := relation.NewView(c.in.mustRelation(rel), ord)
	c.views[key] = v
	return v
}

func (c *execContext) setTuple(id int, data []domain.Value) {
	for len(c.tuples) <= id {
		c.tuples = append(c.tuples, nil)
	}
	c.tuples[id] = data
}

func (c *execContext) tuple(id int) []domain.Value {
	if id < 0 || id >= len(c.tuples) {
		return nil
	}
	return c.tuples[id]
}
