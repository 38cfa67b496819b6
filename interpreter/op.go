package interpreter

import (
	"math"
	"sync"

	"github.com/ramlog/ramlog/domain"
	"github.com/ramlog/ramlog/ram"
	"github.com/ramlog/ramlog/relation"
)

// execOp runs op against c, returning whether the enclosing scan (if any)
// should keep iterating -- Break is the only operation that ever returns
// false (spec.md §9 "return a boolean continue from each nested
// operation").
func (c *execContext) execOp(op ram.Operation) bool {
	switch v := op.(type) {
	case *ram.Scan:
		rel := c.in.mustRelation(v.Relation)
		c.in.metrics.recordRead(v.Relation)
		for _, row := range rel.Scan() {
			c.setTuple(v.TupleID, row.Data())
			if !c.execOp(v.Nested) {
				return true
			}
		}
		return true
	case *ram.ParallelScan:
		c.execParallelRows(v.Relation, v.TupleID, v.Nested, nil, nil, -1)
		return true
	case *ram.IndexScan:
		return c.execIndexScan(v.Relation, v.Ordering, v.Low, v.High, v.TupleID, v.Nested)
	case *ram.ParallelIndexScan:
		c.execParallelRows(v.Relation, v.TupleID, v.Nested, v.Low, v.High, v.Ordering)
		return true
	case *ram.Choice:
		rel := c.in.mustRelation(v.Relation)
		c.in.metrics.recordRead(v.Relation)
		for _, row := range rel.Scan() {
			c.setTuple(v.TupleID, row.Data())
			if c.evalCond(v.Cond) {
				c.execOp(v.Nested)
				break
			}
		}
		return true
	case *ram.IndexChoice:
		rows := c.rangeRows(v.Relation, v.Ordering, v.Low, v.High)
		for _, row := range rows {
			c.setTuple(v.TupleID, row.Data())
			if c.evalCond(v.Cond) {
				c.execOp(v.Nested)
				break
			}
		}
		return true
	case *ram.ParallelChoice:
		c.execParallelChoice(v.Relation, v.TupleID, v.Cond, v.Nested, nil, nil, -1)
		return true
	case *ram.ParallelIndexChoice:
		c.execParallelChoice(v.Relation, v.TupleID, v.Cond, v.Nested, v.Low, v.High, v.Ordering)
		return true
	case *ram.UnpackRecord:
		ref := c.evalExpr(v.Ref)
		if ref == 0 {
			return true
		}
		data := c.in.records.Unpack(domain.ToRecord(ref), v.Arity)
		tuple := make([]domain.Value, len(data))
		for i, x := range data {
			tuple[i] = domain.Value(x)
		}
		c.setTuple(v.TupleID, tuple)
		c.execOp(v.Nested)
		return true
	case *ram.Aggregate:
		return c.execAggregate(v.Func, v.Kind, v.Relation, -1, nil, nil, v.TargetExpr, v.Cond, v.ScanTupleID, v.TupleID, v.Nested)
	case *ram.IndexAggregate:
		return c.execAggregate(v.Func, v.Kind, v.Relation, v.Ordering, v.Low, v.High, v.TargetExpr, v.Cond, v.ScanTupleID, v.TupleID, v.Nested)
	case *ram.ParallelAggregate:
		return c.execAggregate(v.Func, v.Kind, v.Relation, -1, nil, nil, v.TargetExpr, v.Cond, v.ScanTupleID, v.TupleID, v.Nested)
	case *ram.ParallelIndexAggregate:
		return c.execAggregate(v.Func, v.Kind, v.Relation, v.Ordering, v.Low, v.High, v.TargetExpr, v.Cond, v.ScanTupleID, v.TupleID, v.Nested)
	case *ram.Filter:
		if c.evalCond(v.Cond) {
			return c.execOp(v.Nested)
		}
		return true
	case *ram.Break:
		cont := c.execOp(v.Nested)
		if c.evalCond(v.Cond) {
			return false
		}
		return cont
	case *ram.Project:
		vals := make([]domain.Value, len(v.Values))
		for i, e := range v.Values {
			vals[i] = c.evalExpr(e)
		}
		c.in.mustRelation(v.Relation).Insert(vals)
		return true
	case *ram.SubroutineReturn:
		vals := make([]domain.Value, len(v.Values))
		for i, e := range v.Values {
			vals[i] = c.evalExpr(e)
		}
		c.ret = vals
		return true
	default:
		panic("interpreter: unhandled operation type")
	}
}

func (c *execContext) rangeRows(relName string, ordering int, low, high []ram.Expression) []relation.Row {
	c.in.metrics.recordRead(relName)
	lo := make([]domain.Value, len(low))
	hi := make([]domain.Value, len(high))
	for i, e := range low {
		lo[i] = c.evalExpr(e)
	}
	for i, e := range high {
		hi[i] = c.evalExpr(e)
	}
	return c.view(relName, ordering).Range(lo, hi)
}

func (c *execContext) execIndexScan(relName string, ordering int, low, high []ram.Expression, tupleID int, nested ram.Operation) bool {
	for _, row := range c.rangeRows(relName, ordering, low, high) {
		c.setTuple(tupleID, row.Data())
		if !c.execOp(nested) {
			return true
		}
	}
	return true
}

// execParallelRows fans a scan (full or ranged) out across the
// interpreter's configured job count, each worker operating on an
// independently cloned context over a disjoint partition (spec.md §4.1,
// §5 "ParallelScan...legal only as the outermost search").
func (c *execContext) execParallelRows(relName string, tupleID int, nested ram.Operation, low, high []ram.Expression, ordering int) {
	rel := c.in.mustRelation(relName)
	c.in.metrics.recordRead(relName)
	var parts [][]relation.Row
	if ordering < 0 {
		parts = rel.Partition(c.in.jobs)
	} else {
		parts = [][]relation.Row{c.rangeRows(relName, ordering, low, high)}
	}
	var wg sync.WaitGroup
	for _, part := range parts {
		part := part
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker := c.cloneFor()
			for _, row := range part {
				worker.setTuple(tupleID, row.Data())
				if !worker.execOp(nested) {
					return
				}
			}
		}()
	}
	wg.Wait()
}

func (c *execContext) execParallelChoice(relName string, tupleID int, cond ram.Condition, nested ram.Operation, low, high []ram.Expression, ordering int) {
	rel := c.in.mustRelation(relName)
	c.in.metrics.recordRead(relName)
	var parts [][]relation.Row
	if ordering < 0 {
		parts = rel.Partition(c.in.jobs)
	} else {
		parts = [][]relation.Row{c.rangeRows(relName, ordering, low, high)}
	}
	var wg sync.WaitGroup
	for _, part := range parts {
		part := part
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker := c.cloneFor()
			for _, row := range part {
				worker.setTuple(tupleID, row.Data())
				if worker.evalCond(cond) {
					worker.execOp(nested)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func (c *execContext) execAggregate(
	fn ram.AggregateFunc,
	kind domain.Kind,
	relName string,
	ordering int,
	low, high []ram.Expression,
	target ram.Expression,
	cond ram.Condition,
	scanTupleID int,
	tupleID int,
	nested ram.Operation,
) bool {
	var rows []relation.Row
	if ordering < 0 {
		rel := c.in.mustRelation(relName)
		c.in.metrics.recordRead(relName)
		rows = rel.Scan()
	} else {
		rows = c.rangeRows(relName, ordering, low, high)
	}

	acc := newAccumulator(fn, kind)
	for _, row := range rows {
		c.setTuple(scanTupleID, row.Data())
		if cond != nil && !c.evalCond(cond) {
			continue
		}
		var val domain.Value
		if target != nil {
			val = c.evalExpr(target)
		}
		acc.fold(val)
	}
	// Nested runs exactly once even over an empty input, with the
	// initialized sentinel visible (spec.md §4.6, §8: count 0, sum 0,
	// min MAX_DOMAIN, max MIN_DOMAIN).
	c.setTuple(tupleID, []domain.Value{acc.result()})
	return c.execOp(nested)
}

// accumulator folds aggregate inputs under the typed semantics the
// polymorphic-resolution pass picked for the aggregator: unsigned and
// float inputs never coerce through signed (spec.md §4.6).
type accumulator struct {
	fn    ram.AggregateFunc
	kind  domain.Kind
	count int64
	sumS  int64
	sumU  uint64
	sumF  float64
	minV  domain.Value
	maxV  domain.Value
}

func newAccumulator(fn ram.AggregateFunc, kind domain.Kind) *accumulator {
	a := &accumulator{fn: fn, kind: kind}
	switch kind {
	case domain.KindFloat:
		a.minV = domain.FromFloat(math.Inf(1))
		a.maxV = domain.FromFloat(math.Inf(-1))
	case domain.KindUnsigned:
		a.minV = domain.FromUnsigned(math.MaxUint64)
		a.maxV = domain.FromUnsigned(0)
	default:
		a.minV = domain.MaxDomainSigned
		a.maxV = domain.MinDomainSigned
	}
	return a
}

func (a *accumulator) fold(val domain.Value) {
	a.count++
	if a.fn == ram.AggCount {
		return
	}
	switch a.kind {
	case domain.KindFloat:
		f := domain.ToFloat(val)
		a.sumF += f
		if f < domain.ToFloat(a.minV) {
			a.minV = val
		}
		if f > domain.ToFloat(a.maxV) {
			a.maxV = val
		}
	case domain.KindUnsigned:
		u := domain.ToUnsigned(val)
		a.sumU += u
		if u < domain.ToUnsigned(a.minV) {
			a.minV = val
		}
		if u > domain.ToUnsigned(a.maxV) {
			a.maxV = val
		}
	default:
		n := domain.ToSigned(val)
		a.sumS += n
		if n < domain.ToSigned(a.minV) {
			a.minV = val
		}
		if n > domain.ToSigned(a.maxV) {
			a.maxV = val
		}
	}
}

func (a *accumulator) result() domain.Value {
	switch a.fn {
	case ram.AggCount:
		return domain.FromSigned(a.count)
	case ram.AggSum:
		switch a.kind {
		case domain.KindFloat:
			return domain.FromFloat(a.sumF)
		case domain.KindUnsigned:
			return domain.FromUnsigned(a.sumU)
		default:
			return domain.FromSigned(a.sumS)
		}
	case ram.AggMean:
		// Over an empty set the initialized accumulator (0) is the
		// documented result (see DESIGN.md's Open Question decisions).
		if a.count == 0 {
			return domain.FromFloat(0)
		}
		switch a.kind {
		case domain.KindFloat:
			return domain.FromFloat(a.sumF / float64(a.count))
		case domain.KindUnsigned:
			return domain.FromFloat(float64(a.sumU) / float64(a.count))
		default:
			return domain.FromFloat(float64(a.sumS) / float64(a.count))
		}
	case ram.AggMin:
		return a.minV
	case ram.AggMax:
		return a.maxV
	}
	return domain.FromSigned(0)
}
