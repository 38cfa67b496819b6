package ram

import "github.com/ramlog/ramlog/domain"

// Operation is the sum type of spec.md §3.5's (nestable) Operation
// variants. Each scan-like operation introduces exactly one tuple
// identifier used by inner operations (spec.md §3.5 invariant).
type Operation interface {
	operation()
}

// Scan iterates every tuple of Relation, binding it to TupleID for Nested.
type Scan struct {
	Relation string
	TupleID  int
	Nested   Operation
	// Profile is an optional label attached when profiling is enabled
	// (spec.md §4.6 "each tuple-operation...may carry a profile label").
	Profile string
}

func (*Scan) operation() {}

// ParallelScan is Scan's parallel counterpart: legal only as the
// outermost search in a query (spec.md §3.5 invariant).
type ParallelScan struct {
	Relation string
	TupleID  int
	Nested   Operation
	Profile  string
}

func (*ParallelScan) operation() {}

// IndexScan iterates Relation's ordering Ordering restricted to the
// inclusive range [Low, High].
type IndexScan struct {
	Relation string
	Ordering int
	Low, High []Expression
	TupleID   int
	Nested    Operation
	Profile   string
}

func (*IndexScan) operation() {}

// ParallelIndexScan is IndexScan's parallel counterpart.
type ParallelIndexScan struct {
	Relation  string
	Ordering  int
	Low, High []Expression
	TupleID   int
	Nested    Operation
	Profile   string
}

func (*ParallelIndexScan) operation() {}

// Choice iterates Relation; the first tuple for which Cond holds commits
// (binds TupleID, runs Nested, then stops).
type Choice struct {
	Relation string
	TupleID  int
	Cond     Condition
	Nested   Operation
	Profile  string
}

func (*Choice) operation() {}

// IndexChoice is Choice restricted to an index range.
type IndexChoice struct {
	Relation  string
	Ordering  int
	Low, High []Expression
	TupleID   int
	Cond      Condition
	Nested    Operation
	Profile   string
}

func (*IndexChoice) operation() {}

// ParallelChoice/ParallelIndexChoice are the parallel counterparts of
// Choice/IndexChoice (legal only as the outermost search in a query).
type ParallelChoice struct {
	Relation string
	TupleID  int
	Cond     Condition
	Nested   Operation
	Profile  string
}

func (*ParallelChoice) operation() {}

type ParallelIndexChoice struct {
	Relation  string
	Ordering  int
	Low, High []Expression
	TupleID   int
	Cond      Condition
	Nested    Operation
	Profile   string
}

func (*ParallelIndexChoice) operation() {}

// UnpackRecord unpacks the record referenced by Ref into a fresh tuple
// bound to TupleID (spec.md §4.6: "if ref = nil, succeed without
// recursing").
type UnpackRecord struct {
	Ref     Expression
	Arity   int
	TupleID int
	Nested  Operation
}

func (*UnpackRecord) operation() {}

// AggregateFunc names an intrinsic aggregate function at the RAM level.
type AggregateFunc string

const (
	AggCount AggregateFunc = "count"
	AggSum   AggregateFunc = "sum"
	AggMin   AggregateFunc = "min"
	AggMax   AggregateFunc = "max"
	AggMean  AggregateFunc = "mean"
)

// Aggregate folds TargetExpr over every tuple of Relation satisfying Cond
// using Func, binds the 1-column result to TupleID, and runs Nested
// exactly once regardless of whether any tuple matched (spec.md §4.6:
// "still execute nested to honor 'no match' semantics"). ScanTupleID is
// the tuple identifier bound to each scanned row of Relation while
// TargetExpr/Cond evaluate, distinct from TupleID (the identifier the
// 1-column aggregate result is bound to for Nested).
type Aggregate struct {
	Func        AggregateFunc
	Kind        domain.Kind
	Relation    string
	TargetExpr  Expression // nil for count
	Cond        Condition
	ScanTupleID int
	TupleID     int
	Nested      Operation
	Profile     string
}

func (*Aggregate) operation() {}

// IndexAggregate narrows Aggregate's input scan to an index range.
type IndexAggregate struct {
	Func        AggregateFunc
	Kind        domain.Kind
	Relation    string
	Ordering    int
	Low, High   []Expression
	TargetExpr  Expression
	Cond        Condition
	ScanTupleID int
	TupleID     int
	Nested      Operation
	Profile     string
}

func (*IndexAggregate) operation() {}

// ParallelAggregate/ParallelIndexAggregate are the parallel counterparts.
type ParallelAggregate struct {
	Func        AggregateFunc
	Kind        domain.Kind
	Relation    string
	TargetExpr  Expression
	Cond        Condition
	ScanTupleID int
	TupleID     int
	Nested      Operation
	Profile     string
}

func (*ParallelAggregate) operation() {}

type ParallelIndexAggregate struct {
	Func        AggregateFunc
	Kind        domain.Kind
	Relation    string
	Ordering    int
	Low, High   []Expression
	TargetExpr  Expression
	Cond        Condition
	ScanTupleID int
	TupleID     int
	Nested      Operation
	Profile     string
}

func (*ParallelIndexAggregate) operation() {}

// Filter runs Nested only if Cond holds (spec.md §3.5 "filter(cond,
// nested)"); Profile labels it for the per-iteration profile counter.
type Filter struct {
	Cond    Condition
	Nested  Operation
	Profile string
}

func (*Filter) operation() {}

// Break runs Nested, then signals "stop the enclosing scan" (returns
// false upward) the moment Cond holds -- the early-exit realization of
// spec.md §9's "return a boolean continue from each nested operation".
type Break struct {
	Cond    Condition
	Nested  Operation
	Profile string
}

func (*Break) operation() {}

// Project evaluates Values and inserts the resulting tuple into Relation.
type Project struct {
	Relation string
	Values   []Expression
}

func (*Project) operation() {}

// SubroutineReturn evaluates Values and writes them into the enclosing
// subroutine's return buffer (used by provenance-explain subroutines,
// SPEC_FULL.md §12).
type SubroutineReturn struct {
	Values []Expression
}

func (*SubroutineReturn) operation() {}
