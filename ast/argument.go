package ast

import "github.com/ramlog/ramlog/domain"

// Argument is the sum type of spec.md §3.4's Argument variants. Concrete
// node types implement this marker interface; callers type-switch rather
// than relying on a class hierarchy (Design Notes §9: "tagged variants +
// visitor" instead of deep inheritance).
type Argument interface {
	argument()
	// Clone returns a deep, independent copy of this argument, used by
	// transformation passes that need to rewrite a sub-tree without
	// mutating the one another pass or clause still references (spec.md
	// §3.4 "Lifecycle": AST nodes are mutated only by transformation
	// passes, each returning a changed? flag; unrelated clauses sharing a
	// sub-tree must not observe another clause's rewrite).
	Clone() Argument
}

// Variable is a named logic variable.
type Variable struct {
	Name string
}

func (*Variable) argument()         {}
func (v *Variable) Clone() Argument { return &Variable{Name: v.Name} }

// UnnamedVariable is the `_` wildcard: grounded trivially, never read.
type UnnamedVariable struct{}

func (*UnnamedVariable) argument()         {}
func (u *UnnamedVariable) Clone() Argument { return &UnnamedVariable{} }

// NumberConstant is a numeric literal. Kind starts nil ("polymorphic": the
// constant's eventual concrete type is still a candidate set resolved by
// type inference) and is set to a concrete domain.Kind by the
// polymorphic-resolution pass (spec.md §4.2 pass 2); translation requires
// Kind != nil (spec.md §3.4 invariant "numeric constants carry a resolved
// polymorphic type before translation").
type NumberConstant struct {
	Value domain.Value
	Kind  *domain.Kind
}

func (*NumberConstant) argument() {}
func (n *NumberConstant) Clone() Argument {
	cp := &NumberConstant{Value: n.Value}
	if n.Kind != nil {
		k := *n.Kind
		cp.Kind = &k
	}
	return cp
}

// StringConstant is a symbol-typed literal string.
type StringConstant struct {
	Value string
}

func (*StringConstant) argument()         {}
func (s *StringConstant) Clone() Argument { return &StringConstant{Value: s.Value} }

// RecordInit constructs a record value from its field arguments.
type RecordInit struct {
	Type *Type
	Args []Argument
}

func (*RecordInit) argument() {}
func (r *RecordInit) Clone() Argument {
	return &RecordInit{Type: r.Type, Args: cloneArgs(r.Args)}
}

// BranchInit constructs a sum-type value for a named branch.
type BranchInit struct {
	Type   *Type
	Branch string
	Args   []Argument
}

func (*BranchInit) argument() {}
func (b *BranchInit) Clone() Argument {
	return &BranchInit{Type: b.Type, Branch: b.Branch, Args: cloneArgs(b.Args)}
}

// IntrinsicFunctor is a built-in functor occurrence (e.g. `+`, `cat`,
// `substr`). Op is the polymorphic operator name before resolution;
// Resolved is filled in by the polymorphic-resolution pass with the
// concrete typed variant selected for it.
type IntrinsicFunctor struct {
	Op       string
	Args     []Argument
	Resolved *domain.Kind
}

func (*IntrinsicFunctor) argument() {}
func (f *IntrinsicFunctor) Clone() Argument {
	cp := &IntrinsicFunctor{Op: f.Op, Args: cloneArgs(f.Args)}
	if f.Resolved != nil {
		k := *f.Resolved
		cp.Resolved = &k
	}
	return cp
}

// UserFunctor is a user-defined functor occurrence, resolved by the
// user-defined-functor-resolution pass (spec.md §4.2 pass 3) to carry its
// declared argument/return types.
type UserFunctor struct {
	Name       string
	Args       []Argument
	ArgTypes   []*Type
	ReturnType *Type
}

func (*UserFunctor) argument() {}
func (f *UserFunctor) Clone() Argument {
	return &UserFunctor{Name: f.Name, Args: cloneArgs(f.Args), ArgTypes: f.ArgTypes, ReturnType: f.ReturnType}
}

// TypeCast is an explicit `as(arg, type)` cast; removed by the
// remove-typecasts pass (spec.md §4.2 pass 1) once type inference has run.
type TypeCast struct {
	Type *Type
	Arg  Argument
}

func (*TypeCast) argument()         {}
func (c *TypeCast) Clone() Argument { return &TypeCast{Type: c.Type, Arg: c.Arg.Clone()} }

// AggregateOp names an intrinsic aggregator function.
type AggregateOp string

const (
	AggCount AggregateOp = "count"
	AggSum   AggregateOp = "sum"
	AggMin   AggregateOp = "min"
	AggMax   AggregateOp = "max"
	AggMean  AggregateOp = "mean"
)

// Aggregator is `op target : { body }`, optionally user-defined (UserFunc
// non-empty names a user-defined aggregator instead of an intrinsic Op).
type Aggregator struct {
	Op       AggregateOp
	UserFunc string
	Target   Argument // nil for count
	Body     []Literal
}

func (*Aggregator) argument() {}
func (a *Aggregator) Clone() Argument {
	cp := &Aggregator{Op: a.Op, UserFunc: a.UserFunc, Body: cloneLiterals(a.Body)}
	if a.Target != nil {
		cp.Target = a.Target.Clone()
	}
	return cp
}

// LatticeCurrent references the value already stored at a lattice-typed
// column of Relation for the tuple a clause is about to derive, i.e. the
// accumulator a lattice join reduces into. It is synthesized by the
// insert-lattice-operations pass (spec.md §4.2 pass 17) and resolved by
// the RAM translator into a lookup against the relation being computed,
// keyed by its non-lattice columns, never written by a parser. KeyCols
// and Keys pin the looked-up tuple (one key expression per non-lattice
// column); Default is the value the lookup yields when no tuple with
// that key is stored yet.
type LatticeCurrent struct {
	Relation QualifiedName
	Column   int
	KeyCols  []int
	Keys     []Argument
	Default  Argument
}

func (*LatticeCurrent) argument() {}
func (l *LatticeCurrent) Clone() Argument {
	cp := &LatticeCurrent{Relation: l.Relation, Column: l.Column, Keys: cloneArgs(l.Keys)}
	if l.KeyCols != nil {
		cp.KeyCols = append([]int(nil), l.KeyCols...)
	}
	if l.Default != nil {
		cp.Default = l.Default.Clone()
	}
	return cp
}

func cloneArgs(args []Argument) []Argument {
	if args == nil {
		return nil
	}
	out := make([]Argument, len(args))
	for i, a := range args {
		out[i] = a.Clone()
	}
	return out
}
