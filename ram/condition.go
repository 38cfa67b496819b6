package ram

import "github.com/ramlog/ramlog/domain"

// Condition is the sum type of spec.md §3.5's Condition variants.
type Condition interface {
	condition()
}

// True/False are the constant boolean conditions.
type True struct{}
type False struct{}

func (*True) condition()  {}
func (*False) condition() {}

// Conjunction is the logical AND of Parts.
type Conjunction struct{ Parts []Condition }

func (*Conjunction) condition() {}

// Negation is the logical NOT of Inner.
type Negation struct{ Inner Condition }

func (*Negation) condition() {}

// Empty reports whether Relation currently holds no tuples.
type Empty struct{ Relation string }

func (*Empty) condition() {}

// ExistenceCheck reports whether Relation contains a tuple matching
// Pattern (spec.md §4.6: "if the pattern is total, a point contains; else
// a non-empty range"). Ordering names the chosen index/ordering id, -1 if
// unresolved (filled in by the interpreter generator, spec.md §4.5).
type ExistenceCheck struct {
	Relation string
	Pattern  []Expression
	Ordering int
}

func (*ExistenceCheck) condition() {}

// ProvenanceExistenceCheck is like ExistenceCheck but ignores the trailing
// `__rule`/`__height` provenance columns on lookup and additionally
// requires that some match has height <= Height (spec.md §4.6,
// SPEC_FULL.md §12 provenance support).
type ProvenanceExistenceCheck struct {
	Relation string
	Pattern  []Expression
	Height   Expression
	Ordering int
}

func (*ProvenanceExistenceCheck) condition() {}

// ConstraintOp names a typed binary comparison operator.
type ConstraintOp string

const (
	ConstrEq ConstraintOp = "="
	ConstrNe ConstraintOp = "!="
	ConstrLt ConstraintOp = "<"
	ConstrLe ConstraintOp = "<="
	ConstrGt ConstraintOp = ">"
	ConstrGe ConstraintOp = ">="
)

// Constraint is a typed binary comparison between two expressions,
// evaluated per Kind's typed semantics (spec.md §4.6).
type Constraint struct {
	Op          ConstraintOp
	Left, Right Expression
	Kind        domain.Kind
}

func (*Constraint) condition() {}
