package ast

// Literal is the sum type of spec.md §3.4's Literal variants: atom |
// negation-of-atom | binary-constraint | boolean-constant |
// disjunction-of-literals.
type Literal interface {
	literal()
	Clone() Literal
}

// Atom is a relation application, e.g. `e(x, y)`.
type Atom struct {
	Relation QualifiedName
	Args     []Argument
}

func (*Atom) literal() {}
func (a *Atom) Clone() Literal {
	return &Atom{Relation: a.Relation, Args: cloneArgs(a.Args)}
}

// Variables returns every *Variable argument appearing directly in the atom
// (not descending into record/functor sub-arguments is the caller's choice;
// use Walk for that).
func (a *Atom) Variables() []*Variable {
	var out []*Variable
	for _, arg := range a.Args {
		if v, ok := arg.(*Variable); ok {
			out = append(out, v)
		}
	}
	return out
}

// Negation is `!atom`.
type Negation struct {
	Atom *Atom
}

func (*Negation) literal() {}
func (n *Negation) Clone() Literal {
	return &Negation{Atom: n.Atom.Clone().(*Atom)}
}

// ConstraintOp names a binary constraint operator.
type ConstraintOp string

const (
	ConstrEq  ConstraintOp = "="
	ConstrNeq ConstraintOp = "!="
	ConstrLt  ConstraintOp = "<"
	ConstrLe  ConstraintOp = "<="
	ConstrGt  ConstraintOp = ">"
	ConstrGe  ConstraintOp = ">="
)

// BinaryConstraint is `lhs op rhs`.
type BinaryConstraint struct {
	Op          ConstraintOp
	Left, Right Argument
}

func (*BinaryConstraint) literal() {}
func (c *BinaryConstraint) Clone() Literal {
	return &BinaryConstraint{Op: c.Op, Left: c.Left.Clone(), Right: c.Right.Clone()}
}

// BooleanConstant is the literal `true`/`false`.
type BooleanConstant struct {
	Value bool
}

func (*BooleanConstant) literal()       {}
func (b *BooleanConstant) Clone() Literal { return &BooleanConstant{Value: b.Value} }

// Disjunction is `l1 ; l2 ; ...`.
type Disjunction struct {
	Literals []Literal
}

func (*Disjunction) literal() {}
func (d *Disjunction) Clone() Literal {
	return &Disjunction{Literals: cloneLiterals(d.Literals)}
}

func cloneLiterals(lits []Literal) []Literal {
	if lits == nil {
		return nil
	}
	out := make([]Literal, len(lits))
	for i, l := range lits {
		out[i] = l.Clone()
	}
	return out
}
