package transform

import (
	"fmt"
	"strings"

	"github.com/ramlog/ramlog/ast"
)

func latticeFor(p *ast.Program, typeName ast.QualifiedName) *ast.Lattice {
	return p.Lattices[typeName.String()]
}

// callOp applies a lattice operator (declared as a functor-shaped
// argument, spec.md §3.4 Lattice) to args, preserving the operator's own
// identity: a user functor keeps its declared signature, an intrinsic
// keeps its operator name and resolution. Anything else has no callable
// form; the placeholder name surfaces as an unknown-intrinsic warning at
// runtime rather than a silent wrong answer.
func callOp(op ast.Argument, args ...ast.Argument) ast.Argument {
	switch o := op.(type) {
	case *ast.UserFunctor:
		return &ast.UserFunctor{Name: o.Name, Args: args, ArgTypes: o.ArgTypes, ReturnType: o.ReturnType}
	case *ast.IntrinsicFunctor:
		cp := &ast.IntrinsicFunctor{Op: o.Op, Args: args}
		if o.Resolved != nil {
			k := *o.Resolved
			cp.Resolved = &k
		}
		return cp
	default:
		return &ast.IntrinsicFunctor{Op: "lattice", Args: args}
	}
}

// hasLatticeMarks reports whether this pass already processed c: either a
// LatticeCurrent node is present, or a variable carrying the pass's
// rename prefix. Processed clauses are left alone so the enclosing
// Fixpoint converges.
func hasLatticeMarks(c *ast.Clause) bool {
	found := false
	check := func(arg ast.Argument) {
		switch a := arg.(type) {
		case *ast.LatticeCurrent:
			found = true
		case *ast.Variable:
			if strings.HasPrefix(a.Name, "_lat") {
				found = true
			}
		}
	}
	ast.WalkLiteral(c.Head, func(ast.Literal) {}, check)
	for _, lit := range c.Body {
		ast.WalkLiteral(lit, func(ast.Literal) {}, check)
	}
	return found
}

// nonLatticeKey collects the non-lattice columns of rel together with the
// corresponding arguments of atom, the key a lattice lookup joins on.
func nonLatticeKey(rel *ast.Relation, atom *ast.Atom) (cols []int, keys []ast.Argument) {
	for i, attr := range rel.Attributes {
		if attr.Lattice || i >= len(atom.Args) {
			continue
		}
		cols = append(cols, i)
		keys = append(keys, atom.Args[i].Clone())
	}
	return cols, keys
}

// InsertLatticeOperations implements spec.md §4.2 pass 17, run only when
// the program declares at least one lattice.
//
// For a head atom's lattice-typed argument that is grounded independently
// of other lattice positions, a `GLB(current, arg) = arg` constraint is
// appended, enforcing that the derived value can only move down the
// lattice's partial order relative to what is already stored for the same
// key; `current` is a LatticeCurrent lookup keyed by the head's
// non-lattice columns, defaulting to the argument itself when no tuple
// with that key exists yet (GLB idempotence makes the constraint vacuous
// for a fresh key).
//
// For a head variable that also occurs at lattice-typed positions of body
// atoms, each such body occurrence is alpha-renamed to a fresh variable
// (still grounded by its own atom) and the original name is bound to the
// GLB of the renamed occurrences, plus a `name != BOTTOM` guard against
// collapsing to the absorbing element.
//
// Negated atoms carrying lattice arguments expand into "either the base
// tuple is absent, or some lattice position is incompatible with the
// witness": a disjunction of the plain negation with, per lattice column,
// a `Leq(arg, current) = 0` constraint whose `current` looks up the
// stored tuple by the negated atom's non-lattice columns.
func InsertLatticeOperations() Transformer {
	return func(p *ast.Program) (*ast.Program, bool) {
		if len(p.Lattices) == 0 {
			return p, false
		}
		changed := false
		var clauses []*ast.Clause
		for _, c := range p.Clauses {
			if hasLatticeMarks(c) {
				clauses = append(clauses, c)
				continue
			}
			nc, clauseChanged := insertLatticeClause(p, c)
			if !clauseChanged {
				clauses = append(clauses, c)
				continue
			}
			changed = true
			clauses = append(clauses, nc)
		}
		if !changed {
			return p, false
		}
		cp := shallowClone(p)
		cp.Clauses = clauses
		return cp, true
	}
}

func insertLatticeClause(p *ast.Program, c *ast.Clause) (*ast.Clause, bool) {
	clauseChanged := false
	var extra []ast.Literal
	newBody := make([]ast.Literal, len(c.Body))
	for i, lit := range c.Body {
		newBody[i] = lit.Clone()
	}

	// Body occurrences of each variable at lattice-typed atom positions:
	// these are lattice values being read, joined by the GLB when the
	// same name also drives a lattice-typed head column.
	type bodyOcc struct {
		atom *ast.Atom
		col  int
	}
	bodyLattice := make(map[string][]bodyOcc)
	for _, lit := range newBody {
		atom, ok := lit.(*ast.Atom)
		if !ok {
			continue
		}
		arel := p.Relations[atom.Relation.String()]
		if arel == nil || !arel.HasLatticeArgs() {
			continue
		}
		for i, attr := range arel.Attributes {
			if !attr.Lattice || i >= len(atom.Args) {
				continue
			}
			if v, ok := atom.Args[i].(*ast.Variable); ok {
				bodyLattice[v.Name] = append(bodyLattice[v.Name], bodyOcc{atom: atom, col: i})
			}
		}
	}

	rel := p.Relations[c.Head.Relation.String()]
	aliasCounter := 0
	if rel != nil && rel.HasLatticeArgs() {
		for i, attr := range rel.Attributes {
			if !attr.Lattice || i >= len(c.Head.Args) {
				continue
			}
			lat := latticeFor(p, attr.TypeName)
			if lat == nil || !lat.Has(ast.LatticeGlb) {
				continue
			}
			glb := lat.Ops[ast.LatticeGlb]
			arg := c.Head.Args[i]

			if v, isVar := arg.(*ast.Variable); isVar && len(bodyLattice[v.Name]) > 0 {
				// Multi-occurrence: rename each body lattice occurrence,
				// rebind the original name to their GLB.
				var joined ast.Argument
				for _, occ := range bodyLattice[v.Name] {
					aliasCounter++
					fresh := fmt.Sprintf("_lat%d_%s", aliasCounter, v.Name)
					occ.atom.Args[occ.col] = &ast.Variable{Name: fresh}
					if joined == nil {
						joined = &ast.Variable{Name: fresh}
					} else {
						joined = callOp(glb, joined, &ast.Variable{Name: fresh})
					}
				}
				extra = append(extra, &ast.BinaryConstraint{
					Op: ast.ConstrEq, Left: &ast.Variable{Name: v.Name}, Right: joined,
				})
				if bottom, hasBottom := lat.Ops[ast.LatticeBottom]; hasBottom {
					extra = append(extra, &ast.BinaryConstraint{
						Op: ast.ConstrNeq, Left: &ast.Variable{Name: v.Name}, Right: bottom.Clone(),
					})
				}
				clauseChanged = true
				continue
			}

			cols, keys := nonLatticeKey(rel, c.Head)
			current := &ast.LatticeCurrent{
				Relation: c.Head.Relation, Column: i,
				KeyCols: cols, Keys: keys, Default: arg.Clone(),
			}
			extra = append(extra, &ast.BinaryConstraint{
				Op:    ast.ConstrEq,
				Left:  callOp(glb, current, arg.Clone()),
				Right: arg.Clone(),
			})
			clauseChanged = true
		}
	}

	for bi, lit := range newBody {
		neg, ok := lit.(*ast.Negation)
		if !ok {
			continue
		}
		negRel := p.Relations[neg.Atom.Relation.String()]
		if negRel == nil || !negRel.HasLatticeArgs() {
			continue
		}
		var incompat []ast.Literal
		for i, attr := range negRel.Attributes {
			if !attr.Lattice || i >= len(neg.Atom.Args) {
				continue
			}
			lat := latticeFor(p, attr.TypeName)
			if lat == nil || !lat.Has(ast.LatticeLeq) {
				continue
			}
			cols, keys := nonLatticeKey(negRel, neg.Atom)
			current := &ast.LatticeCurrent{
				Relation: neg.Atom.Relation, Column: i,
				KeyCols: cols, Keys: keys, Default: neg.Atom.Args[i].Clone(),
			}
			incompat = append(incompat, &ast.BinaryConstraint{
				Op:    ast.ConstrEq,
				Left:  callOp(lat.Ops[ast.LatticeLeq], neg.Atom.Args[i].Clone(), current),
				Right: &ast.NumberConstant{Value: 0},
			})
		}
		if len(incompat) == 0 {
			continue
		}
		clauseChanged = true
		newBody[bi] = &ast.Disjunction{Literals: append([]ast.Literal{lit}, incompat...)}
	}

	if !clauseChanged {
		return c, false
	}
	nc := c.Clone()
	nc.Body = append(newBody, extra...)
	return nc, true
}
