package transform

import (
	"fmt"
	"strings"

	"github.com/ramlog/ramlog/ast"
)

// NormalizeConstraints implements spec.md §4.2 pass 6: replace every
// constant and unnamed variable occurring as an argument of a positive or
// negated body atom (at any nesting depth, including inside records) with a
// fresh variable, and
// for constants, a matching equality constraint appended to the body.
// Unnamed variables are simply given a fresh name; they carry no value to
// constrain.
func NormalizeConstraints() Transformer {
	return func(p *ast.Program) (*ast.Program, bool) {
		return mapClauses(p, func(c *ast.Clause) (*ast.Clause, bool) {
			changed := false
			counter := 0
			var extra []ast.Literal

			extract := func(a ast.Argument) (ast.Argument, bool) {
				switch a.(type) {
				case *ast.NumberConstant, *ast.StringConstant:
				case *ast.UnnamedVariable:
					counter++
					changed = true
					return &ast.Variable{Name: fmt.Sprintf("_norm%d", counter)}, true
				default:
					return a, false
				}
				counter++
				changed = true
				v := &ast.Variable{Name: fmt.Sprintf("_norm%d", counter)}
				extra = append(extra, &ast.BinaryConstraint{Op: ast.ConstrEq, Left: v, Right: a})
				return v, true
			}

			newBody := make([]ast.Literal, 0, len(c.Body))
			for _, lit := range c.Body {
				switch l := lit.(type) {
				case *ast.Atom:
					args, cc := rewriteArgs(l.Args, extract)
					if cc {
						newBody = append(newBody, &ast.Atom{Relation: l.Relation, Args: args})
					} else {
						newBody = append(newBody, l)
					}
				case *ast.Negation:
					args, cc := rewriteArgs(l.Atom.Args, extract)
					if cc {
						newBody = append(newBody, &ast.Negation{Atom: &ast.Atom{Relation: l.Atom.Relation, Args: args}})
					} else {
						newBody = append(newBody, l)
					}
				default:
					newBody = append(newBody, lit)
				}
			}
			if !changed {
				return c, false
			}
			newBody = append(newBody, extra...)
			nc := c.Clone()
			nc.Body = newBody
			return nc, true
		})
	}
}

// RemoveBooleanConstraints implements spec.md §4.2 pass 7: drop `true`
// literals from bodies, drop clauses whose body contains `false`, and for
// aggregator bodies emptied out by this process substitute a canonical
// `0 = 1` (for a dropped `false`, denotationally empty) or `1 = 1` (for an
// all-`true` body, denotationally universal) witness so the aggregator
// still has something to iterate.
func RemoveBooleanConstraints() Transformer {
	witnessFalse := func() ast.Literal {
		return &ast.BinaryConstraint{Op: ast.ConstrEq, Left: &ast.NumberConstant{Value: 0}, Right: &ast.NumberConstant{Value: 1}}
	}
	witnessTrue := func() ast.Literal {
		return &ast.BinaryConstraint{Op: ast.ConstrEq, Left: &ast.NumberConstant{Value: 1}, Right: &ast.NumberConstant{Value: 1}}
	}

	var stripBody func(lits []ast.Literal) ([]ast.Literal, bool, bool)
	stripBody = func(lits []ast.Literal) (out []ast.Literal, isFalse bool, changed bool) {
		for _, lit := range lits {
			switch l := lit.(type) {
			case *ast.BooleanConstant:
				changed = true
				if !l.Value {
					isFalse = true
				}
			default:
				out = append(out, lit)
			}
		}
		return
	}

	rewriteAggBodies := func(lits []ast.Literal) ([]ast.Literal, bool) {
		return rewriteLiterals(lits, func(a ast.Argument) (ast.Argument, bool) {
			agg, ok := a.(*ast.Aggregator)
			if !ok {
				return a, false
			}
			body, isFalse, changed := stripBody(agg.Body)
			if !changed {
				return a, false
			}
			if isFalse {
				body = []ast.Literal{witnessFalse()}
			} else if len(body) == 0 {
				body = []ast.Literal{witnessTrue()}
			}
			return &ast.Aggregator{Op: agg.Op, UserFunc: agg.UserFunc, Target: agg.Target, Body: body}, true
		})
	}

	return func(p *ast.Program) (*ast.Program, bool) {
		changed := false
		out := make([]*ast.Clause, 0, len(p.Clauses))
		for _, c := range p.Clauses {
			body, isFalse, c1 := stripBody(c.Body)
			if isFalse {
				changed = true
				continue
			}
			head, c2 := rewriteAggBodies([]ast.Literal{c.Head})
			body2, c3 := rewriteAggBodies(body)
			if !c1 && !c2 && !c3 {
				out = append(out, c)
				continue
			}
			changed = true
			nc := c.Clone()
			nc.Head = head[0].(*ast.Atom)
			nc.Body = body2
			out = append(out, nc)
		}
		if !changed {
			return p, false
		}
		cp := shallowClone(p)
		cp.Clauses = out
		return cp, true
	}
}

// ReplaceSingletonVariables implements spec.md §4.2 pass 8: a named
// variable used exactly once in a clause, outside of record/branch
// initializers and constraints, carries no join semantics and becomes
// unnamed; this pass also assigns a fresh name to any remaining unnamed
// variable a caller flags as needing one (nameUnnamed).
func ReplaceSingletonVariables(nameUnnamed bool) Transformer {
	return func(p *ast.Program) (*ast.Program, bool) {
		return mapClauses(p, func(c *ast.Clause) (*ast.Clause, bool) {
			counts := make(map[string]int)
			protected := make(map[string]bool)
			protect := func(a ast.Argument) {
				if v, ok := a.(*ast.Variable); ok {
					protected[v.Name] = true
				}
			}
			countVisit := func(a ast.Argument) {
				if v, ok := a.(*ast.Variable); ok {
					counts[v.Name]++
				}
				switch a.(type) {
				case *ast.RecordInit, *ast.BranchInit:
					ast.WalkArguments(a, protect)
				}
			}
			protectConstraints := func(l ast.Literal) {
				if bc, ok := l.(*ast.BinaryConstraint); ok {
					ast.WalkArguments(bc.Left, protect)
					ast.WalkArguments(bc.Right, protect)
				}
			}
			ast.WalkLiteral(c.Head, protectConstraints, countVisit)
			for _, lit := range c.Body {
				ast.WalkLiteral(lit, protectConstraints, countVisit)
			}

			changed := false
			counter := 0
			replace := func(a ast.Argument) (ast.Argument, bool) {
				switch v := a.(type) {
				case *ast.Variable:
					// Pipeline-generated names (underscore-prefixed) stay
					// put: un-naming one would re-trigger the naming
					// passes and the outer fixpoint would oscillate.
					if counts[v.Name] == 1 && !protected[v.Name] && !strings.HasPrefix(v.Name, "_") {
						changed = true
						return &ast.UnnamedVariable{}, true
					}
				case *ast.UnnamedVariable:
					if nameUnnamed {
						counter++
						changed = true
						return &ast.Variable{Name: fmt.Sprintf("_anon%d", counter)}, true
					}
				}
				return a, false
			}

			head, c1 := rewriteLiteralArgs(c.Head, replace)
			body, c2 := rewriteLiterals(c.Body, replace)
			if !c1 && !c2 {
				return c, false
			}
			_ = changed
			nc := c.Clone()
			nc.Head = head.(*ast.Atom)
			nc.Body = body
			return nc, true
		})
	}
}
