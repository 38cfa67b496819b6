package transform

import "github.com/ramlog/ramlog/ast"

// RedundantRelationRemoval implements spec.md §4.2 pass 11: BFS backward
// from every output relation over the precedence graph (head -> body
// relations); any relation never reached is unreachable from an output and
// is dropped, along with its clauses.
func RedundantRelationRemoval() Transformer {
	return func(p *ast.Program) (*ast.Program, bool) {
		reached := make(map[string]bool)
		var queue []string
		for name, rel := range p.Relations {
			if rel.IO == ast.IOOutput || rel.IO == ast.IOPrintsize {
				reached[name] = true
				queue = append(queue, name)
			}
		}
		for len(queue) > 0 {
			name := queue[0]
			queue = queue[1:]
			for _, c := range p.ClausesFor(name) {
				for _, lit := range c.Body {
					// Aggregator bodies and negations read their
					// relations too; dropping one would change the
					// clause's meaning, not just its cost.
					ast.WalkLiteral(lit, func(l ast.Literal) {
						if atom, ok := l.(*ast.Atom); ok {
							rn := atom.Relation.String()
							if !reached[rn] {
								reached[rn] = true
								queue = append(queue, rn)
							}
						}
					}, func(ast.Argument) {})
				}
			}
		}

		changed := false
		relations := make(map[string]*ast.Relation, len(p.Relations))
		for name, rel := range p.Relations {
			if reached[name] {
				relations[name] = rel
			} else {
				changed = true
			}
		}
		if !changed {
			return p, false
		}
		var clauses []*ast.Clause
		for _, c := range p.Clauses {
			if reached[c.Head.Relation.String()] {
				clauses = append(clauses, c)
			}
		}
		cp := shallowClone(p)
		cp.Relations = relations
		cp.Clauses = clauses
		return cp, true
	}
}

// RemoveEmptyRelations implements spec.md §4.2 pass 12: a relation with no
// defining clauses that isn't read as input can never hold a tuple. Clauses
// that reference it positively are dropped entirely (a conjunction with an
// always-empty conjunct is always empty); negations of it are dropped (an
// always-empty relation is trivially absent); the relation itself is
// deleted unless it's still mentioned inside a surviving aggregator body or
// is itself an output.
func RemoveEmptyRelations() Transformer {
	return func(p *ast.Program) (*ast.Program, bool) {
		empty := make(map[string]bool)
		for name, rel := range p.Relations {
			if rel.IO == ast.IOInput {
				continue
			}
			if len(p.ClausesFor(name)) == 0 {
				empty[name] = true
			}
		}
		if len(empty) == 0 {
			return p, false
		}

		changed := false
		var clauses []*ast.Clause
		for _, c := range p.Clauses {
			if empty[c.Head.Relation.String()] {
				changed = true
				continue
			}
			drop := false
			var newBody []ast.Literal
			for _, lit := range c.Body {
				switch l := lit.(type) {
				case *ast.Atom:
					if empty[l.Relation.String()] {
						drop = true
					} else {
						newBody = append(newBody, lit)
					}
				case *ast.Negation:
					if empty[l.Atom.Relation.String()] {
						changed = true
						continue
					}
					newBody = append(newBody, lit)
				default:
					newBody = append(newBody, lit)
				}
			}
			if drop {
				changed = true
				continue
			}
			if len(newBody) != len(c.Body) {
				changed = true
				nc := c.Clone()
				nc.Body = newBody
				clauses = append(clauses, nc)
				continue
			}
			clauses = append(clauses, c)
		}

		stillUsed := make(map[string]bool)
		for _, c := range clauses {
			ast.WalkLiteral(c.Head, func(ast.Literal) {}, func(arg ast.Argument) {
				if agg, ok := arg.(*ast.Aggregator); ok {
					for _, bl := range agg.Body {
						if a, ok := bl.(*ast.Atom); ok {
							stillUsed[a.Relation.String()] = true
						}
					}
				}
			})
			for _, lit := range c.Body {
				ast.WalkLiteral(lit, func(ast.Literal) {}, func(arg ast.Argument) {
					if agg, ok := arg.(*ast.Aggregator); ok {
						for _, bl := range agg.Body {
							if a, ok := bl.(*ast.Atom); ok {
								stillUsed[a.Relation.String()] = true
							}
						}
					}
				})
			}
		}

		relations := make(map[string]*ast.Relation, len(p.Relations))
		for name, rel := range p.Relations {
			if empty[name] && !stillUsed[name] && rel.IO != ast.IOOutput && rel.IO != ast.IOPrintsize {
				changed = true
				continue
			}
			relations[name] = rel
		}
		if !changed {
			return p, false
		}
		cp := shallowClone(p)
		cp.Relations = relations
		cp.Clauses = clauses
		return cp, true
	}
}

func distinctVarArgs(args []ast.Argument) bool {
	seen := make(map[string]bool)
	for _, a := range args {
		v, ok := a.(*ast.Variable)
		if !ok || seen[v.Name] {
			return false
		}
		seen[v.Name] = true
	}
	return true
}

// RemoveRelationCopies implements spec.md §4.2 pass 13: when
// `r(X,Y,...) :- s(X,Y,...)` is the only rule defining r, its head
// arguments are distinct variables in the same order s's atom supplies,
// and r carries no I/O role, then r is a pure rename of s; every
// occurrence of r is rewritten to s and r's own clause is dropped. Alias
// chains and 2-cycles are detected and resolved to a single canonical
// target before rewriting.
func RemoveRelationCopies() Transformer {
	return func(p *ast.Program) (*ast.Program, bool) {
		alias := make(map[string]ast.QualifiedName)
		for name, rel := range p.Relations {
			if rel.IO != ast.IOInternal {
				continue
			}
			clauses := p.ClausesFor(name)
			if len(clauses) != 1 {
				continue
			}
			c := clauses[0]
			if len(c.Body) != 1 {
				continue
			}
			atom, ok := c.Body[0].(*ast.Atom)
			if !ok || !distinctVarArgs(atom.Args) || !distinctVarArgs(c.Head.Args) {
				continue
			}
			if len(atom.Args) != len(c.Head.Args) {
				continue
			}
			same := true
			for i := range atom.Args {
				if atom.Args[i].(*ast.Variable).Name != c.Head.Args[i].(*ast.Variable).Name {
					same = false
					break
				}
			}
			if !same {
				continue
			}
			alias[name] = atom.Relation
		}
		if len(alias) == 0 {
			return p, false
		}

		canonical := func(name string) ast.QualifiedName {
			seen := make(map[string]bool)
			cur := name
			var last ast.QualifiedName
			for {
				target, ok := alias[cur]
				if !ok {
					break
				}
				if seen[cur] {
					// cycle: stop, treat cur as canonical to avoid infinite loop
					return p.Relations[cur].Name
				}
				seen[cur] = true
				last = target
				cur = target.String()
			}
			if last.IsZero() {
				return p.Relations[name].Name
			}
			return last
		}

		rewriteAtom := func(a *ast.Atom) (*ast.Atom, bool) {
			if _, ok := alias[a.Relation.String()]; !ok {
				return a, false
			}
			return &ast.Atom{Relation: canonical(a.Relation.String()), Args: a.Args}, true
		}

		var clauses []*ast.Clause
		changed := false
		for _, c := range p.Clauses {
			if _, isAlias := alias[c.Head.Relation.String()]; isAlias {
				changed = true
				continue
			}
			cc := false
			nc := c
			if h, c1 := rewriteAtom(c.Head); c1 {
				nc = c.Clone()
				nc.Head = h
				cc = true
			}
			var newBody []ast.Literal
			bodyChanged := false
			for _, lit := range c.Body {
				switch l := lit.(type) {
				case *ast.Atom:
					if na, c2 := rewriteAtom(l); c2 {
						newBody = append(newBody, na)
						bodyChanged = true
						continue
					}
				case *ast.Negation:
					if na, c2 := rewriteAtom(l.Atom); c2 {
						newBody = append(newBody, &ast.Negation{Atom: na})
						bodyChanged = true
						continue
					}
				}
				newBody = append(newBody, lit)
			}
			if bodyChanged {
				if !cc {
					nc = c.Clone()
				}
				nc.Body = newBody
				cc = true
			}
			if cc {
				changed = true
			}
			clauses = append(clauses, nc)
		}

		relations := make(map[string]*ast.Relation, len(p.Relations))
		for name, rel := range p.Relations {
			if _, isAlias := alias[name]; isAlias {
				changed = true
				continue
			}
			relations[name] = rel
		}
		if !changed {
			return p, false
		}
		cp := shallowClone(p)
		cp.Relations = relations
		cp.Clauses = clauses
		return cp, true
	}
}

func recordLiteralArgs(a ast.Argument) ([]ast.Argument, bool) {
	r, ok := a.(*ast.RecordInit)
	if !ok {
		return nil, false
	}
	return r.Args, true
}

// FoldAnonymousRecords implements spec.md §4.2 pass 14: an equality or
// disequality between two record literals of equal length is positionwise
// -- they can never be compared as opaque values at this stage -- so it is
// rewritten into a conjunction (for `=`) or disjunction (for `!=`) of
// per-field constraints. A length-0 record comparison collapses to the
// boolean truth value consistent with the operator (two empty records are
// always equal).
func FoldAnonymousRecords() Transformer {
	return func(p *ast.Program) (*ast.Program, bool) {
		changed := false
		var clauses []*ast.Clause
		for _, c := range p.Clauses {
			var newBody []ast.Literal
			clauseChanged := false
			for _, lit := range c.Body {
				bc, ok := lit.(*ast.BinaryConstraint)
				if !ok || (bc.Op != ast.ConstrEq && bc.Op != ast.ConstrNeq) {
					newBody = append(newBody, lit)
					continue
				}
				lf, lok := recordLiteralArgs(bc.Left)
				rf, rok := recordLiteralArgs(bc.Right)
				if !lok || !rok || len(lf) != len(rf) {
					newBody = append(newBody, lit)
					continue
				}
				clauseChanged = true
				if len(lf) == 0 {
					newBody = append(newBody, &ast.BooleanConstant{Value: bc.Op == ast.ConstrEq})
					continue
				}
				if bc.Op == ast.ConstrEq {
					for i := range lf {
						newBody = append(newBody, &ast.BinaryConstraint{Op: ast.ConstrEq, Left: lf[i], Right: rf[i]})
					}
				} else {
					disj := make([]ast.Literal, len(lf))
					for i := range lf {
						disj[i] = &ast.BinaryConstraint{Op: ast.ConstrNeq, Left: lf[i], Right: rf[i]}
					}
					newBody = append(newBody, &ast.Disjunction{Literals: disj})
				}
			}
			if !clauseChanged {
				clauses = append(clauses, c)
				continue
			}
			changed = true
			nc := c.Clone()
			nc.Body = newBody
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

func evalConstConstraint(op ast.ConstraintOp, l, r *ast.NumberConstant) bool {
	a, b := int64(l.Value), int64(r.Value)
	switch op {
	case ast.ConstrEq:
		return a == b
	case ast.ConstrNeq:
		return a != b
	case ast.ConstrLt:
		return a < b
	case ast.ConstrLe:
		return a <= b
	case ast.ConstrGt:
		return a > b
	case ast.ConstrGe:
		return a >= b
	}
	return false
}

// RemoveConstantBinaryConstraints implements spec.md §4.2 pass 15: a
// binary constraint between two literal constants is decidable right now;
// evaluate it and either delete the (vacuously true) constraint or drop
// the whole clause (a constraint that can never hold makes the clause
// unsatisfiable).
func RemoveConstantBinaryConstraints() Transformer {
	return func(p *ast.Program) (*ast.Program, bool) {
		changed := false
		var clauses []*ast.Clause
		for _, c := range p.Clauses {
			drop := false
			var newBody []ast.Literal
			clauseChanged := false
			for _, lit := range c.Body {
				bc, ok := lit.(*ast.BinaryConstraint)
				if !ok {
					newBody = append(newBody, lit)
					continue
				}
				ln, lok := bc.Left.(*ast.NumberConstant)
				rn, rok := bc.Right.(*ast.NumberConstant)
				if !lok || !rok {
					newBody = append(newBody, lit)
					continue
				}
				clauseChanged = true
				if !evalConstConstraint(bc.Op, ln, rn) {
					drop = true
					break
				}
			}
			if drop {
				changed = true
				continue
			}
			if !clauseChanged {
				clauses = append(clauses, c)
				continue
			}
			changed = true
			nc := c.Clone()
			nc.Body = newBody
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

// RemoveRedundantSums implements spec.md §4.2 pass 16: `sum k : { ... }`
// with a constant target k is just k added once per matching tuple, i.e.
// `k * count : { ... }`; rewriting it this way lets the translator use the
// cheaper count aggregate and a single multiply instead of per-tuple
// accumulation.
func RemoveRedundantSums() Transformer {
	return func(p *ast.Program) (*ast.Program, bool) {
		return mapClauses(p, func(c *ast.Clause) (*ast.Clause, bool) {
			return rewriteClauseArgs(c, func(arg ast.Argument) (ast.Argument, bool) {
				agg, ok := arg.(*ast.Aggregator)
				if !ok || agg.Op != ast.AggSum {
					return arg, false
				}
				if _, ok := agg.Target.(*ast.NumberConstant); !ok {
					return arg, false
				}
				k := agg.Target
				return &ast.IntrinsicFunctor{
					Op: "*",
					Args: []ast.Argument{
						k.Clone(),
						&ast.Aggregator{Op: ast.AggCount, Body: agg.Body},
					},
				}, true
			})
		})
	}
}
