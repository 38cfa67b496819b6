package transform

import (
	"fmt"
	"sort"

	"github.com/ramlog/ramlog/ast"
)

func isSimpleAggregatorBody(agg *ast.Aggregator) bool {
	if len(agg.Body) != 1 {
		return false
	}
	atom, ok := agg.Body[0].(*ast.Atom)
	if !ok {
		return false
	}
	seen := make(map[string]bool)
	for _, arg := range atom.Args {
		v, ok := arg.(*ast.Variable)
		if !ok {
			return false
		}
		if seen[v.Name] {
			return false
		}
		seen[v.Name] = true
	}
	return true
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MaterializeAggregationQueries implements spec.md §4.2 pass 5: for each
// aggregator whose body is not a single simple atom with distinct
// arguments, synthesize a fresh auxiliary nullary-or-more relation whose
// body copies the aggregator body augmented with grounding atoms from the
// enclosing clause for any variable the target expression needs but the
// aggregator body alone doesn't ground; replace the aggregator's body with
// a single atom over that new relation.
func MaterializeAggregationQueries() Transformer {
	return func(p *ast.Program) (*ast.Program, bool) {
		changed := false
		counter := 0
		var newClauses []*ast.Clause
		newRelations := make(map[string]*ast.Relation)
		outClauses := make([]*ast.Clause, 0, len(p.Clauses))

		for _, c := range p.Clauses {
			materialize := func(a ast.Argument) (ast.Argument, bool) {
				agg, ok := a.(*ast.Aggregator)
				if !ok || isSimpleAggregatorBody(agg) {
					return a, false
				}
				counter++
				auxName := p.Name(fmt.Sprintf("__agg%d", counter))

				bodyVars := shallowVariables(agg.Body)
				targetVars := make(map[string]bool)
				if agg.Target != nil {
					ast.WalkArguments(agg.Target, func(ta ast.Argument) {
						if v, ok := ta.(*ast.Variable); ok {
							targetVars[v.Name] = true
						}
					})
				}

				auxBody := append([]ast.Literal(nil), agg.Body...)
				for v := range targetVars {
					if bodyVars[v] {
						continue
					}
					for _, lit := range c.Body {
						if atom, ok := lit.(*ast.Atom); ok && atomMentions(atom, v) {
							auxBody = append(auxBody, atom)
							for _, vv := range atom.Variables() {
								bodyVars[vv.Name] = true
							}
							break
						}
					}
				}

				allVars := make(map[string]bool)
				for k := range bodyVars {
					allVars[k] = true
				}
				for k := range targetVars {
					allVars[k] = true
				}
				names := sortedKeys(allVars)
				args := make([]ast.Argument, len(names))
				for i, n := range names {
					args[i] = &ast.Variable{Name: n}
				}

				attrs := make([]ast.Attribute, len(names))
				for i, n := range names {
					attrs[i] = ast.Attribute{Name: n}
				}
				newRelations[auxName.String()] = &ast.Relation{Name: auxName, Attributes: attrs}

				newClauses = append(newClauses, &ast.Clause{
					Head: &ast.Atom{Relation: auxName, Args: cloneArgsCopy(args)},
					Body: auxBody,
				})

				newAtom := &ast.Atom{Relation: auxName, Args: cloneArgsCopy(args)}
				changed = true
				return &ast.Aggregator{Op: agg.Op, UserFunc: agg.UserFunc, Target: agg.Target, Body: []ast.Literal{newAtom}}, true
			}

			head, c1 := rewriteLiteralArgs(c.Head, materialize)
			body, c2 := rewriteLiterals(c.Body, materialize)
			if !c1 && !c2 {
				outClauses = append(outClauses, c)
				continue
			}
			nc := c.Clone()
			nc.Head = head.(*ast.Atom)
			nc.Body = body
			outClauses = append(outClauses, nc)
		}

		if !changed {
			return p, false
		}
		cp := shallowClone(p)
		cp.Clauses = append(outClauses, newClauses...)
		for k, v := range newRelations {
			cp.Relations[k] = v
		}
		return cp, true
	}
}

func atomMentions(a *ast.Atom, name string) bool {
	for _, v := range a.Variables() {
		if v.Name == name {
			return true
		}
	}
	return false
}

func cloneArgsCopy(args []ast.Argument) []ast.Argument {
	out := make([]ast.Argument, len(args))
	for i, a := range args {
		out[i] = a.Clone()
	}
	return out
}
