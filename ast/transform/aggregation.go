package transform

import (
	"fmt"

	"github.com/ramlog/ramlog/ast"
)

// shallowVariables collects every *Variable name reachable from lits
// without descending into any aggregator's Body (ast.WalkArguments already
// stops at an aggregator's Target, not its Body).
func shallowVariables(lits []ast.Literal) map[string]bool {
	out := make(map[string]bool)
	visit := func(a ast.Argument) {
		if v, ok := a.(*ast.Variable); ok {
			out[v.Name] = true
		}
	}
	for _, lit := range lits {
		switch l := lit.(type) {
		case *ast.Atom:
			for _, a := range l.Args {
				ast.WalkArguments(a, visit)
			}
		case *ast.Negation:
			for _, a := range l.Atom.Args {
				ast.WalkArguments(a, visit)
			}
		case *ast.BinaryConstraint:
			ast.WalkArguments(l.Left, visit)
			ast.WalkArguments(l.Right, visit)
		case *ast.Disjunction:
			for k, v := range shallowVariables(l.Literals) {
				if v {
					out[k] = true
				}
			}
		}
	}
	return out
}

// UniqueAggregationVariables implements spec.md §4.2 pass 4: alpha-rename
// any variable of an aggregator's target expression whose name collides
// with a variable outside the aggregator, by prefixing it with a unique
// marker plus an aggregator counter. The target's variables are local to
// the aggregate; an outer variable of the same name is a different
// variable, and leaving the collision in place would make the
// body-materialization pass (pass 5) capture it. Body variables shared
// with the outer clause are deliberately left alone: they are witnesses
// correlating the aggregate with the enclosing derivation.
func UniqueAggregationVariables() Transformer {
	return func(p *ast.Program) (*ast.Program, bool) {
		return mapClauses(p, func(c *ast.Clause) (*ast.Clause, bool) {
			outer := shallowVariables(c.Body)
			for _, v := range c.Head.Variables() {
				outer[v.Name] = true
			}
			counter := 0
			changed := false

			head, c1 := rewriteLiteralArgs(c.Head, func(a ast.Argument) (ast.Argument, bool) {
				return renameAggregatorCollisions(a, outer, &counter)
			})
			body, c2 := rewriteLiterals(c.Body, func(a ast.Argument) (ast.Argument, bool) {
				return renameAggregatorCollisions(a, outer, &counter)
			})
			changed = c1 || c2
			if !changed {
				return c, false
			}
			nc := c.Clone()
			nc.Head = head.(*ast.Atom)
			nc.Body = body
			return nc, true
		})
	}
}

func renameAggregatorCollisions(a ast.Argument, outer map[string]bool, counter *int) (ast.Argument, bool) {
	agg, ok := a.(*ast.Aggregator)
	if !ok || agg.Target == nil {
		return a, false
	}

	// Witness variables -- body variables also used outside -- correlate
	// the aggregate with the enclosing clause and keep their names; only
	// target variables colliding with the outer scope are renamed.
	witness := make(map[string]bool)
	for _, bl := range agg.Body {
		for _, v := range ast.Variables(bl) {
			if outer[v] {
				witness[v] = true
			}
		}
	}
	collides := make(map[string]bool)
	ast.WalkArguments(agg.Target, func(ta ast.Argument) {
		if v, ok := ta.(*ast.Variable); ok && outer[v.Name] && !witness[v.Name] {
			collides[v.Name] = true
		}
	})
	if len(collides) == 0 {
		return a, false
	}

	*counter++
	prefix := fmt.Sprintf("_agg%d_", *counter)
	rename := func(ba ast.Argument) (ast.Argument, bool) {
		v, ok := ba.(*ast.Variable)
		if !ok || !collides[v.Name] {
			return ba, false
		}
		return &ast.Variable{Name: prefix + v.Name}, true
	}
	target, _ := rewriteArg(agg.Target, rename)
	body, _ := rewriteLiterals(agg.Body, rename)
	return &ast.Aggregator{Op: agg.Op, UserFunc: agg.UserFunc, Target: target, Body: body}, true
}
