package ast2ram

import "github.com/ramlog/ramlog/ast"

// orderedBody returns c's body literals in evaluation order. A clause
// carrying an explicit plan (spec.md §4.4 "alternatives key on ordering
// hints from an explicit .plan") uses that fixed order; otherwise the
// default all-bound SIPS applies: prefer the atom with the most
// already-bound arguments, scheduling negations and constraints as soon
// as their variables are available. Aggregator constraints always come
// after every atom, since the materialization pass (spec.md §4.2 pass 5)
// guarantees their grounding atoms live in the enclosing body.
func orderedBody(c *ast.Clause) []ast.Literal {
	if len(c.Plan) == len(c.Body) && validPlan(c.Plan, len(c.Body)) {
		out := make([]ast.Literal, len(c.Body))
		for i, idx := range c.Plan {
			out[i] = c.Body[idx]
		}
		return out
	}
	return allBoundOrder(c.Body)
}

func validPlan(plan []int, n int) bool {
	seen := make(map[int]bool, n)
	for _, idx := range plan {
		if idx < 0 || idx >= n || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}

func allBoundOrder(body []ast.Literal) []ast.Literal {
	remaining := make([]ast.Literal, len(body))
	copy(remaining, body)
	bound := make(map[string]bool)
	out := make([]ast.Literal, 0, len(body))

	take := func(i int) ast.Literal {
		lit := remaining[i]
		remaining = append(remaining[:i], remaining[i+1:]...)
		return lit
	}

	for len(remaining) > 0 {
		// Schedule every ready non-atom literal first; a binding equality
		// makes its variable available to later picks.
		progressed := true
		for progressed {
			progressed = false
			for i := 0; i < len(remaining); i++ {
				lit := remaining[i]
				if _, ok := lit.(*ast.Atom); ok {
					continue
				}
				if isAggregateConstraint(lit) && anyAtomIn(remaining) {
					// The aggregator's grounding atoms must scan first;
					// without the clause's variable context a shared
					// variable is indistinguishable from a local one.
					continue
				}
				if !literalReady(lit, bound) {
					continue
				}
				out = append(out, take(i))
				if v := boundByEquality(lit, bound); v != "" {
					bound[v] = true
				}
				progressed = true
				break
			}
		}

		// Pick the atom with the most bound arguments (ties resolve to
		// the earliest occurrence, keeping the choice deterministic).
		best, bestScore := -1, -1
		for i, lit := range remaining {
			a, ok := lit.(*ast.Atom)
			if !ok {
				continue
			}
			score := 0
			for _, arg := range a.Args {
				switch v := arg.(type) {
				case *ast.Variable:
					if bound[v.Name] {
						score++
					}
				case *ast.UnnamedVariable:
				default:
					score++
				}
			}
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		if best < 0 {
			// Only unready non-atom literals remain; emit them in their
			// original relative order and let translation handle them.
			out = append(out, remaining...)
			break
		}
		atom := take(best).(*ast.Atom)
		out = append(out, atom)
		for _, v := range atom.Variables() {
			bound[v.Name] = true
		}
	}
	return out
}

// literalReady reports whether lit can be evaluated once every variable in
// bound is available: negations and disjunctions need all their variables;
// an equality may instead bind one yet-unbound variable from the other,
// fully-bound side; aggregator constraints only need their non-local
// variables (the aggregator body's own variables are scanned locally).
func literalReady(lit ast.Literal, bound map[string]bool) bool {
	switch l := lit.(type) {
	case *ast.BooleanConstant:
		return true
	case *ast.BinaryConstraint:
		if agg := aggregatorSide(l); agg != nil {
			return aggregateReady(l, agg, bound)
		}
		if l.Op == ast.ConstrEq && boundByEquality(lit, bound) != "" {
			return true
		}
		return allVarsBound(ast.Variables(lit), bound)
	default:
		return allVarsBound(ast.Variables(lit), bound)
	}
}

func allVarsBound(vars []string, bound map[string]bool) bool {
	for _, v := range vars {
		if !bound[v] {
			return false
		}
	}
	return true
}

// boundByEquality returns the variable name an equality constraint would
// newly bind, or "" when it is a plain filter.
func boundByEquality(lit ast.Literal, bound map[string]bool) string {
	bc, ok := lit.(*ast.BinaryConstraint)
	if !ok || bc.Op != ast.ConstrEq {
		return ""
	}
	if agg := aggregatorSide(bc); agg != nil {
		if v, ok := otherSide(bc, agg).(*ast.Variable); ok && !bound[v.Name] {
			return v.Name
		}
		return ""
	}
	lv, lok := bc.Left.(*ast.Variable)
	rv, rok := bc.Right.(*ast.Variable)
	switch {
	case lok && !bound[lv.Name] && allVarsBound(argVars(bc.Right), bound):
		return lv.Name
	case rok && !bound[rv.Name] && allVarsBound(argVars(bc.Left), bound):
		return rv.Name
	}
	return ""
}

func argVars(arg ast.Argument) []string {
	var out []string
	ast.WalkArguments(arg, func(a ast.Argument) {
		if v, ok := a.(*ast.Variable); ok {
			out = append(out, v.Name)
		}
	})
	return out
}

func isAggregateConstraint(lit ast.Literal) bool {
	bc, ok := lit.(*ast.BinaryConstraint)
	return ok && aggregatorSide(bc) != nil
}

func anyAtomIn(lits []ast.Literal) bool {
	for _, lit := range lits {
		if _, ok := lit.(*ast.Atom); ok {
			return true
		}
	}
	return false
}

func aggregatorSide(bc *ast.BinaryConstraint) *ast.Aggregator {
	if a, ok := bc.Left.(*ast.Aggregator); ok {
		return a
	}
	if a, ok := bc.Right.(*ast.Aggregator); ok {
		return a
	}
	return nil
}

func otherSide(bc *ast.BinaryConstraint, agg *ast.Aggregator) ast.Argument {
	if bc.Left == ast.Argument(agg) {
		return bc.Right
	}
	return bc.Left
}

// aggregateReady: every variable the aggregator shares with the enclosing
// clause must already be bound; the body's local scan variables don't
// count, and neither does the result variable the equality binds.
func aggregateReady(bc *ast.BinaryConstraint, agg *ast.Aggregator, bound map[string]bool) bool {
	local := make(map[string]bool)
	for _, bl := range agg.Body {
		for _, v := range ast.Variables(bl) {
			local[v] = true
		}
	}
	result := ""
	if v, ok := otherSide(bc, agg).(*ast.Variable); ok && !bound[v.Name] {
		result = v.Name
	}
	for _, v := range ast.Variables(bc) {
		if local[v] || v == result {
			continue
		}
		if !bound[v] {
			return false
		}
	}
	return true
}
