package transform

import "github.com/ramlog/ramlog/ast"

// mapClauses rewrites every clause of p with f, which may return (nil,
// true) to drop a clause. It returns a shallow-cloned program (sharing
// Relations/Types/Lattices) and the aggregate changed flag.
func mapClauses(p *ast.Program, f func(*ast.Clause) (*ast.Clause, bool)) (*ast.Program, bool) {
	changed := false
	out := make([]*ast.Clause, 0, len(p.Clauses))
	for _, c := range p.Clauses {
		nc, c2 := f(c)
		changed = changed || c2
		if nc != nil {
			out = append(out, nc)
		} else if c2 {
			// dropped
		} else {
			out = append(out, c)
		}
	}
	cp := shallowClone(p)
	cp.Clauses = out
	return cp, changed
}

func shallowClone(p *ast.Program) *ast.Program {
	cp := &ast.Program{
		Pool:      p.Pool,
		Types:     p.Types,
		Relations: make(map[string]*ast.Relation, len(p.Relations)),
		Lattices:  p.Lattices,
		Clauses:   p.Clauses,
	}
	for k, v := range p.Relations {
		cp.Relations[k] = v
	}
	return cp
}

// rewriteArg recursively rewrites arg with f applied bottom-up: every
// sub-argument is rewritten first, then f is applied to the (possibly
// already-rewritten) node.
func rewriteArg(arg ast.Argument, f func(ast.Argument) (ast.Argument, bool)) (ast.Argument, bool) {
	changed := false
	switch a := arg.(type) {
	case *ast.RecordInit:
		args, c := rewriteArgs(a.Args, f)
		if c {
			a = &ast.RecordInit{Type: a.Type, Args: args}
			changed = true
		}
		arg = a
	case *ast.BranchInit:
		args, c := rewriteArgs(a.Args, f)
		if c {
			a = &ast.BranchInit{Type: a.Type, Branch: a.Branch, Args: args}
			changed = true
		}
		arg = a
	case *ast.IntrinsicFunctor:
		args, c := rewriteArgs(a.Args, f)
		if c {
			a = &ast.IntrinsicFunctor{Op: a.Op, Args: args, Resolved: a.Resolved}
			changed = true
		}
		arg = a
	case *ast.UserFunctor:
		args, c := rewriteArgs(a.Args, f)
		if c {
			a = &ast.UserFunctor{Name: a.Name, Args: args, ArgTypes: a.ArgTypes, ReturnType: a.ReturnType}
			changed = true
		}
		arg = a
	case *ast.TypeCast:
		inner, c := rewriteArg(a.Arg, f)
		if c {
			a = &ast.TypeCast{Type: a.Type, Arg: inner}
			changed = true
		}
		arg = a
	case *ast.Aggregator:
		body, c := rewriteLiterals(a.Body, f)
		var target ast.Argument
		tchanged := false
		if a.Target != nil {
			target, tchanged = rewriteArg(a.Target, f)
		}
		if c || tchanged {
			a = &ast.Aggregator{Op: a.Op, UserFunc: a.UserFunc, Target: target, Body: body}
			changed = true
		}
		arg = a
	case *ast.LatticeCurrent:
		keys, c := rewriteArgs(a.Keys, f)
		var def ast.Argument
		dchanged := false
		if a.Default != nil {
			def, dchanged = rewriteArg(a.Default, f)
		}
		if c || dchanged {
			a = &ast.LatticeCurrent{Relation: a.Relation, Column: a.Column, KeyCols: a.KeyCols, Keys: keys, Default: def}
			changed = true
		}
		arg = a
	}
	out, c := f(arg)
	return out, changed || c
}

func rewriteArgs(args []ast.Argument, f func(ast.Argument) (ast.Argument, bool)) ([]ast.Argument, bool) {
	changed := false
	out := make([]ast.Argument, len(args))
	for i, a := range args {
		na, c := rewriteArg(a, f)
		out[i] = na
		changed = changed || c
	}
	return out, changed
}

// rewriteLiterals rewrites every argument reachable from lits (not the
// literals themselves) with f.
func rewriteLiterals(lits []ast.Literal, f func(ast.Argument) (ast.Argument, bool)) ([]ast.Literal, bool) {
	changed := false
	out := make([]ast.Literal, len(lits))
	for i, lit := range lits {
		nl, c := rewriteLiteralArgs(lit, f)
		out[i] = nl
		changed = changed || c
	}
	return out, changed
}

func rewriteLiteralArgs(lit ast.Literal, f func(ast.Argument) (ast.Argument, bool)) (ast.Literal, bool) {
	switch l := lit.(type) {
	case *ast.Atom:
		args, c := rewriteArgs(l.Args, f)
		if c {
			return &ast.Atom{Relation: l.Relation, Args: args}, true
		}
		return l, false
	case *ast.Negation:
		inner, c := rewriteLiteralArgs(l.Atom, f)
		if c {
			return &ast.Negation{Atom: inner.(*ast.Atom)}, true
		}
		return l, false
	case *ast.BinaryConstraint:
		left, c1 := rewriteArg(l.Left, f)
		right, c2 := rewriteArg(l.Right, f)
		if c1 || c2 {
			return &ast.BinaryConstraint{Op: l.Op, Left: left, Right: right}, true
		}
		return l, false
	case *ast.Disjunction:
		lits2, c := rewriteLiterals(l.Literals, f)
		if c {
			return &ast.Disjunction{Literals: lits2}, true
		}
		return l, false
	}
	return lit, false
}

// rewriteClauseArgs rewrites every argument in c's head and body with f.
func rewriteClauseArgs(c *ast.Clause, f func(ast.Argument) (ast.Argument, bool)) (*ast.Clause, bool) {
	head, c1 := rewriteLiteralArgs(c.Head, f)
	body, c2 := rewriteLiterals(c.Body, f)
	if !c1 && !c2 {
		return c, false
	}
	nc := c.Clone()
	nc.Head = head.(*ast.Atom)
	nc.Body = body
	return nc, true
}
