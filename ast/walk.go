package ast

// WalkArguments calls visit on arg and, recursively, every sub-argument it
// contains (record/branch fields, functor args, typecast arg, aggregator
// target). It does not descend into aggregator bodies; use WalkLiteral for
// that. Grounded on the teacher's sql/transform Walk/Inspect visitor
// pattern (a function-valued visitor over a node tree) rather than a
// class-hierarchy accept/visit split.
func WalkArguments(arg Argument, visit func(Argument)) {
	if arg == nil {
		return
	}
	visit(arg)
	switch a := arg.(type) {
	case *RecordInit:
		for _, sub := range a.Args {
			WalkArguments(sub, visit)
		}
	case *BranchInit:
		for _, sub := range a.Args {
			WalkArguments(sub, visit)
		}
	case *IntrinsicFunctor:
		for _, sub := range a.Args {
			WalkArguments(sub, visit)
		}
	case *UserFunctor:
		for _, sub := range a.Args {
			WalkArguments(sub, visit)
		}
	case *TypeCast:
		WalkArguments(a.Arg, visit)
	case *Aggregator:
		if a.Target != nil {
			WalkArguments(a.Target, visit)
		}
	case *LatticeCurrent:
		for _, sub := range a.Keys {
			WalkArguments(sub, visit)
		}
		if a.Default != nil {
			WalkArguments(a.Default, visit)
		}
	}
}

// WalkLiteral calls visitArg on every argument reachable from lit,
// including into aggregator bodies, and visitLit on lit itself and every
// literal nested inside a disjunction or aggregator body.
func WalkLiteral(lit Literal, visitLit func(Literal), visitArg func(Argument)) {
	if lit == nil {
		return
	}
	visitLit(lit)
	switch l := lit.(type) {
	case *Atom:
		for _, arg := range l.Args {
			WalkArguments(arg, visitArg)
			walkAggregatorBodies(arg, visitLit, visitArg)
		}
	case *Negation:
		WalkLiteral(l.Atom, visitLit, visitArg)
	case *BinaryConstraint:
		WalkArguments(l.Left, visitArg)
		WalkArguments(l.Right, visitArg)
		walkAggregatorBodies(l.Left, visitLit, visitArg)
		walkAggregatorBodies(l.Right, visitLit, visitArg)
	case *Disjunction:
		for _, sub := range l.Literals {
			WalkLiteral(sub, visitLit, visitArg)
		}
	}
}

func walkAggregatorBodies(arg Argument, visitLit func(Literal), visitArg func(Argument)) {
	var rec func(Argument)
	rec = func(a Argument) {
		switch v := a.(type) {
		case *Aggregator:
			for _, bl := range v.Body {
				WalkLiteral(bl, visitLit, visitArg)
			}
		case *RecordInit:
			for _, sub := range v.Args {
				rec(sub)
			}
		case *BranchInit:
			for _, sub := range v.Args {
				rec(sub)
			}
		case *IntrinsicFunctor:
			for _, sub := range v.Args {
				rec(sub)
			}
		case *UserFunctor:
			for _, sub := range v.Args {
				rec(sub)
			}
		case *TypeCast:
			rec(v.Arg)
		}
	}
	rec(arg)
}

// Variables returns every distinct *Variable name referenced anywhere in
// lit (including aggregator bodies and record/functor sub-arguments).
func Variables(lit Literal) []string {
	seen := make(map[string]bool)
	var out []string
	WalkLiteral(lit, func(Literal) {}, func(arg Argument) {
		if v, ok := arg.(*Variable); ok && !seen[v.Name] {
			seen[v.Name] = true
			out = append(out, v.Name)
		}
	})
	return out
}
