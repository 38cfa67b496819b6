package analysis

import "github.com/ramlog/ramlog/ast"

// TypeInference records inferred *ast.Types for the argument nodes of a
// program, used to drive the polymorphic-resolution pass (spec.md §4.2
// pass 2: "assign a concrete numeric type to each numeric constant from
// inferred type sets"). Types are keyed by argument node identity so the
// result can be handed to transform.Default's typeOf callback directly.
type TypeInference struct {
	types map[ast.Argument]*ast.Type
}

// TypeOf returns the inferred type for arg, or nil if none could be
// determined (e.g. an unnamed variable, or a variable never constrained by
// any atom).
func (ti *TypeInference) TypeOf(arg ast.Argument) *ast.Type {
	return ti.types[arg]
}

// Infer walks every clause of p, seeding each variable occurrence's type
// from the declared attribute type of the relation position it occupies in
// an atom, then propagating across `=` binary constraints until no further
// variable gains a type. The result, keyed by node identity, holds every
// variable occurrence reachable from a clause (head, body, and nested
// record/functor/aggregator sub-arguments) whose variable gained a type,
// plus each non-variable argument sitting directly at a typed atom
// position; other nodes are not recorded.
func Infer(p *ast.Program) *TypeInference {
	ti := &TypeInference{types: make(map[ast.Argument]*ast.Type)}
	for _, c := range p.Clauses {
		ti.inferClause(p, c)
	}
	return ti
}

func (ti *TypeInference) inferClause(p *ast.Program, c *ast.Clause) {
	varType := make(map[string]*ast.Type)

	seedAtom := func(a *ast.Atom) {
		rel := p.Relations[a.Relation.String()]
		if rel == nil {
			return
		}
		for i, arg := range a.Args {
			if i >= len(rel.Attributes) {
				break
			}
			t := p.Types[rel.Attributes[i].TypeName.String()]
			if t == nil {
				continue
			}
			if v, ok := arg.(*ast.Variable); ok {
				if varType[v.Name] == nil {
					varType[v.Name] = t
				}
			} else {
				ti.types[arg] = t
			}
		}
	}

	seedAtom(c.Head)
	for _, lit := range c.Body {
		if a, ok := lit.(*ast.Atom); ok {
			seedAtom(a)
		}
		if n, ok := lit.(*ast.Negation); ok {
			seedAtom(n.Atom)
		}
	}

	// Propagate across equality constraints until no new variable gains a
	// type, mirroring the grounding-propagation fixpoint.
	for {
		changed := false
		for _, lit := range c.Body {
			bc, ok := lit.(*ast.BinaryConstraint)
			if !ok || bc.Op != ast.ConstrEq {
				continue
			}
			lv, lok := bc.Left.(*ast.Variable)
			rv, rok := bc.Right.(*ast.Variable)
			switch {
			case lok && varType[lv.Name] == nil && rok && varType[rv.Name] != nil:
				varType[lv.Name] = varType[rv.Name]
				changed = true
			case rok && varType[rv.Name] == nil && lok && varType[lv.Name] != nil:
				varType[rv.Name] = varType[lv.Name]
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	record := func(arg ast.Argument) {
		if v, ok := arg.(*ast.Variable); ok {
			if t := varType[v.Name]; t != nil {
				ti.types[arg] = t
			}
		}
	}
	ast.WalkLiteral(c.Head, func(ast.Literal) {}, record)
	for _, lit := range c.Body {
		ast.WalkLiteral(lit, func(ast.Literal) {}, record)
	}
}
