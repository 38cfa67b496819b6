package ast2ram

import (
	"fmt"

	"github.com/ramlog/ramlog/ast"
	"github.com/ramlog/ramlog/ram"
)

// emitExplainSubroutines emits one subroutine per non-fact clause
// (SPEC_FULL.md §12, spec.md §4.4 "an optional provenance-explain
// subroutine per clause"). The subroutine takes the head tuple plus a
// maximum derivation height as arguments, checks the fact is actually
// derivable within that height, re-runs the clause body against the
// computed relations, and returns the rule number followed by the body
// atoms' argument values -- the immediate support of the fact.
func (tr *Translator) emitExplainSubroutines() error {
	perRel := make(map[string]int)
	for _, c := range tr.prog.Clauses {
		if c.IsFact() {
			continue
		}
		relName := c.Head.Relation.String()
		rel := tr.prog.Relations[relName]
		if rel == nil {
			continue
		}
		perRel[relName]++
		name := fmt.Sprintf("explain_%s_%d", relName, perRel[relName])

		arity := rel.Arity()
		varSlot := map[string]ram.Expression{}
		var headConds []ram.Condition
		pattern := make([]ram.Expression, arity)
		for i, arg := range c.Head.Args {
			sub := &ram.SubroutineArgument{Index: i}
			pattern[i] = sub
			if v, ok := arg.(*ast.Variable); ok {
				if varSlot[v.Name] == nil {
					varSlot[v.Name] = sub
					continue
				}
			}
			headConds = append(headConds, &ram.Constraint{
				Op: ram.ConstrEq, Left: sub, Right: tr.argToExpr(arg, varSlot),
			})
		}

		terminal := &ram.SubroutineReturn{}
		tid := new(int)
		// Explain keeps the clause's source literal order: the returned
		// support positions must line up with the written rule, not with
		// whatever order the SIPS preferred.
		root, err := tr.bodyToOp(c.Body, 0, varSlot, tid, terminal, nil)
		if err != nil {
			return err
		}
		vals := []ram.Expression{&ram.SignedConstant{Value: int64(tr.ruleNum[c])}}
		for _, atom := range c.BodyAtoms() {
			for _, arg := range atom.Args {
				vals = append(vals, tr.argToExpr(arg, varSlot))
			}
		}
		terminal.Values = vals

		derivable := ram.Condition(&ram.ProvenanceExistenceCheck{
			Relation: relName,
			Pattern:  pattern,
			Height:   &ram.SubroutineArgument{Index: arity},
			Ordering: 0,
		})
		op := ram.Operation(&ram.Filter{Cond: derivable, Nested: root})
		for i := len(headConds) - 1; i >= 0; i-- {
			op = &ram.Filter{Cond: headConds[i], Nested: op}
		}
		tr.ram.Subroutines[name] = &ram.Subroutine{
			Name:    name,
			NumArgs: arity + 1,
			Body:    &ram.Query{Root: op},
		}
	}
	return nil
}
