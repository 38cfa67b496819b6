package ast2ram

import (
	"github.com/ramlog/ramlog/ast"
	"github.com/ramlog/ramlog/ram"
)

// translateRecursive implements spec.md §4.4's seminaive recursive-SCC
// template: a non-recursive seed projecting into both R and Δ_R, then a
// fixpoint loop that computes one "version" per recursive-clause body atom
// referencing the SCC, merges N_R into R between iterations, and exits
// when every N_R is empty.
func (tr *Translator) translateRecursive(comp []string) (ram.Statement, error) {
	names := sortedCopy(comp)
	inSCC := make(map[string]bool, len(names))
	for _, n := range names {
		inSCC[n] = true
	}

	for _, name := range names {
		rel := tr.prog.Relations[name]
		cols := rel.Arity() + tr.extraCols()
		tr.ram.Relations[deltaPrefix+name] = &ram.RelationDef{Name: deltaPrefix + name, Arity: cols, Provenance: tr.opts.Provenance}
		tr.ram.Relations[newPrefix+name] = &ram.RelationDef{Name: newPrefix + name, Arity: cols, Provenance: tr.opts.Provenance}
	}

	var seed []ram.Statement
	var loopBody []ram.Statement

	for _, name := range names {
		for _, c := range tr.prog.ClausesFor(name) {
			if c.IsFact() {
				seed = append(seed, tr.projectFact(c))
				fq, err := tr.clauseQuery(c, deltaPrefix+name, nil)
				if err != nil {
					return nil, err
				}
				seed = append(seed, fq)
				continue
			}
			if clauseReferencesSCC(c, inSCC) {
				continue
			}
			q1, err := tr.clauseQuery(c, name, nil)
			if err != nil {
				return nil, err
			}
			q2, err := tr.clauseQuery(c, deltaPrefix+name, nil)
			if err != nil {
				return nil, err
			}
			seed = append(seed, q1, q2)
		}
	}

	for _, name := range names {
		for _, c := range tr.prog.ClausesFor(name) {
			if c.IsFact() || !clauseReferencesSCC(c, inSCC) {
				continue
			}
			sccAtoms := sccAtomsOf(c, inSCC)
			for vi := range sccAtoms {
				mode := makeModeFunc(sccAtoms, vi)
				q, err := tr.clauseQuery(c, newPrefix+name, mode)
				if err != nil {
					return nil, err
				}
				loopBody = append(loopBody, q)
			}
		}
	}

	var emptyParts []ram.Condition
	for _, name := range names {
		emptyParts = append(emptyParts, &ram.Empty{Relation: newPrefix + name})
	}
	loopBody = append(loopBody, &ram.Exit{Cond: &ram.Conjunction{Parts: emptyParts}})

	for _, name := range names {
		rel := tr.prog.Relations[name]
		loopBody = append(loopBody, deltaDifference(name, rel.Arity(), tr.extraCols()))
	}
	for _, name := range names {
		rel := tr.prog.Relations[name]
		if rel.Representation == ast.ReprEqrel {
			loopBody = append(loopBody, &ram.MergeExtend{Src: deltaPrefix + name, Tgt: name})
		} else {
			loopBody = append(loopBody, &ram.Merge{Src: newPrefix + name, Tgt: name})
		}
	}
	for _, name := range names {
		loopBody = append(loopBody, &ram.Clear{Relation: newPrefix + name})
	}

	all := append(seed, &ram.Loop{Body: &ram.Sequence{Stmts: loopBody}})
	return &ram.Sequence{Stmts: all}, nil
}

// deltaDifference emits Δ_R := N_R \ R: clear Δ_R, then for every tuple of
// N_R not already present in R, project it into Δ_R (spec.md §4.4 step
// 2's "set Δ_R to N_R \ R"). Presence in R compares data columns only;
// a rederivation differing solely in its provenance columns is not a new
// tuple, or the fixpoint would never drain.
func deltaDifference(name string, arity, extra int) ram.Statement {
	pattern := make([]ram.Expression, arity+extra)
	values := make([]ram.Expression, arity+extra)
	for i := 0; i < arity+extra; i++ {
		values[i] = &ram.TupleElement{Tuple: 0, Column: i}
		if i < arity {
			pattern[i] = &ram.TupleElement{Tuple: 0, Column: i}
		} else {
			pattern[i] = &ram.Undef{}
		}
	}
	return &ram.Sequence{Stmts: []ram.Statement{
		&ram.Clear{Relation: deltaPrefix + name},
		&ram.Query{Root: &ram.Scan{
			Relation: newPrefix + name,
			TupleID:  0,
			Nested: &ram.Filter{
				Cond:   &ram.Negation{Inner: &ram.ExistenceCheck{Relation: name, Pattern: pattern, Ordering: 0}},
				Nested: &ram.Project{Relation: deltaPrefix + name, Values: values},
			},
		}},
	}}
}

// clauseReferencesSCC reports whether any positive body atom of c names a
// relation in inSCC.
func clauseReferencesSCC(c *ast.Clause, inSCC map[string]bool) bool {
	for _, a := range c.BodyAtoms() {
		if inSCC[a.Relation.String()] {
			return true
		}
	}
	return false
}

// sccAtomsOf returns every positive body atom of c, in body order, whose
// relation is in inSCC.
func sccAtomsOf(c *ast.Clause, inSCC map[string]bool) []*ast.Atom {
	var out []*ast.Atom
	for _, lit := range c.Body {
		if a, ok := lit.(*ast.Atom); ok && inSCC[a.Relation.String()] {
			out = append(out, a)
		}
	}
	return out
}

// makeModeFunc returns the modeFunc for the "version" targeting
// sccAtoms[target]: that atom scans Δ, SCC atoms before it scan main-
// minus-Δ (the double-counting guard, spec.md §4.4 "a negated delta
// existence check against earlier SCC atoms"), SCC atoms after it and
// every non-SCC atom scan main.
func makeModeFunc(sccAtoms []*ast.Atom, target int) modeFunc {
	return func(a *ast.Atom) scanMode {
		for j, sa := range sccAtoms {
			if sa == a {
				switch {
				case j == target:
					return scanDelta
				case j < target:
					return scanMainMinusDelta
				default:
					return scanMain
				}
			}
		}
		return scanMain
	}
}
