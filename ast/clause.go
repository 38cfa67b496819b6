package ast

// Clause is a head atom plus a body literal list, an optional execution
// plan, and an optional subsumptive marker (spec.md §3.4). Facts are
// clauses with an empty Body.
type Clause struct {
	Head *Atom
	Body []Literal

	// Plan overrides the SIPS cost metric with a fixed literal evaluation
	// order, one of SPEC_FULL.md §12's supplemented features grounded on
	// the reference's `.plan` directive.
	Plan []int

	// Subsumptive marks a rule whose derived tuples should be dominated by
	// more specific ones (SPEC_FULL.md §12).
	Subsumptive bool
}

// IsFact reports whether this clause has no body (spec.md §3.4).
func (c *Clause) IsFact() bool { return len(c.Body) == 0 }

// Clone deep-copies the clause so a transformation pass can rewrite it
// without mutating any other clause that might share sub-trees.
func (c *Clause) Clone() *Clause {
	cp := &Clause{
		Head:        c.Head.Clone().(*Atom),
		Body:        cloneLiterals(c.Body),
		Subsumptive: c.Subsumptive,
	}
	if c.Plan != nil {
		cp.Plan = append([]int(nil), c.Plan...)
	}
	return cp
}

// BodyAtoms returns every positive atom in the clause body (ignoring
// negations, constraints, and disjunctions).
func (c *Clause) BodyAtoms() []*Atom {
	var out []*Atom
	for _, lit := range c.Body {
		if a, ok := lit.(*Atom); ok {
			out = append(out, a)
		}
	}
	return out
}
