package interpreter

import (
	"github.com/ramlog/ramlog/domain"
	"github.com/ramlog/ramlog/ram"
)

// evalCond evaluates a RAM condition (spec.md §4.6).
func (c *execContext) evalCond(cond ram.Condition) bool {
	switch v := cond.(type) {
	case *ram.True:
		return true
	case *ram.False:
		return false
	case *ram.Conjunction:
		for _, part := range v.Parts {
			if !c.evalCond(part) {
				return false
			}
		}
		return true
	case *ram.Negation:
		return !c.evalCond(v.Inner)
	case *ram.Empty:
		rel := c.in.mustRelation(v.Relation)
		return rel.Len() == 0
	case *ram.ExistenceCheck:
		return c.existenceCheck(v.Relation, v.Pattern, v.Ordering)
	case *ram.ProvenanceExistenceCheck:
		// Ignores the trailing __rule/__height columns and additionally
		// requires some match with height <= Height (SPEC_FULL.md §12).
		rel := c.in.mustRelation(v.Relation)
		bound := len(v.Pattern)
		maxHeight := domain.ToSigned(c.evalExpr(v.Height))
		for _, row := range rel.Scan() {
			data := row.Data()
			if !prefixMatches(data, v.Pattern, c) {
				continue
			}
			if len(data) > bound && domain.ToSigned(data[len(data)-1]) <= maxHeight {
				return true
			}
		}
		return false
	case *ram.Constraint:
		return c.evalConstraint(v)
	default:
		panic("interpreter: unhandled condition type")
	}
}

func prefixMatches(data []domain.Value, pattern []ram.Expression, c *execContext) bool {
	for i, p := range pattern {
		if _, ok := p.(*ram.Undef); ok {
			continue
		}
		if i >= len(data) || data[i] != c.evalExpr(p) {
			return false
		}
	}
	return true
}

// existenceCheck realizes spec.md §4.6's "if the pattern is total, a point
// contains; else a non-empty range": an Undef column means that column is
// unbound, so a total pattern (no Undef columns) uses the fast indexed
// Contains path and a partial pattern falls back to a scan-and-filter
// (a documented simplification -- see DESIGN.md -- since this build does
// not implement the index-selection pass that would choose a prefix
// ordering for a partial pattern).
func (c *execContext) existenceCheck(relName string, pattern []ram.Expression, ordering int) bool {
	rel := c.in.mustRelation(relName)
	total := true
	key := make([]domain.Value, len(pattern))
	for i, p := range pattern {
		if _, ok := p.(*ram.Undef); ok {
			total = false
			continue
		}
		key[i] = c.evalExpr(p)
	}
	if total {
		c.in.metrics.recordRead(relName)
		return c.view(relName, ordering).Contains(key)
	}
	for _, row := range rel.Scan() {
		if prefixMatches(row.Data(), pattern, c) {
			return true
		}
	}
	return false
}

func (c *execContext) evalConstraint(v *ram.Constraint) bool {
	left := c.evalExpr(v.Left)
	right := c.evalExpr(v.Right)
	switch v.Kind {
	case domain.KindFloat:
		l, r := domain.ToFloat(left), domain.ToFloat(right)
		return compareFloat(v.Op, l, r)
	case domain.KindUnsigned:
		l, r := domain.ToUnsigned(left), domain.ToUnsigned(right)
		return compareUnsigned(v.Op, l, r)
	default:
		l, r := domain.ToSigned(left), domain.ToSigned(right)
		return compareSigned(v.Op, l, r)
	}
}

func compareSigned(op ram.ConstraintOp, l, r int64) bool {
	switch op {
	case ram.ConstrEq:
		return l == r
	case ram.ConstrNe:
		return l != r
	case ram.ConstrLt:
		return l < r
	case ram.ConstrLe:
		return l <= r
	case ram.ConstrGt:
		return l > r
	case ram.ConstrGe:
		return l >= r
	default:
		return false
	}
}

func compareUnsigned(op ram.ConstraintOp, l, r uint64) bool {
	switch op {
	case ram.ConstrEq:
		return l == r
	case ram.ConstrNe:
		return l != r
	case ram.ConstrLt:
		return l < r
	case ram.ConstrLe:
		return l <= r
	case ram.ConstrGt:
		return l > r
	case ram.ConstrGe:
		return l >= r
	default:
		return false
	}
}

func compareFloat(op ram.ConstraintOp, l, r float64) bool {
	switch op {
	case ram.ConstrEq:
		return l == r
	case ram.ConstrNe:
		return l != r
	case ram.ConstrLt:
		return l < r
	case ram.ConstrLe:
		return l <= r
	case ram.ConstrGt:
		return l > r
	case ram.ConstrGe:
		return l >= r
	default:
		return false
	}
}

