package ast2ram

import (
	"fmt"
	"math"

	"github.com/ramlog/ramlog/ast"
	"github.com/ramlog/ramlog/domain"
	"github.com/ramlog/ramlog/ram"
)

// scanMode selects which table an atom's scan reads from when it is
// translated as part of a recursive SCC's seminaive "version" (spec.md
// §4.4): the main (fully computed, prior-iteration) relation, its delta_
// companion, or main-minus-delta (used for SCC atoms preceding the
// version's delta-scanned atom, to avoid double-counting a derivation that
// an earlier version already covers).
type scanMode int

const (
	scanMain scanMode = iota
	scanDelta
	scanMainMinusDelta
)

// modeFunc resolves the scanMode for a given body atom occurrence; nil
// means "always scanMain" (the non-recursive / seed template).
type modeFunc func(*ast.Atom) scanMode

// bodyToOp recursively translates lits[idx:] into a nested Operation tree
// terminating in terminal, threading variable-to-expression bindings
// left to right (spec.md §3.4 "every variable occurrence...grounded by
// some body atom"; §4.4 "bound-argument analysis").
func (tr *Translator) bodyToOp(
	lits []ast.Literal,
	idx int,
	varSlot map[string]ram.Expression,
	nextTID *int,
	terminal ram.Operation,
	mode modeFunc,
) (ram.Operation, error) {
	if idx >= len(lits) {
		return terminal, nil
	}
	switch l := lits[idx].(type) {
	case *ast.Atom:
		return tr.translateAtomScan(l, lits, idx, varSlot, nextTID, terminal, mode)
	case *ast.Negation:
		pattern := make([]ram.Expression, len(l.Atom.Args))
		for i, arg := range l.Atom.Args {
			pattern[i] = tr.argToExpr(arg, varSlot)
		}
		pattern = tr.padProvenance(pattern)
		cond := ram.Condition(&ram.Negation{Inner: &ram.ExistenceCheck{
			Relation: l.Atom.Relation.String(), Pattern: pattern, Ordering: 0,
		}})
		inner, err := tr.bodyToOp(lits, idx+1, varSlot, nextTID, terminal, mode)
		if err != nil {
			return nil, err
		}
		return &ram.Filter{Cond: cond, Nested: inner}, nil
	case *ast.BinaryConstraint:
		return tr.translateConstraint(l, lits, idx, varSlot, nextTID, terminal, mode)
	case *ast.BooleanConstant:
		inner, err := tr.bodyToOp(lits, idx+1, varSlot, nextTID, terminal, mode)
		if err != nil {
			return nil, err
		}
		if l.Value {
			return inner, nil
		}
		return &ram.Filter{Cond: &ram.False{}, Nested: inner}, nil
	case *ast.Disjunction:
		return tr.translateDisjunction(l, lits, idx, varSlot, nextTID, terminal, mode)
	default:
		return nil, fmt.Errorf("ast2ram: unsupported body literal %T", lits[idx])
	}
}

// translateConstraint lowers a binary constraint: an aggregator side turns
// into an aggregate operation; an equality with exactly one yet-unbound
// variable binds it instead of filtering (the grounding-through-equality
// propagation of spec.md §4.3 realized at RAM level); everything else is a
// typed filter condition.
func (tr *Translator) translateConstraint(
	l *ast.BinaryConstraint,
	lits []ast.Literal,
	idx int,
	varSlot map[string]ram.Expression,
	nextTID *int,
	terminal ram.Operation,
	mode modeFunc,
) (ram.Operation, error) {
	if agg := tr.findUnloweredAggregator(l); agg != nil {
		return tr.lowerAggregate(agg, lits, idx, varSlot, nextTID, terminal, mode)
	}

	if l.Op == ast.ConstrEq {
		if v, ok := l.Left.(*ast.Variable); ok && varSlot[v.Name] == nil {
			if expr := tr.argToExpr(l.Right, varSlot); exprDefined(expr) {
				varSlot[v.Name] = expr
				return tr.bodyToOp(lits, idx+1, varSlot, nextTID, terminal, mode)
			}
		}
		if v, ok := l.Right.(*ast.Variable); ok && varSlot[v.Name] == nil {
			if expr := tr.argToExpr(l.Left, varSlot); exprDefined(expr) {
				varSlot[v.Name] = expr
				return tr.bodyToOp(lits, idx+1, varSlot, nextTID, terminal, mode)
			}
		}
	}

	left := tr.argToExpr(l.Left, varSlot)
	right := tr.argToExpr(l.Right, varSlot)
	kind := kindOf(tr.ti.TypeOf(l.Left))
	if tr.ti.TypeOf(l.Left) == nil {
		kind = kindOf(tr.ti.TypeOf(l.Right))
	}
	cond := ram.Condition(&ram.Constraint{Op: convertOp(l.Op), Left: left, Right: right, Kind: kind})
	inner, err := tr.bodyToOp(lits, idx+1, varSlot, nextTID, terminal, mode)
	if err != nil {
		return nil, err
	}
	return &ram.Filter{Cond: cond, Nested: inner}, nil
}

// exprDefined reports whether e contains no Undef leaf, i.e. it can be
// evaluated with the bindings available so far.
func exprDefined(e ram.Expression) bool {
	switch v := e.(type) {
	case *ram.Undef:
		return false
	case *ram.IntrinsicOperator:
		for _, a := range v.Args {
			if !exprDefined(a) {
				return false
			}
		}
	case *ram.UserDefinedOperator:
		for _, a := range v.Args {
			if !exprDefined(a) {
				return false
			}
		}
	case *ram.PackRecord:
		for _, a := range v.Args {
			if !exprDefined(a) {
				return false
			}
		}
	case *ram.RelationLookup:
		for _, a := range v.Key {
			if !exprDefined(a) {
				return false
			}
		}
		return exprDefined(v.Default)
	}
	return true
}

func (tr *Translator) translateAtomScan(
	l *ast.Atom,
	lits []ast.Literal,
	idx int,
	varSlot map[string]ram.Expression,
	nextTID *int,
	terminal ram.Operation,
	mode modeFunc,
) (ram.Operation, error) {
	tid := *nextTID
	*nextTID++
	relName := l.Relation.String()

	// Bound-argument analysis (spec.md §4.4): a column is bound when its
	// argument lowers to a defined expression with the bindings
	// accumulated so far; a bound prefix becomes an index range, bound
	// columns past the prefix stay equality filters.
	boundExpr := make([]ram.Expression, len(l.Args))
	var conds []ram.Condition
	for i, arg := range l.Args {
		switch v := arg.(type) {
		case *ast.Variable:
			if existing, ok := varSlot[v.Name]; ok {
				boundExpr[i] = existing
			} else {
				varSlot[v.Name] = &ram.TupleElement{Tuple: tid, Column: i}
			}
		case *ast.UnnamedVariable:
			// no binding, no constraint
		default:
			if expr := tr.argToExpr(arg, varSlot); exprDefined(expr) {
				boundExpr[i] = expr
			} else {
				conds = append(conds, &ram.Constraint{
					Op: ram.ConstrEq, Left: &ram.TupleElement{Tuple: tid, Column: i}, Right: expr, Kind: domain.KindSigned,
				})
			}
		}
	}
	prefix := 0
	for prefix < len(boundExpr) && boundExpr[prefix] != nil {
		prefix++
	}
	for i := prefix; i < len(boundExpr); i++ {
		if boundExpr[i] == nil {
			continue
		}
		conds = append(conds, &ram.Constraint{
			Op:    ram.ConstrEq,
			Left:  &ram.TupleElement{Tuple: tid, Column: i},
			Right: boundExpr[i],
			Kind:  kindOf(tr.ti.TypeOf(l.Args[i])),
		})
	}

	inner, err := tr.bodyToOp(lits, idx+1, varSlot, nextTID, terminal, mode)
	if err != nil {
		return nil, err
	}
	body := wrapFilters(inner, conds)

	m := scanMain
	if mode != nil {
		m = mode(l)
	}
	switch m {
	case scanDelta:
		return tr.scanOrIndexScan(deltaPrefix+relName, tid, boundExpr, prefix, len(l.Args), body), nil
	case scanMainMinusDelta:
		pattern := make([]ram.Expression, len(l.Args))
		for i := range l.Args {
			pattern[i] = &ram.TupleElement{Tuple: tid, Column: i}
		}
		pattern = tr.padProvenance(pattern)
		guard := &ram.Negation{Inner: &ram.ExistenceCheck{Relation: deltaPrefix + relName, Pattern: pattern, Ordering: 0}}
		return tr.scanOrIndexScan(relName, tid, boundExpr, prefix, len(l.Args), &ram.Filter{Cond: guard, Nested: body}), nil
	default:
		return tr.scanOrIndexScan(relName, tid, boundExpr, prefix, len(l.Args), body), nil
	}
}

// scanOrIndexScan emits an IndexScan over the bound prefix when one
// exists, with MIN/MAX sentinels on the unbound columns (spec.md §4.4
// "a pair of low/high pattern tuples with MIN/MAX sentinels"), and a
// plain full Scan otherwise.
func (tr *Translator) scanOrIndexScan(relName string, tid int, boundExpr []ram.Expression, prefix, arity int, nested ram.Operation) ram.Operation {
	if prefix == 0 {
		return &ram.Scan{Relation: relName, TupleID: tid, Nested: nested}
	}
	cols := arity + tr.extraCols()
	low := make([]ram.Expression, cols)
	high := make([]ram.Expression, cols)
	for i := 0; i < cols; i++ {
		if i < prefix {
			low[i] = boundExpr[i]
			high[i] = boundExpr[i]
			continue
		}
		low[i] = &ram.SignedConstant{Value: math.MinInt64}
		high[i] = &ram.SignedConstant{Value: math.MaxInt64}
	}
	return &ram.IndexScan{Relation: relName, Ordering: 0, Low: low, High: high, TupleID: tid, Nested: nested}
}

// translateDisjunction supports the condition-only disjunction shapes the
// pipeline produces: record-equality expansion (FoldAnonymousRecords)
// yields constraint branches, the lattice negation expansion adds a
// negated-atom branch. It lowers `l1 ; l2 ; ...` to
// NOT(NOT l1 AND NOT l2 AND ...) via De Morgan, since ram.Condition has no
// native Or node. Branches must not bind new variables.
func (tr *Translator) translateDisjunction(
	d *ast.Disjunction,
	lits []ast.Literal,
	idx int,
	varSlot map[string]ram.Expression,
	nextTID *int,
	terminal ram.Operation,
	mode modeFunc,
) (ram.Operation, error) {
	var negated []ram.Condition
	for _, sub := range d.Literals {
		branch, err := tr.literalCondition(sub, varSlot)
		if err != nil {
			return nil, err
		}
		negated = append(negated, &ram.Negation{Inner: branch})
	}
	cond := ram.Condition(&ram.Negation{Inner: &ram.Conjunction{Parts: negated}})
	inner, err := tr.bodyToOp(lits, idx+1, varSlot, nextTID, terminal, mode)
	if err != nil {
		return nil, err
	}
	return &ram.Filter{Cond: cond, Nested: inner}, nil
}

// literalCondition lowers a non-binding literal into a RAM condition.
func (tr *Translator) literalCondition(lit ast.Literal, varSlot map[string]ram.Expression) (ram.Condition, error) {
	switch l := lit.(type) {
	case *ast.BinaryConstraint:
		left := tr.argToExpr(l.Left, varSlot)
		right := tr.argToExpr(l.Right, varSlot)
		kind := kindOf(tr.ti.TypeOf(l.Left))
		if tr.ti.TypeOf(l.Left) == nil {
			kind = kindOf(tr.ti.TypeOf(l.Right))
		}
		return &ram.Constraint{Op: convertOp(l.Op), Left: left, Right: right, Kind: kind}, nil
	case *ast.Negation:
		pattern := make([]ram.Expression, len(l.Atom.Args))
		for i, arg := range l.Atom.Args {
			pattern[i] = tr.argToExpr(arg, varSlot)
		}
		pattern = tr.padProvenance(pattern)
		return &ram.Negation{Inner: &ram.ExistenceCheck{
			Relation: l.Atom.Relation.String(), Pattern: pattern, Ordering: 0,
		}}, nil
	case *ast.BooleanConstant:
		if l.Value {
			return &ram.True{}, nil
		}
		return &ram.False{}, nil
	default:
		return nil, fmt.Errorf("ast2ram: disjunction branch %T not supported", lit)
	}
}

func wrapFilters(op ram.Operation, conds []ram.Condition) ram.Operation {
	for i := len(conds) - 1; i >= 0; i-- {
		op = &ram.Filter{Cond: conds[i], Nested: op}
	}
	return op
}

func convertOp(op ast.ConstraintOp) ram.ConstraintOp {
	switch op {
	case ast.ConstrEq:
		return ram.ConstrEq
	case ast.ConstrNeq:
		return ram.ConstrNe
	case ast.ConstrLt:
		return ram.ConstrLt
	case ast.ConstrLe:
		return ram.ConstrLe
	case ast.ConstrGt:
		return ram.ConstrGt
	case ast.ConstrGe:
		return ram.ConstrGe
	default:
		return ram.ConstrEq
	}
}
