package ast2ram

import (
	"fmt"

	"github.com/ramlog/ramlog/ast"
	"github.com/ramlog/ramlog/domain"
	"github.com/ramlog/ramlog/ram"
)

func convertAggFunc(op ast.AggregateOp) (ram.AggregateFunc, error) {
	switch op {
	case ast.AggCount:
		return ram.AggCount, nil
	case ast.AggSum:
		return ram.AggSum, nil
	case ast.AggMin:
		return ram.AggMin, nil
	case ast.AggMax:
		return ram.AggMax, nil
	case ast.AggMean:
		return ram.AggMean, nil
	default:
		return "", fmt.Errorf("ast2ram: unknown aggregate %q", op)
	}
}

// findUnloweredAggregator returns the first aggregator reachable from
// either side of bc that has no result expression yet, descending into
// functor arguments (RemoveRedundantSums leaves `k * count : {...}`
// shapes, spec.md §4.2 pass 16).
func (tr *Translator) findUnloweredAggregator(bc *ast.BinaryConstraint) *ast.Aggregator {
	var found *ast.Aggregator
	visit := func(a ast.Argument) {
		if agg, ok := a.(*ast.Aggregator); ok && found == nil {
			if _, done := tr.aggResult[agg]; !done {
				found = agg
			}
		}
	}
	ast.WalkArguments(bc.Left, visit)
	ast.WalkArguments(bc.Right, visit)
	if found != nil {
		return found
	}
	// WalkArguments stops at an aggregator's target; aggregators sitting
	// directly on a side are found above, so this covers every position
	// the transform pipeline can produce.
	return nil
}

// lowerAggregate emits a ram.Aggregate for agg and records its result
// expression, then re-translates the same literal: with the result
// resolved, the ordinary constraint lowering (binding or filtering)
// applies unchanged. The materialization pass (spec.md §4.2 pass 5) has
// already reduced every aggregator body to a single simple atom, so a
// multi-literal body reaching this point is a pipeline bug.
func (tr *Translator) lowerAggregate(
	agg *ast.Aggregator,
	lits []ast.Literal,
	idx int,
	varSlot map[string]ram.Expression,
	nextTID *int,
	terminal ram.Operation,
	mode modeFunc,
) (ram.Operation, error) {
	if agg.UserFunc != "" {
		return nil, fmt.Errorf("ast2ram: user-defined aggregator %q not supported", agg.UserFunc)
	}
	if len(agg.Body) != 1 {
		return nil, fmt.Errorf("ast2ram: aggregator body not materialized to a single literal")
	}
	atom, ok := agg.Body[0].(*ast.Atom)
	if !ok {
		return nil, fmt.Errorf("ast2ram: aggregator body literal %T not supported", agg.Body[0])
	}
	fn, err := convertAggFunc(agg.Op)
	if err != nil {
		return nil, err
	}

	scanTID := *nextTID
	*nextTID++
	resultTID := *nextTID
	*nextTID++

	// Bound arguments filter the scanned tuples; unbound ones bind
	// locally for the target expression only -- they are invisible to the
	// rest of the clause, matching the aggregator's own variable scope.
	local := make(map[string]ram.Expression, len(varSlot))
	for k, v := range varSlot {
		local[k] = v
	}
	var condParts []ram.Condition
	for i, arg := range atom.Args {
		switch v := arg.(type) {
		case *ast.Variable:
			if existing, ok := varSlot[v.Name]; ok {
				condParts = append(condParts, &ram.Constraint{
					Op:    ram.ConstrEq,
					Left:  &ram.TupleElement{Tuple: scanTID, Column: i},
					Right: existing,
					Kind:  kindOf(tr.ti.TypeOf(v)),
				})
			} else if local[v.Name] == nil {
				local[v.Name] = &ram.TupleElement{Tuple: scanTID, Column: i}
			}
		case *ast.UnnamedVariable:
			// unconstrained
		default:
			condParts = append(condParts, &ram.Constraint{
				Op:    ram.ConstrEq,
				Left:  &ram.TupleElement{Tuple: scanTID, Column: i},
				Right: tr.argToExpr(arg, varSlot),
				Kind:  kindOf(tr.ti.TypeOf(arg)),
			})
		}
	}
	var cond ram.Condition
	if len(condParts) > 0 {
		cond = &ram.Conjunction{Parts: condParts}
	}

	var target ram.Expression
	kind := domain.KindSigned
	if fn != ram.AggCount {
		if agg.Target == nil {
			return nil, fmt.Errorf("ast2ram: %s aggregator without a target expression", fn)
		}
		target = tr.argToExpr(agg.Target, local)
		kind = kindOf(tr.ti.TypeOf(agg.Target))
	}

	tr.aggResult[agg] = &ram.TupleElement{Tuple: resultTID, Column: 0}
	nested, err := tr.bodyToOp(lits, idx, varSlot, nextTID, terminal, mode)
	if err != nil {
		return nil, err
	}

	return &ram.Aggregate{
		Func:        fn,
		Kind:        kind,
		Relation:    atom.Relation.String(),
		TargetExpr:  target,
		Cond:        cond,
		ScanTupleID: scanTID,
		TupleID:     resultTID,
		Nested:      nested,
	}, nil
}
