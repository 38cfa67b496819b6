package ast2ram

import (
	"github.com/ramlog/ramlog/ast"
	"github.com/ramlog/ramlog/domain"
	"github.com/ramlog/ramlog/ram"
)

// argToExpr lowers a single AST argument into a RAM expression given the
// current variable-to-tuple-element bindings. Variables not yet bound
// (including unnamed wildcards) lower to Undef: by the point translation
// runs, the grounding analysis (ast/analysis) has already rejected any
// clause where this could matter for a head variable, and an unbound use
// within a negation/existence-check pattern is intentional (spec.md §4.6
// "if the pattern is total, a point contains; else a non-empty range").
func (tr *Translator) argToExpr(arg ast.Argument, varSlot map[string]ram.Expression) ram.Expression {
	switch a := arg.(type) {
	case *ast.Variable:
		if e, ok := varSlot[a.Name]; ok {
			return e
		}
		return &ram.Undef{}
	case *ast.UnnamedVariable:
		return &ram.Undef{}
	case *ast.NumberConstant:
		kind := domain.KindSigned
		if a.Kind != nil {
			kind = *a.Kind
		}
		switch kind {
		case domain.KindUnsigned:
			return &ram.UnsignedConstant{Value: domain.ToUnsigned(a.Value)}
		case domain.KindFloat:
			return &ram.FloatConstant{Value: domain.ToFloat(a.Value)}
		default:
			return &ram.SignedConstant{Value: domain.ToSigned(a.Value)}
		}
	case *ast.StringConstant:
		return &ram.StringConstant{Value: a.Value}
	case *ast.RecordInit:
		args := make([]ram.Expression, len(a.Args))
		for i, sub := range a.Args {
			args[i] = tr.argToExpr(sub, varSlot)
		}
		return &ram.PackRecord{Args: args}
	case *ast.BranchInit:
		args := make([]ram.Expression, len(a.Args)+1)
		args[0] = &ram.StringConstant{Value: a.Branch}
		for i, sub := range a.Args {
			args[i+1] = tr.argToExpr(sub, varSlot)
		}
		return &ram.PackRecord{Args: args}
	case *ast.IntrinsicFunctor:
		args := make([]ram.Expression, len(a.Args))
		for i, sub := range a.Args {
			args[i] = tr.argToExpr(sub, varSlot)
		}
		kind := domain.KindSigned
		if a.Resolved != nil {
			kind = *a.Resolved
		}
		return &ram.IntrinsicOperator{Op: a.Op, Kind: kind, Args: args}
	case *ast.UserFunctor:
		args := make([]ram.Expression, len(a.Args))
		for i, sub := range a.Args {
			args[i] = tr.argToExpr(sub, varSlot)
		}
		argKinds := make([]domain.Kind, len(a.ArgTypes))
		for i, t := range a.ArgTypes {
			argKinds[i] = kindOf(t)
		}
		return &ram.UserDefinedOperator{Name: a.Name, Args: args, ArgKinds: argKinds, ReturnKind: kindOf(a.ReturnType)}
	case *ast.TypeCast:
		return tr.argToExpr(a.Arg, varSlot)
	case *ast.LatticeCurrent:
		// The value already stored at this lattice column for the tuple
		// being derived: a lookup against the relation being computed,
		// keyed by its non-lattice columns. The lattice pass fills in
		// KeyCols/Keys/Default; a node without them predates the pass and
		// cannot be resolved.
		if len(a.KeyCols) != len(a.Keys) || a.Default == nil {
			return &ram.Undef{}
		}
		keys := make([]ram.Expression, len(a.Keys))
		for i, k := range a.Keys {
			keys[i] = tr.argToExpr(k, varSlot)
		}
		return &ram.RelationLookup{
			Relation: a.Relation.String(),
			KeyCols:  append([]int(nil), a.KeyCols...),
			Key:      keys,
			Column:   a.Column,
			Default:  tr.argToExpr(a.Default, varSlot),
		}
	case *ast.Aggregator:
		// Lowered by lowerAggregate before the constraint carrying it is
		// re-translated; an unresolved occurrence outside any constraint
		// is a transform-pipeline bug and stays Undef.
		if e, ok := tr.aggResult[a]; ok {
			return e
		}
		return &ram.Undef{}
	default:
		return &ram.Undef{}
	}
}
