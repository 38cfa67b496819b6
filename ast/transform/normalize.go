package transform

import (
	"github.com/ramlog/ramlog/ast"
	"github.com/ramlog/ramlog/domain"
)

// RemoveTypecasts implements spec.md §4.2 pass 1: replace typecast nodes
// with their inner argument, once type inference has already run.
func RemoveTypecasts() Transformer {
	return func(p *ast.Program) (*ast.Program, bool) {
		return mapClauses(p, func(c *ast.Clause) (*ast.Clause, bool) {
			return rewriteClauseArgs(c, func(arg ast.Argument) (ast.Argument, bool) {
				if tc, ok := arg.(*ast.TypeCast); ok {
					return tc.Arg, true
				}
				return arg, false
			})
		})
	}
}

// kindForType maps a declared ast.Type's base kind to the domain.Kind used
// for polymorphic resolution.
func kindForType(t *ast.Type) domain.Kind {
	if t == nil {
		return domain.KindSigned
	}
	switch t.Base().Kind {
	case ast.KindUnsigned:
		return domain.KindUnsigned
	case ast.KindFloat:
		return domain.KindFloat
	case ast.KindSymbol:
		return domain.KindSymbol
	case ast.KindRecord, ast.KindSum:
		return domain.KindRecord
	default:
		return domain.KindSigned
	}
}

// PolymorphicResolution implements spec.md §4.2 pass 2: assign a concrete
// numeric type to each numeric constant and specialize overloaded
// intrinsic functors to a signed/unsigned/float/symbol variant. Binary
// constraints are left as they are here; ast2ram picks each constraint's
// comparison kind from the inferred type of its operands. typeOf resolves the inferred type of an argument's surrounding
// context (supplied by the type-inference analysis); when typeOf cannot
// determine a type (returns nil), the constant defaults to KindSigned,
// matching Datalog's default numeric type.
func PolymorphicResolution(typeOf func(ast.Argument) *ast.Type) Transformer {
	return func(p *ast.Program) (*ast.Program, bool) {
		return mapClauses(p, func(c *ast.Clause) (*ast.Clause, bool) {
			return rewriteClauseArgs(c, func(arg ast.Argument) (ast.Argument, bool) {
				switch a := arg.(type) {
				case *ast.NumberConstant:
					if a.Kind != nil {
						return a, false
					}
					k := kindForType(typeOf(a))
					return &ast.NumberConstant{Value: a.Value, Kind: &k}, true
				case *ast.IntrinsicFunctor:
					if a.Resolved != nil || len(a.Args) == 0 {
						return a, false
					}
					k := kindForType(typeOf(a.Args[0]))
					return &ast.IntrinsicFunctor{Op: a.Op, Args: a.Args, Resolved: &k}, true
				}
				return arg, false
			})
		})
	}
}

// UserFunctorResolution implements spec.md §4.2 pass 3: attach declared
// argument/return types to each user-functor occurrence. A missing
// declaration or an arity mismatch is a semantic error (spec.md §7 kind
// (b)): rather than fail the whole pipeline on the first occurrence, every
// such error found across the program is appended to errs (a *MultiError,
// which wraps github.com/hashicorp/go-multierror) so the caller can
// report them all together, matching SPEC_FULL.md §10.1. decls maps a
// functor name to its declared (argument types, return type).
func UserFunctorResolution(decls map[string]FunctorDecl, errs *MultiError) Transformer {
	return func(p *ast.Program) (*ast.Program, bool) {
		return mapClauses(p, func(c *ast.Clause) (*ast.Clause, bool) {
			return rewriteClauseArgs(c, func(arg ast.Argument) (ast.Argument, bool) {
				f, ok := arg.(*ast.UserFunctor)
				if !ok || f.ReturnType != nil {
					return arg, false
				}
				decl, ok := decls[f.Name]
				if !ok {
					errs.Append(ErrUnknownFunctor.New(f.Name))
					return arg, false
				}
				if len(decl.ArgTypes) != len(f.Args) {
					errs.Append(ErrFunctorArity.New(f.Name, len(decl.ArgTypes), len(f.Args)))
					return arg, false
				}
				return &ast.UserFunctor{Name: f.Name, Args: f.Args, ArgTypes: decl.ArgTypes, ReturnType: decl.ReturnType}, true
			})
		})
	}
}

// FunctorDecl is a user-defined functor's declared signature.
type FunctorDecl struct {
	ArgTypes   []*ast.Type
	ReturnType *ast.Type
}
