// Package transform implements the AST transformation pipeline of spec.md
// §4.2: a transformer is a function Program -> (Program, changed), composed
// with Sequence/Conditional/While/Fixpoint/Null combinators, plus the
// pipeline's 17 core passes. Grounded on the teacher's rule-pipeline shape
// (a Rule{Id, Apply} plus a Batch/RuleSelector driver, see
// sql/analyzer/resolve_tables_test.go's NewBuilder(...).AddPostAnalyzeRule
// (...).Build() composition).
package transform

import "github.com/ramlog/ramlog/ast"

// Transformer rewrites a Program, reporting whether anything changed.
type Transformer func(p *ast.Program) (*ast.Program, bool)

// Sequence runs every pass once, in order, threading the (possibly
// rewritten) program through each. It reports changed if any pass did.
func Sequence(passes ...Transformer) Transformer {
	return func(p *ast.Program) (*ast.Program, bool) {
		changed := false
		for _, t := range passes {
			var c bool
			p, c = t(p)
			changed = changed || c
		}
		return p, changed
	}
}

// Conditional runs t only if pred holds for the current program.
func Conditional(pred func(*ast.Program) bool, t Transformer) Transformer {
	return func(p *ast.Program) (*ast.Program, bool) {
		if !pred(p) {
			return p, false
		}
		return t(p)
	}
}

// While repeats t as long as pred holds, stopping early after an iteration
// that reports no change, and reports changed if any iteration changed the
// program.
func While(pred func(*ast.Program) bool, t Transformer) Transformer {
	return func(p *ast.Program) (*ast.Program, bool) {
		changed := false
		for pred(p) {
			var c bool
			p, c = t(p)
			changed = changed || c
			if !c {
				break
			}
		}
		return p, changed
	}
}

// Fixpoint repeats t until a single application reports no change.
func Fixpoint(t Transformer) Transformer {
	return func(p *ast.Program) (*ast.Program, bool) {
		changed := false
		for {
			next, c := t(p)
			p = next
			if !c {
				return p, changed
			}
			changed = true
		}
	}
}

// Null is the identity transformer.
func Null() Transformer {
	return func(p *ast.Program) (*ast.Program, bool) { return p, false }
}
