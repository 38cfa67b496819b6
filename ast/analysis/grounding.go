package analysis

import "github.com/ramlog/ramlog/ast"

// Grounding is the per-clause result of the grounding analysis (spec.md
// §3.4 invariant, §4.3 "Grounding"): the set of variable names determined
// by some positive body atom or equality constraint.
type Grounding struct {
	Grounded map[string]bool
}

// IsGrounded reports whether name is grounded.
func (g *Grounding) IsGrounded(name string) bool { return g.Grounded[name] }

// AnalyzeGrounding computes groundedness for every variable in c, marking
// each argument as grounded or not (spec.md §4.3): atoms in the positive
// body ground their direct variable arguments; binary equality constraints
// propagate groundedness from a fully-determined side to a single
// ungrounded variable on the other side; record/branch initializers and
// intrinsic/user functors are transparent -- an expression built from them
// is itself grounded iff every sub-argument is grounded, which in turn can
// feed a further equality propagation. The fixpoint runs until no new
// variable is grounded.
func AnalyzeGrounding(c *ast.Clause) *Grounding {
	grounded := make(map[string]bool)

	var argGrounded func(ast.Argument) bool
	argGrounded = func(arg ast.Argument) bool {
		switch a := arg.(type) {
		case *ast.Variable:
			return grounded[a.Name]
		case *ast.UnnamedVariable:
			return true
		case *ast.NumberConstant, *ast.StringConstant:
			return true
		case *ast.RecordInit:
			for _, sub := range a.Args {
				if !argGrounded(sub) {
					return false
				}
			}
			return true
		case *ast.BranchInit:
			for _, sub := range a.Args {
				if !argGrounded(sub) {
					return false
				}
			}
			return true
		case *ast.IntrinsicFunctor:
			for _, sub := range a.Args {
				if !argGrounded(sub) {
					return false
				}
			}
			return true
		case *ast.UserFunctor:
			for _, sub := range a.Args {
				if !argGrounded(sub) {
					return false
				}
			}
			return true
		case *ast.TypeCast:
			return argGrounded(a.Arg)
		case *ast.Aggregator:
			return true // aggregator results are always grounded by construction
		case *ast.LatticeCurrent:
			return true
		}
		return false
	}

	for {
		changed := false
		for _, lit := range c.Body {
			switch l := lit.(type) {
			case *ast.Atom:
				for _, arg := range l.Args {
					if v, ok := arg.(*ast.Variable); ok && !grounded[v.Name] {
						grounded[v.Name] = true
						changed = true
					}
				}
			case *ast.BinaryConstraint:
				if l.Op != ast.ConstrEq {
					continue
				}
				lg, rg := argGrounded(l.Left), argGrounded(l.Right)
				if lg && !rg {
					if v, ok := l.Right.(*ast.Variable); ok && !grounded[v.Name] {
						grounded[v.Name] = true
						changed = true
					}
				}
				if rg && !lg {
					if v, ok := l.Left.(*ast.Variable); ok && !grounded[v.Name] {
						grounded[v.Name] = true
						changed = true
					}
				}
			}
		}
		if !changed {
			break
		}
	}
	return &Grounding{Grounded: grounded}
}

// UngroundedHeadVariables returns every variable name occurring in c's head
// that AnalyzeGrounding did not mark as grounded -- a violation of spec.md
// §3.4's invariant ("every variable occurrence in a clause either appears
// in the head or is grounded").
func UngroundedHeadVariables(c *ast.Clause) []string {
	g := AnalyzeGrounding(c)
	var out []string
	seen := make(map[string]bool)
	for _, v := range c.Head.Variables() {
		if !g.IsGrounded(v.Name) && !seen[v.Name] {
			seen[v.Name] = true
			out = append(out, v.Name)
		}
	}
	return out
}
