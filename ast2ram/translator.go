// Package ast2ram implements the AST→RAM translator of spec.md §4.4: per
// stratum code generation realizing seminaive fixpoint evaluation
// (stratification, delta/new relations). Grounded on the teacher's
// plan.New* constructor style (pure tree construction, one relation-
// producing statement at a time) crossed with spec.md §4.4 directly for
// the seminaive recursive-SCC template; see DESIGN.md.
package ast2ram

import (
	"fmt"
	"sort"

	"github.com/ramlog/ramlog/ast"
	"github.com/ramlog/ramlog/ast/analysis"
	"github.com/ramlog/ramlog/domain"
	"github.com/ramlog/ramlog/ram"
)

const (
	deltaPrefix = "delta_"
	newPrefix   = "new_"
)

// Options selects translation-wide features: Provenance appends the two
// trailing __rule/__height columns to every relation and emits one
// explain subroutine per clause (SPEC_FULL.md §12).
type Options struct {
	Provenance bool
}

// Translator holds the whole-program analysis results needed across every
// stratum's translation.
type Translator struct {
	prog    *ast.Program
	pg      *analysis.PrecedenceGraph
	scc     *analysis.SCCGraph
	ti      *analysis.TypeInference
	ram     *ram.Program
	opts    Options
	ruleNum map[*ast.Clause]int
	// aggResult maps each lowered aggregator occurrence to the tuple
	// element holding its computed value, so argToExpr can resolve
	// aggregators nested inside larger expressions.
	aggResult map[*ast.Aggregator]ram.Expression
}

// Translate lowers p into a seminaive RAM program, one subroutine per SCC
// stratum in topological order plus a main statement that calls them in
// sequence (spec.md §4.4 "Subroutines").
func Translate(p *ast.Program) (*ram.Program, error) {
	return TranslateWithOptions(p, Options{})
}

// TranslateWithOptions is Translate with explicit Options.
func TranslateWithOptions(p *ast.Program, opts Options) (*ram.Program, error) {
	tr := &Translator{
		prog:      p,
		pg:        analysis.BuildPrecedenceGraph(p),
		ti:        analysis.Infer(p),
		ram:       ram.NewProgram(),
		opts:      opts,
		ruleNum:   make(map[*ast.Clause]int, len(p.Clauses)),
		aggResult: make(map[*ast.Aggregator]ram.Expression),
	}
	for i, c := range p.Clauses {
		tr.ruleNum[c] = i + 1
	}
	tr.scc = analysis.BuildSCCGraph(tr.pg)
	order := analysis.BuildTopoOrder(tr.scc)

	for name, rel := range p.Relations {
		tr.ram.Relations[name] = &ram.RelationDef{
			Name:           name,
			Arity:          rel.Arity() + tr.extraCols(),
			Representation: int(rel.Representation),
			Provenance:     opts.Provenance,
		}
	}

	var stmts []ram.Statement
	stmts = append(stmts, tr.inputIOStatements()...)

	for _, sccIdx := range order.Order {
		comp := tr.scc.Components[sccIdx]
		if len(comp) == 0 {
			continue
		}
		subName := fmt.Sprintf("stratum_%d", sccIdx)
		body, err := tr.translateSCC(comp)
		if err != nil {
			return nil, err
		}
		if body == nil {
			continue
		}
		tr.ram.Subroutines[subName] = &ram.Subroutine{Name: subName, Body: body}
		stmts = append(stmts, &ram.Call{Name: subName})
	}

	stmts = append(stmts, tr.outputIOStatements()...)
	tr.ram.Main = &ram.Sequence{Stmts: stmts}

	if opts.Provenance {
		if err := tr.emitExplainSubroutines(); err != nil {
			return nil, err
		}
	}
	return tr.ram, nil
}

// extraCols is the number of trailing provenance columns every relation
// carries under Options.Provenance.
func (tr *Translator) extraCols() int {
	if tr.opts.Provenance {
		return 2
	}
	return 0
}

// padProvenance appends one Undef per provenance column to an existence
// pattern, so lookups ignore the __rule/__height columns.
func (tr *Translator) padProvenance(pattern []ram.Expression) []ram.Expression {
	for i := 0; i < tr.extraCols(); i++ {
		pattern = append(pattern, &ram.Undef{})
	}
	return pattern
}

// provValues are the expressions projected into the __rule/__height
// columns: the clause's rule number and the current fixpoint iteration
// (the derivation height of anything derived in it).
func (tr *Translator) provValues(c *ast.Clause) []ram.Expression {
	if !tr.opts.Provenance {
		return nil
	}
	return []ram.Expression{
		&ram.SignedConstant{Value: int64(tr.ruleNum[c])},
		&ram.IterationNumber{},
	}
}

// inputIOStatements emits one ram.IO read, up front, for every relation
// classified as input (spec.md §4.3 "I/O types", §4.7, §7 kind (c): a
// failed load leaves the relation empty and evaluation proceeds -- that
// recovery lives in the interpreter's IO-statement handler, not here).
func (tr *Translator) inputIOStatements() []ram.Statement {
	var out []ram.Statement
	for _, name := range sortedCopy(analysis.InputRelations(tr.prog)) {
		rel := tr.prog.Relations[name]
		out = append(out, &ram.IO{Relation: name, Direction: ram.IORead, Directives: rel.Directives})
	}
	return out
}

// outputIOStatements emits one ram.IO write/printsize, at the very end of
// Main, for every relation classified as output or printsize (spec.md §4.3,
// §4.7). Emitting these after every stratum has run keeps I/O confined to
// "between queries" (spec.md §5 "Suspension points").
func (tr *Translator) outputIOStatements() []ram.Statement {
	var out []ram.Statement
	for _, name := range sortedCopy(analysis.OutputRelations(tr.prog)) {
		rel := tr.prog.Relations[name]
		dir := ram.IOWrite
		if rel.IO == ast.IOPrintsize {
			dir = ram.IOPrintsize
		}
		out = append(out, &ram.IO{Relation: name, Direction: dir, Directives: rel.Directives})
	}
	return out
}

// translateSCC dispatches to the non-recursive or recursive template for
// the SCC containing relation names comp (spec.md §4.4).
func (tr *Translator) translateSCC(comp []string) (ram.Statement, error) {
	recursive := tr.scc.IsRecursive(tr.scc.ComponentOf[comp[0]], tr.pg)
	if !recursive {
		return tr.translateNonRecursive(comp)
	}
	return tr.translateRecursive(comp)
}

// translateNonRecursive emits, for every non-fact clause of every relation
// in comp, a RAM query nesting scans/filters terminating in a project
// (spec.md §4.4 "Non-recursive SCC").
func (tr *Translator) translateNonRecursive(comp []string) (ram.Statement, error) {
	var stmts []ram.Statement
	for _, relName := range sortedCopy(comp) {
		for _, c := range tr.prog.ClausesFor(relName) {
			if c.IsFact() {
				stmts = append(stmts, tr.projectFact(c))
				continue
			}
			q, err := tr.clauseQuery(c, relName, nil)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, q)
		}
		// A non-recursive eqrel still closes over its seeded pairs
		// (spec.md §4.1 merge-extend); the recursive template instead
		// closes the delta against the main relation each iteration.
		if rel := tr.prog.Relations[relName]; rel != nil && rel.Representation == ast.ReprEqrel {
			stmts = append(stmts, &ram.MergeExtend{Src: relName, Tgt: relName})
		}
	}
	if len(stmts) == 0 {
		return nil, nil
	}
	return &ram.Sequence{Stmts: stmts}, nil
}

// projectFact emits a single unconditional project for a fact clause
// (empty body). Under provenance, facts carry their rule number and
// height 0.
func (tr *Translator) projectFact(c *ast.Clause) ram.Statement {
	vals := make([]ram.Expression, len(c.Head.Args))
	for i, arg := range c.Head.Args {
		vals[i] = tr.argToExpr(arg, nil)
	}
	if tr.opts.Provenance {
		vals = append(vals, &ram.SignedConstant{Value: int64(tr.ruleNum[c])}, &ram.SignedConstant{Value: 0})
	}
	return &ram.Query{Root: &ram.Project{Relation: c.Head.Relation.String(), Values: vals}}
}

// clauseQuery builds the nested scan/filter/project operation tree for a
// clause and wraps it in a Query statement projecting into targetRel
// (which may differ from the clause's own head relation, e.g. when the
// seminaive template projects the same derivation into both R and delta_R
// or new_R). mode, if non-nil, selects the scanMode for each body atom
// (used by the recursive template); nil means every atom scans main.
func (tr *Translator) clauseQuery(c *ast.Clause, targetRel string, mode modeFunc) (ram.Statement, error) {
	varSlot := map[string]ram.Expression{}
	tid := new(int)
	terminal := &ram.Project{Relation: targetRel}

	// A subsumptive clause only projects tuples not already dominated by
	// an existing one; realized as a not-exists guard on the target
	// (SPEC_FULL.md §12).
	var guard *ram.ExistenceCheck
	var root ram.Operation
	var err error
	lits := orderedBody(c)
	if c.Subsumptive {
		guard = &ram.ExistenceCheck{Relation: targetRel, Ordering: 0}
		root, err = tr.bodyToOp(lits, 0, varSlot, tid, &ram.Filter{Cond: &ram.Negation{Inner: guard}, Nested: terminal}, mode)
	} else {
		root, err = tr.bodyToOp(lits, 0, varSlot, tid, terminal, mode)
	}
	if err != nil {
		return nil, err
	}
	// terminal.Values must be filled in using the bindings accumulated by
	// walking the body, which bodyToOp only finishes populating once it
	// reaches idx==len(lits), so the head expressions see the final,
	// fully-bound slot map.
	vals := headValues(c, varSlot, tr)
	if guard != nil {
		guard.Pattern = tr.padProvenance(append([]ram.Expression(nil), vals...))
	}
	terminal.Values = append(vals, tr.provValues(c)...)
	return &ram.Query{Root: root}, nil
}

func headValues(c *ast.Clause, varSlot map[string]ram.Expression, tr *Translator) []ram.Expression {
	vals := make([]ram.Expression, len(c.Head.Args))
	for i, arg := range c.Head.Args {
		vals[i] = tr.argToExpr(arg, varSlot)
	}
	return vals
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

// kindOf maps an ast.Type's base Kind to the domain.Kind the translator
// should use when building typed RAM expressions for it, defaulting to
// signed when ty is nil (no inferred type available -- a documented
// simplification: full type propagation into every constant/operator
// occurrence is done by the ast/transform polymorphic-resolution pass
// before translation ever runs; this default only covers nodes that pass
// left untyped, e.g. synthesized unnamed-variable placeholders).
func kindOf(ty *ast.Type) domain.Kind {
	if ty == nil {
		return domain.KindSigned
	}
	switch ty.Base().Kind {
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
