// Package engine wires the whole pipeline end to end, grounded directly on
// the teacher's root engine.go: a single Engine struct exposing
// Compile/Run, mirroring Engine.AnalyzeQuery / Engine.QueryWithBindings --
// parse (external) -> transform-to-fixpoint -> analyze -> translate ->
// generate interpreter -> execute, matching engine.go's parse -> bind ->
// analyze -> ExecBuilder.Build -> iterate pipeline stage for stage. See
// DESIGN.md.
package engine

import (
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/ramlog/ramlog/ast"
	"github.com/ramlog/ramlog/ast/analysis"
	"github.com/ramlog/ramlog/ast/transform"
	"github.com/ramlog/ramlog/ast2ram"
	"github.com/ramlog/ramlog/domain"
	"github.com/ramlog/ramlog/interpreter"
	"github.com/ramlog/ramlog/iosys"
	"github.com/ramlog/ramlog/ram"
	"github.com/ramlog/ramlog/record"
	"github.com/ramlog/ramlog/symbol"
)

// Config bundles the Engine's external collaborators, following the
// teacher's Config-struct-passed-to-New shape rather than functional
// options (see DESIGN.md's note on interpreter.Config).
type Config struct {
	FunctorDecls map[string]transform.FunctorDecl
	Functors     map[string]interpreter.UserFunctor
	IO           *iosys.System
	Logger       *logrus.Logger
	Jobs         int
	// Provenance enables the __rule/__height companion columns and the
	// per-clause explain subroutines (spec.md §6 --provenance,
	// SPEC_FULL.md §12).
	Provenance bool
}

// Engine compiles an ast.Program to a ram.Program and executes it,
// matching the teacher's Engine.Compile/Engine.Run split.
type Engine struct {
	cfg     *Config
	symbols *symbol.Table
	records *record.Table
	logger  *logrus.Logger
}

// New returns an Engine. A nil cfg uses defaults (no functors, a new
// logrus logger, single-threaded execution).
func New(cfg *Config) *Engine {
	if cfg == nil {
		cfg = &Config{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	e := &Engine{cfg: cfg, logger: logger.WithField("component", "engine").Logger}
	if cfg.IO != nil {
		e.symbols = cfg.IO.Symbols()
	}
	if e.symbols == nil {
		e.symbols = symbol.New()
	}
	e.records = record.New()
	return e
}

// Compile runs the transform pipeline to fixpoint, then translates the
// resulting AST to a RAM program (spec.md §4.2-§4.4). Semantic errors
// raised by the transform pipeline (missing functor declarations, arity
// mismatches) accumulate into a *multierror.Error and abort translation
// (spec.md §7 kind (b): "reported and fatal before translation").
func (e *Engine) Compile(p *ast.Program) (*ram.Program, error) {
	errs := transform.NewMultiError()
	ti := analysis.Infer(p)
	pipeline := transform.Default(ti.TypeOf, e.cfg.FunctorDecls, errs)

	e.logger.Debug("running transform pipeline to fixpoint")
	transformed, _ := pipeline(p)

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	if err := e.checkGrounding(transformed); err != nil {
		return nil, err
	}

	e.logger.Debug("translating to RAM")
	return ast2ram.TranslateWithOptions(transformed, ast2ram.Options{Provenance: e.cfg.Provenance})
}

// checkGrounding verifies the "grounding preservation" testable property
// (spec.md §8): every clause surviving to translation must have every head
// variable transitively grounded. It accumulates every offending clause
// before returning, per spec.md §7 kind (b).
func (e *Engine) checkGrounding(p *ast.Program) error {
	var errs *multierror.Error
	for _, c := range p.Clauses {
		if c.IsFact() {
			continue
		}
		for _, v := range analysis.UngroundedHeadVariables(c) {
			errs = multierror.Append(errs, ErrUngroundedVariable.New(v, c.Head.Relation.String()))
		}
	}
	return errs.ErrorOrNil()
}

// schemaOf derives an iosys.Schema from rel's declared attribute types, so
// the I/O subsystem can parse/format fact-file fields by kind (spec.md §6,
// §3.4 Attribute.TypeName).
func schemaOf(p *ast.Program, rel *ast.Relation) iosys.Schema {
	cols := make([]domain.Kind, len(rel.Attributes))
	for i, attr := range rel.Attributes {
		ty := p.Types[attr.TypeName.String()]
		cols[i] = kindOfType(ty)
	}
	return iosys.Schema{Arity: len(rel.Attributes), Columns: cols}
}

func kindOfType(ty *ast.Type) domain.Kind {
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

// Run compiles p, registers every relation's I/O schema and directives,
// builds the interpreter, and executes the translated program to
// completion (spec.md §4.5/§4.6). It returns the ready-to-query
// interpreter so callers can inspect output relations after Run returns.
func (e *Engine) Run(p *ast.Program) (*interpreter.Interpreter, error) {
	prog, err := e.Compile(p)
	if err != nil {
		return nil, err
	}
	in, uninstall, err := e.Execute(p, prog, nil)
	if uninstall != nil {
		uninstall()
	}
	return in, err
}

// Execute runs an already-compiled RAM program, optionally with profile
// metrics attached, and installs the fatal-signal handler for the run's
// duration (spec.md §5, §7 kind (f)). The returned function uninstalls
// the handler; it is non-nil even when execution fails.
func (e *Engine) Execute(p *ast.Program, prog *ram.Program, metrics *interpreter.Metrics) (*interpreter.Interpreter, func(), error) {
	var ioSystem interpreter.IOSystem
	if e.cfg.IO != nil {
		for name, rel := range p.Relations {
			e.cfg.IO.RegisterSchema(name, schemaOf(p, rel))
		}
		ioSystem = e.cfg.IO
	}

	in := interpreter.New(prog, &interpreter.Config{
		Symbols:  e.symbols,
		Records:  e.records,
		IO:       ioSystem,
		Functors: e.cfg.Functors,
		Logger:   e.logger,
		Metrics:  metrics,
		Jobs:     e.cfg.Jobs,
	})
	uninstall := in.InstallSignalHandler()
	if err := in.Run(); err != nil {
		return nil, uninstall, err
	}
	return in, uninstall, nil
}
