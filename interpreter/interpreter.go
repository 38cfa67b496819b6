// Package interpreter implements the node-tree generator and tree-walking
// interpreter of spec.md §4.5/§4.6: it resolves every ram.Program relation
// into a live relation.Relation, then walks the Statement/Operation tree
// directly rather than compiling it further, dispatching on Go type
// switches the way the teacher's sql/rowexec builds one RowIter per plan
// node and walks it (see DESIGN.md).
package interpreter

import (
	"sync"
	"sync/atomic"

	"github.com/opentracing/opentracing-go"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"

	"github.com/ramlog/ramlog/ast"
	"github.com/ramlog/ramlog/domain"
	"github.com/ramlog/ramlog/ram"
	"github.com/ramlog/ramlog/record"
	"github.com/ramlog/ramlog/relation"
	"github.com/ramlog/ramlog/symbol"
)

// Config bundles the Interpreter's external collaborators, following the
// teacher's `engine.Config` shape (a plain options struct passed to New,
// not a functional-options chain).
type Config struct {
	Symbols  *symbol.Table
	Records  *record.Table
	IO       IOSystem
	Functors map[string]UserFunctor
	Logger   *logrus.Logger
	Tracer   opentracing.Tracer
	Metrics  *Metrics
	Jobs     int
}

// Interpreter executes a translated ram.Program against a live set of
// relations.
type Interpreter struct {
	prog      *ram.Program
	relations map[string]*relation.Relation
	symbols   *symbol.Table
	records   *record.Table
	regex     *domain.RegexCache
	functors  map[string]UserFunctor
	io        IOSystem
	logger    *logrus.Logger
	tracer    opentracing.Tracer
	metrics   *Metrics
	runID     uuid.UUID
	jobs      int

	autoincr  int64
	iteration int64
	debugMu   sync.RWMutex
	debugMsg  string
}

// New resolves every relation named in prog (spec.md §4.5 "generator...with
// resolved relation handles") and returns an Interpreter ready to Run.
func New(prog *ram.Program, cfg *Config) *Interpreter {
	if cfg == nil {
		cfg = &Config{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = opentracing.NoopTracer{}
	}
	jobs := cfg.Jobs
	if jobs <= 0 {
		jobs = 1
	}

	in := &Interpreter{
		prog:      prog,
		relations: make(map[string]*relation.Relation, len(prog.Relations)),
		symbols:   cfg.Symbols,
		records:   cfg.Records,
		regex:     domain.NewRegexCache(),
		functors:  cfg.Functors,
		io:        cfg.IO,
		logger:    logger.WithField("component", "interpreter").Logger,
		tracer:    tracer,
		metrics:   cfg.Metrics,
		runID:     uuid.NewV4(),
		jobs:      jobs,
	}
	if in.symbols == nil {
		in.symbols = symbol.New()
	}
	if in.records == nil {
		in.records = record.New()
	}
	for name, def := range prog.Relations {
		if ast.Representation(def.Representation) == ast.ReprEqrel {
			in.relations[name] = relation.NewEqrel()
		} else {
			in.relations[name] = relation.New(def.Arity)
		}
	}
	return in
}

// Relation returns the live relation backing name, for callers (engine, IO)
// that need to read results after Run returns.
func (in *Interpreter) Relation(name string) (*relation.Relation, bool) {
	r, ok := in.relations[name]
	return r, ok
}

// mustRelation looks up a relation known by construction to exist (every
// name appearing in a translated ram.Program was registered via its
// RelationDef); a miss is a translator bug, not a runtime condition to
// recover from.
func (in *Interpreter) mustRelation(name string) *relation.Relation {
	r, ok := in.relations[name]
	if !ok {
		panic(ErrUnknownRelation.New(name))
	}
	return r
}

// Metrics returns the interpreter's Prometheus registry accessor.
func (in *Interpreter) Metrics() *Metrics { return in.metrics }

func (in *Interpreter) nextAutoIncrement() int64 {
	return atomic.AddInt64(&in.autoincr, 1)
}

func (in *Interpreter) currentIteration() int64 {
	return atomic.LoadInt64(&in.iteration)
}

func (in *Interpreter) setIteration(n int64) {
	atomic.StoreInt64(&in.iteration, n)
}

func (in *Interpreter) setDebugMessage(msg string) {
	in.debugMu.Lock()
	in.debugMsg = msg
	in.debugMu.Unlock()
}

// DebugMessage returns the currently active debug-info message (spec.md §5,
// §7 kind (f)); read by the signal handler on SIGINT/SIGTERM.
func (in *Interpreter) DebugMessage() string {
	in.debugMu.RLock()
	defer in.debugMu.RUnlock()
	return in.debugMsg
}
