// Package iosys implements the I/O subsystem of spec.md §4.7: a registry of
// named reader/writer factories, grounded on the teacher's
// sql/test_util/index_driver.go ID()-keyed driver-registry shape (and more
// generally the DatabaseProvider/IndexDriver registration pattern used
// throughout the teacher's own engine.go). See DESIGN.md.
package iosys

import (
	"sync"

	"github.com/pkg/errors"
	errkind "gopkg.in/src-d/go-errors.v1"

	"github.com/ramlog/ramlog/domain"
	"github.com/ramlog/ramlog/symbol"
)

// Sentinel error kinds (spec.md §7).
var (
	ErrUnknownIOType    = errkind.NewKind("iosys: unknown IO type %q")
	ErrNoSchema         = errkind.NewKind("iosys: no schema registered for relation %q")
	ErrMissingDirective = errkind.NewKind("iosys: directive %q is required for IO type %q")
)

// Schema describes a relation's column types for the purpose of parsing and
// formatting field text (spec.md §6: "Symbol fields are raw strings;
// numeric fields parse per their declared type").
type Schema struct {
	Arity   int
	Columns []domain.Kind
}

// Driver reads and writes the tuples of a single relation under one set of
// directives. One Driver instance backs one IO statement (spec.md §4.7,
// §6 "Directives map").
type Driver interface {
	Read(schema Schema, symbols *symbol.Table) ([][]domain.Value, error)
	Write(schema Schema, symbols *symbol.Table, rows [][]domain.Value) error
	Printsize(count int) error
}

// Factory constructs a Driver for one IO statement's directives, following
// the teacher's IndexDriver registration pattern: a factory keyed by a
// short type string, looked up at Read/Write time rather than up front.
type Factory func(directives map[string]string) (Driver, error)

// Registry maps IO-type strings ("file", "stdin", "stdout", "bolt", ...) to
// Factory constructors. Unknown IO types raise ErrUnknownIOType (spec.md
// §4.7: "unknown IO types raise an invalid-argument error").
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a Registry pre-populated with the built-in IO types:
// file, stdin, stdout, bolt.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register("file", newFileDriver)
	r.Register("stdin", newStdinDriver)
	r.Register("stdout", newStdoutDriver)
	r.Register("bolt", newBoltDriver)
	return r
}

// Register adds or replaces the factory for ioType. Factories are
// registered at startup (spec.md §4.7).
func (r *Registry) Register(ioType string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[ioType] = f
}

// New constructs a Driver for directives["IO"].
func (r *Registry) New(directives map[string]string) (Driver, error) {
	ioType := directives["IO"]
	r.mu.RLock()
	f, ok := r.factories[ioType]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownIOType.New(ioType)
	}
	d, err := f(directives)
	if err != nil {
		return nil, errors.Wrapf(err, "iosys: constructing %q driver", ioType)
	}
	return d, nil
}

// System is the interpreter's I/O subsystem: it implements
// interpreter.IOSystem by looking up each relation's registered Schema and
// dispatching to the Registry-constructed Driver named by the statement's
// own directives.
type System struct {
	mu       sync.RWMutex
	registry *Registry
	schemas  map[string]Schema
	symbols  *symbol.Table
}

// New returns an I/O subsystem backed by reg (or a fresh NewRegistry() if
// reg is nil) and symbols (or a fresh symbol.New() if symbols is nil). The
// symbol table is shared with the interpreter so interned symbol fields
// resolve to the same indices on both sides (spec.md §3.2 "stable for a
// program's lifetime").
func New(reg *Registry, symbols *symbol.Table) *System {
	if reg == nil {
		reg = NewRegistry()
	}
	if symbols == nil {
		symbols = symbol.New()
	}
	return &System{registry: reg, schemas: make(map[string]Schema), symbols: symbols}
}

// Registry returns the underlying driver registry, so callers can Register
// additional IO types before the first Read/Write.
func (s *System) Registry() *Registry { return s.registry }

// Symbols returns the shared symbol table backing this I/O subsystem's
// symbol-field parsing/formatting, so other collaborators (e.g. engine.New)
// can reuse the same interner rather than keeping a second one.
func (s *System) Symbols() *symbol.Table { return s.symbols }

// RegisterSchema records relation's column kinds, used to parse/format its
// fields. The engine calls this once per relation at compile time, derived
// from the relation's declared attribute types (spec.md §3.4).
func (s *System) RegisterSchema(relation string, schema Schema) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[relation] = schema
}

func (s *System) schemaFor(relation string) (Schema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.schemas[relation]
	if !ok {
		return Schema{}, ErrNoSchema.New(relation)
	}
	return sc, nil
}

// withRelation copies directives and injects the relation name under
// "__relation", so drivers that need a per-relation key but aren't handed
// the relation name directly by the Driver interface (e.g. the bolt
// driver's bucket name) can recover it without the whole registry/Driver
// surface needing to thread it through explicitly.
func withRelation(relation string, directives map[string]string) map[string]string {
	out := make(map[string]string, len(directives)+1)
	for k, v := range directives {
		out[k] = v
	}
	out["__relation"] = relation
	return out
}

// Read implements interpreter.IOSystem.
func (s *System) Read(relation string, directives map[string]string) ([][]domain.Value, error) {
	schema, err := s.schemaFor(relation)
	if err != nil {
		return nil, err
	}
	d, err := s.registry.New(withRelation(relation, directives))
	if err != nil {
		return nil, err
	}
	return d.Read(schema, s.symbols)
}

// Write implements interpreter.IOSystem.
func (s *System) Write(relation string, directives map[string]string, rows [][]domain.Value) error {
	schema, err := s.schemaFor(relation)
	if err != nil {
		return err
	}
	d, err := s.registry.New(withRelation(relation, directives))
	if err != nil {
		return err
	}
	// Rows from a provenance-enabled run carry trailing bookkeeping
	// columns past the declared schema; only the declared columns are
	// observable output.
	needTrim := false
	for _, row := range rows {
		if len(row) > schema.Arity {
			needTrim = true
			break
		}
	}
	if needTrim {
		// Trimming can expose duplicates that differed only in the
		// bookkeeping columns; collapse them so the output stays a set.
		seen := make(map[string]bool, len(rows))
		trimmed := make([][]domain.Value, 0, len(rows))
		for _, row := range rows {
			if len(row) > schema.Arity {
				row = row[:schema.Arity]
			}
			key := rowKey(row)
			if seen[key] {
				continue
			}
			seen[key] = true
			trimmed = append(trimmed, row)
		}
		rows = trimmed
	}
	return d.Write(schema, s.symbols, rows)
}

func rowKey(row []domain.Value) string {
	b := make([]byte, 0, len(row)*9)
	for _, v := range row {
		u := uint64(v)
		for i := 0; i < 8; i++ {
			b = append(b, byte(u>>(8*i)))
		}
		b = append(b, 0xff)
	}
	return string(b)
}

// Printsize implements interpreter.IOSystem.
func (s *System) Printsize(relation string, directives map[string]string, count int) error {
	d, err := s.registry.New(withRelation(relation, directives))
	if err != nil {
		return err
	}
	return d.Printsize(count)
}
