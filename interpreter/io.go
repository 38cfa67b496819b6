package interpreter

import "github.com/ramlog/ramlog/domain"

// IOSystem is the interpreter's view of the I/O subsystem (spec.md §4.7):
// package iosys implements this against its driver registry. Defined here
// rather than imported from iosys to keep interpreter free of a dependency
// on iosys's directive-manifest/driver-registration machinery -- it only
// ever needs to read and write rows.
type IOSystem interface {
	Read(relation string, directives map[string]string) ([][]domain.Value, error)
	Write(relation string, directives map[string]string, rows [][]domain.Value) error
	Printsize(relation string, directives map[string]string, count int) error
}

// UserFunctor is a registered implementation of a user-defined functor
// (spec.md §3.4 UserFunctor, §4.6 "calls out to a registered native
// implementation"). The FFI/DLL-loading pipeline the reference implements
// via libffi has no idiomatic Go analogue without cgo; a functor registry
// of plain Go funcs, populated by the embedding program or by
// `--libraries`-resolved Go plugins, takes its place.
type UserFunctor func(args []domain.Value) (domain.Value, error)
