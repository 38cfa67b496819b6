package interpreter

import errors "gopkg.in/src-d/go-errors.v1"

// Sentinel error kinds, following the teacher's auth/sql convention of
// declaring one errors.Kind per distinguishable failure (spec.md §7).
var (
	ErrUnknownSubroutine = errors.NewKind("interpreter: unknown subroutine %q")
	ErrUnknownRelation   = errors.NewKind("interpreter: unknown relation %q")
	ErrUnknownFunctor    = errors.NewKind("interpreter: no user functor registered for %q")
	ErrRecoveredPanic    = errors.NewKind("interpreter: recovered panic: %v")
	ErrIOWriteFailed     = errors.NewKind("interpreter: io write failed for relation %q: %v")
)
