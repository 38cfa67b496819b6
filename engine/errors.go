package engine

import errors "gopkg.in/src-d/go-errors.v1"

// Sentinel error kinds raised by Engine (spec.md §7), following the
// teacher's auth-package ErrXxx = errors.NewKind(...) convention.
var (
	ErrUngroundedVariable = errors.NewKind("variable %q in clause %q is not grounded")
)
