package transform

import (
	"github.com/hashicorp/go-multierror"
	"gopkg.in/src-d/go-errors.v1"
)

// Error kinds raised by transformation passes, following the teacher's
// auth-package convention of ErrXxx = errors.NewKind(...) sentinels
// (gopkg.in/src-d/go-errors.v1).
var (
	ErrUnknownFunctor = errors.NewKind("user-defined functor %q has no declaration")
	ErrFunctorArity   = errors.NewKind("user-defined functor %q expects %d arguments, got %d")
)

// MultiError accumulates independent semantic errors discovered while
// walking an entire program, so all of them can be reported together
// (spec.md §7 kind (b), SPEC_FULL.md §10.1) instead of failing on the
// first. It wraps github.com/hashicorp/go-multierror. A nil *MultiError is
// valid and silently discards appended errors, so passes that don't care
// about collecting errors can pass nil.
type MultiError struct {
	inner *multierror.Error
}

// NewMultiError returns an empty accumulator.
func NewMultiError() *MultiError { return &MultiError{} }

// Append records err, if non-nil.
func (m *MultiError) Append(err error) {
	if m == nil || err == nil {
		return
	}
	m.inner = multierror.Append(m.inner, err)
}

// ErrorOrNil returns the accumulated error, or nil if nothing was appended.
func (m *MultiError) ErrorOrNil() error {
	if m == nil {
		return nil
	}
	return m.inner.ErrorOrNil()
}
