package ivp

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind is the closed set of failure modes an integrate call can report.
type ErrorKind int

const (
	ErrDimensionMismatch ErrorKind = iota
	ErrZeroNorm
	ErrStepTooSmall
	ErrMaxCountExceeded
	ErrNoBracketing
	ErrCardanEulerSingularity
	ErrNotARotationMatrix
	ErrNumberIsTooSmall
)

func (k ErrorKind) String() string {
	switch k {
	case ErrDimensionMismatch:
		return "dimension mismatch"
	case ErrZeroNorm:
		return "zero norm"
	case ErrStepTooSmall:
		return "step too small"
	case ErrMaxCountExceeded:
		return "evaluation count exceeded"
	case ErrNoBracketing:
		return "no bracketing"
	case ErrCardanEulerSingularity:
		return "cardan/euler singularity"
	case ErrNotARotationMatrix:
		return "not a rotation matrix"
	case ErrNumberIsTooSmall:
		return "number is too small"
	default:
		return "unknown error"
	}
}

// Error is a typed ivp failure: Kind identifies the closed ErrorKind, the
// remaining fields are populated depending on Kind.
type Error struct {
	Kind ErrorKind

	Expected, Actual int     // ErrDimensionMismatch
	Requested, Min   float64 // ErrStepTooSmall
	Max              int     // ErrMaxCountExceeded
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrDimensionMismatch:
		return fmt.Sprintf("ivp: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
	case ErrStepTooSmall:
		return fmt.Sprintf("ivp: requested step %g below floor %g", e.Requested, e.Min)
	case ErrMaxCountExceeded:
		return fmt.Sprintf("ivp: evaluation count exceeded maximum of %d", e.Max)
	default:
		return fmt.Sprintf("ivp: %s", e.Kind)
	}
}

// Is reports whether target is an *Error with the same Kind, so
// errors.Is(err, &ivp.Error{Kind: k}) matches regardless of the populated
// detail fields. ErrorKind itself is not an error value.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

func newError(kind ErrorKind) *Error { return &Error{Kind: kind} }

func wrap(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}
