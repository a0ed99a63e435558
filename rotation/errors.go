package rotation

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/soypat/ivpflow/field"
)

// ErrZeroNorm is returned when a zero-length axis or vector is supplied
// where a non-zero one is required.
var ErrZeroNorm = field.ErrZeroNorm

// CardanEulerSingularityError reports that an angle extraction hit a
// singular (gimbal-lock) configuration.
type CardanEulerSingularityError struct {
	IsCardan bool
}

func (e *CardanEulerSingularityError) Error() string {
	kind := "Euler"
	if e.IsCardan {
		kind = "Cardan"
	}
	return fmt.Sprintf("rotation: %s angle extraction hit a singular configuration", kind)
}

// NotARotationMatrixReason is the closed set of reasons FromMatrix can fail.
type NotARotationMatrixReason int

const (
	ReasonDimension NotARotationMatrixReason = iota
	ReasonNegativeDeterminant
	ReasonNoOrthogonalConvergence
)

// NotARotationMatrixError reports why a 3x3 matrix could not be interpreted
// as a rotation.
type NotARotationMatrixError struct {
	Reason     NotARotationMatrixReason
	Iterations int // populated when Reason == ReasonNoOrthogonalConvergence
}

func (e *NotARotationMatrixError) Error() string {
	switch e.Reason {
	case ReasonDimension:
		return "rotation: matrix must be 3x3"
	case ReasonNegativeDeterminant:
		return "rotation: matrix has negative determinant"
	case ReasonNoOrthogonalConvergence:
		return fmt.Sprintf("rotation: orthogonalization did not converge after %d iterations", e.Iterations)
	default:
		return "rotation: not a rotation matrix"
	}
}

func wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}
