package ivp

import (
	"math"

	"github.com/soypat/ivpflow/field"
	"gonum.org/v1/gonum/floats"
)

// Tolerances is either a scalar (absTol, relTol) pair applied to every
// component, or a per-component vector pair of length mainSetDimension.
// Exactly one representation is populated.
type Tolerances struct {
	scalarAbs, scalarRel float64
	vectorAbs, vectorRel []float64
	isVector             bool
	mainSetDimension     int
}

// NewScalarTolerances builds a uniform tolerance envelope applied to all
// mainSetDimension components.
func NewScalarTolerances(absTol, relTol float64, mainSetDimension int) Tolerances {
	return Tolerances{scalarAbs: absTol, scalarRel: relTol, mainSetDimension: mainSetDimension}
}

// NewVectorTolerances builds a per-component tolerance envelope; both slices
// must have length mainSetDimension.
func NewVectorTolerances(absTol, relTol []float64) Tolerances {
	return Tolerances{
		vectorAbs: absTol, vectorRel: relTol,
		isVector: true, mainSetDimension: len(absTol),
	}
}

// MainSetDimension is the primary-mapper dimension, used as the error-norm
// denominator even when secondary equations inflate the state.
func (t Tolerances) MainSetDimension() int { return t.mainSetDimension }

// Envelope fills dst[i] = absTol_i + relTol_i*|y_i| for i in
// [0, MainSetDimension), the scaling vector C4.1 calls σ.
func (t Tolerances) Envelope(dst []float64, y []float64) {
	n := t.mainSetDimension
	if t.isVector {
		for i := 0; i < n; i++ {
			dst[i] = t.vectorAbs[i] + t.vectorRel[i]*math.Abs(y[i])
		}
		return
	}
	for i := 0; i < n; i++ {
		dst[i] = t.scalarAbs + t.scalarRel*math.Abs(y[i])
	}
}

// weightedRMS computes sqrt((1/n) * sum_i (errs[i]/tau[i])^2) over the first
// n = mainSetDimension components, the shared error-norm shape C5/C6/C9 use.
// Built over a plain []float64, so a field.Real integration path can route
// the reduction through gonum/floats (DivTo then a manual sum-of-squares)
// exactly like the teacher's state/arithmetic.go wraps floats for its
// State-typed vector ops.
func weightedRMS(errs, tau []float64, n int) float64 {
	scratch := make([]float64, n)
	floats.DivTo(scratch, errs[:n], tau[:n])
	var sum float64
	for _, v := range scratch {
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}

// realsOf extracts the float64 projection of a field slice, used wherever a
// reduction needs plain floats (error envelopes, weighted norms).
func realsOf[F field.Element[F]](y []F) []float64 {
	out := make([]float64, len(y))
	for i, v := range y {
		out[i] = v.Real()
	}
	return out
}
