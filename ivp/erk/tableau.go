// Package erk implements the embedded Runge-Kutta engine (C5) and its
// specific tableaus (C6): classical RK4, the midpoint method, Higham-Hall
// 5(4), and Dormand-Prince 8(5,3).
package erk

import (
	"github.com/soypat/ivpflow/field"
	"github.com/soypat/ivpflow/ivp"
)

// Tableau is the data-only description of one embedded Runge-Kutta method:
// c, a, b per the Butcher convention, stage count, order, and whether the
// method supports FSAL reuse. A generic Engine consumes any Tableau.
type Tableau[F field.Element[F]] struct {
	Name   string
	FSAL   bool
	Order  int
	Stages int

	// C holds c[1..Stages-1] (c[0] is implicitly 0).
	C []float64
	// A is lower-triangular: A[k-1][0..k-1] are the coefficients for stage
	// k in 1..Stages-1.
	A [][]float64
	// B are the propagation weights, length Stages.
	B []float64

	// EstimateError computes the method's error ratio epsilon given the
	// stage derivatives yDotK (length Stages, each length dim), the
	// accepted step size h, the old/new state, and the tolerance envelope
	// tau evaluated over the primary dimension n.
	EstimateError func(yDotK [][]F, h float64, yOld, yNew []F, tau []float64, n int) float64

	// NewDenseOutput builds the DenseOutput a freshly accepted step installs
	// on its interpolator, given that step's stage derivatives (owned by
	// the returned value — the engine does not mutate yDotK afterwards), a
	// field.Handle for lifting literal constants, and eval for any method
	// that needs to evaluate further RHS stages during Finalize (e.g.
	// DP853's three extra dense-output stages).
	NewDenseOutput func(h field.Handle[F], yDotK [][]F, eval ivp.RHS[F]) ivp.DenseOutput[F]
}
