package erk

import (
	"github.com/soypat/ivpflow/field"
	"github.com/soypat/ivpflow/ivp"
)

// hermiteDenseOutput is a cubic Hermite interpolant built from each
// endpoint's state and derivative. spec.md §4.6 gives an explicit
// dense-output polynomial for RK4 and DP853 but is silent on one for the
// midpoint method and Higham-Hall 5(4); this is the documented fallback
// (see DESIGN.md) using the first and last stage derivatives as the
// endpoint slopes, the standard choice for a method with no bespoke
// interpolant.
type hermiteDenseOutput[F field.Element[F]] struct {
	h      field.Handle[F]
	dyEnd  []F
	dyZero []F
}

func newHermiteDenseOutput[F field.Element[F]](h field.Handle[F], yDotK [][]F, _ ivp.RHS[F]) ivp.DenseOutput[F] {
	return &hermiteDenseOutput[F]{h: h, dyZero: yDotK[0], dyEnd: yDotK[len(yDotK)-1]}
}

func (d *hermiteDenseOutput[F]) Finalize(ip *ivp.StepInterpolator[F]) {}

func (d *hermiteDenseOutput[F]) InterpolatedState(ip *ivp.StepInterpolator[F], t F, yOut []F) {
	theta := ip.Theta(t)
	hStep := ip.StepSize().Real()
	dim := ip.Dim()
	y0, y1 := ip.PreviousState(), ip.CurrentState()

	th2 := theta * theta
	th3 := th2 * theta
	h00 := 2*th3 - 3*th2 + 1
	h10 := th3 - 2*th2 + theta
	h01 := -2*th3 + 3*th2
	h11 := th3 - th2

	for i := 0; i < dim; i++ {
		term := y0[i].Mul(d.h.FromReal(h00))
		term = term.Add(d.dyZero[i].Mul(d.h.FromReal(h10 * hStep)))
		term = term.Add(y1[i].Mul(d.h.FromReal(h01)))
		term = term.Add(d.dyEnd[i].Mul(d.h.FromReal(h11 * hStep)))
		yOut[i] = term
	}
}

func (d *hermiteDenseOutput[F]) InterpolatedDerivatives(ip *ivp.StepInterpolator[F], t F, dyOut []F) {
	theta := ip.Theta(t)
	hStep := ip.StepSize().Real()
	dim := ip.Dim()
	y0, y1 := ip.PreviousState(), ip.CurrentState()

	dh00 := 6*theta*theta - 6*theta
	dh10 := 3*theta*theta - 4*theta + 1
	dh01 := -6*theta*theta + 6*theta
	dh11 := 3*theta*theta - 2*theta

	for i := 0; i < dim; i++ {
		term := y0[i].Mul(d.h.FromReal(dh00 / hStep))
		term = term.Add(d.dyZero[i].Mul(d.h.FromReal(dh10)))
		term = term.Add(y1[i].Mul(d.h.FromReal(dh01 / hStep)))
		term = term.Add(d.dyEnd[i].Mul(d.h.FromReal(dh11)))
		dyOut[i] = term
	}
}
