package adams

import (
	"github.com/soypat/ivpflow/field"
	"github.com/soypat/ivpflow/ivp"
)

// nordsieckDenseOutput implements ivp.DenseOutput over a Nordsieck vector:
// state evaluation at t = t_n + theta*h is the Taylor summation
// y_n + sum_{j>=1} theta^j * s_j(n); derivatives differentiate the same
// polynomial in theta, per spec.md §4.5's Adams-interpolator clause.
type nordsieckDenseOutput[F field.Element[F]] struct {
	h      field.Handle[F]
	scaled []F         // s1 = h*y', length n
	higher [][]float64 // s_{j+2}, (k-1) rows x n cols
}

func newNordsieckDenseOutput[F field.Element[F]](h field.Handle[F], scaled []F, higher [][]float64) ivp.DenseOutput[F] {
	return &nordsieckDenseOutput[F]{h: h, scaled: scaled, higher: higher}
}

func (d *nordsieckDenseOutput[F]) Finalize(ip *ivp.StepInterpolator[F]) {}

func (d *nordsieckDenseOutput[F]) InterpolatedState(ip *ivp.StepInterpolator[F], t F, yOut []F) {
	theta := ip.Theta(t)
	y0 := ip.PreviousState()
	n := len(y0)
	for c := 0; c < n; c++ {
		acc := d.scaled[c].Mul(d.h.FromReal(theta))
		pow := theta
		for _, row := range d.higher {
			pow *= theta
			acc = acc.Add(d.h.FromReal(pow * row[c]))
		}
		yOut[c] = y0[c].Add(acc)
	}
}

// InterpolatedDerivatives differentiates the same Taylor polynomial
// term-by-term in theta, then divides through by h to convert d/dtheta into
// d/dt: y'(t) = (scaled + sum_j (j+2)*theta^(j+1)*higher[j]) / h.
func (d *nordsieckDenseOutput[F]) InterpolatedDerivatives(ip *ivp.StepInterpolator[F], t F, dyOut []F) {
	theta := ip.Theta(t)
	hStep := ip.StepSize().Real()
	n := len(ip.PreviousState())
	for c := 0; c < n; c++ {
		acc := d.scaled[c].Real()
		pow := theta
		for j, row := range d.higher {
			order := float64(j + 2)
			acc += order * pow * row[c]
			pow *= theta
		}
		dyOut[c] = d.h.FromReal(acc / hStep)
	}
}
