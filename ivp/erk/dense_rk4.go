package erk

import (
	"github.com/soypat/ivpflow/field"
	"github.com/soypat/ivpflow/ivp"
)

// rk4DenseOutput implements the classical RK4 dense-output polynomial from
// spec.md §4.6.1: degree-2 weights on yDotK[0], yDotK[1]+yDotK[2], yDotK[3],
// switching reference endpoint at theta = 1/2 to limit cancellation.
type rk4DenseOutput[F field.Element[F]] struct {
	h     field.Handle[F]
	yDotK [][]F
}

func newRK4DenseOutput[F field.Element[F]](h field.Handle[F], yDotK [][]F, _ ivp.RHS[F]) ivp.DenseOutput[F] {
	return &rk4DenseOutput[F]{h: h, yDotK: yDotK}
}

func (d *rk4DenseOutput[F]) Finalize(ip *ivp.StepInterpolator[F]) {}

func (d *rk4DenseOutput[F]) InterpolatedState(ip *ivp.StepInterpolator[F], t F, yOut []F) {
	theta := ip.Theta(t)
	hStep := ip.StepSize().Real()
	dim := ip.Dim()
	k0, k1, k2, k3 := d.yDotK[0], d.yDotK[1], d.yDotK[2], d.yDotK[3]

	if theta <= 0.5 {
		c0 := theta * hStep / 6 * (6 - 9*theta + 4*theta*theta)
		c12 := theta * hStep / 6 * (6*theta - 4*theta*theta)
		c3 := theta * hStep / 6 * (-3*theta + 4*theta*theta)
		base := ip.PreviousState()
		for i := 0; i < dim; i++ {
			sum := k1[i].Add(k2[i]).Mul(d.h.FromReal(c12))
			sum = sum.Add(k0[i].Mul(d.h.FromReal(c0)))
			sum = sum.Add(k3[i].Mul(d.h.FromReal(c3)))
			yOut[i] = base[i].Add(sum)
		}
		return
	}
	eta := hStep * (1 - theta) / 6
	c0 := (-4*theta*theta + 5*theta - 1) * eta
	c12 := (4*theta*theta - 2*theta - 2) * eta
	c3 := (-4*theta*theta - theta - 1) * eta
	base := ip.CurrentState()
	for i := 0; i < dim; i++ {
		sum := k1[i].Add(k2[i]).Mul(d.h.FromReal(c12))
		sum = sum.Add(k0[i].Mul(d.h.FromReal(c0)))
		sum = sum.Add(k3[i].Mul(d.h.FromReal(c3)))
		yOut[i] = base[i].Add(sum)
	}
}

func (d *rk4DenseOutput[F]) InterpolatedDerivatives(ip *ivp.StepInterpolator[F], t F, dyOut []F) {
	theta := ip.Theta(t)
	dim := ip.Dim()
	k0, k1, k2, k3 := d.yDotK[0], d.yDotK[1], d.yDotK[2], d.yDotK[3]
	c0 := 1 - 2*theta
	c12 := 2 * theta * (1 - theta)
	c3 := -theta * (1 - 2*theta)
	for i := 0; i < dim; i++ {
		sum := k1[i].Add(k2[i]).Mul(d.h.FromReal(c12))
		sum = sum.Add(k0[i].Mul(d.h.FromReal(c0)))
		sum = sum.Add(k3[i].Mul(d.h.FromReal(c3)))
		dyOut[i] = sum
	}
}
