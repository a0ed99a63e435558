package rotation

import (
	"github.com/soypat/ivpflow/field"
)

// mat3 is a 3x3 matrix over field F, row-major.
type mat3[F field.Element[F]] [3][3]F

func (m mat3[F]) transpose() mat3[F] {
	var t mat3[F]
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[i][j] = m[j][i]
		}
	}
	return t
}

func (a mat3[F]) mul(h field.Handle[F], b mat3[F]) mat3[F] {
	var c mat3[F]
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			c[i][j] = field.Combine(h,
				[2]F{a[i][0], b[0][j]},
				[2]F{a[i][1], b[1][j]},
				[2]F{a[i][2], b[2][j]},
			)
		}
	}
	return c
}

func (a mat3[F]) sub(b mat3[F]) mat3[F] {
	var c mat3[F]
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			c[i][j] = a[i][j].Sub(b[i][j])
		}
	}
	return c
}

func (a mat3[F]) scale(c F) mat3[F] {
	var out mat3[F]
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = a[i][j].Mul(c)
		}
	}
	return out
}

func (a mat3[F]) frobeniusNormSquared() float64 {
	var sum float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v := a[i][j].Real()
			sum += v * v
		}
	}
	return sum
}

// topRowCofactorDeterminant computes det(m) by expanding cofactors along the
// top row of the matrix as it was supplied, before any orthogonalization.
// spec.md §9's open question flags that the sign check must use this
// particular expansion (not a post-orthogonalization minor) to match
// existing fixtures; this is a deliberate, preserved quirk, not an
// arbitrary choice.
func (m mat3[F]) topRowCofactorDeterminant() float64 {
	a, b, c := m[0][0].Real(), m[0][1].Real(), m[0][2].Real()
	d, e, f := m[1][0].Real(), m[1][1].Real(), m[1][2].Real()
	g, h, i := m[2][0].Real(), m[2][1].Real(), m[2][2].Real()
	return a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
}

// orthogonalize runs the iterative Björck-style correction
// X_{n+1} = X_n - 0.5*(X_n * M^T * X_n - M), stopping when the Frobenius
// norm squared of the correction term stabilizes within threshold, and
// failing after 10 iterations per spec.md §3/§4.6.4.
func orthogonalize[F field.Element[F]](h field.Handle[F], m mat3[F], threshold float64) (mat3[F], error) {
	half := h.FromReal(0.5)
	mt := m.transpose()
	x := m
	prevCorrSq := -1.0
	for iter := 1; iter <= 10; iter++ {
		corr := x.mul(h, mt).mul(h, x).sub(m)
		corrSq := corr.frobeniusNormSquared()
		x = x.sub(corr.scale(half))
		if prevCorrSq >= 0 {
			if abs(corrSq-prevCorrSq) <= threshold {
				return x, nil
			}
		}
		prevCorrSq = corrSq
	}
	return x, &NotARotationMatrixError{Reason: ReasonNoOrthogonalConvergence, Iterations: 10}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// quaternionFromOrthonormalMatrix extracts (q0,q1,q2,q3) from an orthonormal
// rotation matrix using Shepperd's method: pick whichever of the four trace
// combinations keeps the square root argument away from zero, which is
// exactly the |q_i| >= 1/2 invariant spec.md §4.2 states, with branch
// threshold s > -0.19.
func quaternionFromOrthonormalMatrix[F field.Element[F]](h field.Handle[F], m mat3[F]) (q0, q1, q2, q3 F) {
	m00, m01, m02 := m[0][0], m[0][1], m[0][2]
	m10, m11, m12 := m[1][0], m[1][1], m[1][2]
	m20, m21, m22 := m[2][0], m[2][1], m[2][2]

	s := m00.Real() + m11.Real() + m22.Real()
	if s > -0.19 {
		q0 = half(h, h.FromReal(s).Add(h.One()).Sqrt())
		inv := quarterOver(h, q0)
		q1 = inv.Mul(m12.Sub(m21))
		q2 = inv.Mul(m20.Sub(m02))
		q3 = inv.Mul(m01.Sub(m10))
		return
	}
	s = m00.Real() - m11.Real() - m22.Real()
	if s > -0.19 {
		q1 = half(h, h.FromReal(s).Add(h.One()).Sqrt())
		inv := quarterOver(h, q1)
		q0 = inv.Mul(m12.Sub(m21))
		q2 = inv.Mul(m01.Add(m10))
		q3 = inv.Mul(m02.Add(m20))
		return
	}
	s = m11.Real() - m00.Real() - m22.Real()
	if s > -0.19 {
		q2 = half(h, h.FromReal(s).Add(h.One()).Sqrt())
		inv := quarterOver(h, q2)
		q0 = inv.Mul(m20.Sub(m02))
		q1 = inv.Mul(m01.Add(m10))
		q3 = inv.Mul(m12.Add(m21))
		return
	}
	s = m22.Real() - m00.Real() - m11.Real()
	q3 = half(h, h.FromReal(s).Add(h.One()).Sqrt())
	inv := quarterOver(h, q3)
	q0 = inv.Mul(m01.Sub(m10))
	q1 = inv.Mul(m02.Add(m20))
	q2 = inv.Mul(m12.Add(m21))
	return
}

func half[F field.Element[F]](h field.Handle[F], x F) F {
	return x.Mul(h.FromReal(0.5))
}

func quarterOver[F field.Element[F]](h field.Handle[F], x F) F {
	return h.FromReal(0.25).Div(x)
}

// matrixFromQuaternion builds the rotation matrix equivalent to a unit
// quaternion (m*v equals ApplyTo(v)), used by Rotation.Matrix and by
// GetAngles.
func matrixFromQuaternion[F field.Element[F]](h field.Handle[F], q0, q1, q2, q3 F) mat3[F] {
	twoF := h.FromReal(2)

	q00 := q0.Mul(q0)
	q01 := q0.Mul(q1)
	q02 := q0.Mul(q2)
	q03 := q0.Mul(q3)
	q11 := q1.Mul(q1)
	q12 := q1.Mul(q2)
	q13 := q1.Mul(q3)
	q22 := q2.Mul(q2)
	q23 := q2.Mul(q3)
	q33 := q3.Mul(q3)

	var m mat3[F]
	m[0][0] = q00.Add(q11).Sub(q22).Sub(q33)
	m[0][1] = twoF.Mul(q12.Add(q03))
	m[0][2] = twoF.Mul(q13.Sub(q02))
	m[1][0] = twoF.Mul(q12.Sub(q03))
	m[1][1] = q00.Sub(q11).Add(q22).Sub(q33)
	m[1][2] = twoF.Mul(q23.Add(q01))
	m[2][0] = twoF.Mul(q13.Add(q02))
	m[2][1] = twoF.Mul(q23.Sub(q01))
	m[2][2] = q00.Sub(q11).Sub(q22).Add(q33)
	return m
}
