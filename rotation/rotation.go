// Package rotation implements unit-quaternion rotations over an abstract
// field, per spec.md §3/§4.2/§4.6.4. It exists outside the ODE core's call
// graph: see SPEC_FULL.md §4 for why it ships regardless.
package rotation

import (
	"github.com/soypat/ivpflow/field"
	"github.com/soypat/ivpflow/vec3"
)

// Rotation is a unit quaternion (Q0, Q1, Q2, Q3), Q0^2+Q1^2+Q2^2+Q3^2 = 1.
// (Q0,Q1,Q2,Q3) and (-Q0,-Q1,-Q2,-Q3) represent the same rotation.
type Rotation[F field.Element[F]] struct {
	Q0, Q1, Q2, Q3 F
}

// FromQuaternion builds a Rotation from raw quaternion components.
// needsNormalization=false is a caller promise that the quaternion is
// already unit length; when true the constructor normalizes it.
func FromQuaternion[F field.Element[F]](h field.Handle[F], q0, q1, q2, q3 F, needsNormalization bool) Rotation[F] {
	if !needsNormalization {
		return Rotation[F]{q0, q1, q2, q3}
	}
	n2 := q0.Mul(q0).Add(q1.Mul(q1)).Add(q2.Mul(q2)).Add(q3.Mul(q3))
	inv, err := n2.Sqrt().Recip()
	if err != nil {
		// A zero quaternion has no orientation; fall back to identity
		// rather than propagate a NaN through the caller's pipeline.
		return Rotation[F]{h.One(), h.Zero(), h.Zero(), h.Zero()}
	}
	return Rotation[F]{q0.Mul(inv), q1.Mul(inv), q2.Mul(inv), q3.Mul(inv)}
}

// FromAxisAngle builds the rotation of `angle` radians about `axis`. The
// stored quaternion is (cos(-angle/2), (sin(-angle/2)/||axis||)*axis), so
// ApplyTo rotates a vector in a fixed frame per the right-hand rule.
func FromAxisAngle[F field.Element[F]](h field.Handle[F], axis vec3.V[F], angle F) (Rotation[F], error) {
	norm := axis.NormL2()
	if norm.Real() == 0 {
		return Rotation[F]{}, ErrZeroNorm
	}
	half := angle.Mul(h.FromReal(0.5))
	coeff := half.Neg().Sin().Div(norm)
	return Rotation[F]{
		Q0: half.Neg().Cos(),
		Q1: axis.X.Mul(coeff),
		Q2: axis.Y.Mul(coeff),
		Q3: axis.Z.Mul(coeff),
	}, nil
}

// FromTwoVectors builds the rotation of smallest angle taking u onto the
// direction of v. The degenerate antiparallel case (u.v below the
// 2e-15-scaled threshold) selects a pi-rotation about u.Orthogonal().
func FromTwoVectors[F field.Element[F]](h field.Handle[F], u, v vec3.V[F]) (Rotation[F], error) {
	normProduct := u.NormL2().Real() * v.NormL2().Real()
	if normProduct == 0 {
		return Rotation[F]{}, ErrZeroNorm
	}
	dot := u.Dot(v).Real()
	if dot < (2e-15-1)*normProduct {
		w := u.Orthogonal(h)
		return Rotation[F]{h.Zero(), w.X.Neg(), w.Y.Neg(), w.Z.Neg()}, nil
	}
	q0 := h.FromReal(0.5 * (1.0 + dot/normProduct)).Sqrt()
	coeff := h.FromReal(1.0).Div(q0.Mul(h.FromReal(2 * normProduct)))
	q := v.Cross(u)
	return Rotation[F]{q0, q.X.Mul(coeff), q.Y.Mul(coeff), q.Z.Mul(coeff)}, nil
}

// FromTwoPairs orthonormalizes (u1,u2) and (v1,v2) into right-handed frames
// and returns the rotation carrying the first frame onto the second.
func FromTwoPairs[F field.Element[F]](h field.Handle[F], u1, u2, v1, v2 vec3.V[F]) (Rotation[F], error) {
	u3n := u1.Cross(u2)
	if u3n.NormL2().Real() == 0 {
		return Rotation[F]{}, ErrZeroNorm
	}
	v3n := v1.Cross(v2)
	if v3n.NormL2().Real() == 0 {
		return Rotation[F]{}, ErrZeroNorm
	}
	u3 := unit(u3n)
	u2o := unit(u3.Cross(u1))
	u1o := unit(u1)

	v3 := unit(v3n)
	v2o := unit(v3.Cross(v1))
	v1o := unit(v1)

	// m = V * U^T, mapping the u-frame onto the v-frame, with each row of m
	// built via a compensated linear combination (spec.md §4.1's
	// linear_combination primitive) for accuracy.
	U := mat3[F]{
		{u1o.X, u2o.X, u3.X},
		{u1o.Y, u2o.Y, u3.Y},
		{u1o.Z, u2o.Z, u3.Z},
	}
	V := mat3[F]{
		{v1o.X, v2o.X, v3.X},
		{v1o.Y, v2o.Y, v3.Y},
		{v1o.Z, v2o.Z, v3.Z},
	}
	m := V.mul(h, U.transpose())
	q0, q1, q2, q3 := quaternionFromOrthonormalMatrix(h, m)
	return Rotation[F]{q0, q1, q2, q3}, nil
}

func unit[F field.Element[F]](v vec3.V[F]) vec3.V[F] {
	n := v.NormL2()
	inv, err := n.Recip()
	if err != nil {
		return v
	}
	return v.Scale(inv)
}

// FromMatrix builds a rotation from a (possibly not-quite-orthonormal) 3x3
// matrix, per spec.md §3/§4.6.4: the determinant sign is checked against the
// matrix as supplied (top-row cofactor expansion, before orthogonalization —
// a preserved quirk, see DESIGN.md), then the matrix is iteratively
// orthogonalized (Björck), then the quaternion is extracted.
func FromMatrix[F field.Element[F]](h field.Handle[F], m [3][3]F, threshold float64) (Rotation[F], error) {
	mm := mat3[F](m)
	if det := mm.topRowCofactorDeterminant(); det < 0 {
		err := &NotARotationMatrixError{Reason: ReasonNegativeDeterminant}
		return Rotation[F]{}, wrapf(err, "rotation: top-row cofactor determinant %g", det)
	}
	ortho, err := orthogonalize(h, mm, threshold)
	if err != nil {
		return Rotation[F]{}, wrapf(err, "rotation: orthogonalizing supplied matrix (threshold %g)", threshold)
	}
	q0, q1, q2, q3 := quaternionFromOrthonormalMatrix(h, ortho)
	return Rotation[F]{q0, q1, q2, q3}, nil
}

// Revert returns the inverse rotation (the conjugate quaternion).
func (r Rotation[F]) Revert() Rotation[F] {
	return Rotation[F]{r.Q0, r.Q1.Neg(), r.Q2.Neg(), r.Q3.Neg()}
}

// ApplyTo rotates vector u.
func (r Rotation[F]) ApplyTo(u vec3.V[F]) vec3.V[F] {
	s := r.Q1.Mul(u.X).Add(r.Q2.Mul(u.Y)).Add(r.Q3.Mul(u.Z))
	two := func(x F) F { return x.Add(x) }
	x := two(r.Q0.Mul(u.X.Mul(r.Q0).Sub(r.Q2.Mul(u.Z).Sub(r.Q3.Mul(u.Y)))).Add(s.Mul(r.Q1))).Sub(u.X)
	y := two(r.Q0.Mul(u.Y.Mul(r.Q0).Sub(r.Q3.Mul(u.X).Sub(r.Q1.Mul(u.Z)))).Add(s.Mul(r.Q2))).Sub(u.Y)
	z := two(r.Q0.Mul(u.Z.Mul(r.Q0).Sub(r.Q1.Mul(u.Y).Sub(r.Q2.Mul(u.X)))).Add(s.Mul(r.Q3))).Sub(u.Z)
	return vec3.V[F]{X: x, Y: y, Z: z}
}

// ApplyInverseTo rotates vector u by the inverse of r.
func (r Rotation[F]) ApplyInverseTo(u vec3.V[F]) vec3.V[F] {
	return r.Revert().ApplyTo(u)
}

// Compose returns the rotation equivalent to applying `other` first, then r.
func (r Rotation[F]) Compose(other Rotation[F]) Rotation[F] {
	return Rotation[F]{
		Q0: other.Q0.Mul(r.Q0).Sub(other.Q1.Mul(r.Q1).Add(other.Q2.Mul(r.Q2)).Add(other.Q3.Mul(r.Q3))),
		Q1: other.Q1.Mul(r.Q0).Add(other.Q0.Mul(r.Q1)).Add(other.Q2.Mul(r.Q3).Sub(other.Q3.Mul(r.Q2))),
		Q2: other.Q2.Mul(r.Q0).Add(other.Q0.Mul(r.Q2)).Add(other.Q3.Mul(r.Q1).Sub(other.Q1.Mul(r.Q3))),
		Q3: other.Q3.Mul(r.Q0).Add(other.Q0.Mul(r.Q3)).Add(other.Q1.Mul(r.Q2).Sub(other.Q2.Mul(r.Q1))),
	}
}

// ApplyInverseToRotation composes r^-1 with other (r.Revert().Compose(other)).
func (r Rotation[F]) ApplyInverseToRotation(other Rotation[F]) Rotation[F] {
	return r.Revert().Compose(other)
}

// canonical returns the same rotation with Q0 >= 0, the sign convention
// Axis/Angle/GetAngles canonicalize to.
func (r Rotation[F]) canonical() Rotation[F] {
	if r.Q0.Real() < 0 {
		return Rotation[F]{r.Q0.Neg(), r.Q1.Neg(), r.Q2.Neg(), r.Q3.Neg()}
	}
	return r
}

// Angle returns the rotation angle in [0, pi]. Uses the branch that
// maximizes accuracy near each trigonometric pole, per spec.md §4.2.
func (r Rotation[F]) Angle() F {
	c := r.canonical()
	if c.Q0.Real() > 0.1 {
		s := c.Q1.Mul(c.Q1).Add(c.Q2.Mul(c.Q2)).Add(c.Q3.Mul(c.Q3)).Sqrt()
		return s.Asin().Add(s.Asin())
	}
	return c.Q0.Acos().Add(c.Q0.Acos())
}

// Axis returns the (unit) rotation axis, canonicalized to Q0 >= 0.
func (r Rotation[F]) Axis(h field.Handle[F]) (vec3.V[F], error) {
	c := r.canonical()
	s := c.Q1.Mul(c.Q1).Add(c.Q2.Mul(c.Q2)).Add(c.Q3.Mul(c.Q3)).Sqrt()
	if s.Real() == 0 {
		return vec3.V[F]{}, ErrZeroNorm
	}
	inv, err := s.Recip()
	if err != nil {
		return vec3.V[F]{}, err
	}
	return vec3.V[F]{X: c.Q1.Mul(inv), Y: c.Q2.Mul(inv), Z: c.Q3.Mul(inv)}, nil
}

// Distance returns the angle of r1^-1 * r2, the standard rotation metric.
func Distance[F field.Element[F]](r1, r2 Rotation[F]) F {
	return r1.ApplyInverseToRotation(r2).Angle()
}

// Matrix returns the 3x3 rotation matrix equivalent to r.
func (r Rotation[F]) Matrix(h field.Handle[F]) [3][3]F {
	return [3][3]F(matrixFromQuaternion(h, r.Q0, r.Q1, r.Q2, r.Q3))
}
