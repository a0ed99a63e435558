package rotation

import (
	"math"

	"github.com/soypat/ivpflow/field"
)

// Order identifies one of the twelve Cardan (distinct-axis) or Euler
// (repeated-outer-axis) angle orderings spec.md §3 supports.
type Order int

const (
	XYZ Order = iota
	XZY
	YXZ
	YZX
	ZXY
	ZYX
	XYX
	XZX
	YXY
	YZY
	ZXZ
	ZYZ
)

// axis indices: 0=X, 1=Y, 2=Z.
var orderAxes = map[Order][3]int{
	XYZ: {0, 1, 2}, XZY: {0, 2, 1},
	YXZ: {1, 0, 2}, YZX: {1, 2, 0},
	ZXY: {2, 0, 1}, ZYX: {2, 1, 0},
	XYX: {0, 1, 0}, XZX: {0, 2, 0},
	YXY: {1, 0, 1}, YZY: {1, 2, 1},
	ZXZ: {2, 0, 2}, ZYZ: {2, 1, 2},
}

// isCardan reports whether o uses three distinct axes (Cardan/Tait-Bryan)
// as opposed to a repeated outer axis (proper Euler).
func (o Order) isCardan() bool {
	ax := orderAxes[o]
	return ax[0] != ax[2]
}

// elementaryRotation returns the rotation by `angle` about the axis unit
// vector e_axis, built directly as a quaternion (no vec3 dependency, to
// keep FromCardanEuler usable with axis indices alone), with the same
// (cos(-angle/2), sin(-angle/2)*e_axis) sign convention as FromAxisAngle.
func elementaryRotation[F field.Element[F]](h field.Handle[F], axis int, angle F) Rotation[F] {
	half := angle.Mul(h.FromReal(-0.5))
	c, s := half.Cos(), half.Sin()
	q := Rotation[F]{Q0: c}
	switch axis {
	case 0:
		q.Q1 = s
	case 1:
		q.Q2 = s
	case 2:
		q.Q3 = s
	}
	if q.Q1.Real() == 0 {
		q.Q1 = h.Zero()
	}
	if q.Q2.Real() == 0 {
		q.Q2 = h.Zero()
	}
	if q.Q3.Real() == 0 {
		q.Q3 = h.Zero()
	}
	return q
}

// FromCardanEuler builds the rotation for ordering order applying, in turn,
// an angle1 rotation about the first axis, then angle2 about the (moving)
// second axis, then angle3 about the (moving) third axis — i.e. composed as
// R = R1 * R2 * R3 in the intrinsic (body-frame) convention spec.md §3 uses.
func FromCardanEuler[F field.Element[F]](h field.Handle[F], order Order, angle1, angle2, angle3 F) Rotation[F] {
	ax := orderAxes[order]
	r1 := elementaryRotation(h, ax[0], angle1)
	r2 := elementaryRotation(h, ax[1], angle2)
	r3 := elementaryRotation(h, ax[2], angle3)
	return r1.Compose(r2).Compose(r3)
}

// GetAngles extracts the three angles of the given ordering from r, mirroring
// FromCardanEuler's composition convention. Returns a
// *CardanEulerSingularityError when the middle angle sits at a gimbal-lock
// pole (cos(angle2) ~ 0 for Cardan orderings, sin(angle2) ~ 0 for Euler
// orderings).
func GetAngles[F field.Element[F]](h field.Handle[F], r Rotation[F], order Order) (a1, a2, a3 F, err error) {
	m := matrixFromQuaternion(h, r.Q0, r.Q1, r.Q2, r.Q3)
	ax := orderAxes[order]
	i, j, k := ax[0], ax[1], ax[2]

	if order.isCardan() {
		// Levi-Civita parity of (i, j, k): +1 for an even permutation of
		// (0,1,2), -1 for odd. Used to select the generic sign pattern so
		// all six Cardan orderings share one formula.
		sign := leviCivita(i, j, k)
		s2 := float64(sign) * m[i][k].Real()
		const eps = 1e-10
		if s2 > 1-eps || s2 < -1+eps {
			return a1, a2, a3, &CardanEulerSingularityError{IsCardan: true}
		}
		a2 = h.FromReal(math.Asin(clamp(s2)))
		a1 = h.FromReal(math.Atan2(-float64(sign)*m[j][k].Real(), m[k][k].Real()))
		a3 = h.FromReal(math.Atan2(-float64(sign)*m[i][j].Real(), m[i][i].Real()))
		return a1, a2, a3, nil
	}

	// Proper Euler: i == k, with the middle axis distinct. l is the
	// remaining axis completing the right-handed triad with (i, j).
	l := 3 - i - j
	sign := leviCivita(i, j, l)
	c2 := m[i][i].Real()
	const eps = 1e-10
	if c2 > 1-eps || c2 < -1+eps {
		return a1, a2, a3, &CardanEulerSingularityError{IsCardan: false}
	}
	a2 = h.FromReal(math.Acos(clamp(c2)))
	a1 = h.FromReal(math.Atan2(m[j][i].Real(), -float64(sign)*m[l][i].Real()))
	a3 = h.FromReal(math.Atan2(m[i][j].Real(), float64(sign)*m[i][l].Real()))
	return a1, a2, a3, nil
}

// leviCivita returns the sign of the permutation (i,j,k) of (0,1,2): +1 for
// even, -1 for odd, 0 if any index repeats.
func leviCivita(i, j, k int) int {
	if i == j || j == k || i == k {
		return 0
	}
	perm := [3]int{i, j, k}
	inversions := 0
	for a := 0; a < 3; a++ {
		for b := a + 1; b < 3; b++ {
			if perm[a] > perm[b] {
				inversions++
			}
		}
	}
	if inversions%2 == 0 {
		return 1
	}
	return -1
}

func clamp(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}
