// Package vec3 implements the 3-D Euclidean vector type spec.md §3/§4 needs
// for the rotation package's contracts. It sits outside the ODE core's call
// graph (component C10 — "consumed by nothing in the ODE core"): no package
// under ivp/ imports vec3. It is implemented and tested anyway because
// spec.md fully specifies its operations and §8 dedicates testable
// properties to it.
package vec3

import (
	"math"

	"github.com/soypat/ivpflow/field"
)

// V is an immutable 3-D vector over field F.
type V[F field.Element[F]] struct {
	X, Y, Z F
}

// New builds a vector from three field elements.
func New[F field.Element[F]](x, y, z F) V[F] { return V[F]{x, y, z} }

// Dot computes the standard inner product.
func (v V[F]) Dot(o V[F]) F {
	return v.X.Mul(o.X).Add(v.Y.Mul(o.Y)).Add(v.Z.Mul(o.Z))
}

// Cross computes the right-handed cross product v x o.
func (v V[F]) Cross(o V[F]) V[F] {
	return V[F]{
		X: v.Y.Mul(o.Z).Sub(v.Z.Mul(o.Y)),
		Y: v.Z.Mul(o.X).Sub(v.X.Mul(o.Z)),
		Z: v.X.Mul(o.Y).Sub(v.Y.Mul(o.X)),
	}
}

// NormL2Squared returns the square of the Euclidean norm, avoiding the sqrt
// for callers (e.g. the rotation package) that only need a comparison.
func (v V[F]) NormL2Squared() F {
	return v.Dot(v)
}

// NormL2 returns the Euclidean norm.
func (v V[F]) NormL2() F {
	return v.NormL2Squared().Sqrt()
}

// NormL1 returns the L1 (taxicab) norm.
func (v V[F]) NormL1() F {
	return v.X.Abs().Add(v.Y.Abs()).Add(v.Z.Abs())
}

// NormLInf returns the L-infinity (Chebyshev) norm.
func (v V[F]) NormLInf() F {
	ax, ay, az := v.X.Abs().Real(), v.Y.Abs().Real(), v.Z.Abs().Real()
	m := math.Max(ax, math.Max(ay, az))
	switch m {
	case ax:
		return v.X.Abs()
	case ay:
		return v.Y.Abs()
	default:
		return v.Z.Abs()
	}
}

// Azimuth returns atan2(y, x).
func (v V[F]) Azimuth() F { return v.Y.Atan2(v.X) }

// Elevation returns asin(z / ||v||).
func (v V[F]) Elevation() F {
	n := v.NormL2()
	return v.Z.Div(n).Asin()
}

// Distance returns the Euclidean distance between v and o.
func (v V[F]) Distance(o V[F]) F {
	d := V[F]{v.X.Sub(o.X), v.Y.Sub(o.Y), v.Z.Sub(o.Z)}
	return d.NormL2()
}

// Scale multiplies every component by a scalar.
func (v V[F]) Scale(c F) V[F] {
	return V[F]{v.X.Mul(c), v.Y.Mul(c), v.Z.Mul(c)}
}

// Add returns the component-wise sum.
func (v V[F]) Add(o V[F]) V[F] {
	return V[F]{v.X.Add(o.X), v.Y.Add(o.Y), v.Z.Add(o.Z)}
}

// Sub returns the component-wise difference v - o.
func (v V[F]) Sub(o V[F]) V[F] {
	return V[F]{v.X.Sub(o.X), v.Y.Sub(o.Y), v.Z.Sub(o.Z)}
}

// Orthogonal picks an arbitrary but stable unit vector perpendicular to v,
// used by rotation.FromTwoVectors' degenerate antiparallel case. Chooses the
// coordinate axis least aligned with v to avoid near-parallel cross products.
func (v V[F]) Orthogonal(h field.Handle[F]) V[F] {
	ax, ay, az := v.X.Abs().Real(), v.Y.Abs().Real(), v.Z.Abs().Real()
	var axis V[F]
	switch {
	case ax <= ay && ax <= az:
		axis = V[F]{h.One(), h.Zero(), h.Zero()}
	case ay <= ax && ay <= az:
		axis = V[F]{h.Zero(), h.One(), h.Zero()}
	default:
		axis = V[F]{h.Zero(), h.Zero(), h.One()}
	}
	ortho := v.Cross(axis)
	n := ortho.NormL2()
	return ortho.Scale(mustRecip(n))
}

func mustRecip[F field.Element[F]](f F) F {
	r, err := f.Recip()
	if err != nil {
		panic(err)
	}
	return r
}
