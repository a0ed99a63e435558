// Package field abstracts over the scalar types an ODE right-hand side can
// carry: a plain 64-bit real, or a dual number tracking one derivative.
// Generic code elsewhere in this module is written against Element[F] so the
// compiler monomorphizes per concrete F instead of dispatching through an
// interface in the stage loop.
package field

import "fmt"

// Element is the required operation set for a scalar usable as a simulation
// state component. F is self-referential: a concrete type T implements
// Element[T].
type Element[F any] interface {
	Add(F) F
	Sub(F) F
	Mul(F) F
	Div(F) F
	Neg() F
	Recip() (F, error)
	Abs() F
	Sqrt() F
	Sin() F
	Cos() F
	Tan() F
	Asin() F
	Acos() F
	Atan() F
	Atan2(F) F
	Exp() F
	Log() F
	Pow(F) F

	// Real projects the element onto a float64, discarding any derivative
	// tracks. Used for norms, comparisons, and error-weight denominators.
	Real() float64
}

// Handle is a lightweight factory bound to one field instance, giving callers
// a from-real constructor and the field's additive/multiplicative identities
// without needing a package-level function per concrete F.
type Handle[F Element[F]] struct {
	fromReal func(float64) F
}

// NewHandle builds a Handle around the supplied from-real constructor.
func NewHandle[F Element[F]](fromReal func(float64) F) Handle[F] {
	return Handle[F]{fromReal: fromReal}
}

// FromReal lifts a plain float64 into the field, e.g. for a literal Butcher
// tableau constant.
func (h Handle[F]) FromReal(x float64) F { return h.fromReal(x) }

// Zero returns the field's additive identity.
func (h Handle[F]) Zero() F { return h.fromReal(0) }

// One returns the field's multiplicative identity.
func (h Handle[F]) One() F { return h.fromReal(1) }

// ErrZeroNorm is returned by Recip when asked to invert an exact real zero.
var ErrZeroNorm = fmt.Errorf("field: zero norm")

// Combine computes sum(a_i * b_i) over field elements, the Element-level
// linear_combination primitive spec.md §4.1 requires dot-product-like
// reductions (3x3 rotation matrix rows, Nordsieck row combinations) to use.
// When every pair is field.Real, the reduction routes through
// LinearCombination's double-double kernel; any other field (e.g. Dual, whose
// derivative track compensated summation can't touch) falls back to ordinary
// chained Add/Mul.
func Combine[F Element[F]](h Handle[F], pairs ...[2]F) F {
	raw := make([][2]float64, len(pairs))
	allReal := true
	for i, p := range pairs {
		a, aok := any(p[0]).(Real)
		b, bok := any(p[1]).(Real)
		if !aok || !bok {
			allReal = false
			break
		}
		raw[i] = [2]float64{float64(a), float64(b)}
	}
	if allReal {
		return h.FromReal(LinearCombination(raw...))
	}
	sum := h.Zero()
	for _, p := range pairs {
		sum = sum.Add(p[0].Mul(p[1]))
	}
	return sum
}

// LinearCombination computes sum(a_i * b_i) for plain float64 pairs with
// double-double (two-product + compensated sum) accuracy, the accuracy floor
// spec.md requires of dot-product-like reductions. Used directly wherever a
// caller already works in float64 (e.g. the Nordsieck transformer's row
// combinations), and as Combine's fast path for field.Real pairs.
func LinearCombination(pairs ...[2]float64) float64 {
	// Two-product: exactly split a*b into head+tail via Dekker's algorithm,
	// then Neumaier-compensated summation of the resulting 2n terms.
	var sum, comp float64
	for _, p := range pairs {
		a, b := p[0], p[1]
		prod, err := twoProduct(a, b)
		for _, term := range [2]float64{prod, err} {
			t := sum + term
			if abs(sum) >= abs(term) {
				comp += (sum - t) + term
			} else {
				comp += (term - t) + sum
			}
			sum = t
		}
	}
	return sum + comp
}

// twoProduct returns p = a*b exactly split into (p, e) such that a*b = p+e
// to machine precision, using Dekker's splitting.
func twoProduct(a, b float64) (p, e float64) {
	p = a * b
	ah, al := split(a)
	bh, bl := split(b)
	e = ((ah*bh - p) + ah*bl + al*bh) + al*bl
	return p, e
}

const splitter = 134217729 // 2^27 + 1

func split(a float64) (hi, lo float64) {
	c := splitter * a
	hi = c - (c - a)
	lo = a - hi
	return hi, lo
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
