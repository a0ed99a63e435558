package field

import "math"

// Real is the plain float64 instantiation of Element.
type Real float64

// RealHandle is the shared Handle for the Real field; all Real values are
// reflexively interchangeable, so a single package-level handle suffices.
var RealHandle = NewHandle(func(x float64) Real { return Real(x) })

func (r Real) Add(o Real) Real { return r + o }
func (r Real) Sub(o Real) Real { return r - o }
func (r Real) Mul(o Real) Real { return r * o }
func (r Real) Div(o Real) Real { return r / o }
func (r Real) Neg() Real       { return -r }

func (r Real) Recip() (Real, error) {
	if r == 0 {
		return 0, ErrZeroNorm
	}
	return 1 / r, nil
}

func (r Real) Abs() Real       { return Real(math.Abs(float64(r))) }
func (r Real) Sqrt() Real      { return Real(math.Sqrt(float64(r))) }
func (r Real) Sin() Real       { return Real(math.Sin(float64(r))) }
func (r Real) Cos() Real       { return Real(math.Cos(float64(r))) }
func (r Real) Tan() Real       { return Real(math.Tan(float64(r))) }
func (r Real) Asin() Real      { return Real(math.Asin(float64(r))) }
func (r Real) Acos() Real      { return Real(math.Acos(float64(r))) }
func (r Real) Atan() Real      { return Real(math.Atan(float64(r))) }
func (r Real) Atan2(o Real) Real { return Real(math.Atan2(float64(r), float64(o))) }
func (r Real) Exp() Real       { return Real(math.Exp(float64(r))) }
func (r Real) Log() Real       { return Real(math.Log(float64(r))) }
func (r Real) Pow(o Real) Real { return Real(math.Pow(float64(r), float64(o))) }
func (r Real) Real() float64   { return float64(r) }
