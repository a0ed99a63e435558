package field

import "math"

// Dual is a forward-mode dual number (value, derivative), the scalar-or-dual
// element type spec.md §1 calls out as a design affordance without requiring
// full automatic differentiation of user fields. A Problem built over Dual
// propagates one derivative track alongside the solution, letting a caller
// recover dy/dp for one scalar parameter p by seeding the initial condition's
// derivative component.
type Dual struct {
	Value float64
	Deriv float64
}

// DualHandle is the shared Handle for the Dual field.
var DualHandle = NewHandle(func(x float64) Dual { return Dual{Value: x} })

// DualVar seeds a Dual as an independent variable (derivative 1).
func DualVar(x float64) Dual { return Dual{Value: x, Deriv: 1} }

func (d Dual) Add(o Dual) Dual { return Dual{d.Value + o.Value, d.Deriv + o.Deriv} }
func (d Dual) Sub(o Dual) Dual { return Dual{d.Value - o.Value, d.Deriv - o.Deriv} }
func (d Dual) Mul(o Dual) Dual {
	return Dual{d.Value * o.Value, d.Deriv*o.Value + d.Value*o.Deriv}
}
func (d Dual) Div(o Dual) Dual {
	return Dual{d.Value / o.Value, (d.Deriv*o.Value - d.Value*o.Deriv) / (o.Value * o.Value)}
}
func (d Dual) Neg() Dual { return Dual{-d.Value, -d.Deriv} }

func (d Dual) Recip() (Dual, error) {
	if d.Value == 0 {
		return Dual{}, ErrZeroNorm
	}
	return Dual{1 / d.Value, -d.Deriv / (d.Value * d.Value)}, nil
}

func (d Dual) Abs() Dual {
	if d.Value < 0 {
		return Dual{-d.Value, -d.Deriv}
	}
	return Dual{d.Value, d.Deriv}
}

func (d Dual) Sqrt() Dual {
	s := math.Sqrt(d.Value)
	return Dual{s, d.Deriv / (2 * s)}
}

func (d Dual) Sin() Dual { return Dual{math.Sin(d.Value), d.Deriv * math.Cos(d.Value)} }
func (d Dual) Cos() Dual { return Dual{math.Cos(d.Value), -d.Deriv * math.Sin(d.Value)} }
func (d Dual) Tan() Dual {
	t := math.Tan(d.Value)
	return Dual{t, d.Deriv * (1 + t*t)}
}
func (d Dual) Asin() Dual {
	return Dual{math.Asin(d.Value), d.Deriv / math.Sqrt(1-d.Value*d.Value)}
}
func (d Dual) Acos() Dual {
	return Dual{math.Acos(d.Value), -d.Deriv / math.Sqrt(1-d.Value*d.Value)}
}
func (d Dual) Atan() Dual {
	return Dual{math.Atan(d.Value), d.Deriv / (1 + d.Value*d.Value)}
}
func (d Dual) Atan2(o Dual) Dual {
	denom := d.Value*d.Value + o.Value*o.Value
	return Dual{math.Atan2(d.Value, o.Value), (d.Deriv*o.Value - o.Deriv*d.Value) / denom}
}
func (d Dual) Exp() Dual {
	e := math.Exp(d.Value)
	return Dual{e, d.Deriv * e}
}
func (d Dual) Log() Dual { return Dual{math.Log(d.Value), d.Deriv / d.Value} }

func (d Dual) Pow(o Dual) Dual {
	p := math.Pow(d.Value, o.Value)
	if d.Value <= 0 {
		// derivative of x^y through log(x) is undefined for x<=0; fall back
		// to the power rule term only, valid when the exponent is constant.
		return Dual{p, o.Value * math.Pow(d.Value, o.Value-1) * d.Deriv}
	}
	deriv := p * (o.Deriv*math.Log(d.Value) + o.Value*d.Deriv/d.Value)
	return Dual{p, deriv}
}

func (d Dual) Real() float64 { return d.Value }
