package field

import (
	"math"
	"testing"
)

func TestRealArithmetic(t *testing.T) {
	a, b := Real(3), Real(4)
	if got := a.Add(b); got != 7 {
		t.Errorf("Add: expected 7, got %v", got)
	}
	if got := a.Mul(b); got != 12 {
		t.Errorf("Mul: expected 12, got %v", got)
	}
	if _, err := Real(0).Recip(); err != ErrZeroNorm {
		t.Errorf("Recip(0): expected ErrZeroNorm, got %v", err)
	}
}

func TestDualChainRule(t *testing.T) {
	// d/dx sin(x^2) at x=2 is 2x*cos(x^2) = 4*cos(4)
	x := DualVar(2)
	y := x.Mul(x).Sin()
	want := 4 * math.Cos(4)
	if math.Abs(y.Deriv-want) > 1e-12 {
		t.Errorf("expected derivative %.12f, got %.12f", want, y.Deriv)
	}
	if math.Abs(y.Value-math.Sin(4)) > 1e-12 {
		t.Errorf("expected value %.12f, got %.12f", math.Sin(4), y.Value)
	}
}

func TestDualZeroNorm(t *testing.T) {
	_, err := Dual{}.Recip()
	if err != ErrZeroNorm {
		t.Errorf("expected ErrZeroNorm, got %v", err)
	}
}

func TestHandleIdentities(t *testing.T) {
	h := RealHandle
	if h.Zero() != 0 {
		t.Error("Zero() should be additive identity")
	}
	if h.One() != 1 {
		t.Error("One() should be multiplicative identity")
	}
	if h.FromReal(2.5) != Real(2.5) {
		t.Error("FromReal should round-trip")
	}
}

func TestCombineRealUsesCompensatedSum(t *testing.T) {
	got := Combine(RealHandle,
		[2]Real{1e16, 1}, [2]Real{1, 1}, [2]Real{-1e16, 1},
	)
	if math.Abs(float64(got)-1.0) > 1e-9 {
		t.Errorf("expected compensated sum 1, got %v", got)
	}
}

func TestCombineDualTracksDerivative(t *testing.T) {
	// sum(a_i*b_i) with a_0 the only dual variable: d/da_0 is just b_0.
	got := Combine(DualHandle,
		[2]Dual{DualVar(2), DualHandle.FromReal(3)},
		[2]Dual{DualHandle.FromReal(4), DualHandle.FromReal(5)},
	)
	if got.Value != 26 {
		t.Errorf("expected value 26, got %v", got.Value)
	}
	if got.Deriv != 3 {
		t.Errorf("expected derivative 3, got %v", got.Deriv)
	}
}

func TestLinearCombinationAccuracy(t *testing.T) {
	// A classic ill-conditioned dot product: naive summation in this order
	// loses the middle term entirely (1e16+1 rounds back to 1e16, then
	// cancels against -1e16), so only compensated summation recovers it.
	got := LinearCombination([2]float64{1e16, 1}, [2]float64{1, 1}, [2]float64{-1e16, 1})
	want := 1.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("expected compensated sum %v, got %v", want, got)
	}
}
