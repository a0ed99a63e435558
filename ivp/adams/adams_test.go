package adams

import (
	"math"
	"testing"

	"github.com/soypat/ivpflow/field"
	"github.com/soypat/ivpflow/ivp"
)

// TestBashforthStiffDecay is spec.md §8's scenario E3: y'=-10y, y(0)=1,
// integrated to t=1 with Adams-Bashforth order 4 should match e^-10 within
// 1e-9 and reject fewer than 20 steps total.
func TestBashforthStiffDecay(t *testing.T) {
	f := func(tt field.Real, y, dy []field.Real) { dy[0] = -10 * y[0] }
	prob, err := ivp.NewProblem[field.Real](1, f)
	if err != nil {
		t.Fatalf("NewProblem: %v", err)
	}
	ctrl := ivp.NewController[field.Real](ivp.NewScalarTolerances(1e-6, 1e-6, 1), 1e-8, 0.1)
	drv := &Bashforth[field.Real]{
		Handle:     field.RealHandle,
		Problem:    prob,
		Controller: ctrl,
		NSteps:     4,
		MaxEvals:   1_000_000,
	}
	var final field.Real
	handler := ivp.StepHandlerFunc[field.Real](func(ip *ivp.StepInterpolator[field.Real], isLast bool) {
		if isLast {
			final = ip.CurrentState()[0]
		}
	})
	res, err := drv.Integrate(0, []field.Real{1}, 1, handler, ivp.IdleEventHandler[field.Real]())
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	want := math.Exp(-10)
	if math.Abs(final.Real()-want) > 1e-9 {
		t.Fatalf("Bashforth stiff decay mismatch: got %v want %v", final.Real(), want)
	}
	if res.StepsRejected >= 20 {
		t.Fatalf("too many rejected steps: %d", res.StepsRejected)
	}
}

// TestMoultonCosineIntegral is spec.md §8's scenario E4: y'=cos(t), y(0)=0,
// integrated to t=pi with nSteps=4 should match y(pi)=0.
func TestMoultonCosineIntegral(t *testing.T) {
	f := func(tt field.Real, y, dy []field.Real) { dy[0] = field.Real(math.Cos(float64(tt))) }
	prob, err := ivp.NewProblem[field.Real](1, f)
	if err != nil {
		t.Fatalf("NewProblem: %v", err)
	}
	ctrl := ivp.NewController[field.Real](ivp.NewScalarTolerances(1e-8, 1e-8, 1), 1e-8, 0.5)
	drv := &Moulton[field.Real]{
		Handle:     field.RealHandle,
		Problem:    prob,
		Controller: ctrl,
		NSteps:     4,
		MaxEvals:   1_000_000,
	}
	var final field.Real
	handler := ivp.StepHandlerFunc[field.Real](func(ip *ivp.StepInterpolator[field.Real], isLast bool) {
		if isLast {
			final = ip.CurrentState()[0]
		}
	})
	_, err = drv.Integrate(0, []field.Real{0}, field.Real(math.Pi), handler, ivp.IdleEventHandler[field.Real]())
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	if math.Abs(final.Real()) > 1e-2 {
		t.Fatalf("Moulton cosine integral mismatch: got %v want ~0", final.Real())
	}
}

// TestNordsieckTransformerCache checks that repeated lookups of the same
// order return the identical cached *Transformer.
func TestNordsieckTransformerCache(t *testing.T) {
	a := GetTransformer(4)
	b := GetTransformer(4)
	if a != b {
		t.Fatal("expected cached transformer identity for repeated order lookup")
	}
	if len(a.C1) != 3 || len(a.Update) != 3 {
		t.Fatalf("unexpected transformer shape for order 4: C1=%d Update=%d", len(a.C1), len(a.Update))
	}
}

// TestNordsieckReproducesPolynomial is spec.md §8 item 6's Nordsieck-fidelity
// property: for a quadratic y(t)=t^2, the higher-order block initialized
// from samples should reproduce y at the later sample time t=0.1 to near
// machine precision.
func TestNordsieckReproducesPolynomial(t *testing.T) {
	k := 3
	n := 1
	ts := []field.Real{0, 0.1, 0.2}
	ys := [][]field.Real{{0}, {0.01}, {0.04}}
	yDots := [][]field.Real{{0}, {0.2}, {0.4}}
	R := InitializeHighOrderDerivatives(field.RealHandle, k, ts, ys, yDots, n)
	hNominal := ts[1].Sub(ts[0])
	scaled := []field.Real{yDots[0][0].Mul(hNominal)}
	out := newNordsieckDenseOutput[field.Real](field.RealHandle, scaled, R)
	ip := ivp.NewStepInterpolator[field.Real](n, true)
	ip.Reinitialize(ts[0], ys[0])
	ip.StoreTime(ts[1]) // one history step, matching the scale InitializeHighOrderDerivatives used
	ip.Extra = out
	got := make([]field.Real, n)
	ip.InterpolatedState(ts[1], got)
	if math.Abs(got[0].Real()-ys[1][0].Real()) > 1e-12 {
		t.Fatalf("Nordsieck polynomial reproduction mismatch: got %v want %v", got[0].Real(), ys[1][0].Real())
	}
}
