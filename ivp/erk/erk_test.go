package erk

import (
	"math"
	"testing"

	"github.com/soypat/ivpflow/field"
	"github.com/soypat/ivpflow/ivp"
)

func integrate(t *testing.T, tab Tableau[field.Real], f ivp.RHS[field.Real], y0 []field.Real, tEnd float64, minStep, maxStep float64) ([]field.Real, ivp.Result) {
	t.Helper()
	prob, err := ivp.NewProblem[field.Real](len(y0), f)
	if err != nil {
		t.Fatalf("NewProblem: %v", err)
	}
	tol := ivp.NewScalarTolerances(1e-9, 1e-9, len(y0))
	ctrl := ivp.NewController[field.Real](tol, minStep, maxStep)
	e := &Engine[field.Real]{
		Handle:     field.RealHandle,
		Problem:    prob,
		Tableau:    tab,
		Controller: ctrl,
		MaxEvals:   1_000_000,
	}
	var final []field.Real
	handler := ivp.StepHandlerFunc[field.Real](func(ip *ivp.StepInterpolator[field.Real], isLast bool) {
		if isLast {
			final = append(final[:0], ip.CurrentState()...)
		}
	})
	res, err := e.Integrate(0, y0, field.Real(tEnd), handler, ivp.IdleEventHandler[field.Real]())
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	return final, res
}

// TestExponentialDecayDP853 integrates y' = -y, y(0) = 1 to t = 5 with DP853
// and checks the endpoint against e^-5 within 1e-8.
func TestExponentialDecayDP853(t *testing.T) {
	f := func(tt field.Real, y, dy []field.Real) { dy[0] = -y[0] }
	final, res := integrate(t, DormandPrince853[field.Real](), f, []field.Real{1}, 5, 1e-12, 1.0)
	if final == nil {
		t.Fatal("no final state recorded")
	}
	want := math.Exp(-5)
	if math.Abs(final[0].Real()-want) > 1e-8 {
		t.Fatalf("DP853 exponential decay mismatch: got %v want %v", final[0].Real(), want)
	}
	if res.StepsAccepted == 0 {
		t.Fatal("expected at least one accepted step")
	}
}

// TestHarmonicOscillatorHH54 is spec.md §8's scenario E2: y''+y=0 as a
// first-order system, energy should stay bounded under HighamHall54.
func TestHarmonicOscillatorHH54(t *testing.T) {
	f := func(tt field.Real, y, dy []field.Real) {
		dy[0] = y[1]
		dy[1] = -y[0]
	}
	final, _ := integrate(t, HighamHall54[field.Real](), f, []field.Real{1, 0}, 2 * math.Pi, 1e-8, 1.0)
	if final == nil {
		t.Fatal("no final state recorded")
	}
	energy := final[0].Real()*final[0].Real() + final[1].Real()*final[1].Real()
	if math.Abs(energy-1) > 1e-4 {
		t.Fatalf("energy drift too large: %v", energy)
	}
}

// TestRK4FixedStepLinear runs the RK4 tableau at a fixed step (minStep =
// maxStep = 1e-3) and checks its endpoint against the exact solution of
// y'=-y at t=1.
func TestRK4FixedStepLinear(t *testing.T) {
	f := func(tt field.Real, y, dy []field.Real) { dy[0] = -y[0] }
	final, _ := integrate(t, RK4[field.Real](), f, []field.Real{1}, 1, 1e-3, 1e-3)
	want := math.Exp(-1)
	if math.Abs(final[0].Real()-want) > 1e-4 {
		t.Fatalf("RK4 mismatch: got %v want %v", final[0].Real(), want)
	}
}

// TestDP853ConvergenceOrder checks that tightening the tolerance from 1e-6
// to 1e-10 reduces DP853's endpoint error for y'=-y at t=3.
func TestDP853ConvergenceOrder(t *testing.T) {
	f := func(tt field.Real, y, dy []field.Real) { dy[0] = -y[0] }

	run := func(tol float64) float64 {
		prob, err := ivp.NewProblem[field.Real](1, f)
		if err != nil {
			t.Fatalf("NewProblem: %v", err)
		}
		ctrl := ivp.NewController[field.Real](ivp.NewScalarTolerances(tol, tol, 1), 1e-14, 1.0)
		e := &Engine[field.Real]{
			Handle:     field.RealHandle,
			Problem:    prob,
			Tableau:    DormandPrince853[field.Real](),
			Controller: ctrl,
			MaxEvals:   1_000_000,
		}
		var final field.Real
		handler := ivp.StepHandlerFunc[field.Real](func(ip *ivp.StepInterpolator[field.Real], isLast bool) {
			if isLast {
				final = ip.CurrentState()[0]
			}
		})
		_, err = e.Integrate(0, []field.Real{1}, 3, handler, ivp.IdleEventHandler[field.Real]())
		if err != nil {
			t.Fatalf("Integrate: %v", err)
		}
		return math.Abs(final.Real() - math.Exp(-3))
	}

	errLoose := run(1e-6)
	errTight := run(1e-10)
	if errTight >= errLoose {
		t.Fatalf("tighter tolerance did not reduce error: loose=%v tight=%v", errLoose, errTight)
	}
}

// TestDenseOutputMatchesEndpoints checks that the installed DenseOutput
// reproduces both step endpoints exactly at theta=0 and theta=1.
func TestDenseOutputMatchesEndpoints(t *testing.T) {
	f := func(tt field.Real, y, dy []field.Real) { dy[0] = -y[0] }
	prob, err := ivp.NewProblem[field.Real](1, f)
	if err != nil {
		t.Fatalf("NewProblem: %v", err)
	}
	ctrl := ivp.NewController[field.Real](ivp.NewScalarTolerances(1e-9, 1e-9, 1), 1e-6, 1.0)
	e := &Engine[field.Real]{
		Handle:     field.RealHandle,
		Problem:    prob,
		Tableau:    DormandPrince853[field.Real](),
		Controller: ctrl,
		MaxEvals:   1_000_000,
	}
	var checked bool
	handler := ivp.StepHandlerFunc[field.Real](func(ip *ivp.StepInterpolator[field.Real], isLast bool) {
		if checked {
			return
		}
		checked = true
		out := make([]field.Real, 1)
		ip.InterpolatedState(ip.PreviousTime(), out)
		if math.Abs(out[0].Real()-ip.PreviousState()[0].Real()) > 1e-9 {
			t.Fatalf("theta=0 mismatch: got %v want %v", out[0].Real(), ip.PreviousState()[0].Real())
		}
		ip.InterpolatedState(ip.CurrentTime(), out)
		if math.Abs(out[0].Real()-ip.CurrentState()[0].Real()) > 1e-9 {
			t.Fatalf("theta=1 mismatch: got %v want %v", out[0].Real(), ip.CurrentState()[0].Real())
		}
	})
	_, err = e.Integrate(0, []field.Real{1}, 1, handler, ivp.IdleEventHandler[field.Real]())
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	if !checked {
		t.Fatal("handler never invoked")
	}
}

// TestDP853DenseOutputMidStep checks the DP853 dense-output polynomial away
// from both endpoints against the analytic solution of y'=-y, exercising the
// three extra stages Finalize evaluates through the problem's RHS.
func TestDP853DenseOutputMidStep(t *testing.T) {
	f := func(tt field.Real, y, dy []field.Real) { dy[0] = -y[0] }
	prob, err := ivp.NewProblem[field.Real](1, f)
	if err != nil {
		t.Fatalf("NewProblem: %v", err)
	}
	ctrl := ivp.NewController[field.Real](ivp.NewScalarTolerances(1e-10, 1e-10, 1), 1e-4, 1.0)
	e := &Engine[field.Real]{
		Handle:     field.RealHandle,
		Problem:    prob,
		Tableau:    DormandPrince853[field.Real](),
		Controller: ctrl,
		MaxEvals:   1_000_000,
	}
	var checked bool
	handler := ivp.StepHandlerFunc[field.Real](func(ip *ivp.StepInterpolator[field.Real], isLast bool) {
		if checked {
			return
		}
		checked = true
		tMid := ip.PreviousTime() + (ip.CurrentTime()-ip.PreviousTime())*0.37
		out := make([]field.Real, 1)
		ip.InterpolatedState(tMid, out)
		want := math.Exp(-tMid.Real())
		if math.Abs(out[0].Real()-want) > 1e-9 {
			t.Fatalf("DP853 mid-step dense output mismatch at t=%v: got %v want %v", tMid.Real(), out[0].Real(), want)
		}
	})
	_, err = e.Integrate(0, []field.Real{1}, 1, handler, ivp.IdleEventHandler[field.Real]())
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	if !checked {
		t.Fatal("handler never invoked")
	}
}
