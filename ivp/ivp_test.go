package ivp

import (
	"math"
	"testing"

	"github.com/soypat/ivpflow/field"
)

func TestNewProblemRejectsOverlappingSecondary(t *testing.T) {
	f := func(t field.Real, y, dy []field.Real) { dy[0] = y[0] }
	sec := SecondaryEquations[field.Real]{Offset: 0, Length: 1, Evaluate: f}
	_, err := NewProblem[field.Real](1, f, sec)
	if err == nil {
		t.Fatal("expected overlap error")
	}
}

func TestNewProblemAcceptsDisjointSecondary(t *testing.T) {
	f := func(t field.Real, y, dy []field.Real) { dy[0] = -y[0] }
	sec := SecondaryEquations[field.Real]{Offset: 1, Length: 1, Evaluate: f}
	p, err := NewProblem[field.Real](1, f, sec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.TotalDim() != 2 {
		t.Fatalf("expected total dim 2, got %d", p.TotalDim())
	}
}

func TestEnvelopeScalar(t *testing.T) {
	tol := NewScalarTolerances(1e-6, 1e-3, 2)
	dst := make([]float64, 2)
	tol.Envelope(dst, []float64{10, -10})
	want := 1e-6 + 1e-3*10
	if math.Abs(dst[0]-want) > 1e-15 || math.Abs(dst[1]-want) > 1e-15 {
		t.Fatalf("unexpected envelope: %v", dst)
	}
}

func TestControllerFilterClamps(t *testing.T) {
	c := NewController[field.Real](NewScalarTolerances(1e-6, 1e-6, 1), 1e-3, 1.0)
	got, err := c.Filter(1e-6, true, true)
	if err != nil {
		t.Fatalf("acceptSmall=true must never error: %v", err)
	}
	if got != 1e-3 {
		t.Fatalf("expected raise to minStep 1e-3, got %v", got)
	}
	if _, err := c.Filter(1e-6, true, false); err == nil {
		t.Fatal("expected StepTooSmall error")
	}
	got, _ = c.Filter(10, true, true)
	if got != 1.0 {
		t.Fatalf("expected clamp to maxStep 1.0, got %v", got)
	}
	got, _ = c.Filter(0.5, false, true)
	if got != -0.5 {
		t.Fatalf("expected sign preserved for backward run, got %v", got)
	}
}

func TestControllerShrinkGrowBounds(t *testing.T) {
	c := NewController[field.Real](NewScalarTolerances(1e-6, 1e-6, 1), 1e-6, 1.0)
	shrink := c.ShrinkFactor(100, 4)
	if shrink < c.MinReduction || shrink > 1 {
		t.Fatalf("shrink factor out of range: %v", shrink)
	}
	grow := c.GrowFactor(1e-9, 4)
	if grow > c.MaxGrowth {
		t.Fatalf("grow factor exceeded cap: %v", grow)
	}
}

func TestEstimateInitialStepSane(t *testing.T) {
	c := NewController[field.Real](NewScalarTolerances(1e-8, 1e-8, 1), 1e-10, 10)
	eval := func(t field.Real, y, dy []field.Real) { dy[0] = -y[0] }
	h := c.EstimateInitialStep(field.RealHandle, true, 4, 0, []field.Real{1}, []field.Real{-1}, eval)
	if float64(h) <= 0 || float64(h) > 10 {
		t.Fatalf("unexpected initial step: %v", h)
	}
}

func TestEvalBudgetExceeds(t *testing.T) {
	b := EvalBudget{Max: 3}
	for i := 0; i < 3; i++ {
		b.Count++
		if err := b.Check(); err != nil {
			t.Fatalf("unexpected early failure at count %d: %v", i, err)
		}
	}
	b.Count++
	if err := b.Check(); err == nil {
		t.Fatal("expected MaxCountExceeded")
	}
}
