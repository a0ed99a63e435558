package ivp

import (
	"math"

	"github.com/soypat/ivpflow/field"
)

// Controller implements the shared adaptive step-size policy (C4): an
// initial-step heuristic, a clamp-to-bounds filter, and the accept/reject
// growth-shrink rule every engine (ERK, Adams-Bashforth, Adams-Moulton)
// drives.
type Controller[F field.Element[F]] struct {
	MinStep, MaxStep             float64
	Safety, MinReduction, MaxGrowth float64
	Tol                          Tolerances

	// InitialStep, if positive and within [MinStep, MaxStep], is used
	// directly instead of running the heuristic.
	InitialStep float64
}

// NewController returns a Controller with the spec's defaults
// (safety=0.9, minReduction=0.2, maxGrowth=10.0).
func NewController[F field.Element[F]](tol Tolerances, minStep, maxStep float64) *Controller[F] {
	return &Controller[F]{
		MinStep: minStep, MaxStep: maxStep,
		Safety: 0.9, MinReduction: 0.2, MaxGrowth: 10.0,
		Tol: tol,
	}
}

// EstimateInitialStep runs the seven-step heuristic (C4.1) and returns a
// signed step size matching the forward flag. eval is the problem's f(t, y)
// -> dy, used for a single Euler probe step.
func (c *Controller[F]) EstimateInitialStep(h field.Handle[F], forward bool, order int, t0 F, y0, yPrime0 []F, eval func(t F, y, dy []F)) F {
	n := c.Tol.MainSetDimension()
	sigma := make([]float64, n)
	c.Tol.Envelope(sigma, realsOf(y0))

	if c.InitialStep > 0 && c.InitialStep >= c.MinStep && c.InitialStep <= c.MaxStep {
		step := c.InitialStep
		if !forward {
			step = -step
		}
		return h.FromReal(step)
	}

	var ratio1, ratio2 float64
	for i := 0; i < n; i++ {
		ratio1 += sq(y0[i].Real() / sigma[i])
		ratio2 += sq(yPrime0[i].Real() / sigma[i])
	}

	var hEst float64
	if ratio1 < 1e-10 || ratio2 < 1e-10 {
		hEst = 1e-6
	} else {
		hEst = 0.01 * math.Sqrt(ratio1/ratio2)
	}
	if !forward {
		hEst = -hEst
	}

	// Euler probe step.
	dim := len(y0)
	y1 := make([]F, dim)
	for i := range y1 {
		y1[i] = y0[i].Add(yPrime0[i].Mul(h.FromReal(hEst)))
	}
	yPrime1 := make([]F, dim)
	eval(t0.Add(h.FromReal(hEst)), y1, yPrime1)

	var secondDerivNorm float64
	for i := 0; i < n; i++ {
		secondDerivNorm += sq((yPrime1[i].Real() - yPrime0[i].Real()) / sigma[i])
	}
	secondDerivNorm = math.Sqrt(secondDerivNorm) / math.Abs(hEst)

	m := math.Max(math.Sqrt(ratio2), secondDerivNorm)
	var h1 float64
	if m < 1e-15 {
		h1 = 1e-6 * math.Abs(hEst)
	} else {
		h1 = math.Pow(0.01/m, 1.0/float64(order))
	}

	final := math.Min(100*math.Abs(hEst), h1)
	final = math.Max(final, 1e-12*math.Abs(t0.Real()))
	signed, _ := c.Filter(final, forward, true)
	return h.FromReal(signed)
}

// Filter clamps |h| into [MinStep, MaxStep], preserving sign (C4.2). When
// |h| < MinStep and acceptSmall is false, it fails with ErrStepTooSmall;
// when acceptSmall is true it silently raises to MinStep.
func (c *Controller[F]) Filter(h float64, forward bool, acceptSmall bool) (float64, error) {
	mag := math.Abs(h)
	if mag < c.MinStep {
		if !acceptSmall {
			err := &Error{Kind: ErrStepTooSmall, Requested: mag, Min: c.MinStep}
			return 0, wrap(err, "controller: step %g rejected below floor", mag)
		}
		mag = c.MinStep
	}
	if mag > c.MaxStep {
		mag = c.MaxStep
	}
	if !forward {
		mag = -mag
	}
	return mag, nil
}

// ShrinkFactor returns the step-size multiplier to apply after a rejected
// step with error ratio eps >= 1 (C4.3).
func (c *Controller[F]) ShrinkFactor(eps float64, order int) float64 {
	factor := c.Safety * math.Pow(eps, -1.0/float64(order))
	return math.Max(c.MinReduction, factor)
}

// GrowFactor returns the step-size multiplier proposed for the next step
// after an accepted step with error ratio eps < 1 (C4.3).
func (c *Controller[F]) GrowFactor(eps float64, order int) float64 {
	factor := c.Safety * math.Pow(eps, -1.0/float64(order))
	return math.Min(c.MaxGrowth, math.Max(c.MinReduction, factor))
}

// NextStep proposes the step size following an accepted step at stepStart
// with error ratio eps, shortening it when the result would cross the
// integration endpoint t.
func (c *Controller[F]) NextStep(h, stepStart, t, eps float64, order int, forward bool) float64 {
	proposed := h * c.GrowFactor(eps, order)
	clamped, _ := c.Filter(proposed, forward, true)
	if forward && stepStart+clamped >= t {
		return t - stepStart
	}
	if !forward && stepStart+clamped <= t {
		return t - stepStart
	}
	return clamped
}

func sq(x float64) float64 { return x * x }
