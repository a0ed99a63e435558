package erk

import (
	"github.com/soypat/ivpflow/field"
	"github.com/soypat/ivpflow/ivp"
)

// Engine drives a Tableau over a Problem (C5): the stage loop, FSAL reuse,
// per-method error estimation, and hand-off to the shared step controller
// and step interpolator.
type Engine[F field.Element[F]] struct {
	Handle     field.Handle[F]
	Problem    *ivp.Problem[F]
	Tableau    Tableau[F]
	Controller *ivp.Controller[F]
	Logger     *ivp.Logger
	MaxEvals   int

	evals int
	// lastDotK0 carries the final stage derivative of the previous step
	// for FSAL reuse; nil before the first step or after a discontinuous
	// state reset.
	lastDotK0 []F
}

// Integrate runs the engine from (t0, y0) to tEnd, invoking handler on every
// accepted step and events on every accepted (t, y). forward is inferred
// from the sign of (tEnd - t0).
func (e *Engine[F]) Integrate(t0 F, y0 []F, tEnd F, handler ivp.StepHandler[F], events ivp.EventHandler[F]) (ivp.Result, error) {
	forward := tEnd.Real() >= t0.Real()
	dim := e.Problem.TotalDim()
	n := e.Problem.Dim()

	y := append([]F(nil), y0...)
	t := t0
	yPrime0 := make([]F, dim)
	e.evalRHS(t, y, yPrime0)

	h := e.Controller.EstimateInitialStep(e.Handle, forward, e.Tableau.Order, t, y, yPrime0, func(tt F, yy, dyy []F) {
		e.evalRHS(tt, yy, dyy)
	})

	ip := ivp.NewStepInterpolator[F](dim, forward)
	ip.Reinitialize(t, y)
	e.lastDotK0 = nil

	var result ivp.Result
	budget := ivp.EvalBudget{Max: e.MaxEvals}

	tau := make([]float64, n)

	for {
		if forward && t.Real() >= tEnd.Real() {
			break
		}
		if !forward && t.Real() <= tEnd.Real() {
			break
		}
		// Final-step truncation: don't overshoot the endpoint.
		hReal := h.Real()
		if forward && t.Real()+hReal > tEnd.Real() {
			hReal = tEnd.Real() - t.Real()
		} else if !forward && t.Real()+hReal < tEnd.Real() {
			hReal = tEnd.Real() - t.Real()
		}
		h = e.Handle.FromReal(hReal)

		yDotK := make([][]F, e.Tableau.Stages)
		for i := range yDotK {
			yDotK[i] = make([]F, dim)
		}

		for {
			budget.Count = e.evals
			if err := budget.Check(); err != nil {
				return result, err
			}
			// Stage 0: FSAL reuse or fresh evaluation.
			if e.Tableau.FSAL && e.lastDotK0 != nil {
				copy(yDotK[0], e.lastDotK0)
			} else {
				e.evalRHS(t, y, yDotK[0])
			}

			yTmp := make([]F, dim)
			for k := 1; k < e.Tableau.Stages; k++ {
				for i := 0; i < dim; i++ {
					var acc F = y[i]
					for l := 0; l < k; l++ {
						coeff := e.Tableau.A[k-1][l]
						if coeff == 0 {
							continue
						}
						acc = acc.Add(yDotK[l][i].Mul(h.Mul(e.Handle.FromReal(coeff))))
					}
					yTmp[i] = acc
				}
				ct := t.Add(h.Mul(e.Handle.FromReal(e.Tableau.C[k-1])))
				e.evalRHS(ct, yTmp, yDotK[k])
			}

			yNew := make([]F, dim)
			for i := 0; i < dim; i++ {
				var acc F = y[i]
				for l := 0; l < e.Tableau.Stages; l++ {
					if e.Tableau.B[l] == 0 {
						continue
					}
					acc = acc.Add(yDotK[l][i].Mul(h.Mul(e.Handle.FromReal(e.Tableau.B[l]))))
				}
				yNew[i] = acc
			}

			e.Controller.Tol.Envelope(tau, realsOf(y[:n]))
			eps := e.Tableau.EstimateError(yDotK, hReal, y, yNew, tau, n)

			if eps >= 1 {
				result.StepsRejected++
				shrink := e.Controller.ShrinkFactor(eps, e.Tableau.Order)
				next, err := e.Controller.Filter(hReal*shrink, forward, false)
				if err != nil {
					return result, err
				}
				hReal = next
				h = e.Handle.FromReal(hReal)
				if e.Logger != nil {
					e.Logger.Indentf("step rejected at t=%v eps=%v new h=%v", t.Real(), eps, hReal)
				}
				continue
			}

			// Accept.
			result.StepsAccepted++
			tNew := t.Add(h)
			ip.StoreTime(tNew)
			ip.SetCurrentState(yNew)
			ip.Extra = e.Tableau.NewDenseOutput(e.Handle, yDotK, e.evalRHS)

			if e.Tableau.FSAL {
				last := append([]F(nil), yDotK[e.Tableau.Stages-1]...)
				e.lastDotK0 = last
			}

			isLast := (forward && tNew.Real() >= tEnd.Real()) || (!forward && tNew.Real() <= tEnd.Real())
			if handler != nil {
				handler.HandleStep(ip, isLast)
			}

			action := ivp.EventContinue
			if events != nil {
				action = events.HandleEvent(tNew, yNew)
			}

			t = tNew
			y = yNew

			switch action {
			case ivp.EventStop:
				result.Evaluations = e.evals
				return result, nil
			case ivp.EventResetState, ivp.EventResetDerivatives:
				e.lastDotK0 = nil
			}

			nextH := e.Controller.NextStep(hReal, t.Real(), tEnd.Real(), eps, e.Tableau.Order, forward)
			h = e.Handle.FromReal(nextH)
			ip.Rescale(h)
			ip.Shift()
			break
		}
	}

	result.Evaluations = e.evals
	return result, nil
}

func (e *Engine[F]) evalRHS(t F, y, dy []F) {
	e.Problem.Eval(t, y, dy, &e.evals)
}

func realsOf[F field.Element[F]](y []F) []float64 {
	out := make([]float64, len(y))
	for i, v := range y {
		out[i] = v.Real()
	}
	return out
}
