package adams

import (
	"math"

	"github.com/soypat/ivpflow/field"
	"github.com/soypat/ivpflow/ivp"
)

// Moulton is the implicit Adams-Moulton PECE driver (C9): shares Bashforth's
// prologue, but each step Predicts, Evaluates, Corrects, then Evaluates the
// corrector once more (PECE, not PEC) before committing, per §4.9.
type Moulton[F field.Element[F]] struct {
	Handle     field.Handle[F]
	Problem    *ivp.Problem[F]
	Controller *ivp.Controller[F]
	Logger     *ivp.Logger
	NSteps     int
	MaxEvals   int

	evals int
}

func (d *Moulton[F]) evalRHS(t F, y, dy []F) {
	d.Problem.Eval(t, y, dy, &d.evals)
}

func (d *Moulton[F]) prologue(t0 F, y0 []F) (stepStart F, y []F, scaled []F, R [][]float64, err error) {
	ts, ys, yDots, err := runStarter[F](d.Handle, d.Problem, d.Controller, t0, y0, d.NSteps)
	if err != nil {
		return t0, nil, nil, nil, err
	}
	n := d.Problem.Dim()
	last := len(ts) - 1
	stepStart = ts[last]
	y = ys[last]
	hNominal := ts[1].Sub(ts[0])
	scaled = make([]F, n)
	for i := range scaled {
		scaled[i] = yDots[last][i].Mul(hNominal)
	}
	R = InitializeHighOrderDerivatives(d.Handle, d.NSteps, ts, ys, yDots, n)
	return stepStart, y, scaled, R, nil
}

// Integrate runs the shared prologue then the PECE loop of §4.9 until tEnd.
func (d *Moulton[F]) Integrate(t0 F, y0 []F, tEnd F, handler ivp.StepHandler[F], events ivp.EventHandler[F]) (ivp.Result, error) {
	var result ivp.Result
	forward := tEnd.Real() >= t0.Real()
	n := d.Problem.Dim()

	stepStart, y, scaled, R, err := d.prologue(t0, y0)
	if err != nil {
		return result, err
	}
	tr := GetTransformer(d.NSteps)

	ip := ivp.NewStepInterpolator[F](n, forward)
	ip.Reinitialize(stepStart, y)
	h := d.Controller.InitialStep
	if h <= 0 {
		h = d.Controller.MinStep
	}
	if !forward {
		h = -h
	}

	tau := make([]float64, n)
	budget := ivp.EvalBudget{Max: d.MaxEvals}

	for {
		if forward && stepStart.Real() >= tEnd.Real() {
			break
		}
		if !forward && stepStart.Real() <= tEnd.Real() {
			break
		}
		hReal := h
		if forward && stepStart.Real()+hReal > tEnd.Real() {
			hReal = tEnd.Real() - stepStart.Real()
		} else if !forward && stepStart.Real()+hReal < tEnd.Real() {
			hReal = tEnd.Real() - stepStart.Real()
		}

		for {
			budget.Count = d.evals
			if err := budget.Check(); err != nil {
				return result, err
			}

			ip.Rescale(d.Handle.FromReal(hReal))
			tNew := stepStart.Add(d.Handle.FromReal(hReal))

			// 1. Predict.
			predicted := make([]F, n)
			ip.StoreTime(tNew)
			ip.Extra = newNordsieckDenseOutput(d.Handle, scaled, R)
			ip.InterpolatedState(tNew, predicted)

			// 2. Evaluate, form predictedScaled.
			dyPredicted := make([]F, n)
			d.evalRHS(tNew, predicted, dyPredicted)
			predictedScaled := make([]F, n)
			for i := range predictedScaled {
				predictedScaled[i] = dyPredicted[i].Mul(d.Handle.FromReal(hReal))
			}

			// 3. Phase-1/phase-2 Nordsieck update.
			rPrime := tr.UpdatePhase1(R, n)
			tr.UpdatePhase2(rPrime, realsOf(scaled), realsOf(predictedScaled), n)

			// 4. Correct: y_corrected[j] = y_prev[j] + predictedScaled[j] +
			// sum_i s_i * R'[i,j] with alternating signs s = [-1, +1, -1, ...]:
			// row 0 enters with -1 (see DESIGN.md's Open Question resolution).
			corrected := make([]F, n)
			for j := 0; j < n; j++ {
				acc := y[j].Add(predictedScaled[j])
				sign := -1.0
				for i := range rPrime {
					acc = acc.Add(d.Handle.FromReal(sign * rPrime[i][j]))
					sign = -sign
				}
				corrected[j] = acc
			}

			d.Controller.Tol.Envelope(tau, realsOf(y))
			var errAcc float64
			for j := 0; j < n; j++ {
				diff := corrected[j].Sub(predicted[j]).Real()
				errAcc += sq(diff / tau[j])
			}
			errAcc /= float64(n)
			eps := math.Sqrt(errAcc)

			if eps >= 1 {
				result.StepsRejected++
				shrink := d.Controller.ShrinkFactor(eps, d.NSteps+1)
				next, ferr := d.Controller.Filter(hReal*shrink, forward, false)
				if ferr != nil {
					return result, ferr
				}
				hReal = next
				continue
			}

			// 6. Second evaluation at the corrected state.
			dyCorrected := make([]F, n)
			d.evalRHS(tNew, corrected, dyCorrected)
			correctedScaled := make([]F, n)
			for i := range correctedScaled {
				correctedScaled[i] = dyCorrected[i].Mul(d.Handle.FromReal(hReal))
			}
			tr.UpdatePhase2(rPrime, realsOf(predictedScaled), realsOf(correctedScaled), n)

			result.StepsAccepted++
			ip.SetCurrentState(corrected)
			ip.Extra = newNordsieckDenseOutput(d.Handle, correctedScaled, rPrime)

			scaled = correctedScaled
			R = rPrime
			stepStart = tNew
			y = corrected

			isLast := (forward && tNew.Real() >= tEnd.Real()) || (!forward && tNew.Real() <= tEnd.Real())
			if handler != nil {
				handler.HandleStep(ip, isLast)
			}
			action := ivp.EventContinue
			if events != nil {
				action = events.HandleEvent(tNew, y)
			}
			switch action {
			case ivp.EventStop:
				result.Evaluations = d.evals
				return result, nil
			case ivp.EventResetState, ivp.EventResetDerivatives:
				var perr error
				stepStart, y, scaled, R, perr = d.prologue(stepStart, y)
				if perr != nil {
					return result, perr
				}
				ip.Reinitialize(stepStart, y)
			}

			h = d.Controller.NextStep(hReal, stepStart.Real(), tEnd.Real(), eps, d.NSteps+1, forward)
			ip.Shift()
			break
		}
	}

	result.Evaluations = d.evals
	return result, nil
}
