package adams

import (
	"math"

	"github.com/soypat/ivpflow/field"
	"github.com/soypat/ivpflow/ivp"
)

// Bashforth is the explicit Adams-Bashforth driver (C8): a starter ERK
// supplies the first nSteps history points, converted once to a Nordsieck
// vector via InitializeHighOrderDerivatives; each subsequent
// step predicts the next state directly from the Nordsieck polynomial, with
// no corrector evaluation.
type Bashforth[F field.Element[F]] struct {
	Handle     field.Handle[F]
	Problem    *ivp.Problem[F]
	Controller *ivp.Controller[F]
	Logger     *ivp.Logger
	NSteps     int // k, Nordsieck order
	MaxEvals   int

	evals int
}

func (d *Bashforth[F]) evalRHS(t F, y, dy []F) {
	d.Problem.Eval(t, y, dy, &d.evals)
}

// Integrate runs the prologue (starter history -> Nordsieck) then the main
// predictor loop of §4.8 until tEnd.
func (d *Bashforth[F]) Integrate(t0 F, y0 []F, tEnd F, handler ivp.StepHandler[F], events ivp.EventHandler[F]) (ivp.Result, error) {
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
			lastRow := R[len(R)-1]
			d.Controller.Tol.Envelope(tau, realsOf(y))
			var errAcc float64
			for j := 0; j < n; j++ {
				errAcc += sq(lastRow[j] / tau[j])
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

			tNew := stepStart.Add(d.Handle.FromReal(hReal))
			predicted := make([]F, n)
			ip.StoreTime(tNew)
			ip.Extra = newNordsieckDenseOutput(d.Handle, scaled, R)
			ip.InterpolatedState(tNew, predicted)

			dyNew := make([]F, n)
			d.evalRHS(tNew, predicted, dyNew)
			predictedScaled := make([]F, n)
			for i := range predictedScaled {
				predictedScaled[i] = dyNew[i].Mul(d.Handle.FromReal(hReal))
			}

			rPrime := tr.UpdatePhase1(R, n)
			tr.UpdatePhase2(rPrime, realsOf(scaled), realsOf(predictedScaled), n)

			result.StepsAccepted++
			ip.SetCurrentState(predicted)
			ip.Extra = newNordsieckDenseOutput(d.Handle, predictedScaled, rPrime)

			scaled = predictedScaled
			R = rPrime
			stepStart = tNew
			y = predicted

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

// prologue runs the starter ERK from (t0, y0), builds the initial Nordsieck
// vector, and returns the step state the main loop resumes from.
func (d *Bashforth[F]) prologue(t0 F, y0 []F) (stepStart F, y []F, scaled []F, R [][]float64, err error) {
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

func sq(x float64) float64 { return x * x }

func realsOf[F field.Element[F]](y []F) []float64 {
	out := make([]float64, len(y))
	for i, v := range y {
		out[i] = v.Real()
	}
	return out
}
