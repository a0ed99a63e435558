package ivp

import "github.com/soypat/ivpflow/field"

// interpolatorState is the state machine §4.3 names: an interpolator starts
// Uninitialized, becomes Initialized on Reinitialize, TimeStored once the
// step's end time is known, and Finalized once a method's lazy extra-stage
// computation (FSAL fix-up, DP853's three extra stages) has run.
type interpolatorState int

const (
	Uninitialized interpolatorState = iota
	Initialized
	TimeStored
	Finalized
)

// DenseOutput is the per-method hook a tableau or Nordsieck driver installs
// on a StepInterpolator to answer interpolated_state/interpolated_derivatives
// queries. Finalize is invoked at most once per step, lazily, the first time
// either query is made.
type DenseOutput[F field.Element[F]] interface {
	Finalize(ip *StepInterpolator[F])
	InterpolatedState(ip *StepInterpolator[F], t F, yOut []F)
	InterpolatedDerivatives(ip *StepInterpolator[F], t F, dyOut []F)
}

// StepInterpolator is the continuous representation of the most recently
// accepted step: previous/current endpoints, per-method stage derivatives,
// and a pluggable DenseOutput doing the actual polynomial evaluation.
type StepInterpolator[F field.Element[F]] struct {
	state   interpolatorState
	forward bool
	dim     int

	previousTime, currentTime F
	stepSize                  F
	previousState             []F
	currentState              []F

	// Extra carries whatever per-method state (RK stage derivatives, or an
	// Adams Nordsieck block) the installed DenseOutput needs; the
	// interpolator itself only ever touches it through the interface.
	Extra DenseOutput[F]
}

// NewStepInterpolator allocates an interpolator for an n-dimensional problem
// integrated in the given direction.
func NewStepInterpolator[F field.Element[F]](dim int, forward bool) *StepInterpolator[F] {
	return &StepInterpolator[F]{dim: dim, forward: forward}
}

// Reinitialize starts a fresh step at (t0, y0), discarding any prior state,
// and transitions to Initialized.
func (ip *StepInterpolator[F]) Reinitialize(t0 F, y0 []F) {
	ip.previousTime = t0
	ip.currentTime = t0
	ip.previousState = append(ip.previousState[:0], y0...)
	ip.currentState = append(ip.currentState[:0], y0...)
	ip.state = Initialized
}

// StoreTime records the step's end time and transitions to TimeStored.
func (ip *StepInterpolator[F]) StoreTime(tEnd F) {
	ip.currentTime = tEnd
	ip.stepSize = tEnd.Sub(ip.previousTime)
	ip.state = TimeStored
}

// SetCurrentState records the accepted end-of-step state.
func (ip *StepInterpolator[F]) SetCurrentState(y []F) {
	ip.currentState = append(ip.currentState[:0], y...)
}

// Shift copies current endpoint into previous, preparing the interpolator
// for the next step. Does not touch Extra; the engine repopulates it for
// the new step.
func (ip *StepInterpolator[F]) Shift() {
	ip.previousTime = ip.currentTime
	ip.previousState = append(ip.previousState[:0], ip.currentState...)
	ip.state = Initialized
}

// Rescale updates the step-size reference used by dense-output polynomials
// without touching the stored endpoints — used when the controller grows or
// shrinks h between accepted steps.
func (ip *StepInterpolator[F]) Rescale(hNew F) {
	ip.stepSize = hNew
}

// PreviousTime, CurrentTime, StepSize, PreviousState, CurrentState expose the
// endpoint snapshot to DenseOutput implementations and StepHandlers.
func (ip *StepInterpolator[F]) PreviousTime() F   { return ip.previousTime }
func (ip *StepInterpolator[F]) CurrentTime() F    { return ip.currentTime }
func (ip *StepInterpolator[F]) StepSize() F       { return ip.stepSize }
func (ip *StepInterpolator[F]) PreviousState() []F { return ip.previousState }
func (ip *StepInterpolator[F]) CurrentState() []F  { return ip.currentState }
func (ip *StepInterpolator[F]) Dim() int           { return ip.dim }
func (ip *StepInterpolator[F]) Forward() bool      { return ip.forward }

// finalize idempotently invokes the installed DenseOutput's lazy finalize
// step and marks the interpolator Finalized.
func (ip *StepInterpolator[F]) finalize() {
	if ip.state == Finalized {
		return
	}
	if ip.Extra != nil {
		ip.Extra.Finalize(ip)
	}
	ip.state = Finalized
}

// InterpolatedState writes y(t) for t in [previousTime, currentTime] (or the
// symmetric range for a backward run) into yOut, triggering finalize on
// first use.
func (ip *StepInterpolator[F]) InterpolatedState(t F, yOut []F) {
	ip.finalize()
	ip.Extra.InterpolatedState(ip, t, yOut)
}

// InterpolatedDerivatives writes y'(t) into dyOut, triggering finalize on
// first use.
func (ip *StepInterpolator[F]) InterpolatedDerivatives(t F, dyOut []F) {
	ip.finalize()
	ip.Extra.InterpolatedDerivatives(ip, t, dyOut)
}

// Theta returns (t - previousTime) / stepSize, the normalized in-step
// coordinate every dense-output polynomial is written in terms of.
func (ip *StepInterpolator[F]) Theta(t F) float64 {
	return t.Sub(ip.previousTime).Real() / ip.stepSize.Real()
}
