package adams

import (
	"github.com/soypat/ivpflow/field"
	"github.com/soypat/ivpflow/ivp"
	"github.com/soypat/ivpflow/ivp/erk"
)

// runStarter drives a fixed ERK tableau (Engine, not this package's driver)
// from (t0, y0) to accumulate k+1 history triples (t, y, y'), per §4.8/4.9's
// "call starter ERK to produce ... k history triples" prologue. It stops
// itself via an EventHandler that requests EventStop once enough points have
// been recorded, rather than needing a separate bounded-count integration
// API on Engine.
func runStarter[F field.Element[F]](h field.Handle[F], prob *ivp.Problem[F], ctrl *ivp.Controller[F], t0 F, y0 []F, k int) (ts []F, ys, yDots [][]F, err error) {
	tab := erk.DormandPrince853[F]()
	e := &erk.Engine[F]{
		Handle:     h,
		Problem:    prob,
		Tableau:    tab,
		Controller: ctrl,
		MaxEvals:   1_000_000,
	}

	n := prob.Dim()
	ts = append(ts, t0)
	y0Copy := append([]F(nil), y0...)
	ys = append(ys, y0Copy)
	dy0 := make([]F, n)
	evalsIgnored := 0
	prob.Eval(t0, y0, dy0, &evalsIgnored)
	yDots = append(yDots, dy0)

	handler := ivp.StepHandlerFunc[F](func(ip *ivp.StepInterpolator[F], isLast bool) {
		ts = append(ts, ip.CurrentTime())
		state := append([]F(nil), ip.CurrentState()...)
		ys = append(ys, state)
		dy := make([]F, n)
		prob.Eval(ip.CurrentTime(), state, dy, &evalsIgnored)
		yDots = append(yDots, dy)
	})

	events := ivp.EventHandlerFunc[F](func(t F, y []F) ivp.EventAction {
		if len(ts) > k {
			return ivp.EventStop
		}
		return ivp.EventContinue
	})

	// Integrate far enough that k steps are always reachable; the event
	// handler stops the run as soon as enough history points exist.
	farEnd := h.FromReal(t0.Real() + 1e6)
	if !(t0.Real() < farEnd.Real()) {
		farEnd = h.FromReal(t0.Real() - 1e6)
	}
	_, err = e.Integrate(t0, y0, farEnd, handler, events)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(ts) <= k {
		return nil, nil, nil, &ivp.Error{Kind: ivp.ErrNoBracketing}
	}
	return ts[:k+1], ys[:k+1], yDots[:k+1], nil
}
