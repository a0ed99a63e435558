package ivp

import "github.com/soypat/ivpflow/field"

// RHS is the user-supplied right-hand side y' = f(t, y), writing into dy.
type RHS[F field.Element[F]] func(t F, y, dy []F)

// SecondaryEquations declares one block of the concatenated state vector
// living outside the primary dimension, e.g. auxiliary quantities a user's
// step handler wants propagated alongside y but excluded from the error norm.
type SecondaryEquations[F field.Element[F]] struct {
	Offset, Length int
	Evaluate       RHS[F]
}

// Problem couples an RHS with its dimension and any secondary equations.
// It is constructed once per integrate call and referenced, not owned, by
// the engine.
type Problem[F field.Element[F]] struct {
	dim        int
	f          RHS[F]
	secondary  []SecondaryEquations[F]
	totalDim   int
}

// NewProblem validates that secondary blocks are disjoint and do not
// overlap [0, dim), then returns a ready-to-integrate Problem.
func NewProblem[F field.Element[F]](dim int, f RHS[F], secondary ...SecondaryEquations[F]) (*Problem[F], error) {
	if dim <= 0 {
		return nil, newError(ErrNumberIsTooSmall)
	}
	total := dim
	for _, occ := range secondary {
		if occ.Offset+occ.Length > total {
			total = occ.Offset + occ.Length
		}
	}
	occupied := make([]bool, total)
	for i := 0; i < dim; i++ {
		occupied[i] = true
	}
	for _, sec := range secondary {
		for i := sec.Offset; i < sec.Offset+sec.Length; i++ {
			if occupied[i] {
				return nil, &Error{Kind: ErrDimensionMismatch, Expected: dim, Actual: total}
			}
			occupied[i] = true
		}
	}
	return &Problem[F]{dim: dim, f: f, secondary: secondary, totalDim: total}, nil
}

// Dim returns the primary dimension n.
func (p *Problem[F]) Dim() int { return p.dim }

// TotalDim returns the primary dimension plus all secondary blocks.
func (p *Problem[F]) TotalDim() int { return p.totalDim }

// SecondaryEquationsOf returns the declared secondary blocks, in
// registration order.
func (p *Problem[F]) SecondaryEquationsOf() []SecondaryEquations[F] { return p.secondary }

// Eval computes dy = f(t, y) for the primary block, then each secondary
// block's evaluator in turn, incrementing evals for every call.
func (p *Problem[F]) Eval(t F, y, dy []F, evals *int) {
	p.f(t, y[:p.dim], dy[:p.dim])
	*evals++
	for _, sec := range p.secondary {
		sec.Evaluate(t, y[sec.Offset:sec.Offset+sec.Length], dy[sec.Offset:sec.Offset+sec.Length])
		*evals++
	}
}

// StepHandler receives the interpolator for each accepted step.
type StepHandler[F field.Element[F]] interface {
	HandleStep(interp *StepInterpolator[F], isLast bool)
}

// StepHandlerFunc adapts a plain function to StepHandler.
type StepHandlerFunc[F field.Element[F]] func(interp *StepInterpolator[F], isLast bool)

func (f StepHandlerFunc[F]) HandleStep(interp *StepInterpolator[F], isLast bool) { f(interp, isLast) }

// EventAction is the tagged result an EventHandler returns, replacing
// exception-based event control flow.
type EventAction int

const (
	EventContinue EventAction = iota
	EventResetState
	EventResetDerivatives
	EventStop
)

// EventHandler observes (t, y) after every accepted step and may request a
// state reset, a derivative-only reset, or early termination.
type EventHandler[F field.Element[F]] interface {
	HandleEvent(t F, y []F) EventAction
}

// EventHandlerFunc adapts a plain function to EventHandler.
type EventHandlerFunc[F field.Element[F]] func(t F, y []F) EventAction

func (f EventHandlerFunc[F]) HandleEvent(t F, y []F) EventAction { return f(t, y) }

// IdleEventHandler never requests a reset or stop.
func IdleEventHandler[F field.Element[F]]() EventHandler[F] {
	return EventHandlerFunc[F](func(F, []F) EventAction { return EventContinue })
}
