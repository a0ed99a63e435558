package erk

import (
	"math"

	"github.com/soypat/ivpflow/field"
)

// RK4 is the classical fourth-order Runge-Kutta method with the degree-2
// dense-output polynomial of spec.md §4.6.1. It has no embedded error
// estimator; EstimateError always reports convergence (eps=0), matching the
// teacher's RK4Solver which never adapts its step.
func RK4[F field.Element[F]]() Tableau[F] {
	return Tableau[F]{
		Name:   "RK4",
		Order:  4,
		Stages: 4,
		C:      []float64{0.5, 0.5, 1.0},
		A: [][]float64{
			{0.5},
			{0, 0.5},
			{0, 0, 1},
		},
		B:              []float64{1.0 / 6, 1.0 / 3, 1.0 / 3, 1.0 / 6},
		EstimateError:  func(yDotK [][]F, h float64, yOld, yNew []F, tau []float64, n int) float64 { return 0 },
		NewDenseOutput: newRK4DenseOutput[F],
	}
}

// Midpoint is the classical second-order explicit midpoint method. Like
// RK4, it is a fixed tableau without an embedded error estimator; its
// dense output is the cubic Hermite fallback (see dense_hermite.go).
func Midpoint[F field.Element[F]]() Tableau[F] {
	return Tableau[F]{
		Name:   "Midpoint",
		Order:  2,
		Stages: 2,
		C:      []float64{0.5},
		A:      [][]float64{{0.5}},
		B:      []float64{0, 1},
		EstimateError: func(yDotK [][]F, h float64, yOld, yNew []F, tau []float64, n int) float64 {
			return 0
		},
		NewDenseOutput: newHermiteDenseOutput[F],
	}
}

// HighamHall54 is the Higham-Hall embedded 5(4) pair (STATIC_C, STATIC_A,
// STATIC_B, STATIC_E per spec.md §4.6.3). Error is the L²-normed weighted
// sum of E[0..6]*yDotK[0..6] over the primary dimension. Dense output uses
// the cubic Hermite fallback: spec.md gives no explicit interpolation
// polynomial for this method (see DESIGN.md's Open Question decision).
func HighamHall54[F field.Element[F]]() Tableau[F] {
	return Tableau[F]{
		Name:   "HighamHall54",
		Order:  5,
		Stages: 7,
		C:      []float64{2.0 / 9, 1.0 / 3, 1.0 / 2, 3.0 / 5, 1, 1},
		A: [][]float64{
			{2.0 / 9},
			{1.0 / 12, 1.0 / 4},
			{1.0 / 8, 0, 3.0 / 8},
			{91.0 / 500, -27.0 / 100, 78.0 / 125, 8.0 / 125},
			{-11.0 / 20, 27.0 / 20, 12.0 / 5, -36.0 / 5, 5.0},
			{1.0 / 12, 0, 27.0 / 32, -4.0 / 3, 125.0 / 96, 5.0 / 48},
		},
		B: []float64{1.0 / 12, 0, 27.0 / 32, -4.0 / 3, 125.0 / 96, 5.0 / 48, 0},
		EstimateError: func(yDotK [][]F, h float64, yOld, yNew []F, tau []float64, n int) float64 {
			e := []float64{-1.0 / 20, 0, 81.0 / 160, -6.0 / 5, 25.0 / 32, 1.0 / 16, -1.0 / 10}
			var sum float64
			for i := 0; i < n; i++ {
				var combo float64
				for l := range e {
					if e[l] == 0 {
						continue
					}
					combo += e[l] * yDotK[l][i].Real()
				}
				combo *= h
				sum += sq(combo / tau[i])
			}
			return math.Sqrt(sum / float64(n))
		},
		NewDenseOutput: newHermiteDenseOutput[F],
	}
}

func sq(x float64) float64 { return x * x }
