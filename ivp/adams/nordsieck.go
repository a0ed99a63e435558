// Package adams implements the multistep side of the integrator: a Nordsieck
// vector representation shared by an Adams-Bashforth predictor and an
// Adams-Moulton PECE corrector, both built on a starter ERK for history.
package adams

import (
	"math/big"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/soypat/ivpflow/field"
)

// Transformer holds the P, P⁻¹·u and update = P⁻¹·P_shifted matrices for one
// Nordsieck order k = nSteps, per §4.7 (C7). P is built and inverted in exact
// rational arithmetic so c1 and update carry no accumulated floating-point
// error from the transform itself — only the final round to float64 does.
type Transformer struct {
	Order  int // k = nSteps
	C1     []float64   // P⁻¹·u, length k-1
	Update [][]float64 // P⁻¹·P_shifted, (k-1)x(k-1)
}

var (
	cacheMu sync.Mutex
	cache   = map[int]*Transformer{}
)

// GetTransformer returns the cached Transformer for order k, building and
// inserting it on first request. Cached values are immutable; callers never
// see a Transformer still being constructed by another goroutine because the
// whole build runs under the package mutex.
func GetTransformer(k int) *Transformer {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if t, ok := cache[k]; ok {
		return t
	}
	t := buildTransformer(k)
	cache[k] = t
	return t
}

// buildTransformer constructs P exactly (entry (i+1,j+1) of the (k-1)x(k-1)
// matrix is (j+2)*(-(i+1))^(j+1), 0-indexed i,j from 0), inverts it exactly
// over the rationals, then derives C1 = P^-1 * u and Update = P^-1 * P_shift.
func buildTransformer(k int) *Transformer {
	n := k - 1
	if n <= 0 {
		return &Transformer{Order: k}
	}
	P := make([][]*big.Rat, n)
	for i := 0; i < n; i++ {
		P[i] = make([]*big.Rat, n)
		for j := 0; j < n; j++ {
			coeff := j + 2
			base := -(i + 1)
			P[i][j] = new(big.Rat).SetInt64(int64(coeff) * ipow(base, j+1))
		}
	}
	Pinv := invertRat(P, n)

	u := make([]*big.Rat, n)
	for i := range u {
		u[i] = big.NewRat(1, 1)
	}
	c1Rat := matVecRat(Pinv, u, n)
	c1 := make([]float64, n)
	for i, r := range c1Rat {
		c1[i], _ = r.Float64()
	}

	// Pshift: row i (0-indexed) of the shifted matrix equals row i-1 of P for
	// i>=1 (upper rows pushed down one position), top row zeroed.
	Pshift := make([][]*big.Rat, n)
	Pshift[0] = make([]*big.Rat, n)
	for j := range Pshift[0] {
		Pshift[0][j] = big.NewRat(0, 1)
	}
	for i := 1; i < n; i++ {
		Pshift[i] = append([]*big.Rat(nil), P[i-1]...)
	}

	updateRat := matMulRat(Pinv, Pshift, n)
	update := make([][]float64, n)
	for i := range update {
		update[i] = make([]float64, n)
		for j := range update[i] {
			update[i][j], _ = updateRat[i][j].Float64()
		}
	}

	return &Transformer{Order: k, C1: c1, Update: update}
}

func ipow(base, exp int) int64 {
	result := int64(1)
	b := int64(base)
	for i := 0; i < exp; i++ {
		result *= b
	}
	return result
}

// invertRat inverts an n x n exact-rational matrix via Gauss-Jordan
// elimination, never losing precision (the Nordsieck matrices involved are
// well-conditioned integer Vandermonde-like matrices for the orders this
// package realistically sees).
func invertRat(m [][]*big.Rat, n int) [][]*big.Rat {
	aug := make([][]*big.Rat, n)
	for i := 0; i < n; i++ {
		aug[i] = make([]*big.Rat, 2*n)
		for j := 0; j < n; j++ {
			aug[i][j] = new(big.Rat).Set(m[i][j])
		}
		for j := 0; j < n; j++ {
			if i == j {
				aug[i][n+j] = big.NewRat(1, 1)
			} else {
				aug[i][n+j] = big.NewRat(0, 1)
			}
		}
	}
	for col := 0; col < n; col++ {
		pivot := col
		for aug[pivot][col].Sign() == 0 {
			pivot++
		}
		if pivot != col {
			aug[col], aug[pivot] = aug[pivot], aug[col]
		}
		inv := new(big.Rat).Inv(aug[col][col])
		for j := 0; j < 2*n; j++ {
			aug[col][j].Mul(aug[col][j], inv)
		}
		for row := 0; row < n; row++ {
			if row == col {
				continue
			}
			factor := new(big.Rat).Set(aug[row][col])
			if factor.Sign() == 0 {
				continue
			}
			for j := 0; j < 2*n; j++ {
				term := new(big.Rat).Mul(factor, aug[col][j])
				aug[row][j].Sub(aug[row][j], term)
			}
		}
	}
	out := make([][]*big.Rat, n)
	for i := range out {
		out[i] = aug[i][n:]
	}
	return out
}

func matVecRat(m [][]*big.Rat, v []*big.Rat, n int) []*big.Rat {
	out := make([]*big.Rat, n)
	for i := 0; i < n; i++ {
		sum := big.NewRat(0, 1)
		for j := 0; j < n; j++ {
			term := new(big.Rat).Mul(m[i][j], v[j])
			sum.Add(sum, term)
		}
		out[i] = sum
	}
	return out
}

func matMulRat(a, b [][]*big.Rat, n int) [][]*big.Rat {
	out := make([][]*big.Rat, n)
	for i := 0; i < n; i++ {
		out[i] = make([]*big.Rat, n)
		for j := 0; j < n; j++ {
			sum := big.NewRat(0, 1)
			for l := 0; l < n; l++ {
				term := new(big.Rat).Mul(a[i][l], b[l][j])
				sum.Add(sum, term)
			}
			out[i][j] = sum
		}
	}
	return out
}

// InitializeHighOrderDerivatives builds the initial Nordsieck higher-order
// block R from a short history of (t, y, y') triples produced by the
// starter ERK, per §4.7's Taylor-constraint least-squares system, solved via
// QR through gonum/mat.
func InitializeHighOrderDerivatives[F field.Element[F]](h field.Handle[F], k int, t []F, y, yDot [][]F, n int) [][]float64 {
	m := len(t)
	rows := 2 * (m - 1)
	cols := k - 1
	A := mat.NewDense(rows, cols, nil)
	B := mat.NewDense(rows, n, nil)

	hReal := t[1].Sub(t[0]).Real() // nominal step used to scale the design matrix
	for i := 1; i < m; i++ {
		di := t[i].Sub(t[0]).Real()
		ratio := di / hReal
		rowY := 2 * (i - 1)
		rowYp := rowY + 1
		for j := 0; j < cols; j++ {
			A.Set(rowY, j, pow(ratio, j+2))
			A.Set(rowYp, j, float64(j+2)*pow(ratio, j+1)/hReal)
		}
		for c := 0; c < n; c++ {
			dy := y[i][c].Sub(y[0][c]).Sub(yDot[0][c].Mul(h.FromReal(di)))
			B.Set(rowY, c, dy.Real())
			dyp := yDot[i][c].Sub(yDot[0][c])
			B.Set(rowYp, c, dyp.Real())
		}
	}

	var qr mat.QR
	qr.Factorize(A)
	var R mat.Dense
	err := qr.SolveTo(&R, false, B)
	_ = err // an ill-conditioned short history is a caller error, not handled here

	out := make([][]float64, cols)
	for i := 0; i < cols; i++ {
		out[i] = make([]float64, n)
		for c := 0; c < n; c++ {
			out[i][c] = R.At(i, c)
		}
	}
	return out
}

func pow(x float64, n int) float64 {
	r := 1.0
	for i := 0; i < n; i++ {
		r *= x
	}
	return r
}

// UpdatePhase1 returns update * R, the shift part of the phase-1/phase-2
// Nordsieck advance (§4.7). Each row's dot product runs through
// field.LinearCombination for the double-double accuracy spec.md's
// linear_combination primitive requires of Nordsieck row combinations.
func (tr *Transformer) UpdatePhase1(R [][]float64, n int) [][]float64 {
	rows := len(tr.Update)
	out := make([][]float64, rows)
	pairs := make([][2]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = make([]float64, n)
		for c := 0; c < n; c++ {
			for j := 0; j < rows; j++ {
				pairs[j] = [2]float64{tr.Update[i][j], R[j][c]}
			}
			out[i][c] = field.LinearCombination(pairs...)
		}
	}
	return out
}

// UpdatePhase2 mutates R in place: row i += c1[i]*(sStart[c]-sEnd[c]).
func (tr *Transformer) UpdatePhase2(R [][]float64, sStart, sEnd []float64, n int) {
	for i := range tr.C1 {
		for c := 0; c < n; c++ {
			R[i][c] += tr.C1[i] * (sStart[c] - sEnd[c])
		}
	}
}
