package vec3

import (
	"math"
	"math/big"

	"golang.org/x/exp/slices"
)

// OrderedTuple holds a mantissa-bit interleaving of k doubles so that near
// points in R^k sort near each other (a Morton/Z-order style key), as
// spec.md §3 describes for the sweep utilities. NaN sorts above +Inf;
// tuples of different dimension compare by dimension first.
type OrderedTuple struct {
	values []float64
	key    *big.Int
}

// NewOrderedTuple builds the sort key for the given coordinates.
func NewOrderedTuple(values ...float64) OrderedTuple {
	return OrderedTuple{
		values: append([]float64(nil), values...),
		key:    encodeTuple(values),
	}
}

// Dim returns k, the tuple's dimension.
func (t OrderedTuple) Dim() int { return len(t.values) }

// Values returns the original coordinates.
func (t OrderedTuple) Values() []float64 { return append([]float64(nil), t.values...) }

// Less implements the fixed total order: dimension first, then the
// interleaved-bits key.
func (t OrderedTuple) Less(o OrderedTuple) bool {
	if len(t.values) != len(o.values) {
		return len(t.values) < len(o.values)
	}
	return t.key.Cmp(o.key) < 0
}

// Sort sorts tuples in place by the fixed total order.
func Sort(tuples []OrderedTuple) {
	slices.SortFunc(tuples, func(a, b OrderedTuple) bool { return a.Less(b) })
}

// orderedBits maps a float64 onto a uint64 that preserves float ordering,
// with the fixed extension that NaN sorts strictly above +Inf. This is the
// standard "flip for sortability" transform: non-negative values keep their
// IEEE-754 bit pattern (which is already monotonic for non-negatives);
// negative values get all bits flipped so larger-magnitude negatives sort
// first.
func orderedBits(v float64) uint64 {
	if math.IsNaN(v) {
		return math.MaxUint64
	}
	bits := math.Float64bits(v)
	if bits&(1<<63) != 0 {
		return ^bits
	}
	return bits | (1 << 63)
}

// exponentOf extracts the unbiased binary exponent of v, treating zero as
// the minimum possible exponent so it never dominates the common scale.
func exponentOf(v float64) int {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return math.MinInt16
	}
	_, exp := math.Frexp(v)
	return exp
}

// encodeTuple builds the interleaved-bits key: every component is first
// re-expressed relative to the tuple's common (max) exponent, matching
// spec.md's "encoding offset is scaled to the max-magnitude component's
// binary exponent", then the resulting bit sequences are interleaved
// round-robin so the most significant bits of every dimension alternate at
// the front of the key.
func encodeTuple(values []float64) *big.Int {
	maxExp := math.MinInt16
	for _, v := range values {
		if e := exponentOf(v); e > maxExp {
			maxExp = e
		}
	}
	codes := make([]uint64, len(values))
	for i, v := range values {
		codes[i] = orderedBits(v)
		if maxExp != math.MinInt16 {
			if shift := maxExp - exponentOf(v); shift > 0 && shift < 64 {
				// Align mantissa significance to the shared exponent so
				// components at a smaller scale contribute fewer
				// significant interleaved bits, the intended effect of a
				// common exponent offset.
				codes[i] >>= uint(shift)
			}
		}
	}
	key := big.NewInt(0)
	for bit := 63; bit >= 0; bit-- {
		for _, c := range codes {
			key.Lsh(key, 1)
			if (c>>uint(bit))&1 != 0 {
				key.Or(key, big.NewInt(1))
			}
		}
	}
	return key
}
