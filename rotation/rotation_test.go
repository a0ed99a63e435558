package rotation

import (
	"math"
	"testing"

	"github.com/soypat/ivpflow/field"
	"github.com/soypat/ivpflow/vec3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestFromAxisAngleAppliesRightHandRule(t *testing.T) {
	axis := vec3.New[field.Real](0, 0, 1)
	r, err := FromAxisAngle(field.RealHandle, axis, field.Real(math.Pi/2))
	require.NoError(t, err)
	v := vec3.New[field.Real](1, 0, 0)
	got := r.ApplyTo(v)
	assert.InDelta(t, 0, float64(got.X), 1e-9)
	assert.InDelta(t, 1, float64(got.Y), 1e-9)
	assert.InDelta(t, 0, float64(got.Z), 1e-9)
}

func TestRevertIsInverse(t *testing.T) {
	axis := vec3.New[field.Real](1, 1, 1)
	r, err := FromAxisAngle(field.RealHandle, axis, field.Real(1.3))
	require.NoError(t, err)
	v := vec3.New[field.Real](0.3, -0.7, 2.1)
	roundTrip := r.Revert().ApplyTo(r.ApplyTo(v))
	assert.InDelta(t, float64(v.X), float64(roundTrip.X), 1e-9)
	assert.InDelta(t, float64(v.Y), float64(roundTrip.Y), 1e-9)
	assert.InDelta(t, float64(v.Z), float64(roundTrip.Z), 1e-9)
}

func TestComposeMatchesSequentialApply(t *testing.T) {
	r1, err := FromAxisAngle(field.RealHandle, vec3.New[field.Real](0, 0, 1), field.Real(0.4))
	require.NoError(t, err)
	r2, err := FromAxisAngle(field.RealHandle, vec3.New[field.Real](1, 0, 0), field.Real(0.9))
	require.NoError(t, err)
	v := vec3.New[field.Real](1, 2, 3)

	composed := r2.Compose(r1).ApplyTo(v)
	sequential := r2.ApplyTo(r1.ApplyTo(v))
	assert.InDelta(t, float64(sequential.X), float64(composed.X), 1e-9)
	assert.InDelta(t, float64(sequential.Y), float64(composed.Y), 1e-9)
	assert.InDelta(t, float64(sequential.Z), float64(composed.Z), 1e-9)
}

func TestDistanceToSelfIsZero(t *testing.T) {
	r, err := FromAxisAngle(field.RealHandle, vec3.New[field.Real](0, 1, 0), field.Real(2.2))
	require.NoError(t, err)
	d := Distance(r, r)
	assert.InDelta(t, 0, float64(d), 1e-9)
}

func TestFromTwoVectorsAntiparallel(t *testing.T) {
	u := vec3.New[field.Real](1, 0, 0)
	v := vec3.New[field.Real](-1, 0, 0)
	r, err := FromTwoVectors(field.RealHandle, u, v)
	require.NoError(t, err)
	got := r.ApplyTo(u)
	assert.InDelta(t, -1, float64(got.X), 1e-9)
	assert.InDelta(t, 0, float64(got.Y), 1e-9)
	assert.InDelta(t, 0, float64(got.Z), 1e-9)
}

func TestMatrixRoundTrip(t *testing.T) {
	r, err := FromAxisAngle(field.RealHandle, vec3.New[field.Real](0.2, 0.6, 0.8), field.Real(0.77))
	require.NoError(t, err)
	m := r.Matrix(field.RealHandle)
	back, err := FromMatrix(field.RealHandle, m, 1e-12)
	require.NoError(t, err)
	assert.InDelta(t, 0, float64(Distance(r, back)), 1e-6)
}

func TestFromMatrixRejectsNegativeDeterminant(t *testing.T) {
	reflection := [3][3]field.Real{
		{-1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	_, err := FromMatrix(field.RealHandle, reflection, 1e-12)
	require.Error(t, err)
	var notRot *NotARotationMatrixError
	require.ErrorAs(t, err, &notRot)
	assert.Equal(t, ReasonNegativeDeterminant, notRot.Reason)
}

func TestCardanEulerRoundTrip(t *testing.T) {
	orders := []Order{XYZ, XZY, YXZ, YZX, ZXY, ZYX, XYX, XZX, YXY, YZY, ZXZ, ZYZ}
	for _, order := range orders {
		a1, a2, a3 := field.Real(0.2), field.Real(0.3), field.Real(0.1)
		r := FromCardanEuler(field.RealHandle, order, a1, a2, a3)
		b1, b2, b3, err := GetAngles(field.RealHandle, r, order)
		require.NoError(t, err)
		r2 := FromCardanEuler(field.RealHandle, order, b1, b2, b3)
		assert.InDeltaf(t, 0, float64(Distance(r, r2)), 1e-6, "order %v did not round-trip", order)
	}
}

func TestGetAnglesDetectsCardanSingularity(t *testing.T) {
	r, err := FromAxisAngle(field.RealHandle, vec3.New[field.Real](0, 1, 0), field.Real(math.Pi/2))
	require.NoError(t, err)
	_, _, _, err = GetAngles(field.RealHandle, r, XYZ)
	require.Error(t, err)
	var singularity *CardanEulerSingularityError
	require.ErrorAs(t, err, &singularity)
	assert.True(t, singularity.IsCardan)
}

func TestFromQuaternionNormalizes(t *testing.T) {
	r := FromQuaternion[field.Real](field.RealHandle, 2, 0, 0, 0, true)
	assert.InDelta(t, 1, float64(r.Q0), 1e-12)
}

// TestRandomizedMatrixRoundTrip fuzzes FromMatrix/Matrix over many random
// axis-angle pairs using a seeded PRNG, since a single fixed case would miss
// sign/branch errors that only show up near particular axis orientations.
func TestRandomizedMatrixRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		axis := vec3.New[field.Real](
			field.Real(rng.Float64()*2-1),
			field.Real(rng.Float64()*2-1),
			field.Real(rng.Float64()*2-1),
		)
		if axis.NormL2() < 1e-6 {
			continue
		}
		angle := field.Real(rng.Float64() * math.Pi)
		r, err := FromAxisAngle(field.RealHandle, axis, angle)
		require.NoError(t, err)
		m := r.Matrix(field.RealHandle)
		back, err := FromMatrix(field.RealHandle, m, 1e-9)
		require.NoError(t, err)
		assert.InDeltaf(t, 0, float64(Distance(r, back)), 1e-6, "round %d: axis=%v angle=%v", i, axis, angle)
	}
}

func TestAxisAngleRoundTrip(t *testing.T) {
	axis := vec3.New[field.Real](0.1, 0.2, 0.97)
	angle := field.Real(1.1)
	r, err := FromAxisAngle(field.RealHandle, axis, angle)
	require.NoError(t, err)
	gotAxis, err := r.Axis(field.RealHandle)
	require.NoError(t, err)
	gotAngle := r.Angle()
	assert.InDelta(t, float64(angle), float64(gotAngle), 1e-9)
	unitAxis := axis.Scale(field.Real(1 / float64(axis.NormL2())))
	assert.InDelta(t, float64(unitAxis.X), -float64(gotAxis.X), 1e-9)
	assert.InDelta(t, float64(unitAxis.Y), -float64(gotAxis.Y), 1e-9)
	assert.InDelta(t, float64(unitAxis.Z), -float64(gotAxis.Z), 1e-9)
}
