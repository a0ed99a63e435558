package vec3

import (
	"math"
	"testing"

	"github.com/soypat/ivpflow/field"
)

func TestDotCross(t *testing.T) {
	a := New[field.Real](1, 0, 0)
	b := New[field.Real](0, 1, 0)
	if got := a.Dot(b); got != 0 {
		t.Errorf("expected orthogonal dot 0, got %v", got)
	}
	c := a.Cross(b)
	if c.Z != 1 {
		t.Errorf("expected x cross y = z, got %+v", c)
	}
}

func TestNorms(t *testing.T) {
	v := New[field.Real](3, 4, 0)
	if v.NormL2() != 5 {
		t.Errorf("expected L2 norm 5, got %v", v.NormL2())
	}
	if v.NormL1() != 7 {
		t.Errorf("expected L1 norm 7, got %v", v.NormL1())
	}
	if v.NormLInf() != 4 {
		t.Errorf("expected LInf norm 4, got %v", v.NormLInf())
	}
}

func TestAzimuthElevation(t *testing.T) {
	v := New[field.Real](1, 1, 0)
	az := float64(v.Azimuth())
	if math.Abs(az-math.Pi/4) > 1e-12 {
		t.Errorf("expected azimuth pi/4, got %v", az)
	}
}

func TestOrthogonal(t *testing.T) {
	v := New[field.Real](2, 0, 0)
	o := v.Orthogonal(field.RealHandle)
	if math.Abs(float64(v.Dot(o))) > 1e-12 {
		t.Errorf("orthogonal vector not perpendicular: dot=%v", v.Dot(o))
	}
	if math.Abs(float64(o.NormL2())-1) > 1e-12 {
		t.Errorf("orthogonal vector should be unit length, got norm %v", o.NormL2())
	}
}
