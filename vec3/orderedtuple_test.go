package vec3

import (
	"math"
	"testing"

	check "gopkg.in/check.v1"
)

// Test hooks gocheck into `go test`, promoting the teacher's indirect
// gopkg.in/check.v1 dependency to a direct one for this ordering suite.
func Test(t *testing.T) { check.TestingT(t) }

type OrderedTupleSuite struct{}

var _ = check.Suite(&OrderedTupleSuite{})

func (s *OrderedTupleSuite) TestDimensionOrdersFirst(c *check.C) {
	short := NewOrderedTuple(1, 2)
	long := NewOrderedTuple(0, 0, 0)
	c.Check(short.Less(long), check.Equals, true)
	c.Check(long.Less(short), check.Equals, false)
}

func (s *OrderedTupleSuite) TestNaNSortsAboveInf(c *check.C) {
	inf := NewOrderedTuple(math.Inf(1))
	nan := NewOrderedTuple(math.NaN())
	c.Check(inf.Less(nan), check.Equals, true)
	c.Check(nan.Less(inf), check.Equals, false)
}

func (s *OrderedTupleSuite) TestNearPointsSortNear(c *check.C) {
	origin := NewOrderedTuple(0, 0, 0)
	near := NewOrderedTuple(1e-9, 1e-9, 1e-9)
	far := NewOrderedTuple(1e9, -1e9, 1e9)
	tuples := []OrderedTuple{far, origin, near}
	Sort(tuples)
	// far's negative Y component has a clear top bit, so it sorts first;
	// origin and near stay adjacent.
	c.Check(tuples[0].Values(), check.DeepEquals, far.Values())
	c.Check(tuples[1].Values(), check.DeepEquals, origin.Values())
	c.Check(tuples[2].Values(), check.DeepEquals, near.Values())
}

func (s *OrderedTupleSuite) TestMonotoneAlongAxis(c *check.C) {
	a := NewOrderedTuple(1, 0, 0)
	b := NewOrderedTuple(2, 0, 0)
	c.Check(a.Less(b), check.Equals, true)
}
