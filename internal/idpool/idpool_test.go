package idpool

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestLowestFree(t *testing.T) {
	c := qt.New(t)
	p := New(0)

	a := p.Alloc()
	b := p.Alloc()
	c.Assert(a, qt.Equals, uint32(0))
	c.Assert(b, qt.Equals, uint32(1))

	p.Free(a)
	reused := p.Alloc()
	c.Assert(reused, qt.Equals, uint32(0))

	next := p.Alloc()
	c.Assert(next, qt.Equals, uint32(2))
}

func TestFloor(t *testing.T) {
	c := qt.New(t)
	p := New(2)
	c.Assert(p.Alloc(), qt.Equals, uint32(2))
	c.Assert(p.Alloc(), qt.Equals, uint32(3))
}

func TestReserve(t *testing.T) {
	c := qt.New(t)
	p := New(0)
	c.Assert(p.Reserve(5), qt.IsTrue)
	c.Assert(p.Reserve(5), qt.IsFalse)
	c.Assert(p.InUse(5), qt.IsTrue)
	p.Free(5)
	c.Assert(p.InUse(5), qt.IsFalse)
}
