package wire

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestRoundTrip(t *testing.T) {
	c := qt.New(t)

	e := NewEncoder(32)
	e.Put8(0xAB)
	e.Put16(0x1234)
	e.Put32(0xDEADBEEF)
	e.Put64(0x0102030405060708)
	e.PutString("hello")

	d := NewDecoder(e.Bytes())
	c.Assert(d.Get8(), qt.Equals, uint8(0xAB))
	c.Assert(d.Get16(), qt.Equals, uint16(0x1234))
	c.Assert(d.Get32(), qt.Equals, uint32(0xDEADBEEF))
	c.Assert(d.Get64(), qt.Equals, uint64(0x0102030405060708))
	c.Assert(d.GetString(), qt.Equals, "hello")
	c.Assert(d.Err(), qt.IsNil)
}

func TestLittleEndian(t *testing.T) {
	c := qt.New(t)
	e := NewEncoder(4)
	e.Put32(0x01020304)
	c.Assert(e.Bytes(), qt.DeepEquals, []byte{0x04, 0x03, 0x02, 0x01})
}

func TestShortBuffer(t *testing.T) {
	c := qt.New(t)
	d := NewDecoder([]byte{0x01})
	d.Get32()
	c.Assert(d.Err(), qt.Equals, ErrShortBuffer)
	// Sticky: further reads don't panic and still report the error.
	c.Assert(d.Get8(), qt.Equals, uint8(0))
	c.Assert(d.Err(), qt.Equals, ErrShortBuffer)
}

func TestGetStringShort(t *testing.T) {
	c := qt.New(t)
	d := NewDecoder([]byte{0x05, 0x00, 'h', 'i'})
	s := d.GetString()
	c.Assert(s, qt.Equals, "")
	c.Assert(d.Err(), qt.Equals, ErrShortBuffer)
}
