// Package wire implements the little-endian integer and length-prefixed
// string primitives that the 9P2000 wire format is built from.
//
// Every multi-byte integer on the wire is little-endian; this package never
// relies on the host's native byte order or on unsafe/memcpy-style casts.
package wire

import "fmt"

// ErrShortBuffer is returned by Decoder methods when the underlying buffer
// does not hold enough bytes to satisfy the read.
var ErrShortBuffer = fmt.Errorf("wire: buffer too short")

// Encoder appends little-endian encoded fields to an in-memory buffer.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an Encoder with capacity pre-reserved for size bytes.
func NewEncoder(size int) *Encoder {
	return &Encoder{buf: make([]byte, 0, size)}
}

func (e *Encoder) Put8(v uint8) {
	e.buf = append(e.buf, v)
}

func (e *Encoder) Put16(v uint16) {
	e.buf = append(e.buf, byte(v), byte(v>>8))
}

func (e *Encoder) Put32(v uint32) {
	e.buf = append(e.buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func (e *Encoder) Put64(v uint64) {
	e.buf = append(e.buf,
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}

// PutString writes a 2-byte little-endian length prefix followed by the
// raw bytes of s. There is no NUL terminator on the wire.
func (e *Encoder) PutString(s string) {
	e.Put16(uint16(len(s)))
	e.buf = append(e.buf, s...)
}

// PutBytes appends raw, unprefixed bytes (used for the Data field of
// Twrite/Rread, which is preceded by its own count field).
func (e *Encoder) PutBytes(b []byte) {
	e.buf = append(e.buf, b...)
}

// Bytes returns the accumulated buffer.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len reports the number of bytes written so far.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Decoder reads little-endian fields off the front of a byte slice,
// sticky-failing (recording the first short-read error) so callers can
// chain several Get calls and check the error once at the end.
type Decoder struct {
	b   []byte
	err error
}

func NewDecoder(b []byte) *Decoder {
	return &Decoder{b: b}
}

func (d *Decoder) Err() error {
	return d.err
}

// Remaining returns the bytes not yet consumed.
func (d *Decoder) Remaining() []byte {
	return d.b
}

func (d *Decoder) need(n int) bool {
	if d.err != nil {
		return false
	}
	if len(d.b) < n {
		d.err = ErrShortBuffer
		return false
	}
	return true
}

func (d *Decoder) Get8() uint8 {
	if !d.need(1) {
		return 0
	}
	v := d.b[0]
	d.b = d.b[1:]
	return v
}

func (d *Decoder) Get16() uint16 {
	if !d.need(2) {
		return 0
	}
	v := uint16(d.b[0]) | uint16(d.b[1])<<8
	d.b = d.b[2:]
	return v
}

func (d *Decoder) Get32() uint32 {
	if !d.need(4) {
		return 0
	}
	v := uint32(d.b[0]) | uint32(d.b[1])<<8 | uint32(d.b[2])<<16 | uint32(d.b[3])<<24
	d.b = d.b[4:]
	return v
}

func (d *Decoder) Get64() uint64 {
	if !d.need(8) {
		return 0
	}
	v := uint64(d.b[0]) | uint64(d.b[1])<<8 | uint64(d.b[2])<<16 | uint64(d.b[3])<<24 |
		uint64(d.b[4])<<32 | uint64(d.b[5])<<40 | uint64(d.b[6])<<48 | uint64(d.b[7])<<56
	d.b = d.b[8:]
	return v
}

// GetString reads a 2-byte length prefix and that many bytes.
func (d *Decoder) GetString() string {
	if !d.need(2) {
		return ""
	}
	n := int(d.b[0]) | int(d.b[1])<<8
	d.b = d.b[2:]
	if !d.need(n) {
		return ""
	}
	s := string(d.b[:n])
	d.b = d.b[n:]
	return s
}

// GetBytes reads n raw bytes (used once Count has been decoded separately).
func (d *Decoder) GetBytes(n int) []byte {
	if !d.need(n) {
		return nil
	}
	b := d.b[:n:n]
	d.b = d.b[n:]
	return b
}
