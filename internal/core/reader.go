// Package core implements the low-level object-graph decoder for the
// marshal byte format used inside .vo compiled-library files: tagged
// primitives, boxed blocks, shared back-references and custom payloads.
package core

import (
	"bytes"
	"encoding/binary"
)

// Reader is a bounded cursor over the raw file bytes. All multi-byte
// integers in the format are big-endian. Positions are reported as bytes
// remaining to end of input.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader over buf. The buffer is borrowed read-only;
// string payloads returned by the decoder are copied out of it.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining reports how many bytes are left to read.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// Offset reports the absolute offset from the start of the input.
func (r *Reader) Offset() int {
	return r.pos
}

// Take consumes exactly n bytes, failing with a short-read error if
// fewer are available.
func (r *Reader) Take(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, Failf(r.Remaining(), "short read: need %d bytes, have %d", n, r.Remaining())
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// U8 reads one unsigned byte.
func (r *Reader) U8() (uint8, error) {
	b, err := r.Take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// I8 reads one signed byte.
func (r *Reader) I8() (int8, error) {
	n, err := r.U8()
	return int8(n), err
}

// BeU16 reads a big-endian unsigned 16-bit integer.
func (r *Reader) BeU16() (uint16, error) {
	b, err := r.Take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// BeI16 reads a big-endian signed 16-bit integer.
func (r *Reader) BeI16() (int16, error) {
	n, err := r.BeU16()
	return int16(n), err
}

// BeU24 reads a big-endian unsigned 24-bit integer.
func (r *Reader) BeU24() (uint32, error) {
	b, err := r.Take(3)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), nil
}

// BeU32 reads a big-endian unsigned 32-bit integer.
func (r *Reader) BeU32() (uint32, error) {
	b, err := r.Take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// BeI32 reads a big-endian signed 32-bit integer.
func (r *Reader) BeI32() (int32, error) {
	n, err := r.BeU32()
	return int32(n), err
}

// BeU64 reads a big-endian unsigned 64-bit integer.
func (r *Reader) BeU64() (uint64, error) {
	b, err := r.Take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// BeI64 reads a big-endian signed 64-bit integer.
func (r *Reader) BeI64() (int64, error) {
	n, err := r.BeU64()
	return int64(n), err
}

// CString reads bytes up to a NUL terminator and consumes the terminator.
func (r *Reader) CString() ([]byte, error) {
	idx := bytes.IndexByte(r.buf[r.pos:], 0)
	if idx < 0 {
		return nil, Failf(r.Remaining(), "short read: unterminated string")
	}
	s := r.buf[r.pos : r.pos+idx]
	r.pos += idx + 1
	return s, nil
}
