// Package votest provides a reference encoder for building marshal
// streams, segments and whole files in tests. It always picks the
// smallest encoding for each object and shares repeated cells
// deterministically, so re-encoding a decoded graph reproduces the
// input bytes.
package votest

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"math"

	"github.com/scigolib/vofile/internal/core"
)

// Builder accumulates one segment body, tracking cell allocations with
// the same accounting the decoder uses for memory addresses.
type Builder struct {
	buf     bytes.Buffer
	objects int
}

// Bytes returns the encoded body.
func (e *Builder) Bytes() []byte {
	return e.buf.Bytes()
}

// Objects reports how many memory cells the body allocates when decoded.
func (e *Builder) Objects() int {
	return e.objects
}

// Raw appends literal bytes without any cell accounting.
func (e *Builder) Raw(b ...byte) {
	e.buf.Write(b)
}

// Int emits an unboxed integer in its smallest form.
func (e *Builder) Int(n int64) {
	switch {
	case n >= 0 && n <= 0x3F:
		e.buf.WriteByte(0x40 | byte(n))
	case n >= math.MinInt8 && n <= math.MaxInt8:
		e.buf.WriteByte(0x00)
		e.buf.WriteByte(byte(int8(n)))
	case n >= math.MinInt16 && n <= math.MaxInt16:
		e.buf.WriteByte(0x01)
		e.be16(uint16(int16(n)))
	case n >= math.MinInt32 && n <= math.MaxInt32:
		e.buf.WriteByte(0x02)
		e.be32(uint32(int32(n)))
	default:
		e.buf.WriteByte(0x03)
		e.be64(uint64(n))
	}
}

// Str emits a byte string cell in its smallest form.
func (e *Builder) Str(s []byte) {
	switch {
	case len(s) < 0x20:
		e.buf.WriteByte(0x20 | byte(len(s)))
	case len(s) < 0x100:
		e.buf.WriteByte(0x09)
		e.buf.WriteByte(byte(len(s)))
	default:
		e.buf.WriteByte(0x0A)
		e.be32(uint32(len(s)))
	}
	e.buf.Write(s)
	e.objects++
}

// Int63 emits a 63-bit custom scalar cell.
func (e *Builder) Int63(n uint64) {
	e.buf.Write([]byte{0x12, '_', 'j', 0x00})
	e.be64(n)
	e.objects++
}

// Block emits a block header; the caller emits length children after it.
// Blocks with children allocate a cell, atoms do not.
func (e *Builder) Block(tag uint8, length int) {
	if tag <= 0x0F && length <= 0x07 {
		e.buf.WriteByte(0x80 | tag | byte(length)<<4)
	} else {
		e.buf.WriteByte(0x08)
		e.be24(uint32(length) << 2)
		e.buf.WriteByte(tag)
	}
	if length > 0 {
		e.objects++
	}
}

// Shared emits a back-reference of the given offset in its smallest form.
func (e *Builder) Shared(offset int) {
	switch {
	case offset < 0x100:
		e.buf.WriteByte(0x04)
		e.buf.WriteByte(byte(offset))
	case offset < 0x10000:
		e.buf.WriteByte(0x05)
		e.be16(uint16(offset))
	default:
		e.buf.WriteByte(0x06)
		e.be32(uint32(offset))
	}
}

func (e *Builder) be16(n uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], n)
	e.buf.Write(b[:])
}

func (e *Builder) be24(n uint32) {
	e.buf.Write([]byte{byte(n >> 16), byte(n >> 8), byte(n)})
}

func (e *Builder) be32(n uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], n)
	e.buf.Write(b[:])
}

func (e *Builder) be64(n uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	e.buf.Write(b[:])
}

// MinimalBody returns a body holding a single Int(0) root, the smallest
// valid segment payload.
func MinimalBody() *Builder {
	e := &Builder{}
	e.Int(0)
	return e
}

// Segment wraps a body into a segment placed at startOffset: stop offset,
// segment magic, length, object count, the 32- and 64-bit sizes, the body
// and a trailing digest.
func Segment(startOffset int, body *Builder, digest [16]byte) []byte {
	var buf bytes.Buffer
	b := body.Bytes()
	writeSegmentHeader(&buf, startOffset, b, body.Objects())
	buf.Write(b)
	buf.Write(digest[:])
	return buf.Bytes()
}

func writeSegmentHeader(buf *bytes.Buffer, startOffset int, body []byte, objects int) {
	stop := startOffset + 24 + len(body)
	var w [4]byte
	binary.BigEndian.PutUint32(w[:], uint32(stop))
	buf.Write(w[:])
	buf.Write([]byte{0x84, 0x95, 0xA6, 0xBE})
	for _, n := range []int{len(body), objects, objects, objects} {
		binary.BigEndian.PutUint32(w[:], uint32(n))
		buf.Write(w[:])
	}
}

// BuildFile assembles a complete .vo file from segment bodies: the file
// magic, one segment per body with zeroed digests, and the final
// segment's digest slot holding the MD5 of everything before it.
func BuildFile(bodies ...*Builder) []byte {
	var buf bytes.Buffer
	var w [4]byte
	binary.BigEndian.PutUint32(w[:], 8991)
	buf.Write(w[:])
	for i, body := range bodies {
		b := body.Bytes()
		writeSegmentHeader(&buf, buf.Len(), b, body.Objects())
		buf.Write(b)
		if i == len(bodies)-1 {
			sum := md5.Sum(buf.Bytes())
			buf.Write(sum[:])
		} else {
			buf.Write(make([]byte, 16))
		}
	}
	return buf.Bytes()
}

// SummaryFile assembles a five-segment file whose summary segment holds
// the given body; the other segments carry minimal payloads.
func SummaryFile(summary *Builder) []byte {
	return BuildFile(summary, MinimalBody(), MinimalBody(), MinimalBody(), MinimalBody())
}

// EncodeGraph re-emits a decoded graph into e with deterministic
// sharing: the first visit of a cell emits it in full, later visits emit
// a back-reference, mirroring the decoder's address assignment.
func EncodeGraph(e *Builder, m *core.Memory, root core.Data) {
	g := &graphEncoder{e: e, m: m, seen: make(map[int]int)}
	g.data(root)
}

type graphEncoder struct {
	e    *Builder
	m    *core.Memory
	seen map[int]int
}

func (g *graphEncoder) data(d core.Data) {
	switch d.Kind {
	case core.DataInt:
		g.e.Int(d.N)
	case core.DataAtm:
		g.e.Block(uint8(d.N), 0)
	case core.DataPtr:
		addr := d.Addr()
		if idx, ok := g.seen[addr]; ok {
			g.e.Shared(g.e.objects - idx)
			return
		}
		g.seen[addr] = g.e.objects
		switch c := g.m.Cell(addr).(type) {
		case core.StringCell:
			g.e.Str(c.Bytes)
		case core.Int63Cell:
			g.e.Int63(c.N)
		case core.StructCell:
			g.e.Block(c.Tag, len(c.Fields))
			for _, f := range c.Fields {
				g.data(f)
			}
		}
	}
}
