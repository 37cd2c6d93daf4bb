package core

// Stream tag codes. One lead byte selects the representation; bytes at or
// above 0x20 encode small strings, small ints and small blocks directly
// in the lead byte.
const (
	codeInt8            = 0x00
	codeInt16           = 0x01
	codeInt32           = 0x02
	codeInt64           = 0x03
	codeShared8         = 0x04
	codeShared16        = 0x05
	codeShared32        = 0x06
	codeDoubleArray32LE = 0x07
	codeBlock32         = 0x08
	codeString8         = 0x09
	codeString32        = 0x0A
	codeDoubleBE        = 0x0B
	codeDoubleLE        = 0x0C
	codeDoubleArray8BE  = 0x0D
	codeDoubleArray8LE  = 0x0E
	codeDoubleArray32BE = 0x0F
	codeCodePointer     = 0x10
	codeInfixPointer    = 0x11
	codeCustom          = 0x12
	codeBlock64         = 0x13
	prefixSmallString   = 0x20
	prefixSmallInt      = 0x40
	prefixSmallBlock    = 0x80
)

// Repr is one decoded object header. Exactly one is produced per header
// and the reader advances exactly by the encoded width.
type Repr interface {
	isRepr()
}

// ReprInt is an unboxed integer.
type ReprInt struct {
	N int64
}

// ReprInt63 is a 63-bit unsigned custom integer payload.
type ReprInt63 struct {
	N uint64
}

// ReprBlock is a boxed block header; Len children follow in the stream
// when Len > 0.
type ReprBlock struct {
	Tag uint8
	Len int
}

// ReprString is a byte string literal.
type ReprString struct {
	Bytes []byte
}

// ReprPointer is a back-reference to the cell Offset positions before the
// current end of memory.
type ReprPointer struct {
	Offset int
}

// ReprCode is a code pointer. The graph filler rejects it: closures are
// not serialized.
type ReprCode struct {
	Addr int64
}

func (ReprInt) isRepr()     {}
func (ReprInt63) isRepr()   {}
func (ReprBlock) isRepr()   {}
func (ReprString) isRepr()  {}
func (ReprPointer) isRepr() {}
func (ReprCode) isRepr()    {}

// DecodeObject reads one object header from r.
func DecodeObject(r *Reader) (Repr, error) {
	b, err := r.U8()
	if err != nil {
		return nil, err
	}
	switch {
	case b >= prefixSmallBlock:
		return ReprBlock{Tag: b & 0x0F, Len: int((b >> 4) & 0x07)}, nil
	case b >= prefixSmallInt:
		return ReprInt{N: int64(b & 0x3F)}, nil
	case b >= prefixSmallString:
		s, err := r.Take(int(b & 0x1F))
		if err != nil {
			return nil, err
		}
		return ReprString{Bytes: cloneBytes(s)}, nil
	}
	switch b {
	case codeInt8:
		n, err := r.I8()
		if err != nil {
			return nil, err
		}
		return ReprInt{N: int64(n)}, nil
	case codeInt16:
		n, err := r.BeI16()
		if err != nil {
			return nil, err
		}
		return ReprInt{N: int64(n)}, nil
	case codeInt32:
		n, err := r.BeI32()
		if err != nil {
			return nil, err
		}
		return ReprInt{N: int64(n)}, nil
	case codeInt64:
		n, err := r.BeI64()
		if err != nil {
			return nil, err
		}
		return ReprInt{N: n}, nil
	case codeShared8:
		n, err := r.U8()
		if err != nil {
			return nil, err
		}
		return ReprPointer{Offset: int(n)}, nil
	case codeShared16:
		n, err := r.BeU16()
		if err != nil {
			return nil, err
		}
		return ReprPointer{Offset: int(n)}, nil
	case codeShared32:
		n, err := r.BeU32()
		if err != nil {
			return nil, err
		}
		return ReprPointer{Offset: int(n)}, nil
	case codeBlock32:
		lenRaw, err := r.BeU24()
		if err != nil {
			return nil, err
		}
		tag, err := r.U8()
		if err != nil {
			return nil, err
		}
		return ReprBlock{Tag: tag, Len: int(lenRaw >> 2)}, nil
	case codeBlock64:
		w, err := r.BeU64()
		if err != nil {
			return nil, err
		}
		return ReprBlock{Tag: uint8(w & 0xFF), Len: int(w >> 10)}, nil
	case codeString8:
		n, err := r.U8()
		if err != nil {
			return nil, err
		}
		s, err := r.Take(int(n))
		if err != nil {
			return nil, err
		}
		return ReprString{Bytes: cloneBytes(s)}, nil
	case codeString32:
		n, err := r.BeU32()
		if err != nil {
			return nil, err
		}
		s, err := r.Take(int(n))
		if err != nil {
			return nil, err
		}
		return ReprString{Bytes: cloneBytes(s)}, nil
	case codeCodePointer:
		addr, err := r.BeU32()
		if err != nil {
			return nil, err
		}
		// Opaque digest of the code area.
		if _, err := r.Take(16); err != nil {
			return nil, err
		}
		return ReprCode{Addr: int64(addr)}, nil
	case codeCustom:
		return decodeCustom(r)
	default:
		return nil, Failf(r.Remaining(), "unhandled code: 0x%02x", b)
	}
}

// decodeCustom reads a NUL-terminated identifier and its payload. Only
// "_j" (a 63-bit unsigned integer) is recognized.
func decodeCustom(r *Reader) (Repr, error) {
	ident, err := r.CString()
	if err != nil {
		return nil, err
	}
	if string(ident) != "_j" {
		return nil, Failf(r.Remaining(), "unhandled custom code: %q", ident)
	}
	n, err := r.BeI64()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, Failf(r.Remaining(), "uint63 out of range: %d", n)
	}
	return ReprInt63{N: uint64(n)}, nil
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
