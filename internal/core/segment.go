package core

import "bytes"

// segmentMagic introduces every segment header.
var segmentMagic = []byte{0x84, 0x95, 0xA6, 0xBE}

// SegmentHeader is the fixed-layout header preceding a segment body. All
// fields are big-endian signed 32-bit integers on disk.
type SegmentHeader struct {
	Stop    int32 // absolute file offset at which the body ends
	Length  int32 // byte length of the body
	Objects int32 // declared object count
	Size32  int32
	Size64  int32 // memory cell count, checked after the fill
}

// Segment is one fully decoded segment: its header, the populated memory,
// the untyped root and the 16-byte trailing digest.
type Segment struct {
	Header SegmentHeader
	Memory *Memory
	Root   Data
	Digest []byte
}

// ReadSegment decodes one segment starting at the reader's current
// position and validates its post-conditions: the memory cell count must
// equal size64, the body must consume exactly the declared length, and
// the reader must land on the declared stop offset.
func ReadSegment(r *Reader) (*Segment, error) {
	stop, err := r.BeI32()
	if err != nil {
		return nil, err
	}
	hdr, err := readSegmentHeader(r)
	if err != nil {
		return nil, err
	}
	hdr.Stop = stop

	bodyStart := r.Remaining()
	mem := NewMemory(int(hdr.Size64))
	root, err := Fill(mem, r)
	if err != nil {
		return nil, err
	}
	if mem.Len() != int(hdr.Size64) {
		return nil, Failf(r.Remaining(), "memory should be length %d, was actually %d", hdr.Size64, mem.Len())
	}
	if consumed := bodyStart - r.Remaining(); consumed != int(hdr.Length) {
		return nil, Failf(r.Remaining(), "expected to consume %d bytes, actually consumed %d", hdr.Length, consumed)
	}
	if r.Offset() != int(hdr.Stop) {
		return nil, Failf(r.Remaining(), "expected to stop at %d, actually stopped at %d", hdr.Stop, r.Offset())
	}
	digest, err := r.Take(16)
	if err != nil {
		return nil, err
	}
	return &Segment{Header: hdr, Memory: mem, Root: root, Digest: digest}, nil
}

func readSegmentHeader(r *Reader) (SegmentHeader, error) {
	magic, err := r.Take(4)
	if err != nil {
		return SegmentHeader{}, err
	}
	if !bytes.Equal(magic, segmentMagic) {
		return SegmentHeader{}, Failf(r.Remaining(), "bad segment magic % x", magic)
	}
	var hdr SegmentHeader
	if hdr.Length, err = r.BeI32(); err != nil {
		return SegmentHeader{}, err
	}
	if hdr.Objects, err = r.BeI32(); err != nil {
		return SegmentHeader{}, err
	}
	if hdr.Size32, err = r.BeI32(); err != nil {
		return SegmentHeader{}, err
	}
	if hdr.Size64, err = r.BeI32(); err != nil {
		return SegmentHeader{}, err
	}
	return hdr, nil
}
