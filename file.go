// Package vofile provides a pure Go decoder for compiled-library files
// (.vo) produced by a proof-assistant toolchain. A file is a sequence of
// marshalled object-graph segments with a trailing MD5 checksum; the
// summary segment is decoded to typed values, the remaining segments are
// decoded generically and validated.
package vofile

import (
	"crypto/md5"
	"fmt"
	"os"

	"github.com/scigolib/vofile/internal/core"
)

// Magic is the 4-byte big-endian integer opening every .vo file.
const Magic int32 = 8991

// Segment order is fixed; each segment's stop offset determines where
// the next begins.
var segmentNames = [...]string{"summary", "library", "opaque constants", "tasks", "table"}

// SegmentInfo describes one decoded segment.
type SegmentInfo struct {
	Name    string
	Stop    int // absolute file offset where the body ends
	Length  int // declared body length in bytes
	Objects int // declared object count
	Digest  DigestBytes
}

// File is a fully decoded and checksum-verified compiled library.
type File struct {
	Summary  *Summary
	Segments []SegmentInfo
	Checksum DigestBytes // trailing MD5 over the file prefix
}

// Open reads and decodes the file at path.
func Open(path string) (*File, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vofile: %w", err)
	}
	return Decode(buf)
}

// Decode decodes a complete .vo file from buf. The buffer is borrowed
// read-only for the duration of the call.
func Decode(buf []byte) (*File, error) {
	r := core.NewReader(buf)
	magic, err := r.BeI32()
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, core.Failf(r.Remaining(), "bad file magic %d, want %d", magic, Magic)
	}

	f := &File{}
	for i, name := range segmentNames {
		seg, err := core.ReadSegment(r)
		if err != nil {
			return nil, core.Wrap(err, r.Remaining(), name+" segment")
		}
		info := SegmentInfo{
			Name:    name,
			Stop:    int(seg.Header.Stop),
			Length:  int(seg.Header.Length),
			Objects: int(seg.Header.Objects),
			Digest:  DigestBytes(seg.Digest),
		}
		f.Segments = append(f.Segments, info)
		if i == 0 {
			b := NewBinder(seg.Memory)
			summary, err := summarySchema(b, seg.Root)
			if err != nil {
				return nil, core.Wrap(err, r.Remaining(), "summary segment")
			}
			f.Summary = summary
		}
	}

	// The table segment's digest slot doubles as the file checksum: its
	// stop offset is where the checksum begins.
	last := f.Segments[len(f.Segments)-1]
	want := last.Digest
	got := DigestBytes(md5.Sum(buf[:last.Stop]))
	if got != want {
		return nil, core.Failf(r.Remaining(), "checksum mismatch: should be %s, was %s", want, got)
	}
	f.Checksum = want

	if r.Remaining() != 0 {
		return nil, core.Failf(r.Remaining(), "expected end of file, %d bytes remain", r.Remaining())
	}
	return f, nil
}
