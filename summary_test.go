package vofile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/vofile/internal/votest"
)

// encodeDirPath emits the on-disk cons-list for segments, head-last in
// source order: the first stored head is the final path segment.
func encodeDirPath(e *votest.Builder, segments []string) {
	if len(segments) == 0 {
		e.Int(0)
		return
	}
	e.Block(0, 2)
	e.Str([]byte(segments[len(segments)-1]))
	encodeDirPath(e, segments[:len(segments)-1])
}

func encodeDigest(e *votest.Builder, d [16]byte) {
	e.Block(0, 1)
	e.Str(d[:])
}

func TestDirPathEmpty(t *testing.T) {
	b, d := fillBytes(t, func(e *votest.Builder) { e.Int(0) })
	got, err := dirPath()(b, d)
	require.NoError(t, err)
	require.Empty(t, got.Segments)
}

func TestDirPathSingleSegment(t *testing.T) {
	b, d := fillBytes(t, func(e *votest.Builder) { encodeDirPath(e, []string{"M"}) })
	got, err := dirPath()(b, d)
	require.NoError(t, err)
	require.Equal(t, []string{"M"}, got.Segments)
}

func TestDirPathOrder(t *testing.T) {
	b, d := fillBytes(t, func(e *votest.Builder) {
		encodeDirPath(e, []string{"Lib", "Init", "Datatypes"})
	})
	got, err := dirPath()(b, d)
	require.NoError(t, err)
	require.Equal(t, []string{"Lib", "Init", "Datatypes"}, got.Segments)
	require.Equal(t, "Lib.Init.Datatypes", got.String())
}

func TestDirPathSharedTail(t *testing.T) {
	// Two paths sharing one cons cell project to the same *DirPath.
	b, d := fillBytes(t, func(e *votest.Builder) {
		e.Block(0, 2)
		encodeDirPath(e, []string{"A"})
		e.Shared(2)
	})
	got, err := PairOf(dirPath(), dirPath())(b, d)
	require.NoError(t, err)
	require.Same(t, got.Fst, got.Snd)
	require.Equal(t, []string{"A"}, got.Fst.Segments)
}

func TestDirPathBadShape(t *testing.T) {
	b, d := fillBytes(t, func(e *votest.Builder) { e.Int(1) })
	_, err := dirPath()(b, d)
	require.Error(t, err)
	require.Contains(t, err.Error(), "dir_path: expected pointer or int 0")
}

func TestDirPathInvalidUTF8(t *testing.T) {
	b, d := fillBytes(t, func(e *votest.Builder) {
		e.Block(0, 2)
		e.Str([]byte{0xFF, 0xFE})
		e.Int(0)
	})
	_, err := dirPath()(b, d)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid UTF-8")
}

func TestDigest(t *testing.T) {
	var want [16]byte
	for i := range want {
		want[i] = byte(i)
	}
	b, d := fillBytes(t, func(e *votest.Builder) { encodeDigest(e, want) })
	got, err := digest()(b, d)
	require.NoError(t, err)
	require.Equal(t, DigestBytes(want), got)
	require.Equal(t, "000102030405060708090a0b0c0d0e0f", got.String())
}

func TestDigestWrongLength(t *testing.T) {
	b, d := fillBytes(t, func(e *votest.Builder) {
		e.Block(0, 1)
		e.Str([]byte("abc"))
	})
	_, err := digest()(b, d)
	require.Error(t, err)
	require.Contains(t, err.Error(), "digest: expected string of length 16, got length 3")
}

func TestSummaryProjection(t *testing.T) {
	var dig [16]byte
	for i := range dig {
		dig[i] = 0xD0
	}
	b, d := fillBytes(t, func(e *votest.Builder) {
		e.Block(0, 3)
		encodeDirPath(e, []string{"M"})
		// imports
		e.Block(0, 2)
		encodeDirPath(e, []string{"A"})
		encodeDirPath(e, []string{"B", "C"})
		// deps
		e.Block(0, 1)
		e.Block(0, 2)
		encodeDirPath(e, []string{"A"})
		encodeDigest(e, dig)
	})
	got, err := summarySchema(b, d)
	require.NoError(t, err)
	require.Equal(t, []string{"M"}, got.Name.Segments)
	require.Len(t, got.Imports, 2)
	require.Equal(t, []string{"A"}, got.Imports[0].Segments)
	require.Equal(t, []string{"B", "C"}, got.Imports[1].Segments)
	require.Len(t, got.Deps, 1)
	require.Equal(t, []string{"A"}, got.Deps[0].Path.Segments)
	require.Equal(t, DigestBytes(dig), got.Deps[0].Digest)
}

func TestSummaryProjectionWrongArity(t *testing.T) {
	b, d := fillBytes(t, func(e *votest.Builder) {
		e.Block(0, 2)
		encodeDirPath(e, []string{"M"})
		e.Block(0, 0)
	})
	_, err := summarySchema(b, d)
	require.Error(t, err)
	require.Contains(t, err.Error(), "summary_disk: expected block length was 3, actual block length was 2")
}
