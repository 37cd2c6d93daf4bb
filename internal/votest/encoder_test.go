package votest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/vofile/internal/core"
)

func TestBuilderCellAccounting(t *testing.T) {
	e := &Builder{}
	e.Int(5)           // no cell
	e.Str([]byte("x")) // one cell
	e.Int63(7)         // one cell
	e.Block(0, 0)      // atom, no cell
	require.Equal(t, 2, e.Objects())
}

func TestBuilderSmallestForms(t *testing.T) {
	tests := []struct {
		name string
		emit func(e *Builder)
		want []byte
	}{
		{
			name: "small int",
			emit: func(e *Builder) { e.Int(0) },
			want: []byte{0x40},
		},
		{
			name: "int8",
			emit: func(e *Builder) { e.Int(-1) },
			want: []byte{0x00, 0xFF},
		},
		{
			name: "int16",
			emit: func(e *Builder) { e.Int(256) },
			want: []byte{0x01, 0x01, 0x00},
		},
		{
			name: "int32",
			emit: func(e *Builder) { e.Int(1 << 20) },
			want: []byte{0x02, 0x00, 0x10, 0x00, 0x00},
		},
		{
			name: "int64",
			emit: func(e *Builder) { e.Int(1 << 40) },
			want: []byte{0x03, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name: "small string",
			emit: func(e *Builder) { e.Str([]byte("M")) },
			want: []byte{0x21, 'M'},
		},
		{
			name: "small block",
			emit: func(e *Builder) { e.Block(1, 2) },
			want: []byte{0x80 | 0x01 | 2<<4},
		},
		{
			name: "block32 for big tag",
			emit: func(e *Builder) { e.Block(0x20, 1) },
			want: []byte{0x08, 0x00, 0x00, 0x04, 0x20},
		},
		{
			name: "shared8",
			emit: func(e *Builder) { e.Shared(1) },
			want: []byte{0x04, 0x01},
		},
		{
			name: "shared16",
			emit: func(e *Builder) { e.Shared(300) },
			want: []byte{0x05, 0x01, 0x2C},
		},
		{
			name: "int63",
			emit: func(e *Builder) { e.Int63(42) },
			want: []byte{0x12, '_', 'j', 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x2A},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Builder{}
			tt.emit(e)
			require.Equal(t, tt.want, e.Bytes())
		})
	}
}

// TestEncodeGraphRoundTrip checks the round-trip law: decoding a stream
// produced by the reference encoder and re-encoding the resulting graph
// reproduces the bytes exactly, sharing included.
func TestEncodeGraphRoundTrip(t *testing.T) {
	builds := []struct {
		name string
		emit func(e *Builder)
	}{
		{
			name: "immediate",
			emit: func(e *Builder) { e.Int(17) },
		},
		{
			name: "atom",
			emit: func(e *Builder) { e.Block(4, 0) },
		},
		{
			name: "flat block",
			emit: func(e *Builder) {
				e.Block(0, 3)
				e.Int(1)
				e.Str([]byte("two"))
				e.Int63(3)
			},
		},
		{
			name: "nested with sharing",
			emit: func(e *Builder) {
				e.Block(0, 3)
				e.Block(1, 1)
				e.Str([]byte("shared"))
				e.Shared(1)
				e.Shared(2)
			},
		},
	}

	for _, tt := range builds {
		t.Run(tt.name, func(t *testing.T) {
			e := &Builder{}
			tt.emit(e)

			m := core.NewMemory(e.Objects())
			r := core.NewReader(e.Bytes())
			root, err := core.Fill(m, r)
			require.NoError(t, err)
			require.Equal(t, 0, r.Remaining())

			out := &Builder{}
			EncodeGraph(out, m, root)
			require.Equal(t, e.Bytes(), out.Bytes())
			require.Equal(t, e.Objects(), out.Objects())
		})
	}
}

func TestBuildFileLayout(t *testing.T) {
	buf := BuildFile(MinimalBody(), MinimalBody())
	// magic + 2 * (24-byte header + 1-byte body + 16-byte digest)
	require.Len(t, buf, 4+2*41)
	require.Equal(t, []byte{0x00, 0x00, 0x23, 0x1F}, buf[:4])
	// First segment stops after its 1-byte body.
	require.Equal(t, []byte{0x00, 0x00, 0x00, 0x1D}, buf[4:8])
	require.Equal(t, []byte{0x84, 0x95, 0xA6, 0xBE}, buf[8:12])
}
