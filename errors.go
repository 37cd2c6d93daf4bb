package vofile

import (
	"errors"

	"github.com/scigolib/vofile/internal/core"
)

// DecodeError is the positional error produced by the decoder. It
// carries a stack of frames, deepest failure first; each frame records
// its position as bytes remaining to the end of the input.
type DecodeError = core.Error

// ErrorFrame is one level of decoding context inside a DecodeError.
type ErrorFrame = core.Frame

// Frames extracts the positional frames from a decode failure, or nil if
// err carries none.
func Frames(err error) []ErrorFrame {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Frames
	}
	return nil
}
