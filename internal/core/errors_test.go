package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFailf(t *testing.T) {
	err := Failf(12, "unhandled code: 0x%02x", 0x0B)
	require.Equal(t, []Frame{{Remaining: 12, Msg: "unhandled code: 0x0b"}}, err.Frames)
	require.Equal(t, "unhandled code: 0x0b (12 bytes from end)", err.Error())
}

func TestWrapAppendsOuterFrame(t *testing.T) {
	inner := Failf(10, "short read: need 4 bytes, have 2")
	err := Wrap(inner, 40, "summary segment")

	de := &Error{}
	require.True(t, errors.As(err, &de))
	require.Len(t, de.Frames, 2)
	require.Equal(t, Frame{Remaining: 10, Msg: "short read: need 4 bytes, have 2"}, de.Frames[0])
	require.Equal(t, Frame{Remaining: 40, Msg: "summary segment"}, de.Frames[1])
}

func TestWrapForeignError(t *testing.T) {
	err := Wrap(fmt.Errorf("digest: expected string of length 16, got length 3"), 16, "summary segment")
	de := &Error{}
	require.True(t, errors.As(err, &de))
	require.Len(t, de.Frames, 2)
	require.Equal(t, 16, de.Frames[0].Remaining)
}

func TestWrapNil(t *testing.T) {
	require.NoError(t, Wrap(nil, 0, "anything"))
}
