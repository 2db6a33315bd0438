package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	err := New(CodeEntryNotFound, "missing")
	require.Equal(t, CodeEntryNotFound, CodeOf(err))
	require.Equal(t, Code(""), CodeOf(errors.New("plain")))
	require.Equal(t, Code(""), CodeOf(nil))
}

func TestCodeSurvivesWrapping(t *testing.T) {
	inner := Errorf(CodeStorageCorrupt, "bad header in %s", "mind.log")
	outer := fmt.Errorf("open store: %w", inner)

	require.True(t, IsCorrupt(outer))
	require.Equal(t, CodeStorageCorrupt, CodeOf(outer))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(cause, CodeStorageUnwritable, "append failed")

	require.True(t, IsUnwritable(err))
	require.ErrorContains(t, err, "append failed")
	require.ErrorIs(t, err, cause)
}

func TestClassifiers(t *testing.T) {
	require.True(t, IsNotFound(New(CodeEntryNotFound, "x")))
	require.True(t, IsLockTimeout(New(CodeLockTimeout, "x")))
	require.True(t, IsDecode(New(CodeDecodeInvalid, "x")))
	require.False(t, IsNotFound(New(CodeLockTimeout, "x")))
	require.False(t, IsCorrupt(nil))
}
