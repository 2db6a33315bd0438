// Package errs defines the machine-readable error taxonomy for the memory
// core. Errors carry a dotted code so callers can branch on failure class
// without matching message strings.
package errs

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeDecodeInvalid Code = "codec.decode.invalid"

	CodeStorageUnwritable Code = "storage.unwritable"
	CodeStorageCorrupt    Code = "storage.corrupt"
	CodeStorageIOFailure  Code = "storage.io_failure"
	CodeEntryNotFound     Code = "storage.entry.not_found"

	CodeLockTimeout Code = "lock.acquire.timeout"

	CodeFlushFailure Code = "buffer.flush.failure"

	CodeConfigLoadFailure Code = "config.load.failure"
)

// New creates an error with the given code.
func New(code Code, msg string) error {
	return oops.Code(code).New(msg)
}

// Errorf creates a formatted error with the given code.
func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

// Wrap attaches a code and message to an existing error. Returns nil for nil.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return oops.Code(code).Wrapf(err, "%s", msg)
}

// Wrapf attaches a code and formatted message to an existing error.
func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return oops.Code(code).Wrapf(err, format, args...)
}

// CodeOf extracts the code from an error chain, or "" if none is present.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}
	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}
	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

// HasCode reports whether err carries exactly the given code.
func HasCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return strings.HasSuffix(string(CodeOf(err)), "not_found")
}

func IsCorrupt(err error) bool {
	return HasCode(err, CodeStorageCorrupt)
}

func IsUnwritable(err error) bool {
	return HasCode(err, CodeStorageUnwritable)
}

func IsLockTimeout(err error) bool {
	return HasCode(err, CodeLockTimeout)
}

func IsDecode(err error) bool {
	return HasCode(err, CodeDecodeInvalid)
}
