package plist17

import (
	"runtime"

	"github.com/cockroachdb/errors"
)

var (
	// ErrMalformedStream is returned when a stream violates the format:
	// truncated reads, misaligned container ends, cyclic references,
	// bad tag/inline combinations or undecodable text.
	ErrMalformedStream = errors.New("malformed bplist17 stream")

	// ErrUnsupportedType is returned for a tag selector with no defined meaning.
	ErrUnsupportedType = errors.New("unsupported bplist17 type")

	// ErrUnsupportedValue is returned when asked to encode something outside
	// the value model.
	ErrUnsupportedValue = errors.New("unsupported value")

	// ErrIntegerOutOfRange is returned for integers that do not fit in int64.
	ErrIntegerOutOfRange = errors.New("integer out of range")
)

// recoverError turns a panic raised by a parser back into an error. Runtime
// errors are real bugs and keep panicking.
func recoverError(r interface{}, format string) error {
	if _, ok := r.(runtime.Error); ok {
		panic(r)
	}
	err, ok := r.(error)
	if !ok {
		panic(r)
	}
	return errors.Wrapf(err, "%s", format)
}
