package ziptype

import (
	"errors"
	"fmt"
)

// Sentinel errors for archive operations.
//
//nolint:staticcheck // ST1005: "Corrupted zip" and the encryption message are matched verbatim by callers
var (
	// ErrCorrupted is returned for structural violations and failed integrity checks.
	ErrCorrupted = errors.New("Corrupted zip")

	// ErrUnsupportedFeature is returned for valid archives using features this
	// package does not implement.
	ErrUnsupportedFeature = errors.New("memzip: unsupported feature")

	// ErrUnsupportedInput is returned when a load source has no byte representation.
	ErrUnsupportedInput = errors.New("memzip: unsupported input")

	// ErrUnsupportedCompression is returned when a write names an unregistered codec.
	ErrUnsupportedCompression = errors.New("memzip: unsupported compression")

	// ErrUnsupportedOutputFormat is returned for an unknown output representation.
	ErrUnsupportedOutputFormat = errors.New("memzip: unsupported output format")

	// ErrDecodeHook is returned when a filename decode hook fails to produce a name.
	ErrDecodeHook = errors.New("memzip: filename decode hook failed")

	// ErrFieldTooLong is returned when a name or comment exceeds 0xFFFF encoded bytes.
	ErrFieldTooLong = errors.New("memzip: header field too long")

	// ErrInvalidName is returned when an entry name is empty.
	ErrInvalidName = errors.New("memzip: invalid entry name")

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = errors.New("memzip: size overflow")
)

// ErrEncrypted is returned when an entry's general-purpose flag marks encryption.
// It matches ErrUnsupportedFeature with errors.Is.
var ErrEncrypted error = &featureError{msg: "Encrypted zip are not supported"}

type featureError struct {
	msg string
}

func (e *featureError) Error() string { return e.msg }

func (e *featureError) Is(target error) bool { return target == ErrUnsupportedFeature }

// UnsupportedMethod returns an ErrUnsupportedFeature error for a compression
// method id that has no registered codec.
func UnsupportedMethod(method uint16, name string) error {
	return &featureError{msg: fmt.Sprintf("memzip: compression method %#04x unknown (inner file: %s)", method, name)}
}

// Corruptf returns an error wrapping ErrCorrupted with a formatted detail.
func Corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupted, fmt.Sprintf(format, args...))
}

// InputError reports a load source with no defined byte representation.
type InputError struct {
	// Kind names the offending input type, e.g. "chan int" or "time.Time".
	Kind string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("memzip: unsupported input type %s: no byte representation", e.Kind)
}

// Is reports whether target is ErrUnsupportedInput.
func (e *InputError) Is(target error) bool { return target == ErrUnsupportedInput }
