package memzip

import "github.com/meigma/memzip/internal/ziptype"

// Errors re-exported from ziptype.
var (
	// ErrCorrupted is returned for structural violations and failed integrity
	// checks. Its message starts with "Corrupted zip".
	ErrCorrupted = ziptype.ErrCorrupted

	// ErrUnsupportedFeature is returned for valid archives using features this
	// package does not implement, such as unknown compression methods.
	ErrUnsupportedFeature = ziptype.ErrUnsupportedFeature

	// ErrEncrypted is returned for encrypted entries. It matches
	// ErrUnsupportedFeature.
	ErrEncrypted = ziptype.ErrEncrypted

	// ErrUnsupportedInput is returned when a Load source has no byte
	// representation. Use errors.As with *InputError for the offending kind.
	ErrUnsupportedInput = ziptype.ErrUnsupportedInput

	// ErrUnsupportedCompression is returned when Generate names an
	// unregistered codec.
	ErrUnsupportedCompression = ziptype.ErrUnsupportedCompression

	// ErrUnsupportedOutputFormat is returned by GenerateAs for an unknown
	// OutputType.
	ErrUnsupportedOutputFormat = ziptype.ErrUnsupportedOutputFormat

	// ErrDecodeHook is returned when a filename decode hook fails or returns
	// an empty name.
	ErrDecodeHook = ziptype.ErrDecodeHook

	// ErrFieldTooLong is returned when a name or comment exceeds 0xFFFF
	// encoded bytes.
	ErrFieldTooLong = ziptype.ErrFieldTooLong

	// ErrInvalidName is returned when an entry name is empty.
	ErrInvalidName = ziptype.ErrInvalidName

	// ErrSizeOverflow is returned when a size does not fit in memory.
	ErrSizeOverflow = ziptype.ErrSizeOverflow
)

// InputError reports a Load source with no byte representation.
type InputError = ziptype.InputError
