// Package codec provides the compression registry used to read and write
// ZIP entries.
//
// A Registry maps ZIP method ids and symbolic names to Codec implementations.
// Registries are plain values: build one with NewRegistry or DefaultRegistry
// and pass it to the reader or writer. There is no package-level mutable
// registry, so tests can install fake codecs without affecting each other.
package codec

import (
	"github.com/klauspost/compress/flate"
)

// Method is a ZIP compression method id.
type Method uint16

// Built-in method ids.
const (
	MethodStore   Method = 0
	MethodDeflate Method = 8
)

// Built-in codec names.
const (
	NameStore   = "STORE"
	NameDeflate = "DEFLATE"
)

// DefaultLevel selects the codec's default compression level.
const DefaultLevel = flate.DefaultCompression

// Options carries per-call compression settings.
type Options struct {
	// Level is the compression level. Codecs without levels ignore it.
	Level int
}

// DefaultOptions returns Options with the codec default level.
func DefaultOptions() Options {
	return Options{Level: DefaultLevel}
}

// Codec compresses and decompresses whole entry payloads.
type Codec interface {
	// Method returns the ZIP method id written to headers.
	Method() Method

	// Name returns the symbolic name used to select the codec on write.
	Name() string

	// Compress returns the compressed form of data.
	Compress(data []byte, opts Options) ([]byte, error)

	// Decompress returns the decompressed form of data. size is the
	// uncompressed size declared by the archive; implementations must not
	// produce more than size bytes and report a mismatch as ErrCorrupted.
	Decompress(data []byte, size uint64) ([]byte, error)
}
