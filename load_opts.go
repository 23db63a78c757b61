package memzip

import (
	"log/slog"

	"github.com/meigma/memzip/codec"
)

// loadConfig holds configuration for Load.
type loadConfig struct {
	checkCRC32            bool
	createFolders         bool
	decodeFileName        DecodeFunc
	optimizedBinaryString bool
	base64                bool
	registry              *codec.Registry
	logger                *slog.Logger
}

func (c *loadConfig) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.New(slog.DiscardHandler)
}

func (c *loadConfig) getRegistry() *codec.Registry {
	if c.registry == nil {
		return codec.DefaultRegistry()
	}
	return c.registry
}

// LoadOption configures Load.
type LoadOption func(*loadConfig)

// LoadWithCheckCRC32 decompresses every entry during Load and fails with
// ErrCorrupted on the first checksum mismatch (default: false).
func LoadWithCheckCRC32(check bool) LoadOption {
	return func(c *loadConfig) {
		c.checkCRC32 = check
	}
}

// LoadWithCreateFolders adds missing parent directories for every entry
// (default: false).
func LoadWithCreateFolders(create bool) LoadOption {
	return func(c *loadConfig) {
		c.createFolders = create
	}
}

// LoadWithDecodeFileName sets the decoder for names and comments stored
// without the UTF-8 flag (default: UTF-8).
func LoadWithDecodeFileName(fn DecodeFunc) LoadOption {
	return func(c *loadConfig) {
		c.decodeFileName = fn
	}
}

// LoadWithOptimizedBinaryString reads string sources in place instead of
// copying them (default: false). The archive then references the string's
// memory for its lifetime.
func LoadWithOptimizedBinaryString(optimized bool) LoadOption {
	return func(c *loadConfig) {
		c.optimizedBinaryString = optimized
	}
}

// LoadWithBase64 decodes string sources as standard base64 (default: false).
func LoadWithBase64(decode bool) LoadOption {
	return func(c *loadConfig) {
		c.base64 = decode
	}
}

// LoadWithRegistry sets the codecs used to decompress content
// (default: a fresh STORE and DEFLATE registry).
func LoadWithRegistry(r *codec.Registry) LoadOption {
	return func(c *loadConfig) {
		c.registry = r
	}
}

// LoadWithLogger sets the logger for Load diagnostics.
// If not set, logging is disabled.
func LoadWithLogger(logger *slog.Logger) LoadOption {
	return func(c *loadConfig) {
		c.logger = logger
	}
}
