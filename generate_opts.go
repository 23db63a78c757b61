package memzip

import (
	"log/slog"

	"github.com/meigma/memzip/codec"
)

// generateConfig holds configuration for Generate.
type generateConfig struct {
	compression        string
	compressionOptions *codec.Options
	platform           Platform
	comment            *string
	encodeFileName     EncodeFunc
	mimeType           string
	registry           *codec.Registry
	workers            int
	zip64              Zip64Mode
	logger             *slog.Logger
}

func (c *generateConfig) getCompression() string {
	if c.compression == "" {
		return codec.NameStore
	}
	return c.compression
}

func (c *generateConfig) getCompressionOptions() codec.Options {
	if c.compressionOptions == nil {
		return codec.DefaultOptions()
	}
	return *c.compressionOptions
}

func (c *generateConfig) getRegistry() *codec.Registry {
	if c.registry == nil {
		return codec.DefaultRegistry()
	}
	return c.registry
}

// GenerateOption configures Generate and GenerateAs.
type GenerateOption func(*generateConfig)

// GenerateWithCompression sets the codec for entries without their own
// (default: "STORE"). Names are matched case-insensitively.
func GenerateWithCompression(name string) GenerateOption {
	return func(c *generateConfig) {
		c.compression = name
	}
}

// GenerateWithCompressionOptions sets codec options for entries without
// their own (default: codec.DefaultOptions()).
func GenerateWithCompressionOptions(opts codec.Options) GenerateOption {
	return func(c *generateConfig) {
		c.compressionOptions = &opts
	}
}

// GenerateWithPlatform sets the host recorded for entries without explicit
// permissions (default: PlatformDOS). PlatformUNIX writes mode 0o100664 for
// files and 0o40775 for directories.
func GenerateWithPlatform(p Platform) GenerateOption {
	return func(c *generateConfig) {
		c.platform = p
	}
}

// GenerateWithComment sets the archive comment, overriding Archive.Comment.
func GenerateWithComment(comment string) GenerateOption {
	return func(c *generateConfig) {
		c.comment = &comment
	}
}

// GenerateWithEncodeFileName sets a legacy encoder for names and comments.
// When the encoded bytes differ from UTF-8, the UTF-8 form is kept in a
// Unicode extra field.
func GenerateWithEncodeFileName(fn EncodeFunc) GenerateOption {
	return func(c *generateConfig) {
		c.encodeFileName = fn
	}
}

// GenerateWithMIMEType sets the MIME type of OutputBlob results
// (default: DefaultMIMEType).
func GenerateWithMIMEType(mimeType string) GenerateOption {
	return func(c *generateConfig) {
		c.mimeType = mimeType
	}
}

// GenerateWithRegistry sets the codecs available by name
// (default: a fresh STORE and DEFLATE registry).
func GenerateWithRegistry(r *codec.Registry) GenerateOption {
	return func(c *generateConfig) {
		c.registry = r
	}
}

// GenerateWithWorkers compresses up to n entries in parallel. Output is
// identical to sequential generation. Values below 2 disable parallelism.
func GenerateWithWorkers(n int) GenerateOption {
	return func(c *generateConfig) {
		c.workers = n
	}
}

// GenerateWithZip64 sets when zip64 records are written (default: Zip64Auto).
func GenerateWithZip64(mode Zip64Mode) GenerateOption {
	return func(c *generateConfig) {
		c.zip64 = mode
	}
}

// GenerateWithLogger sets the logger for Generate diagnostics.
// If not set, logging is disabled.
func GenerateWithLogger(logger *slog.Logger) GenerateOption {
	return func(c *generateConfig) {
		c.logger = logger
	}
}
