package memzip

import (
	"time"

	"github.com/meigma/memzip/codec"
	"github.com/meigma/memzip/internal/compressed"
)

// Entry is one file or directory of an Archive.
//
// Exported fields other than Name may be changed between Generate calls.
// Content is set through Archive.Add.
type Entry struct {
	// Name is the slash-separated path and the entry's key in its Archive.
	// Directory names end with "/". Rename with Remove and Add.
	Name string

	// Dir marks a directory. Directories carry no content and are always
	// written with STORE.
	Dir bool

	Comment string

	// Date is written with 2-second resolution in UTC.
	Date time.Time

	// UnixPermissions and DOSPermissions are nil unless set. A parsed
	// entry carries at most one, chosen by the platform that wrote it.
	UnixPermissions *uint16
	DOSPermissions  *uint8

	// Compression names the codec for this entry, overriding the
	// GenerateWithCompression option. Empty inherits.
	Compression string

	// CompressionOptions override GenerateWithCompressionOptions for this
	// entry. Nil inherits.
	CompressionOptions *codec.Options

	obj *compressed.Object
}

// Content returns the uncompressed content, decompressing it on first use.
// The returned slice must not be modified.
func (e *Entry) Content() ([]byte, error) {
	if e.obj == nil {
		return nil, nil
	}
	return e.obj.Content()
}

// Text returns the content as a string.
func (e *Entry) Text() (string, error) {
	b, err := e.Content()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CRC32 returns the CRC-32 of the content: the stored value for parsed
// entries, the computed one for entries built from content.
func (e *Entry) CRC32() uint32 {
	if e.obj == nil {
		return 0
	}
	return e.obj.CRC32()
}

// Method returns the compression method the content is currently held in.
func (e *Entry) Method() codec.Method {
	if e.obj == nil {
		return codec.MethodStore
	}
	return e.obj.Method()
}

// CompressedSize returns the length of the content as currently held.
func (e *Entry) CompressedSize() uint64 {
	if e.obj == nil {
		return 0
	}
	return e.obj.CompressedSize()
}

// Size returns the uncompressed content length.
func (e *Entry) Size() uint64 {
	if e.obj == nil {
		return 0
	}
	return e.obj.Size()
}

// IsDir reports whether e is a directory.
func (e *Entry) IsDir() bool { return e.Dir }

// EntryOption configures Archive.Add and Archive.AddDir.
type EntryOption func(*entryConfig)

type entryConfig struct {
	entry         Entry
	createFolders bool
}

// WithComment sets the entry comment.
func WithComment(comment string) EntryOption {
	return func(c *entryConfig) {
		c.entry.Comment = comment
	}
}

// WithDate sets the modification time (default: time of the Add call).
func WithDate(t time.Time) EntryOption {
	return func(c *entryConfig) {
		c.entry.Date = t
	}
}

// WithUnixPermissions sets the unix mode, including file type bits.
func WithUnixPermissions(mode uint16) EntryOption {
	return func(c *entryConfig) {
		c.entry.UnixPermissions = &mode
	}
}

// WithDOSPermissions sets the DOS attribute byte. Only the low 6 bits are
// written.
func WithDOSPermissions(attrs uint8) EntryOption {
	return func(c *entryConfig) {
		c.entry.DOSPermissions = &attrs
	}
}

// WithDir marks the entry as a directory.
func WithDir() EntryOption {
	return func(c *entryConfig) {
		c.entry.Dir = true
	}
}

// WithCreateFolders adds missing parent directories before the entry.
func WithCreateFolders() EntryOption {
	return func(c *entryConfig) {
		c.createFolders = true
	}
}

// WithCompression sets the entry's codec name, e.g. "DEFLATE".
func WithCompression(name string) EntryOption {
	return func(c *entryConfig) {
		c.entry.Compression = name
	}
}

// WithCompressionOptions sets the entry's codec options.
func WithCompressionOptions(opts codec.Options) EntryOption {
	return func(c *entryConfig) {
		c.entry.CompressionOptions = &opts
	}
}
