// Package write serializes entries into ZIP archive bytes.
//
// Writing is two passes over an in-memory buffer. The first pass compresses
// every entry (optionally in parallel) and emits local headers followed by
// content, recording where each local header starts. The second pass emits
// the central directory using those offsets, then the zip64 end records
// when any value outgrows its 32-bit field, then the classic end record
// and the archive comment.
package write

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/memzip/codec"
	"github.com/meigma/memzip/internal/compressed"
	"github.com/meigma/memzip/internal/crc"
	"github.com/meigma/memzip/internal/dostime"
	"github.com/meigma/memzip/internal/format"
	"github.com/meigma/memzip/internal/sizing"
	"github.com/meigma/memzip/internal/ziptype"
)

// Default unix modes for entries written for PlatformUNIX without explicit
// permissions.
const (
	DefaultDirMode  = 0o40775
	DefaultFileMode = 0o100664
)

// Version made by, low byte: the APPNOTE version the writer follows.
const (
	madeByDOS  = format.CreatorDOS<<8 | format.Version20
	madeByUnix = format.CreatorUnix<<8 | format.Version30
)

// Options configure Write.
type Options struct {
	Registry *codec.Registry

	// Compression names the codec for entries without their own.
	// Empty means STORE.
	Compression        string
	CompressionOptions codec.Options

	Platform ziptype.Platform
	Comment  string

	// EncodeName encodes non-empty names and comments into a legacy
	// encoding. Nil writes them as UTF-8, flagged when non-ASCII.
	EncodeName ziptype.EncodeFunc

	// Workers bounds parallel compression. Values below 2 compress
	// sequentially.
	Workers int

	// ForceZip64 writes zip64 records for every entry and the archive.
	ForceZip64 bool

	Logger *slog.Logger
}

func (o *Options) log() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// File is one entry to write.
type File struct {
	Name            string
	Dir             bool
	Comment         string
	Date            time.Time
	UnixPermissions *uint16
	DOSPermissions  *uint8

	// Compression and CompressionOptions override Options for this entry.
	Compression        string
	CompressionOptions *codec.Options

	// Object holds the content. Nil is empty content.
	Object *compressed.Object
}

// Result is the output of Write.
type Result struct {
	Data []byte

	// Objects holds each file's content in its written compression, in
	// input order.
	Objects []*compressed.Object

	Zip64 bool
}

// entry is a file prepared for emission.
type entry struct {
	name    []byte
	comment []byte
	extra   []byte // Unicode path and comment fields, shared by both headers
	flags   uint16
	madeBy  uint16
	attrs   uint32
	date    uint16
	clock   uint16
	obj     *compressed.Object
	offset  uint64
	zip64   bool // sizes carried in zip64 extra fields
}

// Write encodes files in order.
func Write(files []File, opts Options) (*Result, error) {
	log := opts.log()
	registry := opts.Registry
	if registry == nil {
		registry = codec.DefaultRegistry()
	}

	objects, err := compress(files, registry, &opts)
	if err != nil {
		return nil, err
	}

	entries := make([]entry, len(files))
	size := format.EOCDLen + format.Zip64EOCDLen + format.Zip64LocatorLen
	for i := range files {
		e, err := prepare(&files[i], objects[i], &opts)
		if err != nil {
			return nil, err
		}
		entries[i] = e
		size += 2*(len(e.name)+len(e.extra)) + len(e.comment) + len(e.obj.Compressed()) +
			format.LocalHeaderLen + format.CentralHeaderLen + 2*zip64ExtraMax
	}

	// The end record has no extra field, so only the encoded form is kept.
	archiveComment, _, err := encodeText(opts.Comment, opts.EncodeName)
	if err != nil {
		return nil, fmt.Errorf("archive comment: %w", err)
	}
	if len(archiveComment) > format.MaxCommentLen {
		return nil, fmt.Errorf("%w: archive comment is %d bytes", ziptype.ErrFieldTooLong, len(archiveComment))
	}

	buf := make(format.WriteBuf, 0, size+len(archiveComment))
	for i := range entries {
		writeLocal(&buf, &entries[i], opts.ForceZip64)
	}

	cdStart := uint64(len(buf))
	zip64 := opts.ForceZip64
	for i := range entries {
		if writeCentral(&buf, &entries[i], opts.ForceZip64) {
			zip64 = true
		}
	}
	cdSize := uint64(len(buf)) - cdStart
	count := uint64(len(entries))

	eocd := format.EOCD{
		EntriesOnDisk: uint16(min(count, format.Sentinel16)), //nolint:gosec // clamped
		Entries:       uint16(min(count, format.Sentinel16)), //nolint:gosec // clamped
		CDSize:        uint32(min(cdSize, format.Sentinel32)), //nolint:gosec // clamped
		CDOffset:      uint32(min(cdStart, format.Sentinel32)), //nolint:gosec // clamped
		CommentLen:    uint16(len(archiveComment)), //nolint:gosec // checked above
	}
	if count >= format.Sentinel16 || sizing.Exceeds32(cdSize) || sizing.Exceeds32(cdStart) {
		zip64 = true
	}
	if zip64 {
		recOff := uint64(len(buf))
		rec := format.Zip64EOCD{
			RecordSize:    format.Zip64EOCDFixedSize,
			VersionMadeBy: madeByUnix,
			VersionNeeded: format.Version45,
			EntriesOnDisk: count,
			Entries:       count,
			CDSize:        cdSize,
			CDOffset:      cdStart,
		}
		rec.Append(&buf)
		loc := format.Zip64Locator{Offset: recOff, TotalDisks: 1}
		loc.Append(&buf)
		if opts.ForceZip64 {
			eocd.EntriesOnDisk = format.Sentinel16
			eocd.Entries = format.Sentinel16
			eocd.CDSize = format.Sentinel32
			eocd.CDOffset = format.Sentinel32
		}
		log.Debug("wrote zip64 end of central directory",
			slog.Uint64("offset", recOff),
			slog.Uint64("entries", count))
	}
	eocd.Append(&buf)
	buf.Bytes(archiveComment)

	log.Info("generated archive",
		slog.Int("entries", len(entries)),
		slog.Int("bytes", len(buf)),
		slog.Bool("zip64", zip64))

	return &Result{Data: buf, Objects: objects, Zip64: zip64}, nil
}

// compress encodes every file with its codec. Errors are reported for the
// first failing file in input order.
func compress(files []File, registry *codec.Registry, opts *Options) ([]*compressed.Object, error) {
	objects := make([]*compressed.Object, len(files))
	errs := make([]error, len(files))

	one := func(i int) error {
		obj, err := compressFile(&files[i], registry, opts)
		if err != nil {
			errs[i] = err
			return err
		}
		objects[i] = obj
		return nil
	}

	if opts.Workers < 2 || len(files) < 2 {
		for i := range files {
			if err := one(i); err != nil {
				return nil, err
			}
		}
		return objects, nil
	}

	// Every entry runs so the lowest failing index is known.
	var eg errgroup.Group
	eg.SetLimit(opts.Workers)
	for i := range files {
		eg.Go(func() error { return one(i) })
	}
	if err := eg.Wait(); err != nil {
		for _, e := range errs {
			if e != nil {
				return nil, e
			}
		}
		return nil, err
	}
	opts.log().Debug("compressed entries in parallel",
		slog.Int("entries", len(files)),
		slog.Int("workers", opts.Workers))
	return objects, nil
}

func compressFile(f *File, registry *codec.Registry, opts *Options) (*compressed.Object, error) {
	obj := f.Object
	if f.Dir || obj == nil {
		return compressed.FromContent(nil, f.Name), nil
	}

	name := f.Compression
	if name == "" {
		name = opts.Compression
	}
	if name == "" || obj.Size() == 0 {
		name = codec.NameStore
	}
	c, err := registry.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name, err)
	}
	copts := opts.CompressionOptions
	if f.CompressionOptions != nil {
		copts = *f.CompressionOptions
	}
	return obj.Compress(c, copts)
}

// prepare encodes the header fields of f.
func prepare(f *File, obj *compressed.Object, opts *Options) (entry, error) {
	name, nameExtra, err := encodeText(f.Name, opts.EncodeName)
	if err != nil {
		return entry{}, fmt.Errorf("name %q: %w", f.Name, err)
	}
	comment, commentExtra, err := encodeText(f.Comment, opts.EncodeName)
	if err != nil {
		return entry{}, fmt.Errorf("comment of %s: %w", f.Name, err)
	}

	var extra format.WriteBuf
	if nameExtra != nil {
		format.AppendExtra(&extra, format.UnicodePathExtraID, unicodeExtra(name, nameExtra))
	}
	if commentExtra != nil {
		format.AppendExtra(&extra, format.UnicodeCommentExtraID, unicodeExtra(comment, commentExtra))
	}

	if err := checkLen("name", f.Name, len(name)); err != nil {
		return entry{}, err
	}
	if err := checkLen("comment", f.Name, len(comment)); err != nil {
		return entry{}, err
	}
	// Leave room for a zip64 field of three values.
	if err := checkLen("extra field", f.Name, len(extra)+zip64ExtraMax); err != nil {
		return entry{}, err
	}

	e := entry{
		name:    name,
		comment: comment,
		extra:   extra,
		obj:     obj,
	}
	if opts.EncodeName == nil && (!isASCII(f.Name) || !isASCII(f.Comment)) {
		e.flags |= format.FlagUTF8
	}
	e.madeBy, e.attrs = attributes(f, opts.Platform)
	e.date, e.clock = dostime.Encode(f.Date)
	return e, nil
}

const zip64ExtraMax = 4 + 3*8

func checkLen(field, name string, n int) error {
	if n > format.MaxCommentLen {
		return fmt.Errorf("%w: %s of %s is %d bytes", ziptype.ErrFieldTooLong, field, name, n)
	}
	return nil
}

// encodeText returns the header bytes for s. When the encoder produces
// bytes other than the UTF-8 form, that form is also returned for a Unicode
// extra field.
func encodeText(s string, enc ziptype.EncodeFunc) (raw, utf8 []byte, err error) {
	if enc == nil || s == "" {
		return []byte(s), nil, nil
	}
	raw, err = enc(s)
	if err != nil {
		return nil, nil, fmt.Errorf("encode hook: %w", err)
	}
	if string(raw) == s {
		return raw, nil, nil
	}
	return raw, []byte(s), nil
}

func unicodeExtra(raw, utf8 []byte) []byte {
	u := format.UnicodeExtra{Version: 1, CRC32: crc.Checksum(raw), Value: utf8}
	return u.Bytes()
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// attributes returns the version made by and external attributes for f.
// Explicit unix permissions select the unix layout, explicit DOS
// permissions the DOS layout; otherwise the platform decides.
func attributes(f *File, platform ziptype.Platform) (madeBy uint16, attrs uint32) {
	if f.Dir {
		attrs = format.DOSDirectoryAttr
	}
	switch {
	case f.UnixPermissions != nil:
		return madeByUnix, attrs | uint32(*f.UnixPermissions)<<16
	case f.DOSPermissions != nil:
		return madeByDOS, attrs | uint32(*f.DOSPermissions&format.DOSAttrMask)
	case platform == ziptype.PlatformUNIX:
		mode := uint32(DefaultFileMode)
		if f.Dir {
			mode = DefaultDirMode
		}
		return madeByUnix, attrs | mode<<16
	default:
		return madeByDOS, attrs
	}
}

func writeLocal(buf *format.WriteBuf, e *entry, force bool) {
	e.offset = uint64(len(*buf))
	usize := e.obj.Size()
	csize := e.obj.CompressedSize()
	e.zip64 = force || sizing.Exceeds32(usize) || sizing.Exceeds32(csize)

	h := format.LocalHeader{
		VersionNeeded:    format.Version20,
		Flags:            e.flags,
		Method:           uint16(e.obj.Method()),
		ModTime:          e.clock,
		ModDate:          e.date,
		CRC32:            e.obj.CRC32(),
		CompressedSize:   uint32(csize), //nolint:gosec // replaced by a sentinel below when too large
		UncompressedSize: uint32(usize), //nolint:gosec // replaced by a sentinel below when too large
		NameLen:          uint16(len(e.name)), //nolint:gosec // checked in prepare
	}
	var z64 format.WriteBuf
	if e.zip64 {
		h.VersionNeeded = format.Version45
		h.CompressedSize = format.Sentinel32
		h.UncompressedSize = format.Sentinel32
		var z format.WriteBuf
		z.Uint64(usize)
		z.Uint64(csize)
		format.AppendExtra(&z64, format.Zip64ExtraID, z)
	}
	h.ExtraLen = uint16(len(z64) + len(e.extra)) //nolint:gosec // checked in prepare

	h.Append(buf)
	buf.Bytes(e.name)
	buf.Bytes(z64)
	buf.Bytes(e.extra)
	buf.Bytes(e.obj.Compressed())
}

// writeCentral emits the central header for e and reports whether it needed
// zip64 fields.
func writeCentral(buf *format.WriteBuf, e *entry, force bool) bool {
	usize := e.obj.Size()
	csize := e.obj.CompressedSize()
	h := format.CentralHeader{
		VersionMadeBy:    e.madeBy,
		VersionNeeded:    format.Version20,
		Flags:            e.flags,
		Method:           uint16(e.obj.Method()),
		ModTime:          e.clock,
		ModDate:          e.date,
		CRC32:            e.obj.CRC32(),
		CompressedSize:   uint32(csize), //nolint:gosec // replaced by a sentinel below when too large
		UncompressedSize: uint32(usize), //nolint:gosec // replaced by a sentinel below when too large
		NameLen:          uint16(len(e.name)), //nolint:gosec // checked in prepare
		CommentLen:       uint16(len(e.comment)), //nolint:gosec // checked in prepare
		ExternalAttrs:    e.attrs,
		LocalOffset:      uint32(e.offset), //nolint:gosec // replaced by a sentinel below when too large
	}

	var z format.WriteBuf
	if e.zip64 {
		h.UncompressedSize = format.Sentinel32
		h.CompressedSize = format.Sentinel32
		z.Uint64(usize)
		z.Uint64(csize)
	}
	if force || sizing.Exceeds32(e.offset) {
		h.LocalOffset = format.Sentinel32
		z.Uint64(e.offset)
	}
	var z64 format.WriteBuf
	if len(z) > 0 {
		h.VersionNeeded = format.Version45
		format.AppendExtra(&z64, format.Zip64ExtraID, z)
	}
	h.ExtraLen = uint16(len(z64) + len(e.extra)) //nolint:gosec // checked in prepare

	h.Append(buf)
	buf.Bytes(e.name)
	buf.Bytes(z64)
	buf.Bytes(e.extra)
	buf.Bytes(e.comment)
	return len(z) > 0
}
