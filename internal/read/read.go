// Package read parses ZIP archives held in memory.
//
// Parse locates the end of central directory record by scanning backward,
// corrects offsets for bytes prepended before the archive, resolves zip64
// records and extra fields, and slices each entry's compressed bytes out of
// the input without copying. Entry sizes always come from the central
// directory; data descriptors are never consulted.
package read

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/meigma/memzip/codec"
	"github.com/meigma/memzip/internal/compressed"
	"github.com/meigma/memzip/internal/crc"
	"github.com/meigma/memzip/internal/dostime"
	"github.com/meigma/memzip/internal/format"
	"github.com/meigma/memzip/internal/sizing"
	"github.com/meigma/memzip/internal/ziptype"
)

// Options configure Parse.
type Options struct {
	// Registry resolves method ids when entry content is first accessed.
	Registry *codec.Registry

	// DecodeName decodes names and comments stored without the UTF-8 flag.
	// Nil decodes them as UTF-8.
	DecodeName ziptype.DecodeFunc

	// CheckCRC32 decompresses every entry during Parse and compares its
	// checksum with the stored one.
	CheckCRC32 bool

	Logger *slog.Logger
}

func (o *Options) log() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// File is one parsed entry.
type File struct {
	Name            string
	Comment         string
	Date            time.Time
	Dir             bool
	UnixPermissions *uint16
	DOSPermissions  *uint8
	Object          *compressed.Object
}

// Archive is the result of Parse.
type Archive struct {
	Files   []File
	Comment string

	// Zip64 reports whether zip64 end records were used.
	Zip64 bool

	// Shift is the number of bytes found before the archive's first record.
	Shift uint64
}

// directory locates the central directory.
type directory struct {
	end        int // offset of the classic EOCD record
	entries    uint64
	size       uint64
	offset     uint64
	comment    []byte
	zip64      bool
	recordSize uint64
}

type parser struct {
	data  []byte
	opts  Options
	log   *slog.Logger
	shift uint64
}

// Parse reads the archive in data. The returned entries reference data
// directly, so it must not be modified afterward.
func Parse(data []byte, opts Options) (*Archive, error) {
	p := &parser{data: data, opts: opts, log: opts.log()}

	dir, err := p.readEnd()
	if err != nil {
		return nil, err
	}
	if err := p.correctOffsets(&dir); err != nil {
		return nil, err
	}

	files, err := p.readCentralDirectory(&dir)
	if err != nil {
		return nil, err
	}

	comment, err := p.decode(dir.comment, 0, nil, false)
	if err != nil {
		return nil, fmt.Errorf("archive comment: %w", err)
	}

	if opts.CheckCRC32 {
		for i := range files {
			if err := files[i].Object.Verify(); err != nil {
				return nil, err
			}
		}
	}

	p.log.Debug("parsed archive",
		slog.Int("entries", len(files)),
		slog.Bool("zip64", dir.zip64),
		slog.Uint64("shift", p.shift))

	return &Archive{
		Files:   files,
		Comment: comment,
		Zip64:   dir.zip64,
		Shift:   p.shift,
	}, nil
}

// readEnd finds the EOCD record within the last 22+0xFFFF bytes and, when
// present, the zip64 record it points to.
func (p *parser) readEnd() (directory, error) {
	floor := len(p.data) - format.EOCDLen - format.MaxCommentLen
	// The whole fixed record must fit after the signature.
	off := format.LastSignature(p.data, format.EOCDSignature, floor, len(p.data)-format.EOCDLen+4)
	if off < 0 {
		return directory{}, ziptype.Corruptf("can't find end of central directory")
	}
	eocd, _ := format.DecodeEOCD(p.data[off:])

	commentStart := off + format.EOCDLen
	commentEnd, ok := sizing.Span(uint64(commentStart), uint64(eocd.CommentLen), len(p.data)) //nolint:gosec // offsets are non-negative
	if !ok {
		return directory{}, ziptype.Corruptf("archive comment exceeds data (%d bytes at offset %d)", eocd.CommentLen, commentStart)
	}

	dir := directory{
		end:     off,
		entries: uint64(eocd.Entries),
		size:    uint64(eocd.CDSize),
		offset:  uint64(eocd.CDOffset),
		comment: p.data[commentStart:commentEnd],
	}

	sentineled := eocd.Entries == format.Sentinel16 ||
		eocd.EntriesOnDisk == format.Sentinel16 ||
		eocd.CDSize == format.Sentinel32 ||
		eocd.CDOffset == format.Sentinel32

	locOff := off - format.Zip64LocatorLen
	if !format.HasSignature(p.data, locOff, format.Zip64LocatorSignature) {
		if !sentineled {
			return dir, nil
		}
		locOff = format.LastSignature(p.data, format.Zip64LocatorSignature, 0, off)
		if locOff < 0 {
			return directory{}, ziptype.Corruptf("can't find the ZIP64 end of central directory locator")
		}
	}
	loc, ok := format.DecodeZip64Locator(p.data[locOff:])
	if !ok {
		return directory{}, ziptype.Corruptf("truncated ZIP64 end of central directory locator")
	}

	var recOff int
	if loc.Offset < uint64(len(p.data)) && format.HasSignature(p.data, int(loc.Offset), format.Zip64EOCDSignature) { //nolint:gosec // bounded by len
		recOff = int(loc.Offset) //nolint:gosec // bounded by len
	} else {
		// Bytes before the archive shift the locator's offset too.
		recOff = format.LastSignature(p.data, format.Zip64EOCDSignature, 0, locOff)
		if recOff < 0 {
			return directory{}, ziptype.Corruptf("can't find the ZIP64 end of central directory")
		}
	}
	rec, ok := format.DecodeZip64EOCD(p.data[recOff:])
	if !ok {
		return directory{}, ziptype.Corruptf("truncated ZIP64 end of central directory")
	}

	dir.zip64 = true
	dir.recordSize = rec.RecordSize
	if eocd.Entries == format.Sentinel16 {
		dir.entries = rec.Entries
	}
	if eocd.CDSize == format.Sentinel32 {
		dir.size = rec.CDSize
	}
	if eocd.CDOffset == format.Sentinel32 {
		dir.offset = rec.CDOffset
	}
	p.log.Debug("zip64 end of central directory",
		slog.Int("offset", recOff),
		slog.Uint64("entries", dir.entries))
	return dir, nil
}

// correctOffsets compares where the central directory should end with where
// the EOCD actually is. Extra bytes mean data was prepended to the archive.
func (p *parser) correctOffsets(dir *directory) error {
	expected, ok := sizing.AddUint64(dir.offset, dir.size)
	if ok && dir.zip64 {
		// The zip64 record's size field excludes its leading 12 bytes.
		expected, ok = sizing.AddUint64(expected, format.Zip64LocatorLen+12)
		if ok {
			expected, ok = sizing.AddUint64(expected, dir.recordSize)
		}
	}
	actual := uint64(dir.end) //nolint:gosec // offsets are non-negative
	if !ok || expected > actual {
		if !ok {
			return ziptype.Corruptf("central directory offset overflows")
		}
		return ziptype.Corruptf("missing %d bytes", expected-actual)
	}
	extra := actual - expected
	if extra == 0 {
		return nil
	}
	if dir.offset < uint64(len(p.data)) && format.HasSignature(p.data, int(dir.offset), format.CentralHeaderSignature) { //nolint:gosec // bounded by len
		p.log.Debug("central directory found at declared offset despite extra bytes",
			slog.Uint64("extra", extra))
		return nil
	}
	p.shift = extra
	p.log.Debug("correcting offsets for prepended bytes", slog.Uint64("shift", extra))
	return nil
}

func (p *parser) readCentralDirectory(dir *directory) ([]File, error) {
	start, ok := sizing.Span(dir.offset, p.shift, len(p.data))
	if !ok {
		return nil, ziptype.Corruptf("central directory offset %d out of range", dir.offset)
	}
	files := make([]File, 0, min(dir.entries, uint64(len(p.data)/format.CentralHeaderLen)))

	pos := start
	for i := uint64(0); i < dir.entries; i++ {
		f, next, err := p.readEntry(pos, i)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
		pos = next
	}
	return files, nil
}

// readEntry parses the central header at pos and its local header. It returns
// the offset of the next central header.
func (p *parser) readEntry(pos int, index uint64) (File, int, error) {
	h, ok := format.DecodeCentralHeader(p.data[pos:])
	if !ok {
		return File{}, 0, ziptype.Corruptf("central directory header %d not found at offset %d", index, pos)
	}
	if h.Flags&format.FlagEncrypted != 0 {
		return File{}, 0, ziptype.ErrEncrypted
	}
	if h.NameLen == 0 {
		return File{}, 0, ziptype.Corruptf("central directory header %d has an empty name", index)
	}

	nameStart := pos + format.CentralHeaderLen
	varLen := uint64(h.NameLen) + uint64(h.ExtraLen) + uint64(h.CommentLen)
	next, ok := sizing.Span(uint64(nameStart), varLen, len(p.data)) //nolint:gosec // offsets are non-negative
	if !ok {
		return File{}, 0, ziptype.Corruptf("central directory header %d exceeds data", index)
	}
	extraStart := nameStart + int(h.NameLen)
	commentStart := extraStart + int(h.ExtraLen)
	rawName := p.data[nameStart:extraStart]
	rawComment := p.data[commentStart:next]
	extra := format.ParseExtra(p.data[extraStart:commentStart])

	usize := uint64(h.UncompressedSize)
	csize := uint64(h.CompressedSize)
	local := uint64(h.LocalOffset)
	if z, ok := extra[format.Zip64ExtraID]; ok {
		r := format.ReadBuf(z)
		for _, field := range []*uint64{&usize, &csize, &local} {
			if *field != format.Sentinel32 {
				continue
			}
			if len(r) < 8 {
				return File{}, 0, ziptype.Corruptf("truncated zip64 extra field in central directory header %d", index)
			}
			*field = r.Uint64()
		}
	}

	name, err := p.decode(rawName, h.Flags, extra[format.UnicodePathExtraID], true)
	if err != nil {
		return File{}, 0, err
	}
	comment, err := p.decode(rawComment, h.Flags, extra[format.UnicodeCommentExtraID], false)
	if err != nil {
		return File{}, 0, fmt.Errorf("comment of %s: %w", name, err)
	}

	payload, err := p.readLocal(local, csize, name)
	if err != nil {
		return File{}, 0, err
	}

	f := File{
		Name:    name,
		Comment: comment,
		Date:    dostime.Decode(h.ModDate, h.ModTime),
		Dir:     h.ExternalAttrs&format.DOSDirectoryAttr != 0,
		Object:  compressed.New(payload, codec.Method(h.Method), h.CRC32, usize, p.opts.Registry, name),
	}
	switch h.VersionMadeBy >> 8 {
	case format.CreatorDOS:
		dos := uint8(h.ExternalAttrs & format.DOSAttrMask)
		f.DOSPermissions = &dos
	case format.CreatorUnix:
		unix := uint16(h.ExternalAttrs >> 16)
		f.UnixPermissions = &unix
	}
	if strings.HasSuffix(f.Name, "/") {
		f.Dir = true
	} else if f.Dir {
		f.Name += "/"
	}
	return f, next, nil
}

// readLocal checks the local header at the corrected offset and returns the
// compressed bytes that follow it.
func (p *parser) readLocal(offset, csize uint64, name string) ([]byte, error) {
	pos, ok := sizing.Span(offset, p.shift, len(p.data))
	if !ok {
		return nil, ziptype.Corruptf("local header offset of %s out of range", name)
	}
	lh, ok := format.DecodeLocalHeader(p.data[pos:])
	if !ok {
		return nil, ziptype.Corruptf("local file header not found for %s at offset %d", name, pos)
	}
	start := pos + format.LocalHeaderLen + int(lh.NameLen) + int(lh.ExtraLen)
	end, ok := sizing.Span(uint64(start), csize, len(p.data)) //nolint:gosec // offsets are non-negative
	if !ok {
		return nil, ziptype.Corruptf("content of %s exceeds data (%d bytes at offset %d)", name, csize, start)
	}
	return p.data[start:end:end], nil
}

// decode turns raw header text into a string. The UTF-8 flag wins; then a
// Unicode extra field whose checksum matches raw; then the decode hook.
func (p *parser) decode(raw []byte, flags uint16, unicode []byte, isName bool) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	if flags&format.FlagUTF8 != 0 {
		return string(raw), nil
	}
	if u, ok := format.DecodeUnicodeExtra(unicode); ok && u.CRC32 == crc.Checksum(raw) {
		return string(u.Value), nil
	}
	if p.opts.DecodeName == nil {
		return string(raw), nil
	}
	s, err := p.opts.DecodeName(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ziptype.ErrDecodeHook, raw, err)
	}
	if isName && s == "" {
		return "", fmt.Errorf("%w: %q decoded to an empty name", ziptype.ErrDecodeHook, raw)
	}
	return s, nil
}
