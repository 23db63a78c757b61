// Package testutil builds raw ZIP archives for tests.
//
// Build writes exactly the records it is told to, which lets tests produce
// layouts a conforming writer never would: zip64 sentinels on small files,
// encryption flags, unknown methods, data descriptors with or without their
// signature, and bytes before or after the archive.
package testutil

import (
	"github.com/meigma/memzip/internal/crc"
	"github.com/meigma/memzip/internal/format"
)

// Descriptor selects the data descriptor written after an entry's content.
type Descriptor uint8

const (
	NoDescriptor Descriptor = iota
	SignedDescriptor
	UnsignedDescriptor
)

// Entry describes one raw entry.
type Entry struct {
	Name string

	// Data is written verbatim after the local header.
	Data []byte

	// Content is the uncompressed content used for the CRC-32 and the
	// uncompressed size. Nil means Data.
	Content []byte

	Method uint16
	Flags  uint16

	// CRC32 overrides the computed checksum when non-nil.
	CRC32 *uint32

	MadeBy        uint16
	ExternalAttrs uint32
	ModDate       uint16
	ModTime       uint16
	Comment       []byte

	// Extra is appended to the central header's extra field.
	Extra []byte

	// Zip64 writes sentinel sizes and offset with a zip64 extra field in the
	// central header.
	Zip64 bool

	Descriptor Descriptor
}

// Archive describes a raw archive.
type Archive struct {
	Entries []Entry
	Comment []byte

	// Zip64 writes a zip64 end record and locator, with sentinels in the
	// classic end record.
	Zip64 bool

	// Prefix and Suffix surround the archive. Offsets inside the archive do
	// not account for Prefix.
	Prefix []byte
	Suffix []byte
}

// Stored returns a STORE entry holding content.
func Stored(name, content string) Entry {
	return Entry{Name: name, Data: []byte(content)}
}

func (e *Entry) content() []byte {
	if e.Content != nil {
		return e.Content
	}
	return e.Data
}

func (e *Entry) sum() uint32 {
	if e.CRC32 != nil {
		return *e.CRC32
	}
	return crc.Checksum(e.content())
}

// Build encodes a.
//
//nolint:gosec // fixture sizes are small
func Build(a Archive) []byte {
	var body format.WriteBuf
	offsets := make([]uint32, len(a.Entries))

	for i := range a.Entries {
		e := &a.Entries[i]
		offsets[i] = uint32(len(body))
		sum := e.sum()
		csize := uint32(len(e.Data))
		usize := uint32(len(e.content()))

		lh := format.LocalHeader{
			VersionNeeded:    format.Version20,
			Flags:            e.Flags,
			Method:           e.Method,
			ModTime:          e.ModTime,
			ModDate:          e.ModDate,
			CRC32:            sum,
			CompressedSize:   csize,
			UncompressedSize: usize,
			NameLen:          uint16(len(e.Name)),
		}
		if e.Flags&format.FlagDataDescriptor != 0 {
			lh.CRC32, lh.CompressedSize, lh.UncompressedSize = 0, 0, 0
		}
		lh.Append(&body)
		body.Bytes([]byte(e.Name))
		body.Bytes(e.Data)

		switch e.Descriptor {
		case SignedDescriptor:
			body.Uint32(format.DataDescriptorSignature)
			fallthrough
		case UnsignedDescriptor:
			body.Uint32(sum)
			body.Uint32(csize)
			body.Uint32(usize)
		}
	}

	cdStart := uint32(len(body))
	for i := range a.Entries {
		e := &a.Entries[i]
		ch := format.CentralHeader{
			VersionMadeBy:    e.MadeBy,
			VersionNeeded:    format.Version20,
			Flags:            e.Flags,
			Method:           e.Method,
			ModTime:          e.ModTime,
			ModDate:          e.ModDate,
			CRC32:            e.sum(),
			CompressedSize:   uint32(len(e.Data)),
			UncompressedSize: uint32(len(e.content())),
			NameLen:          uint16(len(e.Name)),
			CommentLen:       uint16(len(e.Comment)),
			ExternalAttrs:    e.ExternalAttrs,
			LocalOffset:      offsets[i],
		}
		var extra format.WriteBuf
		if e.Zip64 {
			var z format.WriteBuf
			z.Uint64(uint64(ch.UncompressedSize))
			z.Uint64(uint64(ch.CompressedSize))
			z.Uint64(uint64(ch.LocalOffset))
			format.AppendExtra(&extra, format.Zip64ExtraID, z)
			ch.VersionNeeded = format.Version45
			ch.UncompressedSize = format.Sentinel32
			ch.CompressedSize = format.Sentinel32
			ch.LocalOffset = format.Sentinel32
		}
		extra.Bytes(e.Extra)
		ch.ExtraLen = uint16(len(extra))

		ch.Append(&body)
		body.Bytes([]byte(e.Name))
		body.Bytes(extra)
		body.Bytes(e.Comment)
	}
	cdSize := uint32(len(body)) - cdStart

	eocd := format.EOCD{
		EntriesOnDisk: uint16(len(a.Entries)),
		Entries:       uint16(len(a.Entries)),
		CDSize:        cdSize,
		CDOffset:      cdStart,
		CommentLen:    uint16(len(a.Comment)),
	}
	if a.Zip64 {
		recOff := uint64(len(body))
		rec := format.Zip64EOCD{
			RecordSize:    format.Zip64EOCDFixedSize,
			VersionMadeBy: format.Version45,
			VersionNeeded: format.Version45,
			EntriesOnDisk: uint64(len(a.Entries)),
			Entries:       uint64(len(a.Entries)),
			CDSize:        uint64(cdSize),
			CDOffset:      uint64(cdStart),
		}
		rec.Append(&body)
		loc := format.Zip64Locator{Offset: recOff, TotalDisks: 1}
		loc.Append(&body)
		eocd.EntriesOnDisk = format.Sentinel16
		eocd.Entries = format.Sentinel16
		eocd.CDSize = format.Sentinel32
		eocd.CDOffset = format.Sentinel32
	}
	eocd.Append(&body)
	body.Bytes(a.Comment)

	out := make([]byte, 0, len(a.Prefix)+len(body)+len(a.Suffix))
	out = append(out, a.Prefix...)
	out = append(out, body...)
	return append(out, a.Suffix...)
}

// Uint32 returns a pointer to v.
func Uint32(v uint32) *uint32 { return &v }
