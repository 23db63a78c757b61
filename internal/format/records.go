package format

// LocalHeader is the fixed part of a local file header.
type LocalHeader struct {
	VersionNeeded    uint16
	Flags            uint16
	Method           uint16
	ModTime          uint16
	ModDate          uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	NameLen          uint16
	ExtraLen         uint16
}

// DecodeLocalHeader parses b, which must hold at least LocalHeaderLen bytes
// starting with the local header signature.
func DecodeLocalHeader(b []byte) (LocalHeader, bool) {
	if len(b) < LocalHeaderLen || !HasSignature(b, 0, LocalHeaderSignature) {
		return LocalHeader{}, false
	}
	r := ReadBuf(b[4:LocalHeaderLen])
	return LocalHeader{
		VersionNeeded:    r.Uint16(),
		Flags:            r.Uint16(),
		Method:           r.Uint16(),
		ModTime:          r.Uint16(),
		ModDate:          r.Uint16(),
		CRC32:            r.Uint32(),
		CompressedSize:   r.Uint32(),
		UncompressedSize: r.Uint32(),
		NameLen:          r.Uint16(),
		ExtraLen:         r.Uint16(),
	}, true
}

// Append writes h to w.
func (h *LocalHeader) Append(w *WriteBuf) {
	w.Uint32(LocalHeaderSignature)
	w.Uint16(h.VersionNeeded)
	w.Uint16(h.Flags)
	w.Uint16(h.Method)
	w.Uint16(h.ModTime)
	w.Uint16(h.ModDate)
	w.Uint32(h.CRC32)
	w.Uint32(h.CompressedSize)
	w.Uint32(h.UncompressedSize)
	w.Uint16(h.NameLen)
	w.Uint16(h.ExtraLen)
}

// CentralHeader is the fixed part of a central directory file header.
type CentralHeader struct {
	VersionMadeBy    uint16
	VersionNeeded    uint16
	Flags            uint16
	Method           uint16
	ModTime          uint16
	ModDate          uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	NameLen          uint16
	ExtraLen         uint16
	CommentLen       uint16
	DiskStart        uint16
	InternalAttrs    uint16
	ExternalAttrs    uint32
	LocalOffset      uint32
}

// DecodeCentralHeader parses b, which must hold at least CentralHeaderLen
// bytes starting with the central header signature.
func DecodeCentralHeader(b []byte) (CentralHeader, bool) {
	if len(b) < CentralHeaderLen || !HasSignature(b, 0, CentralHeaderSignature) {
		return CentralHeader{}, false
	}
	r := ReadBuf(b[4:CentralHeaderLen])
	return CentralHeader{
		VersionMadeBy:    r.Uint16(),
		VersionNeeded:    r.Uint16(),
		Flags:            r.Uint16(),
		Method:           r.Uint16(),
		ModTime:          r.Uint16(),
		ModDate:          r.Uint16(),
		CRC32:            r.Uint32(),
		CompressedSize:   r.Uint32(),
		UncompressedSize: r.Uint32(),
		NameLen:          r.Uint16(),
		ExtraLen:         r.Uint16(),
		CommentLen:       r.Uint16(),
		DiskStart:        r.Uint16(),
		InternalAttrs:    r.Uint16(),
		ExternalAttrs:    r.Uint32(),
		LocalOffset:      r.Uint32(),
	}, true
}

// Append writes h to w.
func (h *CentralHeader) Append(w *WriteBuf) {
	w.Uint32(CentralHeaderSignature)
	w.Uint16(h.VersionMadeBy)
	w.Uint16(h.VersionNeeded)
	w.Uint16(h.Flags)
	w.Uint16(h.Method)
	w.Uint16(h.ModTime)
	w.Uint16(h.ModDate)
	w.Uint32(h.CRC32)
	w.Uint32(h.CompressedSize)
	w.Uint32(h.UncompressedSize)
	w.Uint16(h.NameLen)
	w.Uint16(h.ExtraLen)
	w.Uint16(h.CommentLen)
	w.Uint16(h.DiskStart)
	w.Uint16(h.InternalAttrs)
	w.Uint32(h.ExternalAttrs)
	w.Uint32(h.LocalOffset)
}

// EOCD is the classic end of central directory record.
type EOCD struct {
	DiskNumber    uint16
	CDDisk        uint16
	EntriesOnDisk uint16
	Entries       uint16
	CDSize        uint32
	CDOffset      uint32
	CommentLen    uint16
}

// DecodeEOCD parses b, which must hold at least EOCDLen bytes starting with
// the EOCD signature.
func DecodeEOCD(b []byte) (EOCD, bool) {
	if len(b) < EOCDLen || !HasSignature(b, 0, EOCDSignature) {
		return EOCD{}, false
	}
	r := ReadBuf(b[4:EOCDLen])
	return EOCD{
		DiskNumber:    r.Uint16(),
		CDDisk:        r.Uint16(),
		EntriesOnDisk: r.Uint16(),
		Entries:       r.Uint16(),
		CDSize:        r.Uint32(),
		CDOffset:      r.Uint32(),
		CommentLen:    r.Uint16(),
	}, true
}

// Append writes e to w.
func (e *EOCD) Append(w *WriteBuf) {
	w.Uint32(EOCDSignature)
	w.Uint16(e.DiskNumber)
	w.Uint16(e.CDDisk)
	w.Uint16(e.EntriesOnDisk)
	w.Uint16(e.Entries)
	w.Uint32(e.CDSize)
	w.Uint32(e.CDOffset)
	w.Uint16(e.CommentLen)
}

// Zip64EOCD is the zip64 end of central directory record.
type Zip64EOCD struct {
	RecordSize    uint64
	VersionMadeBy uint16
	VersionNeeded uint16
	DiskNumber    uint32
	CDDisk        uint32
	EntriesOnDisk uint64
	Entries       uint64
	CDSize        uint64
	CDOffset      uint64
}

// DecodeZip64EOCD parses b, which must hold at least Zip64EOCDLen bytes
// starting with the zip64 EOCD signature.
func DecodeZip64EOCD(b []byte) (Zip64EOCD, bool) {
	if len(b) < Zip64EOCDLen || !HasSignature(b, 0, Zip64EOCDSignature) {
		return Zip64EOCD{}, false
	}
	r := ReadBuf(b[4:Zip64EOCDLen])
	return Zip64EOCD{
		RecordSize:    r.Uint64(),
		VersionMadeBy: r.Uint16(),
		VersionNeeded: r.Uint16(),
		DiskNumber:    r.Uint32(),
		CDDisk:        r.Uint32(),
		EntriesOnDisk: r.Uint64(),
		Entries:       r.Uint64(),
		CDSize:        r.Uint64(),
		CDOffset:      r.Uint64(),
	}, true
}

// Append writes e to w.
func (e *Zip64EOCD) Append(w *WriteBuf) {
	w.Uint32(Zip64EOCDSignature)
	w.Uint64(e.RecordSize)
	w.Uint16(e.VersionMadeBy)
	w.Uint16(e.VersionNeeded)
	w.Uint32(e.DiskNumber)
	w.Uint32(e.CDDisk)
	w.Uint64(e.EntriesOnDisk)
	w.Uint64(e.Entries)
	w.Uint64(e.CDSize)
	w.Uint64(e.CDOffset)
}

// Zip64Locator points from the end of the archive to the zip64 EOCD record.
type Zip64Locator struct {
	Disk       uint32
	Offset     uint64
	TotalDisks uint32
}

// DecodeZip64Locator parses b, which must hold at least Zip64LocatorLen
// bytes starting with the locator signature.
func DecodeZip64Locator(b []byte) (Zip64Locator, bool) {
	if len(b) < Zip64LocatorLen || !HasSignature(b, 0, Zip64LocatorSignature) {
		return Zip64Locator{}, false
	}
	r := ReadBuf(b[4:Zip64LocatorLen])
	return Zip64Locator{
		Disk:       r.Uint32(),
		Offset:     r.Uint64(),
		TotalDisks: r.Uint32(),
	}, true
}

// Append writes l to w.
func (l *Zip64Locator) Append(w *WriteBuf) {
	w.Uint32(Zip64LocatorSignature)
	w.Uint32(l.Disk)
	w.Uint64(l.Offset)
	w.Uint32(l.TotalDisks)
}
