package format

// ParseExtra splits an extra field block into id→payload. Parsing stops at the
// first truncated field; later duplicates of an id are ignored.
func ParseExtra(b []byte) map[uint16][]byte {
	fields := make(map[uint16][]byte)
	for r := ReadBuf(b); len(r) >= 4; {
		id := r.Uint16()
		size := int(r.Uint16())
		if len(r) < size {
			break
		}
		data := r.Sub(size)
		if _, dup := fields[id]; !dup {
			fields[id] = data
		}
	}
	return fields
}

// AppendExtra writes one extra field to w.
func AppendExtra(w *WriteBuf, id uint16, data []byte) {
	w.Uint16(id)
	w.Uint16(uint16(len(data))) //nolint:gosec // extra payloads are built well under 64KiB
	w.Bytes(data)
}

// UnicodeExtra is the payload of the Info-ZIP Unicode Path (0x7075) and
// Unicode Comment (0x6375) extra fields.
type UnicodeExtra struct {
	Version uint8
	// CRC32 is the checksum of the legacy-encoded header value it replaces.
	CRC32 uint32
	Value []byte
}

// DecodeUnicodeExtra parses a Unicode Path or Comment payload. Only version 1
// is defined.
func DecodeUnicodeExtra(b []byte) (UnicodeExtra, bool) {
	if len(b) < 5 {
		return UnicodeExtra{}, false
	}
	r := ReadBuf(b)
	var u UnicodeExtra
	u.Version = r.Uint8()
	u.CRC32 = r.Uint32()
	u.Value = r
	if u.Version != 1 {
		return UnicodeExtra{}, false
	}
	return u, true
}

// Bytes encodes u as an extra field payload.
func (u *UnicodeExtra) Bytes() []byte {
	w := make(WriteBuf, 0, 5+len(u.Value))
	w.Uint8(u.Version)
	w.Uint32(u.CRC32)
	w.Bytes(u.Value)
	return w
}
