package format

import "encoding/binary"

// ReadBuf consumes little-endian values from the front of a byte slice.
// Callers check lengths before reading.
type ReadBuf []byte

func (b *ReadBuf) Uint8() uint8 {
	v := (*b)[0]
	*b = (*b)[1:]
	return v
}

func (b *ReadBuf) Uint16() uint16 {
	v := binary.LittleEndian.Uint16(*b)
	*b = (*b)[2:]
	return v
}

func (b *ReadBuf) Uint32() uint32 {
	v := binary.LittleEndian.Uint32(*b)
	*b = (*b)[4:]
	return v
}

func (b *ReadBuf) Uint64() uint64 {
	v := binary.LittleEndian.Uint64(*b)
	*b = (*b)[8:]
	return v
}

// Sub returns the next n bytes and advances past them.
func (b *ReadBuf) Sub(n int) ReadBuf {
	b2 := (*b)[:n]
	*b = (*b)[n:]
	return b2
}

// WriteBuf appends little-endian values to a growing byte slice.
type WriteBuf []byte

func (b *WriteBuf) Uint8(v uint8) {
	*b = append(*b, v)
}

func (b *WriteBuf) Uint16(v uint16) {
	*b = binary.LittleEndian.AppendUint16(*b, v)
}

func (b *WriteBuf) Uint32(v uint32) {
	*b = binary.LittleEndian.AppendUint32(*b, v)
}

func (b *WriteBuf) Uint64(v uint64) {
	*b = binary.LittleEndian.AppendUint64(*b, v)
}

func (b *WriteBuf) Bytes(p []byte) {
	*b = append(*b, p...)
}

// HasSignature reports whether data holds sig at off.
func HasSignature(data []byte, off int, sig uint32) bool {
	if off < 0 || off+4 > len(data) {
		return false
	}
	return binary.LittleEndian.Uint32(data[off:]) == sig
}

// LastSignature returns the offset of the last occurrence of sig starting at
// or after floor whose 4 bytes fit before limit, or -1.
func LastSignature(data []byte, sig uint32, floor, limit int) int {
	floor = max(floor, 0)
	limit = min(limit, len(data))
	for i := limit - 4; i >= floor; i-- {
		if binary.LittleEndian.Uint32(data[i:]) == sig {
			return i
		}
	}
	return -1
}
