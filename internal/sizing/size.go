// Package sizing provides overflow-safe size arithmetic for archive offsets.
package sizing

import (
	"io"
	"math"
)

// MaxUint32 is the limit of the classic (non-zip64) size and offset fields.
const MaxUint32 = math.MaxUint32

// ToInt converts a uint64 to int, returning overflowErr if it doesn't fit.
func ToInt(size uint64, overflowErr error) (int, error) {
	if size > uint64(math.MaxInt) {
		return 0, overflowErr
	}
	return int(size), nil
}

// AddUint64 adds two uint64 values, returning (result, false) on overflow.
func AddUint64(a, b uint64) (uint64, bool) {
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}

// Span returns off+n as an int if the range [off, off+n) lies within limit.
func Span(off, n uint64, limit int) (int, bool) {
	end, ok := AddUint64(off, n)
	if !ok || end > uint64(limit) { //nolint:gosec // limit is a slice length
		return 0, false
	}
	return int(end), true //nolint:gosec // bounded by limit above
}

// Exceeds32 reports whether v needs a zip64 field.
func Exceeds32(v uint64) bool {
	return v >= MaxUint32
}

// ReadAllWithLimit reads up to maxSize bytes from r.
// Returns overflowErr if more than maxSize bytes are available.
func ReadAllWithLimit(r io.Reader, maxSize uint64, overflowErr error) ([]byte, error) {
	if maxSize > uint64(math.MaxInt-1) {
		return nil, overflowErr
	}
	limit := int64(maxSize) + 1 //nolint:gosec // checked above
	lr := &io.LimitedReader{R: r, N: limit}
	buf := make([]byte, 0, min(maxSize, 1<<20))
	for {
		if len(buf) == cap(buf) {
			buf = append(buf, 0)[:len(buf)]
		}
		n, err := lr.Read(buf[len(buf):cap(buf)])
		buf = buf[:len(buf)+n]
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	if uint64(len(buf)) > maxSize { //nolint:gosec // len is always non-negative
		return nil, overflowErr
	}
	return buf, nil
}
