package codec

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/klauspost/compress/flate"

	"github.com/meigma/memzip/internal/sizing"
	"github.com/meigma/memzip/internal/ziptype"
)

type deflateCodec struct{}

// Deflate returns the raw DEFLATE codec (method 8). Streams carry no zlib or
// gzip container.
func Deflate() Codec { return deflateCodec{} }

func (deflateCodec) Method() Method { return MethodDeflate }

func (deflateCodec) Name() string { return NameDeflate }

func (deflateCodec) Compress(data []byte, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(data)/2 + 64)
	w, err := flate.NewWriter(&buf, opts.Level)
	if err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	return buf.Bytes(), nil
}

func (deflateCodec) Decompress(data []byte, size uint64) ([]byte, error) {
	if _, err := sizing.ToInt(size, ziptype.ErrSizeOverflow); err != nil {
		return nil, fmt.Errorf("inflate %d bytes: %w", size, err)
	}
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()

	out, err := sizing.ReadAllWithLimit(r, size, errInflatedTooLarge)
	if err != nil {
		if errors.Is(err, errInflatedTooLarge) {
			return nil, ziptype.Corruptf("inflated data exceeds declared size %d", size)
		}
		// The source is an in-memory slice, so every read error is a stream defect
		// (flate.CorruptInputError, io.ErrUnexpectedEOF, ...).
		return nil, ziptype.Corruptf("invalid deflate stream: %v", err)
	}
	if uint64(len(out)) != size {
		return nil, ziptype.Corruptf("uncompressed data size mismatch (%d != %d)", len(out), size)
	}
	return out, nil
}

var errInflatedTooLarge = errors.New("inflated data too large")
