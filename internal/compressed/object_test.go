package compressed

import (
	"bytes"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/memzip/codec"
	"github.com/meigma/memzip/internal/crc"
	"github.com/meigma/memzip/internal/ziptype"
)

// countingCodec wraps a codec and counts calls.
type countingCodec struct {
	codec.Codec
	compressions   atomic.Int32
	decompressions atomic.Int32
}

func (c *countingCodec) Compress(data []byte, opts codec.Options) ([]byte, error) {
	c.compressions.Add(1)
	return c.Codec.Compress(data, opts)
}

func (c *countingCodec) Decompress(data []byte, size uint64) ([]byte, error) {
	c.decompressions.Add(1)
	return c.Codec.Decompress(data, size)
}

func deflated(t *testing.T, content []byte) []byte {
	t.Helper()
	data, err := codec.Deflate().Compress(content, codec.DefaultOptions())
	require.NoError(t, err)
	return data
}

func TestObject_DecompressesOnce(t *testing.T) {
	t.Parallel()

	content := bytes.Repeat([]byte("lazy content "), 100)
	counter := &countingCodec{Codec: codec.Deflate()}
	reg := codec.NewRegistry(codec.Store(), counter)

	obj := New(deflated(t, content), codec.MethodDeflate, crc.Checksum(content), uint64(len(content)), reg, "a.txt")

	var wg sync.WaitGroup
	for range 16 {
		wg.Go(func() {
			got, err := obj.Content()
			assert.NoError(t, err)
			assert.Equal(t, content, got)
		})
	}
	wg.Wait()

	sum, err := obj.ContentCRC32()
	require.NoError(t, err)
	assert.Equal(t, crc.Checksum(content), sum)
	assert.Equal(t, int32(1), counter.decompressions.Load())
}

func TestObject_Verify(t *testing.T) {
	t.Parallel()

	content := []byte("Hello World\n")
	reg := codec.DefaultRegistry()

	good := New(content, codec.MethodStore, crc.Checksum(content), uint64(len(content)), reg, "good")
	require.NoError(t, good.Verify())

	bad := New(content, codec.MethodStore, crc.Checksum(content)^1, uint64(len(content)), reg, "bad")
	err := bad.Verify()
	require.ErrorIs(t, err, ziptype.ErrCorrupted)
	assert.Contains(t, err.Error(), "Corrupted zip")
	assert.Contains(t, err.Error(), "bad")
}

func TestObject_UnknownMethod(t *testing.T) {
	t.Parallel()

	obj := New([]byte("x"), 99, 0, 1, codec.DefaultRegistry(), "odd.bin")
	_, err := obj.Content()
	require.ErrorIs(t, err, ziptype.ErrUnsupportedFeature)
	assert.Contains(t, err.Error(), "odd.bin")
}

func TestObject_CompressSameMethodIsPassThrough(t *testing.T) {
	t.Parallel()

	content := []byte("pass through me")
	counter := &countingCodec{Codec: codec.Deflate()}
	reg := codec.NewRegistry(codec.Store(), counter)
	obj := New(deflated(t, content), codec.MethodDeflate, crc.Checksum(content), uint64(len(content)), reg, "p.txt")

	got, err := obj.Compress(counter, codec.Options{Level: 1})
	require.NoError(t, err)
	assert.Same(t, obj, got)
	assert.Zero(t, counter.compressions.Load())
	assert.Zero(t, counter.decompressions.Load())
}

func TestObject_CompressPrefillsCache(t *testing.T) {
	t.Parallel()

	content := bytes.Repeat([]byte("abc"), 50)
	counter := &countingCodec{Codec: codec.Deflate()}

	obj := FromContent(content, "c.txt")
	assert.Equal(t, crc.Checksum(content), obj.CRC32())

	packed, err := obj.Compress(counter, codec.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, codec.MethodDeflate, packed.Method())
	assert.Less(t, packed.CompressedSize(), uint64(len(content)))
	assert.Equal(t, obj.CRC32(), packed.CRC32())

	got, err := packed.Content()
	require.NoError(t, err)
	assert.Equal(t, content, got)
	assert.Zero(t, counter.decompressions.Load())

	back, err := packed.Compress(codec.Store(), codec.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, content, back.Compressed())
}
