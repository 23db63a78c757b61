// Package compressed holds entry payloads in their stored compression state
// and decompresses them lazily.
package compressed

import (
	"fmt"
	"sync"

	"github.com/meigma/memzip/codec"
	"github.com/meigma/memzip/internal/crc"
	"github.com/meigma/memzip/internal/ziptype"
)

// Object owns one entry's bytes as stored in an archive.
//
// The first call to Content decompresses through the registry and memoizes
// the result, its CRC-32, and any error. Concurrent first calls are
// serialized so the decompression runs exactly once.
type Object struct {
	data     []byte
	method   codec.Method
	crc32    uint32
	size     uint64
	registry *codec.Registry
	name     string

	once       sync.Once
	content    []byte
	contentCRC uint32
	err        error
}

// New wraps compressed bytes read from an archive. crc32 and size are the
// values the archive declares for the uncompressed content; name is used
// in error messages.
func New(data []byte, method codec.Method, crc32 uint32, size uint64, registry *codec.Registry, name string) *Object {
	return &Object{
		data:     data,
		method:   method,
		crc32:    crc32,
		size:     size,
		registry: registry,
		name:     name,
	}
}

// FromContent wraps uncompressed content for the entry called name.
func FromContent(content []byte, name string) *Object {
	o := &Object{
		data:   content,
		method: codec.MethodStore,
		size:   uint64(len(content)),
		name:   name,
	}
	o.once.Do(func() {
		o.content = content
		o.contentCRC = crc.Checksum(content)
		o.crc32 = o.contentCRC
	})
	return o
}

// fromCompressed returns an Object whose decompressed cache is already filled.
func fromCompressed(data []byte, method codec.Method, content []byte, sum uint32, name string) *Object {
	o := &Object{
		data:   data,
		method: method,
		crc32:  sum,
		size:   uint64(len(content)),
		name:   name,
	}
	o.once.Do(func() {
		o.content = content
		o.contentCRC = sum
	})
	return o
}

// Method returns the compression method of the stored bytes.
func (o *Object) Method() codec.Method { return o.method }

// Compressed returns the stored bytes. Callers must not modify them.
func (o *Object) Compressed() []byte { return o.data }

// CompressedSize returns the length of the stored bytes.
func (o *Object) CompressedSize() uint64 { return uint64(len(o.data)) }

// Size returns the declared uncompressed size.
func (o *Object) Size() uint64 { return o.size }

// CRC32 returns the stored CRC-32 of the uncompressed content.
func (o *Object) CRC32() uint32 { return o.crc32 }

// Content returns the decompressed bytes, decompressing on first use.
// Callers must not modify the returned slice.
func (o *Object) Content() ([]byte, error) {
	o.once.Do(o.decompress)
	return o.content, o.err
}

// ContentCRC32 returns the CRC-32 computed over the decompressed bytes.
func (o *Object) ContentCRC32() (uint32, error) {
	o.once.Do(o.decompress)
	return o.contentCRC, o.err
}

// Verify decompresses the content and compares its CRC-32 with the stored one.
func (o *Object) Verify() error {
	sum, err := o.ContentCRC32()
	if err != nil {
		return err
	}
	if sum != o.crc32 {
		return ziptype.Corruptf("CRC32 mismatch (%s)", o.name)
	}
	return nil
}

func (o *Object) decompress() {
	if o.registry == nil {
		o.err = fmt.Errorf("decompress %s: no codec registry", o.name)
		return
	}
	c, ok := o.registry.ByMethod(o.method)
	if !ok {
		o.err = ziptype.UnsupportedMethod(uint16(o.method), o.name)
		return
	}
	content, err := c.Decompress(o.data, o.size)
	if err != nil {
		o.err = fmt.Errorf("%s: %w", o.name, err)
		return
	}
	o.content = content
	o.contentCRC = crc.Checksum(content)
}

// Compress returns the object encoded with c. When c's method matches the
// stored method the receiver is returned unchanged; otherwise the content is
// decompressed (once) and re-encoded.
func (o *Object) Compress(c codec.Codec, opts codec.Options) (*Object, error) {
	if c.Method() == o.method {
		return o, nil
	}
	content, err := o.Content()
	if err != nil {
		return nil, err
	}
	sum, err := o.ContentCRC32()
	if err != nil {
		return nil, err
	}
	data, err := c.Compress(content, opts)
	if err != nil {
		return nil, fmt.Errorf("compress %s with %s: %w", o.name, c.Name(), err)
	}
	return fromCompressed(data, c.Method(), content, sum, o.name), nil
}
