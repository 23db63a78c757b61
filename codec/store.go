package codec

import "github.com/meigma/memzip/internal/ziptype"

type storeCodec struct{}

// Store returns the identity codec (method 0).
func Store() Codec { return storeCodec{} }

func (storeCodec) Method() Method { return MethodStore }

func (storeCodec) Name() string { return NameStore }

func (storeCodec) Compress(data []byte, _ Options) ([]byte, error) {
	return data, nil
}

func (storeCodec) Decompress(data []byte, size uint64) ([]byte, error) {
	if uint64(len(data)) != size {
		return nil, ziptype.Corruptf("uncompressed data size mismatch (%d != %d)", len(data), size)
	}
	return data, nil
}
