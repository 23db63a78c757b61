package codec

import (
	"fmt"
	"strings"

	"github.com/meigma/memzip/internal/ziptype"
)

// Registry maps method ids and names to codecs.
//
// A Registry is not safe for concurrent mutation; register codecs before
// handing it to a reader or writer.
type Registry struct {
	byMethod map[Method]Codec
	byName   map[string]Codec
}

// NewRegistry returns a registry holding the given codecs.
func NewRegistry(codecs ...Codec) *Registry {
	r := &Registry{
		byMethod: make(map[Method]Codec, len(codecs)),
		byName:   make(map[string]Codec, len(codecs)),
	}
	for _, c := range codecs {
		r.Register(c)
	}
	return r
}

// DefaultRegistry returns a new registry with STORE and DEFLATE.
// Each call returns an independent instance.
func DefaultRegistry() *Registry {
	return NewRegistry(Store(), Deflate())
}

// Register adds c, replacing any codec with the same method id or name.
func (r *Registry) Register(c Codec) {
	if prev, ok := r.byMethod[c.Method()]; ok {
		delete(r.byName, normalize(prev.Name()))
	}
	if prev, ok := r.byName[normalize(c.Name())]; ok {
		delete(r.byMethod, prev.Method())
	}
	r.byMethod[c.Method()] = c
	r.byName[normalize(c.Name())] = c
}

// ByMethod returns the codec registered for id.
func (r *Registry) ByMethod(id Method) (Codec, bool) {
	c, ok := r.byMethod[id]
	return c, ok
}

// ByName returns the codec registered under name. Names are case-insensitive.
func (r *Registry) ByName(name string) (Codec, bool) {
	c, ok := r.byName[normalize(name)]
	return c, ok
}

// Lookup is ByName returning ErrUnsupportedCompression for unknown names.
func (r *Registry) Lookup(name string) (Codec, error) {
	c, ok := r.ByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a registered codec", ziptype.ErrUnsupportedCompression, name)
	}
	return c, nil
}

func normalize(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
