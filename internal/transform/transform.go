// Package transform converts between the byte representations accepted and
// produced by memzip and a canonical []byte.
package transform

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"reflect"
	"time"
	"unsafe"

	"github.com/meigma/memzip/internal/ziptype"
)

// DefaultMIMEType is the MIME type of Blob outputs.
const DefaultMIMEType = "application/zip"

// Blob is a byte payload tagged with a MIME type.
type Blob struct {
	MIMEType string
	Data     []byte
}

// InputOptions control how ToBytes interprets string sources.
type InputOptions struct {
	// Base64 decodes string sources as standard base64 text.
	Base64 bool

	// BorrowStrings returns a read-only view of a string source's bytes
	// instead of copying them.
	BorrowStrings bool
}

// ToBytes canonicalizes src. Values with no byte representation fail with
// an *ziptype.InputError naming their type.
func ToBytes(src any, opts InputOptions) ([]byte, error) {
	switch v := src.(type) {
	case []byte:
		return v, nil
	case string:
		if opts.Base64 {
			return decodeBase64(v)
		}
		if opts.BorrowStrings {
			return unsafe.Slice(unsafe.StringData(v), len(v)), nil
		}
		return []byte(v), nil
	case []int:
		out := make([]byte, len(v))
		for i, n := range v {
			out[i] = byte(n & 0xFF) //nolint:gosec // masked to 8 bits
		}
		return out, nil
	case *bytes.Buffer:
		if v == nil {
			return nil, &ziptype.InputError{Kind: Kind(src)}
		}
		return v.Bytes(), nil
	case Blob:
		return v.Data, nil
	case *Blob:
		if v == nil {
			return nil, &ziptype.InputError{Kind: Kind(src)}
		}
		return v.Data, nil
	default:
		return nil, &ziptype.InputError{Kind: Kind(src)}
	}
}

func decodeBase64(s string) ([]byte, error) {
	out, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, ziptype.Corruptf("invalid base64 input: %v", err)
	}
	return out, nil
}

// Kind names the type of v for error messages.
func Kind(v any) string {
	switch v.(type) {
	case nil:
		return "nil"
	case time.Time, *time.Time:
		return "date (time.Time)"
	}
	t := reflect.TypeOf(v)
	switch t.Kind() {
	case reflect.Chan:
		return "pending value (" + t.String() + ")"
	case reflect.Func:
		return "function (" + t.String() + ")"
	case reflect.Struct, reflect.Map:
		return "object (" + t.String() + ")"
	default:
		return t.String()
	}
}

// OutputType selects the representation produced by FromBytes.
type OutputType uint8

const (
	OutputBytes OutputType = iota
	OutputString
	OutputBase64
	OutputArray
	OutputBlob
)

// String returns the output type name.
func (t OutputType) String() string {
	switch t {
	case OutputBytes:
		return "bytes"
	case OutputString:
		return "string"
	case OutputBase64:
		return "base64"
	case OutputArray:
		return "array"
	case OutputBlob:
		return "blob"
	default:
		return fmt.Sprintf("OutputType(%d)", uint8(t))
	}
}

// Check reports ErrUnsupportedOutputFormat for unknown output types.
func (t OutputType) Check() error {
	if t > OutputBlob {
		return fmt.Errorf("%w: %s", ziptype.ErrUnsupportedOutputFormat, t)
	}
	return nil
}

// FromBytes converts data into the representation t. mimeType applies to
// OutputBlob only; empty means DefaultMIMEType.
func FromBytes(data []byte, t OutputType, mimeType string) (any, error) {
	switch t {
	case OutputBytes:
		return data, nil
	case OutputString:
		return string(data), nil
	case OutputBase64:
		return base64.StdEncoding.EncodeToString(data), nil
	case OutputArray:
		out := make([]int, len(data))
		for i, b := range data {
			out[i] = int(b)
		}
		return out, nil
	case OutputBlob:
		if mimeType == "" {
			mimeType = DefaultMIMEType
		}
		return Blob{MIMEType: mimeType, Data: data}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ziptype.ErrUnsupportedOutputFormat, t)
	}
}
