package memzip

import (
	"github.com/meigma/memzip/internal/transform"
	"github.com/meigma/memzip/internal/ziptype"
)

// --- Re-exports from internal packages ---

// Platform selects the host recorded for entries without explicit permissions.
type Platform = ziptype.Platform

// Platform constants.
const (
	PlatformDOS  = ziptype.PlatformDOS
	PlatformUNIX = ziptype.PlatformUNIX
)

// DecodeFunc decodes names and comments stored without the UTF-8 flag.
type DecodeFunc = ziptype.DecodeFunc

// EncodeFunc encodes names and comments into a legacy encoding.
type EncodeFunc = ziptype.EncodeFunc

// OutputType selects the representation returned by GenerateAs.
type OutputType = transform.OutputType

// OutputType constants.
const (
	OutputBytes  = transform.OutputBytes  // []byte
	OutputString = transform.OutputString // string holding the raw bytes
	OutputBase64 = transform.OutputBase64 // standard base64 string
	OutputArray  = transform.OutputArray  // []int, one byte per element
	OutputBlob   = transform.OutputBlob   // Blob
)

// Blob is archive bytes tagged with a MIME type. Load accepts Blob and *Blob.
type Blob = transform.Blob

// DefaultMIMEType is the MIME type of Blob outputs unless
// GenerateWithMIMEType overrides it.
const DefaultMIMEType = transform.DefaultMIMEType

// Zip64Mode controls when Generate writes zip64 records.
type Zip64Mode uint8

const (
	// Zip64Auto writes zip64 records only for values that outgrow their
	// 32-bit fields.
	Zip64Auto Zip64Mode = iota

	// Zip64Always writes zip64 records for every entry and the archive.
	Zip64Always
)
