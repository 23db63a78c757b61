// Package format defines the ZIP record layouts and their little-endian
// encodings.
package format

// Record signatures.
const (
	LocalHeaderSignature    = 0x04034b50
	CentralHeaderSignature  = 0x02014b50
	DataDescriptorSignature = 0x08074b50
	EOCDSignature           = 0x06054b50
	Zip64EOCDSignature      = 0x06064b50
	Zip64LocatorSignature   = 0x07064b50
)

// Fixed record lengths, excluding variable-length trailers.
const (
	LocalHeaderLen   = 30 // + name + extra
	CentralHeaderLen = 46 // + name + extra + comment
	EOCDLen          = 22 // + comment
	Zip64EOCDLen     = 56 // + extensible data
	Zip64LocatorLen  = 20

	// Zip64EOCDFixedSize is the "size of record" value for a zip64 EOCD with
	// no extensible data: the record length minus the leading 12 bytes.
	Zip64EOCDFixedSize = Zip64EOCDLen - 12
)

// MaxCommentLen bounds comments and therefore the backward EOCD search.
const MaxCommentLen = 0xFFFF

// General-purpose flag bits.
const (
	FlagEncrypted      = 0x0001
	FlagDataDescriptor = 0x0008
	FlagUTF8           = 0x0800
)

// Extra field ids.
const (
	Zip64ExtraID          = 0x0001 // Zip64 extended information
	UnicodePathExtraID    = 0x7075 // Info-ZIP Unicode Path
	UnicodeCommentExtraID = 0x6375 // Info-ZIP Unicode Comment
)

// Version numbers.
const (
	Version20 = 20 // 2.0: deflate, directories
	Version30 = 30 // 3.0
	Version45 = 45 // 4.5: zip64
)

// Made-by platform ids (upper byte of "version made by").
const (
	CreatorDOS  = 0
	CreatorUnix = 3
)

// External attribute bits.
const (
	DOSDirectoryAttr = 0x10
	DOSAttrMask      = 0x3F
)

// Zip64 sentinels carried by classic fields whose value lives elsewhere.
const (
	Sentinel16 = 0xFFFF
	Sentinel32 = 0xFFFFFFFF
)
