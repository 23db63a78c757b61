package ziptype

// Platform selects the "version made by" host written for entries that carry
// no explicit permissions.
type Platform uint8

const (
	PlatformDOS Platform = iota
	PlatformUNIX
)

// String returns the platform name.
func (p Platform) String() string {
	switch p {
	case PlatformDOS:
		return "DOS"
	case PlatformUNIX:
		return "UNIX"
	default:
		return "unknown"
	}
}

// DecodeFunc converts raw, non-UTF-8 header bytes into a string.
type DecodeFunc func(raw []byte) (string, error)

// EncodeFunc converts a name or comment into legacy header bytes.
type EncodeFunc func(s string) ([]byte, error)
