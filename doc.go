// Package memzip reads and writes ZIP archives entirely in memory.
//
// [Load] parses a byte buffer into an [Archive]: an ordered set of entries
// whose content stays compressed until first accessed. [Archive.Generate]
// serializes an Archive back into conformant ZIP bytes.
//
// # Quick Start
//
// Build an archive and serialize it:
//
//	a := memzip.New()
//	if _, err := a.Add("Hello.txt", []byte("Hello World\n")); err != nil {
//	    return err
//	}
//	data, err := a.Generate(memzip.GenerateWithCompression("DEFLATE"))
//
// Parse it back and read an entry:
//
//	a, err := memzip.Load(data, memzip.LoadWithCheckCRC32(true))
//	if err != nil {
//	    return err
//	}
//	e, _ := a.Entry("Hello.txt")
//	text, err := e.Text()
//
// # Tolerant Reading
//
// The reader finds the end of central directory record by scanning backward
// over at most 22+0xFFFF bytes, the largest record a comment allows. Bytes
// prepended to the archive (self-extracting stubs, shell headers) are
// detected and every offset is corrected. Trailing bytes after the comment
// are ignored. Entry sizes always come from the central directory, so data
// descriptors, signed or not, never affect slicing.
//
// # Compression
//
// STORE and DEFLATE are built in. Other methods are added by registering a
// [codec.Codec] in a [codec.Registry] and passing it with [LoadWithRegistry]
// or [GenerateWithRegistry]. Entries using a method with no registered codec
// load fine and fail with [ErrUnsupportedFeature] when their content is read.
//
// # Names
//
// Names stored with the UTF-8 flag are decoded as UTF-8. Others go through
// the hook set by [LoadWithDecodeFileName], falling back to UTF-8. An Info-ZIP
// Unicode Path extra field whose checksum matches the stored name wins over
// both. Empty text never reaches the hook. On write, non-ASCII names get the
// UTF-8 flag unless [GenerateWithEncodeFileName] supplies a legacy encoding.
// The encoder then sees every non-empty name and comment, and a Unicode Path
// extra field carries the UTF-8 form whenever the encoded bytes differ.
//
// Encrypted entries are rejected with [ErrEncrypted].
package memzip
