package memzip

import (
	"log/slog"

	"github.com/meigma/memzip/internal/read"
	"github.com/meigma/memzip/internal/transform"
)

// Load parses a ZIP archive.
//
// src may be []byte, string (raw bytes, or base64 with LoadWithBase64),
// []int (one byte per element, masked to 8 bits), *bytes.Buffer, Blob or
// *Blob. Other values fail with an *InputError matching
// ErrUnsupportedInput. Byte slices are referenced, not copied, and must
// not be modified while the archive is in use.
func Load(src any, opts ...LoadOption) (*Archive, error) {
	var cfg loadConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	log := cfg.log()

	data, err := transform.ToBytes(src, transform.InputOptions{
		Base64:        cfg.base64,
		BorrowStrings: cfg.optimizedBinaryString,
	})
	if err != nil {
		return nil, err
	}

	parsed, err := read.Parse(data, read.Options{
		Registry:   cfg.getRegistry(),
		DecodeName: cfg.decodeFileName,
		CheckCRC32: cfg.checkCRC32,
		Logger:     cfg.logger,
	})
	if err != nil {
		return nil, err
	}

	a := New()
	a.Comment = parsed.Comment
	for i := range parsed.Files {
		f := &parsed.Files[i]
		e := &Entry{
			Name:            f.Name,
			Dir:             f.Dir,
			Comment:         f.Comment,
			Date:            f.Date,
			UnixPermissions: f.UnixPermissions,
			DOSPermissions:  f.DOSPermissions,
			obj:             f.Object,
		}
		if cfg.createFolders {
			a.addParents(e.Name, e.Date)
		}
		a.put(e)
	}

	log.Debug("loaded archive",
		slog.Int("bytes", len(data)),
		slog.Int("entries", a.Len()),
		slog.Bool("zip64", parsed.Zip64))
	return a, nil
}
