package memzip

import (
	"github.com/meigma/memzip/internal/transform"
	"github.com/meigma/memzip/internal/write"
)

// Generate serializes the archive.
//
// Each entry is compressed with its own codec or the global one; content
// already held in that method is written without recompression. After a
// successful call, entries hold their content in the written compression,
// so a later Generate with the same settings reuses it. Entry settings are
// never changed.
func (a *Archive) Generate(opts ...GenerateOption) ([]byte, error) {
	var cfg generateConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return a.generate(&cfg)
}

// GenerateAs serializes the archive into the representation t.
// Unknown types fail before any entry is touched.
func (a *Archive) GenerateAs(t OutputType, opts ...GenerateOption) (any, error) {
	if err := t.Check(); err != nil {
		return nil, err
	}
	var cfg generateConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	data, err := a.generate(&cfg)
	if err != nil {
		return nil, err
	}
	return transform.FromBytes(data, t, cfg.mimeType)
}

func (a *Archive) generate(cfg *generateConfig) ([]byte, error) {
	files := make([]write.File, len(a.entries))
	for i, e := range a.entries {
		files[i] = write.File{
			Name:               e.Name,
			Dir:                e.Dir,
			Comment:            e.Comment,
			Date:               e.Date,
			UnixPermissions:    e.UnixPermissions,
			DOSPermissions:     e.DOSPermissions,
			Compression:        e.Compression,
			CompressionOptions: e.CompressionOptions,
			Object:             e.obj,
		}
	}

	comment := a.Comment
	if cfg.comment != nil {
		comment = *cfg.comment
	}

	res, err := write.Write(files, write.Options{
		Registry:           cfg.getRegistry(),
		Compression:        cfg.getCompression(),
		CompressionOptions: cfg.getCompressionOptions(),
		Platform:           cfg.platform,
		Comment:            comment,
		EncodeName:         cfg.encodeFileName,
		Workers:            cfg.workers,
		ForceZip64:         cfg.zip64 == Zip64Always,
		Logger:             cfg.logger,
	})
	if err != nil {
		return nil, err
	}

	for i, e := range a.entries {
		if !e.Dir {
			e.obj = res.Objects[i]
		}
	}
	return res.Data, nil
}
