package memzip

import (
	"bytes"
	"errors"
	"fmt"
	"hash/crc32"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/memzip/codec"
	"github.com/meigma/memzip/internal/format"
	"github.com/meigma/memzip/internal/testutil"
)

func sample(t testing.TB) *Archive {
	t.Helper()
	a := New()
	mustAdd(t, a, "Hello.txt", "Hello World\n")
	mustAdd(t, a, "images/", "")
	mustAdd(t, a, "images/smile.gif", "GIF89a\x01\x00\x01\x00\x00\xff\x00,")
	mustAdd(t, a, "docs/readme.md", strings.Repeat("# readme\n\nlorem ipsum dolor sit amet\n", 50), WithCreateFolders())
	return a
}

func texts(t testing.TB, a *Archive) map[string]string {
	t.Helper()
	out := make(map[string]string, a.Len())
	for e := range a.All() {
		s, err := e.Text()
		require.NoError(t, err, e.Name)
		out[e.Name] = s
	}
	return out
}

func TestHelloWorld(t *testing.T) {
	t.Parallel()

	a := New()
	mustAdd(t, a, "Hello.txt", "Hello World\n")
	data, err := a.Generate()
	require.NoError(t, err)

	loaded, err := Load(data, LoadWithCheckCRC32(true))
	require.NoError(t, err)
	require.Equal(t, 1, loaded.Len())

	e, ok := loaded.Entry("Hello.txt")
	require.True(t, ok)
	text, err := e.Text()
	require.NoError(t, err)
	assert.Equal(t, "Hello World\n", text)
	assert.Equal(t, crc32.ChecksumIEEE([]byte("Hello World\n")), e.CRC32())
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	for _, compression := range []string{"STORE", "DEFLATE", "deflate"} {
		t.Run(compression, func(t *testing.T) {
			t.Parallel()

			a := sample(t)
			a.Comment = "archive comment"
			want := texts(t, a)

			data, err := a.Generate(GenerateWithCompression(compression))
			require.NoError(t, err)

			loaded, err := Load(data, LoadWithCheckCRC32(true))
			require.NoError(t, err)
			assert.Equal(t, names(a), names(loaded))
			assert.Equal(t, want, texts(t, loaded))
			assert.Equal(t, "archive comment", loaded.Comment)

			for e := range loaded.All() {
				orig, _ := a.Entry(e.Name)
				assert.Equal(t, orig.Dir, e.Dir, e.Name)
				assert.True(t, orig.Date.Equal(e.Date), e.Name)
			}
		})
	}
}

func TestStoreIsDeterministic(t *testing.T) {
	t.Parallel()

	a := sample(t)
	first, err := a.Generate()
	require.NoError(t, err)
	second, err := a.Generate()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Reloading and regenerating yields the same bytes too.
	loaded, err := Load(first)
	require.NoError(t, err)
	third, err := loaded.Generate()
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestCompressionIsNotSticky(t *testing.T) {
	t.Parallel()

	a := sample(t)
	deflated, err := a.Generate(GenerateWithCompression("DEFLATE"))
	require.NoError(t, err)

	readme, _ := a.Entry("docs/readme.md")
	assert.Empty(t, readme.Compression, "entry settings are unchanged")

	stored, err := a.Generate()
	require.NoError(t, err)
	assert.Greater(t, len(stored), len(deflated))

	loaded, err := Load(stored, LoadWithCheckCRC32(true))
	require.NoError(t, err)
	for e := range loaded.All() {
		assert.Equal(t, codec.MethodStore, e.Method(), e.Name)
	}

	// A loaded DEFLATE archive regenerated with STORE is stored too.
	loaded, err = Load(deflated)
	require.NoError(t, err)
	restored, err := loaded.Generate()
	require.NoError(t, err)
	assert.Equal(t, stored, restored)
}

func TestEntryCompressionOverride(t *testing.T) {
	t.Parallel()

	a := New()
	body := strings.Repeat("override ", 100)
	mustAdd(t, a, "deflated.txt", body, WithCompression("DEFLATE"), WithCompressionOptions(codec.Options{Level: 9}))
	mustAdd(t, a, "stored.txt", body)

	data, err := a.Generate()
	require.NoError(t, err)

	loaded, err := Load(data)
	require.NoError(t, err)
	d, _ := loaded.Entry("deflated.txt")
	s, _ := loaded.Entry("stored.txt")
	assert.Equal(t, codec.MethodDeflate, d.Method())
	assert.Less(t, d.CompressedSize(), d.Size())
	assert.Equal(t, codec.MethodStore, s.Method())
}

func TestIntegrityCheckDetectsFlippedByte(t *testing.T) {
	t.Parallel()

	a := New()
	mustAdd(t, a, "data.bin", "0123456789abcdef")
	data, err := a.Generate()
	require.NoError(t, err)

	i := bytes.Index(data, []byte("0123456789abcdef"))
	require.Positive(t, i)
	data[i+3] ^= 0x01

	_, err = Load(data, LoadWithCheckCRC32(true))
	require.ErrorIs(t, err, ErrCorrupted)
	assert.Contains(t, err.Error(), "Corrupted zip")
	assert.Contains(t, err.Error(), "CRC32 mismatch")
	assert.Contains(t, err.Error(), "data.bin")

	// Without the check, the stored checksum is trusted.
	loaded, err := Load(data)
	require.NoError(t, err)
	e, _ := loaded.Entry("data.bin")
	assert.Equal(t, crc32.ChecksumIEEE([]byte("0123456789abcdef")), e.CRC32())
}

func TestSurroundingBytes(t *testing.T) {
	t.Parallel()

	a := sample(t)
	want := texts(t, a)

	for _, mode := range []Zip64Mode{Zip64Auto, Zip64Always} {
		data, err := a.Generate(GenerateWithZip64(mode), GenerateWithCompression("DEFLATE"))
		require.NoError(t, err)

		tests := []struct {
			name string
			data []byte
		}{
			{"prepended", append([]byte("MZ self-extractor stub ......"), data...)},
			{"appended", append(append([]byte(nil), data...), "signature block"...)},
			{"both", append(append([]byte("#!/bin/sh\n"), data...), "\x00\x00\x00"...)},
		}
		for _, tt := range tests {
			t.Run(fmt.Sprintf("zip64=%d/%s", mode, tt.name), func(t *testing.T) {
				t.Parallel()

				loaded, err := Load(tt.data, LoadWithCheckCRC32(true))
				require.NoError(t, err)
				assert.Equal(t, want, texts(t, loaded))
			})
		}
	}
}

func TestTruncatedArchive(t *testing.T) {
	t.Parallel()

	data, err := sample(t).Generate()
	require.NoError(t, err)

	_, err = Load(data[10:])
	require.ErrorIs(t, err, ErrCorrupted)
	assert.Contains(t, err.Error(), "Corrupted zip: missing 10 bytes")

	_, err = Load(data[:len(data)/2])
	require.ErrorIs(t, err, ErrCorrupted)
}

func TestForcedZip64(t *testing.T) {
	t.Parallel()

	a := sample(t)
	data, err := a.Generate(GenerateWithZip64(Zip64Always))
	require.NoError(t, err)

	classic, err := a.Generate()
	require.NoError(t, err)
	assert.Greater(t, len(data), len(classic))

	loaded, err := Load(data, LoadWithCheckCRC32(true))
	require.NoError(t, err)
	assert.Equal(t, texts(t, a), texts(t, loaded))

	e, _ := loaded.Entry("Hello.txt")
	assert.Equal(t, uint64(12), e.Size())
}

func TestZip64SentinelsResolvedFromExtraField(t *testing.T) {
	t.Parallel()

	data := testutil.Build(testutil.Archive{
		Entries: []testutil.Entry{{Name: "big.bin", Data: []byte("payload"), Zip64: true}},
		Zip64:   true,
	})

	loaded, err := Load(data, LoadWithCheckCRC32(true))
	require.NoError(t, err)
	e, _ := loaded.Entry("big.bin")
	assert.Equal(t, uint64(7), e.Size())
	assert.Equal(t, uint64(7), e.CompressedSize())
}

func TestUnicodeNames(t *testing.T) {
	t.Parallel()

	const name = "ünïcödé/日本語.txt"

	t.Run("utf8", func(t *testing.T) {
		t.Parallel()

		a := New()
		mustAdd(t, a, name, "content", WithComment("çømment"))
		data, err := a.Generate()
		require.NoError(t, err)

		loaded, err := Load(data)
		require.NoError(t, err)
		e, ok := loaded.Entry(name)
		require.True(t, ok)
		assert.Equal(t, "çømment", e.Comment)
	})

	t.Run("hooks", func(t *testing.T) {
		t.Parallel()

		// A reversible legacy encoding: UTF-8 with every byte inverted.
		encode := func(s string) ([]byte, error) {
			b := []byte(s)
			for i := range b {
				b[i] = ^b[i]
			}
			return b, nil
		}
		decode := func(raw []byte) (string, error) {
			b := bytes.Clone(raw)
			for i := range b {
				b[i] = ^b[i]
			}
			return string(b), nil
		}

		a := New()
		mustAdd(t, a, name, "content")
		mustAdd(t, a, "plain.txt", "ascii names go through the hooks too")
		data, err := a.Generate(GenerateWithEncodeFileName(encode))
		require.NoError(t, err)

		for _, n := range []string{name, "plain.txt"} {
			legacy, err := encode(n)
			require.NoError(t, err)
			assert.True(t, bytes.Contains(data, legacy), n)
		}
		assert.True(t, bytes.Contains(data, []byte(name)), "Unicode Path extra field holds the UTF-8 name")

		// The Unicode Path extra field wins over any decoder.
		loaded, err := Load(data)
		require.NoError(t, err)
		assert.Equal(t, []string{name, "plain.txt"}, names(loaded))

		loaded, err = Load(data, LoadWithDecodeFileName(decode))
		require.NoError(t, err)
		assert.Equal(t, []string{name, "plain.txt"}, names(loaded))
	})

	t.Run("hooks never see empty text", func(t *testing.T) {
		t.Parallel()

		errEmpty := errors.New("empty input")
		encode := func(s string) ([]byte, error) {
			if s == "" {
				return nil, errEmpty
			}
			return []byte(s), nil
		}
		decode := func(raw []byte) (string, error) {
			if len(raw) == 0 {
				return "", errEmpty
			}
			return string(raw), nil
		}

		a := New()
		mustAdd(t, a, "ascii.txt", "no comments anywhere")
		data, err := a.Generate(GenerateWithEncodeFileName(encode))
		require.NoError(t, err)
		// Local and central header only: unchanged bytes need no extra field.
		assert.Equal(t, 2, bytes.Count(data, []byte("ascii.txt")))

		loaded, err := Load(data, LoadWithDecodeFileName(decode))
		require.NoError(t, err)
		assert.Equal(t, []string{"ascii.txt"}, names(loaded))
		assert.Empty(t, loaded.Comment)
	})

	t.Run("decode hook failure", func(t *testing.T) {
		t.Parallel()

		data := testutil.Build(testutil.Archive{Entries: []testutil.Entry{testutil.Stored("\x82\xa0.txt", "x")}})
		_, err := Load(data, LoadWithDecodeFileName(func([]byte) (string, error) {
			return "", errors.New("unknown code page")
		}))
		require.ErrorIs(t, err, ErrDecodeHook)
	})
}

func TestDirectoriesNeverCompressed(t *testing.T) {
	t.Parallel()

	a := sample(t)
	data, err := a.Generate(GenerateWithCompression("DEFLATE"), GenerateWithCompressionOptions(codec.Options{Level: 9}))
	require.NoError(t, err)

	loaded, err := Load(data)
	require.NoError(t, err)
	for e := range loaded.All() {
		if !e.Dir {
			continue
		}
		assert.Equal(t, codec.MethodStore, e.Method(), e.Name)
		assert.Zero(t, e.CompressedSize(), e.Name)
	}
}

func TestPermissionsRoundTrip(t *testing.T) {
	t.Parallel()

	a := New()
	mustAdd(t, a, "run.sh", "#!/bin/sh", WithUnixPermissions(0o100755))
	mustAdd(t, a, "hidden.txt", "x", WithDOSPermissions(0x02))
	mustAdd(t, a, "plain.txt", "y")
	mustAdd(t, a, "dir/", "")

	data, err := a.Generate(GenerateWithPlatform(PlatformUNIX))
	require.NoError(t, err)
	loaded, err := Load(data)
	require.NoError(t, err)

	run, _ := loaded.Entry("run.sh")
	require.NotNil(t, run.UnixPermissions)
	assert.Equal(t, uint16(0o100755), *run.UnixPermissions)

	hidden, _ := loaded.Entry("hidden.txt")
	require.NotNil(t, hidden.DOSPermissions)
	assert.Equal(t, uint8(0x02), *hidden.DOSPermissions)

	plain, _ := loaded.Entry("plain.txt")
	require.NotNil(t, plain.UnixPermissions)
	assert.Equal(t, uint16(0o100664), *plain.UnixPermissions)

	dir, _ := loaded.Entry("dir/")
	require.NotNil(t, dir.UnixPermissions)
	assert.Equal(t, uint16(0o40775), *dir.UnixPermissions)
	assert.True(t, dir.Dir)
}

func TestDatesAreUTC(t *testing.T) {
	t.Parallel()

	zone := time.FixedZone("UTC+9", 9*3600)
	local := time.Date(2024, time.May, 1, 8, 0, 1, 0, zone)

	a := New()
	mustAdd(t, a, "dated.txt", "x", WithDate(local))
	data, err := a.Generate()
	require.NoError(t, err)
	loaded, err := Load(data)
	require.NoError(t, err)

	e, _ := loaded.Entry("dated.txt")
	assert.Equal(t, time.Date(2024, time.April, 30, 23, 0, 0, 0, time.UTC), e.Date)
}

func TestEncryptedEntriesRejected(t *testing.T) {
	t.Parallel()

	data := testutil.Build(testutil.Archive{Entries: []testutil.Entry{
		{Name: "secret.txt", Data: []byte("\x12\x34\x56\x78\x9a\xbc\xde\xf0\x11\x22\x33\x44data"), Flags: format.FlagEncrypted},
	}})

	_, err := Load(data)
	require.ErrorIs(t, err, ErrEncrypted)
	require.ErrorIs(t, err, ErrUnsupportedFeature)
	assert.EqualError(t, err, "Encrypted zip are not supported")
}

func TestUnknownMethodFailsLazily(t *testing.T) {
	t.Parallel()

	data := testutil.Build(testutil.Archive{Entries: []testutil.Entry{
		{Name: "lzma.bin", Data: []byte("not lzma"), Method: 14},
		testutil.Stored("ok.txt", "ok"),
	}})

	loaded, err := Load(data)
	require.NoError(t, err)

	e, _ := loaded.Entry("lzma.bin")
	_, err = e.Content()
	require.ErrorIs(t, err, ErrUnsupportedFeature)

	// Recompressing needs the content, so generation fails too.
	_, err = loaded.Generate(GenerateWithCompression("DEFLATE"))
	require.ErrorIs(t, err, ErrUnsupportedFeature)

	ok, _ := loaded.Entry("ok.txt")
	text, err := ok.Text()
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
}

func TestLoadCreateFolders(t *testing.T) {
	t.Parallel()

	data := testutil.Build(testutil.Archive{Entries: []testutil.Entry{
		testutil.Stored("a/b/c.txt", "c"),
		testutil.Stored("a/d.txt", "d"),
		testutil.Stored("a/", ""),
	}})

	loaded, err := Load(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b/c.txt", "a/d.txt", "a/"}, names(loaded))

	loaded, err = Load(data, LoadWithCreateFolders(true))
	require.NoError(t, err)
	assert.Equal(t, []string{"a/", "a/b/", "a/b/c.txt", "a/d.txt"}, names(loaded))
}

func TestCommentTooLong(t *testing.T) {
	t.Parallel()

	a := sample(t)
	a.Comment = strings.Repeat("x", 0x10000)
	_, err := a.Generate()
	require.ErrorIs(t, err, ErrFieldTooLong)

	_, err = a.Generate(GenerateWithComment("short"))
	require.NoError(t, err)
}

func TestUnsupportedCompression(t *testing.T) {
	t.Parallel()

	_, err := sample(t).Generate(GenerateWithCompression("BZIP2"))
	require.ErrorIs(t, err, ErrUnsupportedCompression)
}

func TestUnsupportedInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  any
		kind string
	}{
		{"nil", nil, "nil"},
		{"date", time.Now(), "date"},
		{"channel", make(chan int), "pending value"},
		{"function", func() {}, "function"},
		{"struct", struct{ X int }{1}, "object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Load(tt.src)
			require.ErrorIs(t, err, ErrUnsupportedInput)
			var inputErr *InputError
			require.ErrorAs(t, err, &inputErr)
			assert.Contains(t, inputErr.Kind, tt.kind)
		})
	}
}

func TestInputAndOutputRepresentations(t *testing.T) {
	t.Parallel()

	a := sample(t)
	want := texts(t, a)

	tests := []struct {
		output OutputType
		load   []LoadOption
	}{
		{OutputBytes, nil},
		{OutputString, nil},
		{OutputString, []LoadOption{LoadWithOptimizedBinaryString(true)}},
		{OutputBase64, []LoadOption{LoadWithBase64(true)}},
		{OutputArray, nil},
		{OutputBlob, nil},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d", tt.output, len(tt.load)), func(t *testing.T) {
			t.Parallel()

			out, err := a.GenerateAs(tt.output)
			require.NoError(t, err)

			loaded, err := Load(out, tt.load...)
			require.NoError(t, err)
			assert.Equal(t, want, texts(t, loaded))
		})
	}

	out, err := a.GenerateAs(OutputBlob, GenerateWithMIMEType("application/epub+zip"))
	require.NoError(t, err)
	blob, ok := out.(Blob)
	require.True(t, ok)
	assert.Equal(t, "application/epub+zip", blob.MIMEType)
	loaded, err := Load(&blob)
	require.NoError(t, err)
	assert.Equal(t, a.Len(), loaded.Len())

	out, err = a.GenerateAs(OutputBlob)
	require.NoError(t, err)
	assert.Equal(t, DefaultMIMEType, out.(Blob).MIMEType)

	loaded, err = Load(bytes.NewBuffer(blob.Data))
	require.NoError(t, err)
	assert.Equal(t, a.Len(), loaded.Len())

	_, err = a.GenerateAs(OutputType(99))
	require.ErrorIs(t, err, ErrUnsupportedOutputFormat)
}

func TestGenerateAsUnknownTypeLeavesEntries(t *testing.T) {
	t.Parallel()

	data, err := sample(t).Generate(GenerateWithCompression(codec.NameDeflate))
	require.NoError(t, err)
	a, err := Load(data)
	require.NoError(t, err)

	_, err = a.GenerateAs(OutputType(99), GenerateWithCompression(codec.NameStore))
	require.ErrorIs(t, err, ErrUnsupportedOutputFormat)
	for e := range a.All() {
		if e.Dir || e.Size() == 0 {
			continue
		}
		assert.Equal(t, codec.MethodDeflate, e.Method(), e.Name)
	}
}

// zstdCodec registers Zstandard under APPNOTE method 93.
type zstdCodec struct{}

func (zstdCodec) Method() codec.Method { return 93 }

func (zstdCodec) Name() string { return "ZSTD" }

func (zstdCodec) Compress(data []byte, _ codec.Options) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

// zstdMaxMemory covers the encoder's default window.
const zstdMaxMemory = 64 << 20

func (zstdCodec) Decompress(data []byte, size uint64) ([]byte, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(max(size, zstdMaxMemory)))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ErrCorrupted, err)
	}
	if uint64(len(out)) != size {
		return nil, fmt.Errorf("%w: zstd content is %d bytes, want %d", ErrCorrupted, len(out), size)
	}
	return out, nil
}

func TestCustomCodec(t *testing.T) {
	t.Parallel()

	registry := codec.DefaultRegistry()
	registry.Register(zstdCodec{})

	a := sample(t)
	data, err := a.Generate(GenerateWithRegistry(registry), GenerateWithCompression("zstd"))
	require.NoError(t, err)

	loaded, err := Load(data, LoadWithRegistry(registry), LoadWithCheckCRC32(true))
	require.NoError(t, err)
	assert.Equal(t, texts(t, a), texts(t, loaded))

	e, _ := loaded.Entry("docs/readme.md")
	assert.Equal(t, codec.Method(93), e.Method())

	// The default registry does not know method 93.
	loaded, err = Load(data)
	require.NoError(t, err)
	e, _ = loaded.Entry("docs/readme.md")
	_, err = e.Content()
	require.ErrorIs(t, err, ErrUnsupportedFeature)
}

func TestParallelGenerate(t *testing.T) {
	t.Parallel()

	a := New()
	for i := range 64 {
		mustAdd(t, a, fmt.Sprintf("dir%02d/file%03d.txt", i%8, i), strings.Repeat(fmt.Sprintf("line %d\n", i), 200))
	}

	sequential, err := a.Generate(GenerateWithCompression("DEFLATE"))
	require.NoError(t, err)

	// Regenerate from fresh content so the cached DEFLATE bytes are not reused.
	b := New()
	for e := range a.All() {
		content, err := e.Content()
		require.NoError(t, err)
		_, err = b.Add(e.Name, content, WithDate(e.Date))
		require.NoError(t, err)
	}
	parallel, err := b.Generate(GenerateWithCompression("DEFLATE"), GenerateWithWorkers(8))
	require.NoError(t, err)

	assert.Equal(t, sequential, parallel)
}

func TestLogging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	data, err := sample(t).Generate(GenerateWithLogger(logger), GenerateWithZip64(Zip64Always))
	require.NoError(t, err)
	_, err = Load(append([]byte("prefix"), data...), LoadWithLogger(logger))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "generated archive")
	assert.Contains(t, out, "zip64=true")
	assert.Contains(t, out, "loaded archive")
	assert.Contains(t, out, "shift=6")
}
