package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand" //nolint:gosec // intentional use for reproducible benchmarks
	"net/http"
	_ "net/http/pprof" //nolint:gosec // intentional profiling endpoint
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"time"

	"github.com/felixge/fgprof"

	"github.com/meigma/memzip"
	"github.com/meigma/memzip/codec"
)

type config struct {
	mode        string
	input       string
	files       int
	fileSize    int
	dirCount    int
	compression string
	level       int
	workers     int
	zip64       bool
	checkCRC32  bool
	pattern     string
	fgProfile   string
	duration    time.Duration
	iterations  int
	pprofAddr   string
	cpuProfile  string
	memProfile  string
	traceFile   string
	randomSeed  int64
	verbose     bool
}

//nolint:unused // sink variables prevent compiler optimizations in profiling
var (
	sinkBytes   []byte
	sinkArchive *memzip.Archive
)

//nolint:gocognit,gocyclo // main function complexity is acceptable for CLI tool
func main() {
	cfg := parseFlags()

	if cfg.pprofAddr != "" {
		go func() {
			log.Printf("pprof listening on %s", cfg.pprofAddr)
			//nolint:gosec // intentional pprof server without timeouts for profiling
			if err := http.ListenAndServe(cfg.pprofAddr, nil); err != nil {
				log.Printf("pprof server error: %v", err)
			}
		}()
	}

	a, data, err := buildArchive(cfg)
	if err != nil {
		log.Fatal(err)
	}

	var stopFG func() error
	if cfg.fgProfile != "" {
		fgFile, fgErr := os.Create(cfg.fgProfile)
		if fgErr != nil {
			log.Fatal(fgErr)
		}
		stopFG = fgprof.Start(fgFile, fgprof.FormatPprof)
		defer func() {
			if err := stopFG(); err != nil {
				log.Printf("fgprof stop error: %v", err)
			}
			_ = fgFile.Close()
		}()
	}

	if cfg.cpuProfile != "" {
		cpuFile, cpuErr := os.Create(cfg.cpuProfile)
		if cpuErr != nil {
			log.Fatal(cpuErr) //nolint:gocritic // exitAfterDefer is intentional - profile flush is best-effort
		}
		if cpuErr = pprof.StartCPUProfile(cpuFile); cpuErr != nil {
			log.Fatal(cpuErr)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = cpuFile.Close()
		}()
	}

	if cfg.traceFile != "" {
		traceFile, traceErr := os.Create(cfg.traceFile)
		if traceErr != nil {
			log.Fatal(traceErr)
		}
		if traceErr = trace.Start(traceFile); traceErr != nil {
			log.Fatal(traceErr)
		}
		defer func() {
			trace.Stop()
			_ = traceFile.Close()
		}()
	}

	stats, err := runProfile(cfg, a, data)
	if err != nil {
		log.Fatal(err)
	}

	if cfg.memProfile != "" {
		runtime.GC()
		f, err := os.Create(cfg.memProfile)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal(err)
		}
		_ = f.Close()
	}

	fmt.Printf("mode=%s ops=%d bytes=%d elapsed=%s throughput=%.2f MB/s\n",
		cfg.mode,
		stats.ops,
		stats.bytes,
		stats.elapsed,
		float64(stats.bytes)/(1024*1024)/stats.elapsed.Seconds(),
	)
}

type profileStats struct {
	ops     int
	bytes   int64
	elapsed time.Duration
}

//nolint:gocognit,gocritic // complexity is inherent to multi-mode profiler dispatch; hugeParam acceptable for profiler
func runProfile(cfg config, a *memzip.Archive, data []byte) (profileStats, error) {
	start := time.Now()
	ops := 0
	var byteCount int64

	shouldContinue := func() bool {
		if cfg.iterations > 0 {
			return ops < cfg.iterations
		}
		return time.Since(start) < cfg.duration
	}

	switch cfg.mode {
	case "load":
		for shouldContinue() {
			loaded, err := memzip.Load(data, loadOptions(cfg)...)
			if err != nil {
				return profileStats{}, err
			}
			sinkArchive = loaded
			byteCount += int64(len(data))
			ops++
		}

	case "read":
		for shouldContinue() {
			loaded, err := memzip.Load(data, loadOptions(cfg)...)
			if err != nil {
				return profileStats{}, err
			}
			for e := range loaded.All() {
				content, err := e.Content()
				if err != nil {
					return profileStats{}, err
				}
				sinkBytes = content
				byteCount += int64(len(content))
			}
			ops++
		}

	case "generate":
		for shouldContinue() {
			// A fresh copy keeps compressed content from being reused.
			fresh, err := copyArchive(a)
			if err != nil {
				return profileStats{}, err
			}
			out, err := fresh.Generate(generateOptions(cfg)...)
			if err != nil {
				return profileStats{}, err
			}
			sinkBytes = out
			byteCount += int64(len(out))
			ops++
		}

	case "regenerate":
		for shouldContinue() {
			out, err := a.Generate(generateOptions(cfg)...)
			if err != nil {
				return profileStats{}, err
			}
			sinkBytes = out
			byteCount += int64(len(out))
			ops++
		}

	default:
		return profileStats{}, fmt.Errorf("unknown mode: %s", cfg.mode)
	}

	return profileStats{
		ops:     ops,
		bytes:   byteCount,
		elapsed: time.Since(start),
	}, nil
}

func parseFlags() config {
	var cfg config
	flag.StringVar(&cfg.mode, "mode", "read", "mode: load, read, generate, regenerate")
	flag.StringVar(&cfg.input, "input", "", "profile an existing archive instead of a generated dataset")
	flag.IntVar(&cfg.files, "files", 512, "number of files")
	flag.IntVar(&cfg.fileSize, "file-size", 16<<10, "file size in bytes")
	flag.IntVar(&cfg.dirCount, "dir-count", 16, "number of directories")
	flag.StringVar(&cfg.compression, "compression", codec.NameDeflate, "compression: STORE or DEFLATE")
	flag.IntVar(&cfg.level, "level", codec.DefaultLevel, "compression level")
	flag.IntVar(&cfg.workers, "workers", runtime.GOMAXPROCS(0), "parallel compression workers")
	flag.BoolVar(&cfg.zip64, "zip64", false, "always write zip64 records")
	flag.BoolVar(&cfg.checkCRC32, "check-crc32", false, "verify checksums while loading")
	flag.StringVar(&cfg.pattern, "pattern", "compressible", "pattern: compressible or random")
	flag.StringVar(&cfg.fgProfile, "fgprofile", "", "write fgprof (wall clock) profile to file")
	flag.DurationVar(&cfg.duration, "duration", 10*time.Second, "duration to run (ignored if iterations > 0)")
	flag.IntVar(&cfg.iterations, "iterations", 0, "number of iterations to run")
	flag.StringVar(&cfg.pprofAddr, "pprof-addr", "", "pprof listen address (e.g. :6060)")
	flag.StringVar(&cfg.cpuProfile, "cpuprofile", "", "write CPU profile to file")
	flag.StringVar(&cfg.memProfile, "memprofile", "", "write heap profile to file")
	flag.StringVar(&cfg.traceFile, "trace", "", "write trace to file")
	flag.Int64Var(&cfg.randomSeed, "seed", 1, "random seed")
	flag.BoolVar(&cfg.verbose, "v", false, "log archive diagnostics to stderr")
	flag.Parse()
	return cfg
}

//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func logger(cfg config) *slog.Logger {
	if !cfg.verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func loadOptions(cfg config) []memzip.LoadOption {
	return []memzip.LoadOption{
		memzip.LoadWithCheckCRC32(cfg.checkCRC32),
		memzip.LoadWithLogger(logger(cfg)),
	}
}

//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func generateOptions(cfg config) []memzip.GenerateOption {
	opts := []memzip.GenerateOption{
		memzip.GenerateWithCompression(cfg.compression),
		memzip.GenerateWithCompressionOptions(codec.Options{Level: cfg.level}),
		memzip.GenerateWithWorkers(cfg.workers),
		memzip.GenerateWithLogger(logger(cfg)),
	}
	if cfg.zip64 {
		opts = append(opts, memzip.GenerateWithZip64(memzip.Zip64Always))
	}
	return opts
}

// buildArchive returns the dataset as an Archive and as serialized bytes.
//
//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func buildArchive(cfg config) (*memzip.Archive, []byte, error) {
	if cfg.input != "" {
		data, err := os.ReadFile(cfg.input)
		if err != nil {
			return nil, nil, err
		}
		a, err := memzip.Load(data, loadOptions(cfg)...)
		if err != nil {
			return nil, nil, err
		}
		return a, data, nil
	}

	a, err := makeFiles(cfg.files, cfg.fileSize, cfg.dirCount, cfg.pattern, cfg.randomSeed)
	if err != nil {
		return nil, nil, err
	}
	fresh, err := copyArchive(a)
	if err != nil {
		return nil, nil, err
	}
	data, err := fresh.Generate(generateOptions(cfg)...)
	if err != nil {
		return nil, nil, err
	}
	return a, data, nil
}

func makeFiles(fileCount, fileSize, dirCount int, pattern string, seed int64) (*memzip.Archive, error) {
	if dirCount <= 0 {
		dirCount = 1
	}
	a := memzip.New()
	date := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // intentional use for reproducible benchmarks
	for i := range fileCount {
		name := fmt.Sprintf("dir%02d/file%05d.dat", i%dirCount, i)

		content := make([]byte, fileSize)
		switch pattern {
		case "random":
			if _, err := rng.Read(content); err != nil {
				return nil, err
			}
		default:
			fillByte := byte('a' + (i % 26))
			for j := range content {
				content[j] = fillByte
			}
			if len(content) > 0 {
				content[0] = byte(i)
			}
		}

		if _, err := a.Add(name, content, memzip.WithDate(date), memzip.WithCreateFolders()); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// copyArchive rebuilds a from uncompressed content.
func copyArchive(a *memzip.Archive) (*memzip.Archive, error) {
	out := memzip.New()
	out.Comment = a.Comment
	for e := range a.All() {
		content, err := e.Content()
		if err != nil {
			return nil, err
		}
		opts := []memzip.EntryOption{memzip.WithDate(e.Date), memzip.WithComment(e.Comment)}
		if e.Dir {
			opts = append(opts, memzip.WithDir())
		}
		if _, err := out.Add(e.Name, content, opts...); err != nil {
			return nil, err
		}
	}
	return out, nil
}
