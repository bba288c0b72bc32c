package app

import (
	"time"

	"github.com/hyperifyio/goextract/internal/cache"
	"github.com/hyperifyio/goextract/internal/convert"
	"github.com/hyperifyio/goextract/internal/extractor"
)

// Defaults shared by flag registration and file config overlay.
const (
	DefaultInput        = "-"
	DefaultOutput       = "-"
	DefaultFormat       = "text"
	DefaultEncoding     = "utf-8"
	DefaultSWFFormatter = "text"
	DefaultTimeout      = convert.DefaultTimeout
	DefaultAddr         = ":8080"
	// DefaultMaxBodyBytes bounds request bodies of the HTTP service.
	DefaultMaxBodyBytes int64 = 64 << 20
)

// Config holds runtime configuration for the CLI and the HTTP service.
type Config struct {
	// Input is a file path or "-" for stdin. URL, when set, replaces it.
	InputPath string
	URL       string
	// OutputPath is a file path or "-" for stdout.
	OutputPath string
	// MetaPath is the JSON sidecar path. Empty derives it from OutputPath.
	MetaPath string

	Format      string
	ContentType string
	Encoding    string

	// Converters
	PDFToTextPath string
	SWFToHTMLPath string
	DjVuTextPath  string
	SWFFormatter  string
	TempDir       string
	Timeout       time.Duration

	MaxBytes  int64
	UserAgent string

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool

	// Server
	Addr         string
	MaxBodyBytes int64

	Verbose bool
}

// DefaultConfig returns the configuration used before any flag, env var or
// config file is applied.
func DefaultConfig() Config {
	return Config{
		InputPath:    DefaultInput,
		OutputPath:   DefaultOutput,
		Format:       DefaultFormat,
		Encoding:     DefaultEncoding,
		SWFFormatter: DefaultSWFFormatter,
		Timeout:      DefaultTimeout,
		MaxBytes:     extractor.DefaultMaxBytes,
		UserAgent:    defaultUserAgent(),
		Addr:         DefaultAddr,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

func defaultUserAgent() string {
	return "goextract/" + BuildVersion
}

// ExtractorConfig maps cfg onto the dispatcher's configuration.
func (c Config) ExtractorConfig(rc *cache.ResultCache) extractor.Config {
	return extractor.Config{
		Format:        c.Format,
		Encoding:      c.Encoding,
		ContentType:   c.ContentType,
		PDFToTextPath: c.PDFToTextPath,
		SWFToHTMLPath: c.SWFToHTMLPath,
		DjVuTextPath:  c.DjVuTextPath,
		SWFFormatter:  c.SWFFormatter,
		TempDir:       c.TempDir,
		Timeout:       c.Timeout,
		MaxBytes:      c.MaxBytes,
		Cache:         rc,
	}
}
