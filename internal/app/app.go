// Package app wires configuration, input, output and caching around the
// extraction dispatcher for the goextract command.
package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goextract/internal/cache"
	"github.com/hyperifyio/goextract/internal/extractor"
	"github.com/hyperifyio/goextract/internal/fetch"
	"github.com/hyperifyio/goextract/internal/mediatype"
)

// App runs one extraction per Run call.
type App struct {
	cfg     Config
	ext     *extractor.Extractor
	fetcher *fetch.Client

	// Stdin and Stdout back the "-" input and output paths.
	Stdin  io.Reader
	Stdout io.Writer
	now    func() time.Time
}

// New validates cfg, prepares the cache directory and builds the extractor.
// Configuration problems are returned as errors wrapping
// extractor.ErrConfiguration.
func New(ctx context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	rc, err := OpenCache(cfg)
	if err != nil {
		return nil, err
	}
	ext, err := extractor.New(cfg.ExtractorConfig(rc))
	if err != nil {
		return nil, err
	}
	a := &App{
		cfg: cfg,
		ext: ext,
		fetcher: &fetch.Client{
			HTTPClient:        newFetchHTTPClient(),
			UserAgent:         cfg.UserAgent,
			MaxAttempts:       3,
			PerRequestTimeout: cfg.Timeout,
			MaxBytes:          cfg.MaxBytes,
		},
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		now:    time.Now,
	}
	log.Debug().Str("format", string(ext.Format())).Str("encoding", ext.Encoding()).Bool("cache", rc != nil).Msg("extractor ready")
	return a, nil
}

// OpenCache applies the cache invalidation controls and returns the result
// cache, or nil when no cache directory is configured. Purge failures are
// logged and do not fail startup.
func OpenCache(cfg Config) (*cache.ResultCache, error) {
	dir := strings.TrimSpace(cfg.CacheDir)
	if dir == "" {
		return nil, nil
	}
	if cfg.CacheClear {
		if err := cache.ClearDir(dir); err != nil {
			return nil, fmt.Errorf("clear cache: %w", err)
		}
	}
	if cfg.CacheMaxAge > 0 {
		n, err := cache.PurgeByAge(dir, cfg.CacheMaxAge)
		if err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("dir", dir).Msg("cache purge")
		} else if n > 0 {
			log.Debug().Int("removed", n).Msg("cache purged")
		}
	}
	return &cache.ResultCache{Dir: dir, StrictPerms: cfg.CacheStrictPerms}, nil
}

// Extractor exposes the configured dispatcher.
func (a *App) Extractor() *extractor.Extractor { return a.ext }

func (a *App) Close() {
	if t, ok := a.fetcher.HTTPClient.Transport.(interface{ CloseIdleConnections() }); ok {
		t.CloseIdleConnections()
	}
}

// Run reads the input, extracts it and writes the text plus the metadata
// sidecar.
func (a *App) Run(ctx context.Context) error {
	req, source, err := a.open(ctx)
	if err != nil {
		return err
	}
	res, err := a.ext.Extract(ctx, req)
	if err != nil {
		return err
	}
	log.Info().
		Str("source", source).
		Str("strategy", string(res.Strategy)).
		Str("content_type", res.ContentType).
		Int("chars", len(res.Text)).
		Msg("extracted")

	out, err := res.Bytes()
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	if err := a.writeOutput(out); err != nil {
		return err
	}
	if p := metaPath(a.cfg); p != "" {
		if err := writeSidecar(p, buildSidecar(source, res, a.now())); err != nil {
			return err
		}
	}
	return nil
}

// open turns the configured input into a request. A server-declared
// content type is used unless one was configured or it is the generic
// octet-stream type.
func (a *App) open(ctx context.Context) (extractor.Request, string, error) {
	if u := strings.TrimSpace(a.cfg.URL); u != "" {
		doc, err := a.fetcher.Get(ctx, u)
		if err != nil {
			return extractor.Request{}, u, fmt.Errorf("fetch %s: %w", u, err)
		}
		req := extractor.Request{Body: bytes.NewReader(doc.Body), Name: doc.Name}
		if a.cfg.ContentType == "" && doc.ContentType != "" && !mediatype.Is(doc.ContentType, mediatype.OctetStream) {
			req.ContentType = doc.ContentType
		}
		return req, u, nil
	}

	path := strings.TrimSpace(a.cfg.InputPath)
	if path == "" || path == "-" {
		return extractor.Request{Body: a.Stdin}, "stdin", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return extractor.Request{}, path, fmt.Errorf("read input: %w", err)
	}
	return extractor.Request{Body: bytes.NewReader(b), Name: inputName(path)}, path, nil
}

func (a *App) writeOutput(b []byte) error {
	path := strings.TrimSpace(a.cfg.OutputPath)
	if path == "" || path == "-" {
		if _, err := a.Stdout.Write(b); err != nil {
			return fmt.Errorf("write stdout: %w", err)
		}
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Debug().Str("path", path).Int("bytes", len(b)).Msg("wrote output")
	return nil
}
