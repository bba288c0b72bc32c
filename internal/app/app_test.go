package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/goextract/internal/extractor"
)

const page = `<html><head><title>Doc</title></head><body><nav>menu</nav><main><h1>Hi</h1><p>there</p></main></body></html>`

func newApp(t *testing.T, cfg Config) *App {
	t.Helper()
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(a.Close)
	a.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	return a
}

func TestRun_FileToFileWritesSidecar(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "page.html")
	if err := os.WriteFile(in, []byte(page), 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}
	out := filepath.Join(dir, "out", "page.txt")

	cfg := DefaultConfig()
	cfg.InputPath = in
	cfg.OutputPath = out
	if err := newApp(t, cfg).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	text, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(text) != "menu\n\nHi\n\nthere" {
		t.Fatalf("text=%q", text)
	}

	b, err := os.ReadFile(out + ".meta.json")
	if err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	var sc sidecar
	if err := json.Unmarshal(b, &sc); err != nil {
		t.Fatalf("decode sidecar: %v", err)
	}
	if sc.Source != in || sc.Strategy != "generic" || sc.Format != "text" || sc.Encoding != "utf-8" {
		t.Fatalf("sidecar header: %+v", sc)
	}
	if sc.Metadata["title"] != "Doc" {
		t.Fatalf("metadata=%v", sc.Metadata)
	}
	if sc.SHA256 != computeSHA256Hex(string(text)) || sc.Chars != len(text) {
		t.Fatalf("digest/chars mismatch: %+v", sc)
	}
	if !sc.GeneratedAt.Equal(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("generated_at=%s", sc.GeneratedAt)
	}
}

func TestRun_StdinToStdout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ContentType = "text/plain"
	a := newApp(t, cfg)
	var buf bytes.Buffer
	a.Stdin = strings.NewReader("alpha\n\n\nbeta")
	a.Stdout = &buf
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if buf.String() != "alpha\n\nbeta" {
		t.Fatalf("stdout=%q", buf.String())
	}
}

func TestRun_ExplicitMetaPathWithStdout(t *testing.T) {
	meta := filepath.Join(t.TempDir(), "doc.json")
	cfg := DefaultConfig()
	cfg.ContentType = "text/plain"
	cfg.MetaPath = meta
	a := newApp(t, cfg)
	a.Stdin = strings.NewReader("hello")
	a.Stdout = &bytes.Buffer{}
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(meta); err != nil {
		t.Fatalf("sidecar missing: %v", err)
	}
}

func TestRun_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/raw/page.html" {
			w.Header().Set("Content-Type", "application/octet-stream")
		} else {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		}
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	for _, path := range []string{"/article", "/raw/page.html"} {
		cfg := DefaultConfig()
		cfg.URL = srv.URL + path
		cfg.Format = "text_main"
		a := newApp(t, cfg)
		var buf bytes.Buffer
		a.Stdout = &buf
		if err := a.Run(context.Background()); err != nil {
			t.Fatalf("%s: Run: %v", path, err)
		}
		if buf.String() != "Hi\n\nthere" {
			t.Fatalf("%s: stdout=%q", path, buf.String())
		}
	}
}

func TestRun_URLFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.URL = srv.URL
	a := newApp(t, cfg)
	a.Stdout = &bytes.Buffer{}
	err := a.Run(context.Background())
	if err == nil || errors.Is(err, extractor.ErrExtractionFailed) || errors.Is(err, extractor.ErrConfiguration) {
		t.Fatalf("fetch failure should be a plain I/O error, got %v", err)
	}
}

func TestNew_ConfigurationErrors(t *testing.T) {
	cases := map[string]func(*Config){
		"unknown format":     func(c *Config) { c.Format = "pdf" },
		"unknown encoding":   func(c *Config) { c.Encoding = "klingon" },
		"main without html":  func(c *Config) { c.Format = "text_main_snacktory" },
		"missing converter":  func(c *Config) { c.PDFToTextPath = filepath.Join(t.TempDir(), "nope") },
		"url and input path": func(c *Config) { c.URL = "http://x"; c.InputPath = "a.pdf" },
	}
	for name, edit := range cases {
		cfg := DefaultConfig()
		edit(&cfg)
		if _, err := New(context.Background(), cfg); !errors.Is(err, extractor.ErrConfiguration) {
			t.Errorf("%s: expected configuration error, got %v", name, err)
		}
	}
}

func TestRun_ExtractionFailure(t *testing.T) {
	in := filepath.Join(t.TempDir(), "image.png")
	if err := os.WriteFile(in, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := DefaultConfig()
	cfg.InputPath = in
	a := newApp(t, cfg)
	a.Stdout = &bytes.Buffer{}
	if err := a.Run(context.Background()); !errors.Is(err, extractor.ErrExtractionFailed) {
		t.Fatalf("expected extraction failure, got %v", err)
	}
}

func TestOpenCache(t *testing.T) {
	rc, err := OpenCache(DefaultConfig())
	if err != nil || rc != nil {
		t.Fatalf("no dir should mean no cache, got %v %v", rc, err)
	}

	dir := t.TempDir()
	stale := filepath.Join(dir, "stale.json")
	if err := os.WriteFile(stale, []byte("{}"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := DefaultConfig()
	cfg.CacheDir = dir
	cfg.CacheClear = true
	cfg.CacheStrictPerms = true
	rc, err = OpenCache(cfg)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	if rc.Dir != dir || !rc.StrictPerms {
		t.Fatalf("cache=%+v", rc)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("clear should remove entries, stat err=%v", err)
	}

	cfg.CacheClear = false
	cfg.CacheDir = filepath.Join(dir, "missing")
	cfg.CacheMaxAge = time.Hour
	if _, err := OpenCache(cfg); err != nil {
		t.Fatalf("purge of a missing dir must not fail: %v", err)
	}
}

func TestMetaPathAndInputName(t *testing.T) {
	cfg := DefaultConfig()
	if metaPath(cfg) != "" {
		t.Fatalf("stdout output should have no default sidecar")
	}
	cfg.OutputPath = "out/a.txt"
	if metaPath(cfg) != "out/a.txt.meta.json" {
		t.Fatalf("derived=%q", metaPath(cfg))
	}
	cfg.MetaPath = "m.json"
	if metaPath(cfg) != "m.json" {
		t.Fatalf("explicit=%q", metaPath(cfg))
	}
	if inputName("-") != "" || inputName("dir/Report.PDF") != "Report.PDF" {
		t.Fatalf("inputName mismatch")
	}
}
