package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestResultCache_SaveLoad(t *testing.T) {
	t.Parallel()
	c := &ResultCache{Dir: t.TempDir()}
	key := KeyFrom("format=text", []byte("%PDF-1.4"))
	e := Entry{
		Key:      key,
		Strategy: "generic",
		Format:   "text",
		Text:     "hello",
		Metadata: map[string]string{"title": "Report Q1"},
	}
	if err := c.Save(context.Background(), e); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := c.Load(context.Background(), key)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.Text != "hello" || got.Metadata["title"] != "Report Q1" || got.SavedAt.IsZero() {
		t.Fatalf("unexpected entry %+v", got)
	}
}

func TestResultCache_ConcurrentSaveSameKey(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	c := &ResultCache{Dir: dir}
	key := KeyFrom("format=text", []byte("same document"))

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.Save(context.Background(), Entry{Key: key, Text: "hello"})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	if _, ok, _ := c.Load(context.Background(), key); !ok {
		t.Fatalf("entry missing after concurrent saves")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, de := range entries {
		if strings.HasSuffix(de.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", de.Name())
		}
	}
}

func TestResultCache_FailedRenameRemovesTemp(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	c := &ResultCache{Dir: dir}
	key := KeyFrom("format=text", []byte("doc"))
	// A non-empty directory at the entry path makes the rename fail.
	if err := os.MkdirAll(filepath.Join(dir, key+".json", "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := c.Save(context.Background(), Entry{Key: key, Text: "x"}); err == nil {
		t.Fatalf("expected save error")
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(matches) != 0 {
		t.Fatalf("temp files left behind: %v", matches)
	}
}

func TestResultCache_MissAndCorruptEntry(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	c := &ResultCache{Dir: dir}
	if _, ok, err := c.Load(context.Background(), "nope"); ok || err != nil {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Load(context.Background(), "bad"); ok {
		t.Fatalf("corrupt entry must be a miss")
	}
}

func TestKeyFrom_DependsOnOptionsAndData(t *testing.T) {
	t.Parallel()
	a := KeyFrom("format=text", []byte("x"))
	if a != KeyFrom("format=text", []byte("x")) {
		t.Fatalf("key not deterministic")
	}
	if a == KeyFrom("format=html", []byte("x")) || a == KeyFrom("format=text", []byte("y")) {
		t.Fatalf("key must change with options and data")
	}
}

func TestResultCache_StrictPerms(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "results")
	c := &ResultCache{Dir: dir, StrictPerms: true}
	key := KeyFrom("o", []byte("d"))
	if err := c.Save(context.Background(), Entry{Key: key}); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat dir: %v", err)
	}
	if got := info.Mode() & 0o777; got != 0o700 {
		t.Fatalf("dir mode = %o, want 0700", got)
	}
	finfo, err := os.Stat(filepath.Join(dir, key+".json"))
	if err != nil {
		t.Fatalf("stat file: %v", err)
	}
	if got := finfo.Mode() & 0o777; got != 0o600 {
		t.Fatalf("file mode = %o, want 0600", got)
	}
}

func TestPurgeByAge(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	c := &ResultCache{Dir: dir}
	ctx := context.Background()
	if err := c.Save(ctx, Entry{Key: "old", SavedAt: time.Now().Add(-48 * time.Hour).UTC()}); err != nil {
		t.Fatal(err)
	}
	if err := c.Save(ctx, Entry{Key: "fresh"}); err != nil {
		t.Fatal(err)
	}
	removed, err := PurgeByAge(dir, 24*time.Hour)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed=%d, want 1", removed)
	}
	if _, ok, _ := c.Load(ctx, "old"); ok {
		t.Fatalf("old entry should be gone")
	}
	if _, ok, _ := c.Load(ctx, "fresh"); !ok {
		t.Fatalf("fresh entry should remain")
	}
}

func TestClearDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "x.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ClearDir(dir); err != nil {
		t.Fatalf("clear: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected empty dir after clear")
	}
	if err := ClearDir("  "); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}
