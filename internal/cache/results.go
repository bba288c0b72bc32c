package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Entry is one stored extraction result.
type Entry struct {
	Key         string            `json:"key"`
	Strategy    string            `json:"strategy"`
	Format      string            `json:"format"`
	Encoding    string            `json:"encoding"`
	ContentType string            `json:"content_type"`
	Text        string            `json:"text"`
	Metadata    map[string]string `json:"metadata"`
	SavedAt     time.Time         `json:"saved_at"`
}

// ResultCache stores extraction results on disk as <key>.json, where key is
// a digest of the document bytes and every option that changes the output.
// No eviction policy is included; see PurgeByAge.
type ResultCache struct {
	Dir string
	// StrictPerms, when true, enforces 0700 on the cache directory and 0600
	// on entries.
	StrictPerms bool
}

// KeyFrom builds a cache key from the option fingerprint and the document.
func KeyFrom(options string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(options))
	h.Write([]byte("\n\n"))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func (c *ResultCache) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	perm := os.FileMode(0o755)
	if c.StrictPerms {
		perm = 0o700
	}
	if err := os.MkdirAll(c.Dir, perm); err != nil {
		return err
	}
	if c.StrictPerms {
		if info, err := os.Stat(c.Dir); err == nil && info.Mode()&0o777 != 0o700 {
			_ = os.Chmod(c.Dir, 0o700)
		}
	}
	return nil
}

func (c *ResultCache) pathFor(key string) string {
	return filepath.Join(c.Dir, key+".json")
}

// Load returns the entry stored under key. A missing or unreadable entry is
// a miss, not an error.
func (c *ResultCache) Load(_ context.Context, key string) (*Entry, bool, error) {
	if err := c.ensureDir(); err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		return nil, false, nil
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil || e.Key != key {
		return nil, false, nil
	}
	return &e, true, nil
}

// Save writes e under e.Key, replacing any previous entry atomically.
func (c *ResultCache) Save(_ context.Context, e Entry) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	if e.Key == "" {
		return errors.New("cache entry without key")
	}
	if e.SavedAt.IsZero() {
		e.SavedAt = time.Now().UTC()
	}
	data, err := json.Marshal(&e)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	mode := os.FileMode(0o644)
	if c.StrictPerms {
		mode = 0o600
	}
	f, err := os.CreateTemp(c.Dir, e.Key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("write entry: %w", err)
	}
	tmp := f.Name()
	_, err = f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tmp, mode)
	}
	if err == nil {
		err = os.Rename(tmp, c.pathFor(e.Key))
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write entry: %w", err)
	}
	return nil
}
