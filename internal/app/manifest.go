package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperifyio/goextract/internal/extractor"
)

// sidecar is the machine-readable record written next to the extracted text.
type sidecar struct {
	Source      string            `json:"source"`
	Strategy    string            `json:"strategy"`
	Format      string            `json:"format"`
	Encoding    string            `json:"encoding"`
	ContentType string            `json:"content_type"`
	Metadata    map[string]string `json:"metadata"`
	SHA256      string            `json:"sha256"`
	Chars       int               `json:"chars"`
	Version     string            `json:"version"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// computeSHA256Hex returns a lowercase hex-encoded SHA-256 of the given text.
func computeSHA256Hex(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

func buildSidecar(source string, res *extractor.Result, now time.Time) sidecar {
	md := map[string]string{}
	for k, v := range res.Metadata {
		md[k] = v
	}
	return sidecar{
		Source:      source,
		Strategy:    string(res.Strategy),
		Format:      string(res.Format),
		Encoding:    res.Encoding,
		ContentType: res.ContentType,
		Metadata:    md,
		SHA256:      computeSHA256Hex(res.Text),
		Chars:       len([]rune(res.Text)),
		Version:     BuildVersion,
		GeneratedAt: now.UTC(),
	}
}

// marshalSidecarJSON encodes the sidecar with stable indentation.
func marshalSidecarJSON(s sidecar) ([]byte, error) {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func writeSidecar(path string, s sidecar) error {
	b, err := marshalSidecarJSON(s)
	if err != nil {
		return fmt.Errorf("encode sidecar: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir sidecar dir: %w", err)
		}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	return nil
}
