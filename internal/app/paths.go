package app

import (
	"path/filepath"
	"strings"
)

const metaSuffix = ".meta.json"

// metaPath returns where the metadata sidecar goes: the explicit MetaPath,
// or "<output>.meta.json" when output is a file. Empty means no sidecar.
func metaPath(cfg Config) string {
	if p := strings.TrimSpace(cfg.MetaPath); p != "" {
		return p
	}
	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" || out == "-" {
		return ""
	}
	return out + metaSuffix
}

// inputName is the file name handed to the sniffer, empty for stdin.
func inputName(path string) string {
	path = strings.TrimSpace(path)
	if path == "" || path == "-" {
		return ""
	}
	return filepath.Base(path)
}
