// Package metadata normalizes engine-specific document metadata into a small
// fixed key set suitable for indexing.
package metadata

import (
	"sort"
	"strings"
)

// Normalized metadata keys.
const (
	Title       = "title"
	Author      = "author"
	Created     = "created"
	Modified    = "modified"
	ContentType = "content-type"
	ContentSize = "content-size"
	Charset     = "charset"
)

// Keys lists every normalized key in a stable order.
var Keys = []string{Title, Author, Created, Modified, ContentType, ContentSize, Charset}

// Metadata is the normalized result. A missing key means the value was not
// available; empty values are never stored.
type Metadata map[string]string

// Get returns the value for key or "" when absent.
func (m Metadata) Get(key string) string {
	if m == nil {
		return ""
	}
	return m[key]
}

// Has reports whether key is present.
func (m Metadata) Has(key string) bool {
	_, ok := m[key]
	return ok
}

func (m Metadata) set(key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	m[key] = value
}

// Raw holds metadata exactly as a parser or converter reported it, keyed by
// the engine's own names ("dc:title", "Author", "Creation-Date", ...).
type Raw map[string]string

// Set stores value under key unless the trimmed value is empty.
func (r Raw) Set(key, value string) {
	value = strings.TrimSpace(value)
	if key == "" || value == "" {
		return
	}
	r[key] = value
}

// Lookup returns the first non-empty value among keys. Exact matches win over
// case-insensitive ones.
func (r Raw) Lookup(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r[k]); v != "" {
			return v
		}
	}
	if len(r) == 0 {
		return ""
	}
	names := make([]string, 0, len(r))
	for k := range r {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range keys {
		for _, name := range names {
			if strings.EqualFold(name, k) {
				if v := strings.TrimSpace(r[name]); v != "" {
					return v
				}
			}
		}
	}
	return ""
}

// Merge copies entries from other that are not already set in r.
func (r Raw) Merge(other Raw) {
	for k, v := range other {
		if _, ok := r[k]; !ok {
			r.Set(k, v)
		}
	}
}
