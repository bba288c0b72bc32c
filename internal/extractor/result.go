package extractor

import (
	"github.com/hyperifyio/goextract/internal/cache"
	"github.com/hyperifyio/goextract/internal/metadata"
	"github.com/hyperifyio/goextract/internal/textenc"
)

// Result is the outcome of one extraction. Text is UTF-8; Bytes returns it
// in the configured output encoding.
type Result struct {
	Text        string
	Metadata    metadata.Metadata
	Strategy    Strategy
	Format      OutputFormat
	ContentType string
	Encoding    string
}

// Bytes encodes Text in the output encoding. Characters the encoding cannot
// represent become character references in markup formats and the
// encoding's replacement character otherwise.
func (r *Result) Bytes() ([]byte, error) {
	return textenc.Encode(r.Text, r.Encoding, r.Format.IsMarkup())
}

func (r *Result) entry(key string) cache.Entry {
	return cache.Entry{
		Key:         key,
		Strategy:    string(r.Strategy),
		Format:      string(r.Format),
		Encoding:    r.Encoding,
		ContentType: r.ContentType,
		Text:        r.Text,
		Metadata:    r.Metadata,
	}
}

func resultFromEntry(e *cache.Entry) *Result {
	md := metadata.Metadata{}
	for k, v := range e.Metadata {
		if v != "" {
			md[k] = v
		}
	}
	return &Result{
		Text:        e.Text,
		Metadata:    md,
		Strategy:    Strategy(e.Strategy),
		Format:      OutputFormat(e.Format),
		ContentType: e.ContentType,
		Encoding:    e.Encoding,
	}
}
