// Package parse is the generic, in-process document parser. It routes a
// document to an embedded Go library by media type and returns structured
// sections plus the library's raw metadata.
//
// Supported media types:
//   - application/pdf: github.com/ledongthuc/pdf for text, pdfcpu for document info
//   - text/html, application/xhtml+xml: golang.org/x/net/html with charset sniffing
//   - docx, odt, rtf, pages, xml: code.sajari.com/docconv/v2
//   - text/*: passthrough
package parse

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goextract/internal/mediatype"
)

// ErrUnsupported is returned for media types no embedded parser handles.
var ErrUnsupported = errors.New("unsupported content type")

// Parse parses data as the given content type. The content type may carry
// parameters (charset); an empty content type is sniffed from data.
func Parse(ctx context.Context, data []byte, contentType string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(contentType) == "" {
		contentType = Sniff(data, "")
	}
	base := mediatype.Base(contentType)
	log.Debug().Str("content_type", base).Int("bytes", len(data)).Msg("generic parse")

	var (
		doc *Document
		err error
	)
	switch {
	case base == mediatype.PDF:
		doc, err = parsePDF(data)
	case mediatype.IsHTML(base):
		doc, err = parseHTML(data, contentType)
	case base == mediatype.Docx, base == mediatype.ODT, base == mediatype.RTF,
		base == mediatype.Pages, base == mediatype.XML:
		doc, err = parseOffice(data, base)
	case strings.HasPrefix(base, "text/"):
		doc, err = parseText(data, contentType)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, base)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", base, err)
	}
	doc.ContentType = base
	if doc.Meta.Lookup("Content-Type") == "" {
		doc.Meta.Set("Content-Type", base)
	}
	doc.Meta.Set("Content-Length", strconv.Itoa(len(data)))
	return doc, nil
}

// guard turns a panic inside a third-party parser into an error. Malformed
// PDFs in particular can trip index panics deep in the reader.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parser panic: %v", r)
		}
	}()
	return fn()
}
