// Package extractor turns documents of many formats into plain text plus a
// fixed set of metadata. It classifies each document, hands it to one
// engine (an embedded parser, an external converter or an HTML main-content
// extractor) and normalizes what comes back.
package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/hyperifyio/goextract/internal/cache"
	"github.com/hyperifyio/goextract/internal/convert"
	"github.com/hyperifyio/goextract/internal/extract"
	"github.com/hyperifyio/goextract/internal/metadata"
	"github.com/hyperifyio/goextract/internal/parse"
	"github.com/hyperifyio/goextract/internal/textenc"
)

// DefaultMaxBytes caps the size of a single document.
const DefaultMaxBytes int64 = 100 << 20

// Config is the immutable configuration of an Extractor.
type Config struct {
	// Format is an OutputFormat name; empty means text.
	Format string
	// Encoding is the output encoding label; empty means utf-8.
	Encoding string
	// ContentType is the declared type of every document. Empty means each
	// document is sniffed unless the request declares one.
	ContentType string

	// Converter binaries. An empty path disables the converter; a bare
	// name is resolved on PATH.
	PDFToTextPath string
	SWFToHTMLPath string
	DjVuTextPath  string
	// SWFFormatter is "text" (default) or "markdown".
	SWFFormatter string

	TempDir string
	Timeout time.Duration

	MaxBytes int64
	// Cache, when set, stores results keyed by document and options.
	Cache *cache.ResultCache
}

// Request is one document to extract.
type Request struct {
	Body io.Reader
	// ContentType overrides Config.ContentType for this document.
	ContentType string
	// Name is a file name used to sniff the type by extension.
	Name string
}

// Extractor dispatches documents to extraction strategies. It holds only
// immutable state and is safe for concurrent use.
type Extractor struct {
	format      OutputFormat
	encoding    string
	declared    string
	maxBytes    int64
	available   Converters
	converters  map[Strategy]convert.Converter
	mains       map[OutputFormat]extract.Extractor
	cache       *cache.ResultCache
	fingerprint string
}

// New validates cfg and builds an Extractor. All configuration errors are
// *ConfigError values wrapping ErrConfiguration.
func New(cfg Config) (*Extractor, error) {
	format, err := ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	_, encName, err := textenc.Lookup(cfg.Encoding)
	if err != nil {
		return nil, &ConfigError{Field: "encoding", Value: cfg.Encoding, Reason: "unknown output encoding"}
	}
	formatter, err := convert.FormatterByName(cfg.SWFFormatter)
	if err != nil {
		return nil, &ConfigError{Field: "swf.formatter", Value: cfg.SWFFormatter, Reason: "expected text or markdown"}
	}

	runner := convert.Runner{TempDir: cfg.TempDir, Timeout: cfg.Timeout}
	e := &Extractor{
		format:     format,
		encoding:   encName,
		declared:   strings.TrimSpace(cfg.ContentType),
		maxBytes:   cfg.MaxBytes,
		converters: map[Strategy]convert.Converter{},
		mains: map[OutputFormat]extract.Extractor{
			FormatSnacktory:         extract.ReadabilityExtractor{},
			FormatBoilerpipeArticle: extract.JustextExtractor{},
			FormatBoilerpipeDefault: extract.HeuristicExtractor{},
			FormatBoilerpipeCanola:  extract.DensityExtractor{},
		},
		cache: cfg.Cache,
	}
	if e.maxBytes <= 0 {
		e.maxBytes = DefaultMaxBytes
	}

	if cfg.PDFToTextPath != "" {
		bin, err := resolveBin("pdftotext", cfg.PDFToTextPath)
		if err != nil {
			return nil, err
		}
		e.converters[StrategyPDF] = convert.PDFToText{Path: bin, Runner: runner}
		e.available.PDF = true
	}
	if cfg.SWFToHTMLPath != "" {
		bin, err := resolveBin("swf2html", cfg.SWFToHTMLPath)
		if err != nil {
			return nil, err
		}
		e.converters[StrategySWF] = convert.SWFToHTML{Path: bin, Runner: runner, Formatter: formatter}
		e.available.SWF = true
	}
	if cfg.DjVuTextPath != "" {
		bin, err := resolveBin("djvutxt", cfg.DjVuTextPath)
		if err != nil {
			return nil, err
		}
		e.converters[StrategyDjVu] = convert.DjVuText{Path: bin, Runner: runner}
		e.available.DjVu = true
	}

	if err := checkDeclared(e.declared, format, e.available); err != nil {
		return nil, err
	}
	// Everything that changes output for identical bytes goes into the
	// cache key.
	e.fingerprint = fmt.Sprintf("format=%s encoding=%s pdf=%s swf=%s/%s djvu=%s",
		format, encName, cfg.PDFToTextPath, cfg.SWFToHTMLPath, cfg.SWFFormatter, cfg.DjVuTextPath)
	return e, nil
}

func resolveBin(field, path string) (string, error) {
	bin, err := exec.LookPath(path)
	if err != nil {
		return "", &ConfigError{Field: field, Value: path, Reason: "converter not found or not executable"}
	}
	return bin, nil
}

// Format returns the configured output format.
func (e *Extractor) Format() OutputFormat { return e.format }

// Encoding returns the canonical name of the output encoding.
func (e *Extractor) Encoding() string { return e.encoding }

// Extract reads one document and runs the strategy its content type and the
// configured format call for. Failures are returned, never swallowed: a
// configuration conflict is a *ConfigError, anything else an
// *ExtractionError. A document that yields no text is a success.
func (e *Extractor) Extract(ctx context.Context, req Request) (*Result, error) {
	declared := e.declared
	if ct := strings.TrimSpace(req.ContentType); ct != "" {
		declared = ct
		if err := checkDeclared(declared, e.format, e.available); err != nil {
			return nil, err
		}
	}
	data, err := readLimited(req.Body, e.maxBytes)
	if err != nil {
		return nil, &ExtractionError{Strategy: StrategyGeneric, ContentType: declared, Err: err}
	}

	effective := declared
	if effective == "" {
		effective = parse.Sniff(data, req.Name)
	}
	strategy := Classify(effective, e.format, e.available)
	log.Debug().Str("content_type", effective).Str("strategy", string(strategy)).Str("format", string(e.format)).Msg("classified")

	var key string
	if e.cache != nil {
		key = cache.KeyFrom(e.fingerprint+" ct="+effective, data)
		if ent, ok, err := e.cache.Load(ctx, key); err != nil {
			log.Warn().Err(err).Msg("cache load")
		} else if ok {
			log.Debug().Str("key", key).Msg("cache hit")
			return resultFromEntry(ent), nil
		}
	}

	text, raw, root, err := e.run(ctx, strategy, effective, data)
	if err != nil {
		return nil, &ExtractionError{Strategy: strategy, ContentType: effective, Err: err}
	}
	res := &Result{
		Text:        text,
		Metadata:    metadata.Normalize(raw, root),
		Strategy:    strategy,
		Format:      e.format,
		ContentType: effective,
		Encoding:    e.encoding,
	}

	if e.cache != nil {
		if err := e.cache.Save(ctx, res.entry(key)); err != nil {
			log.Warn().Err(err).Msg("cache save")
		}
	}
	return res, nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if r == nil {
		return nil, errors.New("nil body")
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: over %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}

func (e *Extractor) run(ctx context.Context, strategy Strategy, contentType string, data []byte) (string, metadata.Raw, *html.Node, error) {
	switch strategy {
	case StrategyPDF, StrategySWF, StrategyDjVu:
		out, err := e.converters[strategy].Convert(ctx, data, convert.Options{Mode: e.format.mode(), Charset: e.encoding})
		if err != nil {
			return "", nil, nil, err
		}
		return out.Text, out.Raw, out.Root, nil
	case StrategyHTMLMain:
		return e.runMain(ctx, contentType, data)
	}
	return e.runGeneric(ctx, contentType, data)
}

func (e *Extractor) runGeneric(ctx context.Context, contentType string, data []byte) (string, metadata.Raw, *html.Node, error) {
	doc, err := parse.Parse(ctx, data, contentType)
	if err != nil {
		return "", nil, nil, err
	}
	var text string
	switch e.format {
	case FormatText:
		text = doc.PlainText()
	case FormatHTML:
		text = doc.HTML(e.encoding)
	case FormatXML:
		text = doc.XHTML(e.encoding)
	default:
		root := doc.Root
		if root == nil {
			if root, err = html.Parse(strings.NewReader(doc.HTML("utf-8"))); err != nil {
				return "", nil, nil, err
			}
		}
		text = extract.FromNode(root).Text
	}
	return text, doc.Meta, doc.Root, nil
}

// runMain decodes the page with the generic HTML parser, then hands UTF-8
// markup to the variant's extractor. The extractor's title and author win
// over the page's own.
func (e *Extractor) runMain(ctx context.Context, contentType string, data []byte) (string, metadata.Raw, *html.Node, error) {
	doc, err := parse.Parse(ctx, data, contentType)
	if err != nil {
		return "", nil, nil, err
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, doc.Root); err != nil {
		return "", nil, nil, fmt.Errorf("render: %w", err)
	}
	ex, ok := e.mains[e.format]
	if !ok {
		ex = extract.HeuristicExtractor{}
	}
	page, err := ex.Extract(buf.Bytes())
	if err != nil {
		return "", nil, nil, err
	}
	raw := doc.Meta
	if page.Title != "" {
		raw["title"] = page.Title
	}
	if page.Author != "" {
		raw["Author"] = page.Author
	}
	return page.Text, raw, doc.Root, nil
}
