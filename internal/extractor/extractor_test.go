package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/hyperifyio/goextract/internal/cache"
	"github.com/hyperifyio/goextract/internal/parse"
)

func reportPDF(t *testing.T) []byte {
	t.Helper()
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetTitle("Report Q1", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, "Revenue grew in the first quarter.", "", 1, "L", false, 0, "")
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("render pdf: %v", err)
	}
	return buf.Bytes()
}

// minimalDocx builds a DOCX holding one paragraph and core properties.
func minimalDocx(t *testing.T) []byte {
	t.Helper()
	parts := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
			`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
			`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/></Types>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
			`<w:body><w:p><w:r><w:t>Sales rose in every region.</w:t></w:r></w:p></w:body></w:document>`,
		"docProps/core.xml": `<?xml version="1.0" encoding="UTF-8"?><cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/">` +
			`<dc:title>Quarterly</dc:title><dc:creator>Ada Lovelace</dc:creator><cp:lastModifiedBy>Charles Babbage</cp:lastModifiedBy>` +
			`<dcterms:created>2020-01-02T03:04:05Z</dcterms:created></cp:coreProperties>`,
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func fakeConverter(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("converter fakes need /bin/sh")
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write fake: %v", err)
	}
	return path
}

func mustNew(t *testing.T, cfg Config) *Extractor {
	t.Helper()
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func extractBytes(t *testing.T, e *Extractor, data []byte, contentType string) *Result {
	t.Helper()
	res, err := e.Extract(context.Background(), Request{Body: bytes.NewReader(data), ContentType: contentType})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	return res
}

func TestExtract_PDFWithoutConverterUsesGenericParser(t *testing.T) {
	data := reportPDF(t)
	e := mustNew(t, Config{Format: "text"})
	res := extractBytes(t, e, data, "")

	if res.Strategy != StrategyGeneric {
		t.Fatalf("strategy=%s", res.Strategy)
	}
	if strings.TrimSpace(res.Text) == "" {
		t.Fatalf("expected non-empty text")
	}
	if got := res.Metadata.Get("title"); got != "Report Q1" {
		t.Fatalf("title=%q", got)
	}
	if got := res.Metadata.Get("content-type"); got != "application/pdf" {
		t.Fatalf("content-type=%q", got)
	}
	if got := res.Metadata.Get("content-size"); got != strconv.Itoa(len(data)) {
		t.Fatalf("content-size=%q, want %d", got, len(data))
	}
}

func TestExtract_MainVariantsReadAuthor(t *testing.T) {
	prose := strings.Repeat("The council agreed that the new library should open in the spring, and the members thanked the staff for their work. ", 4)
	page := `<html><head><title>Council news</title><meta name="Author" content="J. Doe"></head>
	<body><nav><a href="/">Home</a></nav><article><h1>Library</h1><p>` + prose + `</p></article></body></html>`

	for _, f := range []OutputFormat{FormatSnacktory, FormatBoilerpipeDefault, FormatBoilerpipeArticle, FormatBoilerpipeCanola} {
		t.Run(string(f), func(t *testing.T) {
			e := mustNew(t, Config{Format: string(f), ContentType: "text/html; charset=utf-8"})
			res := extractBytes(t, e, []byte(page), "")
			if res.Strategy != StrategyHTMLMain {
				t.Fatalf("strategy=%s", res.Strategy)
			}
			if got := res.Metadata.Get("author"); got != "J. Doe" {
				t.Fatalf("author=%q", got)
			}
			if got := res.Metadata.Get("content-type"); got != "text/html" {
				t.Fatalf("content-type=%q", got)
			}
			if got := res.Metadata.Get("charset"); got != "utf-8" {
				t.Fatalf("charset=%q", got)
			}
			if strings.Contains(res.Text, "Home") {
				t.Fatalf("navigation leaked into %q", res.Text)
			}
		})
	}
}

func TestExtract_HTMLCharsetKeepsDeclaredLabel(t *testing.T) {
	prose := strings.Repeat("The harbour reopened after the storm and the ferries resumed their usual timetable. ", 4)
	page := append([]byte(`<html><head><title>Harbour</title></head><body><article><p>`+prose+`caf`), 0xe9, '<', '/', 'p', '>')
	page = append(page, []byte(`</article></body></html>`)...)

	for _, f := range []OutputFormat{FormatText, FormatBoilerpipeDefault} {
		t.Run(string(f), func(t *testing.T) {
			e := mustNew(t, Config{Format: string(f), ContentType: "text/html; charset=iso-8859-1"})
			res := extractBytes(t, e, page, "")
			if got := res.Metadata.Get("charset"); got != "iso-8859-1" {
				t.Fatalf("charset=%q", got)
			}
			if got := res.Metadata.Get("content-type"); got != "text/html" {
				t.Fatalf("content-type=%q", got)
			}
			if !strings.Contains(res.Text, "café") {
				t.Fatalf("text=%q", res.Text)
			}
		})
	}

	res := extractBytes(t, mustNew(t, Config{}), []byte("<html><body><p>plain</p></body></html>"), "text/html")
	if got := res.Metadata.Get("charset"); got != "" {
		t.Fatalf("undeclared charset=%q", got)
	}
}

func TestExtract_DocxTextAndCoreProperties(t *testing.T) {
	res := extractBytes(t, mustNew(t, Config{}), minimalDocx(t), "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	if res.Strategy != StrategyGeneric {
		t.Fatalf("strategy=%s", res.Strategy)
	}
	if !strings.Contains(res.Text, "Sales rose in every region.") {
		t.Fatalf("text=%q", res.Text)
	}
	want := map[string]string{
		"title":   "Quarterly",
		"author":  "Ada Lovelace",
		"created": "2020-01-02T03:04:05Z",
	}
	for k, v := range want {
		if got := res.Metadata.Get(k); got != v {
			t.Fatalf("%s=%q want %q", k, got, v)
		}
	}
}

func TestExtract_GenericContentHandlers(t *testing.T) {
	page := []byte(`<html><head><title>Doc</title></head><body><nav>menu</nav><main><h1>Hi</h1><p>there</p></main></body></html>`)

	res := extractBytes(t, mustNew(t, Config{Format: "html"}), page, "text/html")
	if !strings.HasPrefix(res.Text, "<!DOCTYPE html>") || !strings.Contains(res.Text, "<h1>Hi</h1>") {
		t.Fatalf("html=%s", res.Text)
	}
	res = extractBytes(t, mustNew(t, Config{Format: "xml"}), page, "text/html")
	if !strings.HasPrefix(res.Text, `<?xml version="1.0" encoding="utf-8"?>`) {
		t.Fatalf("xml=%s", res.Text)
	}
	res = extractBytes(t, mustNew(t, Config{Format: "text"}), page, "text/html")
	if res.Text != "menu\n\nHi\n\nthere" {
		t.Fatalf("text=%q", res.Text)
	}
	res = extractBytes(t, mustNew(t, Config{Format: "text_main"}), page, "text/html")
	if res.Text != "Hi\n\nthere" {
		t.Fatalf("text_main=%q", res.Text)
	}
	if res.Metadata.Get("title") != "Doc" {
		t.Fatalf("title=%q", res.Metadata.Get("title"))
	}
}

func TestExtract_EmptyDocumentIsSuccess(t *testing.T) {
	res := extractBytes(t, mustNew(t, Config{}), []byte("<html><body></body></html>"), "text/html")
	if res.Text != "" {
		t.Fatalf("text=%q", res.Text)
	}
}

func TestExtract_OutputEncoding(t *testing.T) {
	e := mustNew(t, Config{Encoding: "iso-8859-1"})
	res := extractBytes(t, e, []byte("café"), "text/plain; charset=utf-8")
	b, err := res.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if !bytes.Equal(b, []byte{'c', 'a', 'f', 0xe9}) {
		t.Fatalf("bytes=% x", b)
	}
}

func TestNew_ConfigurationErrors(t *testing.T) {
	cases := map[string]Config{
		"unknown format":           {Format: "pdf"},
		"main variant without ct":  {Format: "text_main_snacktory"},
		"main variant non-html":    {Format: "text_main_boilerpipe_canola", ContentType: "application/pdf"},
		"swf without converter":    {ContentType: "application/x-shockwave-flash"},
		"djvu without converter":   {ContentType: "image/vnd.djvu"},
		"missing converter binary": {PDFToTextPath: filepath.Join(t.TempDir(), "no-such-pdftotext")},
		"unknown encoding":         {Encoding: "klingon-8"},
		"unknown swf formatter":    {SWFFormatter: "rtf"},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(cfg)
			var ce *ConfigError
			if !errors.Is(err, ErrConfiguration) || !errors.As(err, &ce) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
		})
	}
}

func TestExtract_RequestOverrideIsValidated(t *testing.T) {
	e := mustNew(t, Config{})
	_, err := e.Extract(context.Background(), Request{Body: strings.NewReader("FWS"), ContentType: "application/x-shockwave-flash"})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestExtract_UnsupportedTypeFails(t *testing.T) {
	e := mustNew(t, Config{})
	_, err := e.Extract(context.Background(), Request{Body: bytes.NewReader([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))})
	var xe *ExtractionError
	if !errors.As(err, &xe) || !errors.Is(err, ErrExtractionFailed) || !errors.Is(err, parse.ErrUnsupported) {
		t.Fatalf("expected ExtractionError wrapping ErrUnsupported, got %v", err)
	}
	if xe.Strategy != StrategyGeneric || xe.ContentType != "image/png" {
		t.Fatalf("unexpected error fields %+v", xe)
	}
}

func TestExtract_TooLarge(t *testing.T) {
	e := mustNew(t, Config{MaxBytes: 4})
	_, err := e.Extract(context.Background(), Request{Body: strings.NewReader("hello world"), ContentType: "text/plain"})
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

const fakePDFToText = `for a; do last=$a; done
cat > "$last" <<'EOF'
<html><head><title>Report Q1</title>
<meta name="Author" content="Finance Team">
<meta name="CreationDate" content="D:20200102030405Z00'00'">
<meta name="ModDate" content="20200203040506+01'00'">
</head><body><pre>Revenue grew.</pre></body></html>
EOF
`

func TestExtract_PDFConverterNormalizesMetadata(t *testing.T) {
	bin := fakeConverter(t, "pdftotext", fakePDFToText)
	tmp := t.TempDir()
	e := mustNew(t, Config{PDFToTextPath: bin, TempDir: tmp})
	input := []byte("%PDF-1.4 fake")
	res := extractBytes(t, e, input, "application/pdf")

	if res.Strategy != StrategyPDF {
		t.Fatalf("strategy=%s", res.Strategy)
	}
	if res.Text != "Revenue grew." {
		t.Fatalf("text=%q", res.Text)
	}
	want := map[string]string{
		"title":        "Report Q1",
		"author":       "Finance Team",
		"created":      "2020-01-02T03:04:05Z",
		"modified":     "2020-02-03T04:05:06Z",
		"content-type": "application/pdf",
		"content-size": strconv.Itoa(len(input)),
	}
	for k, v := range want {
		if got := res.Metadata.Get(k); got != v {
			t.Errorf("%s=%q, want %q", k, got, v)
		}
	}
	entries, _ := os.ReadDir(tmp)
	if len(entries) != 0 {
		t.Fatalf("temp files left behind: %d", len(entries))
	}
}

func TestExtract_ConverterFailureAndTimeout(t *testing.T) {
	broken := fakeConverter(t, "djvutxt", "echo 'corrupt file' >&2\nexit 1\n")
	tmp := t.TempDir()
	e := mustNew(t, Config{DjVuTextPath: broken, TempDir: tmp})
	_, err := e.Extract(context.Background(), Request{Body: strings.NewReader("AT&T"), ContentType: "image/x-djvu"})
	var xe *ExtractionError
	if !errors.As(err, &xe) || xe.Strategy != StrategyDjVu {
		t.Fatalf("expected djvu ExtractionError, got %v", err)
	}

	slow := fakeConverter(t, "djvutxt", "exec sleep 5\n")
	e = mustNew(t, Config{DjVuTextPath: slow, TempDir: tmp, Timeout: 100 * time.Millisecond})
	_, err = e.Extract(context.Background(), Request{Body: strings.NewReader("AT&T"), ContentType: "image/vnd.djvu"})
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected extraction failure on timeout, got %v", err)
	}
	entries, _ := os.ReadDir(tmp)
	if len(entries) != 0 {
		t.Fatalf("temp files left behind: %d", len(entries))
	}
}

func TestExtract_CacheHitSkipsConverter(t *testing.T) {
	bin := fakeConverter(t, "djvutxt", `echo x >> "$(dirname "$0")/calls"
printf 'scanned page' > "$2"
`)
	rc := &cache.ResultCache{Dir: t.TempDir()}
	e := mustNew(t, Config{DjVuTextPath: bin, Cache: rc})

	first := extractBytes(t, e, []byte("AT&TFORM"), "image/vnd.djvu")
	second := extractBytes(t, e, []byte("AT&TFORM"), "image/vnd.djvu")
	if first.Text != "scanned page" || second.Text != first.Text {
		t.Fatalf("texts %q / %q", first.Text, second.Text)
	}
	if second.Strategy != StrategyDjVu || second.Metadata.Get("content-type") != "image/vnd.djvu" {
		t.Fatalf("cached result lost fields: %+v", second)
	}
	calls, err := os.ReadFile(filepath.Join(filepath.Dir(bin), "calls"))
	if err != nil {
		t.Fatalf("read calls: %v", err)
	}
	if n := strings.Count(string(calls), "x"); n != 1 {
		t.Fatalf("converter ran %d times, want 1", n)
	}
}
