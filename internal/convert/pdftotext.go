package convert

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/hyperifyio/goextract/internal/extract"
	"github.com/hyperifyio/goextract/internal/mediatype"
	"github.com/hyperifyio/goextract/internal/metadata"
	"github.com/hyperifyio/goextract/internal/parse"
)

// PDFToText converts PDFs with poppler's pdftotext in HTML-meta mode. The
// document info dictionary comes back as <title> and <meta> tags.
type PDFToText struct {
	Path   string
	Runner Runner
}

func (PDFToText) Name() string { return "pdftotext" }

func (c PDFToText) Convert(ctx context.Context, input []byte, opts Options) (*Output, error) {
	out, err := c.Runner.Run(ctx, Job{
		Bin:       c.Path,
		InSuffix:  ".pdf",
		OutSuffix: ".html",
		Args: func(in, out string) []string {
			return []string{"-enc", "UTF-8", "-raw", "-q", "-htmlmeta", "-eol", "unix", in, out}
		},
	}, input)
	if err != nil {
		return nil, err
	}
	markup := declareCharset(out, opts.charset())

	doc, err := parse.Parse(ctx, markup, "text/html; charset=utf-8")
	if err != nil {
		return nil, fmt.Errorf("pdftotext output: %w", err)
	}
	raw := metadata.Raw{}
	raw.Set("title", doc.Meta.Lookup("title"))
	for _, k := range []string{"Author", "CreationDate", "ModDate", "Subject", "Keywords", "Creator", "Producer"} {
		raw.Set(k, doc.Meta.Lookup(k))
	}
	raw.Set("Content-Type", mediatype.PDF)
	raw.Set("Content-Length", strconv.Itoa(len(input)))

	res := &Output{Raw: raw, Root: doc.Root}
	switch opts.Mode {
	case Text:
		res.Text, err = sanitizedText(ctx, doc.Root)
		if err != nil {
			return nil, err
		}
	case MainText:
		res.Text = extract.FromNode(doc.Root).Text
	default:
		res.Text = string(markup)
	}
	return res, nil
}

// declareCharset adds a Content-Type meta line right after </head>, the way
// downstream HTML consumers expect pdftotext output to announce itself.
func declareCharset(markup []byte, cs string) []byte {
	line := []byte("\n<meta http-equiv='Content-Type' content='text/html; charset=" + cs + "'>")
	i := bytes.Index(bytes.ToLower(markup), []byte("</head>"))
	if i < 0 {
		return markup
	}
	i += len("</head>")
	out := make([]byte, 0, len(markup)+len(line))
	out = append(out, markup[:i]...)
	out = append(out, line...)
	return append(out, markup[i:]...)
}

// basicPolicy keeps simple text formatting and drops everything else.
var basicPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("a", "b", "blockquote", "br", "cite", "code", "dd", "dl", "dt", "em",
		"i", "li", "ol", "p", "pre", "q", "small", "span", "strike", "strong", "sub",
		"sup", "u", "ul")
	p.AllowAttrs("href").OnElements("a")
	return p
}()

// sanitizedText runs the body through basicPolicy and returns its text.
func sanitizedText(ctx context.Context, root *html.Node) (string, error) {
	body := root
	if b := findBody(root); b != nil {
		body = b
	}
	var inner strings.Builder
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&inner, c); err != nil {
			return "", fmt.Errorf("render body: %w", err)
		}
	}
	clean := basicPolicy.Sanitize(inner.String())
	doc, err := parse.Parse(ctx, []byte("<html><body>"+clean+"</body></html>"), "text/html; charset=utf-8")
	if err != nil {
		return "", err
	}
	return doc.PlainText(), nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
