package extract

import (
	"bytes"
	"fmt"
	"strings"

	"code.sajari.com/docconv/v2"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// Extractor defines a minimal interface for content extraction strategies.
// Implementations can swap main-content tactics without changing callers.
type Extractor interface {
	// Extract converts UTF-8 HTML into the page's main content.
	// Implementations must be deterministic and free of side effects.
	Extract(input []byte) (Document, error)
}

// HeuristicExtractor uses FromHTML, which prefers <main>/<article> and
// applies light boilerplate reduction and normalization.
type HeuristicExtractor struct{}

func (HeuristicExtractor) Extract(input []byte) (Document, error) {
	return FromHTML(input)
}

// ReadabilityExtractor runs Mozilla's Readability algorithm. The article
// title takes precedence over <title>; the byline only fills a missing
// <meta name=author>.
type ReadabilityExtractor struct{}

func (ReadabilityExtractor) Extract(input []byte) (Document, error) {
	root, err := html.Parse(bytes.NewReader(input))
	if err != nil {
		return Document{}, fmt.Errorf("html: %w", err)
	}
	doc := pageInfo(root)

	article, err := readability.FromReader(bytes.NewReader(input), nil)
	if err != nil {
		return Document{}, fmt.Errorf("readability: %w", err)
	}
	if t := strings.TrimSpace(article.Title); t != "" {
		doc.Title = t
	}
	if by := strings.TrimSpace(article.Byline); by != "" && doc.Author == "" {
		doc.Author = by
	}
	doc.Text = normalizeWhitespace(article.TextContent)
	return doc, nil
}

// JustextExtractor classifies paragraphs as content or boilerplate with
// docconv's justext port and keeps the good ones.
type JustextExtractor struct{}

func (JustextExtractor) Extract(input []byte) (doc Document, err error) {
	root, err := html.Parse(bytes.NewReader(input))
	if err != nil {
		return Document{}, fmt.Errorf("html: %w", err)
	}
	doc = pageInfo(root)

	defer func() {
		if r := recover(); r != nil {
			doc, err = Document{}, fmt.Errorf("justext panic: %v", r)
		}
	}()
	text, _, err := docconv.ConvertHTML(bytes.NewReader(input), true)
	if err != nil {
		return Document{}, fmt.Errorf("justext: %w", err)
	}
	doc.Text = normalizeWhitespace(text)
	return doc, nil
}

// DensityExtractor picks the subtree with the best text-to-markup ratio.
// MinLen is the shortest text a candidate block may have; zero means
// DefaultMinLen.
type DensityExtractor struct {
	MinLen int
}

func (e DensityExtractor) Extract(input []byte) (Document, error) {
	root, err := html.Parse(bytes.NewReader(input))
	if err != nil {
		return Document{}, fmt.Errorf("html: %w", err)
	}
	minLen := e.MinLen
	if minLen <= 0 {
		minLen = DefaultMinLen
	}
	doc := pageInfo(root)
	doc.Text = densestText(root, minLen)
	return doc, nil
}
