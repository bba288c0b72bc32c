package convert

import (
	"context"

	"golang.org/x/net/html"

	"github.com/hyperifyio/goextract/internal/metadata"
)

// Mode selects what a converter returns.
type Mode int

const (
	// Markup returns the converter's document markup.
	Markup Mode = iota
	// Text returns the full plain text.
	Text
	// MainText returns the main content only, with boilerplate removed.
	MainText
)

func (m Mode) String() string {
	switch m {
	case Markup:
		return "markup"
	case Text:
		return "text"
	case MainText:
		return "main"
	}
	return "unknown"
}

// Options control a single conversion.
type Options struct {
	Mode Mode
	// Charset is declared in markup output. Empty means utf-8.
	Charset string
}

func (o Options) charset() string {
	if o.Charset == "" {
		return "utf-8"
	}
	return o.Charset
}

// Output is what a converter produced.
type Output struct {
	Text string
	Raw  metadata.Raw
	// Root is the parsed markup, when the converter emits HTML. The
	// metadata normalizer reads <title> and <meta> fallbacks from it.
	Root *html.Node
}

// Converter turns a document into text using an external tool.
type Converter interface {
	Name() string
	Convert(ctx context.Context, input []byte, opts Options) (*Output, error)
}
