package convert

import (
	"context"
	"fmt"
	"strconv"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/hyperifyio/goextract/internal/mediatype"
	"github.com/hyperifyio/goextract/internal/metadata"
	"github.com/hyperifyio/goextract/internal/parse"
)

// HTMLFormatter turns converter HTML into plain text.
type HTMLFormatter interface {
	Format(ctx context.Context, markup []byte) (string, error)
}

// BodyTextFormatter returns the body text with block structure kept.
type BodyTextFormatter struct{}

func (BodyTextFormatter) Format(ctx context.Context, markup []byte) (string, error) {
	doc, err := parse.Parse(ctx, markup, "text/html; charset=utf-8")
	if err != nil {
		return "", err
	}
	return doc.PlainText(), nil
}

// MarkdownFormatter renders the HTML as CommonMark.
type MarkdownFormatter struct {
	conv *converter.Converter
}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

func (f *MarkdownFormatter) Format(_ context.Context, markup []byte) (string, error) {
	md, err := f.conv.ConvertString(string(markup))
	if err != nil {
		return "", fmt.Errorf("markdown: %w", err)
	}
	return md, nil
}

// FormatterByName resolves the -swf.formatter setting.
func FormatterByName(name string) (HTMLFormatter, error) {
	switch name {
	case "", "text":
		return BodyTextFormatter{}, nil
	case "markdown":
		return NewMarkdownFormatter(), nil
	}
	return nil, fmt.Errorf("unknown formatter %q", name)
}

// SWFToHTML converts Flash movies with swf2html. Text and main-text modes
// both go through Formatter; a nil Formatter means BodyTextFormatter.
type SWFToHTML struct {
	Path      string
	Runner    Runner
	Formatter HTMLFormatter
}

func (SWFToHTML) Name() string { return "swf2html" }

func (c SWFToHTML) Convert(ctx context.Context, input []byte, opts Options) (*Output, error) {
	out, err := c.Runner.Run(ctx, Job{
		Bin:       c.Path,
		InSuffix:  ".swf",
		OutSuffix: ".html",
		Args:      func(in, out string) []string { return []string{"-o", out, in} },
	}, input)
	if err != nil {
		return nil, err
	}
	doc, err := parse.Parse(ctx, out, "text/html; charset=utf-8")
	if err != nil {
		return nil, fmt.Errorf("swf2html output: %w", err)
	}

	raw := metadata.Raw{}
	raw.Set("title", doc.Meta.Lookup("title"))
	raw.Set("Author", doc.Meta.Lookup("Author"))
	raw.Set("Content-Type", mediatype.SWF)
	// The size reported is that of the converted HTML, not the movie.
	raw.Set("Content-Length", strconv.Itoa(len(out)))

	res := &Output{Raw: raw, Root: doc.Root}
	if opts.Mode == Markup {
		res.Text = string(out)
		return res, nil
	}
	f := c.Formatter
	if f == nil {
		f = BodyTextFormatter{}
	}
	if res.Text, err = f.Format(ctx, out); err != nil {
		return nil, err
	}
	return res, nil
}
