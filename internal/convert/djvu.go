package convert

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hyperifyio/goextract/internal/mediatype"
	"github.com/hyperifyio/goextract/internal/metadata"
	"github.com/hyperifyio/goextract/internal/parse"
)

// DjVuText converts DjVu documents with djvulibre's djvutxt. The tool emits
// plain text only; markup output wraps it in a minimal XHTML document.
type DjVuText struct {
	Path   string
	Runner Runner
}

func (DjVuText) Name() string { return "djvutxt" }

func (c DjVuText) Convert(ctx context.Context, input []byte, opts Options) (*Output, error) {
	out, err := c.Runner.Run(ctx, Job{
		Bin:       c.Path,
		InSuffix:  ".djvu",
		OutSuffix: ".txt",
		Args:      func(in, out string) []string { return []string{in, out} },
	}, input)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(out) {
		return nil, fmt.Errorf("djvutxt: output is not valid UTF-8")
	}
	text := strings.ReplaceAll(string(out), "\r\n", "\n")

	raw := metadata.Raw{}
	raw.Set("Content-Type", mediatype.DjVu)
	raw.Set("Content-Length", strconv.Itoa(len(input)))

	res := &Output{Raw: raw, Text: text}
	if opts.Mode == Markup {
		res.Text = parse.TextDocument(text, nil).XHTML(opts.charset())
	}
	return res, nil
}
