package extractor

import (
	"strings"

	"github.com/hyperifyio/goextract/internal/convert"
)

// OutputFormat selects what Extract returns.
type OutputFormat string

const (
	FormatXML      OutputFormat = "xml"
	FormatHTML     OutputFormat = "html"
	FormatText     OutputFormat = "text"
	FormatTextMain OutputFormat = "text_main"

	// Main-content variants. Each needs a declared text/html content type.
	FormatSnacktory         OutputFormat = "text_main_snacktory"
	FormatBoilerpipeDefault OutputFormat = "text_main_boilerpipe_default"
	FormatBoilerpipeArticle OutputFormat = "text_main_boilerpipe_article"
	FormatBoilerpipeCanola  OutputFormat = "text_main_boilerpipe_canola"
)

// DefaultFormat is used when no format is configured.
const DefaultFormat = FormatText

// Formats lists every accepted format name.
var Formats = []OutputFormat{
	FormatXML, FormatHTML, FormatText, FormatTextMain,
	FormatSnacktory, FormatBoilerpipeDefault, FormatBoilerpipeArticle, FormatBoilerpipeCanola,
}

// ParseFormat resolves a format name. Names are case-insensitive; empty
// means DefaultFormat.
func ParseFormat(s string) (OutputFormat, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultFormat, nil
	}
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", &ConfigError{Field: "format", Value: s, Reason: "unknown output format"}
}

// IsMainVariant reports whether f is one of the HTML main-content variants.
func (f OutputFormat) IsMainVariant() bool {
	switch f {
	case FormatSnacktory, FormatBoilerpipeDefault, FormatBoilerpipeArticle, FormatBoilerpipeCanola:
		return true
	}
	return false
}

// IsMarkup reports whether the output is a markup document.
func (f OutputFormat) IsMarkup() bool {
	return f == FormatXML || f == FormatHTML
}

func (f OutputFormat) mode() convert.Mode {
	switch {
	case f.IsMarkup():
		return convert.Markup
	case f == FormatText:
		return convert.Text
	default:
		return convert.MainText
	}
}
