package extractor

import (
	"github.com/hyperifyio/goextract/internal/mediatype"
)

// Strategy names the engine that handles a document.
type Strategy string

const (
	StrategyGeneric  Strategy = "generic"
	StrategyPDF      Strategy = "pdf-converter"
	StrategySWF      Strategy = "swf-converter"
	StrategyDjVu     Strategy = "djvu-converter"
	StrategyHTMLMain Strategy = "html-main"
)

// Converters records which external converters are configured.
type Converters struct {
	PDF  bool
	SWF  bool
	DjVu bool
}

// Classify picks the strategy for a content type and output format. Rules
// apply in order: a configured converter for PDF, SWF or DjVu wins; HTML
// under a main-content variant goes to the main-content extractor;
// everything else goes to the generic parser.
func Classify(contentType string, format OutputFormat, conv Converters) Strategy {
	switch base := mediatype.Base(contentType); {
	case base == mediatype.PDF && conv.PDF:
		return StrategyPDF
	case base == mediatype.SWF && conv.SWF:
		return StrategySWF
	case base == mediatype.DjVu && conv.DjVu:
		return StrategyDjVu
	case mediatype.IsHTML(base) && format.IsMainVariant():
		return StrategyHTMLMain
	}
	return StrategyGeneric
}

// checkDeclared validates a declared content type against the format and
// the configured converters. An empty content type is only an error for the
// main-content variants.
func checkDeclared(contentType string, format OutputFormat, conv Converters) error {
	base := mediatype.Base(contentType)
	if format.IsMainVariant() {
		if base == "" {
			return &ConfigError{Field: "content-type", Reason: "format " + string(format) + " requires a declared content type"}
		}
		if !mediatype.IsHTML(base) {
			return &ConfigError{Field: "content-type", Value: contentType, Reason: "format " + string(format) + " requires text/html"}
		}
	}
	switch {
	case base == mediatype.SWF && !conv.SWF:
		return &ConfigError{Field: "content-type", Value: contentType, Reason: "no swf2html converter configured"}
	case base == mediatype.DjVu && !conv.DjVu:
		return &ConfigError{Field: "content-type", Value: contentType, Reason: "no djvutxt converter configured"}
	}
	return nil
}
