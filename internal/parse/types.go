package parse

import (
	"golang.org/x/net/html"

	"github.com/hyperifyio/goextract/internal/metadata"
)

// Section types.
const (
	SectionHeading   = "heading"
	SectionParagraph = "paragraph"
	SectionList      = "list"
	SectionPre       = "pre"
	SectionPage      = "page"
)

// Section is a structural unit of a parsed document.
type Section struct {
	Title    string            `json:"title,omitempty"`
	Level    int               `json:"level"` // heading level 1-6, 0 for body
	Text     string            `json:"text"`
	Type     string            `json:"type"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Document is what the generic parser produces for one input.
type Document struct {
	// ContentType is the media type the parser was chosen for.
	ContentType string
	Sections    []Section
	// Meta holds metadata under the parser library's own key names.
	Meta metadata.Raw
	// Root is the parsed HTML tree for HTML inputs and nil otherwise.
	Root *html.Node
}
