package parse

import (
	"unicode/utf8"

	"github.com/hyperifyio/goextract/internal/mediatype"
	"github.com/hyperifyio/goextract/internal/metadata"
	"github.com/hyperifyio/goextract/internal/textenc"
)

// parseText passes text through, decoding it from the charset named in the
// content type. Unlabelled text that is not valid UTF-8 is read as
// windows-1252, the WHATWG default for legacy text.
func parseText(data []byte, contentType string) (*Document, error) {
	_, cs := metadata.SplitContentType(contentType)
	if cs == "" {
		if utf8.Valid(data) {
			cs = textenc.Default
		} else {
			cs = "windows-1252"
		}
	}
	s, err := textenc.Decode(data, cs)
	if err != nil {
		return nil, err
	}
	meta := metadata.Raw{}
	meta.Set("Content-Type", mediatype.Base(contentType)+"; charset="+cs)
	return &Document{Sections: paragraphs(s), Meta: meta}, nil
}

// TextDocument wraps converter output in a Document so it can be rendered
// like any parsed document. Blank lines separate paragraphs.
func TextDocument(text string, meta metadata.Raw) *Document {
	if meta == nil {
		meta = metadata.Raw{}
	}
	return &Document{ContentType: mediatype.Text, Sections: paragraphs(text), Meta: meta}
}
