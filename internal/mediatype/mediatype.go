package mediatype

import "strings"

// Media types the extractor routes on.
const (
	PDF   = "application/pdf"
	SWF   = "application/x-shockwave-flash"
	HTML  = "text/html"
	XHTML = "application/xhtml+xml"
	DjVu  = "image/vnd.djvu"

	Docx  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ODT   = "application/vnd.oasis.opendocument.text"
	RTF   = "application/rtf"
	Pages = "application/vnd.apple.pages"
	XML   = "application/xml"
	Text  = "text/plain"

	OctetStream = "application/octet-stream"
)

var aliases = map[string]string{
	"image/x-djvu":      DjVu,
	"image/djvu":        DjVu,
	"text/rtf":          RTF,
	"text/xml":          XML,
	"application/x-pdf": PDF,
}

// Base lowercases a content type, drops any parameters and resolves known
// aliases: "Text/HTML; charset=UTF-8" becomes "text/html".
func Base(contentType string) string {
	ct := contentType
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	ct = strings.ToLower(strings.TrimSpace(ct))
	if a, ok := aliases[ct]; ok {
		return a
	}
	return ct
}

// IsHTML reports whether the content type is HTML or XHTML.
func IsHTML(contentType string) bool {
	b := Base(contentType)
	return b == HTML || b == XHTML
}

// Is reports whether contentType has the given base type.
func Is(contentType, base string) bool {
	return Base(contentType) == base
}
