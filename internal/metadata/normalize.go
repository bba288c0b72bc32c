package metadata

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Raw key aliases per normalized key, most specific first. The names cover
// what the embedded parsers, pdftotext -htmlmeta and HTML <meta> tags emit.
var aliases = map[string][]string{
	Title:       {"title", "dc:title", "pdf:docinfo:title"},
	Author:      {"Author", "meta:author", "dc:creator", "pdf:docinfo:author"},
	Created:     {"Creation-Date", "created", "dcterms:created", "meta:creation-date", "CreationDate", "pdf:docinfo:created"},
	Modified:    {"modified", "Last-Modified", "dcterms:modified", "ModDate", "pdf:docinfo:modified"},
	ContentType: {"Content-Type"},
	ContentSize: {"Content-Size", "Content-Length"},
	Charset:     {"charset", "Content-Encoding"},
}

// Normalize maps raw engine metadata onto the fixed key set.
//
// doc is the document's HTML tree when one exists (HTML input or converter
// HTML output); it supplies the <title> and <meta name="Author"> fallbacks
// when raw carries no title or author. doc may be nil.
func Normalize(raw Raw, doc *html.Node) Metadata {
	m := Metadata{}

	title := raw.Lookup(aliases[Title]...)
	if title == "" && doc != nil {
		title = DocumentTitle(doc)
	}
	m.set(Title, title)

	author := raw.Lookup(aliases[Author]...)
	if author == "" && doc != nil {
		author, _ = MetaContent(doc, "Author")
	}
	m.set(Author, author)

	if v, ok := NormalizeDate(raw.Lookup(aliases[Created]...)); ok {
		m.set(Created, v)
	}
	if v, ok := NormalizeDate(raw.Lookup(aliases[Modified]...)); ok {
		m.set(Modified, v)
	}

	ct, cs := SplitContentType(raw.Lookup(aliases[ContentType]...))
	m.set(ContentType, ct)
	if cs == "" {
		cs = raw.Lookup(aliases[Charset]...)
	}
	m.set(Charset, cs)

	if size := raw.Lookup(aliases[ContentSize]...); size != "" {
		if n, err := strconv.ParseInt(size, 10, 64); err == nil && n >= 0 {
			m.set(ContentSize, strconv.FormatInt(n, 10))
		}
	}
	return m
}

// SplitContentType separates a content type from its charset parameter:
// "text/html; charset=iso-8859-1" yields ("text/html", "iso-8859-1").
// Other parameters are dropped.
func SplitContentType(v string) (contentType, charset string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", ""
	}
	parts := strings.Split(v, ";")
	contentType = strings.TrimSpace(parts[0])
	for _, p := range parts[1:] {
		key, val, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(key), "charset") {
			charset = strings.Trim(strings.TrimSpace(val), `"'`)
		}
	}
	return contentType, charset
}
