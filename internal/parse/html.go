package parse

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"

	"github.com/hyperifyio/goextract/internal/metadata"
)

// parseHTML decodes data using the charset from the content type, a BOM or a
// <meta charset> prescan, then splits the body into block sections. Every
// <meta name=...> tag and the <title> become raw metadata.
func parseHTML(data []byte, contentType string) (*Document, error) {
	_, encName, certain := charset.DetermineEncoding(data, contentType)
	r, err := charset.NewReader(bytes.NewReader(data), contentType)
	if err != nil {
		return nil, fmt.Errorf("charset: %w", err)
	}
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("html: %w", err)
	}

	meta := metadata.MetaTags(root)
	meta.Set("title", metadata.DocumentTitle(root))
	meta["Content-Type"] = "text/html"
	if label := charsetLabel(data, contentType, encName, certain); label != "" {
		meta["Content-Type"] += "; charset=" + label
	}

	body := findBody(root)
	if body == nil {
		body = root
	}
	w := &blockWalker{}
	w.walk(body, false)
	w.flush(SectionParagraph, 0)

	return &Document{Sections: w.sections, Meta: meta, Root: root}, nil
}

// charsetLabel reports the charset as the document declared it: the label
// from the content type, else the label of a <meta> prescan, else the BOM
// encoding. Unknown labels are ignored. Guessed encodings give "".
func charsetLabel(data []byte, contentType, encName string, certain bool) string {
	if _, cs := metadata.SplitContentType(contentType); knownCharset(cs) {
		return cs
	}
	if cs := prescanCharset(data); knownCharset(cs) {
		return cs
	}
	if certain {
		return encName
	}
	return ""
}

func knownCharset(label string) bool {
	if label == "" {
		return false
	}
	e, _ := charset.Lookup(label)
	return e != nil
}

// prescanCharset returns the charset label of the first <meta charset> or
// <meta http-equiv="Content-Type"> in the first 1024 bytes.
func prescanCharset(data []byte) string {
	if len(data) > 1024 {
		data = data[:1024]
	}
	z := html.NewTokenizer(bytes.NewReader(data))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if atom.Lookup(name) != atom.Meta || !hasAttr {
				continue
			}
			var cs, content string
			var httpEquiv bool
			for more := true; more; {
				var key, val []byte
				key, val, more = z.TagAttr()
				switch string(key) {
				case "charset":
					cs = strings.TrimSpace(string(val))
				case "content":
					content = string(val)
				case "http-equiv":
					httpEquiv = strings.EqualFold(string(val), "content-type")
				}
			}
			if cs != "" {
				return cs
			}
			if httpEquiv {
				if _, v := metadata.SplitContentType(content); v != "" {
					return v
				}
			}
		}
	}
}

// blockWalker turns a DOM subtree into sections. Inline text accumulates in
// buf until a block boundary flushes it.
type blockWalker struct {
	sections []Section
	buf      strings.Builder
	inList   bool
}

func (w *blockWalker) flush(kind string, level int) {
	text := w.buf.String()
	w.buf.Reset()
	if kind != SectionPre {
		text = collapse(text)
	} else {
		text = strings.Trim(text, "\n")
	}
	if strings.TrimSpace(text) == "" {
		return
	}
	if kind == SectionParagraph && w.inList {
		kind = SectionList
	}
	w.sections = append(w.sections, Section{Text: text, Type: kind, Level: level})
}

func (w *blockWalker) walk(n *html.Node, pre bool) {
	switch n.Type {
	case html.TextNode:
		if pre {
			w.buf.WriteString(n.Data)
		} else {
			w.buf.WriteString(strings.NewReplacer("\r", " ", "\n", " ").Replace(n.Data))
		}
		return
	case html.ElementNode:
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			w.walk(c, pre)
		}
		return
	}

	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Head:
		return
	case atom.Br:
		w.buf.WriteString("\n")
		return
	}

	kind, level, block := blockKind(n.DataAtom)
	if !block {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			w.walk(c, pre)
		}
		return
	}

	w.flush(SectionParagraph, 0)
	wasList := w.inList
	if n.DataAtom == atom.Ul || n.DataAtom == atom.Ol {
		w.inList = true
	}
	childPre := pre || kind == SectionPre
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, childPre)
	}
	w.flush(kind, level)
	w.inList = wasList
}

func blockKind(a atom.Atom) (kind string, level int, block bool) {
	switch a {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return SectionHeading, int(a.String()[1] - '0'), true
	case atom.Li, atom.Dt, atom.Dd:
		return SectionList, 0, true
	case atom.Pre:
		return SectionPre, 0, true
	case atom.P, atom.Div, atom.Section, atom.Article, atom.Main, atom.Header,
		atom.Footer, atom.Nav, atom.Aside, atom.Blockquote, atom.Table, atom.Tr,
		atom.Td, atom.Th, atom.Ul, atom.Ol, atom.Dl, atom.Form, atom.Figure,
		atom.Figcaption, atom.Address, atom.Hr:
		return SectionParagraph, 0, true
	}
	return "", 0, false
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

// collapse folds whitespace runs to single spaces within each line and drops
// blank lines.
func collapse(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if f := strings.Fields(line); len(f) > 0 {
			out = append(out, strings.Join(f, " "))
		}
	}
	return strings.Join(out, "\n")
}
