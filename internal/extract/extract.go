// Package extract pulls the main content out of an HTML page. Several
// strategies are available behind the Extractor interface; all of them take
// UTF-8 HTML and return the page title, author and main text.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hyperifyio/goextract/internal/metadata"
)

// Document is the main content of a page.
type Document struct {
	Title  string
	Author string
	Text   string
}

// FromHTML extracts readable text from HTML, preferring <main> or <article>,
// falling back to <body>. Headings, paragraphs, list items and pre blocks are
// kept on their own lines; nav, footer, aside and consent banners are dropped.
func FromHTML(input []byte) (Document, error) {
	root, err := html.Parse(bytes.NewReader(input))
	if err != nil {
		return Document{}, fmt.Errorf("html: %w", err)
	}
	return FromNode(root), nil
}

// FromNode runs the heuristic over an already parsed tree.
func FromNode(root *html.Node) Document {
	doc := pageInfo(root)
	content := findFirst(root, atom.Main)
	if content == nil {
		content = findFirst(root, atom.Article)
	}
	if content == nil {
		content = findFirst(root, atom.Body)
	}
	if content == nil {
		return doc
	}
	var b strings.Builder
	collectText(&b, content, false)
	doc.Text = normalizeWhitespace(b.String())
	return doc
}

// pageInfo reads title and author from the head.
func pageInfo(root *html.Node) Document {
	author, _ := metadata.MetaContent(root, "author")
	return Document{
		Title:  metadata.DocumentTitle(root),
		Author: strings.TrimSpace(author),
	}
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if res := findFirst(c, a); res != nil {
			return res
		}
	}
	return nil
}

func collectText(b *strings.Builder, n *html.Node, inPre bool) {
	if n.Type == html.TextNode {
		data := n.Data
		if !inPre {
			data = strings.NewReplacer("\t", " ", "\r", " ", "\n", " ").Replace(data)
		}
		b.WriteString(data)
		return
	}
	if n.Type == html.ElementNode {
		if isConsentBanner(n) {
			return
		}
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Nav, atom.Footer, atom.Aside, atom.Iframe, atom.Template:
			return
		case atom.Pre:
			inPre = true
			b.WriteString("\n")
		case atom.Br, atom.Hr:
			b.WriteString("\n")
		case atom.P, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Li, atom.Ul, atom.Ol,
			atom.Div, atom.Section, atom.Blockquote, atom.Tr, atom.Dt, atom.Dd:
			b.WriteString("\n")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c, inPre)
	}
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.P, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Blockquote:
			b.WriteString("\n\n")
		case atom.Li, atom.Pre, atom.Div, atom.Section, atom.Tr, atom.Dt, atom.Dd:
			b.WriteString("\n")
		}
	}
}

var consentMarkers = []string{"cookie", "consent", "gdpr"}

// isConsentBanner reports whether id, class, role, aria-label or a data-*
// attribute marks the element as a cookie or consent banner.
func isConsentBanner(n *html.Node) bool {
	for _, attr := range n.Attr {
		key := strings.ToLower(attr.Key)
		if key != "id" && key != "class" && key != "aria-label" && key != "role" && !strings.HasPrefix(key, "data-") {
			continue
		}
		val := strings.ToLower(attr.Val)
		for _, m := range consentMarkers {
			if strings.Contains(val, m) {
				return true
			}
		}
	}
	return false
}

// normalizeWhitespace collapses runs of spaces inside lines and keeps at most
// one blank line between blocks.
func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			if len(out) > 0 && out[len(out)-1] != "" {
				out = append(out, "")
			}
			continue
		}
		out = append(out, strings.Join(fields, " "))
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
