package metadata

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DocumentTitle returns the trimmed text of the first <title> element.
func DocumentTitle(n *html.Node) string {
	t := findElement(n, atom.Title)
	if t == nil {
		return ""
	}
	var b strings.Builder
	for c := t.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// MetaContent returns the content attribute of the first <meta name=...>
// whose name matches (case-insensitively). found is false when no such tag
// exists, which lets callers tell a missing tag from an empty one.
func MetaContent(n *html.Node, name string) (content string, found bool) {
	var walk func(*html.Node) bool
	walk = func(cur *html.Node) bool {
		if cur.Type == html.ElementNode && cur.DataAtom == atom.Meta {
			if strings.EqualFold(attr(cur, "name"), name) {
				content = strings.TrimSpace(attr(cur, "content"))
				found = true
				return true
			}
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	if n != nil {
		walk(n)
	}
	return content, found
}

// MetaTags collects every <meta name=... content=...> pair in document
// order. Later duplicates do not override earlier ones.
func MetaTags(n *html.Node) Raw {
	out := Raw{}
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if cur.Type == html.ElementNode && cur.DataAtom == atom.Meta {
			name := strings.TrimSpace(attr(cur, "name"))
			if name != "" {
				if _, ok := out[name]; !ok {
					out.Set(name, attr(cur, "content"))
				}
			}
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if n != nil {
		walk(n)
	}
	return out
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}
