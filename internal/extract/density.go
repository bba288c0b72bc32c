package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultMinLen is the shortest block text the density scorer considers.
const DefaultMinLen = 50

var boilerplatePatterns = []string{
	"sidebar", "footer", "header", "nav", "menu", "breadcrumb",
	"cookie", "consent", "banner", "advert", "social", "share", "comment",
}

// densestText returns the main text of root. Semantic landmarks (<main>,
// then <article>) win when they carry enough text; otherwise every content
// block under <body> is scored and the best one is returned.
func densestText(root *html.Node, minLen int) string {
	for _, tag := range []atom.Atom{atom.Main, atom.Article} {
		var parts []string
		for _, n := range findAll(root, tag) {
			if isBoilerplate(n) {
				continue
			}
			if text := blockText(n); len(text) >= minLen {
				parts = append(parts, text)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "\n\n")
		}
	}

	body := findFirst(root, atom.Body)
	if body == nil {
		body = root
	}
	if best := densestNode(body, minLen); best != nil {
		return blockText(best)
	}
	return blockText(body)
}

type candidate struct {
	node     *html.Node
	density  float64
	textLen  int
	linkDens float64
}

// nodeStats are the subtree measures the scorer needs, gathered in one walk.
// textLen is the length of the space-joined visible text fragments, linkLen
// the length of text inside <a>, markupLen the approximate rendered size.
type nodeStats struct {
	fragLen, frags, linkLen, markupLen int
}

func (s nodeStats) textLen() int {
	if s.frags == 0 {
		return 0
	}
	return s.fragLen + s.frags - 1
}

func (s *nodeStats) add(o nodeStats) {
	s.fragLen += o.fragLen
	s.frags += o.frags
	s.linkLen += o.linkLen
	s.markupLen += o.markupLen
}

// densestNode scores every content block whose text reaches minLen by
// density * log2(text length) * (1 - link density). Blocks that are mostly
// links are navigation and never win. Candidates nested in boilerplate are
// skipped, though their text still counts toward their ancestors.
func densestNode(root *html.Node, minLen int) *html.Node {
	var candidates []candidate
	var measure func(n *html.Node, skip, inLink, hidden bool) nodeStats
	measure = func(n *html.Node, skip, inLink, hidden bool) nodeStats {
		var st nodeStats
		switch n.Type {
		case html.TextNode:
			st.markupLen = len(n.Data)
			if t := strings.TrimSpace(n.Data); t != "" && !hidden {
				st.fragLen, st.frags = len(t), 1
				if inLink {
					st.linkLen = len(t)
				}
			}
			return st
		case html.CommentNode:
			st.markupLen = len("<!---->") + len(n.Data)
			return st
		case html.ElementNode:
			skip = skip || isBoilerplate(n)
			switch n.DataAtom {
			case atom.A:
				inLink = true
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				hidden = true
			}
			st.markupLen = openTagLen(n) + closeTagLen(n)
		default:
			skip = true
		}

		idx := -1
		if n.Type == html.ElementNode && !skip && isContentTag(n.DataAtom) {
			idx = len(candidates)
			candidates = append(candidates, candidate{node: n})
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			st.add(measure(c, skip, inLink, hidden))
		}
		if idx >= 0 {
			markup := st.markupLen
			if markup == 0 {
				markup = 1
			}
			text := st.textLen()
			candidates[idx].textLen = text
			candidates[idx].density = float64(text) / float64(markup)
			if text > 0 {
				candidates[idx].linkDens = float64(st.linkLen) / float64(text)
			}
		}
		return st
	}
	measure(root, false, false, false)

	var best *html.Node
	var bestScore float64
	for _, c := range candidates {
		if c.textLen < minLen || c.linkDens > 0.5 {
			continue
		}
		score := c.density * logScale(c.textLen) * (1 - c.linkDens)
		if score > bestScore {
			bestScore = score
			best = c.node
		}
	}
	return best
}

// openTagLen is the length of n's start tag as html.Render writes it, not
// counting escapes in attribute values.
func openTagLen(n *html.Node) int {
	l := len("<>") + len(n.Data)
	for _, a := range n.Attr {
		l += len(` =""`) + len(a.Key) + len(a.Val)
		if a.Namespace != "" {
			l += len(a.Namespace) + 1
		}
	}
	return l
}

// closeTagLen is the length of n's end tag. Void elements have none and
// self-close with "/>".
func closeTagLen(n *html.Node) int {
	switch n.DataAtom {
	case atom.Area, atom.Base, atom.Br, atom.Col, atom.Embed, atom.Hr, atom.Img,
		atom.Input, atom.Keygen, atom.Link, atom.Meta, atom.Param, atom.Source,
		atom.Track, atom.Wbr:
		return len("/")
	}
	return len("</>") + len(n.Data)
}

func logScale(n int) float64 {
	scale := 1.0
	for n > 100 {
		scale++
		n /= 2
	}
	return scale
}

func isContentTag(a atom.Atom) bool {
	switch a {
	case atom.Main, atom.Article, atom.Section, atom.Div, atom.P,
		atom.Blockquote, atom.Pre, atom.Ul, atom.Ol, atom.Table, atom.Td, atom.Dl:
		return true
	}
	return false
}

// isBoilerplate reports whether n is navigation, chrome or a banner.
func isBoilerplate(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Nav, atom.Footer, atom.Header, atom.Aside:
		return true
	}
	for _, a := range n.Attr {
		switch a.Key {
		case "class", "id":
			v := strings.ToLower(a.Val)
			for _, p := range boilerplatePatterns {
				if strings.Contains(v, p) {
					return true
				}
			}
		case "role":
			switch a.Val {
			case "navigation", "banner", "contentinfo", "complementary":
				return true
			}
		}
	}
	return false
}

func findAll(root *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == a {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

// blockText keeps the block structure of the winning subtree and drops
// boilerplate nested inside it.
func blockText(n *html.Node) string {
	var b strings.Builder
	var f func(*html.Node)
	f = func(cur *html.Node) {
		if cur.Type == html.ElementNode && cur != n && isBoilerplate(cur) {
			return
		}
		collectShallow(&b, cur, f)
	}
	f(n)
	return normalizeWhitespace(b.String())
}

// collectShallow writes cur like collectText but recurses through next so
// the caller can prune subtrees.
func collectShallow(b *strings.Builder, cur *html.Node, next func(*html.Node)) {
	switch cur.Type {
	case html.TextNode:
		b.WriteString(strings.NewReplacer("\t", " ", "\r", " ", "\n", " ").Replace(cur.Data))
		return
	case html.ElementNode:
		switch cur.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Template:
			return
		case atom.Br:
			b.WriteString("\n")
			return
		}
		if isContentTag(cur.DataAtom) || headingOrItem(cur.DataAtom) {
			b.WriteString("\n")
			defer b.WriteString("\n\n")
		}
	}
	for c := cur.FirstChild; c != nil; c = c.NextSibling {
		next(c)
	}
}

func headingOrItem(a atom.Atom) bool {
	switch a {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Li, atom.Tr, atom.Dt, atom.Dd:
		return true
	}
	return false
}

