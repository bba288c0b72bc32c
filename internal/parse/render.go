package parse

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const xhtmlNamespace = "http://www.w3.org/1999/xhtml"

// PlainText joins section text with blank lines.
func (d *Document) PlainText() string {
	parts := make([]string, 0, len(d.Sections))
	for _, s := range d.Sections {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}

// HTML renders the document as an HTML5 page. Raw metadata becomes <meta>
// tags in the head and charset names the output encoding.
func (d *Document) HTML(charset string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n")
	_ = html.Render(&b, d.tree(charset, false))
	b.WriteString("\n")
	return b.String()
}

// XHTML renders the document as namespaced XHTML with an XML declaration.
func (d *Document) XHTML(charset string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="` + charset + `"?>` + "\n")
	_ = html.Render(&b, d.tree(charset, true))
	b.WriteString("\n")
	return b.String()
}

func (d *Document) tree(charset string, xml bool) *html.Node {
	root := element(atom.Html)
	if xml {
		root.Attr = append(root.Attr, html.Attribute{Key: "xmlns", Val: xhtmlNamespace})
	}
	head := element(atom.Head)
	root.AppendChild(head)

	cs := element(atom.Meta)
	cs.Attr = []html.Attribute{{Key: "charset", Val: charset}}
	head.AppendChild(cs)

	names := make([]string, 0, len(d.Meta))
	for k := range d.Meta {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		m := element(atom.Meta)
		m.Attr = []html.Attribute{{Key: "name", Val: k}, {Key: "content", Val: d.Meta[k]}}
		head.AppendChild(m)
	}
	title := element(atom.Title)
	title.AppendChild(&html.Node{Type: html.TextNode, Data: d.Meta.Lookup("title")})
	head.AppendChild(title)

	body := element(atom.Body)
	root.AppendChild(body)
	var list *html.Node
	for _, s := range d.Sections {
		if s.Type != SectionList {
			list = nil
		}
		switch s.Type {
		case SectionHeading:
			level := s.Level
			if level < 1 || level > 6 {
				level = 1
			}
			h := element(atom.Lookup([]byte("h" + strconv.Itoa(level))))
			appendLines(h, s.Text)
			body.AppendChild(h)
		case SectionList:
			if list == nil {
				list = element(atom.Ul)
				body.AppendChild(list)
			}
			li := element(atom.Li)
			appendLines(li, s.Text)
			list.AppendChild(li)
		case SectionPre:
			pre := element(atom.Pre)
			pre.AppendChild(&html.Node{Type: html.TextNode, Data: s.Text})
			body.AppendChild(pre)
		case SectionPage:
			div := element(atom.Div)
			div.Attr = []html.Attribute{{Key: "class", Val: "page"}}
			for _, para := range strings.Split(s.Text, "\n\n") {
				if strings.TrimSpace(para) == "" {
					continue
				}
				p := element(atom.P)
				appendLines(p, para)
				div.AppendChild(p)
			}
			body.AppendChild(div)
		default:
			p := element(atom.P)
			appendLines(p, s.Text)
			body.AppendChild(p)
		}
	}
	return root
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

// appendLines adds text to n with <br> between lines.
func appendLines(n *html.Node, text string) {
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			n.AppendChild(element(atom.Br))
		}
		n.AppendChild(&html.Node{Type: html.TextNode, Data: line})
	}
}
