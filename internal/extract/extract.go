// Package extract summarizes a rendered page into its leading headings and a
// bounded slice of its visible text.
package extract

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	MaxHeadings   = 5
	MaxTextLength = 1500
)

// PageExtract is the summary of one page load
type PageExtract struct {
	Headings []string `json:"headings" yaml:"headings"`
	Text     string   `json:"text" yaml:"text"`
}

// Parse reads an HTML document and extracts it. Malformed markup degrades to
// whatever the parser recovers.
func Parse(r io.Reader) (PageExtract, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return PageExtract{Headings: []string{}}, err
	}
	return FromDocument(doc), nil
}

// FromDocument extracts a parsed document
func FromDocument(doc *html.Node) PageExtract {
	headings := make([]string, 0, MaxHeadings)
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Template:
				// inert content, not part of the document
				return true
			case atom.H1, atom.H2, atom.H3:
				headings = append(headings, collapse(headingText(n)))
				return len(headings) < MaxHeadings
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(doc)

	var text string
	if body := findBody(doc); body != nil {
		text = truncate(collapse(renderedText(body)), MaxTextLength)
	}

	return PageExtract{Headings: headings, Text: text}
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

// headingText is the heading's innerText. A heading that is not rendered
// itself falls back to its full text content, as innerText does.
func headingText(n *html.Node) string {
	if rendered(n) {
		return renderedText(n)
	}
	return textContent(n)
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// renderedText approximates innerText: text of rendered descendants, with
// block boundaries turned into whitespace. Inline elements join directly.
func renderedText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			if !rendered(n) {
				return
			}
			if n.DataAtom == atom.Br {
				sb.WriteByte('\n')
				return
			}
		}

		block := n.Type == html.ElementNode && isBlock(n.DataAtom)
		if block {
			sb.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			sb.WriteByte('\n')
		}
	}
	walk(n)
	return sb.String()
}

func rendered(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Head, atom.Title:
		return false
	}
	for _, a := range n.Attr {
		switch a.Key {
		case "hidden":
			return false
		case "style":
			if hasHiddenStyle(a.Val) {
				return false
			}
		}
	}
	return true
}

func hasHiddenStyle(style string) bool {
	s := strings.ReplaceAll(strings.ToLower(style), " ", "")
	return strings.Contains(s, "display:none") || strings.Contains(s, "visibility:hidden")
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.Address, atom.Article, atom.Aside, atom.Blockquote, atom.Body,
		atom.Dd, atom.Details, atom.Dialog, atom.Div, atom.Dl, atom.Dt,
		atom.Fieldset, atom.Figcaption, atom.Figure, atom.Footer, atom.Form,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Header, atom.Hr, atom.Li, atom.Main, atom.Nav, atom.Ol, atom.P,
		atom.Pre, atom.Section, atom.Summary, atom.Table, atom.Tr, atom.Td,
		atom.Th, atom.Caption, atom.Ul, atom.Option:
		return true
	}
	return false
}

// collapse replaces whitespace runs with single spaces and trims the ends.
// innerText never starts or ends with collapsible whitespace, so trimming
// only removes what block boundaries added above.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate keeps the first n characters
func truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
