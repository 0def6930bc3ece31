package markup

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// prologRe matches a leading XML declaration, which the HTML parser would
// otherwise turn into a bogus comment.
var prologRe = regexp.MustCompile(`^\s*<\?xml[^>]*\?>`)

// selfClosingRe matches XHTML-style self-closed tags. The HTML parser
// ignores the trailing slash on non-void elements and would nest the
// following content inside them.
var selfClosingRe = regexp.MustCompile(`<([A-Za-z][A-Za-z0-9:_-]*)((?:\s[^<>]*?)?)\s*/>`)

// leadingTagRe captures the first element name of a fragment, skipping
// leading whitespace and comments.
var leadingTagRe = regexp.MustCompile(`^\s*(?:<!--[\s\S]*?-->\s*)*<([A-Za-z][A-Za-z0-9]*)`)

// fragmentContexts maps table-structure elements to the parent they must
// be parsed in. In a body context the parser drops them.
var fragmentContexts = map[string]atom.Atom{
	"tr":       atom.Tbody,
	"td":       atom.Tr,
	"th":       atom.Tr,
	"tbody":    atom.Table,
	"thead":    atom.Table,
	"tfoot":    atom.Table,
	"caption":  atom.Table,
	"colgroup": atom.Table,
	"col":      atom.Colgroup,
}

// documentRe detects a full document rather than a body fragment.
var documentRe = regexp.MustCompile(`(?i)<(!doctype\s|html[\s>])`)

// Parse parses s as a full document when it contains an <html> element or
// a doctype, and as a body fragment otherwise. The XML prolog, if any, is
// kept on the returned document node and restored by Render.
func Parse(s string) (*Node, error) {
	if documentRe.MatchString(s) {
		return ParseDocument(s)
	}
	return ParseFragment(s)
}

// ParseDocument parses s as a complete HTML document.
func ParseDocument(s string) (*Node, error) {
	prolog, rest := splitProlog(s)
	doc, err := html.Parse(strings.NewReader(rest))
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup: %w", err)
	}
	root := &Node{Kind: DocumentNode, Text: prolog}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if n := convert(c); n != nil {
			root.Children = append(root.Children, n)
		}
	}
	return root, nil
}

// ParseFragment parses s as the content of a <body> element. Fragments
// that start with a table row, cell or section are parsed inside the
// matching table element instead.
func ParseFragment(s string) (*Node, error) {
	prolog, rest := splitProlog(s)
	context := fragmentContext(rest)
	nodes, err := html.ParseFragment(strings.NewReader(rest), context)
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup fragment: %w", err)
	}
	root := &Node{Kind: DocumentNode, Text: prolog}
	for _, c := range nodes {
		if n := convert(c); n != nil {
			root.Children = append(root.Children, n)
		}
	}
	return root, nil
}

func fragmentContext(s string) *html.Node {
	a := atom.Body
	if m := leadingTagRe.FindStringSubmatch(s); m != nil {
		if c, ok := fragmentContexts[strings.ToLower(m[1])]; ok {
			a = c
		}
	}
	return &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a}
}

// Body returns the <body> element of a parsed document, or the root itself
// for fragments.
func Body(root *Node) *Node {
	if body := root.Find("body"); body != nil {
		return body
	}
	return root
}

func splitProlog(s string) (string, string) {
	prolog := ""
	if loc := prologRe.FindStringIndex(s); loc != nil {
		prolog = strings.TrimSpace(s[loc[0]:loc[1]])
		s = s[loc[1]:]
	}
	return prolog, expandSelfClosing(s)
}

func expandSelfClosing(s string) string {
	if !strings.Contains(s, "/>") {
		return s
	}
	return selfClosingRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := selfClosingRe.FindStringSubmatch(m)
		tag := strings.ToLower(sub[1])
		if voidElements[tag] && tag != "mbp:pagebreak" {
			return m
		}
		return "<" + sub[1] + sub[2] + "></" + sub[1] + ">"
	})
}

func convert(h *html.Node) *Node {
	var n *Node
	switch h.Type {
	case html.ElementNode:
		n = &Node{Kind: ElementNode, Tag: h.Data}
		if len(h.Attr) > 0 {
			n.Attrs = make([]Attr, len(h.Attr))
			for i, a := range h.Attr {
				n.Attrs[i] = Attr{Namespace: a.Namespace, Key: a.Key, Val: a.Val}
			}
		}
	case html.TextNode:
		return &Node{Kind: TextNode, Text: h.Data}
	case html.CommentNode:
		return &Node{Kind: CommentNode, Text: h.Data}
	case html.DoctypeNode:
		n = &Node{Kind: DoctypeNode, Text: h.Data}
		for _, a := range h.Attr {
			n.Attrs = append(n.Attrs, Attr{Key: a.Key, Val: a.Val})
		}
		return n
	default:
		return nil
	}

	for c := h.FirstChild; c != nil; c = c.NextSibling {
		if child := convert(c); child != nil {
			n.Children = append(n.Children, child)
		}
	}
	return n
}
