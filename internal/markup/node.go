// Package markup provides a small parse tree for HTML-like chapter markup
// and a serializer back to text. It is independent of any rendering
// environment so that segmentation and text transforms can run anywhere.
package markup

import "strings"

// Kind identifies the type of a Node.
type Kind int

const (
	// DocumentNode is the root of a parsed tree.
	DocumentNode Kind = iota
	// ElementNode has a tag, attributes and children.
	ElementNode
	// TextNode is a leaf holding unescaped character data.
	TextNode
	// CommentNode holds comment text.
	CommentNode
	// DoctypeNode holds a document type declaration.
	DoctypeNode
)

// Attr is a single element attribute. Namespace is set for prefixed
// attributes such as xlink:href.
type Attr struct {
	Namespace string
	Key       string
	Val       string
}

// Name returns the qualified attribute name.
func (a Attr) Name() string {
	if a.Namespace != "" {
		return a.Namespace + ":" + a.Key
	}
	return a.Key
}

// Node is an element, text, comment or doctype node.
type Node struct {
	Kind     Kind
	Tag      string // lower-case tag name for elements
	Attrs    []Attr
	Text     string // character data for text, comment and doctype nodes
	Children []*Node
}

// Element creates an element node.
func Element(tag string, attrs []Attr, children ...*Node) *Node {
	return &Node{Kind: ElementNode, Tag: tag, Attrs: attrs, Children: children}
}

// Text creates a text node.
func Text(s string) *Node {
	return &Node{Kind: TextNode, Text: s}
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if strings.EqualFold(a.Name(), name) || strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

// HasClass reports whether the class attribute contains substr.
func (n *Node) HasClass(substr string) bool {
	class, ok := n.Attr("class")
	return ok && strings.Contains(strings.ToLower(class), strings.ToLower(substr))
}

// TextContent returns the concatenated character data of n and its descendants.
func (n *Node) TextContent() string {
	var b strings.Builder
	n.collectText(&b)
	return b.String()
}

func (n *Node) collectText(b *strings.Builder) {
	if n.Kind == TextNode {
		b.WriteString(n.Text)
		return
	}
	for _, c := range n.Children {
		c.collectText(b)
	}
}

// Find returns the first element in depth-first order whose tag is one of tags.
func (n *Node) Find(tags ...string) *Node {
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			for _, t := range tags {
				if c.Tag == t {
					return c
				}
			}
		}
		if found := c.Find(tags...); found != nil {
			return found
		}
	}
	return nil
}
