package export

import (
	"strings"

	"github.com/yuanying/bionicbook/internal/markup"
)

const (
	svgNamespace   = "http://www.w3.org/2000/svg"
	xlinkNamespace = "http://www.w3.org/1999/xlink"
)

// tagConversions maps HTML5 elements that XHTML 1.1 lacks to replacements.
// The original tag name is appended to the element's class.
var tagConversions = map[string]string{
	"article":    "div",
	"section":    "div",
	"aside":      "div",
	"nav":        "div",
	"header":     "div",
	"footer":     "div",
	"main":       "div",
	"figure":     "div",
	"figcaption": "p",
	"mark":       "span",
}

// droppedTags are removed with their content.
var droppedTags = map[string]bool{
	"script":   true,
	"noscript": true,
	"template": true,
}

// forbiddenAttrs lists attributes that are removed from all elements.
var forbiddenAttrs = map[string]bool{
	"contenteditable": true,
	"draggable":       true,
	"hidden":          true,
	"spellcheck":      true,
	"translate":       true,
}

// declaredPrefixes are the attribute prefixes an XHTML chapter can carry
// without extra namespace declarations. xlink is declared where used.
var declaredPrefixes = map[string]bool{
	"xml":   true,
	"xmlns": true,
	"xlink": true,
}

// XHTMLBody converts chapter markup into well-formed XHTML 1.1 body
// content.
func XHTMLBody(s string) (string, error) {
	root, err := markup.Parse(s)
	if err != nil {
		return "", err
	}
	body := markup.Body(root)
	TransformXHTML(body)
	return strings.TrimSpace(markup.RenderChildrenXML(body)), nil
}

// TransformXHTML rewrites the descendants of n in place: HTML5 tags are
// converted, scripts dropped, forbidden, data-* and foreign prefixed
// attributes removed and page breaks turned into styled divs. Elements with
// a foreign prefix, such as epub:switch, are replaced by their content.
func TransformXHTML(n *markup.Node) {
	var children []*markup.Node
	for _, c := range n.Children {
		if c.Kind == markup.ElementNode {
			if droppedTags[c.Tag] {
				continue
			}
			TransformXHTML(c)
			if c.Tag != "mbp:pagebreak" && strings.Contains(c.Tag, ":") {
				children = append(children, c.Children...)
				continue
			}
			transformElement(c)
		}
		children = append(children, c)
	}
	n.Children = children
}

func transformElement(n *markup.Node) {
	switch {
	case n.Tag == "mbp:pagebreak":
		n.Tag = "div"
		n.Attrs = []markup.Attr{
			{Key: "class", Val: "pagebreak"},
			{Key: "style", Val: "page-break-before: always"},
		}
		return
	case tagConversions[n.Tag] != "":
		orig := n.Tag
		n.Tag = tagConversions[orig]
		addClass(n, orig)
	}

	attrs := n.Attrs[:0]
	hasXLink := false
	for _, a := range n.Attrs {
		if a.Namespace == "" && (forbiddenAttrs[a.Key] || strings.HasPrefix(a.Key, "data-")) {
			continue
		}
		prefix := attrPrefix(a)
		if prefix != "" && !declaredPrefixes[prefix] {
			continue
		}
		if prefix == "xmlns" && a.Name() != "xmlns:xlink" {
			continue
		}
		if prefix == "xlink" {
			hasXLink = true
		}
		attrs = append(attrs, a)
	}
	n.Attrs = attrs

	if n.Tag == "svg" {
		setAttr(n, markup.Attr{Key: "xmlns", Val: svgNamespace})
		setAttr(n, markup.Attr{Namespace: "xmlns", Key: "xlink", Val: xlinkNamespace})
	} else if hasXLink {
		setAttr(n, markup.Attr{Namespace: "xmlns", Key: "xlink", Val: xlinkNamespace})
	}
}

// attrPrefix returns the namespace prefix of a, whether the parser split
// it off (foreign content) or left it in the key (HTML content).
func attrPrefix(a markup.Attr) string {
	if a.Namespace != "" {
		return a.Namespace
	}
	if i := strings.IndexByte(a.Key, ':'); i > 0 {
		return a.Key[:i]
	}
	return ""
}

func addClass(n *markup.Node, class string) {
	for i, a := range n.Attrs {
		if a.Namespace == "" && a.Key == "class" {
			if strings.TrimSpace(a.Val) == "" {
				n.Attrs[i].Val = class
			} else {
				n.Attrs[i].Val = a.Val + " " + class
			}
			return
		}
	}
	n.Attrs = append(n.Attrs, markup.Attr{Key: "class", Val: class})
}

// setAttr adds a unless an attribute with the same name is present.
func setAttr(n *markup.Node, a markup.Attr) {
	for _, existing := range n.Attrs {
		if existing.Name() == a.Name() {
			return
		}
	}
	n.Attrs = append(n.Attrs, a)
}
