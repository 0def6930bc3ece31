package markup

import (
	"html"
	"strings"
)

// voidElements never have children and are written self-closed.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
	"mbp:pagebreak": true,
}

// rawTextElements hold character data that is written without escaping.
var rawTextElements = map[string]bool{
	"script": true,
	"style":  true,
}

// Render serializes n and its descendants back to markup text.
func Render(n *Node) string {
	var b strings.Builder
	if n.Kind == DocumentNode && n.Text != "" {
		b.WriteString(n.Text)
		b.WriteByte('\n')
	}
	render(&b, n, false, false)
	return b.String()
}

// RenderChildren serializes only the children of n.
func RenderChildren(n *Node) string {
	var b strings.Builder
	for _, c := range n.Children {
		render(&b, c, false, false)
	}
	return b.String()
}

// RenderChildrenXML serializes the children of n as XML. Script and style
// content is escaped like any other text and comments never contain "--".
func RenderChildrenXML(n *Node) string {
	var b strings.Builder
	for _, c := range n.Children {
		render(&b, c, false, true)
	}
	return b.String()
}

func render(b *strings.Builder, n *Node, raw, xml bool) {
	switch n.Kind {
	case DocumentNode:
		for _, c := range n.Children {
			render(b, c, false, xml)
		}
	case TextNode:
		if raw {
			b.WriteString(n.Text)
		} else {
			b.WriteString(html.EscapeString(n.Text))
		}
	case CommentNode:
		b.WriteString("<!--")
		if xml {
			b.WriteString(xmlComment(n.Text))
		} else {
			b.WriteString(n.Text)
		}
		b.WriteString("-->")
	case DoctypeNode:
		renderDoctype(b, n)
	case ElementNode:
		b.WriteByte('<')
		b.WriteString(n.Tag)
		for _, a := range n.Attrs {
			b.WriteByte(' ')
			b.WriteString(a.Name())
			b.WriteString(`="`)
			b.WriteString(html.EscapeString(a.Val))
			b.WriteByte('"')
		}
		if voidElements[n.Tag] && len(n.Children) == 0 {
			b.WriteString("/>")
			return
		}
		b.WriteByte('>')
		childRaw := rawTextElements[n.Tag] && !xml
		for _, c := range n.Children {
			render(b, c, childRaw, xml)
		}
		b.WriteString("</")
		b.WriteString(n.Tag)
		b.WriteByte('>')
	}
}

func xmlComment(s string) string {
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "- -")
	}
	return strings.TrimSuffix(s, "-")
}

func renderDoctype(b *strings.Builder, n *Node) {
	b.WriteString("<!DOCTYPE ")
	b.WriteString(n.Text)
	var public, system string
	for _, a := range n.Attrs {
		switch a.Key {
		case "public":
			public = a.Val
		case "system":
			system = a.Val
		}
	}
	if public != "" {
		b.WriteString(` PUBLIC "` + public + `"`)
		if system != "" {
			b.WriteString(` "` + system + `"`)
		}
	} else if system != "" {
		b.WriteString(` SYSTEM "` + system + `"`)
	}
	b.WriteByte('>')
}
