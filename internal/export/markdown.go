package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/yuanying/bionicbook/internal/book"
	"github.com/yuanying/bionicbook/internal/markup"
)

// MarkdownWriter writes a Book as a single Markdown document.
type MarkdownWriter struct {
	conv *converter.Converter
}

// NewMarkdownWriter creates a MarkdownWriter with CommonMark and table
// support.
func NewMarkdownWriter() *MarkdownWriter {
	return &MarkdownWriter{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Extension returns the file extension of the output.
func (m *MarkdownWriter) Extension() string {
	return ".md"
}

// Export writes the book title followed by one section per chapter.
func (m *MarkdownWriter) Export(w io.Writer, b *book.Book) error {
	if b == nil {
		return ErrNilBook
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", b.Title)
	if b.Author != "" {
		fmt.Fprintf(&sb, "_%s_\n\n", b.Author)
	}

	for _, ch := range b.Chapters {
		md, err := m.chapter(ch.Markup)
		if err != nil {
			return fmt.Errorf("failed to convert chapter %q: %w", ch.ID, err)
		}
		fmt.Fprintf(&sb, "## %s\n\n", ch.Title)
		if md != "" {
			sb.WriteString(md)
			sb.WriteString("\n\n")
		}
	}

	if _, err := io.WriteString(w, strings.TrimRight(sb.String(), "\n")+"\n"); err != nil {
		return fmt.Errorf("failed to write markdown: %w", err)
	}
	return nil
}

func (m *MarkdownWriter) chapter(s string) (string, error) {
	root, err := markup.Parse(s)
	if err != nil {
		return "", err
	}
	body := markup.Body(root)
	MergeAdjacent(body)
	md, err := m.conv.ConvertString(markup.RenderChildren(body))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(md), nil
}

// MergeAdjacent joins sibling elements with identical tags and attributes
// that directly follow each other, so per-letter emphasis such as
// <b>l</b><b>e</b> becomes <b>le</b>.
func MergeAdjacent(n *markup.Node) {
	var children []*markup.Node
	for _, c := range n.Children {
		if c.Kind == markup.ElementNode {
			MergeAdjacent(c)
			if last := len(children) - 1; last >= 0 && mergeable(children[last], c) {
				children[last].Children = append(children[last].Children, c.Children...)
				continue
			}
		}
		children = append(children, c)
	}
	n.Children = children
}

func mergeable(a, b *markup.Node) bool {
	if a.Kind != markup.ElementNode || a.Tag != b.Tag || len(a.Attrs) != len(b.Attrs) {
		return false
	}
	switch a.Tag {
	case "b", "strong", "i", "em", "span":
	default:
		return false
	}
	for i := range a.Attrs {
		if a.Attrs[i] != b.Attrs[i] {
			return false
		}
	}
	return true
}
