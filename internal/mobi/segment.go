package mobi

import (
	"fmt"
	"strings"

	"github.com/yuanying/bionicbook/internal/book"
	"github.com/yuanying/bionicbook/internal/markup"
)

// pageBreakTag is the proprietary page-break marker used in MOBI markup.
const pageBreakTag = "mbp:pagebreak"

// singleChapterTitle is used when the markup contains no chapter delimiter.
const singleChapterTitle = "Content"

// IsChapterDelimiter reports whether a top-level body node starts a new
// chapter: an h1/h2 heading, a page-break marker, or any element whose
// class contains "chapter".
func IsChapterDelimiter(n *markup.Node) bool {
	if n.Kind != markup.ElementNode {
		return false
	}
	switch n.Tag {
	case "h1", "h2", pageBreakTag:
		return true
	}
	return n.HasClass("chapter")
}

// Segment splits a decoded markup stream into chapters. The result always
// holds at least one chapter.
func Segment(text string) ([]book.Chapter, error) {
	root, err := markup.ParseDocument(text)
	if err != nil {
		return nil, err
	}
	body := markup.Body(root)

	var (
		chapters  []book.Chapter
		acc       strings.Builder
		title     string
		delimited bool
	)

	flush := func() {
		if strings.TrimSpace(acc.String()) == "" {
			return
		}
		if title == "" {
			title = book.DefaultChapterTitle(len(chapters))
		}
		chapters = append(chapters, book.Chapter{
			ID:     fmt.Sprintf("chapter-%d", len(chapters)+1),
			Title:  title,
			Markup: acc.String(),
			Order:  len(chapters),
		})
	}

	for _, n := range body.Children {
		if IsChapterDelimiter(n) {
			delimited = true
			flush()
			acc.Reset()
			title = strings.Join(strings.Fields(n.TextContent()), " ")
			if title == "" {
				title = book.DefaultChapterTitle(len(chapters))
			}
		}
		acc.WriteString(markup.Render(n))
	}

	if !delimited {
		return []book.Chapter{{
			ID:     "chapter-1",
			Title:  singleChapterTitle,
			Markup: markup.RenderChildren(body),
		}}, nil
	}

	flush()
	if len(chapters) == 0 {
		chapters = append(chapters, book.Chapter{ID: "chapter-1", Title: singleChapterTitle})
	}
	return chapters, nil
}
