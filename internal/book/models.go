package book

import "fmt"

// Default metadata values used when a source does not declare them.
const (
	DefaultTitle    = "Untitled"
	DefaultAuthor   = "Unknown author"
	DefaultLanguage = "en"
)

// Book is the normalized representation produced by every format parser.
type Book struct {
	Title      string
	Author     string
	Chapters   []Chapter
	Metadata   Metadata
	Stylesheet string
}

// Metadata holds the optional descriptive fields of a Book.
type Metadata struct {
	Language    string
	Description string
	Publisher   string
	Identifier  string
}

// Chapter is one unit of reading order.
type Chapter struct {
	ID     string
	Title  string
	Markup string
	Order  int
}

// DefaultChapterTitle returns the generated title for the chapter at the given zero-based index.
func DefaultChapterTitle(index int) string {
	return fmt.Sprintf("Chapter %d", index+1)
}

// New assembles a Book, filling defaults and renumbering chapters so that
// Order matches the slice position. A book without chapters gets a single
// empty placeholder chapter.
func New(title, author string, meta Metadata, chapters []Chapter, stylesheet string) *Book {
	if title == "" {
		title = DefaultTitle
	}
	if author == "" {
		author = DefaultAuthor
	}
	if meta.Language == "" {
		meta.Language = DefaultLanguage
	}

	if len(chapters) == 0 {
		chapters = []Chapter{{ID: "chapter-1", Title: "Content"}}
	}

	out := make([]Chapter, len(chapters))
	seen := make(map[string]bool, len(chapters))
	reserved := make(map[string]bool, len(chapters))
	for _, ch := range chapters {
		reserved[ch.ID] = true
	}
	for i, ch := range chapters {
		ch.Order = i
		if ch.ID == "" || seen[ch.ID] {
			ch.ID = fmt.Sprintf("chapter-%d", i+1)
			for n := len(chapters) + 1; seen[ch.ID] || reserved[ch.ID]; n++ {
				ch.ID = fmt.Sprintf("chapter-%d", n)
			}
		}
		seen[ch.ID] = true
		if ch.Title == "" {
			ch.Title = DefaultChapterTitle(i)
		}
		out[i] = ch
	}

	return &Book{
		Title:      title,
		Author:     author,
		Chapters:   out,
		Metadata:   meta,
		Stylesheet: stylesheet,
	}
}
