// Package export writes a Book to an output format: an EPUB package with a
// fixed layout, or a Markdown document.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/yuanying/bionicbook/internal/book"
)

// Output formats.
const (
	FormatEPUB     = "epub"
	FormatMarkdown = "markdown"
)

// Formats lists the supported output formats.
var Formats = []string{FormatEPUB, FormatMarkdown}

var (
	// ErrNilBook is returned when Export is called without a book.
	ErrNilBook = errors.New("no book to export")
	// ErrUnknownFormat is returned by New for an unsupported format name.
	ErrUnknownFormat = errors.New("unknown export format")
)

// Exporter writes a Book to w.
type Exporter interface {
	Export(w io.Writer, b *book.Book) error
	Extension() string
}

// New returns the exporter for format. "md" is accepted for Markdown.
func New(format string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatEPUB:
		return NewEPUBWriter(), nil
	case FormatMarkdown, "md":
		return NewMarkdownWriter(), nil
	}
	return nil, fmt.Errorf("%w: %q (accepted: %s)", ErrUnknownFormat, format, strings.Join(Formats, ", "))
}
