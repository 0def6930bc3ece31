// Package plaintext reads loose text and HTML payloads: .txt files are
// split into paragraphs and chapters, HTML documents are segmented on
// headings and page breaks.
package plaintext

import (
	"bytes"
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/charmap"

	"github.com/yuanying/bionicbook/internal/book"
	"github.com/yuanying/bionicbook/internal/mobi"
)

const formatName = "text"

var (
	// TextExtensions are parsed as plain text.
	TextExtensions = []string{".txt", ".text"}
	// HTMLExtensions are parsed as markup.
	HTMLExtensions = []string{".html", ".htm", ".xhtml"}
)

// headingRe matches lines of a text file that open a chapter.
var headingRe = regexp.MustCompile(`(?i)^((chapter|chapitre|cap[íi]tulo|kapitel|part|book)\s+([0-9]+|[ivxlcdm]+)\b.{0,60}|prologue|epilogue|prólogo|epílogo)$`)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options configures a Parser.
type Options struct {
	Logger *slog.Logger
}

// Parser implements book.Parser for a single payload format.
type Parser struct {
	logger *slog.Logger
	isHTML bool
}

// NewTextParser creates a Parser for plain text files.
func NewTextParser(opts Options) *Parser {
	return newParser(opts, false)
}

// NewHTMLParser creates a Parser for standalone HTML documents.
func NewHTMLParser(opts Options) *Parser {
	return newParser(opts, true)
}

func newParser(opts Options, isHTML bool) *Parser {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger, isHTML: isHTML}
}

// Extensions returns the extensions this parser handles.
func (p *Parser) Extensions() []string {
	if p.isHTML {
		return HTMLExtensions
	}
	return TextExtensions
}

// CanParse reports whether name has one of the parser's extensions.
func (p *Parser) CanParse(name string) bool {
	return book.HasExtension(name, p.Extensions()...)
}

// Parse converts the payload into a Book. Every failure is reported as a
// *book.FormatError.
func (p *Parser) Parse(data []byte) (*book.Book, error) {
	text := decode(data)
	p.logger.Debug("decoded payload", "bytes", len(data), "html", p.isHTML)

	var (
		b   *book.Book
		err error
	)
	if p.isHTML {
		b, err = parseHTML(text)
	} else {
		b, err = parseText(text)
	}
	if err != nil {
		return nil, book.AsFormatError(formatName, err)
	}
	return b, nil
}

// decode strips a UTF-8 BOM and falls back to Windows-1252 for input that
// is not valid UTF-8.
func decode(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "�")
	}
	return string(decoded)
}

func parseHTML(text string) (*book.Book, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	title := collapse(doc.Find("head title").First().Text())
	if title == "" {
		title = collapse(doc.Find("h1").First().Text())
	}
	author, _ := doc.Find(`meta[name="author"]`).Attr("content")
	description, _ := doc.Find(`meta[name="description"]`).Attr("content")
	lang, _ := doc.Find("html").Attr("lang")

	var styles []string
	doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		if css := strings.TrimSpace(s.Text()); css != "" {
			styles = append(styles, css)
		}
	})

	chapters, err := mobi.Segment(text)
	if err != nil {
		return nil, err
	}

	meta := book.Metadata{Language: strings.TrimSpace(lang), Description: strings.TrimSpace(description)}
	return book.New(title, strings.TrimSpace(author), meta, chapters, strings.Join(styles, "\n")), nil
}

// parseText wraps blank-line separated blocks in <p> elements and turns
// heading-like lines into <h2> elements, then segments the result.
func parseText(text string) (*book.Book, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var (
		sb   strings.Builder
		para []string
	)
	flush := func() {
		if len(para) == 0 {
			return
		}
		sb.WriteString("<p>")
		sb.WriteString(html.EscapeString(strings.Join(para, " ")))
		sb.WriteString("</p>\n")
		para = para[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			flush()
		case headingRe.MatchString(trimmed):
			flush()
			sb.WriteString("<h2>")
			sb.WriteString(html.EscapeString(trimmed))
			sb.WriteString("</h2>\n")
		default:
			para = append(para, trimmed)
		}
	}
	flush()

	chapters, err := mobi.Segment(sb.String())
	if err != nil {
		return nil, err
	}
	return book.New("", "", book.Metadata{}, chapters, ""), nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
