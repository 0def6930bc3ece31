// Package mobi reads MOBI/PRC/AZW e-books stored in Palm Database
// containers and converts them to the normalized book model.
package mobi

import (
	"fmt"
	"log/slog"

	"github.com/yuanying/bionicbook/internal/book"
)

const formatName = "mobi"

// Extensions lists the file extensions handled by Parser.
var Extensions = []string{".mobi", ".prc", ".azw", ".azw3", ".pdb"}

// Options configures a Parser.
type Options struct {
	Logger *slog.Logger
}

// Parser implements book.Parser for Palm Database e-books.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a Parser.
func NewParser(opts Options) *Parser {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// CanParse reports whether name has a Palm Database e-book extension.
func (p *Parser) CanParse(name string) bool {
	return book.HasExtension(name, Extensions...)
}

// Parse decodes data into a Book. Every failure is reported as a
// *book.FormatError.
func (p *Parser) Parse(data []byte) (b *book.Book, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, book.NewFormatError(formatName, "malformed file: %v", r)
		}
	}()

	b, err = p.parse(data)
	if err != nil {
		return nil, book.AsFormatError(formatName, err)
	}
	return b, nil
}

func (p *Parser) parse(data []byte) (*book.Book, error) {
	pdb, err := ReadPDBHeader(data)
	if err != nil {
		return nil, err
	}
	records, err := ReadRecordTable(data, int(pdb.RecordCount))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, book.NewFormatError(formatName, "file has no records")
	}

	record0, err := RecordData(data, records, 0)
	if err != nil {
		return nil, err
	}
	header, err := ParseHeader(record0, p.logger)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("parsed MOBI header",
		"name", pdb.Name,
		"type", pdb.Type,
		"creator", pdb.Creator,
		"compression", header.Compression,
		"text_records", header.TextRecordCount,
		"text_length", header.TextLength)

	text, err := ReadText(data, records, header)
	if err != nil {
		return nil, fmt.Errorf("failed to read text records: %w", err)
	}

	chapters, err := Segment(text)
	if err != nil {
		return nil, fmt.Errorf("failed to segment text: %w", err)
	}

	title := header.Title
	if title == "" {
		title = pdb.Name
	}
	meta := book.Metadata{Language: header.Metadata.Language}

	return book.New(title, header.Metadata.Author, meta, chapters, ""), nil
}
