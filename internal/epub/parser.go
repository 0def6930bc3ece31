// Package epub reads EPUB archives and converts them to the normalized
// book model: package document resolution, spine loading, image embedding,
// chapter title detection and stylesheet collection.
package epub

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yuanying/bionicbook/internal/book"
)

const formatName = "epub"

// Extensions lists the file extensions handled by Parser.
var Extensions = []string{".epub"}

// Options configures a Parser.
type Options struct {
	Logger *slog.Logger
	// MaxImageWidth downscales embedded raster images wider than this many
	// pixels. Zero embeds images unchanged.
	MaxImageWidth int
}

// Parser implements book.Parser for EPUB archives.
type Parser struct {
	logger    *slog.Logger
	optimizer *ImageOptimizer
}

// NewParser creates a Parser.
func NewParser(opts Options) *Parser {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		logger:    logger,
		optimizer: NewImageOptimizer(opts.MaxImageWidth),
	}
}

// CanParse reports whether name has an EPUB extension.
func (p *Parser) CanParse(name string) bool {
	return book.HasExtension(name, Extensions...)
}

// Parse decodes an EPUB archive into a Book. Every failure is reported as
// a *book.FormatError.
func (p *Parser) Parse(data []byte) (b *book.Book, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, book.NewFormatError(formatName, "malformed archive: %v", r)
		}
	}()

	b, err = p.parse(data)
	if err != nil {
		return nil, book.AsFormatError(formatName, err)
	}
	return b, nil
}

func (p *Parser) parse(data []byte) (*book.Book, error) {
	archive, err := OpenArchive(data, p.logger)
	if err != nil {
		return nil, err
	}

	opfData, err := archive.ReadFile(archive.OPFPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read package document: %w", err)
	}
	opf, err := ParseOPF(opfData, dirOf(archive.OPFPath()))
	if err != nil {
		return nil, err
	}
	p.logger.Debug("parsed package document",
		"path", archive.OPFPath(),
		"manifest_items", len(opf.ManifestOrder),
		"spine_items", len(opf.Spine))

	chapters, err := p.loadChapters(archive, opf)
	if err != nil {
		return nil, err
	}

	meta := book.Metadata{
		Language:    opf.Metadata.Language,
		Description: opf.Metadata.Description,
		Publisher:   opf.Metadata.Publisher,
		Identifier:  opf.Metadata.Identifier,
	}
	return book.New(opf.Metadata.Title, opf.Metadata.Author(), meta, chapters, p.loadStylesheet(archive, opf)), nil
}

// loadChapters loads every spine document in parallel and returns them in
// spine order. Spine items missing from the manifest or the archive are
// skipped.
func (p *Parser) loadChapters(archive *Archive, opf *OPF) ([]book.Chapter, error) {
	resources := NewResourceLoader(archive, p.optimizer, p.logger)
	contents := make([]*Content, len(opf.Spine))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, ref := range opf.Spine {
		item, ok := opf.Manifest[ref.IDRef]
		if !ok {
			p.logger.Warn("spine item not found in manifest, skipping", "idref", ref.IDRef)
			continue
		}
		if !isContentDocument(item.MediaType) {
			p.logger.Debug("spine item is not a content document, skipping", "idref", ref.IDRef, "media_type", item.MediaType)
			continue
		}

		g.Go(func() error {
			data, err := archive.ReadFile(item.Href)
			if errors.Is(err, ErrFileNotFound) {
				p.logger.Warn("spine document missing from archive, skipping", "href", item.Href)
				return nil
			}
			if err != nil {
				return err
			}

			content, err := LoadContent(item.ID, item.Href, data, resources)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", item.Href, err)
			}
			contents[i] = content
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	chapters := make([]book.Chapter, 0, len(contents))
	for _, c := range contents {
		if c == nil {
			continue
		}
		chapters = append(chapters, book.Chapter{
			ID:     c.ID,
			Title:  c.Title,
			Markup: c.Markup,
		})
	}
	return chapters, nil
}

// loadStylesheet concatenates every text/css manifest item in manifest order.
func (p *Parser) loadStylesheet(archive *Archive, opf *OPF) string {
	var parts []string
	for _, item := range opf.StylesheetItems() {
		data, err := archive.ReadFile(item.Href)
		if err != nil {
			p.logger.Warn("failed to read stylesheet, skipping", "href", item.Href, "error", err)
			continue
		}
		parts = append(parts, string(data))
	}
	return strings.Join(parts, "\n")
}

func isContentDocument(mediaType string) bool {
	switch mediaType {
	case "application/xhtml+xml", "text/html", "application/xml", "text/xml", "":
		return true
	}
	return false
}
