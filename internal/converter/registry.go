package converter

import (
	"log/slog"

	"github.com/yuanying/bionicbook/internal/book"
	"github.com/yuanying/bionicbook/internal/epub"
	"github.com/yuanying/bionicbook/internal/mobi"
	"github.com/yuanying/bionicbook/internal/plaintext"
)

// RegistryOptions configures the parsers of DefaultRegistry.
type RegistryOptions struct {
	Logger        *slog.Logger
	MaxImageWidth int
}

// DefaultRegistry returns a registry with every built-in format parser.
func DefaultRegistry(opts RegistryOptions) *book.Registry {
	r := book.NewRegistry()
	r.Register(mobi.NewParser(mobi.Options{Logger: opts.Logger}), mobi.Extensions...)
	r.Register(epub.NewParser(epub.Options{Logger: opts.Logger, MaxImageWidth: opts.MaxImageWidth}), epub.Extensions...)

	text := plaintext.NewTextParser(plaintext.Options{Logger: opts.Logger})
	r.Register(text, text.Extensions()...)
	markupParser := plaintext.NewHTMLParser(plaintext.Options{Logger: opts.Logger})
	r.Register(markupParser, markupParser.Extensions()...)
	return r
}
