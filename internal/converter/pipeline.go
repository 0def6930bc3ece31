// Package converter wires the format parsers, the bionic transform and the
// exporters into a single conversion pipeline.
package converter

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/errgroup"

	"github.com/yuanying/bionicbook/internal/bionic"
	"github.com/yuanying/bionicbook/internal/book"
	"github.com/yuanying/bionicbook/internal/export"
)

// ConvertOptions holds options for the conversion pipeline.
type ConvertOptions struct {
	InputPath  string
	OutputPath string
	// Format is the export format; see export.Formats.
	Format        string
	Bionic        bionic.Config
	Sanitize      bool
	MaxImageWidth int
	Logger        *slog.Logger
}

// Pipeline parses a book, transforms its chapters and exports the result.
type Pipeline struct {
	Options  ConvertOptions
	registry *book.Registry
	policy   *bluemonday.Policy
	logger   *slog.Logger
}

// NewPipeline creates a new conversion pipeline.
func NewPipeline(opts ConvertOptions) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		Options:  opts,
		registry: DefaultRegistry(RegistryOptions{Logger: logger, MaxImageWidth: opts.MaxImageWidth}),
		logger:   logger,
	}
	if opts.Sanitize {
		p.policy = NewSanitizePolicy()
	}
	return p
}

// Registry returns the parser registry used by the pipeline.
func (p *Pipeline) Registry() *book.Registry {
	return p.registry
}

// Convert executes the conversion pipeline and returns the path written.
func (p *Pipeline) Convert() (string, error) {
	exporter, err := export.New(p.Options.Format)
	if err != nil {
		return "", err
	}

	b, err := p.Load(p.Options.InputPath)
	if err != nil {
		return "", err
	}

	b, err = p.Transform(b)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := exporter.Export(&buf, b); err != nil {
		return "", fmt.Errorf("failed to export: %w", err)
	}

	out := p.Options.OutputPath
	if out == "" {
		out = DefaultOutputPath(p.Options.InputPath, exporter.Extension())
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write output file: %w", err)
	}

	p.logger.Info("converted book",
		"input", p.Options.InputPath,
		"output", out,
		"chapters", len(b.Chapters),
		"mode", p.Options.Bionic.Mode)
	return out, nil
}

// Load reads and parses the file at path.
func (p *Pipeline) Load(path string) (*book.Book, error) {
	parser, err := p.registry.Lookup(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	b, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("parsed book", "path", path, "title", b.Title, "chapters", len(b.Chapters))
	return b, nil
}

// Transform returns a copy of b with every chapter sanitized, when enabled,
// and run through the bionic transform. Chapters are processed in
// parallel; their order is preserved.
func (p *Pipeline) Transform(b *book.Book) (*book.Book, error) {
	cfg := p.Options.Bionic.Normalize()
	if p.policy == nil && bionic.StrategyFor(cfg.Mode) == nil {
		return b, nil
	}

	out := *b
	out.Chapters = make([]book.Chapter, len(b.Chapters))

	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, ch := range b.Chapters {
		g.Go(func() error {
			s := ch.Markup
			if p.policy != nil {
				s = p.policy.Sanitize(s)
			}
			ch.Markup = bionic.Apply(s, cfg)
			out.Chapters[i] = ch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// DefaultOutputPath derives an output file name from the input path:
// "book.mobi" becomes "book.bionic.epub".
func DefaultOutputPath(input, ext string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + ".bionic" + ext
}
