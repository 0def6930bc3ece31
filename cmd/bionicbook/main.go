package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yuanying/bionicbook/internal/bionic"
	"github.com/yuanying/bionicbook/internal/config"
	"github.com/yuanying/bionicbook/internal/converter"
	"github.com/yuanying/bionicbook/internal/export"
)

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
)

type cliOptions struct {
	InputPath     string
	OutputPath    string
	Format        string
	Bionic        bionic.Config
	Sanitize      bool
	MaxImageWidth int
	Logger        *slog.Logger
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bionicbook <file>",
		Short: "Convert e-books to bionic-reading EPUB or Markdown",
		Long: `bionicbook reads MOBI/AZW, EPUB, HTML and plain text e-books, emphasizes
selected letters of every word ("bionic reading") and writes the result as
an EPUB package or a Markdown document.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runConvert,
	}
	addConvertFlags(cmd)

	cmd.AddCommand(newConvertCmd(), newInspectCmd(), newBionicCmd())
	return cmd
}

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert a book (same as running bionicbook with a file)",
		Args:  cobra.ExactArgs(1),
		RunE:  runConvert,
	}
	addConvertFlags(cmd)
	return cmd
}

func runConvert(cmd *cobra.Command, args []string) error {
	opts, err := readCLIOptions(cmd, args)
	if err != nil {
		return err
	}

	opts.Logger.Info("converting", "input", opts.InputPath, "output", opts.OutputPath)
	p := converter.NewPipeline(converter.ConvertOptions{
		InputPath:     opts.InputPath,
		OutputPath:    opts.OutputPath,
		Format:        opts.Format,
		Bionic:        opts.Bionic,
		Sanitize:      opts.Sanitize,
		MaxImageWidth: opts.MaxImageWidth,
		Logger:        opts.Logger,
	})
	out, err := p.Convert()
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func addConvertFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("output", "o", "", "Output file path (default: input with .bionic.<ext> extension)")
	f.StringP("format", "f", "", "Output format: epub or markdown")
	f.Bool("sanitize", false, "Sanitize chapter markup before transforming")
	f.Int("max-image-width", 0, "Downscale embedded EPUB images wider than this (0 keeps them)")
	addBionicFlags(cmd)
	addCommonFlags(cmd)
}

func addBionicFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("mode", "m", "", "Highlight mode: off, prefix, prefix-mid, consonants, vowels, syllable")
	f.Float64P("intensity", "i", bionic.DefaultIntensity, "Share of each word to highlight, 0 to 1")
	f.String("color", "", "CSS color of highlighted letters (inherit leaves it unset)")
}

func addCommonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("config", "c", "", "YAML configuration file")
	f.String("log-level", "info", "Log level: debug, info, warn, error")
	f.String("log-format", "text", "Log format: text or json")
	f.BoolP("verbose", "v", false, "Enable debug logging (overrides --log-level)")
}

// readCLIOptions merges the configuration file, if any, with the command
// line flags. Flags win over file values.
func readCLIOptions(cmd *cobra.Command, args []string) (*cliOptions, error) {
	logger, err := readLogger(cmd)
	if err != nil {
		return nil, err
	}
	cfg, err := readConfig(cmd)
	if err != nil {
		return nil, err
	}
	bcfg, err := readBionicConfig(cmd, cfg)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	opts := &cliOptions{
		Bionic:        bcfg,
		Format:        cfg.Export.Format,
		Sanitize:      cfg.Parse.Sanitize,
		MaxImageWidth: cfg.Parse.MaxImageWidth,
		Logger:        logger,
	}
	if len(args) > 0 {
		opts.InputPath = args[0]
	}

	if f.Changed("format") {
		opts.Format, _ = f.GetString("format")
	}
	exporter, err := export.New(opts.Format)
	if err != nil {
		return nil, fmt.Errorf("invalid --format %q: must be one of %s", opts.Format, strings.Join(export.Formats, ", "))
	}

	if f.Changed("sanitize") {
		opts.Sanitize, _ = f.GetBool("sanitize")
	}
	if f.Changed("max-image-width") {
		opts.MaxImageWidth, _ = f.GetInt("max-image-width")
	}
	if opts.MaxImageWidth < 0 {
		return nil, fmt.Errorf("invalid --max-image-width %d: must be 0 or greater", opts.MaxImageWidth)
	}

	opts.OutputPath, _ = f.GetString("output")
	if opts.OutputPath == "" && opts.InputPath != "" {
		opts.OutputPath = converter.DefaultOutputPath(opts.InputPath, exporter.Extension())
	}
	return opts, nil
}

func readConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func readBionicConfig(cmd *cobra.Command, cfg *config.Config) (bionic.Config, error) {
	f := cmd.Flags()
	bcfg := cfg.BionicSettings()

	if f.Changed("mode") {
		s, _ := f.GetString("mode")
		m, ok := bionic.ParseMode(s)
		if !ok {
			return bionic.Config{}, fmt.Errorf("invalid --mode %q: must be one of %s", s, joinModes())
		}
		bcfg.Mode = m
	}
	if f.Changed("intensity") {
		v, _ := f.GetFloat64("intensity")
		if v < 0 || v > 1 {
			return bionic.Config{}, fmt.Errorf("invalid --intensity %v: must be between 0 and 1", v)
		}
		bcfg.Intensity = v
	}
	if f.Changed("color") {
		bcfg.Color, _ = f.GetString("color")
	}
	return bcfg.Normalize(), nil
}

func readLogger(cmd *cobra.Command) (*slog.Logger, error) {
	f := cmd.Flags()
	level, _ := f.GetString("log-level")
	format, _ := f.GetString("log-format")
	verbose, _ := f.GetBool("verbose")

	level = strings.ToLower(strings.TrimSpace(level))
	if !slices.Contains(validLogLevels, level) {
		return nil, fmt.Errorf("invalid --log-level %q: must be one of %s", level, strings.Join(validLogLevels, ", "))
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if !slices.Contains(validLogFormats, format) {
		return nil, fmt.Errorf("invalid --log-format %q: must be one of %s", format, strings.Join(validLogFormats, ", "))
	}
	if verbose {
		level = "debug"
	}
	return buildLogger(cmd.ErrOrStderr(), level, format), nil
}

func buildLogger(w io.Writer, level, format string) *slog.Logger {
	var lv slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lv = slog.LevelDebug
	case "warn":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: lv}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func joinModes() string {
	names := make([]string, len(bionic.Modes))
	for i, m := range bionic.Modes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
