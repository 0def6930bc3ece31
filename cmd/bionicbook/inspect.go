package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yuanying/bionicbook/internal/book"
	"github.com/yuanying/bionicbook/internal/converter"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print the metadata and chapter list of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readCLIOptions(cmd, args)
			if err != nil {
				return err
			}
			p := converter.NewPipeline(converter.ConvertOptions{
				MaxImageWidth: opts.MaxImageWidth,
				Logger:        opts.Logger,
			})
			b, err := p.Load(opts.InputPath)
			if err != nil {
				return err
			}
			return printBook(cmd.OutOrStdout(), b)
		},
	}
	cmd.Flags().Int("max-image-width", 0, "Downscale embedded EPUB images wider than this (0 keeps them)")
	addCommonFlags(cmd)
	return cmd
}

func printBook(w io.Writer, b *book.Book) error {
	fmt.Fprintf(w, "Title:       %s\n", b.Title)
	fmt.Fprintf(w, "Author:      %s\n", b.Author)
	fmt.Fprintf(w, "Language:    %s\n", b.Metadata.Language)
	if b.Metadata.Identifier != "" {
		fmt.Fprintf(w, "Identifier:  %s\n", b.Metadata.Identifier)
	}
	if b.Metadata.Publisher != "" {
		fmt.Fprintf(w, "Publisher:   %s\n", b.Metadata.Publisher)
	}
	if b.Metadata.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", b.Metadata.Description)
	}
	fmt.Fprintf(w, "Stylesheet:  %d bytes\n", len(b.Stylesheet))
	fmt.Fprintf(w, "Chapters:    %d\n\n", len(b.Chapters))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tTITLE\tBYTES")
	for _, ch := range b.Chapters {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", ch.Order+1, ch.ID, ch.Title, len(ch.Markup))
	}
	return tw.Flush()
}
