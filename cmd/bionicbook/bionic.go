package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yuanying/bionicbook/internal/bionic"
)

func newBionicCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bionic [file]",
		Short: "Apply the highlight transform to a markup file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readCLIOptions(cmd, nil)
			if err != nil {
				return err
			}

			var data []byte
			if len(args) == 1 {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}

			out := bionic.NewEngine(opts.Bionic).Apply(string(data))
			opts.Logger.Debug("applied transform", "mode", opts.Bionic.Mode, "bytes", len(out))

			path, _ := cmd.Flags().GetString("output")
			if path == "" {
				_, err = io.WriteString(cmd.OutOrStdout(), out)
				return err
			}
			if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	addBionicFlags(cmd)
	addCommonFlags(cmd)
	return cmd
}
