package main

import (
	"fmt"

	"github.com/CTAG07/fabricate/pkg/analyze"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [file]",
		Short: "Report the size, entropy and hashes of a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, name, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			a.logger.Debug("Analyzing input", "source", name, "size", len(data))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), analyze.Analyze(data).String())
			return err
		},
	}
}
