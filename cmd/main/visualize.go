package main

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/CTAG07/fabricate/pkg/visualize"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

var errTerminalOutput = errors.New("refusing to write a PNG to a terminal, use -o or --force")

func newVisualizeCmd(a *app) *cobra.Command {
	var (
		output string
		width  int
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "visualize [file]",
		Short: "Render a file or stdin as a PNG, one pixel per byte",
		Long: `Render a file or stdin as a PNG with one pixel per byte, coloured by byte
class: zero, whitespace, printable ASCII, control, 0xff and other high bytes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toStdout := output == "" || output == "-"
			if toStdout && !force && isTerminal(cmd.OutOrStdout()) {
				return errTerminalOutput
			}

			data, name, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err = visualize.Render(&buf, data, visualize.WithWidth(width)); err != nil {
				return fmt.Errorf("failed to render %s: %w", name, err)
			}
			if toStdout {
				_, err = buf.WriteTo(cmd.OutOrStdout())
				return err
			}
			if err = atomic.WriteFile(output, &buf); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			a.logger.Info("Image written", "source", name, "path", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "PNG file to write (default stdout)")
	cmd.Flags().IntVarP(&width, "width", "w", visualize.DefaultWidth, "image width in pixels")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "write to stdout even when it is a terminal")
	return cmd
}
