package main

import (
	"io"
	"os"

	"github.com/CTAG07/fabricate/pkg/emit"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// emitFlags are shared by every command that produces random records.
type emitFlags struct {
	count   int
	workers int
	seed    uint64
}

func (f *emitFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.IntVarP(&f.count, "count", "n", 1, "number of records to create")
	flags.IntVar(&f.workers, "workers", 0, "maximum records created in parallel (default from config, then CPU count)")
	flags.Uint64Var(&f.seed, "seed", 0, "seed for reproducible output")
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// emitRecords creates f.count records with fn and writes them to the command's
// output, one per line.
func (a *app) emitRecords(cmd *cobra.Command, f *emitFlags, fn emit.Task) error {
	opts := emit.Options{
		Workers: f.workers,
		Logger:  a.logger,
	}
	if opts.Workers <= 0 {
		opts.Workers = a.config.Workers
	}
	if cmd.Flags().Changed("seed") {
		seed := f.seed
		opts.Seed = &seed
	}

	out := cmd.OutOrStdout()
	err := emit.Parallel(cmd.Context(), out, f.count, opts, fn)
	finishOutput(out)
	return err
}

// emitOne writes a single record that needs no random source.
func emitOne(cmd *cobra.Command, fn func() ([]byte, error)) error {
	out := cmd.OutOrStdout()
	err := emit.Serial(out, fn)
	finishOutput(out)
	return err
}

// finishOutput ends terminal output with a newline so the prompt starts on its
// own line. Pipes get the records exactly.
func finishOutput(out io.Writer) {
	if isTerminal(out) {
		_, _ = io.WriteString(out, "\n")
	}
}
