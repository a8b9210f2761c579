package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// app carries the state shared by every command once the root command has
// loaded the configuration.
type app struct {
	configPath string
	verbose    bool
	quiet      bool

	config *Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "fabricate",
		Short: "Fabricate synthetic data",
		Long: `Fabricate emits synthetic data: timestamps, random bytes, passwords,
passphrases, usernames, numbers, UUIDs and pseudo-words sampled from a Markov
model trained on a wordlist. It can also analyze and visualize any file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("fabricate {{.Version}} (commit %s, built %s)\n", Commit, BuildDate))

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (JSON, or YAML by extension)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log debug messages")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "only log errors")
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")

	root.AddCommand(
		newCreateCmd(a),
		newAnalyzeCmd(a),
		newVisualizeCmd(a),
		newCacheCmd(a),
		newMarkovCmd(a),
	)
	return root
}

// setup loads the configuration and builds the logger.
func (a *app) setup() error {
	path := a.configPath
	create := false
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return err
		}
		path = defaultPath
		create = true
	}

	config, err := LoadConfig(path, create)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.config = config

	level := parseLogLevel(config.LogLevel)
	switch {
	case a.verbose:
		level = slog.LevelDebug
	case a.quiet:
		level = slog.LevelError
	}
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	a.logger.Debug("Configuration loaded", slog.String("path", path))
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
