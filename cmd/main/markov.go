package main

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/CTAG07/fabricate/pkg/markov"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

// modelFlags select the corpus and training parameters of a markov model.
type modelFlags struct {
	path         string
	order        int
	prior        float64
	backoff      bool
	granularity  string
	delimiter    string
	noCache      bool
	rebuildCache bool
}

func (f *modelFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.path, "path", "p", "", "wordlist to train on")
	flags.IntVar(&f.order, "order", 3, "number of preceding tokens used as context")
	flags.Float64Var(&f.prior, "prior", 0, "smoothing weight given to every successor candidate")
	flags.BoolVar(&f.backoff, "backoff", false, "fall back to shorter contexts when a context is unseen")
	flags.StringVarP(&f.granularity, "granularity", "g", string(markov.Character), "token size: character or word")
	flags.StringVarP(&f.delimiter, "delimiter", "d", markov.DefaultDelimiter, "wordlist entry delimiter")
	flags.BoolVar(&f.noCache, "no-cache", false, "neither read nor write the model cache")
	flags.BoolVar(&f.rebuildCache, "rebuild-cache", false, "retrain and overwrite the cached model")
	_ = cmd.MarkFlagRequired("path")
	cmd.MarkFlagsMutuallyExclusive("no-cache", "rebuild-cache")
}

// applyDefaults replaces every flag the user did not set with its configured
// default.
func (f *modelFlags) applyDefaults(cmd *cobra.Command, cfg *MarkovConfig) {
	flags := cmd.Flags()
	if !flags.Changed("order") {
		f.order = cfg.Order
	}
	if !flags.Changed("prior") {
		f.prior = cfg.Prior
	}
	if !flags.Changed("backoff") {
		f.backoff = cfg.Backoff
	}
	if !flags.Changed("granularity") && cfg.Granularity != "" {
		f.granularity = cfg.Granularity
	}
	if !flags.Changed("delimiter") && cfg.Delimiter != "" {
		f.delimiter = cfg.Delimiter
	}
}

func (f *modelFlags) parameters() markov.Parameters {
	return markov.Parameters{
		Order:       f.order,
		Prior:       f.prior,
		Backoff:     f.backoff,
		Granularity: markov.Granularity(strings.ToLower(f.granularity)),
	}
}

// loadGenerator resolves the model described by f from the cache or by
// training.
func (a *app) loadGenerator(cmd *cobra.Command, f *modelFlags) (*markov.Generator, error) {
	f.applyDefaults(cmd, a.config.MarkovDefaults)

	params := f.parameters()
	if err := params.Validate(); err != nil {
		return nil, err
	}

	opts := []markov.Option{
		markov.WithLogger(a.logger),
		markov.WithDelimiter(f.delimiter),
	}
	cc := markov.CacheControl{NoCache: f.noCache, RebuildCache: f.rebuildCache}
	if !cc.NoCache {
		cache, closeCache, err := a.openCache()
		if err != nil {
			return nil, err
		}
		defer closeCache()
		opts = append(opts, markov.WithCache(cache))
	}

	return markov.NewGenerator(cmd.Context(), f.path, params, cc, opts...)
}

func newCreateMarkovCmd(a *app) *cobra.Command {
	var (
		ef         emitFlags
		mf         modelFlags
		minLength   int
		maxLength   int
		capitalize  bool
		temperature float64
		topK        int
	)
	cmd := &cobra.Command{
		Use:   "markov",
		Short: "Create pseudo-words from a Markov model trained on a wordlist",
		Long: `Create pseudo-words sampled from a Markov chain trained on a wordlist.

The trained model is cached, keyed by the wordlist contents and the training
parameters, so later runs with the same inputs skip training.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults := a.config.MarkovDefaults
			if !cmd.Flags().Changed("min") {
				minLength = defaults.MinLength
			}
			if !cmd.Flags().Changed("max") {
				maxLength = defaults.MaxLength
			}
			// Fail before training rather than once per record.
			if minLength < 0 || maxLength < 1 || minLength > maxLength {
				return fmt.Errorf("%w: --min %d --max %d", markov.ErrInvalidLength, minLength, maxLength)
			}

			g, err := a.loadGenerator(cmd, &mf)
			if err != nil {
				return err
			}

			genOpts := []markov.GenerateOption{
				markov.WithMinLength(minLength),
				markov.WithMaxLength(maxLength),
				markov.WithCapitalize(capitalize),
				markov.WithTemperature(temperature),
				markov.WithTopK(topK),
			}
			return a.emitRecords(cmd, &ef, func(rng *rand.Rand) ([]byte, error) {
				return g.Generate(rng, genOpts...)
			})
		},
	}
	mf.register(cmd)
	cmd.Flags().IntVar(&minLength, "min", 4, "minimum number of tokens")
	cmd.Flags().IntVar(&maxLength, "max", 12, "maximum number of tokens")
	cmd.Flags().BoolVarP(&capitalize, "capitalize", "c", false, "capitalize the first token")
	cmd.Flags().Float64Var(&temperature, "temperature", 1, "below 1 favours frequent successors, above 1 rare ones, 0 always picks the most frequent")
	cmd.Flags().IntVar(&topK, "top-k", 0, "only draw from the k most frequent successors (0 for all)")
	ef.register(cmd)
	return cmd
}

func newMarkovCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "markov",
		Short: "Inspect trained Markov models",
	}
	cmd.AddCommand(newMarkovStatsCmd(a), newMarkovExportCmd(a))
	return cmd
}

func newMarkovStatsCmd(a *app) *cobra.Command {
	var mf modelFlags
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show statistics for a model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.loadGenerator(cmd, &mf)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), statsTable(g))
			return err
		},
	}
	mf.register(cmd)
	return cmd
}

// statsTable renders the statistics of g's model as a two-column table.
func statsTable(g *markov.Generator) string {
	m := g.Model()
	stats := m.Stats()
	params := m.Parameters()

	rows := [][]string{
		{"Fingerprint", g.Fingerprint().String()},
		{"From cache", strconv.FormatBool(g.FromCache())},
		{"Granularity", string(params.Granularity)},
		{"Order", strconv.Itoa(params.Order)},
		{"Prior", strconv.FormatFloat(params.Prior, 'g', -1, 64)},
		{"Backoff", strconv.FormatBool(params.Backoff)},
		{"Vocabulary", humanize.Comma(int64(stats.VocabularySize))},
		{"Starting tokens", humanize.Comma(int64(stats.StartingTokens))},
		{"Transitions", humanize.Comma(int64(stats.Transitions))},
		{"Observations", humanize.Comma(int64(stats.Observations))},
	}
	for k, n := range stats.Contexts {
		if n < 0 {
			continue
		}
		rows = append(rows, []string{fmt.Sprintf("Contexts (order %d)", k), humanize.Comma(int64(n))})
	}

	labelStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	valueStyle := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return labelStyle
			}
			return valueStyle
		}).
		Rows(rows...).
		String()
}

func newMarkovExportCmd(a *app) *cobra.Command {
	var (
		mf     modelFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a model as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.loadGenerator(cmd, &mf)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return g.Model().Export(cmd.OutOrStdout())
			}

			var buf bytes.Buffer
			if err = g.Model().Export(&buf); err != nil {
				return err
			}
			if err = atomic.WriteFile(output, &buf); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			a.logger.Info("Model exported", "path", output, "size", humanize.Bytes(uint64(buf.Len())))
			return nil
		},
	}
	mf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}
