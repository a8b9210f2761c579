package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/CTAG07/fabricate/pkg/markov"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// modelCache is a markov.Cache that can also be listed and cleared.
type modelCache interface {
	markov.Cache
	Entries(ctx context.Context) ([]markov.CacheEntryInfo, error)
	Clear(ctx context.Context) (int, error)
}

// openCache builds the cache selected by the configuration. The returned
// function releases it.
func (a *app) openCache() (modelCache, func(), error) {
	cfg := a.config.Cache
	dir := cfg.Dir
	if dir == "" {
		defaultDir, err := markov.DefaultCacheDir()
		if err != nil {
			return nil, nil, err
		}
		dir = defaultDir
	}

	switch cfg.Backend {
	case "", "file":
		a.logger.Debug("Using file cache", "dir", dir)
		return markov.NewFileCache(dir), func() {}, nil

	case "sqlite":
		dbPath := cfg.DatabasePath
		if dbPath == "" {
			dbPath = filepath.Join(dir, "cache.db")
		}
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		db, err := openCacheDB(dbPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open cache database: %w", err)
		}
		if err = markov.SetupCacheSchema(db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		cache, err := markov.NewSQLiteCache(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to prepare cache statements: %w", err)
		}
		a.logger.Debug("Using sqlite cache", "path", dbPath)
		return cache, func() {
			cache.Close()
			if err := db.Close(); err != nil {
				a.logger.Error("Failed to close cache database", "error", err)
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the model cache",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List cached models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, closeCache, err := a.openCache()
			if err != nil {
				return err
			}
			defer closeCache()

			entries, err := cache.Entries(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "cache is empty")
				return err
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				fp := e.Fingerprint
				if len(fp) > 16 {
					fp = fp[:16]
				}
				rows = append(rows, []string{
					e.Source,
					fp,
					strconv.Itoa(int(e.FormatVersion)),
					humanize.Bytes(uint64(e.Size)),
					humanize.Time(e.ModTime),
					e.Location,
				})
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("SOURCE", "FINGERPRINT", "VERSION", "SIZE", "MODIFIED", "LOCATION").
				Rows(rows...)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), t.String())
			return err
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, closeCache, err := a.openCache()
			if err != nil {
				return err
			}
			defer closeCache()

			removed, err := cache.Clear(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed %d %s\n", removed, pluralize(removed, "entry", "entries"))
			return err
		},
	}

	cmd.AddCommand(listCmd, clearCmd)
	return cmd
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
