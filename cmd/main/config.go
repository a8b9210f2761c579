package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/CTAG07/fabricate/pkg/markov"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// MarkovConfig holds the defaults for every markov flag.
type MarkovConfig struct {
	Order       int     `json:"order" yaml:"order"`
	Prior       float64 `json:"prior" yaml:"prior"`
	Backoff     bool    `json:"backoff" yaml:"backoff"`
	Granularity string  `json:"granularity" yaml:"granularity"`
	Delimiter   string  `json:"delimiter" yaml:"delimiter"`
	MinLength   int     `json:"min_length" yaml:"min_length"`
	MaxLength   int     `json:"max_length" yaml:"max_length"`
}

// CacheConfig selects where trained models are kept.
type CacheConfig struct {
	// Backend is "file" or "sqlite".
	Backend string `json:"backend" yaml:"backend"`
	// Dir is the FileCache directory. Empty means the platform cache directory.
	Dir string `json:"dir" yaml:"dir"`
	// DatabasePath is the SQLiteCache database. Empty means cache.db in Dir.
	DatabasePath string `json:"database_path" yaml:"database_path"`
}

// Config is the top-level configuration struct.
type Config struct {
	LogLevel       string        `json:"log_level" yaml:"log_level"`
	Workers        int           `json:"workers" yaml:"workers"`
	MarkovDefaults *MarkovConfig `json:"markov_defaults" yaml:"markov_defaults"`
	Cache          *CacheConfig  `json:"cache" yaml:"cache"`
}

// DefaultConfig creates a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "warn",
		Workers:  0,
		MarkovDefaults: &MarkovConfig{
			Order:       3,
			Prior:       0,
			Backoff:     false,
			Granularity: string(markov.Character),
			Delimiter:   markov.DefaultDelimiter,
			MinLength:   4,
			MaxLength:   12,
		},
		Cache: &CacheConfig{
			Backend: "file",
		},
	}
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/fabricate/config.json or the
// platform equivalent.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "fabricate", "config.json"), nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadConfig reads the configuration from a JSON or YAML file at the given
// path. If the file doesn't exist, it creates one with default values when
// create is set.
func LoadConfig(path string, create bool) (*Config, error) {
	// Initialize with default configurations
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		// If the file doesn't exist, create it with the default config.
		if os.IsNotExist(err) {
			if create {
				if err = writeConfig(path, config); err != nil {
					// Warn instead of failing, the defaults are still usable.
					fmt.Fprintf(os.Stderr, "warning: failed to write default config file: %v\n", err)
				}
			}
			return config, nil
		}
		// For other errors (e.g., permission denied), return the error.
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if isYAML(path) {
		err = yaml.Unmarshal(file, config)
	} else {
		err = json.Unmarshal(file, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Sections missing from the file keep their defaults.
	defaults := DefaultConfig()
	if config.MarkovDefaults == nil {
		config.MarkovDefaults = defaults.MarkovDefaults
	}
	if config.Cache == nil {
		config.Cache = defaults.Cache
	}
	return config, nil
}

func writeConfig(path string, config *Config) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}

// parseLogLevel maps a config level name to a slog.Level, defaulting to warn.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
