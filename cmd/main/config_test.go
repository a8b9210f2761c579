package main

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")

	config, err := LoadConfig(path, false)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if config.MarkovDefaults.Order != 3 || config.Cache.Backend != "file" {
		t.Errorf("expected defaults, got %+v", config)
	}
	if _, err = os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("config file should not be created without create, stat err: %v", err)
	}
}

func TestLoadConfigCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")

	if _, err := LoadConfig(path, true); err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("default config was not written: %v", err)
	}
	var written Config
	if err = json.Unmarshal(data, &written); err != nil {
		t.Fatalf("default config is not valid JSON: %v", err)
	}
	if written.LogLevel != "warn" || written.MarkovDefaults == nil || written.MarkovDefaults.MaxLength != 12 {
		t.Errorf("unexpected default config: %s", data)
	}
}

func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "log_level: debug\nworkers: 2\ncache:\n  backend: sqlite\n  dir: /tmp/x\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if config.LogLevel != "debug" || config.Workers != 2 {
		t.Errorf("top-level fields not read: %+v", config)
	}
	if config.Cache.Backend != "sqlite" || config.Cache.Dir != "/tmp/x" {
		t.Errorf("cache section not read: %+v", config.Cache)
	}
	if config.MarkovDefaults == nil || config.MarkovDefaults.Order != 3 {
		t.Errorf("missing markov section should keep defaults, got %+v", config.MarkovDefaults)
	}
}

func TestLoadConfigPartialSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"markov_defaults": {"order": 2, "granularity": "word"}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path, false)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	md := config.MarkovDefaults
	if md.Order != 2 || md.Granularity != "word" {
		t.Errorf("markov section not read: %+v", md)
	}
	// Fields absent from the file keep the defaults they were decoded over.
	if md.MinLength != 4 || md.Delimiter != "\n" {
		t.Errorf("absent fields lost their defaults: %+v", md)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path, false); err == nil {
		t.Fatal("expected an error for malformed config")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelWarn},
		{"chatty", slog.LevelWarn},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
