package config

import (
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "GUIDES_SOURCE_DIR", "GUIDES_FORMATS", "GUIDES_WORKERS",
		"GUIDES_USE_CACHE", "GUIDES_JOB_TTL", "GUIDES_MAX_RENDER_BYTES", "PATHSTORE_URL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %q", cfg.Port)
	}
	if cfg.SourceDir != "docs" || cfg.OutputDir != "build" {
		t.Errorf("expected docs -> build, got %q -> %q", cfg.SourceDir, cfg.OutputDir)
	}
	if !slices.Equal(cfg.Formats, []string{"html"}) {
		t.Errorf("expected [html], got %v", cfg.Formats)
	}
	if cfg.WorkerCount != 4 || !cfg.UseCache || !cfg.SearchIndex || cfg.FJSON {
		t.Errorf("unexpected build defaults: %+v", cfg)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected 1h job ttl, got %s", cfg.JobTTL)
	}
	if cfg.MaxRenderBytes != 1<<20 {
		t.Errorf("expected 1MiB render limit, got %d", cfg.MaxRenderBytes)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GUIDES_FORMATS", "HTML, latex,html,,docx")
	t.Setenv("GUIDES_WORKERS", "8")
	t.Setenv("GUIDES_FJSON", "true")
	t.Setenv("GUIDES_JOB_TTL", "5m")

	cfg := Load()
	if !slices.Equal(cfg.Formats, []string{"html", "latex", "docx"}) {
		t.Errorf("expected [html latex docx], got %v", cfg.Formats)
	}
	if cfg.WorkerCount != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.WorkerCount)
	}
	if !cfg.FJSON {
		t.Error("expected fjson enabled")
	}
	if cfg.JobTTL != 5*time.Minute {
		t.Errorf("expected 5m, got %s", cfg.JobTTL)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			SourceDir:          "docs",
			Formats:            []string{"html"},
			WorkerCount:        2,
			InitialHeaderLevel: 1,
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty source", func(c *Config) { c.SourceDir = " " }, "GUIDES_SOURCE_DIR"},
		{"no formats", func(c *Config) { c.Formats = nil }, "at least one format"},
		{"unknown format", func(c *Config) { c.Formats = []string{"pdf"} }, `"pdf"`},
		{"zero workers", func(c *Config) { c.WorkerCount = 0 }, "GUIDES_WORKERS"},
		{"header level", func(c *Config) { c.InitialHeaderLevel = 7 }, "GUIDES_INITIAL_HEADER_LEVEL"},
		{"pathstore key", func(c *Config) { c.PathstoreURL = "http://ps" }, "PATHSTORE_API_KEY"},
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := (Config{LogLevel: in}).SlogLevel(); got != want {
			t.Errorf("%s: expected %s, got %s", in, want, got)
		}
	}
}
