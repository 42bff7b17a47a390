package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// KnownFormats are the output formats a build can produce.
var KnownFormats = []string{"html", "latex", "docx"}

type Config struct {
	Port string

	// Auth
	GuidesAPIKey string

	// Build sources and outputs
	SourceDir string
	OutputDir string
	CacheDir  string
	Formats   []string

	// Parsing and resolution
	InitialHeaderLevel int
	DefaultRole        string
	APIDocsBase        string

	// Build behavior
	WorkerCount int
	UseCache    bool
	FJSON       bool
	SearchIndex bool

	// Job queue
	MaxQueueSize int
	JobTTL       time.Duration

	// Upload limits
	MaxRenderBytes int64

	LogLevel string

	// Optional remote metas cache
	PathstoreURL    string
	PathstoreAPIKey string
	PathstoreTenant string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8080"),

		GuidesAPIKey: os.Getenv("GUIDES_API_KEY"),

		SourceDir: envOr("GUIDES_SOURCE_DIR", "docs"),
		OutputDir: envOr("GUIDES_OUTPUT_DIR", "build"),
		CacheDir:  envOr("GUIDES_CACHE_DIR", ".guides-cache"),
		Formats:   ParseFormats(envOr("GUIDES_FORMATS", "html")),

		InitialHeaderLevel: envInt("GUIDES_INITIAL_HEADER_LEVEL", 1),
		DefaultRole:        envOr("GUIDES_DEFAULT_ROLE", "ref"),
		APIDocsBase:        envOr("GUIDES_API_DOCS_BASE", "api"),

		WorkerCount: envInt("GUIDES_WORKERS", 4),
		UseCache:    envBool("GUIDES_USE_CACHE", true),
		FJSON:       envBool("GUIDES_FJSON", false),
		SearchIndex: envBool("GUIDES_SEARCH_INDEX", true),

		MaxQueueSize: envInt("GUIDES_MAX_QUEUE_SIZE", 16),
		JobTTL:       envDuration("GUIDES_JOB_TTL", 1*time.Hour),

		MaxRenderBytes: envInt64("GUIDES_MAX_RENDER_BYTES", 1<<20), // 1MiB

		LogLevel: envOr("GUIDES_LOG_LEVEL", "info"),

		PathstoreURL:    os.Getenv("PATHSTORE_URL"),
		PathstoreAPIKey: os.Getenv("PATHSTORE_API_KEY"),
		PathstoreTenant: envOr("PATHSTORE_TENANT", "default"),
	}

	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 16
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.MaxRenderBytes <= 0 {
		cfg.MaxRenderBytes = 1 << 20
	}

	return cfg
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.SourceDir) == "" {
		return fmt.Errorf("GUIDES_SOURCE_DIR is required")
	}
	if len(c.Formats) == 0 {
		return fmt.Errorf("GUIDES_FORMATS must name at least one format")
	}
	for _, f := range c.Formats {
		if !isKnownFormat(f) {
			return fmt.Errorf("unknown output format %q (known: %s)", f, strings.Join(KnownFormats, ", "))
		}
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("GUIDES_WORKERS must be positive, got %d", c.WorkerCount)
	}
	if c.InitialHeaderLevel < 1 || c.InitialHeaderLevel > 6 {
		return fmt.Errorf("GUIDES_INITIAL_HEADER_LEVEL must be between 1 and 6, got %d", c.InitialHeaderLevel)
	}
	if c.PathstoreURL != "" && c.PathstoreAPIKey == "" {
		return fmt.Errorf("PATHSTORE_API_KEY is required when PATHSTORE_URL is set")
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level. Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseFormats splits a comma separated format list, lowercasing names and
// dropping blanks and duplicates.
func ParseFormats(v string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, f := range strings.Split(v, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

func isKnownFormat(f string) bool {
	for _, k := range KnownFormats {
		if f == k {
			return true
		}
	}
	return false
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
