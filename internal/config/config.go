// Package config provides configuration types, defaults, and persistence
// for loom.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/loomkit/loom/internal/log"
	"github.com/loomkit/loom/internal/tracing"
)

// Config holds all loom configuration.
type Config struct {
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Watcher  WatcherConfig  `mapstructure:"watcher"`
	Log      LogConfig      `mapstructure:"log"`
	Tracing  tracing.Config `mapstructure:"tracing"`
}

// SnapshotConfig configures the snapshot store.
type SnapshotConfig struct {
	// DBPath is the SQLite database file holding saved snapshots.
	DBPath string `mapstructure:"db_path"`
}

// CacheConfig configures the snapshot read-through cache.
type CacheConfig struct {
	// Enabled controls whether snapshot lookups go through the cache.
	// When false every lookup hits the database.
	Enabled bool `mapstructure:"enabled"`

	// TTLMinutes is how long a cached snapshot stays fresh.
	TTLMinutes int `mapstructure:"ttl_minutes"`
}

// WatcherConfig configures the snapshot database file watcher.
type WatcherConfig struct {
	// Enabled controls whether external database changes trigger reloads.
	Enabled bool `mapstructure:"enabled"`

	// DebounceMs coalesces bursts of filesystem events into one reload.
	DebounceMs int `mapstructure:"debounce_ms"`
}

// LogConfig configures the debug log.
type LogConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Level   string `mapstructure:"level"`
	Path    string `mapstructure:"path"`
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		Snapshot: SnapshotConfig{
			DBPath: DefaultDBPath(),
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLMinutes: 5,
		},
		Watcher: WatcherConfig{
			Enabled:    true,
			DebounceMs: 1000,
		},
		Log: LogConfig{
			Enabled: false,
			Level:   "info",
			Path:    DefaultLogPath(),
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// DefaultDataDir returns the directory for loom's data files.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".loom"
	}
	return filepath.Join(home, ".loom")
}

// DefaultConfigDir returns the directory searched for config.yaml.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "loom")
	}
	return filepath.Join(home, ".config", "loom")
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultDBPath returns the default snapshot database location.
func DefaultDBPath() string {
	return filepath.Join(DefaultDataDir(), "snapshots.db")
}

// DefaultLogPath returns the default debug log location.
func DefaultLogPath() string {
	return filepath.Join(DefaultDataDir(), "loom.log")
}

// DefaultTracePath returns the default trace output location.
func DefaultTracePath() string {
	return filepath.Join(DefaultDataDir(), "traces.jsonl")
}

var validLogLevels = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// ParseLevel converts a config log level string to a log.Level.
func ParseLevel(s string) (log.Level, error) {
	level, ok := validLogLevels[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("invalid log level %q (valid: debug, info, warn, error)", s)
	}
	return level, nil
}

var validExporters = map[string]bool{
	"":       true,
	"none":   true,
	"file":   true,
	"stdout": true,
	"otlp":   true,
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.Log.Level != "" {
		if _, err := ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("log: %w", err)
		}
	}
	if c.Cache.TTLMinutes < 0 {
		return fmt.Errorf("cache: ttl_minutes must not be negative (got %d)", c.Cache.TTLMinutes)
	}
	if c.Watcher.DebounceMs < 0 {
		return fmt.Errorf("watcher: debounce_ms must not be negative (got %d)", c.Watcher.DebounceMs)
	}
	if !validExporters[c.Tracing.Exporter] {
		return fmt.Errorf("tracing: unsupported exporter %q (valid: none, file, stdout, otlp)", c.Tracing.Exporter)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing: sample_rate must be between 0 and 1 (got %g)", c.Tracing.SampleRate)
	}
	return nil
}

// DefaultConfigTemplate returns a fully commented default config file.
// Every setting is present but commented out, so the file documents
// itself and uncommenting a line overrides the default.
func DefaultConfigTemplate() string {
	return `# loom configuration
#
# All settings are optional. Uncomment a line to override its default.

snapshot:
  # SQLite database holding saved snapshots.
  # db_path: ~/.loom/snapshots.db

cache:
  # Cache snapshot lookups in memory.
  # enabled: true
  # ttl_minutes: 5

watcher:
  # Reload when another process writes the snapshot database.
  # enabled: true
  # debounce_ms: 1000

log:
  # Debug log. Levels: debug, info, warn, error.
  # enabled: false
  # level: info
  # path: ~/.loom/loom.log

tracing:
  # Trace command execution and graph serialization.
  # Exporters: none, file, stdout, otlp.
  # enabled: false
  # exporter: file
  # file_path: ~/.loom/traces.jsonl
  # otlp_endpoint: localhost:4317
  # sample_rate: 1.0
  # service_name: loom
`
}

// WriteDefaultConfig writes the commented default config template to path,
// creating parent directories as needed. It refuses to overwrite an
// existing file.
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "wrote default config", "path", path)
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
	}
	return path
}
