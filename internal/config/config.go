// Package config handles configuration loading, validation, and defaults
// for bitwatch.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	"bitwatch/internal/classify"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete bitwatch configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version"`

	// Analysis configuration for the pattern engine and classifier.
	Analysis AnalysisConfig `toml:"analysis" json:"analysis"`

	// Storage configuration for the history store.
	Storage StorageConfig `toml:"storage" json:"storage"`

	// Watch configuration for the daemon's file monitoring.
	Watch WatchConfig `toml:"watch" json:"watch"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging"`
}

// AnalysisConfig configures the stats engine and classifier.
type AnalysisConfig struct {
	// Thresholds are the classifier decision boundaries.
	Thresholds classify.Thresholds `toml:"thresholds" json:"thresholds"`

	// PatternLengths are the substring lengths for the occurrence table.
	PatternLengths []int `toml:"pattern_lengths" json:"pattern_lengths"`

	// WindowSizes are the hierarchical frequency window sizes.
	WindowSizes []int `toml:"window_sizes" json:"window_sizes"`

	// Strict rejects non-bit characters instead of stripping them.
	Strict bool `toml:"strict" json:"strict"`

	// MaxInputBytes caps the input size accepted from files and the CLI.
	MaxInputBytes int64 `toml:"max_input_bytes" json:"max_input_bytes"`
}

// StorageConfig configures the history store.
type StorageConfig struct {
	// Type is the backend: "json", "sqlite", or "memory".
	Type string `toml:"type" json:"type"`

	// Path is the history file (json) or database file (sqlite).
	Path string `toml:"path" json:"path"`

	// MaxRecords caps the history size; 0 disables pruning.
	MaxRecords int `toml:"max_records" json:"max_records"`

	// Secure enables per-record HMAC verification (json backend).
	Secure bool `toml:"secure" json:"secure"`

	// KeyPath is the integrity key file for secure mode.
	KeyPath string `toml:"key_path" json:"key_path"`
}

// WatchConfig configures the daemon's directory watching.
type WatchConfig struct {
	// Paths is the list of files or directories to monitor.
	Paths []string `toml:"paths" json:"paths"`

	// IncludePatterns are glob patterns for files to analyze.
	IncludePatterns []string `toml:"include_patterns" json:"include_patterns"`

	// ExcludePatterns are glob patterns for files to skip.
	ExcludePatterns []string `toml:"exclude_patterns" json:"exclude_patterns"`

	// DebounceMs is how long a file must be stable before analysis.
	DebounceMs int `toml:"debounce_ms" json:"debounce_ms"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is "debug", "info", "warn", or "error".
	Level string `toml:"level" json:"level"`

	// Format is "text" or "json".
	Format string `toml:"format" json:"format"`

	// Output is "stdout", "stderr", or "file".
	Output string `toml:"output" json:"output"`

	// FilePath is the log file used when Output is "file".
	FilePath string `toml:"file_path" json:"file_path"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	dir := DataDir()

	return &Config{
		Version: Version,
		Analysis: AnalysisConfig{
			Thresholds:     classify.DefaultThresholds(),
			PatternLengths: []int{2, 3, 4},
			WindowSizes:    []int{2, 4, 8, 16},
			Strict:         false,
			MaxInputBytes:  1 << 20,
		},
		Storage: StorageConfig{
			Type:       "json",
			Path:       filepath.Join(dir, "history.json"),
			MaxRecords: 1000,
			Secure:     false,
			KeyPath:    filepath.Join(dir, "integrity.key"),
		},
		Watch: WatchConfig{
			Paths:           []string{},
			IncludePatterns: []string{"*.bits", "*.txt"},
			ExcludePatterns: []string{".*", "*~", "*.tmp", "*.bak"},
			DebounceMs:      2000,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "text",
			Output:   "stderr",
			FilePath: filepath.Join(dir, "bitwatch.log"),
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.toml")
}

// Load reads configuration from path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.ApplyEnvOverrides()
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// EnsureDirectories creates the directories the daemon writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Storage.Path),
		filepath.Dir(c.Storage.KeyPath),
		filepath.Dir(c.Logging.FilePath),
	}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ApplyEnvOverrides applies BITWATCH_* environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("BITWATCH_STORAGE_TYPE"); v != "" {
		c.Storage.Type = v
	}
	if v := os.Getenv("BITWATCH_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("BITWATCH_MAX_RECORDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Storage.MaxRecords = n
		}
	}
	if v := os.Getenv("BITWATCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("BITWATCH_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}
}

// DataDir returns the base bitwatch directory, honoring the
// BITWATCH_DATA_DIR override.
func DataDir() string {
	if envDir := os.Getenv("BITWATCH_DATA_DIR"); envDir != "" {
		return envDir
	}
	return PlatformDataDir()
}
