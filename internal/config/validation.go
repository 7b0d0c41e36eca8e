package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// validStorageTypes are the accepted storage backends.
var validStorageTypes = map[string]bool{
	"json":   true,
	"sqlite": true,
	"memory": true,
}

// ValidateConfig performs comprehensive validation of the configuration.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	// Analysis
	t := c.Analysis.Thresholds
	for _, check := range []struct {
		name  string
		value float64
	}{
		{"analysis.thresholds.alternating_rate", t.AlternatingRate},
		{"analysis.thresholds.run_fraction", t.RunFraction},
		{"analysis.thresholds.correlation", t.Correlation},
		{"analysis.thresholds.random_entropy", t.RandomEntropy},
	} {
		if check.value < 0 || check.value > 1 {
			errs = append(errs, ValidationError{
				Field:   check.name,
				Message: fmt.Sprintf("must be in [0, 1], got %g", check.value),
			})
		}
	}
	for _, n := range c.Analysis.PatternLengths {
		if n < 1 {
			errs = append(errs, ValidationError{
				Field:   "analysis.pattern_lengths",
				Message: fmt.Sprintf("lengths must be positive, got %d", n),
			})
			break
		}
	}
	for _, n := range c.Analysis.WindowSizes {
		if n < 1 {
			errs = append(errs, ValidationError{
				Field:   "analysis.window_sizes",
				Message: fmt.Sprintf("sizes must be positive, got %d", n),
			})
			break
		}
	}
	if c.Analysis.MaxInputBytes < 0 {
		errs = append(errs, ValidationError{
			Field:   "analysis.max_input_bytes",
			Message: "must not be negative",
		})
	}

	// Storage
	if !validStorageTypes[c.Storage.Type] {
		errs = append(errs, ValidationError{
			Field:   "storage.type",
			Message: fmt.Sprintf("unknown backend %q (want json, sqlite, or memory)", c.Storage.Type),
		})
	}
	if c.Storage.Type != "memory" && c.Storage.Path == "" {
		errs = append(errs, ValidationError{
			Field:   "storage.path",
			Message: "required for json and sqlite backends",
		})
	}
	if c.Storage.MaxRecords < 0 {
		errs = append(errs, ValidationError{
			Field:   "storage.max_records",
			Message: "must not be negative",
		})
	}
	if c.Storage.Secure && c.Storage.KeyPath == "" {
		errs = append(errs, ValidationError{
			Field:   "storage.key_path",
			Message: "required when storage.secure is set",
		})
	}

	// Watch
	if c.Watch.DebounceMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "watch.debounce_ms",
			Message: "must not be negative",
		})
	}

	// Logging
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("unknown level %q", c.Logging.Level),
		})
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("unknown format %q", c.Logging.Format),
		})
	}
	switch c.Logging.Output {
	case "stdout", "stderr", "file":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("unknown output %q", c.Logging.Output),
		})
	}
	if c.Logging.Output == "file" && c.Logging.FilePath == "" {
		errs = append(errs, ValidationError{
			Field:   "logging.file_path",
			Message: "required when logging.output is \"file\"",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
