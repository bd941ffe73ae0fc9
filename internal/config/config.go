// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults come from New; Load layers a YAML file and CHURN_* env on top.
// - Validation failures wrap ErrInvalidConfig, source failures ErrLoadConfig.
package config

import (
	"fmt"
	"strings"
)

// Encoding modes accepted by EncodingMode.
const (
	EncodingTable  = "table"
	EncodingLegacy = "legacy"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// LogFile, when set, tees logs into a size-rotated file.
	LogFile string `koanf:"log_file"`

	// LogMaxSizeMB is the rotation threshold for LogFile.
	LogMaxSizeMB int `koanf:"log_max_size_mb"`

	// Addr configures the HTTP listen address, e.g. ":8501".
	Addr string `koanf:"addr"`

	// ModelPath points at the classifier artifact loaded at startup.
	ModelPath string `koanf:"model_path"`

	// EncodingMode is "table" (fixed category codes from the artifact)
	// or "legacy" (every categorical column encoded as 0).
	EncodingMode string `koanf:"encoding_mode"`

	// RateLimitRPS caps predictions per client per second; 0 disables.
	RateLimitRPS float64 `koanf:"rate_limit_rps"`

	// RateLimitBurst is the token bucket depth per client.
	RateLimitBurst int `koanf:"rate_limit_burst"`

	// ReadTimeoutMS and WriteTimeoutMS bound each HTTP exchange.
	ReadTimeoutMS  int `koanf:"read_timeout_ms"`
	WriteTimeoutMS int `koanf:"write_timeout_ms"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		LogMaxSizeMB:   100,
		Addr:           ":8501",
		ModelPath:      "models/churn_forest.json",
		EncodingMode:   EncodingTable,
		RateLimitRPS:   20,
		RateLimitBurst: 40,
		ReadTimeoutMS:  10_000,
		WriteTimeoutMS: 10_000,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.ModelPath) == "":
		return fmt.Errorf("%w: model_path must not be empty", ErrInvalidConfig)
	case c.EncodingMode != EncodingTable && c.EncodingMode != EncodingLegacy:
		return fmt.Errorf("%w: encoding_mode must be %q or %q, got %q", ErrInvalidConfig, EncodingTable, EncodingLegacy, c.EncodingMode)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	case c.RateLimitRPS < 0:
		return fmt.Errorf("%w: rate_limit_rps must not be negative", ErrInvalidConfig)
	case c.RateLimitRPS > 0 && c.RateLimitBurst < 1:
		return fmt.Errorf("%w: rate_limit_burst must be at least 1 when rate limiting is on", ErrInvalidConfig)
	case c.ReadTimeoutMS <= 0 || c.WriteTimeoutMS <= 0:
		return fmt.Errorf("%w: read/write timeouts must be positive", ErrInvalidConfig)
	}
	return nil
}
