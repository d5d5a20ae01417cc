// Package config loads the export-worker configuration once at start-up.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "EXPORT_WORKER_"

const (
	DefaultHost           = "0.0.0.0"
	DefaultPort           = 18090
	DefaultMaxBodyBytes   = 1 << 20
	DefaultRenderTimeout  = 10 * time.Second
	DefaultErrorLogFilter = "StatusCode >= 500"
	DefaultMetricsPeriod  = 60 * time.Second
)

// Metrics exporters
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Config holds the configuration for export-worker
type Config struct {
	Host           string        `yaml:"host" env:"HOST"`
	Port           int           `yaml:"port" env:"PORT"`
	AuthToken      string        `yaml:"auth_token" env:"AUTH_TOKEN"` // shared bearer secret, never logged
	MaxBodyBytes   int64         `yaml:"max_body_bytes" env:"MAX_BODY_BYTES"`
	RenderTimeout  time.Duration `yaml:"render_timeout" env:"RENDER_TIMEOUT"`
	PDFCompress    bool          `yaml:"pdf_compress" env:"PDF_COMPRESS"`
	Debug          bool          `yaml:"debug" env:"DEBUG"`
	LogFile        string        `yaml:"log_file" env:"LOG_FILE"`
	ErrorLogFile   string        `yaml:"error_log_file" env:"ERROR_LOG_FILE"`
	ErrorLogFilter string        `yaml:"error_log_filter" env:"ERROR_LOG_FILTER"`

	RateLimit RateLimitConfig `yaml:"rate_limit" envPrefix:"RATE_LIMIT_"`
	Metrics   MetricsConfig   `yaml:"metrics" envPrefix:"METRICS_"`
}

// RateLimitConfig bounds requests per client IP
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" env:"ENABLED"`
	RPS     float64 `yaml:"rps" env:"RPS"`
	Burst   int     `yaml:"burst" env:"BURST"`
}

// MetricsConfig selects the OpenTelemetry metrics exporter
type MetricsConfig struct {
	Enabled      bool          `yaml:"enabled" env:"ENABLED"`
	Exporters    []string      `yaml:"exporters" env:"EXPORTERS" envSeparator:","`
	OTLPEndpoint string        `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	Interval     time.Duration `yaml:"interval" env:"INTERVAL"`
}

// Default returns the configuration used before any file or environment is applied.
func Default() *Config {
	return &Config{
		Host:           DefaultHost,
		Port:           DefaultPort,
		MaxBodyBytes:   DefaultMaxBodyBytes,
		RenderTimeout:  DefaultRenderTimeout,
		PDFCompress:    true,
		ErrorLogFilter: DefaultErrorLogFilter,
		RateLimit: RateLimitConfig{
			RPS:   10,
			Burst: 20,
		},
		Metrics: MetricsConfig{
			Exporters: []string{ExporterStdout},
			Interval:  DefaultMetricsPeriod,
		},
	}
}

// Override mutates a loaded configuration, typically from command-line flags.
type Override func(*Config)

// Load builds the configuration from defaults, the optional YAML file at path,
// EXPORT_WORKER_* environment variables and finally the overrides, then
// validates the result.
func Load(path string, overrides ...Override) (*Config, error) {
	return load(path, nil, overrides...)
}

// load is Load with an explicit environment; a nil environ means the process environment.
func load(path string, environ map[string]string, overrides ...Override) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	for _, o := range overrides {
		o(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field and returns the first *ConfigError found.
func (c *Config) Validate() error {
	if c.AuthToken == "" {
		return &ConfigError{
			Field:   "auth_token",
			Message: "must be set (environment variable " + EnvPrefix + "AUTH_TOKEN)",
		}
	}
	if c.Port <= 0 || c.Port > 65535 {
		return &ConfigError{
			Field:   "port",
			Message: "must be a valid port number (1-65535)",
		}
	}
	if c.MaxBodyBytes <= 0 {
		return &ConfigError{
			Field:   "max_body_bytes",
			Message: "must be a positive number of bytes",
		}
	}
	if c.RenderTimeout <= 0 {
		return &ConfigError{
			Field:   "render_timeout",
			Message: "must be a positive duration (e.g., 10s, 1m)",
		}
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.RPS <= 0 {
			return &ConfigError{Field: "rate_limit.rps", Message: "must be greater than zero"}
		}
		if c.RateLimit.Burst < 1 {
			return &ConfigError{Field: "rate_limit.burst", Message: "must be at least 1"}
		}
	}
	if c.Metrics.Enabled {
		if len(c.Metrics.Exporters) == 0 {
			return &ConfigError{Field: "metrics.exporters", Message: "must name at least one exporter"}
		}
		for _, name := range c.Metrics.Exporters {
			switch name {
			case ExporterStdout:
			case ExporterOTLP:
				if c.Metrics.OTLPEndpoint == "" {
					return &ConfigError{Field: "metrics.otlp_endpoint", Message: "must be set for the otlp exporter"}
				}
			default:
				return &ConfigError{Field: "metrics.exporters", Message: "unknown exporter " + strconv.Quote(name) + " (want stdout, otlp)"}
			}
		}
		if c.Metrics.Interval <= 0 {
			return &ConfigError{Field: "metrics.interval", Message: "must be a positive duration"}
		}
	}
	return nil
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// String summarises the configuration for logging. The auth token is masked.
func (c *Config) String() string {
	return fmt.Sprintf("addr=%s, auth_token=%s, max_body_bytes=%d, render_timeout=%v, pdf_compress=%v, rate_limit=%v, metrics=%v",
		c.Addr(), maskSecret(c.AuthToken), c.MaxBodyBytes, c.RenderTimeout, c.PDFCompress, c.RateLimit.Enabled, c.Metrics.Enabled)
}

func maskSecret(s string) string {
	if s == "" {
		return "<unset>"
	}
	return "<redacted>"
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "invalid configuration for '" + e.Field + "': " + e.Message
}

// IsConfigError reports whether err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
