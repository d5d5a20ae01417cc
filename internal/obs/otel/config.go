package otel

import (
	"io"
	"time"

	"github.com/solace-dev/export-worker/internal/config"
)

// Config holds the configuration for the OTel meter setup.
type Config struct {
	// Enabled enables or disables metrics; when false a no-op meter is used
	Enabled bool

	// Exporters lists the exporters to fan out to ("stdout", "otlp")
	Exporters []string

	// OTLPEndpoint is the full OTLP/HTTP metrics URL, required for "otlp"
	OTLPEndpoint string

	// ExportInterval is the time between exports. Default: 60s
	ExportInterval time.Duration

	// ExportTimeout is the timeout for each export. Default: 30s
	ExportTimeout time.Duration

	// Stdout receives the stdout exporter output. Default: os.Stdout
	Stdout io.Writer
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Enabled:        false,
		Exporters:      []string{config.ExporterStdout},
		ExportInterval: config.DefaultMetricsPeriod,
		ExportTimeout:  30 * time.Second,
	}
}
