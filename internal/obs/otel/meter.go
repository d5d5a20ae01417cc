package otel

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/solace-dev/export-worker/internal/config"
	"github.com/solace-dev/export-worker/internal/obs/exporter"
)

// ScopeName is the instrumentation scope of every export-worker instrument.
const ScopeName = "export-worker"

// MeterSetup holds the meter provider and export recorder.
type MeterSetup struct {
	meterProvider *sdkmetric.MeterProvider
	recorder      *ExportRecorder
}

// NewMeterSetup creates a new meter setup from cfg. When metrics are
// disabled the recorder writes to a no-op meter and nothing is exported.
func NewMeterSetup(ctx context.Context, cfg *Config) (*MeterSetup, error) {
	if !cfg.Enabled {
		recorder, err := NewExportRecorder(noop.NewMeterProvider().Meter(ScopeName))
		if err != nil {
			return nil, err
		}
		return &MeterSetup{recorder: recorder}, nil
	}

	exporters, err := buildExporters(ctx, cfg)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(
		exporter.NewMultiExporter(exporters...),
		sdkmetric.WithInterval(cfg.ExportInterval),
		sdkmetric.WithTimeout(cfg.ExportTimeout),
	)

	ms, err := NewMeterSetupWithReader(ctx, reader)
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(ms.meterProvider)
	return ms, nil
}

// NewMeterSetupWithReader builds a meter setup around an existing reader.
func NewMeterSetupWithReader(ctx context.Context, reader sdkmetric.Reader) (*MeterSetup, error) {
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(resource.NewSchemaless(
			attribute.String("service.name", ScopeName),
		)),
	)

	recorder, err := NewExportRecorder(meterProvider.Meter(ScopeName))
	if err != nil {
		_ = meterProvider.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create export recorder: %w", err)
	}

	return &MeterSetup{
		meterProvider: meterProvider,
		recorder:      recorder,
	}, nil
}

func buildExporters(ctx context.Context, cfg *Config) ([]exporter.Named, error) {
	var exporters []exporter.Named
	for _, name := range cfg.Exporters {
		switch name {
		case config.ExporterStdout:
			w := cfg.Stdout
			if w == nil {
				w = os.Stdout
			}
			exp, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
			if err != nil {
				return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
			}
			exporters = append(exporters, exporter.Named{Name: name, Exporter: exp})
		case config.ExporterOTLP:
			exp, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(cfg.OTLPEndpoint))
			if err != nil {
				return nil, fmt.Errorf("failed to create otlp exporter: %w", err)
			}
			exporters = append(exporters, exporter.Named{Name: name, Exporter: exp})
		default:
			return nil, fmt.Errorf("unknown metrics exporter %q", name)
		}
	}
	if len(exporters) == 0 {
		return nil, fmt.Errorf("metrics enabled but no exporter configured")
	}
	return exporters, nil
}

// Recorder returns the export recorder.
func (ms *MeterSetup) Recorder() *ExportRecorder {
	return ms.recorder
}

// Shutdown flushes pending metrics and shuts down the meter provider.
func (ms *MeterSetup) Shutdown(ctx context.Context) error {
	if ms.meterProvider == nil {
		return nil
	}
	return ms.meterProvider.Shutdown(ctx)
}
