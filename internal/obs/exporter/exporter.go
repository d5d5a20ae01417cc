// Package exporter holds metric exporters shared by the meter setup.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Named is a metric exporter tagged with its configured name ("stdout", "otlp").
type Named struct {
	Name string
	metric.Exporter
}

// MultiExporter fans one collection out to the configured metric exporters.
// A failing exporter does not stop the others. Failures are logged once per
// streak, and the exporter's recovery is logged when it next succeeds.
type MultiExporter struct {
	mu        sync.Mutex
	exporters []Named
	failing   map[string]int
}

// NewMultiExporter creates a new MultiExporter with the provided exporters.
func NewMultiExporter(exporters ...Named) *MultiExporter {
	return &MultiExporter{
		exporters: exporters,
		failing:   make(map[string]int, len(exporters)),
	}
}

// Names lists the exporters in fan-out order.
func (m *MultiExporter) Names() []string {
	names := make([]string, len(m.exporters))
	for i, e := range m.exporters {
		names[i] = e.Name
	}
	return names
}

// Failures reports how many consecutive exports name has failed.
func (m *MultiExporter) Failures(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failing[name]
}

// Temporality reports cumulative temporality for every instrument kind.
func (m *MultiExporter) Temporality(kind metric.InstrumentKind) metricdata.Temporality {
	return metricdata.CumulativeTemporality
}

// Aggregation returns the SDK default aggregation for kind.
func (m *MultiExporter) Aggregation(kind metric.InstrumentKind) metric.Aggregation {
	return metric.DefaultAggregationSelector(kind)
}

// Export sends res to every exporter. The returned error joins each
// failure prefixed with the exporter name.
func (m *MultiExporter) Export(ctx context.Context, res *metricdata.ResourceMetrics) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, e := range m.exporters {
		err := e.Export(ctx, res)
		log := logrus.WithField("exporter", e.Name)
		if err == nil {
			if n := m.failing[e.Name]; n > 0 {
				log.Infof("metric export recovered after %d failed attempts", n)
				delete(m.failing, e.Name)
			}
			continue
		}

		m.failing[e.Name]++
		if m.failing[e.Name] == 1 {
			log.WithError(err).Warn("metric export failed")
		} else {
			log.WithError(err).Debugf("metric export still failing (%d attempts)", m.failing[e.Name])
		}
		errs = append(errs, fmt.Errorf("%s exporter: %w", e.Name, err))
	}
	return errors.Join(errs...)
}

// ForceFlush flushes every exporter.
func (m *MultiExporter) ForceFlush(ctx context.Context) error {
	return m.each(func(e Named) error { return e.ForceFlush(ctx) })
}

// Shutdown shuts down every exporter.
func (m *MultiExporter) Shutdown(ctx context.Context) error {
	return m.each(func(e Named) error { return e.Shutdown(ctx) })
}

func (m *MultiExporter) each(fn func(Named) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, e := range m.exporters {
		if err := fn(e); err != nil {
			errs = append(errs, fmt.Errorf("%s exporter: %w", e.Name, err))
		}
	}
	return errors.Join(errs...)
}
