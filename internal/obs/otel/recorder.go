package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RequestOptions describes one handled export request.
type RequestOptions struct {
	// Format is the export format, FormatUnknown when not resolved
	Format string

	// Status is one of the Status* constants
	Status string

	// RenderDuration is the time spent inside the exporter; zero if it never ran
	RenderDuration time.Duration

	// Size is the rendered document size in bytes; zero on failure
	Size int
}

// ExportRecorder records export request metrics.
type ExportRecorder struct {
	requestCount   metric.Int64Counter
	renderDuration metric.Float64Histogram
	documentSize   metric.Int64Histogram
}

// NewExportRecorder creates the export instruments on meter.
func NewExportRecorder(meter metric.Meter) (*ExportRecorder, error) {
	r := &ExportRecorder{}

	var err error
	r.requestCount, err = meter.Int64Counter(
		"export.request.count",
		metric.WithDescription("Number of export requests by format and outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	r.renderDuration, err = meter.Float64Histogram(
		"export.render.duration",
		metric.WithDescription("Document rendering time in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	r.documentSize, err = meter.Int64Histogram(
		"export.document.size",
		metric.WithDescription("Rendered document size"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return r, nil
}

// RecordRequest records one request. Render metrics are only recorded when
// the exporter ran.
func (r *ExportRecorder) RecordRequest(ctx context.Context, opts RequestOptions) {
	format := opts.Format
	if format == "" {
		format = FormatUnknown
	}
	attrs := metric.WithAttributes(
		AttrExportFormat.String(format),
		AttrExportStatus.String(opts.Status),
	)

	r.requestCount.Add(ctx, 1, attrs)

	if opts.RenderDuration > 0 {
		ms := float64(opts.RenderDuration) / float64(time.Millisecond)
		r.renderDuration.Record(ctx, ms, attrs)
	}
	if opts.Status == StatusSuccess {
		r.documentSize.Record(ctx, int64(opts.Size), metric.WithAttributes(AttrExportFormat.String(format)))
	}
}
