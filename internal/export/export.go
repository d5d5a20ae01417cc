package export

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Exporter defines the interface for export implementations
type Exporter interface {
	Export(ctx context.Context, doc *Document) ([]byte, error)
	Format() Format
}

// Option configures exporters built by NewExporter
type Option func(*options)

type options struct {
	pdfCompress bool
	now         func() time.Time
}

// WithPDFCompression toggles stream compression in PDF output
func WithPDFCompression(enabled bool) Option {
	return func(o *options) {
		o.pdfCompress = enabled
	}
}

// WithClock sets the time source used for document metadata
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// NewExporter creates an exporter for the specified format
func NewExporter(format Format, opts ...Option) (Exporter, error) {
	o := options{pdfCompress: true, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	switch format {
	case FormatPDF:
		return NewPDFExporter(o.pdfCompress, o.now), nil
	case FormatDOCX:
		return NewDOCXExporter(), nil
	case FormatCSV:
		return NewCSVExporter(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Export renders doc in the specified format
func Export(ctx context.Context, doc *Document, format Format, opts ...Option) (*ExportResult, error) {
	exporter, err := NewExporter(format, opts...)
	if err != nil {
		return nil, err
	}

	data, err := exporter.Export(ctx, doc)
	if err != nil {
		return nil, &RenderError{Format: format, Err: err}
	}

	return &ExportResult{
		Format: format,
		Data:   data,
	}, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Filename derives a download file name from a document title
func Filename(title string, format Format) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if slug == "" {
		slug = "export"
	}
	if len(slug) > 64 {
		slug = strings.TrimRight(slug[:64], "-")
	}
	return slug + format.Extension()
}
