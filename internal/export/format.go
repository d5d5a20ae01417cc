package export

import (
	"errors"
	"fmt"
)

// Format represents the export format type
type Format string

const (
	// FormatPDF is a US Letter PDF document
	FormatPDF Format = "pdf"
	// FormatDOCX is an Office Open XML word-processing document
	FormatDOCX Format = "docx"
	// FormatCSV is single-column CSV text
	FormatCSV Format = "csv"
)

// ErrUnsupportedFormat is returned for any format outside pdf, docx and csv
var ErrUnsupportedFormat = errors.New("unsupported type")

// Formats returns every supported format
func Formats() []Format {
	return []Format{FormatPDF, FormatDOCX, FormatCSV}
}

// ParseFormat validates s against the supported formats. Matching is exact.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatPDF, FormatDOCX, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// MIMEType returns the canonical content type for the format
func (f Format) MIMEType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatCSV:
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}

// Extension returns the file extension for the format, including the dot
func (f Format) Extension() string {
	switch f {
	case FormatPDF:
		return ".pdf"
	case FormatDOCX:
		return ".docx"
	case FormatCSV:
		return ".csv"
	default:
		return ".bin"
	}
}

// ExportResult represents the result of an export operation
type ExportResult struct {
	Format Format
	Data   []byte
}

// MIMEType returns the content type of the result
func (r *ExportResult) MIMEType() string {
	return r.Format.MIMEType()
}

// RenderError wraps a failure raised while producing a document
type RenderError struct {
	Format Format
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render %s: %v", e.Format, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
