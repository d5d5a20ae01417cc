package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
)

// emptyRow keeps a blank line visible to CSV readers, which skip empty records
const emptyRow = "\"\"\r\n"

// CSVExporter writes each content line as a one-field CSV row
type CSVExporter struct{}

// NewCSVExporter creates a new CSV exporter
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Export ignores the title. Carriage returns are removed before splitting so
// both LF and CRLF input yield the same rows.
func (e *CSVExporter) Export(ctx context.Context, doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true

	for _, para := range doc.Paragraphs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.ReplaceAll(para, "\r", "")
		if line == "" {
			w.Flush()
			buf.WriteString(emptyRow)
			continue
		}
		if err := w.Write([]string{line}); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Format returns the format type
func (e *CSVExporter) Format() Format {
	return FormatCSV
}
