package export

import (
	"bytes"
	"context"
)

const (
	docxHeadingStyle = "Heading1"
	// half-points
	docxHeadingSize = "32"
)

// DOCXExporter renders documents as Office Open XML word-processing files
type DOCXExporter struct{}

// NewDOCXExporter creates a new DOCX exporter
func NewDOCXExporter() *DOCXExporter {
	return &DOCXExporter{}
}

// Export adds a level-1 heading with the title and one paragraph per line
func (e *DOCXExporter) Export(ctx context.Context, doc *Document) ([]byte, error) {
	w, err := newHeadingDocx()
	if err != nil {
		return nil, err
	}

	w.AddParagraph().Style(docxHeadingStyle).AddText(doc.Title).Bold().Size(docxHeadingSize)

	for _, para := range doc.Paragraphs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := w.AddParagraph()
		if para != "" {
			p.AddText(para)
		}
	}

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Format returns the format type
func (e *DOCXExporter) Format() Format {
	return FormatDOCX
}
