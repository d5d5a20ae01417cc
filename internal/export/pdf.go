package export

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

const (
	pdfMargin         = 20.0 // mm
	pdfFont           = "Helvetica"
	pdfHeadingSize    = 18.0
	pdfHeadingLine    = 9.0
	pdfBodySize       = 11.0
	pdfBodyLine       = 5.5
	pdfParagraphSpace = 1.5
)

// PDFExporter renders documents as US Letter PDFs using the core Helvetica font
type PDFExporter struct {
	compress bool
	now      func() time.Time
}

// NewPDFExporter creates a new PDF exporter
func NewPDFExporter(compress bool, now func() time.Time) *PDFExporter {
	if now == nil {
		now = time.Now
	}
	return &PDFExporter{
		compress: compress,
		now:      now,
	}
}

// Export draws the title as a bold heading followed by one paragraph per line
func (e *PDFExporter) Export(ctx context.Context, doc *Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetCompression(e.compress)
	created := e.now()
	pdf.SetCreationDate(created)
	pdf.SetModificationDate(created)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("export-worker", false)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.AddPage()

	// Cell text is drawn literally, so markup in the title needs no escaping.
	pdf.SetFont(pdfFont, "B", pdfHeadingSize)
	pdf.MultiCell(0, pdfHeadingLine, winAnsi(doc.Title), "", "L", false)
	pdf.Ln(pdfBodyLine)

	pdf.SetFont(pdfFont, "", pdfBodySize)
	for _, para := range doc.Paragraphs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if para == "" {
			pdf.Ln(pdfBodyLine)
			continue
		}
		pdf.MultiCell(0, pdfBodyLine, winAnsi(para), "", "L", false)
		pdf.Ln(pdfParagraphSpace)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Format returns the format type
func (e *PDFExporter) Format() Format {
	return FormatPDF
}

// winAnsi maps text onto the Windows-1252 code page used by the core fonts.
// Composed forms are preferred and anything outside the code page becomes '?'.
func winAnsi(s string) string {
	s = norm.NFC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if c, ok := charmap.Windows1252.EncodeRune(r); ok {
			b.WriteByte(c)
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}
