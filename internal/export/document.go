package export

import "strings"

// DefaultTitle is the heading used when a request carries no title
const DefaultTitle = "Solace Export"

// Document is the format-neutral content handed to every exporter
type Document struct {
	Title      string
	Paragraphs []string
}

// NewDocument splits content into one paragraph per line. Blank lines are
// kept as empty paragraphs and a trailing carriage return is dropped from
// each line.
func NewDocument(title, content string) *Document {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return &Document{
		Title:      title,
		Paragraphs: lines,
	}
}
