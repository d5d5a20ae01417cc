package export

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"sync"

	"github.com/fumiama/go-docx"
)

const (
	docxTemplate   = "default"
	docxStylesPath = "xml/" + docxTemplate + "/word/styles.xml"
	docxStylesEnd  = "</w:styles>"
)

// docxHeadingStyleXML defines the style referenced by the title paragraph.
// The embedded default theme ships only Normal and table styles.
var docxHeadingStyleXML = `<w:style w:type="paragraph" w:styleId="` + docxHeadingStyle + `">` +
	`<w:name w:val="heading 1"/>` +
	`<w:basedOn w:val="a"/>` +
	`<w:next w:val="a"/>` +
	`<w:uiPriority w:val="9"/>` +
	`<w:qFormat/>` +
	`<w:pPr><w:keepNext/><w:keepLines/><w:spacing w:before="240" w:after="120"/><w:outlineLvl w:val="0"/></w:pPr>` +
	`<w:rPr><w:b/><w:bCs/><w:sz w:val="` + docxHeadingSize + `"/><w:szCs w:val="` + docxHeadingSize + `"/></w:rPr>` +
	`</w:style>`

// docxStyles is the default theme's styles.xml with the heading style appended
var docxStyles = sync.OnceValues(func() ([]byte, error) {
	raw, err := fs.ReadFile(docx.TemplateXMLFS, docxStylesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read docx styles: %w", err)
	}
	end := bytes.LastIndex(raw, []byte(docxStylesEnd))
	if end < 0 {
		return nil, fmt.Errorf("docx styles: missing %s", docxStylesEnd)
	}

	patched := make([]byte, 0, len(raw)+len(docxHeadingStyleXML))
	patched = append(patched, raw[:end]...)
	patched = append(patched, docxHeadingStyleXML...)
	patched = append(patched, raw[end:]...)
	return patched, nil
})

// headingThemeFS serves the embedded default theme with styles.xml replaced
type headingThemeFS struct {
	styles []byte
}

func (t headingThemeFS) Open(name string) (fs.File, error) {
	f, err := docx.TemplateXMLFS.Open(name)
	if err != nil || name != docxStylesPath {
		return f, err
	}
	return &overlayFile{File: f, r: bytes.NewReader(t.styles)}, nil
}

// overlayFile keeps the embedded file's Stat and Close but reads from r
type overlayFile struct {
	fs.File
	r io.Reader
}

func (f *overlayFile) Read(p []byte) (int, error) {
	return f.r.Read(p)
}

// newHeadingDocx returns a document on the default theme that defines docxHeadingStyle
func newHeadingDocx() (*docx.Docx, error) {
	styles, err := docxStyles()
	if err != nil {
		return nil, err
	}
	return docx.New().UseTemplate(docxTemplate, docx.DefaultTemplateFilesList, headingThemeFS{styles: styles}), nil
}
