package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/custodia-labs/redline-cli/internal/adapters/driven/host/memdoc"
	"github.com/custodia-labs/redline-cli/internal/core/ports/driven"
)

// Ensure Document implements the interface.
var _ driven.DocumentHost = (*Document)(nil)

const documentPart = "word/document.xml"

// zipPart is one package part, kept verbatim so Save can write back the
// whole archive rather than a minimal reconstruction.
type zipPart struct {
	name string
	data []byte
}

// span is a half-open byte range in the original document.xml.
type span struct {
	start, end int
}

// Document is a DocumentHost over a .docx file. Text operations run against
// the flattened body text; Save splices the edits back into the original
// OOXML package.
type Document struct {
	*memdoc.Document

	path      string
	parts     []zipPart
	rawDoc    []byte
	paraSpans []span
	original  string
}

// Open reads a .docx file and flattens its body into a document host.
// Text inside existing deletion revisions is excluded. Every package part
// is retained so Save preserves styles, numbering, headers and media.
func Open(path string, opts ...memdoc.Option) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}

	d := &Document{path: path}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		d.parts = append(d.parts, zipPart{name: f.Name, data: content})
		if f.Name == documentPart {
			d.rawDoc = content
		}
	}
	if d.rawDoc == nil {
		return nil, fmt.Errorf("open docx: %s missing %s", path, documentPart)
	}

	text, spans, err := extractText(d.rawDoc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", documentPart, err)
	}
	d.original = text
	d.paraSpans = spans
	d.Document = memdoc.New(text, opts...)
	return d, nil
}

// Path returns the file the document was opened from.
func (d *Document) Path() string {
	return d.path
}

// Save writes the document to path as a .docx. All parts of the opened
// package are carried over unchanged except word/document.xml, which gets
// tracked edits rendered as revisions and manual markup as run formatting.
func (d *Document) Save(path string) error {
	docXML := d.documentXML()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, part := range d.parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return fmt.Errorf("create %s: %w", part.name, err)
		}
		content := part.data
		if part.name == documentPart {
			content = []byte(docXML)
		}
		if _, err := w.Write(content); err != nil {
			return fmt.Errorf("write %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalise docx: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("save docx: %w", err)
	}
	return nil
}

// extractText flattens the document body to plain text, one paragraph per
// line, and records the byte span of each w:p element so Save can put
// untouched paragraphs back verbatim. Deleted revision text is skipped so
// the engine only ever sees the accepted state of the document.
func extractText(raw []byte) (string, []span, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))

	var paragraphs []string
	var spans []span
	var current strings.Builder
	inParagraph := false
	inText := false
	delDepth := 0
	pStart := 0

	for {
		off := int(dec.InputOffset())
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inParagraph = true
				current.Reset()
				pStart = off
			case "t":
				inText = true
			case "del":
				delDepth++
			case "tab":
				if inParagraph && delDepth == 0 {
					current.WriteByte('\t')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if inParagraph {
					paragraphs = append(paragraphs, current.String())
					spans = append(spans, span{pStart, int(dec.InputOffset())})
					inParagraph = false
				}
			case "t":
				inText = false
			case "del":
				delDepth--
			}
		case xml.CharData:
			if inParagraph && inText && delDepth == 0 {
				current.Write(t)
			}
		}
	}

	return strings.Join(paragraphs, "\n"), spans, nil
}
