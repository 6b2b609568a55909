package docx

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/redline-cli/internal/adapters/driven/host/memdoc"
	"github.com/custodia-labs/redline-cli/internal/core/domain"
)

// writeTestDocx creates a minimal .docx on disk with the given document.xml
// body content.
func writeTestDocx(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(
		`<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return path
}

func TestOpenFlattensParagraphs(t *testing.T) {
	path := writeTestDocx(t,
		`<w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>`)

	doc, err := Open(path)
	require.NoError(t, err)

	assert.Equal(t, "First paragraph.\nSecond paragraph.", doc.Contents())
}

func TestOpenSkipsDeletedText(t *testing.T) {
	path := writeTestDocx(t,
		`<w:p><w:r><w:t>kept </w:t></w:r>`+
			`<w:del w:id="1" w:author="a" w:date="d"><w:r><w:delText>gone </w:delText></w:r></w:del>`+
			`<w:r><w:t>also kept</w:t></w:r></w:p>`)

	doc, err := Open(path)
	require.NoError(t, err)

	assert.Equal(t, "kept also kept", doc.Contents())
}

func TestOpenMissingDocumentPart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = Open(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := writeTestDocx(t,
		`<w:p><w:r><w:t>Payment is due within 30 days.</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>English law applies.</w:t></w:r></w:p>`)

	doc, err := Open(path)
	require.NoError(t, err)
	ctx := context.Background()

	ranges, err := doc.Search(ctx, "30 days", domain.FindOptions{})
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	_, err = doc.Replace(ctx, ranges[0], "45 days")
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out.docx")
	require.NoError(t, doc.Save(out))

	reopened, err := Open(out)
	require.NoError(t, err)
	assert.Equal(t, "Payment is due within 45 days.\nEnglish law applies.", reopened.Contents())
}

func TestSaveRendersTrackedRevisions(t *testing.T) {
	path := writeTestDocx(t,
		`<w:p><w:r><w:t>Payment is due within 30 days.</w:t></w:r></w:p>`)

	doc, err := Open(path)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, doc.SetTracking(ctx, true))
	ranges, err := doc.Search(ctx, "30 days", domain.FindOptions{})
	require.NoError(t, err)
	_, err = doc.Replace(ctx, ranges[0], "45 days")
	require.NoError(t, err)

	docXML := doc.documentXML()
	assert.Contains(t, docXML, "<w:ins ")
	assert.Contains(t, docXML, `<w:delText xml:space="preserve">30 days</w:delText>`)
	assert.Contains(t, docXML, ">45 days</w:t>")

	// A reopened copy sees the accepted state only.
	out := filepath.Join(t.TempDir(), "tracked.docx")
	require.NoError(t, doc.Save(out))
	reopened, err := Open(out)
	require.NoError(t, err)
	assert.Equal(t, "Payment is due within 45 days.", reopened.Contents())
}

func TestSaveRendersManualMarkup(t *testing.T) {
	path := writeTestDocx(t,
		`<w:p><w:r><w:t>flag this phrase please</w:t></w:r></w:p>`)

	doc, err := Open(path, memdoc.WithoutTracking())
	require.NoError(t, err)
	ctx := context.Background()

	ranges, err := doc.Search(ctx, "this phrase", domain.FindOptions{})
	require.NoError(t, err)
	require.NoError(t, doc.Mark(ctx, ranges[0], domain.Markup{Underline: true, Color: "#C0392B"}))

	docXML := doc.documentXML()
	assert.Contains(t, docXML, `<w:u w:val="single"/>`)
	assert.Contains(t, docXML, `<w:color w:val="C0392B"/>`)
	assert.True(t, strings.Contains(docXML, ">this phrase</w:t>"))
}

// readZipPart returns the named part of the archive at path.
func readZipPart(t *testing.T, path, name string) string {
	t.Helper()

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(data)
	}
	t.Fatalf("part %s not found in %s", name, path)
	return ""
}

func TestSavePreservesPackageParts(t *testing.T) {
	const stylesXML = `<?xml version="1.0"?><w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:style w:type="paragraph" w:styleId="Heading1"/></w:styles>`
	const docXML = `<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:rPr><w:b/></w:rPr><w:t>1. TERM</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Payment is due within 30 days.</w:t></w:r></w:p>` +
		`</w:body></w:document>`

	path := filepath.Join(t.TempDir(), "styled.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, part := range []struct{ name, data string }{
		{"word/document.xml", docXML},
		{"word/styles.xml", stylesXML},
	} {
		w, err := zw.Create(part.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(part.data))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	doc, err := Open(path)
	require.NoError(t, err)
	ctx := context.Background()

	ranges, err := doc.Search(ctx, "30 days", domain.FindOptions{})
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	_, err = doc.Replace(ctx, ranges[0], "45 days")
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out.docx")
	require.NoError(t, doc.Save(out))

	// Sibling parts survive byte for byte.
	assert.Equal(t, stylesXML, readZipPart(t, out, "word/styles.xml"))

	// The untouched heading paragraph keeps its run and paragraph
	// formatting; only the edited paragraph is re-rendered.
	saved := readZipPart(t, out, "word/document.xml")
	assert.Contains(t, saved, `<w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:rPr><w:b/></w:rPr><w:t>1. TERM</w:t></w:r>`)
	assert.Contains(t, saved, "45 days")
	assert.NotContains(t, saved, "30 days")

	reopened, err := Open(out)
	require.NoError(t, err)
	assert.Equal(t, "1. TERM\nPayment is due within 45 days.", reopened.Contents())
}

func TestSaveKeepsPropertiesOfEditedParagraph(t *testing.T) {
	path := writeTestDocx(t,
		`<w:p><w:pPr><w:pStyle w:val="BodyText"/></w:pPr><w:r><w:t>Payment is due within 30 days.</w:t></w:r></w:p>`)

	doc, err := Open(path)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, doc.SetTracking(ctx, true))
	ranges, err := doc.Search(ctx, "30 days", domain.FindOptions{})
	require.NoError(t, err)
	_, err = doc.Replace(ctx, ranges[0], "45 days")
	require.NoError(t, err)

	docXML := doc.documentXML()
	assert.Contains(t, docXML, `<w:p><w:pPr><w:pStyle w:val="BodyText"/></w:pPr>`)
	assert.Contains(t, docXML, "<w:ins ")
}

func TestSaveUnchangedDocumentIsVerbatim(t *testing.T) {
	path := writeTestDocx(t,
		`<w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p>`)

	doc, err := Open(path)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "copy.docx")
	require.NoError(t, doc.Save(out))
	assert.Equal(t, readZipPart(t, path, documentPart), readZipPart(t, out, documentPart))
}
