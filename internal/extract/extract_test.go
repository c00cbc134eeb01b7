package extract

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestTextPlain(t *testing.T) {
	text, err := Text("notes.txt", []byte("  hello from a plain file  \n"))
	require.NoError(t, err)
	require.Equal(t, "hello from a plain file", text)
}

func TestTextPlainInvalidUTF8(t *testing.T) {
	_, err := Text("notes.txt", []byte{0xff, 0xfe, 0x00, 0x80})
	require.ErrorIs(t, err, ErrUnparseable)
}

func TestTextEmptyData(t *testing.T) {
	_, err := Text("anything.pdf", nil)
	require.ErrorIs(t, err, ErrNoText)
}

func TestTextDocx(t *testing.T) {
	doc := `<?xml version="1.0"?><w:document xmlns:w="ns"><w:body>` +
		`<w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p>` +
		`</w:body></w:document>`
	text, err := Text("brief.docx", buildDocx(t, doc))
	require.NoError(t, err)
	require.Equal(t, "First paragraph.\nSecond paragraph.", text)
}

func TestTextDocxNotAZip(t *testing.T) {
	_, err := Text("brief.docx", []byte("this is definitely not a zip archive"))
	require.ErrorIs(t, err, ErrUnparseable)
}

func TestTextDocxMissingDocument(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte("<styles/>"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = Text("brief.docx", buf.Bytes())
	require.ErrorIs(t, err, ErrUnparseable)
}

func TestTextDocxEmptyBody(t *testing.T) {
	doc := `<?xml version="1.0"?><w:document xmlns:w="ns"><w:body></w:body></w:document>`
	_, err := Text("brief.docx", buildDocx(t, doc))
	require.ErrorIs(t, err, ErrNoText)
}

func TestTextLegacyDocPrintableRuns(t *testing.T) {
	// Mostly printable content in long runs should survive the scan.
	payload := strings.Repeat("The parties agree to the following terms. ", 20)
	text, err := Text("old.doc", []byte(payload))
	require.NoError(t, err)
	require.Contains(t, text, "parties agree")
}

func TestTextLegacyDocOpaqueBinary(t *testing.T) {
	// A long printable run buried in a sea of binary is below the ratio
	// cutoff and the file is treated as opaque.
	data := append([]byte("A readable sentence fragment"), make([]byte, 4096)...)
	_, err := Text("old.doc", data)
	require.ErrorIs(t, err, ErrUnparseable)
}

func TestTextPdfGarbage(t *testing.T) {
	_, err := Text("scan.pdf", []byte("%PDF-1.4 truncated garbage"))
	require.ErrorIs(t, err, ErrUnparseable)
}
