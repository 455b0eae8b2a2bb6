package parser

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cloo-solutions/papyrai/internal/domain"
)

func TestParseCSV(t *testing.T) {
	var b strings.Builder
	b.WriteString("name,amount,status,owner,notes\n")
	for i := 1; i <= 10; i++ {
		fmt.Fprintf(&b, "item%d,%d,open,team%d,note%d\n", i, i*100, i, i)
	}

	p := New()
	result, err := p.Parse("ledger.csv", domain.MimeClassCSV, []byte(b.String()))
	require.NoError(t, err)

	assert.Equal(t, "10 rows, 5 columns", result.Preview)
	assert.Equal(t, 10, result.Metadata.Rows)
	assert.Equal(t, 5, result.Metadata.Columns)
	// Headers preserved per row so chunks stay self-describing
	assert.Contains(t, result.Text, "Row 7: name: item7 | amount: 700")
	assert.Contains(t, result.Text, "Columns: name, amount, status, owner, notes")
}

func TestParseCSVRejectsBinary(t *testing.T) {
	p := New()
	_, err := p.Parse("bad.csv", domain.MimeClassCSV, []byte{0xff, 0xfe, 0x00, 0x01})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCorruptInput))
}

func TestParseTextFallback(t *testing.T) {
	p := NewWithFallbackLimit(10)
	result, err := p.Parse("notes.txt", domain.MimeClassText, []byte("hello world, this is longer than ten bytes"))
	require.NoError(t, err)
	assert.Equal(t, "hello worl", result.Text)

	// Multibyte rune truncated by the limit is dropped, not mangled
	result, err = p.Parse("notes.txt", domain.MimeClassText, []byte("abcdefghié"))
	require.NoError(t, err)
	assert.Equal(t, "abcdefghi", result.Text)
}

func TestParseTextRejectsBinaryGarbage(t *testing.T) {
	p := New()
	_, err := p.Parse("blob.txt", domain.MimeClassText, []byte{0x89, 0x50, 0x4e, 0x47, 0x00, 0x1a})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCorruptInput))
}

func TestParseUnsupportedFormat(t *testing.T) {
	p := New()
	_, err := p.Parse("img.gif", domain.MimeClassUnknown, []byte("GIF89a"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnsupportedFormat))
}

func TestParseEmptyPayload(t *testing.T) {
	p := New()
	_, err := p.Parse("empty.txt", domain.MimeClassText, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmptyPayload))
}

func TestParsePDFCorrupt(t *testing.T) {
	p := New()
	_, err := p.Parse("bad.pdf", domain.MimeClassPDF, []byte("%PDF-1.7 truncated garbage"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCorruptInput))
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "city"))
	require.NoError(t, f.SetCellValue(sheet, "B1", "population"))
	require.NoError(t, f.SetCellValue(sheet, "A2", "Lisbon"))
	require.NoError(t, f.SetCellValue(sheet, "B2", 545000))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	p := New()
	result, err := p.Parse("cities.xlsx", domain.MimeClassXLSX, buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, "1 sheets extracted", result.Preview)
	assert.Contains(t, result.Text, "Columns: city, population")
	assert.Contains(t, result.Text, "city: Lisbon")
}

func TestParseXLSXCorrupt(t *testing.T) {
	p := New()
	_, err := p.Parse("bad.xlsx", domain.MimeClassXLSX, []byte("not a zip"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCorruptInput))
}

func TestParseDOCX(t *testing.T) {
	const documentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>cell one</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>cell two</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
  </w:body>
</w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	p := New()
	result, err := p.Parse("memo.docx", domain.MimeClassDOCX, buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, "2 paragraphs, 1 tables", result.Preview)
	assert.Contains(t, result.Text, "First paragraph.")
	assert.Contains(t, result.Text, "cell one | cell two")
}

func TestParseDOCXCorrupt(t *testing.T) {
	p := New()
	_, err := p.Parse("bad.docx", domain.MimeClassDOCX, []byte("not a zip"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCorruptInput))
}
