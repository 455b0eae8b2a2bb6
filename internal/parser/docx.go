package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloo-solutions/papyrai/internal/domain"
)

// parseDOCX extracts paragraph and table text in reading order from the
// WordprocessingML body (word/document.xml inside the docx zip).
func parseDOCX(filename string, data []byte) (*Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInput,
			"docx is not a valid zip archive", domain.ErrCorruptInput)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			body = f
			break
		}
	}
	if body == nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInput,
			"docx has no document body", domain.ErrCorruptInput)
	}

	rc, err := body.Open()
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInput,
			"cannot read docx body", domain.ErrCorruptInput)
	}
	defer rc.Close()

	var (
		b          strings.Builder
		paragraph  strings.Builder
		row        []string
		paragraphs int
		tables     int
		tableDepth int
	)

	fmt.Fprintf(&b, "Word Document: %s\n\n", filename)

	flushParagraph := func() {
		text := strings.TrimSpace(paragraph.String())
		paragraph.Reset()
		if text == "" {
			return
		}
		if tableDepth > 0 {
			row = append(row, text)
			return
		}
		b.WriteString(text)
		b.WriteString("\n")
		paragraphs++
	}

	decoder := xml.NewDecoder(rc)
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInput,
				"malformed docx body xml", domain.ErrCorruptInput)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				if tableDepth == 0 {
					tables++
					fmt.Fprintf(&b, "--- Table %d ---\n", tables)
				}
				tableDepth++
			case "t":
				var text string
				if err := decoder.DecodeElement(&text, &t); err == nil {
					paragraph.WriteString(text)
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				flushParagraph()
			case "tr":
				if len(row) > 0 {
					b.WriteString(strings.Join(row, " | "))
					b.WriteString("\n")
					row = nil
				}
			case "tbl":
				tableDepth--
			}
		}
	}

	return &Result{
		Text:     b.String(),
		Preview:  fmt.Sprintf("%d paragraphs, %d tables", paragraphs, tables),
		Metadata: Metadata{Paragraphs: paragraphs, Tables: tables},
	}, nil
}
