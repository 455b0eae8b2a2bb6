// Package parser converts uploaded file bytes into normalized text suitable
// for chunking and embedding.
package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cloo-solutions/papyrai/internal/domain"
)

const (
	// DefaultTextFallbackBytes bounds the raw-decode fallback for plain text
	DefaultTextFallbackBytes = 1000
)

// Metadata carries per-format structural counts used for previews.
type Metadata struct {
	Pages      int
	Rows       int
	Columns    int
	Sheets     []string
	Paragraphs int
	Tables     int
}

// Result is the outcome of parsing one file.
type Result struct {
	Text     string
	Preview  string
	Metadata Metadata
}

// Parser dispatches file bytes to a per-format extractor.
type Parser struct {
	textFallbackBytes int
}

// New creates a Parser with default settings.
func New() *Parser {
	return &Parser{textFallbackBytes: DefaultTextFallbackBytes}
}

// NewWithFallbackLimit creates a Parser with an explicit text fallback limit.
func NewWithFallbackLimit(limit int) *Parser {
	if limit <= 0 {
		limit = DefaultTextFallbackBytes
	}
	return &Parser{textFallbackBytes: limit}
}

// Parse extracts normalized text and a deterministic preview from raw bytes.
// Returns ErrUnsupportedFormat for unrecognized mime classes and
// ErrCorruptInput when the bytes cannot be decoded per the declared format.
func (p *Parser) Parse(filename string, mime domain.MimeClass, data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, domain.ErrEmptyPayload
	}

	switch mime {
	case domain.MimeClassPDF:
		return parsePDF(data)
	case domain.MimeClassCSV:
		return parseCSV(filename, data)
	case domain.MimeClassXLSX:
		return parseXLSX(filename, data)
	case domain.MimeClassDOCX:
		return parseDOCX(filename, data)
	case domain.MimeClassText:
		return p.parseText(data)
	default:
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInput,
			"unsupported file format: "+string(mime), domain.ErrUnsupportedFormat)
	}
}

// parseText decodes the first N bytes as UTF-8. Binary garbage is rejected
// rather than emitted as mojibake.
func (p *Parser) parseText(data []byte) (*Result, error) {
	limit := p.textFallbackBytes
	if limit > len(data) {
		limit = len(data)
	}
	head := data[:limit]

	// Tolerate a rune truncated by the byte limit, nothing else.
	for len(head) > 0 && !utf8.Valid(head) {
		r, _ := utf8.DecodeLastRune(head)
		if r != utf8.RuneError {
			break
		}
		head = head[:len(head)-1]
	}

	if len(head) == 0 || !utf8.Valid(head) || strings.ContainsRune(string(head), 0) {
		return nil, domain.ErrCorruptInput
	}

	return &Result{
		Text:    string(head),
		Preview: fmt.Sprintf("first %d bytes extracted", len(head)),
	}, nil
}
