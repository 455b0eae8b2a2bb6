package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// MimeClass is the normalized file-type class a document is parsed as
type MimeClass string

const (
	MimeClassPDF     MimeClass = "pdf"
	MimeClassCSV     MimeClass = "csv"
	MimeClassXLSX    MimeClass = "xlsx"
	MimeClassDOCX    MimeClass = "docx"
	MimeClassText    MimeClass = "text"
	MimeClassUnknown MimeClass = "unknown"
)

// IsSupported reports whether the parser has an extractor for the class.
func (m MimeClass) IsSupported() bool {
	switch m {
	case MimeClassPDF, MimeClassCSV, MimeClassXLSX, MimeClassDOCX, MimeClassText:
		return true
	}
	return false
}

// DetectMimeClass maps a declared content type and filename extension to a
// MimeClass. Content type wins when it is recognizable; the extension is the
// fallback.
func DetectMimeClass(filename, contentType string) MimeClass {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "pdf"):
		return MimeClassPDF
	case strings.Contains(ct, "csv"):
		return MimeClassCSV
	case strings.Contains(ct, "excel") || strings.Contains(ct, "spreadsheet"):
		return MimeClassXLSX
	case strings.Contains(ct, "word") || strings.Contains(ct, "officedocument.wordprocessing"):
		return MimeClassDOCX
	case strings.HasPrefix(ct, "text/"):
		return MimeClassText
	}

	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case "pdf":
		return MimeClassPDF
	case "csv":
		return MimeClassCSV
	case "xlsx", "xls":
		return MimeClassXLSX
	case "docx", "doc":
		return MimeClassDOCX
	case "txt", "md", "log":
		return MimeClassText
	}
	return MimeClassUnknown
}

// Document is an uploaded file after parsing. Immutable once created;
// chunks reference it by ID and are evicted with it.
type Document struct {
	ID             string
	Filename       string
	MimeClass      MimeClass
	RawSize        int64
	NormalizedText string
	Preview        string
	UploadedAt     time.Time
}

// NewDocument creates a parsed Document record.
func NewDocument(id, filename string, mime MimeClass, rawSize int64, text, preview string, uploadedAt time.Time) *Document {
	return &Document{
		ID:             id,
		Filename:       filename,
		MimeClass:      mime,
		RawSize:        rawSize,
		NormalizedText: text,
		Preview:        preview,
		UploadedAt:     uploadedAt,
	}
}

// Chunk is a bounded text window derived from a Document; the unit of
// embedding and retrieval. Never mutated after creation.
type Chunk struct {
	ID            string
	DocumentID    string
	SequenceIndex int
	Text          string
	StartOffset   int
	EndOffset     int
}
