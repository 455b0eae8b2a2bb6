package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/cloo-solutions/papyrai/internal/domain"
)

// parsePDF extracts text page by page, preserving reading order.
func parsePDF(data []byte) (result *Result, err error) {
	// ledongthuc/pdf panics on some malformed streams; treat those as corrupt
	// input instead of crashing the request.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = domain.NewDomainErrorWithCause(domain.ErrCodeInput,
				fmt.Sprintf("malformed pdf: %v", r), domain.ErrCorruptInput)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInput,
			"cannot open pdf", domain.ErrCorruptInput)
	}

	var b strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page does not corrupt the document.
			continue
		}

		fmt.Fprintf(&b, "--- Page %d ---\n", i)
		b.WriteString(text)
		b.WriteString("\n")
	}

	return &Result{
		Text:     b.String(),
		Preview:  fmt.Sprintf("%d pages extracted", pages),
		Metadata: Metadata{Pages: pages},
	}, nil
}
