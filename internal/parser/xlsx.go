package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/cloo-solutions/papyrai/internal/domain"
)

// parseXLSX serializes each sheet row by row with the first row treated as
// column headers, matching the CSV policy.
func parseXLSX(filename string, data []byte) (*Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInput,
			"cannot open xlsx workbook", domain.ErrCorruptInput)
	}
	defer f.Close()

	sheets := f.GetSheetList()

	var b strings.Builder
	fmt.Fprintf(&b, "Excel File: %s\n", filename)
	fmt.Fprintf(&b, "Sheets: %s\n\n", strings.Join(sheets, ", "))

	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			fmt.Fprintf(&b, "--- Sheet: %s (unreadable) ---\n\n", sheet)
			continue
		}

		fmt.Fprintf(&b, "--- Sheet: %s ---\n", sheet)
		if len(rows) == 0 {
			b.WriteString("(empty)\n\n")
			continue
		}

		header := rows[0]
		fmt.Fprintf(&b, "Columns: %s\n", strings.Join(header, ", "))
		for i, row := range rows[1:] {
			pairs := make([]string, 0, len(row))
			for j, value := range row {
				name := fmt.Sprintf("col%d", j+1)
				if j < len(header) {
					name = header[j]
				}
				pairs = append(pairs, name+": "+value)
			}
			fmt.Fprintf(&b, "Row %d: %s\n", i+1, strings.Join(pairs, " | "))
		}
		b.WriteString("\n")
	}

	return &Result{
		Text:     b.String(),
		Preview:  fmt.Sprintf("%d sheets extracted", len(sheets)),
		Metadata: Metadata{Sheets: sheets},
	}, nil
}
