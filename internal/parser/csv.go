package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/cloo-solutions/papyrai/internal/domain"
)

// parseCSV serializes a CSV file row by row with column headers preserved so
// chunks stay meaningful for retrieval.
func parseCSV(filename string, data []byte) (*Result, error) {
	if !utf8.Valid(data) {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInput,
			"csv is not valid UTF-8", domain.ErrCorruptInput)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInput,
			"cannot read csv header", domain.ErrCorruptInput)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CSV File: %s\n", filename)
	fmt.Fprintf(&b, "Columns: %s\n\n", strings.Join(header, ", "))

	rows := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInput,
				fmt.Sprintf("malformed csv near row %d", rows+1), domain.ErrCorruptInput)
		}

		rows++
		pairs := make([]string, 0, len(record))
		for i, value := range record {
			name := fmt.Sprintf("col%d", i+1)
			if i < len(header) {
				name = header[i]
			}
			pairs = append(pairs, name+": "+value)
		}
		fmt.Fprintf(&b, "Row %d: %s\n", rows, strings.Join(pairs, " | "))
	}

	return &Result{
		Text:    b.String(),
		Preview: fmt.Sprintf("%d rows, %d columns", rows, len(header)),
		Metadata: Metadata{
			Rows:    rows,
			Columns: len(header),
		},
	}, nil
}
