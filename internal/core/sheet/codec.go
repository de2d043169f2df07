// Package sheet converts between invoice records and the flat CSV snapshot
// the editable grid works on.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kirillkom/invoice-ledger/internal/core/domain"
)

// Render produces one header line followed by one line per row. Cells
// containing a comma, quote, or line break are quoted with interior quotes
// doubled.
func Render(headers []string, rows [][]string) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)

	if err := w.Write(headers); err != nil {
		return "", fmt.Errorf("write header row: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write data row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	// csv.Writer terminates the final record; the snapshot carries no
	// trailing newline.
	return strings.TrimSuffix(b.String(), "\n"), nil
}

// Parse is the inverse of Render. Blank lines are skipped. Input with no
// header row at all is ErrMalformedTable; a header with zero data rows is
// valid and callers must treat it as a no-op.
func Parse(text string) (headers []string, rows [][]string, err error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		record, readErr := r.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return nil, nil, domain.WrapError(domain.ErrMalformedTable, "parse table", readErr)
		}
		if isBlankRecord(record) {
			continue
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, nil, domain.WrapError(domain.ErrMalformedTable, "parse table", errors.New("no header row"))
	}
	return records[0], records[1:], nil
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
