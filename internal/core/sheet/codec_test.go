package sheet

import (
	"strings"
	"testing"

	"github.com/kirillkom/invoice-ledger/internal/core/domain"
)

func TestRenderEscapesDelimitersQuotesAndNewlines(t *testing.T) {
	out, err := Render(
		[]string{"A", "B"},
		[][]string{{`Acme, Inc.`, `say "hi"` + "\nthere"}},
	)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	lines := strings.SplitN(out, "\n", 2)
	if lines[0] != "A,B" {
		t.Fatalf("unexpected header line %q", lines[0])
	}
	if !strings.Contains(out, `"Acme, Inc."`) {
		t.Fatalf("expected quoted comma cell, got %q", out)
	}
	if !strings.Contains(out, `"say ""hi""`) {
		t.Fatalf("expected doubled interior quotes, got %q", out)
	}
}

func TestParseRoundTripsRender(t *testing.T) {
	headers := []string{"ID", "Vendor Name", "Amount"}
	rows := [][]string{
		{"inv-1", `Acme, "The" Corp`, "12.50"},
		{"inv-2", "Plain Vendor", ""},
	}
	text, err := Render(headers, rows)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	gotHeaders, gotRows, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(gotHeaders) != 3 || gotHeaders[1] != "Vendor Name" {
		t.Fatalf("unexpected headers %v", gotHeaders)
	}
	if len(gotRows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(gotRows))
	}
	for i := range rows {
		for j := range rows[i] {
			if gotRows[i][j] != rows[i][j] {
				t.Fatalf("cell (%d,%d) = %q, want %q", i, j, gotRows[i][j], rows[i][j])
			}
		}
	}
}

func TestParseSkipsBlankLines(t *testing.T) {
	_, rows, err := Parse("A,B\n\nx,y\n\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 data row, got %d", len(rows))
	}
}

func TestParseHeaderOnlyYieldsNoRows(t *testing.T) {
	headers, rows, err := Parse("A,B,C")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(headers) != 3 {
		t.Fatalf("expected 3 headers, got %v", headers)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no data rows, got %d", len(rows))
	}
}

func TestParseEmptyInputIsMalformed(t *testing.T) {
	_, _, err := Parse("")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrMalformedTable) {
		t.Fatalf("expected ErrMalformedTable, got %v", err)
	}
}
