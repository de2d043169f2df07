package sheet

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/invoice-ledger/internal/core/domain"
)

// Column names are matched exactly, case-sensitive. ID is the reserved
// identity column used only to correlate edited rows back to records.
const (
	ColID            = "ID"
	ColInvoiceNumber = "Invoice Number"
	ColVendorName    = "Vendor Name"
	ColCustomerName  = "Customer Name"
	ColInvoiceDate   = "Invoice Date"
	ColDueDate       = "Due Date"
	ColAmount        = "Amount"
	ColCurrency      = "Currency"
	ColStatus        = "Status"
	ColLineItems     = "Line Items"
	ColCreatedAt     = "Created At"
)

// CanonicalHeaders is the fixed header set of a freshly built snapshot.
func CanonicalHeaders() []string {
	return []string{
		ColID,
		ColInvoiceNumber,
		ColVendorName,
		ColCustomerName,
		ColInvoiceDate,
		ColDueDate,
		ColAmount,
		ColCurrency,
		ColStatus,
		ColLineItems,
		ColCreatedAt,
	}
}

const dateLayout = "2006-01-02"

// FormatAmount renders integer minor units as a two-decimal string.
func FormatAmount(minor int64) string {
	return fmt.Sprintf("%.2f", float64(minor)/100)
}

// ParseAmount converts a decimal money string back to minor units, rounding
// to the nearest cent.
func ParseAmount(raw string) (int64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return int64(math.Round(value * 100)), nil
}

func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return t, nil
}

// Mapper translates between column positions and invoice fields for one
// header set. Build one per pass; column counts are small and fixed.
type Mapper struct {
	index map[string]int
}

func NewMapper(headers []string) *Mapper {
	index := make(map[string]int, len(headers))
	for i, name := range headers {
		if _, seen := index[name]; seen {
			continue
		}
		index[name] = i
	}
	return &Mapper{index: index}
}

// ColumnIndex returns the position of a column, or -1 when absent.
func (m *Mapper) ColumnIndex(name string) int {
	idx, ok := m.index[name]
	if !ok {
		return -1
	}
	return idx
}

func (m *Mapper) cell(row []string, name string) (string, bool) {
	idx, ok := m.index[name]
	if !ok || idx >= len(row) {
		return "", false
	}
	return row[idx], true
}

// Row renders one invoice in header order. Missing optional fields become
// empty cells; money is two-decimal, dates are date-only ISO.
func (m *Mapper) Row(headers []string, inv domain.Invoice) []string {
	row := make([]string, len(headers))
	for i, name := range headers {
		row[i] = renderField(inv, name)
	}
	return row
}

func renderField(inv domain.Invoice, column string) string {
	switch column {
	case ColID:
		return inv.ID
	case ColInvoiceNumber:
		return stringOrEmpty(inv.InvoiceNumber)
	case ColVendorName:
		return stringOrEmpty(inv.VendorName)
	case ColCustomerName:
		return stringOrEmpty(inv.CustomerName)
	case ColInvoiceDate:
		return dateOrEmpty(inv.InvoiceDate)
	case ColDueDate:
		return dateOrEmpty(inv.DueDate)
	case ColAmount:
		if inv.Amount == nil {
			return ""
		}
		return FormatAmount(*inv.Amount)
	case ColCurrency:
		if inv.Currency == nil || *inv.Currency == "" {
			return "USD"
		}
		return *inv.Currency
	case ColStatus:
		return string(inv.Status)
	case ColLineItems:
		if len(inv.LineItems) == 0 {
			return ""
		}
		blob, err := EncodeLineItems(inv.LineItems)
		if err != nil {
			return ""
		}
		return blob
	case ColCreatedAt:
		return FormatDate(inv.CreatedAt)
	default:
		// Unknown columns are skipped on output, not defaulted.
		return ""
	}
}

// RowID extracts the identity cell of a row; empty when the ID column is
// absent or the cell is blank.
func (m *Mapper) RowID(row []string) string {
	id, _ := m.cell(row, ColID)
	return strings.TrimSpace(id)
}

// Update builds the partial field update one edited row expresses. A column
// absent from the headers leaves the field untouched; a present-but-empty
// cell clears it. Cells that fail to parse degrade to untouched.
func (m *Mapper) Update(row []string) domain.InvoiceUpdate {
	var update domain.InvoiceUpdate

	update.InvoiceNumber = m.stringPatch(row, ColInvoiceNumber)
	update.VendorName = m.stringPatch(row, ColVendorName)
	update.CustomerName = m.stringPatch(row, ColCustomerName)
	update.InvoiceDate = m.datePatch(row, ColInvoiceDate)
	update.DueDate = m.datePatch(row, ColDueDate)
	update.Currency = m.stringPatch(row, ColCurrency)

	if cell, ok := m.cell(row, ColAmount); ok {
		switch {
		case strings.TrimSpace(cell) == "":
			update.Amount = domain.NullPatch[int64]()
		default:
			if minor, err := ParseAmount(cell); err == nil && minor >= 0 {
				update.Amount = domain.SetPatch(minor)
			}
		}
	}

	if cell, ok := m.cell(row, ColStatus); ok {
		// Status is never cleared; a blank or unknown cell is untouched.
		if status, valid := domain.ParseInvoiceStatus(strings.TrimSpace(cell)); valid {
			update.Status = domain.SetPatch(status)
		}
	}

	if cell, ok := m.cell(row, ColLineItems); ok {
		switch {
		case strings.TrimSpace(cell) == "":
			update.LineItems = domain.NullPatch[[]domain.LineItem]()
		default:
			if items, valid := DecodeLineItems(cell); valid {
				update.LineItems = domain.SetPatch(items)
			}
		}
	}

	return update
}

func (m *Mapper) stringPatch(row []string, column string) domain.Patch[string] {
	cell, ok := m.cell(row, column)
	if !ok {
		return domain.Patch[string]{}
	}
	if cell == "" {
		return domain.NullPatch[string]()
	}
	return domain.SetPatch(cell)
}

func (m *Mapper) datePatch(row []string, column string) domain.Patch[time.Time] {
	cell, ok := m.cell(row, column)
	if !ok {
		return domain.Patch[time.Time]{}
	}
	if strings.TrimSpace(cell) == "" {
		return domain.NullPatch[time.Time]()
	}
	t, err := ParseDate(cell)
	if err != nil {
		return domain.Patch[time.Time]{}
	}
	return domain.SetPatch(t)
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func dateOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatDate(*t)
}
