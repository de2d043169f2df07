package domain

import (
	"fmt"
	"strings"
	"time"
)

type InvoiceStatus string

const (
	StatusProcessing InvoiceStatus = "processing"
	StatusCompleted  InvoiceStatus = "completed"
	StatusError      InvoiceStatus = "error"
)

func ParseInvoiceStatus(raw string) (InvoiceStatus, bool) {
	switch InvoiceStatus(raw) {
	case StatusProcessing, StatusCompleted, StatusError:
		return InvoiceStatus(raw), true
	default:
		return "", false
	}
}

// LineItem is one entry inside an invoice. All fields are optional; no
// quantity*unitPrice==total relation is enforced. Money fields are integer
// minor units (cents).
type LineItem struct {
	Description string  `json:"description,omitempty"`
	Quantity    float64 `json:"quantity,omitempty"`
	UnitPrice   int64   `json:"unitPrice,omitempty"`
	Total       int64   `json:"total,omitempty"`
}

// Invoice is one extracted invoice owned by exactly one user. Amount is an
// integer number of minor units, never a float.
type Invoice struct {
	ID     string        `json:"id"`
	UserID string        `json:"user_id"`
	Status InvoiceStatus `json:"status"`

	InvoiceNumber *string    `json:"invoice_number,omitempty"`
	VendorName    *string    `json:"vendor_name,omitempty"`
	CustomerName  *string    `json:"customer_name,omitempty"`
	InvoiceDate   *time.Time `json:"invoice_date,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	Amount        *int64     `json:"amount,omitempty"`
	Currency      *string    `json:"currency,omitempty"`
	LineItems     []LineItem `json:"line_items,omitempty"`

	RawExtractedText *string `json:"raw_extracted_text,omitempty"`
	ConfidenceScore  *int    `json:"confidence_score,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type FileKind string

const (
	FileKindImage FileKind = "image"
	FileKindPDF   FileKind = "pdf"
)

// InvoiceFile is an uploaded source document. Content is content-addressable
// within the owning user's scope: no two files with byte-identical content
// may exist for the same user.
type InvoiceFile struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Kind      FileKind  `json:"kind"`
	MimeType  string    `json:"mime_type"`
	Content   []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Patch is a tri-state update value: absent (leave the field untouched),
// null (clear it), or set to Value.
type Patch[T any] struct {
	Valid bool
	Null  bool
	Value T
}

func SetPatch[T any](value T) Patch[T] {
	return Patch[T]{Valid: true, Value: value}
}

func NullPatch[T any]() Patch[T] {
	return Patch[T]{Valid: true, Null: true}
}

// InvoiceUpdate is a partial field update produced by one edited sheet row.
type InvoiceUpdate struct {
	InvoiceNumber Patch[string]
	VendorName    Patch[string]
	CustomerName  Patch[string]
	InvoiceDate   Patch[time.Time]
	DueDate       Patch[time.Time]
	Amount        Patch[int64]
	Currency      Patch[string]
	Status        Patch[InvoiceStatus]
	LineItems     Patch[[]LineItem]
}

func (u InvoiceUpdate) IsZero() bool {
	return !u.InvoiceNumber.Valid &&
		!u.VendorName.Valid &&
		!u.CustomerName.Valid &&
		!u.InvoiceDate.Valid &&
		!u.DueDate.Valid &&
		!u.Amount.Valid &&
		!u.Currency.Valid &&
		!u.Status.Valid &&
		!u.LineItems.Valid
}

// ExtractedFields is the raw structured output of the extraction model.
// It must pass Validate before any use.
type ExtractedFields struct {
	InvoiceNumber string     `json:"invoiceNumber"`
	VendorName    string     `json:"vendorName"`
	CustomerName  string     `json:"customerName,omitempty"`
	InvoiceDate   string     `json:"invoiceDate"`
	DueDate       string     `json:"dueDate,omitempty"`
	Amount        int64      `json:"amount"`
	Currency      string     `json:"currency,omitempty"`
	LineItems     []LineItem `json:"lineItems,omitempty"`
}

const dateLayout = "2006-01-02"

// Validate checks the model output against the invoice field shapes.
func (f ExtractedFields) Validate() error {
	if strings.TrimSpace(f.InvoiceNumber) == "" {
		return WrapError(ErrInvalidInput, "validate extraction", fmt.Errorf("missing invoiceNumber"))
	}
	if strings.TrimSpace(f.VendorName) == "" {
		return WrapError(ErrInvalidInput, "validate extraction", fmt.Errorf("missing vendorName"))
	}
	if f.Amount < 0 {
		return WrapError(ErrInvalidInput, "validate extraction", fmt.Errorf("negative amount %d", f.Amount))
	}
	if _, err := time.Parse(dateLayout, f.InvoiceDate); err != nil {
		return WrapError(ErrInvalidInput, "validate extraction", fmt.Errorf("invoiceDate %q: %w", f.InvoiceDate, err))
	}
	if f.DueDate != "" {
		if _, err := time.Parse(dateLayout, f.DueDate); err != nil {
			return WrapError(ErrInvalidInput, "validate extraction", fmt.Errorf("dueDate %q: %w", f.DueDate, err))
		}
	}
	return nil
}

func (f ExtractedFields) InvoiceDateTime() time.Time {
	t, _ := time.Parse(dateLayout, f.InvoiceDate)
	return t
}

func (f ExtractedFields) DueDateTime() *time.Time {
	if f.DueDate == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, f.DueDate)
	if err != nil {
		return nil
	}
	return &t
}

// CurrencyOrDefault falls back to USD when the model omitted the code.
func (f ExtractedFields) CurrencyOrDefault() string {
	if strings.TrimSpace(f.Currency) == "" {
		return "USD"
	}
	return f.Currency
}
