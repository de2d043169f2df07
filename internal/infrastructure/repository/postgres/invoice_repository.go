package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/invoice-ledger/internal/core/domain"
)

type InvoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

const invoiceColumns = `id, user_id, status, invoice_number, vendor_name, customer_name, invoice_date, due_date, amount, currency, line_items, raw_extracted_text, confidence_score, created_at, updated_at`

func (r *InvoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	lineItems, err := marshalLineItems(inv.LineItems)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO invoices (
	id, user_id, status, invoice_number, vendor_name, customer_name, invoice_date, due_date, amount, currency, line_items, raw_extracted_text, confidence_score, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
`,
		inv.ID, inv.UserID, string(inv.Status), inv.InvoiceNumber, inv.VendorName, inv.CustomerName,
		inv.InvoiceDate, inv.DueDate, inv.Amount, inv.Currency, lineItems,
		inv.RawExtractedText, inv.ConfidenceScore, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) ListByUser(ctx context.Context, userID string) ([]domain.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+invoiceColumns+`
FROM invoices
WHERE user_id = $1
ORDER BY created_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}
	return invoices, nil
}

// Update applies a partial field update scoped to (id, userID) and bumps
// updated_at. No matching row is ErrInvoiceNotFound.
func (r *InvoiceRepository) Update(ctx context.Context, id, userID string, update domain.InvoiceUpdate) (*domain.Invoice, error) {
	assignments, args, err := buildAssignments(update)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "update invoice", errors.New("empty update"))
	}

	args = append(args, time.Now().UTC())
	assignments = append(assignments, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id, userID)

	query := fmt.Sprintf(`
UPDATE invoices
SET %s
WHERE id = $%d AND user_id = $%d
RETURNING `+invoiceColumns,
		strings.Join(assignments, ", "), len(args)-1, len(args))

	row := r.db.QueryRowContext(ctx, query, args...)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrInvoiceNotFound, "update invoice", fmt.Errorf("id=%s", id))
		}
		return nil, err
	}
	return inv, nil
}

func (r *InvoiceRepository) Delete(ctx context.Context, id, userID string) error {
	result, err := r.db.ExecContext(ctx, `
DELETE FROM invoices
WHERE id = $1 AND user_id = $2
`, id, userID)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete invoice rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrInvoiceNotFound, "delete invoice", fmt.Errorf("id=%s", id))
	}
	return nil
}

// FindBySignature is the semantic dedup lookup: exact match on all three
// signature fields, scoped to the user. No match returns (nil, nil).
func (r *InvoiceRepository) FindBySignature(ctx context.Context, userID, invoiceNumber, vendorName string, amount int64) (*domain.Invoice, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+invoiceColumns+`
FROM invoices
WHERE user_id = $1 AND invoice_number = $2 AND vendor_name = $3 AND amount = $4
LIMIT 1
`, userID, invoiceNumber, vendorName, amount)

	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return inv, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	var inv domain.Invoice
	var status string
	var lineItemsRaw []byte

	err := row.Scan(
		&inv.ID, &inv.UserID, &status, &inv.InvoiceNumber, &inv.VendorName, &inv.CustomerName,
		&inv.InvoiceDate, &inv.DueDate, &inv.Amount, &inv.Currency, &lineItemsRaw,
		&inv.RawExtractedText, &inv.ConfidenceScore, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan invoice: %w", err)
	}

	if len(lineItemsRaw) > 0 {
		if err := json.Unmarshal(lineItemsRaw, &inv.LineItems); err != nil {
			return nil, fmt.Errorf("unmarshal line items: %w", err)
		}
	}
	inv.Status = domain.InvoiceStatus(status)
	return &inv, nil
}

func buildAssignments(update domain.InvoiceUpdate) ([]string, []any, error) {
	var assignments []string
	var args []any

	add := func(column string, valid, null bool, value any) {
		if !valid {
			return
		}
		if null {
			assignments = append(assignments, column+" = NULL")
			return
		}
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	add("invoice_number", update.InvoiceNumber.Valid, update.InvoiceNumber.Null, update.InvoiceNumber.Value)
	add("vendor_name", update.VendorName.Valid, update.VendorName.Null, update.VendorName.Value)
	add("customer_name", update.CustomerName.Valid, update.CustomerName.Null, update.CustomerName.Value)
	add("invoice_date", update.InvoiceDate.Valid, update.InvoiceDate.Null, update.InvoiceDate.Value)
	add("due_date", update.DueDate.Valid, update.DueDate.Null, update.DueDate.Value)
	add("amount", update.Amount.Valid, update.Amount.Null, update.Amount.Value)
	add("currency", update.Currency.Valid, update.Currency.Null, update.Currency.Value)
	add("status", update.Status.Valid, update.Status.Null, string(update.Status.Value))

	if update.LineItems.Valid {
		if update.LineItems.Null {
			assignments = append(assignments, "line_items = NULL")
		} else {
			raw, err := marshalLineItems(update.LineItems.Value)
			if err != nil {
				return nil, nil, err
			}
			args = append(args, raw)
			assignments = append(assignments, fmt.Sprintf("line_items = $%d", len(args)))
		}
	}

	return assignments, args, nil
}

func marshalLineItems(items []domain.LineItem) ([]byte, error) {
	if items == nil {
		return nil, nil
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal line items: %w", err)
	}
	return raw, nil
}
