package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/invoice-ledger/internal/core/domain"
)

func invoiceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "status", "invoice_number", "vendor_name", "customer_name",
		"invoice_date", "due_date", "amount", "currency", "line_items",
		"raw_extracted_text", "confidence_score", "created_at", "updated_at",
	})
}

func TestInvoiceRepositoryCreateInsertsRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewInvoiceRepository(db)
	mock.ExpectExec("INSERT INTO invoices").
		WillReturnResult(sqlmock.NewResult(0, 1))

	number := "INV-001"
	vendor := "Acme"
	amount := int64(1250)
	inv := &domain.Invoice{
		ID:            "inv-1",
		UserID:        "u-1",
		Status:        domain.StatusCompleted,
		InvoiceNumber: &number,
		VendorName:    &vendor,
		Amount:        &amount,
		LineItems:     []domain.LineItem{{Description: "widget", Quantity: 1, UnitPrice: 1250, Total: 1250}},
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if err := repo.Create(context.Background(), inv); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInvoiceRepositoryListByUserScans(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewInvoiceRepository(db)
	rows := invoiceRows().
		AddRow("inv-1", "u-1", string(domain.StatusCompleted), "INV-001", "Acme", nil,
			nil, nil, int64(1250), "USD", []byte(`[{"description":"widget","quantity":1}]`),
			nil, 100, time.Now(), time.Now())

	mock.ExpectQuery("FROM invoices").
		WithArgs("u-1").
		WillReturnRows(rows)

	invoices, err := repo.ListByUser(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(invoices) != 1 {
		t.Fatalf("expected 1 invoice, got %d", len(invoices))
	}
	if len(invoices[0].LineItems) != 1 || invoices[0].LineItems[0].Description != "widget" {
		t.Fatalf("line items not decoded: %+v", invoices[0].LineItems)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInvoiceRepositoryUpdateReturnsNotFoundWhenNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewInvoiceRepository(db)
	mock.ExpectQuery("UPDATE invoices").
		WillReturnRows(invoiceRows())

	vendor := "Acme"
	update := domain.InvoiceUpdate{VendorName: domain.SetPatch(vendor)}
	_, err = repo.Update(context.Background(), "missing", "u-1", update)
	if !errors.Is(err, domain.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInvoiceRepositoryUpdateRejectsEmptyUpdate(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewInvoiceRepository(db)
	_, err = repo.Update(context.Background(), "inv-1", "u-1", domain.InvoiceUpdate{})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestInvoiceRepositoryUpdateClearsFieldWithNull(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewInvoiceRepository(db)
	rows := invoiceRows().
		AddRow("inv-1", "u-1", string(domain.StatusCompleted), "INV-001", nil, nil,
			nil, nil, int64(1250), "USD", nil, nil, 100, time.Now(), time.Now())

	mock.ExpectQuery("SET vendor_name = NULL").
		WithArgs(sqlmock.AnyArg(), "inv-1", "u-1").
		WillReturnRows(rows)

	update := domain.InvoiceUpdate{VendorName: domain.NullPatch[string]()}
	inv, err := repo.Update(context.Background(), "inv-1", "u-1", update)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if inv.VendorName != nil {
		t.Fatalf("expected vendor cleared, got %q", *inv.VendorName)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInvoiceRepositoryDeleteReturnsNotFoundWhenNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewInvoiceRepository(db)
	mock.ExpectExec("DELETE FROM invoices").
		WithArgs("missing", "u-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Delete(context.Background(), "missing", "u-1")
	if !errors.Is(err, domain.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInvoiceRepositoryFindBySignatureReturnsNilOnMiss(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewInvoiceRepository(db)
	mock.ExpectQuery("FROM invoices").
		WithArgs("u-1", "INV-001", "Acme", int64(1250)).
		WillReturnRows(invoiceRows())

	inv, err := repo.FindBySignature(context.Background(), "u-1", "INV-001", "Acme", 1250)
	if err != nil {
		t.Fatalf("FindBySignature() error = %v", err)
	}
	if inv != nil {
		t.Fatalf("expected nil on miss, got %+v", inv)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
