package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/invoice-ledger/internal/core/domain"
)

// sheetRepoFake applies updates in memory the way the store would: patches
// land on the matching (id, userID) record and bump UpdatedAt.
type sheetRepoFake struct {
	invoices    []domain.Invoice
	updateCalls int
}

func (f *sheetRepoFake) Create(context.Context, *domain.Invoice) error {
	return errors.New("not implemented")
}

func (f *sheetRepoFake) ListByUser(_ context.Context, userID string) ([]domain.Invoice, error) {
	var out []domain.Invoice
	for _, inv := range f.invoices {
		if inv.UserID == userID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *sheetRepoFake) Update(_ context.Context, id, userID string, update domain.InvoiceUpdate) (*domain.Invoice, error) {
	f.updateCalls++
	for i := range f.invoices {
		inv := &f.invoices[i]
		if inv.ID != id || inv.UserID != userID {
			continue
		}
		applyPatchString(&inv.InvoiceNumber, update.InvoiceNumber)
		applyPatchString(&inv.VendorName, update.VendorName)
		applyPatchString(&inv.CustomerName, update.CustomerName)
		applyPatchTime(&inv.InvoiceDate, update.InvoiceDate)
		applyPatchTime(&inv.DueDate, update.DueDate)
		applyPatchInt64(&inv.Amount, update.Amount)
		applyPatchString(&inv.Currency, update.Currency)
		if update.Status.Valid && !update.Status.Null {
			inv.Status = update.Status.Value
		}
		if update.LineItems.Valid {
			if update.LineItems.Null {
				inv.LineItems = nil
			} else {
				inv.LineItems = update.LineItems.Value
			}
		}
		inv.UpdatedAt = time.Now().UTC()
		result := *inv
		return &result, nil
	}
	return nil, domain.WrapError(domain.ErrInvoiceNotFound, "update invoice", errors.New(id))
}

func (f *sheetRepoFake) Delete(context.Context, string, string) error {
	return errors.New("not implemented")
}

func (f *sheetRepoFake) FindBySignature(context.Context, string, string, string, int64) (*domain.Invoice, error) {
	return nil, errors.New("not implemented")
}

func applyPatchString(field **string, patch domain.Patch[string]) {
	if !patch.Valid {
		return
	}
	if patch.Null {
		*field = nil
		return
	}
	value := patch.Value
	*field = &value
}

func applyPatchTime(field **time.Time, patch domain.Patch[time.Time]) {
	if !patch.Valid {
		return
	}
	if patch.Null {
		*field = nil
		return
	}
	value := patch.Value
	*field = &value
}

func applyPatchInt64(field **int64, patch domain.Patch[int64]) {
	if !patch.Valid {
		return
	}
	if patch.Null {
		*field = nil
		return
	}
	value := patch.Value
	*field = &value
}

func seedInvoice(id, userID string) domain.Invoice {
	number := "INV-" + id
	vendor := "Acme"
	amount := int64(1000)
	created := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	return domain.Invoice{
		ID:            id,
		UserID:        userID,
		Status:        domain.StatusCompleted,
		InvoiceNumber: &number,
		VendorName:    &vendor,
		Amount:        &amount,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}

func TestBuildSnapshotEmptyLedgerIsHeaderOnly(t *testing.T) {
	uc := NewSheetSyncUseCase(&sheetRepoFake{})

	snapshot, err := uc.BuildSnapshot(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if strings.Count(snapshot, "\n") != 0 {
		t.Fatalf("expected a single header line, got %q", snapshot)
	}
	if !strings.HasPrefix(snapshot, "ID,Invoice Number,Vendor Name") {
		t.Fatalf("unexpected header order %q", snapshot)
	}
}

func TestApplySnapshotIdenticalSnapshotWritesNothing(t *testing.T) {
	repo := &sheetRepoFake{invoices: []domain.Invoice{seedInvoice("inv-1", "user-1")}}
	uc := NewSheetSyncUseCase(repo)

	snapshot, err := uc.BuildSnapshot(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	before := repo.invoices[0].UpdatedAt

	result, err := uc.ApplySnapshot(context.Background(), "user-1", snapshot)
	if err != nil {
		t.Fatalf("ApplySnapshot() error = %v", err)
	}
	if repo.updateCalls != 0 {
		t.Fatalf("identical snapshot must not reach the store, got %d updates", repo.updateCalls)
	}
	if result.RowsUnchanged != 1 || result.RowsUpdated != 0 {
		t.Fatalf("unexpected report %+v", result)
	}
	if !repo.invoices[0].UpdatedAt.Equal(before) {
		t.Fatalf("updatedAt must stay unchanged")
	}
	if result.Snapshot != snapshot {
		t.Fatalf("re-rendered snapshot should match the unchanged state")
	}
}

func TestApplySnapshotConvertsAmountToMinorUnits(t *testing.T) {
	repo := &sheetRepoFake{invoices: []domain.Invoice{seedInvoice("inv-1", "user-1")}}
	uc := NewSheetSyncUseCase(repo)

	submitted := "ID,Amount\ninv-1,12.5"
	result, err := uc.ApplySnapshot(context.Background(), "user-1", submitted)
	if err != nil {
		t.Fatalf("ApplySnapshot() error = %v", err)
	}
	if result.RowsUpdated != 1 {
		t.Fatalf("expected one updated row, got %+v", result)
	}
	if repo.invoices[0].Amount == nil || *repo.invoices[0].Amount != 1250 {
		t.Fatalf("expected 1250 minor units, got %+v", repo.invoices[0].Amount)
	}
	if !strings.Contains(result.Snapshot, "12.50") {
		t.Fatalf("fresh snapshot must reflect the persisted amount: %q", result.Snapshot)
	}
}

func TestApplySnapshotSkipsRowsWithoutID(t *testing.T) {
	repo := &sheetRepoFake{invoices: []domain.Invoice{seedInvoice("inv-1", "user-1")}}
	uc := NewSheetSyncUseCase(repo)

	submitted := "ID,Vendor Name\n,Typed-In Vendor"
	result, err := uc.ApplySnapshot(context.Background(), "user-1", submitted)
	if err != nil {
		t.Fatalf("ApplySnapshot() error = %v", err)
	}
	if result.RowsSkipped != 1 || result.RowsUpdated != 0 {
		t.Fatalf("unexpected report %+v", result)
	}
	if *repo.invoices[0].VendorName != "Acme" {
		t.Fatalf("record set must stay unchanged")
	}
}

func TestApplySnapshotBadDateLeavesOnlyThatFieldUntouched(t *testing.T) {
	repo := &sheetRepoFake{invoices: []domain.Invoice{seedInvoice("inv-1", "user-1")}}
	uc := NewSheetSyncUseCase(repo)

	submitted := "ID,Invoice Date,Vendor Name\ninv-1,garbage,New Vendor"
	result, err := uc.ApplySnapshot(context.Background(), "user-1", submitted)
	if err != nil {
		t.Fatalf("ApplySnapshot() error = %v", err)
	}
	if result.RowsUpdated != 1 {
		t.Fatalf("row with one bad cell must still update, got %+v", result)
	}
	if repo.invoices[0].InvoiceDate != nil {
		t.Fatalf("invoice date must stay untouched")
	}
	if *repo.invoices[0].VendorName != "New Vendor" {
		t.Fatalf("vendor must update, got %q", *repo.invoices[0].VendorName)
	}
}

func TestApplySnapshotRejectsRowOwnedByAnotherUser(t *testing.T) {
	repo := &sheetRepoFake{invoices: []domain.Invoice{
		seedInvoice("inv-1", "user-1"),
		seedInvoice("inv-2", "user-2"),
	}}
	uc := NewSheetSyncUseCase(repo)

	submitted := "ID,Vendor Name\ninv-2,Stolen Vendor"
	result, err := uc.ApplySnapshot(context.Background(), "user-1", submitted)
	if err != nil {
		t.Fatalf("ApplySnapshot() error = %v", err)
	}
	if result.RowsRejected != 1 {
		t.Fatalf("cross-user row must be rejected, got %+v", result)
	}
	if *repo.invoices[1].VendorName != "Acme" {
		t.Fatalf("other user's record must stay unchanged")
	}
}

func TestApplySnapshotMalformedInputIsNoOp(t *testing.T) {
	repo := &sheetRepoFake{invoices: []domain.Invoice{seedInvoice("inv-1", "user-1")}}
	uc := NewSheetSyncUseCase(repo)

	prior, err := uc.BuildSnapshot(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}

	result, err := uc.ApplySnapshot(context.Background(), "user-1", "")
	if err != nil {
		t.Fatalf("ApplySnapshot() error = %v", err)
	}
	if repo.updateCalls != 0 {
		t.Fatalf("malformed snapshot must not write")
	}
	if result.Snapshot != prior {
		t.Fatalf("no-op must return the unchanged prior content")
	}
}

func TestApplySnapshotClearsFieldOnEmptyCell(t *testing.T) {
	repo := &sheetRepoFake{invoices: []domain.Invoice{seedInvoice("inv-1", "user-1")}}
	uc := NewSheetSyncUseCase(repo)

	submitted := "ID,Invoice Number\ninv-1,"
	result, err := uc.ApplySnapshot(context.Background(), "user-1", submitted)
	if err != nil {
		t.Fatalf("ApplySnapshot() error = %v", err)
	}
	if result.RowsUpdated != 1 {
		t.Fatalf("expected one updated row, got %+v", result)
	}
	if repo.invoices[0].InvoiceNumber != nil {
		t.Fatalf("empty cell must clear the field, got %v", *repo.invoices[0].InvoiceNumber)
	}
}
