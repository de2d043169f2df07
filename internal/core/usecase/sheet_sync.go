package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/invoice-ledger/internal/core/domain"
	"github.com/kirillkom/invoice-ledger/internal/core/ports"
	"github.com/kirillkom/invoice-ledger/internal/core/sheet"
)

// SheetSyncUseCase reconciles the flat editable snapshot with the record
// store. A build pass renders current records; an apply pass parses an
// edited snapshot, applies per-row field updates, and re-renders from the
// authoritative post-update state. Passes share no state.
type SheetSyncUseCase struct {
	invoices ports.InvoiceRepository
}

func NewSheetSyncUseCase(invoices ports.InvoiceRepository) *SheetSyncUseCase {
	return &SheetSyncUseCase{invoices: invoices}
}

// BuildSnapshot renders all of a user's invoices with the canonical header
// set. No mutation.
func (uc *SheetSyncUseCase) BuildSnapshot(ctx context.Context, userID string) (string, error) {
	invoices, err := uc.invoices.ListByUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("list invoices: %w", err)
	}

	headers := sheet.CanonicalHeaders()
	mapper := sheet.NewMapper(headers)
	rows := make([][]string, 0, len(invoices))
	for _, inv := range invoices {
		rows = append(rows, mapper.Row(headers, inv))
	}

	snapshot, err := sheet.Render(headers, rows)
	if err != nil {
		return "", fmt.Errorf("render snapshot: %w", err)
	}
	return snapshot, nil
}

// ApplySnapshot applies an edited snapshot row by row, in submission order.
// Rows without an ID are skipped (new rows typed into the grid are not
// auto-persisted); rows addressed to an id/user pair with no record are
// rejected; per-field parse failures leave that field untouched. A malformed
// snapshot is a no-op. The returned snapshot is always re-rendered from the
// store, never the client-submitted text.
func (uc *SheetSyncUseCase) ApplySnapshot(ctx context.Context, userID, submitted string) (*domain.SheetApplyResult, error) {
	result := &domain.SheetApplyResult{}

	headers, rows, err := sheet.Parse(submitted)
	if err != nil {
		if !domain.IsKind(err, domain.ErrMalformedTable) {
			return nil, err
		}
		slog.Warn("sheet_apply_malformed_snapshot", "user_id", userID, "error", err)
		return uc.finishApply(ctx, userID, result)
	}
	if len(rows) == 0 {
		return uc.finishApply(ctx, userID, result)
	}

	mapper := sheet.NewMapper(headers)
	current, err := uc.invoices.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	byID := make(map[string]domain.Invoice, len(current))
	for _, inv := range current {
		byID[inv.ID] = inv
	}

	for _, row := range rows {
		id := mapper.RowID(row)
		if id == "" {
			result.RowsSkipped++
			continue
		}

		update := mapper.Update(row)
		if cur, ok := byID[id]; ok {
			update = pruneUnchanged(mapper, headers, row, cur, update)
		}
		if update.IsZero() {
			result.RowsUnchanged++
			continue
		}

		if _, err := uc.invoices.Update(ctx, id, userID, update); err != nil {
			if domain.IsKind(err, domain.ErrInvoiceNotFound) {
				slog.Warn("sheet_apply_row_rejected", "user_id", userID, "invoice_id", id)
				result.RowsRejected++
				continue
			}
			return nil, fmt.Errorf("apply row update: %w", err)
		}
		result.RowsUpdated++
	}

	return uc.finishApply(ctx, userID, result)
}

func (uc *SheetSyncUseCase) finishApply(ctx context.Context, userID string, result *domain.SheetApplyResult) (*domain.SheetApplyResult, error) {
	snapshot, err := uc.BuildSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	result.Snapshot = snapshot
	return result, nil
}

// pruneUnchanged drops every field whose submitted cell matches what the
// current record renders to. Re-submitting an untouched snapshot therefore
// writes nothing and leaves updatedAt alone.
func pruneUnchanged(mapper *sheet.Mapper, headers []string, row []string, cur domain.Invoice, update domain.InvoiceUpdate) domain.InvoiceUpdate {
	curRow := mapper.Row(headers, cur)
	same := func(column string) bool {
		idx := mapper.ColumnIndex(column)
		return idx >= 0 && idx < len(row) && idx < len(curRow) && row[idx] == curRow[idx]
	}

	if same(sheet.ColInvoiceNumber) {
		update.InvoiceNumber = domain.Patch[string]{}
	}
	if same(sheet.ColVendorName) {
		update.VendorName = domain.Patch[string]{}
	}
	if same(sheet.ColCustomerName) {
		update.CustomerName = domain.Patch[string]{}
	}
	if same(sheet.ColInvoiceDate) {
		update.InvoiceDate = domain.Patch[time.Time]{}
	}
	if same(sheet.ColDueDate) {
		update.DueDate = domain.Patch[time.Time]{}
	}
	if same(sheet.ColAmount) {
		update.Amount = domain.Patch[int64]{}
	}
	if same(sheet.ColCurrency) {
		update.Currency = domain.Patch[string]{}
	}
	if same(sheet.ColStatus) {
		update.Status = domain.Patch[domain.InvoiceStatus]{}
	}
	if same(sheet.ColLineItems) {
		update.LineItems = domain.Patch[[]domain.LineItem]{}
	}
	return update
}
