package usecase

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/invoice-ledger/internal/core/ports"
	"github.com/kirillkom/invoice-ledger/internal/core/sheet"
)

const exportSheetName = "Invoices"

// ExportSheetUseCase renders the same snapshot the grid shows as an XLSX
// workbook for download.
type ExportSheetUseCase struct {
	invoices ports.InvoiceRepository
}

func NewExportSheetUseCase(invoices ports.InvoiceRepository) *ExportSheetUseCase {
	return &ExportSheetUseCase{invoices: invoices}
}

func (uc *ExportSheetUseCase) ExportXLSX(ctx context.Context, userID string) ([]byte, error) {
	invoices, err := uc.invoices.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}

	workbook := excelize.NewFile()
	defer func() {
		_ = workbook.Close()
	}()
	if err := workbook.SetSheetName("Sheet1", exportSheetName); err != nil {
		return nil, fmt.Errorf("name worksheet: %w", err)
	}

	headers := sheet.CanonicalHeaders()
	mapper := sheet.NewMapper(headers)

	if err := writeRow(workbook, 1, headers); err != nil {
		return nil, err
	}
	for i, inv := range invoices {
		if err := writeRow(workbook, i+2, mapper.Row(headers, inv)); err != nil {
			return nil, err
		}
	}

	buf, err := workbook.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(workbook *excelize.File, rowNum int, cells []string) error {
	for i, value := range cells {
		cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
		if err != nil {
			return fmt.Errorf("cell coordinates: %w", err)
		}
		if err := workbook.SetCellValue(exportSheetName, cell, value); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	return nil
}
