package ports

import (
	"context"
	"io"

	"github.com/kirillkom/invoice-ledger/internal/core/domain"
)

// FileIngestor is the inbound contract for the upload path. The boolean
// reports a content dedup hit: the returned file is the existing one and no
// new record was created.
type FileIngestor interface {
	Upload(ctx context.Context, userID, filename, mimeType string, body io.Reader) (*domain.InvoiceFile, bool, error)
}

// InvoiceProcessor runs the extraction pipeline for one uploaded file. On a
// signature dedup hit the returned invoice is the previously persisted one.
type InvoiceProcessor interface {
	ProcessFile(ctx context.Context, fileID string) (*domain.Invoice, error)
}

// SheetService builds tabular snapshots and applies edited ones.
type SheetService interface {
	BuildSnapshot(ctx context.Context, userID string) (string, error)
	ApplySnapshot(ctx context.Context, userID, submitted string) (*domain.SheetApplyResult, error)
}

// SheetExporter renders the current snapshot as a spreadsheet workbook.
type SheetExporter interface {
	ExportXLSX(ctx context.Context, userID string) ([]byte, error)
}
