package httpadapter

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/kirillkom/invoice-ledger/internal/config"
	"github.com/kirillkom/invoice-ledger/internal/core/domain"
)

type ingestFake struct {
	file      *domain.InvoiceFile
	duplicate bool
	err       error
}

func (f ingestFake) Upload(_ context.Context, userID, filename, mimeType string, body io.Reader) (*domain.InvoiceFile, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	if _, err := io.ReadAll(body); err != nil {
		return nil, false, err
	}
	if f.file != nil {
		return f.file, f.duplicate, nil
	}
	return &domain.InvoiceFile{
		ID:        "f-1",
		UserID:    userID,
		Title:     filename,
		Kind:      domain.FileKindPDF,
		MimeType:  mimeType,
		CreatedAt: time.Now().UTC(),
	}, f.duplicate, nil
}

type fileRepoStub struct {
	files []domain.InvoiceFile
	byID  *domain.InvoiceFile
	err   error
}

func (f fileRepoStub) Create(context.Context, *domain.InvoiceFile) error { return f.err }

func (f fileRepoStub) GetByID(context.Context, string) (*domain.InvoiceFile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byID, nil
}

func (f fileRepoStub) ListByUser(context.Context, string) ([]domain.InvoiceFile, error) {
	return f.files, f.err
}

func (f fileRepoStub) FindByContent(context.Context, string, []byte) (*domain.InvoiceFile, error) {
	return nil, f.err
}

type invoiceRepoStub struct {
	invoices []domain.Invoice
	err      error
}

func (f invoiceRepoStub) Create(context.Context, *domain.Invoice) error { return f.err }

func (f invoiceRepoStub) ListByUser(context.Context, string) ([]domain.Invoice, error) {
	return f.invoices, f.err
}

func (f invoiceRepoStub) Update(context.Context, string, string, domain.InvoiceUpdate) (*domain.Invoice, error) {
	return nil, f.err
}

func (f invoiceRepoStub) Delete(context.Context, string, string) error { return f.err }

func (f invoiceRepoStub) FindBySignature(context.Context, string, string, string, int64) (*domain.Invoice, error) {
	return nil, f.err
}

type sheetFake struct {
	snapshot string
	result   *domain.SheetApplyResult
	err      error
}

func (f sheetFake) BuildSnapshot(context.Context, string) (string, error) {
	return f.snapshot, f.err
}

func (f sheetFake) ApplySnapshot(context.Context, string, string) (*domain.SheetApplyResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type exporterFake struct {
	workbook []byte
	err      error
}

func (f exporterFake) ExportXLSX(context.Context, string) ([]byte, error) {
	return f.workbook, f.err
}

type routerFakes struct {
	ingest   ingestFake
	files    fileRepoStub
	invoices invoiceRepoStub
	sheet    sheetFake
	exporter exporterFake
}

func newTestHandler(cfg config.Config, fakes routerFakes) http.Handler {
	return NewRouter(cfg, fakes.ingest, fakes.files, fakes.invoices, fakes.sheet, fakes.exporter).Handler()
}
