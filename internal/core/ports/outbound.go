package ports

import (
	"context"
	"io"

	"github.com/kirillkom/invoice-ledger/internal/core/domain"
)

// InvoiceRepository persists and reads invoice records. Every operation is
// scoped to the owning user.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	ListByUser(ctx context.Context, userID string) ([]domain.Invoice, error)
	Update(ctx context.Context, id, userID string, update domain.InvoiceUpdate) (*domain.Invoice, error)
	Delete(ctx context.Context, id, userID string) error
	FindBySignature(ctx context.Context, userID, invoiceNumber, vendorName string, amount int64) (*domain.Invoice, error)
}

// InvoiceFileRepository persists uploaded source documents.
type InvoiceFileRepository interface {
	Create(ctx context.Context, file *domain.InvoiceFile) error
	GetByID(ctx context.Context, id string) (*domain.InvoiceFile, error)
	ListByUser(ctx context.Context, userID string) ([]domain.InvoiceFile, error)
	FindByContent(ctx context.Context, userID string, content []byte) (*domain.InvoiceFile, error)
}

// ObjectStorage archives uploaded originals.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes file ingestion events.
type MessageQueue interface {
	PublishFileIngested(ctx context.Context, fileID string) error
	SubscribeFileIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// DocumentTextExtractor turns a stored file into text the model can read:
// the PDF text layer, or a data URL for images.
type DocumentTextExtractor interface {
	Extract(ctx context.Context, file *domain.InvoiceFile) (string, error)
}

// FieldExtractor is the language-model collaborator. Its output is validated
// against the invoice field shapes before use.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, content string) (domain.ExtractedFields, error)
}
