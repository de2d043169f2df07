package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/invoice-ledger/internal/core/domain"
	"github.com/kirillkom/invoice-ledger/internal/core/ports"
)

type ProcessInvoiceUseCase struct {
	files     ports.InvoiceFileRepository
	invoices  ports.InvoiceRepository
	extractor ports.DocumentTextExtractor
	fields    ports.FieldExtractor
}

func NewProcessInvoiceUseCase(
	files ports.InvoiceFileRepository,
	invoices ports.InvoiceRepository,
	extractor ports.DocumentTextExtractor,
	fields ports.FieldExtractor,
) *ProcessInvoiceUseCase {
	return &ProcessInvoiceUseCase{
		files:     files,
		invoices:  invoices,
		extractor: extractor,
		fields:    fields,
	}
}

// ProcessFile runs extraction for one uploaded file. A second extraction
// yielding the same (invoiceNumber, vendorName, amount) signature for the
// same user returns the first record's identity instead of creating a
// duplicate ledger entry. An extraction failure creates no record.
func (uc *ProcessInvoiceUseCase) ProcessFile(ctx context.Context, fileID string) (*domain.Invoice, error) {
	file, err := uc.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("fetch invoice file: %w", err)
	}

	text, err := uc.extractor.Extract(ctx, file)
	if err != nil {
		return nil, domain.WrapError(domain.ErrExtractionFailed, "extract document text", err)
	}

	extracted, err := uc.fields.ExtractFields(ctx, text)
	if err != nil {
		return nil, domain.WrapError(domain.ErrExtractionFailed, "extract invoice fields", err)
	}
	if err := extracted.Validate(); err != nil {
		return nil, domain.WrapError(domain.ErrExtractionFailed, "validate invoice fields", err)
	}

	existing, err := uc.invoices.FindBySignature(ctx, file.UserID, extracted.InvoiceNumber, extracted.VendorName, extracted.Amount)
	if err != nil {
		return nil, fmt.Errorf("signature dedup lookup: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	inv := buildInvoice(file.UserID, text, extracted)
	if err := uc.invoices.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	return inv, nil
}

func buildInvoice(userID, rawText string, f domain.ExtractedFields) *domain.Invoice {
	now := time.Now().UTC()
	invoiceDate := f.InvoiceDateTime()
	currency := f.CurrencyOrDefault()
	amount := f.Amount
	confidence := 100

	inv := &domain.Invoice{
		ID:               uuid.NewString(),
		UserID:           userID,
		Status:           domain.StatusCompleted,
		InvoiceNumber:    &f.InvoiceNumber,
		VendorName:       &f.VendorName,
		InvoiceDate:      &invoiceDate,
		DueDate:          f.DueDateTime(),
		Amount:           &amount,
		Currency:         &currency,
		LineItems:        f.LineItems,
		RawExtractedText: &rawText,
		ConfidenceScore:  &confidence,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if f.CustomerName != "" {
		customer := f.CustomerName
		inv.CustomerName = &customer
	}
	return inv
}
