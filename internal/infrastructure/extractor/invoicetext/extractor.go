package invoicetext

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/invoice-ledger/internal/core/domain"
)

// Extractor produces the model input for an uploaded file: the text layer
// for PDFs, a base64 data URL for images.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(_ context.Context, file *domain.InvoiceFile) (string, error) {
	switch file.Kind {
	case domain.FileKindPDF:
		return extractPDFText(file.Content)
	case domain.FileKindImage:
		return fmt.Sprintf("data:%s;base64,%s", file.MimeType, base64.StdEncoding.EncodeToString(file.Content)), nil
	default:
		return "", fmt.Errorf("unsupported file kind: %s", file.Kind)
	}
}

func extractPDFText(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text layer: %w", err)
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text layer: %w", err)
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "", fmt.Errorf("pdf has no extractable text layer")
	}
	return text, nil
}
