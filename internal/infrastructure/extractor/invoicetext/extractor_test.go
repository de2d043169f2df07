package invoicetext

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/kirillkom/invoice-ledger/internal/core/domain"
)

func TestExtractImageBuildsDataURL(t *testing.T) {
	content := []byte{0x89, 0x50, 0x4e, 0x47}
	file := &domain.InvoiceFile{
		ID:       "f-1",
		Kind:     domain.FileKindImage,
		MimeType: "image/png",
		Content:  content,
	}

	text, err := New().Extract(context.Background(), file)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	want := "data:image/png;base64," + base64.StdEncoding.EncodeToString(content)
	if text != want {
		t.Fatalf("Extract() = %q, want %q", text, want)
	}
}

func TestExtractRejectsMalformedPDF(t *testing.T) {
	file := &domain.InvoiceFile{
		ID:       "f-2",
		Kind:     domain.FileKindPDF,
		MimeType: "application/pdf",
		Content:  []byte("not a pdf"),
	}

	_, err := New().Extract(context.Background(), file)
	if err == nil {
		t.Fatalf("expected error for malformed pdf")
	}
}

func TestExtractRejectsUnknownKind(t *testing.T) {
	file := &domain.InvoiceFile{ID: "f-3", Kind: domain.FileKind("audio")}
	_, err := New().Extract(context.Background(), file)
	if err == nil || !strings.Contains(err.Error(), "unsupported file kind") {
		t.Fatalf("expected unsupported kind error, got %v", err)
	}
}
