package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/invoice-ledger/internal/core/domain"
	"github.com/kirillkom/invoice-ledger/internal/core/ports"
)

// MaxUploadBytes caps an uploaded document payload.
const MaxUploadBytes = 5 << 20

type IngestFileUseCase struct {
	files   ports.InvoiceFileRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestFileUseCase(
	files ports.InvoiceFileRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestFileUseCase {
	return &IngestFileUseCase{
		files:   files,
		storage: storage,
		queue:   queue,
	}
}

// Upload stores one invoice document for a user. Byte-identical content
// already stored for the same user short-circuits to the existing file: it
// is never stored twice and never re-billed against the extraction model.
func (uc *IngestFileUseCase) Upload(
	ctx context.Context,
	userID, filename, mimeType string,
	body io.Reader,
) (*domain.InvoiceFile, bool, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, false, domain.WrapError(domain.ErrUnauthorized, "upload file", fmt.Errorf("missing user id"))
	}

	kind, err := fileKindFromMime(mimeType)
	if err != nil {
		return nil, false, err
	}

	content, err := io.ReadAll(io.LimitReader(body, MaxUploadBytes+1))
	if err != nil {
		return nil, false, fmt.Errorf("read upload body: %w", err)
	}
	if len(content) == 0 {
		return nil, false, domain.WrapError(domain.ErrInvalidInput, "upload file", fmt.Errorf("empty payload"))
	}
	if len(content) > MaxUploadBytes {
		return nil, false, domain.WrapError(domain.ErrInvalidInput, "upload file", fmt.Errorf("payload exceeds %d bytes", MaxUploadBytes))
	}

	existing, err := uc.files.FindByContent(ctx, userID, content)
	if err != nil {
		return nil, false, fmt.Errorf("content dedup lookup: %w", err)
	}
	if existing != nil {
		return existing, true, nil
	}

	file := &domain.InvoiceFile{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     filename,
		Kind:      kind,
		MimeType:  mimeType,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	storageKey := fmt.Sprintf("%s_%s", file.ID, sanitizeFilename(filename))
	if err := uc.storage.Save(ctx, storageKey, bytes.NewReader(content)); err != nil {
		return nil, false, fmt.Errorf("archive original: %w", err)
	}

	if err := uc.files.Create(ctx, file); err != nil {
		return nil, false, fmt.Errorf("create invoice file: %w", err)
	}

	if err := uc.queue.PublishFileIngested(ctx, file.ID); err != nil {
		return nil, false, fmt.Errorf("publish ingestion event: %w", err)
	}

	return file, false, nil
}

func fileKindFromMime(mimeType string) (domain.FileKind, error) {
	switch mimeType {
	case "image/jpeg", "image/png":
		return domain.FileKindImage, nil
	case "application/pdf":
		return domain.FileKindPDF, nil
	default:
		return "", domain.WrapError(domain.ErrInvalidInput, "upload file", fmt.Errorf("unsupported content type %q", mimeType))
	}
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
