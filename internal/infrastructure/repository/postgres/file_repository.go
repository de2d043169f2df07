package postgres

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/kirillkom/invoice-ledger/internal/core/domain"
)

type InvoiceFileRepository struct {
	db *sql.DB
}

func NewInvoiceFileRepository(db *sql.DB) *InvoiceFileRepository {
	return &InvoiceFileRepository{db: db}
}

func contentDigest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func (r *InvoiceFileRepository) Create(ctx context.Context, file *domain.InvoiceFile) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO invoice_files (
	id, user_id, title, kind, mime_type, content, content_sha, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		file.ID, file.UserID, file.Title, string(file.Kind), file.MimeType,
		file.Content, contentDigest(file.Content), file.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invoice file: %w", err)
	}
	return nil
}

func (r *InvoiceFileRepository) GetByID(ctx context.Context, id string) (*domain.InvoiceFile, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, title, kind, mime_type, content, created_at
FROM invoice_files
WHERE id = $1
`, id)

	file, err := scanInvoiceFile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrFileNotFound, "get invoice file", fmt.Errorf("id=%s", id))
		}
		return nil, err
	}
	return file, nil
}

// ListByUser omits file content; list views only need metadata.
func (r *InvoiceFileRepository) ListByUser(ctx context.Context, userID string) ([]domain.InvoiceFile, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, title, kind, mime_type, created_at
FROM invoice_files
WHERE user_id = $1
ORDER BY created_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("query invoice files: %w", err)
	}
	defer rows.Close()

	var files []domain.InvoiceFile
	for rows.Next() {
		var file domain.InvoiceFile
		var kind string
		if err := rows.Scan(&file.ID, &file.UserID, &file.Title, &kind, &file.MimeType, &file.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan invoice file: %w", err)
		}
		file.Kind = domain.FileKind(kind)
		files = append(files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoice files: %w", err)
	}
	return files, nil
}

// FindByContent is the content dedup lookup. The indexed digest narrows the
// candidate; the stored bytes are compared to keep exact byte-equality
// semantics. No match returns (nil, nil).
func (r *InvoiceFileRepository) FindByContent(ctx context.Context, userID string, content []byte) (*domain.InvoiceFile, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, title, kind, mime_type, content, created_at
FROM invoice_files
WHERE user_id = $1 AND content_sha = $2
LIMIT 1
`, userID, contentDigest(content))

	file, err := scanInvoiceFile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if !bytes.Equal(file.Content, content) {
		return nil, nil
	}
	return file, nil
}

func scanInvoiceFile(row rowScanner) (*domain.InvoiceFile, error) {
	var file domain.InvoiceFile
	var kind string

	err := row.Scan(&file.ID, &file.UserID, &file.Title, &kind, &file.MimeType, &file.Content, &file.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan invoice file: %w", err)
	}
	file.Kind = domain.FileKind(kind)
	return &file, nil
}
