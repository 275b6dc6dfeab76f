package repository

import (
	"context"
	"time"

	"docingest/internal/domain/entity"
	"docingest/internal/domain/errors/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQLDocumentRepository implements the DocumentRepository interface.
type PostgreSQLDocumentRepository struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLDocumentRepository creates a new PostgreSQL document repository.
func NewPostgreSQLDocumentRepository(pool *pgxpool.Pool) *PostgreSQLDocumentRepository {
	return &PostgreSQLDocumentRepository{pool: pool}
}

// Save inserts a new document row. Document IDs are content-derived, so a
// unique violation here means the same user already uploaded this content.
func (r *PostgreSQLDocumentRepository) Save(ctx context.Context, document *entity.Document) error {
	if document == nil {
		return ErrInvalidArgument
	}

	query := `
		INSERT INTO docingest.documents (
			id, user_id, filename, mime_type, byte_length,
			file_sha256, raw_storage_path, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)`

	qi := GetQueryInterface(ctx, r.pool)
	_, err := qi.Exec(ctx, query,
		document.ID(),
		document.UserID(),
		document.Filename(),
		document.MimeType(),
		document.ByteLength(),
		document.FileSHA256(),
		document.RawStoragePath(),
		document.CreatedAt(),
		document.UpdatedAt(),
	)
	if err != nil {
		if IsUniqueViolationError(err) {
			return domain.ErrDocumentExists
		}
		return WrapError(err, "save document")
	}
	return nil
}

// Update persists storage-path changes.
func (r *PostgreSQLDocumentRepository) Update(ctx context.Context, document *entity.Document) error {
	if document == nil {
		return ErrInvalidArgument
	}

	query := `
		UPDATE docingest.documents
		SET raw_storage_path = $2, updated_at = $3
		WHERE id = $1`

	qi := GetQueryInterface(ctx, r.pool)
	tag, err := qi.Exec(ctx, query, document.ID(), document.RawStoragePath(), document.UpdatedAt())
	if err != nil {
		return WrapError(err, "update document")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// FindByID returns the document or nil when it does not exist.
func (r *PostgreSQLDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	if id == uuid.Nil {
		return nil, ErrInvalidArgument
	}

	query := `
		SELECT id, user_id, filename, mime_type, byte_length,
			   file_sha256, raw_storage_path, created_at, updated_at
		FROM docingest.documents
		WHERE id = $1`

	qi := GetQueryInterface(ctx, r.pool)
	row := qi.QueryRow(ctx, query, id)

	var (
		userID, filename, mimeType string
		fileSHA256, rawStoragePath string
		byteLength                 int64
		createdAt, updatedAt       time.Time
	)
	err := row.Scan(
		&id, &userID, &filename, &mimeType, &byteLength,
		&fileSHA256, &rawStoragePath, &createdAt, &updatedAt,
	)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, nil
		}
		return nil, WrapError(err, "find document by ID")
	}

	return entity.RestoreDocument(
		id, userID, filename, mimeType, byteLength,
		fileSHA256, rawStoragePath, createdAt, updatedAt,
	), nil
}

// Exists reports whether a document row exists.
func (r *PostgreSQLDocumentRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	if id == uuid.Nil {
		return false, ErrInvalidArgument
	}

	query := `SELECT EXISTS(SELECT 1 FROM docingest.documents WHERE id = $1)`

	qi := GetQueryInterface(ctx, r.pool)
	var exists bool
	if err := qi.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, WrapError(err, "check document existence")
	}
	return exists, nil
}
