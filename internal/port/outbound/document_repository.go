package outbound

import (
	"context"

	"docingest/internal/domain/entity"

	"github.com/google/uuid"
)

// DocumentRepository persists Document entities.
type DocumentRepository interface {
	// Save inserts a new document row.
	Save(ctx context.Context, document *entity.Document) error

	// Update persists storage-path changes. Documents are otherwise immutable.
	Update(ctx context.Context, document *entity.Document) error

	// FindByID returns the document or nil when it does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)

	// Exists reports whether a document row exists, used for upload dedup.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
