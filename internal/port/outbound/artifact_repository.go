package outbound

import (
	"context"

	"docingest/internal/domain/entity"

	"github.com/google/uuid"
)

// ParseArtifactRepository persists parse artifacts. Identities are
// content-derived, so writes are upserts: reproducing an identical parse
// dedups against the prior row instead of duplicating it.
type ParseArtifactRepository interface {
	// Upsert writes the artifact and reports whether a new row was created
	// (false means an identical artifact already existed).
	Upsert(ctx context.Context, artifact *entity.ParseArtifact) (bool, error)

	// FindByID returns the artifact or nil when it does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ParseArtifact, error)
}

// ChunkRepository persists chunks. Chunk identity is stable across
// reprocessing with the same chunker and version, so buffered writes are
// idempotent upserts.
type ChunkRepository interface {
	// UpsertChunks writes a batch of chunks, replacing rows whose
	// content-derived IDs already exist.
	UpsertChunks(ctx context.Context, chunks []*entity.Chunk) error

	// FindByDocumentID returns a document's chunks ordered by ordinal.
	FindByDocumentID(ctx context.Context, documentID uuid.UUID) ([]*entity.Chunk, error)
}
