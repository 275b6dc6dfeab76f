package repository

import (
	"context"
	"time"

	"docingest/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQLChunkRepository implements the ChunkRepository interface. Chunk
// identities are stable across reprocessing, so batch writes are idempotent
// upserts keyed on the content-derived ID.
type PostgreSQLChunkRepository struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLChunkRepository creates a new PostgreSQL chunk repository.
func NewPostgreSQLChunkRepository(pool *pgxpool.Pool) *PostgreSQLChunkRepository {
	return &PostgreSQLChunkRepository{pool: pool}
}

// UpsertChunks writes a batch of chunks, replacing rows whose IDs already
// exist. The batch goes through pgx's pipeline so one round trip covers the
// whole buffer.
func (r *PostgreSQLChunkRepository) UpsertChunks(ctx context.Context, chunks []*entity.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	query := `
		INSERT INTO docingest.chunks (
			id, document_id, chunker_name, chunker_version, ordinal,
			text_content, text_sha256,
			embedding_model, embedding_model_version, embedding_dimensions,
			created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
		ON CONFLICT (id) DO UPDATE SET
			text_content = EXCLUDED.text_content,
			text_sha256 = EXCLUDED.text_sha256,
			embedding_model = EXCLUDED.embedding_model,
			embedding_model_version = EXCLUDED.embedding_model_version,
			embedding_dimensions = EXCLUDED.embedding_dimensions`

	batch := &pgx.Batch{}
	for _, chunk := range chunks {
		if chunk == nil {
			return ErrInvalidArgument
		}
		var model, modelVersion *string
		var dimensions *int
		if embedding := chunk.Embedding(); embedding != nil {
			model = &embedding.ModelName
			modelVersion = &embedding.ModelVersion
			dimensions = &embedding.Dimensions
		}
		batch.Queue(query,
			chunk.ID(),
			chunk.DocumentID(),
			chunk.ChunkerName(),
			chunk.ChunkerVersion(),
			chunk.Ordinal(),
			chunk.Text(),
			chunk.TextSHA256(),
			model,
			modelVersion,
			dimensions,
			chunk.CreatedAt(),
		)
	}

	qi := GetQueryInterface(ctx, r.pool)
	results := qi.SendBatch(ctx, batch)
	defer results.Close()
	for range chunks {
		if _, err := results.Exec(); err != nil {
			return WrapError(err, "upsert chunks")
		}
	}
	return nil
}

// FindByDocumentID returns a document's chunks ordered by ordinal.
func (r *PostgreSQLChunkRepository) FindByDocumentID(
	ctx context.Context,
	documentID uuid.UUID,
) ([]*entity.Chunk, error) {
	if documentID == uuid.Nil {
		return nil, ErrInvalidArgument
	}

	query := `
		SELECT id, document_id, chunker_name, chunker_version, ordinal,
			   text_content, text_sha256,
			   embedding_model, embedding_model_version, embedding_dimensions,
			   created_at
		FROM docingest.chunks
		WHERE document_id = $1
		ORDER BY ordinal ASC`

	qi := GetQueryInterface(ctx, r.pool)
	rows, err := qi.Query(ctx, query, documentID)
	if err != nil {
		return nil, WrapError(err, "find chunks by document ID")
	}
	defer rows.Close()

	var chunks []*entity.Chunk
	for rows.Next() {
		var (
			id                          uuid.UUID
			chunkerName, chunkerVersion string
			ordinal                     int
			text, textSHA256            string
			model, modelVersion         *string
			dimensions                  *int
			createdAt                   time.Time
		)
		err := rows.Scan(
			&id, &documentID, &chunkerName, &chunkerVersion, &ordinal,
			&text, &textSHA256, &model, &modelVersion, &dimensions, &createdAt,
		)
		if err != nil {
			return nil, WrapError(err, "scan chunk row")
		}

		var embedding *entity.EmbeddingInfo
		if model != nil && dimensions != nil {
			version := ""
			if modelVersion != nil {
				version = *modelVersion
			}
			embedding = &entity.EmbeddingInfo{
				ModelName:    *model,
				ModelVersion: version,
				Dimensions:   *dimensions,
			}
		}
		chunks = append(chunks, entity.RestoreChunk(
			id, documentID, chunkerName, chunkerVersion, ordinal,
			text, textSHA256, embedding, createdAt,
		))
	}
	if err := rows.Err(); err != nil {
		return nil, WrapError(err, "iterate chunk rows")
	}
	return chunks, nil
}
