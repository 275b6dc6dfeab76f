package repository

import (
	"context"
	"time"

	"docingest/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQLParseArtifactRepository implements the ParseArtifactRepository
// interface. Parse identities are content-derived, so writes are upserts.
type PostgreSQLParseArtifactRepository struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLParseArtifactRepository creates a new PostgreSQL parse
// artifact repository.
func NewPostgreSQLParseArtifactRepository(pool *pgxpool.Pool) *PostgreSQLParseArtifactRepository {
	return &PostgreSQLParseArtifactRepository{pool: pool}
}

// Upsert writes the artifact and reports whether a new row was created.
func (r *PostgreSQLParseArtifactRepository) Upsert(
	ctx context.Context,
	artifact *entity.ParseArtifact,
) (bool, error) {
	if artifact == nil {
		return false, ErrInvalidArgument
	}

	query := `
		INSERT INTO docingest.parse_artifacts (
			id, document_id, parser_name, parser_version,
			parsed_sha256, markdown, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		ON CONFLICT (id) DO NOTHING`

	qi := GetQueryInterface(ctx, r.pool)
	tag, err := qi.Exec(ctx, query,
		artifact.ID(),
		artifact.DocumentID(),
		artifact.ParserName(),
		artifact.ParserVersion(),
		artifact.ParsedSHA256(),
		artifact.Markdown(),
		artifact.CreatedAt(),
	)
	if err != nil {
		return false, WrapError(err, "upsert parse artifact")
	}
	return tag.RowsAffected() > 0, nil
}

// FindByID returns the artifact or nil when it does not exist.
func (r *PostgreSQLParseArtifactRepository) FindByID(
	ctx context.Context,
	id uuid.UUID,
) (*entity.ParseArtifact, error) {
	if id == uuid.Nil {
		return nil, ErrInvalidArgument
	}

	query := `
		SELECT id, document_id, parser_name, parser_version,
			   parsed_sha256, markdown, created_at
		FROM docingest.parse_artifacts
		WHERE id = $1`

	qi := GetQueryInterface(ctx, r.pool)
	row := qi.QueryRow(ctx, query, id)

	var (
		documentID                uuid.UUID
		parserName, parserVersion string
		parsedSHA256, markdown    string
		createdAt                 time.Time
	)
	err := row.Scan(&id, &documentID, &parserName, &parserVersion, &parsedSHA256, &markdown, &createdAt)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, nil
		}
		return nil, WrapError(err, "find parse artifact by ID")
	}

	return entity.RestoreParseArtifact(
		id, documentID, parserName, parserVersion, parsedSHA256, markdown, createdAt,
	), nil
}
