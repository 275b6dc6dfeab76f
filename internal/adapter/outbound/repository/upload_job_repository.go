package repository

import (
	"context"
	"fmt"
	"time"

	"docingest/internal/domain/entity"
	"docingest/internal/domain/errors/domain"
	"docingest/internal/domain/valueobject"
	"docingest/internal/port/outbound"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const jobColumns = `id, document_id, state, stage, retry_count, last_error,
	   claimed_by, claimed_at, cost_cents, created_at, updated_at`

// PostgreSQLUploadJobRepository implements the UploadJobRepository interface.
type PostgreSQLUploadJobRepository struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLUploadJobRepository creates a new PostgreSQL upload job repository.
func NewPostgreSQLUploadJobRepository(pool *pgxpool.Pool) *PostgreSQLUploadJobRepository {
	return &PostgreSQLUploadJobRepository{pool: pool}
}

// Save inserts a new job row.
func (r *PostgreSQLUploadJobRepository) Save(ctx context.Context, job *entity.UploadJob) error {
	if job == nil {
		return ErrInvalidArgument
	}

	lastError, err := marshalLastError(job.LastError())
	if err != nil {
		return err
	}

	query := `
		INSERT INTO docingest.upload_jobs (
			id, document_id, state, stage, retry_count, last_error,
			claimed_by, claimed_at, cost_cents, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)`

	qi := GetQueryInterface(ctx, r.pool)
	_, err = qi.Exec(ctx, query,
		job.ID(),
		job.DocumentID(),
		job.State().String(),
		job.Stage().String(),
		job.RetryCount(),
		lastError,
		job.ClaimedBy(),
		job.ClaimedAt(),
		job.CostCents(),
		job.CreatedAt(),
		job.UpdatedAt(),
	)
	if err != nil {
		return WrapError(err, "save upload job")
	}
	return nil
}

// Update writes the job's current state, stage, retry bookkeeping, and cost
// back to its row.
func (r *PostgreSQLUploadJobRepository) Update(ctx context.Context, job *entity.UploadJob) error {
	if job == nil {
		return ErrInvalidArgument
	}

	lastError, err := marshalLastError(job.LastError())
	if err != nil {
		return err
	}

	query := `
		UPDATE docingest.upload_jobs
		SET state = $2, stage = $3, retry_count = $4, last_error = $5,
			claimed_by = $6, claimed_at = $7, cost_cents = $8, updated_at = $9
		WHERE id = $1`

	qi := GetQueryInterface(ctx, r.pool)
	tag, err := qi.Exec(ctx, query,
		job.ID(),
		job.State().String(),
		job.Stage().String(),
		job.RetryCount(),
		lastError,
		job.ClaimedBy(),
		job.ClaimedAt(),
		job.CostCents(),
		job.UpdatedAt(),
	)
	if err != nil {
		return WrapError(err, "update upload job")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// FindByID returns the job or nil when it does not exist.
func (r *PostgreSQLUploadJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.UploadJob, error) {
	if id == uuid.Nil {
		return nil, ErrInvalidArgument
	}

	query := `
		SELECT ` + jobColumns + `
		FROM docingest.upload_jobs
		WHERE id = $1`

	qi := GetQueryInterface(ctx, r.pool)
	job, err := scanJob(qi.QueryRow(ctx, query, id))
	if err != nil {
		if IsNotFoundError(err) {
			return nil, nil
		}
		return nil, WrapError(err, "find upload job by ID")
	}
	return job, nil
}

// FindWithDocument returns the job joined with its document, or nil when the
// job does not exist.
func (r *PostgreSQLUploadJobRepository) FindWithDocument(
	ctx context.Context,
	id uuid.UUID,
) (*outbound.JobWithDocument, error) {
	if id == uuid.Nil {
		return nil, ErrInvalidArgument
	}

	query := `
		SELECT j.id, j.document_id, j.state, j.stage, j.retry_count, j.last_error,
			   j.claimed_by, j.claimed_at, j.cost_cents, j.created_at, j.updated_at,
			   d.user_id, d.filename, d.mime_type, d.byte_length,
			   d.file_sha256, d.raw_storage_path, d.created_at, d.updated_at
		FROM docingest.upload_jobs j
		JOIN docingest.documents d ON d.id = j.document_id
		WHERE j.id = $1`

	qi := GetQueryInterface(ctx, r.pool)
	jwd, err := scanJobWithDocument(qi.QueryRow(ctx, query, id))
	if err != nil {
		if IsNotFoundError(err) {
			return nil, nil
		}
		return nil, WrapError(err, "find upload job with document")
	}
	return jwd, nil
}

// ListByUser returns the caller's jobs joined with their documents, newest
// first, plus the total count.
func (r *PostgreSQLUploadJobRepository) ListByUser(
	ctx context.Context,
	userID string,
	filters outbound.JobFilters,
) ([]*outbound.JobWithDocument, int, error) {
	if userID == "" {
		return nil, 0, ErrInvalidArgument
	}
	if filters.Limit <= 0 || filters.Offset < 0 {
		return nil, 0, ErrInvalidArgument
	}

	baseQuery := `
		FROM docingest.upload_jobs j
		JOIN docingest.documents d ON d.id = j.document_id
		WHERE d.user_id = $1`
	args := []interface{}{userID}

	whereClause := ""
	if filters.State != nil {
		whereClause = " AND j.state = $2"
		args = append(args, filters.State.String())
	}

	selectColumns := `
		SELECT j.id, j.document_id, j.state, j.stage, j.retry_count, j.last_error,
			   j.claimed_by, j.claimed_at, j.cost_cents, j.created_at, j.updated_at,
			   d.user_id, d.filename, d.mime_type, d.byte_length,
			   d.file_sha256, d.raw_storage_path, d.created_at, d.updated_at`

	qi := GetQueryInterface(ctx, r.pool)
	totalCount, rows, err := executeCountAndDataQuery(
		ctx, qi, baseQuery, selectColumns, whereClause,
		"ORDER BY j.created_at DESC", args, filters.Limit, filters.Offset,
	)
	if err != nil {
		return nil, 0, err
	}
	if rows == nil {
		return nil, totalCount, nil
	}
	defer rows.Close()

	var results []*outbound.JobWithDocument
	for rows.Next() {
		jwd, scanErr := scanJobWithDocument(rows)
		if scanErr != nil {
			return nil, 0, WrapError(scanErr, "scan upload job row")
		}
		results = append(results, jwd)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, WrapError(err, "iterate upload job rows")
	}
	return results, totalCount, nil
}

// Claim atomically moves a queued, unclaimed job to working on behalf of a
// worker. The WHERE clause is the lock: a concurrent claimer's UPDATE
// matches zero rows and loses.
func (r *PostgreSQLUploadJobRepository) Claim(
	ctx context.Context,
	id uuid.UUID,
	workerID string,
) (*entity.UploadJob, error) {
	if id == uuid.Nil || workerID == "" {
		return nil, ErrInvalidArgument
	}

	query := `
		UPDATE docingest.upload_jobs
		SET state = 'working', claimed_by = $2, claimed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND state = 'queued' AND claimed_by IS NULL
		RETURNING ` + jobColumns

	qi := GetQueryInterface(ctx, r.pool)
	job, err := scanJob(qi.QueryRow(ctx, query, id, workerID))
	if err != nil {
		if !IsNotFoundError(err) {
			return nil, WrapError(err, "claim upload job")
		}
		// Zero rows: either the job does not exist or it is not claimable.
		exists, existsErr := r.jobExists(ctx, id)
		if existsErr != nil {
			return nil, existsErr
		}
		if !exists {
			return nil, domain.ErrJobNotFound
		}
		return nil, domain.ErrJobAlreadyClaimed
	}
	return job, nil
}

// ReapExpiredClaims returns working jobs whose claim is older than the
// timeout to the queued state and reports which jobs were reset. The retry
// count does not advance: a crashed worker is not the job's fault.
func (r *PostgreSQLUploadJobRepository) ReapExpiredClaims(
	ctx context.Context,
	claimTimeout time.Duration,
) ([]*entity.UploadJob, error) {
	if claimTimeout <= 0 {
		return nil, ErrInvalidArgument
	}

	query := `
		UPDATE docingest.upload_jobs
		SET state = 'queued', stage = 'queued', claimed_by = NULL, claimed_at = NULL,
			updated_at = NOW()
		WHERE state = 'working' AND claimed_at < NOW() - $1::interval
		RETURNING ` + jobColumns

	interval := fmt.Sprintf("%d milliseconds", claimTimeout.Milliseconds())
	qi := GetQueryInterface(ctx, r.pool)
	rows, err := qi.Query(ctx, query, interval)
	if err != nil {
		return nil, WrapError(err, "reap expired claims")
	}
	defer rows.Close()

	var reaped []*entity.UploadJob
	for rows.Next() {
		job, scanErr := scanJob(rows)
		if scanErr != nil {
			return nil, WrapError(scanErr, "scan reaped job")
		}
		reaped = append(reaped, job)
	}
	if err := rows.Err(); err != nil {
		return nil, WrapError(err, "iterate reaped jobs")
	}
	return reaped, nil
}

func (r *PostgreSQLUploadJobRepository) jobExists(ctx context.Context, id uuid.UUID) (bool, error) {
	qi := GetQueryInterface(ctx, r.pool)
	var exists bool
	err := qi.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM docingest.upload_jobs WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, WrapError(err, "check upload job existence")
	}
	return exists, nil
}

func marshalLastError(jobErr *valueobject.JobError) ([]byte, error) {
	if jobErr == nil {
		return nil, nil
	}
	payload, err := jobErr.MarshalJSONPayload()
	if err != nil {
		return nil, fmt.Errorf("marshal last_error: %w", err)
	}
	return payload, nil
}

func scanJob(row pgx.Row) (*entity.UploadJob, error) {
	var (
		id, documentID       uuid.UUID
		stateStr, stageStr   string
		retryCount           int
		lastErrorPayload     []byte
		claimedBy            *string
		claimedAt            *time.Time
		costCents            int64
		createdAt, updatedAt time.Time
	)
	err := row.Scan(
		&id, &documentID, &stateStr, &stageStr, &retryCount, &lastErrorPayload,
		&claimedBy, &claimedAt, &costCents, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	return restoreJob(
		id, documentID, stateStr, stageStr, retryCount, lastErrorPayload,
		claimedBy, claimedAt, costCents, createdAt, updatedAt,
	)
}

func scanJobWithDocument(row pgx.Row) (*outbound.JobWithDocument, error) {
	var (
		id, documentID             uuid.UUID
		stateStr, stageStr         string
		retryCount                 int
		lastErrorPayload           []byte
		claimedBy                  *string
		claimedAt                  *time.Time
		costCents                  int64
		createdAt, updatedAt       time.Time
		userID, filename, mimeType string
		byteLength                 int64
		fileSHA256, rawStorage     string
		docCreatedAt, docUpdatedAt time.Time
	)
	err := row.Scan(
		&id, &documentID, &stateStr, &stageStr, &retryCount, &lastErrorPayload,
		&claimedBy, &claimedAt, &costCents, &createdAt, &updatedAt,
		&userID, &filename, &mimeType, &byteLength,
		&fileSHA256, &rawStorage, &docCreatedAt, &docUpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	job, err := restoreJob(
		id, documentID, stateStr, stageStr, retryCount, lastErrorPayload,
		claimedBy, claimedAt, costCents, createdAt, updatedAt,
	)
	if err != nil {
		return nil, err
	}
	document := entity.RestoreDocument(
		documentID, userID, filename, mimeType, byteLength,
		fileSHA256, rawStorage, docCreatedAt, docUpdatedAt,
	)
	return &outbound.JobWithDocument{Job: job, Document: document}, nil
}

func restoreJob(
	id, documentID uuid.UUID,
	stateStr, stageStr string,
	retryCount int,
	lastErrorPayload []byte,
	claimedBy *string,
	claimedAt *time.Time,
	costCents int64,
	createdAt, updatedAt time.Time,
) (*entity.UploadJob, error) {
	state, err := valueobject.NewJobState(stateStr)
	if err != nil {
		return nil, fmt.Errorf("restore job state: %w", err)
	}
	stage, err := valueobject.NewJobStage(stageStr)
	if err != nil {
		return nil, fmt.Errorf("restore job stage: %w", err)
	}

	var lastError *valueobject.JobError
	if len(lastErrorPayload) > 0 {
		jobErr, unmarshalErr := valueobject.UnmarshalJobError(lastErrorPayload)
		if unmarshalErr != nil {
			return nil, fmt.Errorf("restore last_error: %w", unmarshalErr)
		}
		lastError = &jobErr
	}

	return entity.RestoreUploadJob(
		id, documentID, state, stage, retryCount, lastError,
		claimedBy, claimedAt, costCents, createdAt, updatedAt,
	), nil
}
