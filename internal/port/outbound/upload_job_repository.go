package outbound

import (
	"context"
	"time"

	"docingest/internal/domain/entity"
	"docingest/internal/domain/valueobject"

	"github.com/google/uuid"
)

// JobFilters carries pagination and state filtering for job listings.
type JobFilters struct {
	State  *valueobject.JobState
	Limit  int
	Offset int
}

// JobWithDocument pairs a job with the document it processes, the shape the
// read side works with since every query is ownership-scoped.
type JobWithDocument struct {
	Job      *entity.UploadJob
	Document *entity.Document
}

// UploadJobRepository persists UploadJob entities.
type UploadJobRepository interface {
	// Save inserts a new job row.
	Save(ctx context.Context, job *entity.UploadJob) error

	// Update writes the job's current state, stage, retry bookkeeping, and
	// cost back to its row.
	Update(ctx context.Context, job *entity.UploadJob) error

	// FindByID returns the job or nil when it does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.UploadJob, error)

	// FindWithDocument returns the job joined with its document, or nil when
	// the job does not exist.
	FindWithDocument(ctx context.Context, id uuid.UUID) (*JobWithDocument, error)

	// ListByUser returns the caller's jobs joined with their documents,
	// newest first, plus the total count for pagination metadata.
	ListByUser(ctx context.Context, userID string, filters JobFilters) ([]*JobWithDocument, int, error)

	// Claim atomically moves a queued, unclaimed job to working on behalf of
	// a worker. It returns the claimed job, or ErrJobAlreadyClaimed when
	// another worker won the race, or ErrJobNotFound.
	Claim(ctx context.Context, id uuid.UUID, workerID string) (*entity.UploadJob, error)

	// ReapExpiredClaims returns working jobs whose claim is older than the
	// timeout to the queued state and reports which jobs were reset.
	ReapExpiredClaims(ctx context.Context, claimTimeout time.Duration) ([]*entity.UploadJob, error)
}
