package inbound

import (
	"context"

	"docingest/internal/application/dto"

	"github.com/google/uuid"
)

// JobQueryService is the read/control plane over jobs. Every operation is
// ownership-scoped: a job whose document belongs to another user is
// indistinguishable from a missing one.
type JobQueryService interface {
	// GetJobStatus returns the status view of one job.
	GetJobStatus(ctx context.Context, jobID uuid.UUID, callerUserID string) (dto.JobStatusResponse, error)

	// ListJobs returns the caller's jobs, newest first.
	ListJobs(ctx context.Context, callerUserID string, query dto.JobListQuery) (dto.JobListResponse, error)

	// RetryJob re-queues a retryable or dead-lettered job.
	RetryJob(ctx context.Context, jobID uuid.UUID, callerUserID string) (dto.RetryJobResponse, error)
}

// EventQueryService is the read plane over the audit trail.
type EventQueryService interface {
	// ListDocumentEvents returns a document's audit events, oldest first.
	ListDocumentEvents(ctx context.Context, documentID uuid.UUID, callerUserID string, query dto.EventListQuery) (dto.EventListResponse, error)
}
