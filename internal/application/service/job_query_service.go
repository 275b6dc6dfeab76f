package service

import (
	"context"
	"fmt"

	"docingest/internal/application/common/slogger"
	"docingest/internal/application/dto"
	"docingest/internal/domain/entity"
	"docingest/internal/domain/errors/domain"
	"docingest/internal/domain/messaging"
	"docingest/internal/domain/valueobject"
	"docingest/internal/port/outbound"

	"github.com/google/uuid"
)

const maxListLimit = 100

// JobQueryService serves the read/control plane over jobs. Ownership checks
// deliberately collapse into not-found: a caller can never distinguish
// another user's job from a missing one.
type JobQueryService struct {
	jobRepo   outbound.UploadJobRepository
	eventLog  *EventLogService
	publisher outbound.MessagePublisher
}

// NewJobQueryService creates a new JobQueryService.
func NewJobQueryService(
	jobRepo outbound.UploadJobRepository,
	eventLog *EventLogService,
	publisher outbound.MessagePublisher,
) *JobQueryService {
	return &JobQueryService{
		jobRepo:   jobRepo,
		eventLog:  eventLog,
		publisher: publisher,
	}
}

// GetJobStatus returns the status view of one job owned by the caller.
func (s *JobQueryService) GetJobStatus(
	ctx context.Context,
	jobID uuid.UUID,
	callerUserID string,
) (dto.JobStatusResponse, error) {
	jwd, err := s.findOwnedJob(ctx, jobID, callerUserID)
	if err != nil {
		return dto.JobStatusResponse{}, err
	}
	return jobStatusFromEntity(jwd.Job), nil
}

// ListJobs returns the caller's jobs, newest first.
func (s *JobQueryService) ListJobs(
	ctx context.Context,
	callerUserID string,
	query dto.JobListQuery,
) (dto.JobListResponse, error) {
	if callerUserID == "" {
		return dto.JobListResponse{}, fmt.Errorf("%w: user ID is required", domain.ErrInvalidInput)
	}

	limit := query.Limit
	if limit <= 0 {
		limit = dto.DefaultJobListQuery().Limit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	filters := outbound.JobFilters{Limit: limit, Offset: offset}
	if query.State != "" {
		state, stateErr := valueobject.NewJobState(query.State)
		if stateErr != nil {
			return dto.JobListResponse{}, fmt.Errorf("%w: %s", domain.ErrInvalidInput, stateErr)
		}
		filters.State = &state
	}

	rows, total, err := s.jobRepo.ListByUser(ctx, callerUserID, filters)
	if err != nil {
		return dto.JobListResponse{}, fmt.Errorf("list jobs: %w", err)
	}

	jobs := make([]dto.JobStatusResponse, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, jobStatusFromEntity(row.Job))
	}

	return dto.JobListResponse{
		Jobs: jobs,
		Pagination: dto.PaginationResponse{
			Limit:   limit,
			Offset:  offset,
			Total:   total,
			HasMore: offset+len(jobs) < total,
		},
	}, nil
}

// RetryJob re-queues a retryable or dead-lettered job on the caller's behalf.
// Unlike automatic requeueing, a manual retry resets the retry budget.
func (s *JobQueryService) RetryJob(
	ctx context.Context,
	jobID uuid.UUID,
	callerUserID string,
) (dto.RetryJobResponse, error) {
	jwd, err := s.findOwnedJob(ctx, jobID, callerUserID)
	if err != nil {
		return dto.RetryJobResponse{}, err
	}
	job := jwd.Job

	if !job.State().IsRetryEligible() {
		return dto.RetryJobResponse{}, fmt.Errorf(
			"%w: job is %s", domain.ErrJobNotRetryable, job.State(),
		)
	}
	if err := job.ManualRetry(); err != nil {
		return dto.RetryJobResponse{}, fmt.Errorf("%w: %s", domain.ErrJobNotRetryable, err)
	}
	if err := s.jobRepo.Update(ctx, job); err != nil {
		return dto.RetryJobResponse{}, fmt.Errorf("update job: %w", err)
	}

	if err := s.eventLog.LogCode(ctx, job.ID(), job.DocumentID(), valueobject.CodeRetryScheduled, map[string]any{
		"trigger":     "manual",
		"retry_count": job.RetryCount(),
	}); err != nil {
		return dto.RetryJobResponse{}, err
	}

	message, err := messaging.NewJobQueuedMessage(job.ID(), job.DocumentID(), callerUserID, job.RetryCount())
	if err != nil {
		return dto.RetryJobResponse{}, fmt.Errorf("build queue message: %w", err)
	}
	if err := s.publisher.PublishJobQueued(ctx, message); err != nil {
		return dto.RetryJobResponse{}, fmt.Errorf("publish queued job: %w", err)
	}

	slogger.Info(ctx, "Job manually retried", slogger.Fields2(
		"job_id", job.ID().String(),
		"user_id", callerUserID,
	))

	return dto.RetryJobResponse{
		Message:  "job queued for retry",
		JobID:    job.ID(),
		NewState: job.State().String(),
	}, nil
}

// findOwnedJob loads a job and enforces ownership. Missing jobs and jobs
// owned by someone else both come back as ErrJobNotFound.
func (s *JobQueryService) findOwnedJob(
	ctx context.Context,
	jobID uuid.UUID,
	callerUserID string,
) (*outbound.JobWithDocument, error) {
	if callerUserID == "" {
		return nil, fmt.Errorf("%w: user ID is required", domain.ErrInvalidInput)
	}
	if jobID == uuid.Nil {
		return nil, fmt.Errorf("%w: job ID is required", domain.ErrInvalidInput)
	}

	jwd, err := s.jobRepo.FindWithDocument(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("find job: %w", err)
	}
	if jwd == nil || !jwd.Document.OwnedBy(callerUserID) {
		return nil, domain.ErrJobNotFound
	}
	return jwd, nil
}

func jobStatusFromEntity(job *entity.UploadJob) dto.JobStatusResponse {
	resp := dto.JobStatusResponse{
		JobID:      job.ID(),
		DocumentID: job.DocumentID(),
		Stage:      job.Stage().String(),
		State:      job.State().String(),
		RetryCount: job.RetryCount(),
		Progress: dto.JobProgress{
			StagePct: job.Stage().ProgressPercent(),
			TotalPct: job.ProgressPercent(),
		},
		CostCents: job.CostCents(),
		UpdatedAt: job.UpdatedAt(),
	}
	if lastErr := job.LastError(); lastErr != nil {
		resp.LastError = &dto.JobLastError{
			Code:      lastErr.Code,
			Message:   lastErr.Message,
			Timestamp: lastErr.Timestamp,
			Details:   lastErr.Details,
		}
	}
	return resp
}

// EventQueryService serves the read plane over the audit trail.
type EventQueryService struct {
	eventRepo    outbound.EventRepository
	documentRepo outbound.DocumentRepository
}

// NewEventQueryService creates a new EventQueryService.
func NewEventQueryService(
	eventRepo outbound.EventRepository,
	documentRepo outbound.DocumentRepository,
) *EventQueryService {
	return &EventQueryService{
		eventRepo:    eventRepo,
		documentRepo: documentRepo,
	}
}

// ListDocumentEvents returns a document's audit events, oldest first. A
// document owned by another user reads as not found.
func (s *EventQueryService) ListDocumentEvents(
	ctx context.Context,
	documentID uuid.UUID,
	callerUserID string,
	query dto.EventListQuery,
) (dto.EventListResponse, error) {
	if callerUserID == "" {
		return dto.EventListResponse{}, fmt.Errorf("%w: user ID is required", domain.ErrInvalidInput)
	}
	if documentID == uuid.Nil {
		return dto.EventListResponse{}, fmt.Errorf("%w: document ID is required", domain.ErrInvalidInput)
	}

	document, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return dto.EventListResponse{}, fmt.Errorf("find document: %w", err)
	}
	if document == nil || !document.OwnedBy(callerUserID) {
		return dto.EventListResponse{}, domain.ErrDocumentNotFound
	}

	limit := query.Limit
	if limit <= 0 {
		limit = dto.DefaultEventListQuery().Limit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	events, total, err := s.eventRepo.FindByDocumentID(ctx, documentID, outbound.EventFilters{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return dto.EventListResponse{}, fmt.Errorf("list events: %w", err)
	}

	responses := make([]dto.EventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, dto.EventResponse{
			EventID:       event.ID(),
			JobID:         event.JobID(),
			DocumentID:    event.DocumentID(),
			Type:          event.Type().String(),
			Severity:      event.Severity().String(),
			Code:          event.Code().String(),
			Payload:       event.Payload(),
			CorrelationID: event.CorrelationID(),
			Timestamp:     event.Timestamp(),
		})
	}

	return dto.EventListResponse{
		Events: responses,
		Pagination: dto.PaginationResponse{
			Limit:   limit,
			Offset:  offset,
			Total:   total,
			HasMore: offset+len(responses) < total,
		},
	}, nil
}
