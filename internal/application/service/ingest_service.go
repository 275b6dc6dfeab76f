package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"docingest/internal/application/common/slogger"
	"docingest/internal/application/dto"
	"docingest/internal/domain/entity"
	"docingest/internal/domain/errors/domain"
	"docingest/internal/domain/identity"
	"docingest/internal/domain/messaging"
	"docingest/internal/domain/valueobject"
	"docingest/internal/port/outbound"
)

var fileSHA256Pattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// IngestService accepts uploads: it derives the content-addressed document
// identity, dedups against prior identical uploads, creates a queued job,
// and announces it on the work queue.
type IngestService struct {
	idGen        *identity.Generator
	documentRepo outbound.DocumentRepository
	jobRepo      outbound.UploadJobRepository
	eventLog     *EventLogService
	publisher    outbound.MessagePublisher
	metrics      PipelineMetrics
}

// NewIngestService creates a new IngestService.
func NewIngestService(
	idGen *identity.Generator,
	documentRepo outbound.DocumentRepository,
	jobRepo outbound.UploadJobRepository,
	eventLog *EventLogService,
	publisher outbound.MessagePublisher,
	metrics PipelineMetrics,
) *IngestService {
	return &IngestService{
		idGen:        idGen,
		documentRepo: documentRepo,
		jobRepo:      jobRepo,
		eventLog:     eventLog,
		publisher:    publisher,
		metrics:      metrics,
	}
}

// AcceptUpload registers a document and queues processing for it. Uploading
// the same file twice for the same user resolves to the same document row
// rather than creating a duplicate.
func (s *IngestService) AcceptUpload(
	ctx context.Context,
	userID string,
	request dto.AcceptUploadRequest,
) (dto.AcceptUploadResponse, error) {
	if err := validateAcceptUploadRequest(userID, request); err != nil {
		return dto.AcceptUploadResponse{}, err
	}

	documentID, err := s.idGen.DocumentID(userID, request.FileSHA256)
	if err != nil {
		return dto.AcceptUploadResponse{}, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}

	existing, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return dto.AcceptUploadResponse{}, fmt.Errorf("look up document: %w", err)
	}

	deduplicated := existing != nil
	if !deduplicated {
		document, docErr := entity.NewDocument(
			documentID,
			userID,
			request.Filename,
			request.MimeType,
			request.ByteLength,
			request.FileSHA256,
			request.RawStoragePath,
		)
		if docErr != nil {
			return dto.AcceptUploadResponse{}, fmt.Errorf("%w: %s", domain.ErrInvalidInput, docErr)
		}
		if saveErr := s.documentRepo.Save(ctx, document); saveErr != nil {
			// A concurrent upload of the same content wins the race; the
			// content-derived identity makes that a dedup, not a failure.
			if errors.Is(saveErr, domain.ErrDocumentExists) {
				deduplicated = true
			} else {
				return dto.AcceptUploadResponse{}, fmt.Errorf("save document: %w", saveErr)
			}
		}
	}

	job, err := entity.NewUploadJob(documentID)
	if err != nil {
		return dto.AcceptUploadResponse{}, fmt.Errorf("create job: %w", err)
	}
	if err := s.jobRepo.Save(ctx, job); err != nil {
		return dto.AcceptUploadResponse{}, fmt.Errorf("save job: %w", err)
	}

	if err := s.eventLog.LogCode(ctx, job.ID(), documentID, valueobject.CodeUploadAccepted, map[string]any{
		"filename":    request.Filename,
		"mime_type":   request.MimeType,
		"byte_length": request.ByteLength,
	}); err != nil {
		return dto.AcceptUploadResponse{}, err
	}
	if deduplicated {
		if err := s.eventLog.LogCode(ctx, job.ID(), documentID, valueobject.CodeDocumentDeduplicated, map[string]any{
			"file_sha256": request.FileSHA256,
		}); err != nil {
			return dto.AcceptUploadResponse{}, err
		}
		s.metrics.RecordDedup(ctx)
	}

	message, err := messaging.NewJobQueuedMessage(job.ID(), documentID, userID, job.RetryCount())
	if err != nil {
		return dto.AcceptUploadResponse{}, fmt.Errorf("build queue message: %w", err)
	}
	if err := s.publisher.PublishJobQueued(ctx, message); err != nil {
		return dto.AcceptUploadResponse{}, fmt.Errorf("publish queued job: %w", err)
	}

	slogger.Info(ctx, "Upload accepted", slogger.Fields3(
		"document_id", documentID.String(),
		"job_id", job.ID().String(),
		"deduplicated", deduplicated,
	))

	return dto.AcceptUploadResponse{
		DocumentID:   documentID,
		JobID:        job.ID(),
		State:        job.State().String(),
		Stage:        job.Stage().String(),
		Deduplicated: deduplicated,
		CreatedAt:    job.CreatedAt(),
	}, nil
}

func validateAcceptUploadRequest(userID string, request dto.AcceptUploadRequest) error {
	if userID == "" {
		return fmt.Errorf("%w: user ID is required", domain.ErrInvalidInput)
	}
	if request.Filename == "" {
		return fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	}
	if request.ByteLength < 0 {
		return fmt.Errorf("%w: byte length cannot be negative", domain.ErrInvalidInput)
	}
	if !fileSHA256Pattern.MatchString(request.FileSHA256) {
		return fmt.Errorf("%w: file_sha256 must be 64 lowercase hex characters", domain.ErrInvalidInput)
	}
	return nil
}
