package service

import (
	"context"
	"fmt"

	"docingest/internal/application/common/logging"
	"docingest/internal/application/common/slogger"
	"docingest/internal/domain/entity"
	"docingest/internal/domain/errors/domain"
	"docingest/internal/domain/valueobject"
	"docingest/internal/port/outbound"

	"github.com/google/uuid"
)

// EventLogService appends schema-constrained audit events. Code, type, and
// severity are validated against their closed vocabularies before anything
// is written; unrecognized values fail fast rather than coercing to an
// "unknown" bucket.
type EventLogService struct {
	eventRepo outbound.EventRepository
	jobRepo   outbound.UploadJobRepository
}

// NewEventLogService creates a new EventLogService.
func NewEventLogService(eventRepo outbound.EventRepository, jobRepo outbound.UploadJobRepository) *EventLogService {
	return &EventLogService{
		eventRepo: eventRepo,
		jobRepo:   jobRepo,
	}
}

// LogEvent validates and appends an event, resolving the document axis from
// the job. The stored severity is whatever the caller passes; the code's
// default is a convention, not a storage rule.
func (s *EventLogService) LogEvent(
	ctx context.Context,
	jobID uuid.UUID,
	code string,
	eventType string,
	severity string,
	payload map[string]any,
	correlationID *string,
) error {
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("resolve job for event: %w", err)
	}
	if job == nil {
		return domain.ErrEventJobUnresolvable
	}
	return s.LogEventForDocument(ctx, jobID, job.DocumentID(), code, eventType, severity, payload, correlationID)
}

// LogEventForDocument appends an event when the caller already holds both
// axes, skipping the job lookup.
func (s *EventLogService) LogEventForDocument(
	ctx context.Context,
	jobID uuid.UUID,
	documentID uuid.UUID,
	code string,
	eventType string,
	severity string,
	payload map[string]any,
	correlationID *string,
) error {
	eventCode, err := valueobject.NewEventCode(code)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidEventVocabulary, err)
	}
	typ, err := valueobject.NewEventType(eventType)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidEventVocabulary, err)
	}
	sev, err := valueobject.NewEventSeverity(severity)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidEventVocabulary, err)
	}

	if correlationID == nil {
		if ctxCorrelation := logging.CorrelationIDFrom(ctx); ctxCorrelation != "" {
			correlationID = &ctxCorrelation
		}
	}

	event, err := entity.NewEvent(jobID, documentID, eventCode, typ, sev, payload, correlationID)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidEventVocabulary, err)
	}

	if err := s.eventRepo.Save(ctx, event); err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	slogger.Debug(ctx, "Audit event appended", slogger.Fields3(
		"job_id", jobID.String(),
		"code", code,
		"severity", sev.SinkLabel(),
	))
	return nil
}

// LogCode appends an event using the code's default type and severity, the
// common case on the pipeline's happy path.
func (s *EventLogService) LogCode(
	ctx context.Context,
	jobID uuid.UUID,
	documentID uuid.UUID,
	code valueobject.EventCode,
	payload map[string]any,
) error {
	return s.LogEventForDocument(
		ctx,
		jobID,
		documentID,
		code.String(),
		code.DefaultType().String(),
		code.DefaultSeverity().String(),
		payload,
		nil,
	)
}
