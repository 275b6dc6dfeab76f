package entity

import (
	"time"

	"docingest/internal/domain/valueobject"

	"github.com/google/uuid"
)

// Event is an immutable audit record keyed by both job and document. Events
// are append-only: there is no update or delete operation anywhere in the
// system.
type Event struct {
	id            uuid.UUID
	jobID         uuid.UUID
	documentID    uuid.UUID
	eventType     valueobject.EventType
	severity      valueobject.EventSeverity
	code          valueobject.EventCode
	payload       map[string]any
	correlationID *string
	timestamp     time.Time
}

// NewEvent creates a new audit event. The code, type, and severity must all
// belong to their closed vocabularies; validation failures reject the event
// before anything is written.
func NewEvent(
	jobID uuid.UUID,
	documentID uuid.UUID,
	code valueobject.EventCode,
	eventType valueobject.EventType,
	severity valueobject.EventSeverity,
	payload map[string]any,
	correlationID *string,
) (*Event, error) {
	if jobID == uuid.Nil {
		return nil, NewDomainError("event job ID cannot be nil", "INVALID_JOB_ID")
	}
	if documentID == uuid.Nil {
		return nil, NewDomainError("event document ID cannot be nil", "INVALID_DOCUMENT_ID")
	}
	if _, err := valueobject.NewEventCode(code.String()); err != nil {
		return nil, NewDomainError(err.Error(), "INVALID_EVENT_CODE")
	}
	if _, err := valueobject.NewEventType(eventType.String()); err != nil {
		return nil, NewDomainError(err.Error(), "INVALID_EVENT_TYPE")
	}
	if _, err := valueobject.NewEventSeverity(severity.String()); err != nil {
		return nil, NewDomainError(err.Error(), "INVALID_EVENT_SEVERITY")
	}

	return &Event{
		id:            uuid.New(),
		jobID:         jobID,
		documentID:    documentID,
		eventType:     eventType,
		severity:      severity,
		code:          code,
		payload:       payload,
		correlationID: correlationID,
		timestamp:     time.Now(),
	}, nil
}

// RestoreEvent creates an Event entity from stored data.
func RestoreEvent(
	id uuid.UUID,
	jobID uuid.UUID,
	documentID uuid.UUID,
	code valueobject.EventCode,
	eventType valueobject.EventType,
	severity valueobject.EventSeverity,
	payload map[string]any,
	correlationID *string,
	timestamp time.Time,
) *Event {
	return &Event{
		id:            id,
		jobID:         jobID,
		documentID:    documentID,
		eventType:     eventType,
		severity:      severity,
		code:          code,
		payload:       payload,
		correlationID: correlationID,
		timestamp:     timestamp,
	}
}

// ID returns the event ID.
func (e *Event) ID() uuid.UUID {
	return e.id
}

// JobID returns the job the event belongs to.
func (e *Event) JobID() uuid.UUID {
	return e.jobID
}

// DocumentID returns the document the event belongs to.
func (e *Event) DocumentID() uuid.UUID {
	return e.documentID
}

// Type returns the event type.
func (e *Event) Type() valueobject.EventType {
	return e.eventType
}

// Severity returns the stored severity.
func (e *Event) Severity() valueobject.EventSeverity {
	return e.severity
}

// Code returns the event code.
func (e *Event) Code() valueobject.EventCode {
	return e.code
}

// Payload returns the free-form structured payload.
func (e *Event) Payload() map[string]any {
	return e.payload
}

// CorrelationID returns the optional cross-stage correlation ID.
func (e *Event) CorrelationID() *string {
	return e.correlationID
}

// Timestamp returns when the event was recorded.
func (e *Event) Timestamp() time.Time {
	return e.timestamp
}
