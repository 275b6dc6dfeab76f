package dto

import (
	"time"

	"github.com/google/uuid"
)

// EventResponse is the read-side view of one audit event.
type EventResponse struct {
	EventID       uuid.UUID      `json:"event_id"`
	JobID         uuid.UUID      `json:"job_id"`
	DocumentID    uuid.UUID      `json:"document_id"`
	Type          string         `json:"type"`
	Severity      string         `json:"severity"`
	Code          string         `json:"code"`
	Payload       map[string]any `json:"payload,omitempty"`
	CorrelationID *string        `json:"correlation_id,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

// EventListQuery represents query parameters for listing events.
type EventListQuery struct {
	Limit  int `form:"limit"  validate:"omitempty,min=1,max=100"`
	Offset int `form:"offset" validate:"omitempty,min=0"`
}

// DefaultEventListQuery returns default values for the event list query.
func DefaultEventListQuery() EventListQuery {
	return EventListQuery{
		Limit:  50,
		Offset: 0,
	}
}

// EventListResponse is the paginated event listing.
type EventListResponse struct {
	Events     []EventResponse    `json:"events"`
	Pagination PaginationResponse `json:"pagination"`
}
