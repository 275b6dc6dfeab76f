package outbound

import (
	"context"

	"docingest/internal/domain/entity"

	"github.com/google/uuid"
)

// EventFilters carries pagination for event listings.
type EventFilters struct {
	Limit  int
	Offset int
}

// EventRepository persists the append-only audit trail. There is no update
// or delete: events are write-once.
type EventRepository interface {
	// Save appends one event.
	Save(ctx context.Context, event *entity.Event) error

	// FindByJobID returns a job's events, oldest first, plus a total count.
	FindByJobID(ctx context.Context, jobID uuid.UUID, filters EventFilters) ([]*entity.Event, int, error)

	// FindByDocumentID returns a document's events across all of its jobs,
	// oldest first, plus a total count.
	FindByDocumentID(ctx context.Context, documentID uuid.UUID, filters EventFilters) ([]*entity.Event, int, error)
}
