package outbound

import (
	"context"

	"docingest/internal/domain/messaging"
)

// MessagePublisher hands queued jobs to the worker plane.
type MessagePublisher interface {
	// PublishJobQueued announces a queued job on the work queue.
	PublishJobQueued(ctx context.Context, message messaging.JobQueuedMessage) error

	// Close releases the underlying connection.
	Close() error
}
