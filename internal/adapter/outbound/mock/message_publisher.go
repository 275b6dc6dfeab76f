package mock

import (
	"context"
	"sync"

	"docingest/internal/application/common/slogger"
	"docingest/internal/domain/messaging"
	"docingest/internal/port/outbound"
)

// MockMessagePublisher provides a mock implementation of MessagePublisher
// for development and API-only deployments where no worker plane runs.
type MockMessagePublisher struct {
	mu        sync.Mutex
	published []messaging.JobQueuedMessage
}

// NewMockMessagePublisher creates a new mock message publisher.
func NewMockMessagePublisher() outbound.MessagePublisher {
	return &MockMessagePublisher{
		published: make([]messaging.JobQueuedMessage, 0),
	}
}

// PublishJobQueued records the message instead of sending it anywhere.
func (m *MockMessagePublisher) PublishJobQueued(_ context.Context, message messaging.JobQueuedMessage) error {
	slogger.InfoNoCtx("Mock: publishing job queued message", slogger.Fields2(
		"job_id", message.JobID.String(),
		"document_id", message.DocumentID.String(),
	))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, message)
	return nil
}

// Close is a no-op for the mock.
func (m *MockMessagePublisher) Close() error {
	return nil
}

// GetPublishedMessages returns all published messages (for testing).
func (m *MockMessagePublisher) GetPublishedMessages() []messaging.JobQueuedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]messaging.JobQueuedMessage, len(m.published))
	copy(out, m.published)
	return out
}

// Reset clears all published messages.
func (m *MockMessagePublisher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = m.published[:0]
}
