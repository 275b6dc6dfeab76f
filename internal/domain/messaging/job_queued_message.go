// Package messaging defines the wire types exchanged over the work queue
// between the API plane, which accepts uploads, and the worker plane, which
// advances the ingestion pipeline.
package messaging

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// JobQueuedMessage announces that an upload job is queued and ready for a
// worker to claim. The message is a pointer, not the source of truth: the
// job row carries the authoritative state.
type JobQueuedMessage struct {
	MessageID     string    `json:"message_id"`
	JobID         uuid.UUID `json:"job_id"`
	DocumentID    uuid.UUID `json:"document_id"`
	UserID        string    `json:"user_id"`
	RetryCount    int       `json:"retry_count"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewJobQueuedMessage builds a queue message for a job.
func NewJobQueuedMessage(jobID, documentID uuid.UUID, userID string, retryCount int) (JobQueuedMessage, error) {
	msg := JobQueuedMessage{
		MessageID:  uuid.New().String(),
		JobID:      jobID,
		DocumentID: documentID,
		UserID:     userID,
		RetryCount: retryCount,
		Timestamp:  time.Now(),
	}
	if err := msg.Validate(); err != nil {
		return JobQueuedMessage{}, err
	}
	return msg, nil
}

// Validate checks the message invariants before publish or after decode.
func (m JobQueuedMessage) Validate() error {
	if m.MessageID == "" {
		return errors.New("message ID cannot be empty")
	}
	if m.JobID == uuid.Nil {
		return errors.New("job ID cannot be nil")
	}
	if m.DocumentID == uuid.Nil {
		return errors.New("document ID cannot be nil")
	}
	if m.UserID == "" {
		return errors.New("user ID cannot be empty")
	}
	if m.RetryCount < 0 {
		return errors.New("retry count cannot be negative")
	}
	return nil
}
