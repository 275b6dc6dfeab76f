package valueobject

import (
	"encoding/json"
	"errors"
	"time"
)

// JobError is the structured last_error payload persisted on a job while it
// sits in the retryable or deadletter state.
type JobError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

// NewJobError creates a JobError stamped with the current time.
func NewJobError(code, message string, details map[string]any) (JobError, error) {
	if code == "" {
		return JobError{}, errors.New("job error code cannot be empty")
	}
	if message == "" {
		return JobError{}, errors.New("job error message cannot be empty")
	}
	return JobError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Details:   details,
	}, nil
}

// MarshalJSONPayload serializes the error for storage in the last_error column.
func (e JobError) MarshalJSONPayload() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalJobError restores a JobError from its stored JSON payload.
func UnmarshalJobError(payload []byte) (JobError, error) {
	var jobErr JobError
	if err := json.Unmarshal(payload, &jobErr); err != nil {
		return JobError{}, err
	}
	return jobErr, nil
}

// IsZero reports whether the error payload is unset.
func (e JobError) IsZero() bool {
	return e.Code == "" && e.Message == ""
}
