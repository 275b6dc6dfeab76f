package dto

import (
	"time"

	"github.com/google/uuid"
)

// JobProgress is the display progress computed from the stage weight table.
type JobProgress struct {
	StagePct int `json:"stage_pct"`
	TotalPct int `json:"total_pct"`
}

// JobLastError is the externally visible form of a job's structured error.
type JobLastError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

// JobStatusResponse is the read-side view of one job.
type JobStatusResponse struct {
	JobID      uuid.UUID     `json:"job_id"`
	DocumentID uuid.UUID     `json:"document_id"`
	Stage      string        `json:"stage"`
	State      string        `json:"state"`
	RetryCount int           `json:"retry_count"`
	Progress   JobProgress   `json:"progress"`
	CostCents  int64         `json:"cost_cents"`
	LastError  *JobLastError `json:"last_error,omitempty"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// JobListQuery represents query parameters for listing jobs.
type JobListQuery struct {
	State  string `form:"state"`
	Limit  int    `form:"limit"  validate:"omitempty,min=1,max=100"`
	Offset int    `form:"offset" validate:"omitempty,min=0"`
}

// DefaultJobListQuery returns default values for the job list query.
func DefaultJobListQuery() JobListQuery {
	return JobListQuery{
		Limit:  20,
		Offset: 0,
	}
}

// JobListResponse is the paginated job listing.
type JobListResponse struct {
	Jobs       []JobStatusResponse `json:"jobs"`
	Pagination PaginationResponse  `json:"pagination"`
}

// RetryJobResponse acknowledges a manual retry request.
type RetryJobResponse struct {
	Message  string    `json:"message"`
	JobID    uuid.UUID `json:"job_id"`
	NewState string    `json:"new_state"`
}

// PaginationResponse carries paging metadata for list endpoints.
type PaginationResponse struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}
