package entity

import (
	"time"

	"docingest/internal/domain/errors/domain"
	"docingest/internal/domain/valueobject"

	"github.com/google/uuid"
)

// UploadJob represents one processing attempt lineage for a document. Two
// independent transition tables govern it: the coarse state machine
// (queued/working/retryable/done/deadletter) and the strictly linear stage
// pipeline. Stage never regresses except via the retry path, which resets
// it to queued.
type UploadJob struct {
	id         uuid.UUID
	documentID uuid.UUID
	state      valueobject.JobState
	stage      valueobject.JobStage
	retryCount int
	lastError  *valueobject.JobError
	claimedBy  *string
	claimedAt  *time.Time
	costCents  int64
	createdAt  time.Time
	updatedAt  time.Time
}

// NewUploadJob creates a new UploadJob for a document. Job identity is
// opaque and freshly random; only document/parse/chunk identities are
// content-derived.
func NewUploadJob(documentID uuid.UUID) (*UploadJob, error) {
	if documentID == uuid.Nil {
		return nil, NewDomainError("job document ID cannot be nil", "INVALID_DOCUMENT_ID")
	}

	now := time.Now()
	return &UploadJob{
		id:         uuid.New(),
		documentID: documentID,
		state:      valueobject.JobStateQueued,
		stage:      valueobject.StageQueued,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// RestoreUploadJob creates an UploadJob entity from stored data.
func RestoreUploadJob(
	id uuid.UUID,
	documentID uuid.UUID,
	state valueobject.JobState,
	stage valueobject.JobStage,
	retryCount int,
	lastError *valueobject.JobError,
	claimedBy *string,
	claimedAt *time.Time,
	costCents int64,
	createdAt time.Time,
	updatedAt time.Time,
) *UploadJob {
	return &UploadJob{
		id:         id,
		documentID: documentID,
		state:      state,
		stage:      stage,
		retryCount: retryCount,
		lastError:  lastError,
		claimedBy:  claimedBy,
		claimedAt:  claimedAt,
		costCents:  costCents,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// ID returns the job ID.
func (j *UploadJob) ID() uuid.UUID {
	return j.id
}

// DocumentID returns the document this job processes.
func (j *UploadJob) DocumentID() uuid.UUID {
	return j.documentID
}

// State returns the coarse lifecycle state.
func (j *UploadJob) State() valueobject.JobState {
	return j.state
}

// Stage returns the fine-grained pipeline stage.
func (j *UploadJob) Stage() valueobject.JobStage {
	return j.stage
}

// RetryCount returns the number of retries performed so far.
func (j *UploadJob) RetryCount() int {
	return j.retryCount
}

// LastError returns the structured error payload, present only while the
// job is retryable or dead-lettered.
func (j *UploadJob) LastError() *valueobject.JobError {
	return j.lastError
}

// ClaimedBy returns the worker identifier holding the job claim, if any.
func (j *UploadJob) ClaimedBy() *string {
	return j.claimedBy
}

// ClaimedAt returns the claim timestamp, if any.
func (j *UploadJob) ClaimedAt() *time.Time {
	return j.claimedAt
}

// CostCents returns the accumulated provider cost in cents.
func (j *UploadJob) CostCents() int64 {
	return j.costCents
}

// CreatedAt returns the creation timestamp.
func (j *UploadJob) CreatedAt() time.Time {
	return j.createdAt
}

// UpdatedAt returns the last update timestamp.
func (j *UploadJob) UpdatedAt() time.Time {
	return j.updatedAt
}

// IsTerminal returns true if the job is in a terminal state.
func (j *UploadJob) IsTerminal() bool {
	return j.state.IsTerminal()
}

// Claim marks the job as owned by a worker and moves it to working.
func (j *UploadJob) Claim(workerID string) error {
	if workerID == "" {
		return NewDomainError("worker ID cannot be empty", "INVALID_WORKER_ID")
	}
	if j.claimedBy != nil {
		return WrapDomainError("job is already claimed", "JOB_ALREADY_CLAIMED", domain.ErrJobAlreadyClaimed)
	}
	if !j.state.CanTransitionTo(valueobject.JobStateWorking) {
		return WrapDomainError("cannot claim job in current state", "INVALID_STATE_TRANSITION", domain.ErrInvalidStateChange)
	}

	now := time.Now()
	j.state = valueobject.JobStateWorking
	j.claimedBy = &workerID
	j.claimedAt = &now
	j.updatedAt = now
	return nil
}

// AdvanceStage moves the job to the next pipeline stage. Only the immediate
// successor is a valid target; skipping stages is rejected without mutation.
func (j *UploadJob) AdvanceStage(target valueobject.JobStage) error {
	if j.state != valueobject.JobStateWorking {
		return WrapDomainError("cannot advance stage unless job is working", "INVALID_STATE_FOR_STAGE", domain.ErrInvalidStateChange)
	}
	if !j.stage.CanTransitionTo(target) {
		return WrapDomainError("invalid stage transition", "INVALID_STAGE_TRANSITION", domain.ErrInvalidStageChange)
	}
	j.stage = target
	j.updatedAt = time.Now()
	return nil
}

// Complete marks the job as done and clears any claim.
func (j *UploadJob) Complete() error {
	if !j.state.CanTransitionTo(valueobject.JobStateDone) {
		return WrapDomainError("cannot complete job in current state", "INVALID_STATE_TRANSITION", domain.ErrInvalidStateChange)
	}

	j.state = valueobject.JobStateDone
	j.lastError = nil
	j.claimedBy = nil
	j.claimedAt = nil
	j.updatedAt = time.Now()
	return nil
}

// FailTransient records a transient failure and moves the job to retryable.
// The claim is released so another worker can pick up the requeued job.
func (j *UploadJob) FailTransient(jobErr valueobject.JobError) error {
	if !j.state.CanTransitionTo(valueobject.JobStateRetryable) {
		return WrapDomainError("cannot fail job in current state", "INVALID_STATE_TRANSITION", domain.ErrInvalidStateChange)
	}

	j.state = valueobject.JobStateRetryable
	j.lastError = &jobErr
	j.claimedBy = nil
	j.claimedAt = nil
	j.updatedAt = time.Now()
	return nil
}

// MoveToDeadLetter moves the job to the terminal deadletter state, reached
// when the retry budget is exhausted or a failure is classified as fatal.
func (j *UploadJob) MoveToDeadLetter(jobErr valueobject.JobError) error {
	if !j.state.CanTransitionTo(valueobject.JobStateDeadLetter) {
		return WrapDomainError("cannot dead-letter job in current state", "INVALID_STATE_TRANSITION", domain.ErrInvalidStateChange)
	}

	j.state = valueobject.JobStateDeadLetter
	j.lastError = &jobErr
	j.claimedBy = nil
	j.claimedAt = nil
	j.updatedAt = time.Now()
	return nil
}

// Requeue performs the retry transition back to queued: the retry count
// increments, the error and claim clear, and the stage resets to the start
// of the pipeline. Previously produced artifacts are not deleted; their
// content-derived identities dedup any reproduced work.
func (j *UploadJob) Requeue() error {
	if !j.state.CanTransitionTo(valueobject.JobStateQueued) {
		return WrapDomainError("cannot requeue job in current state", "INVALID_STATE_TRANSITION", domain.ErrInvalidStateChange)
	}

	j.state = valueobject.JobStateQueued
	j.stage = valueobject.StageQueued
	j.retryCount++
	j.lastError = nil
	j.claimedBy = nil
	j.claimedAt = nil
	j.updatedAt = time.Now()
	return nil
}

// ManualRetry is the explicit operator/API re-entry path for jobs stuck in
// retryable or deadletter. Unlike Requeue it grants a fresh retry budget:
// a dead-lettered job would otherwise dead-letter again on its first
// failure. This is the only sanctioned exit from deadletter.
func (j *UploadJob) ManualRetry() error {
	if !j.state.IsRetryEligible() {
		return WrapDomainError("job state does not permit manual retry", "INVALID_RETRY_STATE", domain.ErrJobNotRetryable)
	}

	j.state = valueobject.JobStateQueued
	j.stage = valueobject.StageQueued
	j.retryCount = 0
	j.lastError = nil
	j.claimedBy = nil
	j.claimedAt = nil
	j.updatedAt = time.Now()
	return nil
}

// ReleaseClaim clears a stale claim without changing state. Used by the
// reaper when a worker disappears mid-stage.
func (j *UploadJob) ReleaseClaim() {
	j.claimedBy = nil
	j.claimedAt = nil
	j.updatedAt = time.Now()
}

// AddCost accumulates provider cost against the job.
func (j *UploadJob) AddCost(cents int64) error {
	if cents < 0 {
		return NewDomainError("cost cannot be negative", "INVALID_COST")
	}
	j.costCents += cents
	j.updatedAt = time.Now()
	return nil
}

// ProgressPercent returns the display progress for the job's current stage.
func (j *UploadJob) ProgressPercent() int {
	return j.stage.ProgressPercent()
}

// Equal compares two UploadJob entities by identity.
func (j *UploadJob) Equal(other *UploadJob) bool {
	if other == nil {
		return false
	}
	return j.id == other.id
}
