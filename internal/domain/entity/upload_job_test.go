package entity

import (
	"testing"

	"docingest/internal/domain/errors/domain"
	"docingest/internal/domain/valueobject"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJob(t *testing.T) *UploadJob {
	t.Helper()
	job, err := NewUploadJob(uuid.New())
	require.NoError(t, err)
	return job
}

func testJobError(t *testing.T) valueobject.JobError {
	t.Helper()
	jobErr, err := valueobject.NewJobError("PROVIDER_TIMEOUT", "embedding provider timed out", nil)
	require.NoError(t, err)
	return jobErr
}

func TestNewUploadJob_Defaults(t *testing.T) {
	job := newTestJob(t)

	assert.Equal(t, valueobject.JobStateQueued, job.State())
	assert.Equal(t, valueobject.StageQueued, job.Stage())
	assert.Equal(t, 0, job.RetryCount())
	assert.Nil(t, job.LastError())
	assert.Nil(t, job.ClaimedBy())
	assert.Nil(t, job.ClaimedAt())
	assert.Equal(t, int64(0), job.CostCents())
}

func TestNewUploadJob_RequiresDocumentID(t *testing.T) {
	_, err := NewUploadJob(uuid.Nil)
	require.Error(t, err)
}

func TestUploadJob_ClaimMovesToWorking(t *testing.T) {
	job := newTestJob(t)

	require.NoError(t, job.Claim("worker-1"))

	assert.Equal(t, valueobject.JobStateWorking, job.State())
	require.NotNil(t, job.ClaimedBy())
	assert.Equal(t, "worker-1", *job.ClaimedBy())
	assert.NotNil(t, job.ClaimedAt())
}

func TestUploadJob_DoubleClaimRejected(t *testing.T) {
	job := newTestJob(t)
	require.NoError(t, job.Claim("worker-1"))

	err := job.Claim("worker-2")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrJobAlreadyClaimed)
	assert.Equal(t, "worker-1", *job.ClaimedBy())
}

func TestUploadJob_AdvanceStage_Linear(t *testing.T) {
	job := newTestJob(t)
	require.NoError(t, job.Claim("worker-1"))

	stage := valueobject.StageQueued
	for !stage.IsTerminal() {
		next, err := stage.Next()
		require.NoError(t, err)
		require.NoError(t, job.AdvanceStage(next))
		stage = next
	}

	assert.Equal(t, valueobject.StageEmbedded, job.Stage())
	assert.Equal(t, 100, job.ProgressPercent())
}

func TestUploadJob_AdvanceStage_SkipRejectedWithoutMutation(t *testing.T) {
	job := newTestJob(t)
	require.NoError(t, job.Claim("worker-1"))
	require.NoError(t, job.AdvanceStage(valueobject.StageJobValidated))
	require.NoError(t, job.AdvanceStage(valueobject.StageParsing))

	err := job.AdvanceStage(valueobject.StageChunking)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidStageChange)
	assert.Equal(t, valueobject.StageParsing, job.Stage(), "failed transition must not mutate the job")
}

func TestUploadJob_AdvanceStage_RequiresWorkingState(t *testing.T) {
	job := newTestJob(t)

	err := job.AdvanceStage(valueobject.StageJobValidated)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidStateChange)
	assert.Equal(t, valueobject.StageQueued, job.Stage())
}

func TestUploadJob_CompleteFromDoneRejected(t *testing.T) {
	job := newTestJob(t)
	require.NoError(t, job.Claim("worker-1"))
	require.NoError(t, job.Complete())

	// done only self-loops; a second Complete is the self-loop and is fine,
	// but claiming a done job must fail.
	err := job.Claim("worker-2")
	require.Error(t, err)
	assert.Equal(t, valueobject.JobStateDone, job.State())
}

func TestUploadJob_FailTransientSetsErrorAndReleasesClaim(t *testing.T) {
	job := newTestJob(t)
	require.NoError(t, job.Claim("worker-1"))

	require.NoError(t, job.FailTransient(testJobError(t)))

	assert.Equal(t, valueobject.JobStateRetryable, job.State())
	require.NotNil(t, job.LastError())
	assert.Equal(t, "PROVIDER_TIMEOUT", job.LastError().Code)
	assert.Nil(t, job.ClaimedBy())
	assert.Nil(t, job.ClaimedAt())
}

func TestUploadJob_FailFromQueuedRejected(t *testing.T) {
	job := newTestJob(t)

	err := job.FailTransient(testJobError(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidStateChange)
	assert.Equal(t, valueobject.JobStateQueued, job.State())
	assert.Nil(t, job.LastError())
}

func TestUploadJob_RequeueResetsStageAndIncrementsRetryCount(t *testing.T) {
	job := newTestJob(t)
	require.NoError(t, job.Claim("worker-1"))
	require.NoError(t, job.AdvanceStage(valueobject.StageJobValidated))
	require.NoError(t, job.AdvanceStage(valueobject.StageParsing))
	require.NoError(t, job.FailTransient(testJobError(t)))

	require.NoError(t, job.Requeue())

	assert.Equal(t, valueobject.JobStateQueued, job.State())
	assert.Equal(t, valueobject.StageQueued, job.Stage())
	assert.Equal(t, 1, job.RetryCount())
	assert.Nil(t, job.LastError())
	assert.Nil(t, job.ClaimedBy())
}

func TestUploadJob_RequeueFromWorkingRejected(t *testing.T) {
	job := newTestJob(t)
	require.NoError(t, job.Claim("worker-1"))

	err := job.Requeue()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidStateChange)
	assert.Equal(t, valueobject.JobStateWorking, job.State())
	assert.Equal(t, 0, job.RetryCount())
}

func TestUploadJob_DeadLetterFlow(t *testing.T) {
	job := newTestJob(t)
	require.NoError(t, job.Claim("worker-1"))

	require.NoError(t, job.MoveToDeadLetter(testJobError(t)))

	assert.Equal(t, valueobject.JobStateDeadLetter, job.State())
	assert.True(t, job.IsTerminal())
	require.NotNil(t, job.LastError())

	// Dead letter is terminal: no claim, no requeue without the explicit
	// manual retry path.
	assert.Error(t, job.Claim("worker-2"))
}

func TestUploadJob_DeadLetterAfterRetriesKeepsCappedRetryCount(t *testing.T) {
	job := newTestJob(t)

	// Three failed attempts, each requeued.
	for i := 1; i <= 3; i++ {
		require.NoError(t, job.Claim("worker-1"))
		require.NoError(t, job.FailTransient(testJobError(t)))
		require.NoError(t, job.Requeue())
		assert.Equal(t, i, job.RetryCount())
	}

	// Fourth failure exhausts the budget and dead-letters instead.
	require.NoError(t, job.Claim("worker-1"))
	require.NoError(t, job.MoveToDeadLetter(testJobError(t)))

	assert.Equal(t, valueobject.JobStateDeadLetter, job.State())
	assert.Equal(t, 3, job.RetryCount())
}

func TestUploadJob_ManualRetryOnlyFromRetryEligibleStates(t *testing.T) {
	job := newTestJob(t)
	require.NoError(t, job.Claim("worker-1"))

	err := job.ManualRetry()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrJobNotRetryable)

	require.NoError(t, job.MoveToDeadLetter(testJobError(t)))
	require.NoError(t, job.ManualRetry())

	assert.Equal(t, valueobject.JobStateQueued, job.State())
	assert.Equal(t, valueobject.StageQueued, job.Stage())
	assert.Equal(t, 0, job.RetryCount())
	assert.Nil(t, job.LastError())
}

func TestUploadJob_AddCost(t *testing.T) {
	job := newTestJob(t)

	require.NoError(t, job.AddCost(120))
	require.NoError(t, job.AddCost(30))
	assert.Equal(t, int64(150), job.CostCents())

	assert.Error(t, job.AddCost(-1))
	assert.Equal(t, int64(150), job.CostCents())
}
