package service

import (
	"context"
	"strings"
	"testing"

	"docingest/internal/application/dto"
	"docingest/internal/domain/entity"
	"docingest/internal/domain/errors/domain"
	"docingest/internal/domain/identity"
	"docingest/internal/domain/valueobject"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queryFixture struct {
	docs      *memDocumentRepository
	jobs      *memJobRepository
	events    *memEventRepository
	publisher *memPublisher
	jobQuery  *JobQueryService
	events2   *EventQueryService
	ingest    *IngestService
}

func newQueryFixture(t *testing.T) *queryFixture {
	t.Helper()
	docs := newMemDocumentRepository()
	jobs := newMemJobRepository(docs)
	events := newMemEventRepository()
	publisher := newMemPublisher()
	eventLog := NewEventLogService(events, jobs)
	return &queryFixture{
		docs:      docs,
		jobs:      jobs,
		events:    events,
		publisher: publisher,
		jobQuery:  NewJobQueryService(jobs, eventLog, publisher),
		events2:   NewEventQueryService(events, docs),
		ingest:    NewIngestService(identity.NewGenerator(), docs, jobs, eventLog, publisher, NoopPipelineMetrics{}),
	}
}

// seedJob accepts an upload for the user and returns the created job.
func (f *queryFixture) seedJob(t *testing.T, userID string, sha string) *entity.UploadJob {
	t.Helper()
	req := dto.AcceptUploadRequest{
		Filename:   "doc.md",
		MimeType:   "text/markdown",
		ByteLength: 100,
		FileSHA256: strings.Repeat(sha, 64),
	}
	resp, err := f.ingest.AcceptUpload(context.Background(), userID, req)
	require.NoError(t, err)
	job, err := f.jobs.FindByID(context.Background(), resp.JobID)
	require.NoError(t, err)
	return job
}

func failJob(t *testing.T, job *entity.UploadJob) {
	t.Helper()
	require.NoError(t, job.Claim("worker-1"))
	jobErr, err := valueobject.NewJobError("PARSE_TIMEOUT", "parser timed out", nil)
	require.NoError(t, err)
	require.NoError(t, job.FailTransient(jobErr))
}

func TestGetJobStatus_ReturnsProgressAndError(t *testing.T) {
	f := newQueryFixture(t)
	job := f.seedJob(t, "user-1", "a")
	failJob(t, job)

	resp, err := f.jobQuery.GetJobStatus(context.Background(), job.ID(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, job.ID(), resp.JobID)
	assert.Equal(t, "retryable", resp.State)
	require.NotNil(t, resp.LastError)
	assert.Equal(t, "PARSE_TIMEOUT", resp.LastError.Code)
	assert.Equal(t, 0, resp.Progress.TotalPct)
}

func TestGetJobStatus_OtherUsersJobReadsAsMissing(t *testing.T) {
	f := newQueryFixture(t)
	job := f.seedJob(t, "user-1", "a")

	_, err := f.jobQuery.GetJobStatus(context.Background(), job.ID(), "user-2")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestGetJobStatus_UnknownJob(t *testing.T) {
	f := newQueryFixture(t)

	_, err := f.jobQuery.GetJobStatus(context.Background(), uuid.New(), "user-1")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestListJobs_FiltersByOwnerAndState(t *testing.T) {
	f := newQueryFixture(t)
	mine := f.seedJob(t, "user-1", "a")
	failJob(t, mine)
	f.seedJob(t, "user-1", "b")
	f.seedJob(t, "user-2", "c")

	all, err := f.jobQuery.ListJobs(context.Background(), "user-1", dto.JobListQuery{})
	require.NoError(t, err)
	assert.Len(t, all.Jobs, 2)
	assert.Equal(t, 2, all.Pagination.Total)
	assert.False(t, all.Pagination.HasMore)

	retryable, err := f.jobQuery.ListJobs(context.Background(), "user-1", dto.JobListQuery{State: "retryable"})
	require.NoError(t, err)
	require.Len(t, retryable.Jobs, 1)
	assert.Equal(t, mine.ID(), retryable.Jobs[0].JobID)
}

func TestListJobs_InvalidStateRejected(t *testing.T) {
	f := newQueryFixture(t)

	_, err := f.jobQuery.ListJobs(context.Background(), "user-1", dto.JobListQuery{State: "sleeping"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListJobs_LimitIsCapped(t *testing.T) {
	f := newQueryFixture(t)
	f.seedJob(t, "user-1", "a")

	resp, err := f.jobQuery.ListJobs(context.Background(), "user-1", dto.JobListQuery{Limit: 5000})
	require.NoError(t, err)
	assert.Equal(t, 100, resp.Pagination.Limit)
}

func TestRetryJob_RequeuesWithFreshBudget(t *testing.T) {
	f := newQueryFixture(t)
	job := f.seedJob(t, "user-1", "a")
	failJob(t, job)
	require.NoError(t, job.Requeue())
	failJob(t, job)
	jobErr, err := valueobject.NewJobError("FATAL", "gave up", nil)
	require.NoError(t, err)
	require.NoError(t, job.MoveToDeadLetter(jobErr))

	published := len(f.publisher.messages())

	resp, err := f.jobQuery.RetryJob(context.Background(), job.ID(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "queued", resp.NewState)

	updated, err := f.jobs.FindByID(context.Background(), job.ID())
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobStateQueued, updated.State())
	assert.Equal(t, 0, updated.RetryCount(), "manual retry resets the retry budget")
	assert.Nil(t, updated.LastError())

	assert.Contains(t, f.events.codes(), "RETRY_SCHEDULED")
	assert.Len(t, f.publisher.messages(), published+1)
}

func TestRetryJob_RejectsQueuedAndDoneJobs(t *testing.T) {
	f := newQueryFixture(t)
	job := f.seedJob(t, "user-1", "a")

	_, err := f.jobQuery.RetryJob(context.Background(), job.ID(), "user-1")
	assert.ErrorIs(t, err, domain.ErrJobNotRetryable)
}

func TestRetryJob_OwnershipCollapsesToNotFound(t *testing.T) {
	f := newQueryFixture(t)
	job := f.seedJob(t, "user-1", "a")
	failJob(t, job)

	_, err := f.jobQuery.RetryJob(context.Background(), job.ID(), "user-2")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestListDocumentEvents_ReturnsOwnEventsOldestFirst(t *testing.T) {
	f := newQueryFixture(t)
	job := f.seedJob(t, "user-1", "a")

	resp, err := f.events2.ListDocumentEvents(context.Background(), job.DocumentID(), "user-1", dto.EventListQuery{})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Events)
	assert.Equal(t, "UPLOAD_ACCEPTED", resp.Events[0].Code)
	assert.Equal(t, job.DocumentID(), resp.Events[0].DocumentID)
}

func TestListDocumentEvents_OtherUsersDocumentReadsAsMissing(t *testing.T) {
	f := newQueryFixture(t)
	job := f.seedJob(t, "user-1", "a")

	_, err := f.events2.ListDocumentEvents(context.Background(), job.DocumentID(), "user-2", dto.EventListQuery{})
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}
