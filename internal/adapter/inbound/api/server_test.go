package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"docingest/internal/application/dto"
	"docingest/internal/config"
	"docingest/internal/domain/errors/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIngestService struct {
	response dto.AcceptUploadResponse
	err      error
	userID   string
	request  dto.AcceptUploadRequest
}

func (f *fakeIngestService) AcceptUpload(_ context.Context, userID string, request dto.AcceptUploadRequest) (dto.AcceptUploadResponse, error) {
	f.userID = userID
	f.request = request
	return f.response, f.err
}

type fakeJobQueryService struct {
	status    dto.JobStatusResponse
	list      dto.JobListResponse
	retry     dto.RetryJobResponse
	err       error
	lastQuery dto.JobListQuery
	userID    string
}

func (f *fakeJobQueryService) GetJobStatus(_ context.Context, _ uuid.UUID, callerUserID string) (dto.JobStatusResponse, error) {
	f.userID = callerUserID
	return f.status, f.err
}

func (f *fakeJobQueryService) ListJobs(_ context.Context, callerUserID string, query dto.JobListQuery) (dto.JobListResponse, error) {
	f.userID = callerUserID
	f.lastQuery = query
	return f.list, f.err
}

func (f *fakeJobQueryService) RetryJob(_ context.Context, _ uuid.UUID, callerUserID string) (dto.RetryJobResponse, error) {
	f.userID = callerUserID
	return f.retry, f.err
}

type fakeEventQueryService struct {
	list dto.EventListResponse
	err  error
}

func (f *fakeEventQueryService) ListDocumentEvents(context.Context, uuid.UUID, string, dto.EventListQuery) (dto.EventListResponse, error) {
	return f.list, f.err
}

type fakeHealthService struct {
	response dto.HealthResponse
}

func (f *fakeHealthService) GetHealth(context.Context) dto.HealthResponse {
	return f.response
}

type serverFixture struct {
	server *Server
	ingest *fakeIngestService
	jobs   *fakeJobQueryService
	events *fakeEventQueryService
	health *fakeHealthService
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	f := &serverFixture{
		ingest: &fakeIngestService{},
		jobs:   &fakeJobQueryService{},
		events: &fakeEventQueryService{},
		health: &fakeHealthService{response: dto.HealthResponse{Status: "healthy", Version: "test"}},
	}

	cfg := &config.Config{API: config.APIConfig{Port: "0", ReadTimeout: time.Second, WriteTimeout: time.Second}}
	server, err := NewServer(cfg, f.health, f.ingest, f.jobs, f.events, NewDefaultErrorHandler())
	require.NoError(t, err)
	f.server = server
	return f
}

func (f *serverFixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func validUploadBody() map[string]any {
	return map[string]any{
		"filename":         "notes.md",
		"mime_type":        "text/markdown",
		"byte_length":      7,
		"file_sha256":      "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"raw_storage_path": "raw/notes.md",
	}
}

func TestAcceptUpload_ReturnsAccepted(t *testing.T) {
	f := newServerFixture(t)
	f.ingest.response = dto.AcceptUploadResponse{
		DocumentID: uuid.New(),
		JobID:      uuid.New(),
		State:      "queued",
		Stage:      "queued",
	}

	rec := f.do(t, http.MethodPost, "/documents", validUploadBody())

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "user-1", f.ingest.userID)
	assert.Equal(t, "notes.md", f.ingest.request.Filename)
}

func TestAcceptUpload_DedupReturnsOK(t *testing.T) {
	f := newServerFixture(t)
	f.ingest.response = dto.AcceptUploadResponse{Deduplicated: true, State: "queued", Stage: "queued"}

	rec := f.do(t, http.MethodPost, "/documents", validUploadBody())

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAcceptUpload_MissingFilenameIsRejected(t *testing.T) {
	f := newServerFixture(t)
	body := validUploadBody()
	body["filename"] = ""

	rec := f.do(t, http.MethodPost, "/documents", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", decodeError(t, rec).Error)
}

func TestAcceptUpload_UnknownFieldIsRejected(t *testing.T) {
	f := newServerFixture(t)
	body := validUploadBody()
	body["surprise"] = true

	rec := f.do(t, http.MethodPost, "/documents", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestWithoutUserIDIsUnauthorized(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Error)
}

func TestHealthEndpointNeedsNoIdentity(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthEndpointUnhealthyIs503(t *testing.T) {
	f := newServerFixture(t)
	f.health.response = dto.HealthResponse{Status: "unhealthy"}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetJob_NotFoundMapsTo404(t *testing.T) {
	f := newServerFixture(t)
	f.jobs.err = domain.ErrJobNotFound

	rec := f.do(t, http.MethodGet, "/jobs/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "JOB_NOT_FOUND", decodeError(t, rec).Error)
}

func TestGetJob_InvalidUUIDIsRejected(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodGet, "/jobs/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListJobs_PassesQueryThrough(t *testing.T) {
	f := newServerFixture(t)
	f.jobs.list = dto.JobListResponse{Pagination: dto.PaginationResponse{Limit: 5}}

	rec := f.do(t, http.MethodGet, "/jobs?state=retryable&limit=5&offset=10", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "retryable", f.jobs.lastQuery.State)
	assert.Equal(t, 5, f.jobs.lastQuery.Limit)
	assert.Equal(t, 10, f.jobs.lastQuery.Offset)
}

func TestListJobs_RejectsOversizedLimit(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodGet, "/jobs?limit=5000", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRetryJob_ReturnsAccepted(t *testing.T) {
	f := newServerFixture(t)
	jobID := uuid.New()
	f.jobs.retry = dto.RetryJobResponse{Message: "job queued for retry", JobID: jobID, NewState: "queued"}

	rec := f.do(t, http.MethodPost, "/jobs/"+jobID.String()+"/retry", nil)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRetryJob_NotRetryableMapsTo400(t *testing.T) {
	f := newServerFixture(t)
	f.jobs.err = domain.ErrJobNotRetryable

	rec := f.do(t, http.MethodPost, "/jobs/"+uuid.NewString()+"/retry", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_JOB_STATE", decodeError(t, rec).Error)
}

func TestListDocumentEvents_OwnershipFailureMapsTo404(t *testing.T) {
	f := newServerFixture(t)
	f.events.err = domain.ErrDocumentNotFound

	rec := f.do(t, http.MethodGet, "/documents/"+uuid.NewString()+"/events", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "DOCUMENT_NOT_FOUND", decodeError(t, rec).Error)
}

func TestCorrelationIDIsEchoed(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Correlation-ID", "corr-42")
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "corr-42", rec.Header().Get("X-Correlation-ID"))
}

func TestRouteRegistry_RegistersExpectedRoutes(t *testing.T) {
	f := newServerFixture(t)

	for _, pattern := range []string{
		"GET /health",
		"POST /documents",
		"GET /documents/{id}/events",
		"GET /jobs",
		"GET /jobs/{id}",
		"POST /jobs/{id}/retry",
	} {
		assert.True(t, f.server.HasRoute(pattern), pattern)
	}
}

func TestRouteRegistry_RejectsBadPatterns(t *testing.T) {
	registry := NewRouteRegistry()

	for _, pattern := range []string{"", "GET", "FETCH /x", "GET x", "GET //x"} {
		err := registry.RegisterRoute(pattern, http.NotFoundHandler())
		assert.Error(t, err, pattern)
	}

	require.NoError(t, registry.RegisterRoute("GET /x", http.NotFoundHandler()))
	assert.Error(t, registry.RegisterRoute("GET /x", http.NotFoundHandler()))
}
