package api

import (
	"fmt"
	"net/http"
	"strconv"

	"docingest/internal/application/dto"
	"docingest/internal/port/inbound"

	"github.com/google/uuid"
)

const (
	maxJobListLimit   = 100
	maxEventListLimit = 100
)

// JobHandler handles HTTP requests for job status, listing and retry.
type JobHandler struct {
	jobQueryService inbound.JobQueryService
	errorHandler    ErrorHandler
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(jobQueryService inbound.JobQueryService, errorHandler ErrorHandler) *JobHandler {
	return &JobHandler{
		jobQueryService: jobQueryService,
		errorHandler:    errorHandler,
	}
}

// GetJob handles GET /jobs/{id}.
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := extractUUIDPathValue(r, "id", "job")
	if err != nil {
		h.errorHandler.HandleValidationError(w, r, err)
		return
	}

	response, err := h.jobQueryService.GetJobStatus(r.Context(), jobID, UserIDFrom(r.Context()))
	if err != nil {
		h.errorHandler.HandleServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, response)
}

// ListJobs handles GET /jobs.
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := dto.DefaultJobListQuery()
	query.State = r.URL.Query().Get("state")
	query.Limit = parseIntQueryParam(r, "limit", query.Limit)
	query.Offset = parseIntQueryParam(r, "offset", query.Offset)

	if err := validatePaginationParams(query.Limit, query.Offset, maxJobListLimit); err != nil {
		h.errorHandler.HandleValidationError(w, r, err)
		return
	}

	response, err := h.jobQueryService.ListJobs(r.Context(), UserIDFrom(r.Context()), query)
	if err != nil {
		h.errorHandler.HandleServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, response)
}

// RetryJob handles POST /jobs/{id}/retry.
func (h *JobHandler) RetryJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := extractUUIDPathValue(r, "id", "job")
	if err != nil {
		h.errorHandler.HandleValidationError(w, r, err)
		return
	}

	response, err := h.jobQueryService.RetryJob(r.Context(), jobID, UserIDFrom(r.Context()))
	if err != nil {
		h.errorHandler.HandleServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusAccepted, response)
}

// extractUUIDPathValue extracts a UUID path parameter with descriptive
// error handling.
func extractUUIDPathValue(r *http.Request, paramName, resourceType string) (uuid.UUID, error) {
	paramValue := r.PathValue(paramName)
	if paramValue == "" {
		return uuid.Nil, NewValidationError(
			paramName,
			fmt.Sprintf("%s ID is required in URL path", resourceType),
		)
	}

	id, err := uuid.Parse(paramValue)
	if err != nil {
		return uuid.Nil, NewValidationError(
			paramName,
			fmt.Sprintf("invalid %s UUID format: %s", resourceType, paramValue),
		)
	}
	return id, nil
}

// parseIntQueryParam parses an integer query parameter with default value.
func parseIntQueryParam(r *http.Request, paramName string, defaultValue int) int {
	if paramStr := r.URL.Query().Get(paramName); paramStr != "" {
		if value, err := strconv.Atoi(paramStr); err == nil {
			return value
		}
	}
	return defaultValue
}

// validatePaginationParams validates common pagination parameters.
func validatePaginationParams(limit, offset, maxLimit int) error {
	if limit < 1 {
		return NewValidationError("limit", "limit must be at least 1")
	}
	if limit > maxLimit {
		return NewValidationError("limit", fmt.Sprintf("limit cannot exceed %d", maxLimit))
	}
	if offset < 0 {
		return NewValidationError("offset", "offset must be non-negative (0 or greater)")
	}
	return nil
}
