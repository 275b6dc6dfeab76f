// Package api provides the HTTP surface over upload acceptance and job
// status. Error responses carry a closed vocabulary of machine-readable
// codes; ownership failures surface as not-found so the API never confirms
// another user's resources exist.
package api

import (
	"errors"
	"net/http"

	"docingest/internal/application/common/slogger"
	"docingest/internal/application/dto"
	"docingest/internal/domain/errors/domain"
)

// ErrorHandler defines methods for handling HTTP errors.
type ErrorHandler interface {
	HandleValidationError(w http.ResponseWriter, r *http.Request, err error)
	HandleServiceError(w http.ResponseWriter, r *http.Request, err error)
}

// ErrorHandlingConfig defines the configuration for handling specific error
// types. It centralizes error response logic to reduce duplication.
type ErrorHandlingConfig struct {
	LogMessage      string
	ErrorType       string
	HTTPStatus      int
	ErrorCode       dto.ErrorCode
	ResponseMessage string
	UseDetailedMsg  bool
}

// DefaultErrorHandler implements ErrorHandler with standard HTTP error responses.
type DefaultErrorHandler struct {
	errorConfigs map[error]ErrorHandlingConfig
}

// NewDefaultErrorHandler creates a new DefaultErrorHandler with predefined
// error configurations.
func NewDefaultErrorHandler() ErrorHandler {
	configs := map[error]ErrorHandlingConfig{
		domain.ErrInvalidInput: {
			LogMessage:     "Invalid request input",
			ErrorType:      "invalid_input",
			HTTPStatus:     http.StatusBadRequest,
			ErrorCode:      dto.ErrorCodeInvalidRequest,
			UseDetailedMsg: true,
		},
		domain.ErrDocumentNotFound: {
			LogMessage:      "Document not found",
			ErrorType:       "not_found",
			HTTPStatus:      http.StatusNotFound,
			ErrorCode:       dto.ErrorCodeDocumentNotFound,
			ResponseMessage: "Document not found",
		},
		domain.ErrJobNotFound: {
			LogMessage:      "Upload job not found",
			ErrorType:       "job_not_found",
			HTTPStatus:      http.StatusNotFound,
			ErrorCode:       dto.ErrorCodeJobNotFound,
			ResponseMessage: "Upload job not found",
		},
		domain.ErrJobNotRetryable: {
			LogMessage:      "Upload job not retryable",
			ErrorType:       "invalid_job_state",
			HTTPStatus:      http.StatusBadRequest,
			ErrorCode:       dto.ErrorCodeInvalidJobState,
			ResponseMessage: "Upload job is not in a retryable state",
		},
		domain.ErrDocumentExists: {
			LogMessage:      "Document already exists",
			ErrorType:       "already_exists",
			HTTPStatus:      http.StatusConflict,
			ErrorCode:       dto.ErrorCodeDocumentExists,
			ResponseMessage: "Document already exists",
		},
		domain.ErrUnauthorized: {
			LogMessage:      "Missing or invalid caller identity",
			ErrorType:       "unauthorized",
			HTTPStatus:      http.StatusUnauthorized,
			ErrorCode:       dto.ErrorCodeUnauthorized,
			ResponseMessage: "Caller identity is required",
		},
	}

	return &DefaultErrorHandler{
		errorConfigs: configs,
	}
}

// logError logs an error with consistent context fields.
func (h *DefaultErrorHandler) logError(r *http.Request, message, errorType string, err error) {
	slogger.Error(r.Context(), message, slogger.Fields3(
		"error", err.Error(),
		"path", r.URL.Path,
		"type", errorType,
	))
}

// handleErrorWithConfig handles an error using its configuration.
func (h *DefaultErrorHandler) handleErrorWithConfig(w http.ResponseWriter, r *http.Request, err error, config ErrorHandlingConfig) {
	h.logError(r, config.LogMessage, config.ErrorType, err)

	message := config.ResponseMessage
	if config.UseDetailedMsg {
		message = err.Error()
	}

	response := dto.NewErrorResponse(config.ErrorCode, message, nil)
	h.writeErrorResponse(w, r, config.HTTPStatus, response)
}

// HandleValidationError handles validation errors by returning 400 Bad Request.
func (h *DefaultErrorHandler) HandleValidationError(w http.ResponseWriter, r *http.Request, err error) {
	h.logError(r, "Validation error occurred", "validation", err)

	response := dto.NewErrorResponse(dto.ErrorCodeInvalidRequest, err.Error(), nil)
	h.writeErrorResponse(w, r, http.StatusBadRequest, response)
}

// HandleServiceError handles service errors by mapping them to appropriate
// HTTP status codes.
func (h *DefaultErrorHandler) HandleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for domainErr, config := range h.errorConfigs {
		if errors.Is(err, domainErr) {
			h.handleErrorWithConfig(w, r, err, config)
			return
		}
	}

	defaultConfig := ErrorHandlingConfig{
		LogMessage:      "Internal server error",
		ErrorType:       "internal",
		HTTPStatus:      http.StatusInternalServerError,
		ErrorCode:       dto.ErrorCodeInternalError,
		ResponseMessage: "An internal error occurred",
	}
	h.handleErrorWithConfig(w, r, err, defaultConfig)
}

// writeErrorResponse writes an error response as JSON with correlation ID
// preservation.
func (h *DefaultErrorHandler) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, response dto.ErrorResponse) {
	if correlationID := r.Header.Get("X-Correlation-ID"); correlationID != "" {
		w.Header().Set("X-Correlation-ID", correlationID)
	}

	if err := WriteJSON(w, statusCode, response); err != nil {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Internal Server Error"))
	}
}
