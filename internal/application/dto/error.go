package dto

import "time"

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error     string      `json:"error"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp time.Time   `json:"timestamp,omitempty"`
}

// ErrorCode represents standard error codes.
type ErrorCode string

const (
	// ErrorCodeInvalidRequest indicates that the request contains invalid parameters or data.
	ErrorCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	// ErrorCodeDocumentNotFound indicates that the requested document could not be found.
	ErrorCodeDocumentNotFound ErrorCode = "DOCUMENT_NOT_FOUND"
	// ErrorCodeJobNotFound indicates that the requested upload job could not be found.
	ErrorCodeJobNotFound ErrorCode = "JOB_NOT_FOUND"
	// ErrorCodeInvalidJobState indicates the job is not in a state that permits the operation.
	ErrorCodeInvalidJobState ErrorCode = "INVALID_JOB_STATE"
	// ErrorCodeDocumentExists indicates a duplicate upload that conflicts with an in-flight job.
	ErrorCodeDocumentExists ErrorCode = "DOCUMENT_ALREADY_EXISTS"
	// ErrorCodeUnauthorized indicates the request carried no usable caller identity.
	ErrorCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrorCodeInternalError indicates an unexpected internal server error occurred.
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	// ErrorCodeServiceUnavailable indicates that the service is temporarily unavailable.
	ErrorCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// NewErrorResponse creates a new error response.
func NewErrorResponse(code ErrorCode, message string, details interface{}) ErrorResponse {
	return ErrorResponse{
		Error:     string(code),
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
}
