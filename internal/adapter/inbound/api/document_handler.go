package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"docingest/internal/application/dto"
	"docingest/internal/port/inbound"
)

const maxFilenameLength = 512

// DocumentHandler handles HTTP requests for upload acceptance.
type DocumentHandler struct {
	ingestService inbound.IngestService
	errorHandler  ErrorHandler
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(ingestService inbound.IngestService, errorHandler ErrorHandler) *DocumentHandler {
	return &DocumentHandler{
		ingestService: ingestService,
		errorHandler:  errorHandler,
	}
}

// AcceptUpload handles POST /documents. The raw bytes are already in blob
// storage; this endpoint registers the document, dedups by content identity
// and queues processing.
func (h *DocumentHandler) AcceptUpload(w http.ResponseWriter, r *http.Request) {
	var request dto.AcceptUploadRequest
	if err := decodeJSONBody(r, &request); err != nil {
		h.errorHandler.HandleValidationError(w, r, err)
		return
	}

	if err := validateAcceptUploadBody(request); err != nil {
		h.errorHandler.HandleValidationError(w, r, err)
		return
	}

	response, err := h.ingestService.AcceptUpload(r.Context(), UserIDFrom(r.Context()), request)
	if err != nil {
		h.errorHandler.HandleServiceError(w, r, err)
		return
	}

	// A dedup hit points at the existing document, so report 200 rather
	// than 202.
	status := http.StatusAccepted
	if response.Deduplicated {
		status = http.StatusOK
	}
	writeJSONResponse(w, status, response)
}

// validateAcceptUploadBody rejects obviously malformed requests before they
// reach the service layer, which revalidates against domain rules.
func validateAcceptUploadBody(request dto.AcceptUploadRequest) error {
	if request.Filename == "" {
		return NewValidationError("filename", "filename is required")
	}
	if len(request.Filename) > maxFilenameLength {
		return NewValidationError("filename", fmt.Sprintf("filename exceeds %d characters", maxFilenameLength))
	}
	if request.FileSHA256 == "" {
		return NewValidationError("file_sha256", "file_sha256 is required")
	}
	if request.ByteLength < 0 {
		return NewValidationError("byte_length", "byte_length must be non-negative")
	}
	return nil
}

// decodeJSONBody decodes a JSON request body with strict field checking.
func decodeJSONBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return NewValidationError("body", "request body is required")
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		return NewValidationError("body", fmt.Sprintf("invalid JSON format: %v", err))
	}
	return nil
}

// writeJSONResponse writes a JSON response using the pooled encoder.
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	if err := WriteJSON(w, statusCode, data); err != nil {
		// Encoding well-formed DTOs cannot realistically fail; nothing
		// useful is left to send the client at this point.
		_ = err
	}
}
