package api

import (
	"net/http"

	"docingest/internal/application/dto"
	"docingest/internal/port/inbound"
)

// EventHandler handles HTTP requests for the audit trail.
type EventHandler struct {
	eventQueryService inbound.EventQueryService
	errorHandler      ErrorHandler
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(eventQueryService inbound.EventQueryService, errorHandler ErrorHandler) *EventHandler {
	return &EventHandler{
		eventQueryService: eventQueryService,
		errorHandler:      errorHandler,
	}
}

// ListDocumentEvents handles GET /documents/{id}/events.
func (h *EventHandler) ListDocumentEvents(w http.ResponseWriter, r *http.Request) {
	documentID, err := extractUUIDPathValue(r, "id", "document")
	if err != nil {
		h.errorHandler.HandleValidationError(w, r, err)
		return
	}

	query := dto.DefaultEventListQuery()
	query.Limit = parseIntQueryParam(r, "limit", query.Limit)
	query.Offset = parseIntQueryParam(r, "offset", query.Offset)

	if err := validatePaginationParams(query.Limit, query.Offset, maxEventListLimit); err != nil {
		h.errorHandler.HandleValidationError(w, r, err)
		return
	}

	response, err := h.eventQueryService.ListDocumentEvents(r.Context(), documentID, UserIDFrom(r.Context()), query)
	if err != nil {
		h.errorHandler.HandleServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, response)
}
