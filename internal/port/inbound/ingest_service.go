package inbound

import (
	"context"

	"docingest/internal/application/dto"
)

// IngestService accepts uploads into the processing pipeline.
type IngestService interface {
	// AcceptUpload registers a document for the caller, dedups against an
	// existing identical upload, creates a queued job, and announces it on
	// the work queue.
	AcceptUpload(ctx context.Context, userID string, request dto.AcceptUploadRequest) (dto.AcceptUploadResponse, error)
}
