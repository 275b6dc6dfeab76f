package dto

import (
	"time"

	"github.com/google/uuid"
)

// AcceptUploadRequest carries the upload-acceptance metadata for a file the
// caller has already placed in blob storage. The blob transport itself is
// external; this request only registers the document and queues processing.
type AcceptUploadRequest struct {
	Filename       string `json:"filename"`
	MimeType       string `json:"mime_type"`
	ByteLength     int64  `json:"byte_length"`
	FileSHA256     string `json:"file_sha256"`
	RawStoragePath string `json:"raw_storage_path"`
}

// AcceptUploadResponse reports the content-derived document identity and
// the queued job. Deduplicated is true when a document with the same
// (user, file hash) identity already existed.
type AcceptUploadResponse struct {
	DocumentID   uuid.UUID `json:"document_id"`
	JobID        uuid.UUID `json:"job_id"`
	State        string    `json:"state"`
	Stage        string    `json:"stage"`
	Deduplicated bool      `json:"deduplicated"`
	CreatedAt    time.Time `json:"created_at"`
}
