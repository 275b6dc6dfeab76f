package entity

import (
	"time"

	"github.com/google/uuid"
)

// Document represents one uploaded file per user. Its identity is
// content-derived from (user, file hash), so uploading the same file twice
// for the same user resolves to the same Document. Documents are immutable
// after creation except for storage-path updates; deletion is an external
// concern.
type Document struct {
	id             uuid.UUID
	userID         string
	filename       string
	mimeType       string
	byteLength     int64
	fileSHA256     string
	rawStoragePath string
	createdAt      time.Time
	updatedAt      time.Time
}

// NewDocument creates a new Document entity with a pre-derived identity.
func NewDocument(
	id uuid.UUID,
	userID string,
	filename string,
	mimeType string,
	byteLength int64,
	fileSHA256 string,
	rawStoragePath string,
) (*Document, error) {
	if id == uuid.Nil {
		return nil, NewDomainError("document ID cannot be nil", "INVALID_DOCUMENT_ID")
	}
	if userID == "" {
		return nil, NewDomainError("document user ID cannot be empty", "INVALID_USER_ID")
	}
	if fileSHA256 == "" {
		return nil, NewDomainError("document file hash cannot be empty", "INVALID_FILE_HASH")
	}
	if byteLength < 0 {
		return nil, NewDomainError("document byte length cannot be negative", "INVALID_BYTE_LENGTH")
	}

	now := time.Now()
	return &Document{
		id:             id,
		userID:         userID,
		filename:       filename,
		mimeType:       mimeType,
		byteLength:     byteLength,
		fileSHA256:     fileSHA256,
		rawStoragePath: rawStoragePath,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// RestoreDocument creates a Document entity from stored data.
func RestoreDocument(
	id uuid.UUID,
	userID string,
	filename string,
	mimeType string,
	byteLength int64,
	fileSHA256 string,
	rawStoragePath string,
	createdAt time.Time,
	updatedAt time.Time,
) *Document {
	return &Document{
		id:             id,
		userID:         userID,
		filename:       filename,
		mimeType:       mimeType,
		byteLength:     byteLength,
		fileSHA256:     fileSHA256,
		rawStoragePath: rawStoragePath,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// ID returns the content-derived document ID.
func (d *Document) ID() uuid.UUID {
	return d.id
}

// UserID returns the owning user's identifier.
func (d *Document) UserID() string {
	return d.userID
}

// Filename returns the original filename.
func (d *Document) Filename() string {
	return d.filename
}

// MimeType returns the declared MIME type.
func (d *Document) MimeType() string {
	return d.mimeType
}

// ByteLength returns the raw file length in bytes.
func (d *Document) ByteLength() int64 {
	return d.byteLength
}

// FileSHA256 returns the hex SHA-256 of the raw file content.
func (d *Document) FileSHA256() string {
	return d.fileSHA256
}

// RawStoragePath returns the pointer into external blob storage.
func (d *Document) RawStoragePath() string {
	return d.rawStoragePath
}

// CreatedAt returns the creation timestamp.
func (d *Document) CreatedAt() time.Time {
	return d.createdAt
}

// UpdatedAt returns the last update timestamp.
func (d *Document) UpdatedAt() time.Time {
	return d.updatedAt
}

// UpdateStoragePath points the document at a new blob storage location.
// This is the only mutation a document permits after creation.
func (d *Document) UpdateStoragePath(path string) error {
	if path == "" {
		return NewDomainError("storage path cannot be empty", "INVALID_STORAGE_PATH")
	}
	d.rawStoragePath = path
	d.updatedAt = time.Now()
	return nil
}

// OwnedBy reports whether the document belongs to the given user.
func (d *Document) OwnedBy(userID string) bool {
	return d.userID == userID
}

// Equal compares two Document entities by identity.
func (d *Document) Equal(other *Document) bool {
	if other == nil {
		return false
	}
	return d.id == other.id
}
