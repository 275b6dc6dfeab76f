package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// EmbeddingInfo carries the embedding metadata attached to a chunk once it
// has been embedded.
type EmbeddingInfo struct {
	ModelName    string
	ModelVersion string
	Dimensions   int
}

// Chunk is one unit of segmented text from a parsed document, produced by a
// specific chunker and version at a specific ordinal. Chunk identity is
// content-derived and stable across reprocessing, which makes buffer writes
// idempotent upserts.
type Chunk struct {
	id             uuid.UUID
	documentID     uuid.UUID
	chunkerName    string
	chunkerVersion string
	ordinal        int
	text           string
	textSHA256     string
	embedding      *EmbeddingInfo
	createdAt      time.Time
}

// NewChunk creates a chunk with a pre-derived identity. The text hash is
// verbatim SHA-256 of the chunk text; chunk text gets no canonicalization.
func NewChunk(
	id uuid.UUID,
	documentID uuid.UUID,
	chunkerName string,
	chunkerVersion string,
	ordinal int,
	text string,
) (*Chunk, error) {
	if id == uuid.Nil {
		return nil, NewDomainError("chunk ID cannot be nil", "INVALID_CHUNK_ID")
	}
	if documentID == uuid.Nil {
		return nil, NewDomainError("chunk document ID cannot be nil", "INVALID_DOCUMENT_ID")
	}
	if ordinal < 0 {
		return nil, NewDomainError("chunk ordinal cannot be negative", "INVALID_CHUNK_ORDINAL")
	}

	sum := sha256.Sum256([]byte(text))
	return &Chunk{
		id:             id,
		documentID:     documentID,
		chunkerName:    chunkerName,
		chunkerVersion: chunkerVersion,
		ordinal:        ordinal,
		text:           text,
		textSHA256:     hex.EncodeToString(sum[:]),
		createdAt:      time.Now(),
	}, nil
}

// RestoreChunk creates a Chunk entity from stored data.
func RestoreChunk(
	id uuid.UUID,
	documentID uuid.UUID,
	chunkerName string,
	chunkerVersion string,
	ordinal int,
	text string,
	textSHA256 string,
	embedding *EmbeddingInfo,
	createdAt time.Time,
) *Chunk {
	return &Chunk{
		id:             id,
		documentID:     documentID,
		chunkerName:    chunkerName,
		chunkerVersion: chunkerVersion,
		ordinal:        ordinal,
		text:           text,
		textSHA256:     textSHA256,
		embedding:      embedding,
		createdAt:      createdAt,
	}
}

// ID returns the content-derived chunk ID.
func (c *Chunk) ID() uuid.UUID {
	return c.id
}

// DocumentID returns the source document's ID.
func (c *Chunk) DocumentID() uuid.UUID {
	return c.documentID
}

// ChunkerName returns the name of the chunker that produced this chunk.
func (c *Chunk) ChunkerName() string {
	return c.chunkerName
}

// ChunkerVersion returns the chunker version.
func (c *Chunk) ChunkerVersion() string {
	return c.chunkerVersion
}

// Ordinal returns the 0-based position of the chunk within the document.
func (c *Chunk) Ordinal() int {
	return c.ordinal
}

// Text returns the chunk text.
func (c *Chunk) Text() string {
	return c.text
}

// TextSHA256 returns the verbatim hash of the chunk text.
func (c *Chunk) TextSHA256() string {
	return c.textSHA256
}

// Embedding returns the embedding metadata, nil until embedded.
func (c *Chunk) Embedding() *EmbeddingInfo {
	return c.embedding
}

// AttachEmbedding records embedding metadata on the chunk.
func (c *Chunk) AttachEmbedding(info EmbeddingInfo) error {
	if info.ModelName == "" {
		return NewDomainError("embedding model name cannot be empty", "INVALID_EMBEDDING_MODEL")
	}
	if info.Dimensions <= 0 {
		return NewDomainError("embedding dimensions must be positive", "INVALID_EMBEDDING_DIMENSIONS")
	}
	c.embedding = &info
	return nil
}

// CreatedAt returns the creation timestamp.
func (c *Chunk) CreatedAt() time.Time {
	return c.createdAt
}
