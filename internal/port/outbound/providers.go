package outbound

import (
	"context"

	"docingest/internal/domain/entity"
)

// ParseResult is the output of a document parser provider.
type ParseResult struct {
	Markdown      string
	ParserName    string
	ParserVersion string
	CostCents     int64
}

// DocumentParser converts a raw document into normalized markdown. Parsers
// are black-box services; failures are transient provider errors consumed
// by the retry policy.
type DocumentParser interface {
	Parse(ctx context.Context, document *entity.Document, raw []byte) (ParseResult, error)
}

// ChunkResult is the output of a chunker provider.
type ChunkResult struct {
	Texts          []string
	ChunkerName    string
	ChunkerVersion string
	CostCents      int64
}

// DocumentChunker segments parsed markdown into ordered chunk texts.
type DocumentChunker interface {
	Chunk(ctx context.Context, markdown string) (ChunkResult, error)
}

// EmbedResult is the output of an embedding provider for a batch of texts.
type EmbedResult struct {
	ModelName    string
	ModelVersion string
	Dimensions   int
	CostCents    int64
}

// EmbeddingGenerator embeds chunk texts. Vector storage is owned by the
// provider side; this core only records the embedding metadata on chunks.
type EmbeddingGenerator interface {
	Embed(ctx context.Context, texts []string) (EmbedResult, error)
}

// BlobStore fetches raw document bytes from external blob storage. Upload
// and download transport is an external collaborator.
type BlobStore interface {
	Fetch(ctx context.Context, storagePath string) ([]byte, error)
}
