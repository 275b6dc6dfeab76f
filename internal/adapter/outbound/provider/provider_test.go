package provider

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"docingest/internal/config"
	"docingest/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemBlobStore_Fetch(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "raw"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "raw", "doc.md"), []byte("# Title"), 0o644))

	store, err := NewFilesystemBlobStore(root)
	require.NoError(t, err)

	data, err := store.Fetch(context.Background(), "raw/doc.md")
	require.NoError(t, err)
	assert.Equal(t, "# Title", string(data))
}

func TestFilesystemBlobStore_MissingBlob(t *testing.T) {
	store, err := NewFilesystemBlobStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Fetch(context.Background(), "raw/missing.md")
	assert.ErrorIs(t, err, ErrBlobNotFound)
}

func TestFilesystemBlobStore_RejectsEscapingPaths(t *testing.T) {
	store, err := NewFilesystemBlobStore(t.TempDir())
	require.NoError(t, err)

	for _, path := range []string{"../etc/passwd", "/etc/passwd", "raw/../../secret"} {
		_, err := store.Fetch(context.Background(), path)
		assert.Error(t, err, path)
	}
}

func testDocument(t *testing.T) *entity.Document {
	t.Helper()
	return entity.RestoreDocument(
		uuid.New(),
		"user-1", "notes.md", "text/markdown", 7,
		strings.Repeat("a", 64), "raw/notes.md",
		time.Now(), time.Now(),
	)
}

func TestPassthroughParser_ReturnsTextAsMarkdown(t *testing.T) {
	parser := NewPassthroughParser(config.ParserConfig{Name: "docparse", Version: "1.2.0"})

	result, err := parser.Parse(context.Background(), testDocument(t), []byte("# Title\n\nBody."))
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nBody.", result.Markdown)
	assert.Equal(t, "docparse", result.ParserName)
	assert.Equal(t, "1.2.0", result.ParserVersion)
}

func TestPassthroughParser_RejectsBinaryInput(t *testing.T) {
	parser := NewPassthroughParser(config.ParserConfig{})

	_, err := parser.Parse(context.Background(), testDocument(t), []byte{0xff, 0xfe, 0x00})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid UTF-8")
}

func TestParagraphChunker_SplitsOnBlankLines(t *testing.T) {
	chunker := NewParagraphChunker(config.ChunkerConfig{Name: "splitter", Version: "0.3.1", MaxChunkChars: 20})

	result, err := chunker.Chunk(context.Background(), "first paragraph\n\nsecond paragraph\n\nthird")
	require.NoError(t, err)
	assert.Equal(t, []string{"first paragraph", "second paragraph", "third"}, result.Texts)
	assert.Equal(t, "splitter", result.ChunkerName)
}

func TestParagraphChunker_PacksParagraphsUpToLimit(t *testing.T) {
	chunker := NewParagraphChunker(config.ChunkerConfig{MaxChunkChars: 40})

	result, err := chunker.Chunk(context.Background(), "alpha\n\nbeta\n\ngamma")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha\n\nbeta\n\ngamma"}, result.Texts)
}

func TestParagraphChunker_EmptyInputYieldsNoChunks(t *testing.T) {
	chunker := NewParagraphChunker(config.ChunkerConfig{})

	result, err := chunker.Chunk(context.Background(), "\n\n   \n\n")
	require.NoError(t, err)
	assert.Empty(t, result.Texts)
}

func TestStaticEmbedder_ReportsModelMetadata(t *testing.T) {
	embedder, err := NewStaticEmbedder(config.EmbedderConfig{
		Model: "embed-small", ModelVersion: "2024-06", Dimensions: 768,
	})
	require.NoError(t, err)

	result, err := embedder.Embed(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	assert.Equal(t, "embed-small", result.ModelName)
	assert.Equal(t, "2024-06", result.ModelVersion)
	assert.Equal(t, 768, result.Dimensions)
}

func TestStaticEmbedder_RejectsEmptyBatch(t *testing.T) {
	embedder, err := NewStaticEmbedder(config.EmbedderConfig{Model: "embed-small", Dimensions: 8})
	require.NoError(t, err)

	_, err = embedder.Embed(context.Background(), nil)
	assert.Error(t, err)
}

func TestStaticEmbedder_RequiresModelAndDimensions(t *testing.T) {
	_, err := NewStaticEmbedder(config.EmbedderConfig{Dimensions: 8})
	assert.Error(t, err)

	_, err = NewStaticEmbedder(config.EmbedderConfig{Model: "m"})
	assert.Error(t, err)
}
