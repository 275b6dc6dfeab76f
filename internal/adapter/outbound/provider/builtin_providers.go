package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"docingest/internal/config"
	"docingest/internal/domain/entity"
	"docingest/internal/port/outbound"
)

var (
	_ outbound.DocumentParser     = (*PassthroughParser)(nil)
	_ outbound.DocumentChunker    = (*ParagraphChunker)(nil)
	_ outbound.EmbeddingGenerator = (*StaticEmbedder)(nil)
)

// defaultMaxChunkChars bounds chunk size when no limit is configured.
const defaultMaxChunkChars = 4000

// PassthroughParser treats the raw document bytes as markdown or plain
// text. It handles text uploads end to end; binary formats need a hosted
// parser behind the same port.
type PassthroughParser struct {
	name    string
	version string
}

// NewPassthroughParser creates a parser identified by the configured
// name and version.
func NewPassthroughParser(cfg config.ParserConfig) *PassthroughParser {
	name := cfg.Name
	if name == "" {
		name = "passthrough"
	}
	version := cfg.Version
	if version == "" {
		version = "1.0.0"
	}
	return &PassthroughParser{name: name, version: version}
}

// Parse returns the raw bytes as markdown.
func (p *PassthroughParser) Parse(ctx context.Context, document *entity.Document, raw []byte) (outbound.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return outbound.ParseResult{}, err
	}
	if document == nil {
		return outbound.ParseResult{}, errors.New("document cannot be nil")
	}
	if !utf8.Valid(raw) {
		return outbound.ParseResult{}, fmt.Errorf("document %s is not valid UTF-8 text", document.Filename())
	}

	return outbound.ParseResult{
		Markdown:      string(raw),
		ParserName:    p.name,
		ParserVersion: p.version,
		CostCents:     0,
	}, nil
}

// ParagraphChunker splits markdown on blank lines and packs paragraphs
// into chunks no larger than the configured character limit. A single
// paragraph over the limit becomes its own oversized chunk rather than
// being split mid-sentence.
type ParagraphChunker struct {
	name          string
	version       string
	maxChunkChars int
}

// NewParagraphChunker creates a chunker identified by the configured
// name and version.
func NewParagraphChunker(cfg config.ChunkerConfig) *ParagraphChunker {
	name := cfg.Name
	if name == "" {
		name = "paragraph"
	}
	version := cfg.Version
	if version == "" {
		version = "1.0.0"
	}
	limit := cfg.MaxChunkChars
	if limit <= 0 {
		limit = defaultMaxChunkChars
	}
	return &ParagraphChunker{name: name, version: version, maxChunkChars: limit}
}

// Chunk segments markdown into ordered chunk texts.
func (c *ParagraphChunker) Chunk(ctx context.Context, markdown string) (outbound.ChunkResult, error) {
	if err := ctx.Err(); err != nil {
		return outbound.ChunkResult{}, err
	}

	var texts []string
	var current strings.Builder
	for _, paragraph := range strings.Split(markdown, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		if current.Len() > 0 && current.Len()+len("\n\n")+len(paragraph) > c.maxChunkChars {
			texts = append(texts, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(paragraph)
	}
	if current.Len() > 0 {
		texts = append(texts, current.String())
	}

	return outbound.ChunkResult{
		Texts:          texts,
		ChunkerName:    c.name,
		ChunkerVersion: c.version,
		CostCents:      0,
	}, nil
}

// StaticEmbedder reports configured embedding metadata without calling a
// hosted model. Vector storage lives provider-side, so the pipeline only
// needs the model identity and dimensions back.
type StaticEmbedder struct {
	model        string
	modelVersion string
	dimensions   int
}

// NewStaticEmbedder creates an embedder identified by the configured model.
func NewStaticEmbedder(cfg config.EmbedderConfig) (*StaticEmbedder, error) {
	if cfg.Model == "" {
		return nil, errors.New("embedder model cannot be empty")
	}
	if cfg.Dimensions <= 0 {
		return nil, errors.New("embedder dimensions must be positive")
	}
	return &StaticEmbedder{
		model:        cfg.Model,
		modelVersion: cfg.ModelVersion,
		dimensions:   cfg.Dimensions,
	}, nil
}

// Embed reports the embedding metadata for a batch of texts.
func (e *StaticEmbedder) Embed(ctx context.Context, texts []string) (outbound.EmbedResult, error) {
	if err := ctx.Err(); err != nil {
		return outbound.EmbedResult{}, err
	}
	if len(texts) == 0 {
		return outbound.EmbedResult{}, errors.New("embed batch cannot be empty")
	}

	return outbound.EmbedResult{
		ModelName:    e.model,
		ModelVersion: e.modelVersion,
		Dimensions:   e.dimensions,
		CostCents:    0,
	}, nil
}
