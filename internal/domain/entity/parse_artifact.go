package entity

import (
	"time"

	"github.com/google/uuid"
)

// ParseArtifact is the normalized-markdown output of parsing a document with
// a specific parser and version. Its identity is content-derived, so
// reprocessing with the same parser collides with (and dedups against) an
// earlier identical parse.
type ParseArtifact struct {
	id            uuid.UUID
	documentID    uuid.UUID
	parserName    string
	parserVersion string
	parsedSHA256  string
	markdown      string
	createdAt     time.Time
}

// NewParseArtifact creates a parse artifact. parsedSHA256 must be the hash
// of the canonicalized markdown, not of the raw parser output.
func NewParseArtifact(
	id uuid.UUID,
	documentID uuid.UUID,
	parserName string,
	parserVersion string,
	parsedSHA256 string,
	markdown string,
) (*ParseArtifact, error) {
	if id == uuid.Nil {
		return nil, NewDomainError("parse ID cannot be nil", "INVALID_PARSE_ID")
	}
	if documentID == uuid.Nil {
		return nil, NewDomainError("parse document ID cannot be nil", "INVALID_DOCUMENT_ID")
	}
	if parsedSHA256 == "" {
		return nil, NewDomainError("parsed hash cannot be empty", "INVALID_PARSED_HASH")
	}

	return &ParseArtifact{
		id:            id,
		documentID:    documentID,
		parserName:    parserName,
		parserVersion: parserVersion,
		parsedSHA256:  parsedSHA256,
		markdown:      markdown,
		createdAt:     time.Now(),
	}, nil
}

// RestoreParseArtifact creates a ParseArtifact entity from stored data.
func RestoreParseArtifact(
	id uuid.UUID,
	documentID uuid.UUID,
	parserName string,
	parserVersion string,
	parsedSHA256 string,
	markdown string,
	createdAt time.Time,
) *ParseArtifact {
	return &ParseArtifact{
		id:            id,
		documentID:    documentID,
		parserName:    parserName,
		parserVersion: parserVersion,
		parsedSHA256:  parsedSHA256,
		markdown:      markdown,
		createdAt:     createdAt,
	}
}

// ID returns the content-derived parse ID.
func (p *ParseArtifact) ID() uuid.UUID {
	return p.id
}

// DocumentID returns the parsed document's ID.
func (p *ParseArtifact) DocumentID() uuid.UUID {
	return p.documentID
}

// ParserName returns the name of the parser that produced this artifact.
func (p *ParseArtifact) ParserName() string {
	return p.parserName
}

// ParserVersion returns the parser version.
func (p *ParseArtifact) ParserVersion() string {
	return p.parserVersion
}

// ParsedSHA256 returns the dedup/verification hash of the canonicalized
// markdown.
func (p *ParseArtifact) ParsedSHA256() string {
	return p.parsedSHA256
}

// Markdown returns the parsed markdown as produced by the parser.
func (p *ParseArtifact) Markdown() string {
	return p.markdown
}

// CreatedAt returns the creation timestamp.
func (p *ParseArtifact) CreatedAt() time.Time {
	return p.createdAt
}
