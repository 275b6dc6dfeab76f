package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"docingest/internal/domain/entity"
	"docingest/internal/domain/errors/domain"
	"docingest/internal/domain/messaging"
	"docingest/internal/port/outbound"

	"github.com/google/uuid"
)

type txScopeKey struct{}

// stubTransactionManager marks the callback context so repositories can tell
// whether a write ran inside a transaction, and counts outcomes.
type stubTransactionManager struct {
	mu        sync.Mutex
	commits   int
	rollbacks int
}

func (m *stubTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(context.WithValue(ctx, txScopeKey{}, true))
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.rollbacks++
		return err
	}
	m.commits++
	return nil
}

func inTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txScopeKey{}).(bool)
	return ok
}

type stubDocumentRepository struct {
	documents map[uuid.UUID]*entity.Document
}

func (r *stubDocumentRepository) Save(_ context.Context, document *entity.Document) error {
	r.documents[document.ID()] = document
	return nil
}

func (r *stubDocumentRepository) Update(_ context.Context, document *entity.Document) error {
	r.documents[document.ID()] = document
	return nil
}

func (r *stubDocumentRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Document, error) {
	return r.documents[id], nil
}

func (r *stubDocumentRepository) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := r.documents[id]
	return ok, nil
}

type stubJobRepository struct {
	mu        sync.Mutex
	jobs      map[uuid.UUID]*entity.UploadJob
	docs      *stubDocumentRepository
	updates   int
	txUpdates int
}

func (r *stubJobRepository) Save(_ context.Context, job *entity.UploadJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID()] = job
	return nil
}

func (r *stubJobRepository) Update(ctx context.Context, job *entity.UploadJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID()]; !ok {
		return domain.ErrJobNotFound
	}
	r.updates++
	if inTransaction(ctx) {
		r.txUpdates++
	}
	r.jobs[job.ID()] = job
	return nil
}

func (r *stubJobRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.UploadJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[id], nil
}

func (r *stubJobRepository) FindWithDocument(ctx context.Context, id uuid.UUID) (*outbound.JobWithDocument, error) {
	r.mu.Lock()
	job := r.jobs[id]
	r.mu.Unlock()
	if job == nil {
		return nil, nil
	}
	document, err := r.docs.FindByID(ctx, job.DocumentID())
	if err != nil {
		return nil, err
	}
	return &outbound.JobWithDocument{Job: job, Document: document}, nil
}

func (r *stubJobRepository) ListByUser(
	_ context.Context, _ string, _ outbound.JobFilters,
) ([]*outbound.JobWithDocument, int, error) {
	return nil, 0, nil
}

func (r *stubJobRepository) Claim(_ context.Context, id uuid.UUID, workerID string) (*entity.UploadJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	if err := job.Claim(workerID); err != nil {
		return nil, domain.ErrJobAlreadyClaimed
	}
	return job, nil
}

func (r *stubJobRepository) ReapExpiredClaims(
	_ context.Context, claimTimeout time.Duration,
) ([]*entity.UploadJob, error) {
	return nil, nil
}

type stubEventRepository struct {
	mu       sync.Mutex
	events   []*entity.Event
	failCode string
}

func (r *stubEventRepository) Save(_ context.Context, event *entity.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCode != "" && event.Code().String() == r.failCode {
		return errors.New("event store unavailable")
	}
	r.events = append(r.events, event)
	return nil
}

func (r *stubEventRepository) FindByJobID(
	_ context.Context, jobID uuid.UUID, _ outbound.EventFilters,
) ([]*entity.Event, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Event
	for _, event := range r.events {
		if event.JobID() == jobID {
			out = append(out, event)
		}
	}
	return out, len(out), nil
}

func (r *stubEventRepository) FindByDocumentID(
	_ context.Context, documentID uuid.UUID, _ outbound.EventFilters,
) ([]*entity.Event, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Event
	for _, event := range r.events {
		if event.DocumentID() == documentID {
			out = append(out, event)
		}
	}
	return out, len(out), nil
}

func (r *stubEventRepository) codes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, event := range r.events {
		out = append(out, event.Code().String())
	}
	return out
}

type stubArtifactRepository struct {
	mu        sync.Mutex
	artifacts map[uuid.UUID]*entity.ParseArtifact
}

func (r *stubArtifactRepository) Upsert(_ context.Context, artifact *entity.ParseArtifact) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, existed := r.artifacts[artifact.ID()]
	r.artifacts[artifact.ID()] = artifact
	return !existed, nil
}

func (r *stubArtifactRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.ParseArtifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.artifacts[id], nil
}

type stubChunkRepository struct {
	mu     sync.Mutex
	chunks map[uuid.UUID]*entity.Chunk
}

func (r *stubChunkRepository) UpsertChunks(_ context.Context, chunks []*entity.Chunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, chunk := range chunks {
		r.chunks[chunk.ID()] = chunk
	}
	return nil
}

func (r *stubChunkRepository) FindByDocumentID(_ context.Context, documentID uuid.UUID) ([]*entity.Chunk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Chunk
	for _, chunk := range r.chunks {
		if chunk.DocumentID() == documentID {
			out = append(out, chunk)
		}
	}
	return out, nil
}

type stubBlobStore struct {
	data map[string][]byte
	err  error
}

func (s *stubBlobStore) Fetch(_ context.Context, storagePath string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	raw, ok := s.data[storagePath]
	if !ok {
		return nil, errors.New("blob not found: " + storagePath)
	}
	return raw, nil
}

type stubParser struct {
	result outbound.ParseResult
	err    error
}

func (p *stubParser) Parse(_ context.Context, _ *entity.Document, _ []byte) (outbound.ParseResult, error) {
	if p.err != nil {
		return outbound.ParseResult{}, p.err
	}
	return p.result, nil
}

type stubChunker struct {
	result outbound.ChunkResult
	err    error
}

func (c *stubChunker) Chunk(_ context.Context, _ string) (outbound.ChunkResult, error) {
	if c.err != nil {
		return outbound.ChunkResult{}, c.err
	}
	return c.result, nil
}

type stubEmbedder struct {
	result outbound.EmbedResult
	err    error
}

func (e *stubEmbedder) Embed(_ context.Context, _ []string) (outbound.EmbedResult, error) {
	if e.err != nil {
		return outbound.EmbedResult{}, e.err
	}
	return e.result, nil
}

type stubPublisher struct {
	mu        sync.Mutex
	published []messaging.JobQueuedMessage
}

func (p *stubPublisher) PublishJobQueued(_ context.Context, message messaging.JobQueuedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, message)
	return nil
}

func (p *stubPublisher) Close() error { return nil }
