package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"docingest/internal/domain/entity"
	"docingest/internal/domain/errors/domain"
	"docingest/internal/domain/messaging"
	"docingest/internal/domain/valueobject"
	"docingest/internal/port/outbound"

	"github.com/google/uuid"
)

// memDocumentRepository is an in-memory DocumentRepository for service tests.
type memDocumentRepository struct {
	mu        sync.Mutex
	documents map[uuid.UUID]*entity.Document
	saveErr   error
}

func newMemDocumentRepository() *memDocumentRepository {
	return &memDocumentRepository{documents: make(map[uuid.UUID]*entity.Document)}
}

func (r *memDocumentRepository) Save(_ context.Context, document *entity.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	if _, ok := r.documents[document.ID()]; ok {
		return domain.ErrDocumentExists
	}
	r.documents[document.ID()] = document
	return nil
}

func (r *memDocumentRepository) Update(_ context.Context, document *entity.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.documents[document.ID()]; !ok {
		return domain.ErrDocumentNotFound
	}
	r.documents[document.ID()] = document
	return nil
}

func (r *memDocumentRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.documents[id], nil
}

func (r *memDocumentRepository) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.documents[id]
	return ok, nil
}

// memJobRepository is an in-memory UploadJobRepository. It resolves
// FindWithDocument against a sibling document repository.
type memJobRepository struct {
	mu      sync.Mutex
	jobs    map[uuid.UUID]*entity.UploadJob
	docs    *memDocumentRepository
	saveErr error
}

func newMemJobRepository(docs *memDocumentRepository) *memJobRepository {
	return &memJobRepository{jobs: make(map[uuid.UUID]*entity.UploadJob), docs: docs}
}

func (r *memJobRepository) Save(_ context.Context, job *entity.UploadJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.jobs[job.ID()] = job
	return nil
}

func (r *memJobRepository) Update(_ context.Context, job *entity.UploadJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID()]; !ok {
		return domain.ErrJobNotFound
	}
	r.jobs[job.ID()] = job
	return nil
}

func (r *memJobRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.UploadJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[id], nil
}

func (r *memJobRepository) FindWithDocument(ctx context.Context, id uuid.UUID) (*outbound.JobWithDocument, error) {
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

func (r *memJobRepository) ListByUser(
	ctx context.Context,
	userID string,
	filters outbound.JobFilters,
) ([]*outbound.JobWithDocument, int, error) {
	r.mu.Lock()
	all := make([]*entity.UploadJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		all = append(all, job)
	}
	r.mu.Unlock()

	matched := make([]*outbound.JobWithDocument, 0, len(all))
	for _, job := range all {
		document, err := r.docs.FindByID(ctx, job.DocumentID())
		if err != nil {
			return nil, 0, err
		}
		if document == nil || !document.OwnedBy(userID) {
			continue
		}
		if filters.State != nil && job.State() != *filters.State {
			continue
		}
		matched = append(matched, &outbound.JobWithDocument{Job: job, Document: document})
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Job.CreatedAt().After(matched[j].Job.CreatedAt())
	})

	total := len(matched)
	if filters.Offset >= total {
		return nil, total, nil
	}
	matched = matched[filters.Offset:]
	if filters.Limit > 0 && len(matched) > filters.Limit {
		matched = matched[:filters.Limit]
	}
	return matched, total, nil
}

func (r *memJobRepository) Claim(_ context.Context, id uuid.UUID, workerID string) (*entity.UploadJob, error) {
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

func (r *memJobRepository) ReapExpiredClaims(_ context.Context, claimTimeout time.Duration) ([]*entity.UploadJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-claimTimeout)
	var reaped []*entity.UploadJob
	for _, job := range r.jobs {
		claimedAt := job.ClaimedAt()
		if claimedAt == nil || !claimedAt.Before(cutoff) {
			continue
		}
		jobErr, err := valueobject.NewJobError("CLAIM_EXPIRED", "worker claim expired", nil)
		if err != nil {
			return nil, err
		}
		if err := job.FailTransient(jobErr); err != nil {
			continue
		}
		if err := job.Requeue(); err != nil {
			continue
		}
		reaped = append(reaped, job)
	}
	return reaped, nil
}

// memEventRepository is an in-memory append-only EventRepository.
type memEventRepository struct {
	mu      sync.Mutex
	events  []*entity.Event
	saveErr error
}

func newMemEventRepository() *memEventRepository {
	return &memEventRepository{}
}

func (r *memEventRepository) Save(_ context.Context, event *entity.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.events = append(r.events, event)
	return nil
}

func (r *memEventRepository) FindByJobID(
	_ context.Context,
	jobID uuid.UUID,
	filters outbound.EventFilters,
) ([]*entity.Event, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*entity.Event
	for _, event := range r.events {
		if event.JobID() == jobID {
			matched = append(matched, event)
		}
	}
	return paginateEvents(matched, filters)
}

func (r *memEventRepository) FindByDocumentID(
	_ context.Context,
	documentID uuid.UUID,
	filters outbound.EventFilters,
) ([]*entity.Event, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*entity.Event
	for _, event := range r.events {
		if event.DocumentID() == documentID {
			matched = append(matched, event)
		}
	}
	return paginateEvents(matched, filters)
}

func eventFilters(limit int) outbound.EventFilters {
	return outbound.EventFilters{Limit: limit}
}

func paginateEvents(matched []*entity.Event, filters outbound.EventFilters) ([]*entity.Event, int, error) {
	total := len(matched)
	if filters.Offset >= total {
		return nil, total, nil
	}
	matched = matched[filters.Offset:]
	if filters.Limit > 0 && len(matched) > filters.Limit {
		matched = matched[:filters.Limit]
	}
	return matched, total, nil
}

func (r *memEventRepository) codes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, event := range r.events {
		out = append(out, event.Code().String())
	}
	return out
}

// memPublisher records published messages.
type memPublisher struct {
	mu         sync.Mutex
	published  []messaging.JobQueuedMessage
	publishErr error
}

func newMemPublisher() *memPublisher {
	return &memPublisher{}
}

func (p *memPublisher) PublishJobQueued(_ context.Context, message messaging.JobQueuedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.publishErr != nil {
		return p.publishErr
	}
	p.published = append(p.published, message)
	return nil
}

func (p *memPublisher) Close() error {
	return nil
}

func (p *memPublisher) messages() []messaging.JobQueuedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]messaging.JobQueuedMessage, len(p.published))
	copy(out, p.published)
	return out
}
