package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"docingest/internal/application/common/slogger"
	"docingest/internal/application/service"
	"docingest/internal/domain/messaging"
	"docingest/internal/domain/valueobject"
	"docingest/internal/port/inbound"
	"docingest/internal/port/outbound"

	"golang.org/x/sync/errgroup"
)

// MessageConsumer is the queue subscription the worker supervises. The NATS
// adapter implements it; tests substitute an in-memory one.
type MessageConsumer interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// WorkerServiceConfig holds configuration for the worker supervisor.
type WorkerServiceConfig struct {
	ClaimTimeout    time.Duration
	ReapInterval    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultWorkerService supervises the queue consumers and the stale-claim
// reaper. A worker that dies mid-job leaves a claim behind; the reaper
// returns such jobs to the queue so the pipeline never wedges on a crash.
type DefaultWorkerService struct {
	config    WorkerServiceConfig
	consumers []MessageConsumer
	jobRepo   outbound.UploadJobRepository
	eventLog  *service.EventLogService
	publisher outbound.MessagePublisher

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewDefaultWorkerService creates a new worker supervisor.
func NewDefaultWorkerService(
	config WorkerServiceConfig,
	consumers []MessageConsumer,
	jobRepo outbound.UploadJobRepository,
	eventLog *service.EventLogService,
	publisher outbound.MessagePublisher,
) inbound.WorkerService {
	if config.ClaimTimeout <= 0 {
		config.ClaimTimeout = 10 * time.Minute
	}
	if config.ReapInterval <= 0 {
		config.ReapInterval = time.Minute
	}
	return &DefaultWorkerService{
		config:    config,
		consumers: consumers,
		jobRepo:   jobRepo,
		eventLog:  eventLog,
		publisher: publisher,
	}
}

// Start launches the consumers and the reap loop. It returns once everything
// is running; supervision continues until Stop or context cancellation.
func (w *DefaultWorkerService) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return errors.New("worker service already started")
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	group, groupCtx := errgroup.WithContext(runCtx)

	for _, consumer := range w.consumers {
		group.Go(func() error {
			return consumer.Start(groupCtx)
		})
	}
	group.Go(func() error {
		w.reapLoop(groupCtx)
		return nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			slogger.ErrorNoCtx("Worker supervision ended with error", slogger.Field("error", err.Error()))
		}
	}()

	w.cancel = cancel
	w.done = done
	w.started = true
	slogger.Info(ctx, "Worker service started", slogger.Field("consumers", len(w.consumers)))
	return nil
}

// Stop shuts down the consumers and waits for supervision to drain.
func (w *DefaultWorkerService) Stop(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return nil
	}

	if w.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.config.ShutdownTimeout)
		defer cancel()
	}

	var stopErr error
	for _, consumer := range w.consumers {
		if err := consumer.Stop(ctx); err != nil {
			stopErr = errors.Join(stopErr, err)
		}
	}
	w.cancel()

	select {
	case <-w.done:
	case <-ctx.Done():
		stopErr = errors.Join(stopErr, fmt.Errorf("worker shutdown: %w", ctx.Err()))
	}

	w.started = false
	slogger.Info(ctx, "Worker service stopped", slogger.Fields{})
	return stopErr
}

func (w *DefaultWorkerService) reapLoop(ctx context.Context) {
	ticker := time.NewTicker(w.config.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.reapOnce(ctx)
		}
	}
}

// reapOnce returns jobs with expired claims to the queue and republishes
// them so a live worker picks them up.
func (w *DefaultWorkerService) reapOnce(ctx context.Context) {
	reaped, err := w.jobRepo.ReapExpiredClaims(ctx, w.config.ClaimTimeout)
	if err != nil {
		slogger.Error(ctx, "Claim reap failed", slogger.Field("error", err.Error()))
		return
	}

	for _, job := range reaped {
		if err := w.eventLog.LogCode(ctx, job.ID(), job.DocumentID(), valueobject.CodeClaimExpired, map[string]any{
			"retry_count": job.RetryCount(),
		}); err != nil {
			slogger.Error(ctx, "Failed to record claim expiry", slogger.Fields2(
				"job_id", job.ID().String(),
				"error", err.Error(),
			))
			continue
		}

		jwd, err := w.jobRepo.FindWithDocument(ctx, job.ID())
		if err != nil || jwd == nil {
			slogger.Error(ctx, "Failed to resolve owner for reaped job", slogger.Field("job_id", job.ID().String()))
			continue
		}
		message, err := messaging.NewJobQueuedMessage(
			job.ID(), job.DocumentID(), jwd.Document.UserID(), job.RetryCount(),
		)
		if err != nil {
			slogger.Error(ctx, "Failed to build requeue message", slogger.Fields2(
				"job_id", job.ID().String(),
				"error", err.Error(),
			))
			continue
		}
		if err := w.publisher.PublishJobQueued(ctx, message); err != nil {
			slogger.Error(ctx, "Failed to republish reaped job", slogger.Fields2(
				"job_id", job.ID().String(),
				"error", err.Error(),
			))
			continue
		}

		slogger.Warn(ctx, "Requeued job with expired claim", slogger.Field("job_id", job.ID().String()))
	}
}
