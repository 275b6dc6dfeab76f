package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docingest/internal/application/common/slogger"
	"docingest/internal/application/service"
	"docingest/internal/domain/entity"
	"docingest/internal/domain/errors/domain"
	"docingest/internal/domain/identity"
	"docingest/internal/domain/messaging"
	"docingest/internal/domain/normalization"
	"docingest/internal/domain/valueobject"
	"docingest/internal/port/inbound"
	"docingest/internal/port/outbound"
)

// RetryScheduledError tells the consumer to NAK the message with a delay
// instead of acknowledging it: the job has been parked in retryable and the
// broker owns the backoff timer.
type RetryScheduledError struct {
	Delay      time.Duration
	RetryCount int
}

func (e *RetryScheduledError) Error() string {
	return fmt.Sprintf("retry scheduled after %s (attempt %d)", e.Delay, e.RetryCount)
}

// JobProcessorConfig holds configuration for the job processor.
type JobProcessorConfig struct {
	WorkerID   string
	JobTimeout time.Duration
}

// DefaultJobProcessor advances one claimed job through the linear pipeline:
// validate, parse, chunk, embed. Each stage advance is persisted before the
// next stage starts so a crash resumes with an accurate stage on record.
type DefaultJobProcessor struct {
	config       JobProcessorConfig
	idGen        *identity.Generator
	txManager    outbound.TransactionManager
	jobRepo      outbound.UploadJobRepository
	documentRepo outbound.DocumentRepository
	artifactRepo outbound.ParseArtifactRepository
	chunkRepo    outbound.ChunkRepository
	blobStore    outbound.BlobStore
	parser       outbound.DocumentParser
	chunker      outbound.DocumentChunker
	embedder     outbound.EmbeddingGenerator
	eventLog     *service.EventLogService
	retryPolicy  *service.RetryPolicy
	metrics      service.PipelineMetrics
}

// NewDefaultJobProcessor creates a new default job processor.
func NewDefaultJobProcessor(
	config JobProcessorConfig,
	idGen *identity.Generator,
	txManager outbound.TransactionManager,
	jobRepo outbound.UploadJobRepository,
	documentRepo outbound.DocumentRepository,
	artifactRepo outbound.ParseArtifactRepository,
	chunkRepo outbound.ChunkRepository,
	blobStore outbound.BlobStore,
	parser outbound.DocumentParser,
	chunker outbound.DocumentChunker,
	embedder outbound.EmbeddingGenerator,
	eventLog *service.EventLogService,
	retryPolicy *service.RetryPolicy,
	metrics service.PipelineMetrics,
) inbound.JobProcessor {
	return &DefaultJobProcessor{
		config:       config,
		idGen:        idGen,
		txManager:    txManager,
		jobRepo:      jobRepo,
		documentRepo: documentRepo,
		artifactRepo: artifactRepo,
		chunkRepo:    chunkRepo,
		blobStore:    blobStore,
		parser:       parser,
		chunker:      chunker,
		embedder:     embedder,
		eventLog:     eventLog,
		retryPolicy:  retryPolicy,
		metrics:      metrics,
	}
}

// ProcessJob claims the job named by the message and runs it to done,
// retryable, or deadletter. Returns nil when the message should be
// acknowledged and a RetryScheduledError when it should be redelivered.
func (p *DefaultJobProcessor) ProcessJob(ctx context.Context, message messaging.JobQueuedMessage) error {
	if err := message.Validate(); err != nil {
		slogger.Error(ctx, "Dropping malformed job message", slogger.Field("error", err.Error()))
		return nil
	}

	if p.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.JobTimeout)
		defer cancel()
	}

	job, err := p.jobRepo.Claim(ctx, message.JobID, p.config.WorkerID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrJobAlreadyClaimed):
			slogger.Info(ctx, "Job claimed by another worker", slogger.Field("job_id", message.JobID.String()))
			return nil
		case errors.Is(err, domain.ErrJobNotFound):
			slogger.Warn(ctx, "Job message names unknown job", slogger.Field("job_id", message.JobID.String()))
			return nil
		default:
			return fmt.Errorf("claim job: %w", err)
		}
	}

	startedAt := time.Now()
	if pipelineErr := p.runPipeline(ctx, job); pipelineErr != nil {
		return p.handleFailure(ctx, job, pipelineErr)
	}

	if err := job.Complete(); err != nil {
		return p.handleFailure(ctx, job, err)
	}
	err = p.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if updateErr := p.jobRepo.Update(txCtx, job); updateErr != nil {
			return fmt.Errorf("persist completed job: %w", updateErr)
		}
		return p.eventLog.LogCode(txCtx, job.ID(), job.DocumentID(), valueobject.CodeJobCompleted, map[string]any{
			"cost_cents":  job.CostCents(),
			"retry_count": job.RetryCount(),
		})
	})
	if err != nil {
		return err
	}
	p.metrics.RecordJobCompletion(ctx, time.Since(startedAt), job.RetryCount())

	slogger.Info(ctx, "Job completed", slogger.Fields2(
		"job_id", job.ID().String(),
		"cost_cents", job.CostCents(),
	))
	return nil
}

func (p *DefaultJobProcessor) runPipeline(ctx context.Context, job *entity.UploadJob) error {
	document, err := p.documentRepo.FindByID(ctx, job.DocumentID())
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	if document == nil {
		return fmt.Errorf("%w: job %s references missing document", domain.ErrDocumentNotFound, job.ID())
	}

	if err := p.advance(ctx, job, valueobject.StageJobValidated, valueobject.CodeJobValidated, nil); err != nil {
		return err
	}

	canonical, err := p.parseStages(ctx, job, document)
	if err != nil {
		return err
	}

	chunks, err := p.chunkStages(ctx, job, document, canonical)
	if err != nil {
		return err
	}

	return p.embedStages(ctx, job, chunks)
}

// parseStages runs parsing through parse_validated and returns the
// canonicalized markdown for downstream stages.
func (p *DefaultJobProcessor) parseStages(
	ctx context.Context,
	job *entity.UploadJob,
	document *entity.Document,
) (string, error) {
	if err := p.advance(ctx, job, valueobject.StageParsing, valueobject.CodeParseStarted, nil); err != nil {
		return "", err
	}

	raw, err := p.blobStore.Fetch(ctx, document.RawStoragePath())
	if err != nil {
		return "", fmt.Errorf("fetch raw document: %w", err)
	}

	result, err := p.parser.Parse(ctx, document, raw)
	if err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}
	if err := job.AddCost(result.CostCents); err != nil {
		return "", err
	}

	canonical := normalization.CanonicalizeMarkdown(result.Markdown)
	parsedSHA := normalization.ComputeParsedSHA256(canonical)

	parseID, err := p.idGen.ParseID(document.ID(), result.ParserName, result.ParserVersion)
	if err != nil {
		return "", fmt.Errorf("derive parse ID: %w", err)
	}

	if err := p.advance(ctx, job, valueobject.StageParsed, valueobject.CodeParseCompleted, map[string]any{
		"parse_id":      parseID.String(),
		"parsed_sha256": parsedSHA,
		"parser":        result.ParserName,
	}); err != nil {
		return "", err
	}

	// A prior artifact with the same parse identity but a different hash
	// means the parser is no longer deterministic for this input.
	existing, err := p.artifactRepo.FindByID(ctx, parseID)
	if err != nil {
		return "", fmt.Errorf("look up parse artifact: %w", err)
	}
	if existing != nil && existing.ParsedSHA256() != parsedSHA {
		if logErr := p.eventLog.LogCode(ctx, job.ID(), document.ID(), valueobject.CodeParseHashMismatch, map[string]any{
			"parse_id":      parseID.String(),
			"expected":      existing.ParsedSHA256(),
			"actual":        parsedSHA,
			"parser":        result.ParserName,
		}); logErr != nil {
			return "", logErr
		}
		return "", fmt.Errorf("parse hash mismatch for %s: stored %s, got %s",
			parseID, existing.ParsedSHA256(), parsedSHA)
	}

	artifact, err := entity.NewParseArtifact(
		parseID, document.ID(), result.ParserName, result.ParserVersion, parsedSHA, canonical,
	)
	if err != nil {
		return "", err
	}
	if _, err := p.artifactRepo.Upsert(ctx, artifact); err != nil {
		return "", fmt.Errorf("store parse artifact: %w", err)
	}

	if err := p.advance(ctx, job, valueobject.StageParseValidated, "", nil); err != nil {
		return "", err
	}
	return canonical, nil
}

func (p *DefaultJobProcessor) chunkStages(
	ctx context.Context,
	job *entity.UploadJob,
	document *entity.Document,
	canonical string,
) ([]*entity.Chunk, error) {
	if err := p.advance(ctx, job, valueobject.StageChunking, "", nil); err != nil {
		return nil, err
	}

	result, err := p.chunker.Chunk(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("chunk document: %w", err)
	}
	if err := job.AddCost(result.CostCents); err != nil {
		return nil, err
	}

	chunks := make([]*entity.Chunk, 0, len(result.Texts))
	for ordinal, text := range result.Texts {
		chunkID, idErr := p.idGen.ChunkID(document.ID(), result.ChunkerName, result.ChunkerVersion, ordinal)
		if idErr != nil {
			return nil, fmt.Errorf("derive chunk ID: %w", idErr)
		}
		chunk, chunkErr := entity.NewChunk(
			chunkID, document.ID(), result.ChunkerName, result.ChunkerVersion, ordinal, text,
		)
		if chunkErr != nil {
			return nil, chunkErr
		}
		chunks = append(chunks, chunk)
	}

	if err := p.chunkRepo.UpsertChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("buffer chunks: %w", err)
	}
	if err := p.advance(ctx, job, valueobject.StageChunksBuffered, valueobject.CodeChunksBuffered, map[string]any{
		"chunk_count": len(chunks),
		"chunker":     result.ChunkerName,
	}); err != nil {
		return nil, err
	}
	if err := p.advance(ctx, job, valueobject.StageChunked, valueobject.CodeChunkCompleted, nil); err != nil {
		return nil, err
	}
	return chunks, nil
}

// embedStages labels exactly the chunks the current run produced. Stale rows
// from an earlier chunker name or version may still sit under the document;
// they keep whatever metadata they carry.
func (p *DefaultJobProcessor) embedStages(
	ctx context.Context,
	job *entity.UploadJob,
	chunks []*entity.Chunk,
) error {
	if err := p.advance(ctx, job, valueobject.StageEmbedding, valueobject.CodeEmbedStarted, map[string]any{
		"chunk_count": len(chunks),
	}); err != nil {
		return err
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text()
	}
	result, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if err := job.AddCost(result.CostCents); err != nil {
		return err
	}
	p.metrics.RecordProviderCost(ctx, result.CostCents, result.ModelName)

	info := entity.EmbeddingInfo{
		ModelName:    result.ModelName,
		ModelVersion: result.ModelVersion,
		Dimensions:   result.Dimensions,
	}
	for _, chunk := range chunks {
		if err := chunk.AttachEmbedding(info); err != nil {
			return err
		}
	}
	if err := p.chunkRepo.UpsertChunks(ctx, chunks); err != nil {
		return fmt.Errorf("buffer embedded chunks: %w", err)
	}

	if err := p.advance(ctx, job, valueobject.StageEmbeddingsBuffered, "", nil); err != nil {
		return err
	}
	return p.advance(ctx, job, valueobject.StageEmbedded, valueobject.CodeEmbedCompleted, map[string]any{
		"model":      result.ModelName,
		"dimensions": result.Dimensions,
	})
}

// advance moves the job one stage forward, persisting the stage write and
// the stage's event (when the transition carries one) in one transaction.
func (p *DefaultJobProcessor) advance(
	ctx context.Context,
	job *entity.UploadJob,
	target valueobject.JobStage,
	code valueobject.EventCode,
	payload map[string]any,
) error {
	from := job.Stage()
	if err := job.AdvanceStage(target); err != nil {
		return err
	}
	err := p.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if updateErr := p.jobRepo.Update(txCtx, job); updateErr != nil {
			return fmt.Errorf("persist stage %s: %w", target, updateErr)
		}
		if code == "" {
			return nil
		}
		return p.eventLog.LogCode(txCtx, job.ID(), job.DocumentID(), code, payload)
	})
	if err != nil {
		return err
	}
	p.metrics.RecordStageTransition(ctx, from.String(), target.String())
	return nil
}

// handleFailure routes a pipeline failure through the retry policy: park the
// job as retryable and hand the delay to the consumer, or dead-letter it
// when the budget is spent.
func (p *DefaultJobProcessor) handleFailure(ctx context.Context, job *entity.UploadJob, cause error) error {
	jobErr, err := valueobject.NewJobError("PIPELINE_FAILURE", cause.Error(), map[string]any{
		"stage": job.Stage().String(),
	})
	if err != nil {
		return err
	}

	budgetErr := p.retryPolicy.CheckBudget(job.RetryCount())
	if budgetErr == nil {
		if failErr := job.FailTransient(jobErr); failErr != nil {
			return fmt.Errorf("mark job retryable: %w (pipeline failure: %s)", failErr, cause)
		}

		// The retry transition increments the count, so the delay is computed
		// against the count the job will carry on redelivery.
		nextCount := job.RetryCount() + 1
		delay := p.retryPolicy.Delay(nextCount)
		err := p.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			if updateErr := p.jobRepo.Update(txCtx, job); updateErr != nil {
				return fmt.Errorf("persist retryable job: %w", updateErr)
			}
			if logErr := p.eventLog.LogCode(txCtx, job.ID(), job.DocumentID(), valueobject.CodeRetryScheduled, map[string]any{
				"trigger":     "automatic",
				"retry_count": nextCount,
				"delay_ms":    delay.Milliseconds(),
				"cause":       cause.Error(),
			}); logErr != nil {
				return logErr
			}
			if requeueErr := job.Requeue(); requeueErr != nil {
				return fmt.Errorf("requeue job: %w", requeueErr)
			}
			if updateErr := p.jobRepo.Update(txCtx, job); updateErr != nil {
				return fmt.Errorf("persist requeued job: %w", updateErr)
			}
			return nil
		})
		if err != nil {
			return err
		}
		p.metrics.RecordRetryScheduled(ctx, nextCount, delay, jobErr.Code)

		slogger.Warn(ctx, "Job scheduled for retry", slogger.Fields3(
			"job_id", job.ID().String(),
			"retry_count", nextCount,
			"delay", delay.String(),
		))
		return &RetryScheduledError{Delay: delay, RetryCount: nextCount}
	}

	if dlqErr := job.MoveToDeadLetter(jobErr); dlqErr != nil {
		return fmt.Errorf("dead-letter job: %w (pipeline failure: %s)", dlqErr, cause)
	}
	err = p.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if updateErr := p.jobRepo.Update(txCtx, job); updateErr != nil {
			return fmt.Errorf("persist dead-lettered job: %w", updateErr)
		}
		if logErr := p.eventLog.LogCode(txCtx, job.ID(), job.DocumentID(), valueobject.CodeDLQMoved, map[string]any{
			"retry_count": job.RetryCount(),
			"reason":      budgetErr.Error(),
			"cause":       cause.Error(),
		}); logErr != nil {
			return logErr
		}
		return p.eventLog.LogCode(txCtx, job.ID(), job.DocumentID(), valueobject.CodeJobFailed, map[string]any{
			"cause": cause.Error(),
		})
	})
	if err != nil {
		return err
	}
	p.metrics.RecordDeadLetter(ctx, job.RetryCount(), jobErr.Code)

	slogger.ErrorNoCtx("Job moved to dead letter queue", slogger.Fields2(
		"job_id", job.ID().String(),
		"cause", cause.Error(),
	))
	return nil
}
