package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	inboundmessaging "docingest/internal/adapter/inbound/messaging"
	natsmessaging "docingest/internal/adapter/outbound/messaging"
	"docingest/internal/adapter/outbound/provider"
	"docingest/internal/adapter/outbound/repository"
	"docingest/internal/application/common/slogger"
	"docingest/internal/application/service"
	"docingest/internal/application/worker"
	"docingest/internal/config"
	"docingest/internal/domain/identity"
	"docingest/internal/port/inbound"
	"docingest/internal/version"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

// newWorkerCmd creates and returns the worker command.
func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Start the background worker service",
		Long: `Start the background worker service that processes ingestion jobs from NATS JetStream.

The worker service:
- Connects to NATS JetStream to consume queued ingestion jobs
- Advances each job through validate, parse, chunk, and embed stages
- Schedules exponential-backoff retries and dead-letters exhausted jobs
- Requeues jobs abandoned by crashed workers

Configuration is loaded from config files and environment variables.`,
		Run: func(_ *cobra.Command, _ []string) {
			runWorkerService()
		},
	}
}

// runWorkerService starts and runs the worker service.
func runWorkerService() {
	cfg := GetConfig()

	slogger.InfoNoCtx("Starting worker service", slogger.Fields{
		"concurrency": cfg.Worker.Concurrency,
		"queue_group": cfg.Worker.QueueGroup,
	})

	dbPool, err := repository.NewDatabaseConnection(databaseConfigFrom(cfg))
	if err != nil {
		slogger.ErrorNoCtx("Failed to create database connection pool", slogger.Fields{"error": err.Error()})
		return
	}
	defer dbPool.Close()

	publisher, err := connectPublisher(cfg)
	if err != nil {
		slogger.ErrorNoCtx("Failed to connect message publisher", slogger.Fields{"error": err.Error()})
		return
	}
	defer publisher.Close()

	workerService, err := createWorkerService(cfg, dbPool, publisher)
	if err != nil {
		slogger.ErrorNoCtx("Failed to create worker service", slogger.Fields{"error": err.Error()})
		return
	}

	if err := workerService.Start(context.Background()); err != nil {
		slogger.ErrorNoCtx("Failed to start worker service", slogger.Fields{"error": err.Error()})
		return
	}

	waitForShutdownAndStop(cfg, workerService)
}

// connectPublisher connects to NATS and ensures the work stream exists. The
// worker publishes too: requeued and retried jobs go back on the queue.
func connectPublisher(cfg *config.Config) (*natsmessaging.NATSMessagePublisher, error) {
	publisher, err := natsmessaging.NewNATSMessagePublisher(cfg.NATS)
	if err != nil {
		return nil, err
	}
	if err := publisher.Connect(); err != nil {
		return nil, err
	}
	if err := publisher.EnsureStream(); err != nil {
		publisher.Close()
		return nil, err
	}
	return publisher, nil
}

// createWorkerService creates and configures the worker service with all dependencies.
func createWorkerService(
	cfg *config.Config,
	dbPool *pgxpool.Pool,
	publisher *natsmessaging.NATSMessagePublisher,
) (inbound.WorkerService, error) {
	documentRepo := repository.NewPostgreSQLDocumentRepository(dbPool)
	jobRepo := repository.NewPostgreSQLUploadJobRepository(dbPool)
	eventRepo := repository.NewPostgreSQLEventRepository(dbPool)
	artifactRepo := repository.NewPostgreSQLParseArtifactRepository(dbPool)
	chunkRepo := repository.NewPostgreSQLChunkRepository(dbPool)

	blobStore, err := provider.NewFilesystemBlobStore(cfg.Storage.BlobDir)
	if err != nil {
		return nil, fmt.Errorf("create blob store: %w", err)
	}
	embedder, err := provider.NewStaticEmbedder(cfg.Providers.Embedder)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	metrics, err := service.NewPipelineMetrics(service.PipelineMetricsConfig{
		ServiceName:    "docingest-worker",
		ServiceVersion: version.GetVersion().Version,
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline metrics: %w", err)
	}

	eventLog := service.NewEventLogService(eventRepo, jobRepo)

	jobProcessor := worker.NewDefaultJobProcessor(
		worker.JobProcessorConfig{
			WorkerID:   workerID(),
			JobTimeout: cfg.Worker.JobTimeout,
		},
		identity.NewGenerator(),
		repository.NewTransactionManager(dbPool),
		jobRepo,
		documentRepo,
		artifactRepo,
		chunkRepo,
		blobStore,
		provider.NewPassthroughParser(cfg.Providers.Parser),
		provider.NewParagraphChunker(cfg.Providers.Chunker),
		embedder,
		eventLog,
		service.NewRetryPolicy(),
		metrics,
	)

	consumers := make([]worker.MessageConsumer, 0, cfg.Worker.Concurrency)
	for range cfg.Worker.Concurrency {
		consumer, err := inboundmessaging.NewNATSJobConsumer(
			inboundmessaging.ConsumerConfig{
				Subject:       natsmessaging.SubjectJobQueued,
				QueueGroup:    cfg.Worker.QueueGroup,
				DurableName:   "ingest-consumer",
				AckWait:       30 * time.Second,
				MaxDeliver:    5,
				MaxAckPending: 100,
			},
			cfg.NATS,
			jobProcessor,
		)
		if err != nil {
			return nil, err
		}
		consumers = append(consumers, consumer)
	}

	return worker.NewDefaultWorkerService(
		worker.WorkerServiceConfig{
			ClaimTimeout:    cfg.Worker.ClaimTimeout,
			ReapInterval:    cfg.Worker.ReapInterval,
			ShutdownTimeout: cfg.Worker.ShutdownTimeout,
		},
		consumers,
		jobRepo,
		eventLog,
		publisher,
	), nil
}

// workerID names this worker instance for claim records.
func workerID() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "worker"
	}
	return fmt.Sprintf("%s-%s", hostname, uuid.New().String()[:8])
}

// waitForShutdownAndStop waits for shutdown signal and stops the service gracefully.
func waitForShutdownAndStop(cfg *config.Config, workerService inbound.WorkerService) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	slogger.InfoNoCtx("Received shutdown signal, initiating graceful shutdown", slogger.Fields{
		"signal": sig.String(),
	})

	shutdownTimeout := cfg.Worker.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := workerService.Stop(shutdownCtx); err != nil {
		slogger.ErrorNoCtx("Error during worker service shutdown", slogger.Fields{"error": err.Error()})
	} else {
		slogger.InfoNoCtx("Worker service shutdown completed successfully", nil)
	}
}

func init() {
	rootCmd.AddCommand(newWorkerCmd())
}
