package inbound

import (
	"context"

	"docingest/internal/application/dto"
	"docingest/internal/domain/messaging"
)

// JobProcessor advances one queued job through the ingestion pipeline.
type JobProcessor interface {
	ProcessJob(ctx context.Context, message messaging.JobQueuedMessage) error
}

// WorkerService supervises the queue consumers and the claim reaper.
type WorkerService interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// HealthService reports service health for the health endpoint.
type HealthService interface {
	GetHealth(ctx context.Context) dto.HealthResponse
}
