// Package registry provides service registration and dependency injection for the application.
package registry

import (
	"docingest/internal/application/service"
	"docingest/internal/domain/identity"
	"docingest/internal/port/outbound"
)

// ServiceRegistry provides centralized service creation and management.
// It acts as a service factory ensuring consistent dependency injection
// patterns across the application.
type ServiceRegistry struct {
	documentRepo outbound.DocumentRepository
	jobRepo      outbound.UploadJobRepository
	eventRepo    outbound.EventRepository
	publisher    outbound.MessagePublisher
	idGen        *identity.Generator
	metrics      service.PipelineMetrics
}

// NewServiceRegistry creates a new service registry with required dependencies.
// All dependencies must be non-nil or the function will panic.
func NewServiceRegistry(
	documentRepo outbound.DocumentRepository,
	jobRepo outbound.UploadJobRepository,
	eventRepo outbound.EventRepository,
	publisher outbound.MessagePublisher,
	metrics service.PipelineMetrics,
) *ServiceRegistry {
	if documentRepo == nil {
		panic("documentRepo cannot be nil")
	}
	if jobRepo == nil {
		panic("jobRepo cannot be nil")
	}
	if eventRepo == nil {
		panic("eventRepo cannot be nil")
	}
	if publisher == nil {
		panic("publisher cannot be nil")
	}
	if metrics == nil {
		panic("metrics cannot be nil")
	}

	return &ServiceRegistry{
		documentRepo: documentRepo,
		jobRepo:      jobRepo,
		eventRepo:    eventRepo,
		publisher:    publisher,
		idGen:        identity.NewGenerator(),
		metrics:      metrics,
	}
}

// EventLogService returns a configured EventLogService instance.
func (r *ServiceRegistry) EventLogService() *service.EventLogService {
	return service.NewEventLogService(r.eventRepo, r.jobRepo)
}

// IngestService returns a configured IngestService instance.
func (r *ServiceRegistry) IngestService() *service.IngestService {
	return service.NewIngestService(
		r.idGen,
		r.documentRepo,
		r.jobRepo,
		r.EventLogService(),
		r.publisher,
		r.metrics,
	)
}

// JobQueryService returns a configured JobQueryService instance.
func (r *ServiceRegistry) JobQueryService() *service.JobQueryService {
	return service.NewJobQueryService(r.jobRepo, r.EventLogService(), r.publisher)
}

// EventQueryService returns a configured EventQueryService instance.
func (r *ServiceRegistry) EventQueryService() *service.EventQueryService {
	return service.NewEventQueryService(r.eventRepo, r.documentRepo)
}

// IdentityGenerator returns the shared content-addressed ID generator.
func (r *ServiceRegistry) IdentityGenerator() *identity.Generator {
	return r.idGen
}
