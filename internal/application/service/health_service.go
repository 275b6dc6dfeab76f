package service

import (
	"context"
	"time"

	"docingest/internal/application/dto"
	"docingest/internal/port/inbound"
)

// Health status values reported by the health endpoint.
const (
	HealthStatusHealthy   = "healthy"
	HealthStatusDegraded  = "degraded"
	HealthStatusUnhealthy = "unhealthy"
)

// HealthChecker probes one external dependency.
type HealthChecker func(ctx context.Context) error

// DefaultHealthService aggregates dependency probes into one health report.
// Any failing dependency degrades the overall status; all failing marks the
// service unhealthy.
type DefaultHealthService struct {
	version  string
	checkers map[string]HealthChecker
}

// NewDefaultHealthService creates a health service over named dependency
// probes.
func NewDefaultHealthService(version string, checkers map[string]HealthChecker) inbound.HealthService {
	return &DefaultHealthService{
		version:  version,
		checkers: checkers,
	}
}

// GetHealth probes every dependency and aggregates the result.
func (s *DefaultHealthService) GetHealth(ctx context.Context) dto.HealthResponse {
	dependencies := make(map[string]dto.DependencyHealth, len(s.checkers))
	failing := 0
	for name, check := range s.checkers {
		if err := check(ctx); err != nil {
			failing++
			dependencies[name] = dto.DependencyHealth{
				Status:  HealthStatusUnhealthy,
				Message: err.Error(),
			}
			continue
		}
		dependencies[name] = dto.DependencyHealth{Status: HealthStatusHealthy}
	}

	status := HealthStatusHealthy
	switch {
	case len(s.checkers) > 0 && failing == len(s.checkers):
		status = HealthStatusUnhealthy
	case failing > 0:
		status = HealthStatusDegraded
	}

	return dto.HealthResponse{
		Status:       status,
		Version:      s.version,
		Timestamp:    time.Now().UTC(),
		Dependencies: dependencies,
	}
}
