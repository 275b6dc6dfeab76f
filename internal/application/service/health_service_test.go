package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHealth_AllDependenciesHealthy(t *testing.T) {
	svc := NewDefaultHealthService("1.0.0", map[string]HealthChecker{
		"database": func(context.Context) error { return nil },
		"nats":     func(context.Context) error { return nil },
	})

	resp := svc.GetHealth(context.Background())

	assert.Equal(t, HealthStatusHealthy, resp.Status)
	assert.Equal(t, "1.0.0", resp.Version)
	assert.Equal(t, HealthStatusHealthy, resp.Dependencies["database"].Status)
	assert.Equal(t, HealthStatusHealthy, resp.Dependencies["nats"].Status)
}

func TestGetHealth_OneFailingDependencyDegrades(t *testing.T) {
	svc := NewDefaultHealthService("1.0.0", map[string]HealthChecker{
		"database": func(context.Context) error { return nil },
		"nats":     func(context.Context) error { return errors.New("connection refused") },
	})

	resp := svc.GetHealth(context.Background())

	assert.Equal(t, HealthStatusDegraded, resp.Status)
	assert.Equal(t, HealthStatusUnhealthy, resp.Dependencies["nats"].Status)
	assert.Equal(t, "connection refused", resp.Dependencies["nats"].Message)
}

func TestGetHealth_AllFailingIsUnhealthy(t *testing.T) {
	svc := NewDefaultHealthService("1.0.0", map[string]HealthChecker{
		"database": func(context.Context) error { return errors.New("down") },
	})

	resp := svc.GetHealth(context.Background())
	assert.Equal(t, HealthStatusUnhealthy, resp.Status)
}

func TestGetHealth_NoCheckersIsHealthy(t *testing.T) {
	svc := NewDefaultHealthService("dev", nil)

	resp := svc.GetHealth(context.Background())
	assert.Equal(t, HealthStatusHealthy, resp.Status)
}
