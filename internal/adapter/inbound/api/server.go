package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"

	"docingest/internal/config"
	"docingest/internal/port/inbound"
)

// Server represents the HTTP API server.
type Server struct {
	config        *config.Config
	httpServer    *http.Server
	routeRegistry *RouteRegistry
	listener      net.Listener
	isRunning     bool
	mu            sync.RWMutex
}

// ServerBuilder provides a fluent interface for building Server instances.
type ServerBuilder struct {
	config            *config.Config
	healthService     inbound.HealthService
	ingestService     inbound.IngestService
	jobQueryService   inbound.JobQueryService
	eventQueryService inbound.EventQueryService
	errorHandler      ErrorHandler
	middleware        []MiddlewareFunc
}

// NewServerBuilder creates a new ServerBuilder.
func NewServerBuilder(cfg *config.Config) *ServerBuilder {
	return &ServerBuilder{
		config:     cfg,
		middleware: make([]MiddlewareFunc, 0),
	}
}

// WithHealthService sets the health service.
func (b *ServerBuilder) WithHealthService(service inbound.HealthService) *ServerBuilder {
	b.healthService = service
	return b
}

// WithIngestService sets the ingest service.
func (b *ServerBuilder) WithIngestService(service inbound.IngestService) *ServerBuilder {
	b.ingestService = service
	return b
}

// WithJobQueryService sets the job query service.
func (b *ServerBuilder) WithJobQueryService(service inbound.JobQueryService) *ServerBuilder {
	b.jobQueryService = service
	return b
}

// WithEventQueryService sets the event query service.
func (b *ServerBuilder) WithEventQueryService(service inbound.EventQueryService) *ServerBuilder {
	b.eventQueryService = service
	return b
}

// WithErrorHandler sets the error handler.
func (b *ServerBuilder) WithErrorHandler(handler ErrorHandler) *ServerBuilder {
	b.errorHandler = handler
	return b
}

// WithMiddleware adds middleware to the chain.
func (b *ServerBuilder) WithMiddleware(middleware MiddlewareFunc) *ServerBuilder {
	b.middleware = append(b.middleware, middleware)
	return b
}

// WithDefaultMiddleware adds the standard middleware chain.
func (b *ServerBuilder) WithDefaultMiddleware() *ServerBuilder {
	return b.
		WithMiddleware(NewRecoveryMiddleware()).
		WithMiddleware(NewRequestLoggingMiddleware()).
		WithMiddleware(NewCORSMiddleware()).
		WithMiddleware(NewCallerIdentityMiddleware(b.errorHandler))
}

// Build creates the Server instance.
func (b *ServerBuilder) Build() (*Server, error) {
	if err := b.validate(); err != nil {
		return nil, fmt.Errorf("server builder validation failed: %w", err)
	}
	if err := validateServerConfig(b.config); err != nil {
		return nil, err
	}

	registry := NewRouteRegistry()
	registry.RegisterAPIRoutes(
		NewHealthHandler(b.healthService),
		NewDocumentHandler(b.ingestService, b.errorHandler),
		NewJobHandler(b.jobQueryService, b.errorHandler),
		NewEventHandler(b.eventQueryService, b.errorHandler),
	)

	// Apply middleware in reverse so the first added runs outermost.
	var handler http.Handler = registry.BuildServeMux()
	for i := len(b.middleware) - 1; i >= 0; i-- {
		handler = b.middleware[i](handler)
	}

	host := b.config.API.Host
	if host == "" {
		host = "0.0.0.0"
	}

	return &Server{
		config: b.config,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%s", host, b.config.API.Port),
			Handler:      handler,
			ReadTimeout:  b.config.API.ReadTimeout,
			WriteTimeout: b.config.API.WriteTimeout,
		},
		routeRegistry: registry,
	}, nil
}

func (b *ServerBuilder) validate() error {
	if b.config == nil {
		return errors.New("config is required")
	}
	if b.healthService == nil {
		return errors.New("health service is required")
	}
	if b.ingestService == nil {
		return errors.New("ingest service is required")
	}
	if b.jobQueryService == nil {
		return errors.New("job query service is required")
	}
	if b.eventQueryService == nil {
		return errors.New("event query service is required")
	}
	if b.errorHandler == nil {
		return errors.New("error handler is required")
	}
	return nil
}

// NewServer creates a new API server with the default middleware chain.
func NewServer(
	cfg *config.Config,
	healthService inbound.HealthService,
	ingestService inbound.IngestService,
	jobQueryService inbound.JobQueryService,
	eventQueryService inbound.EventQueryService,
	errorHandler ErrorHandler,
) (*Server, error) {
	return NewServerBuilder(cfg).
		WithHealthService(healthService).
		WithIngestService(ingestService).
		WithJobQueryService(jobQueryService).
		WithEventQueryService(eventQueryService).
		WithErrorHandler(errorHandler).
		WithDefaultMiddleware().
		Build()
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return errors.New("server is already running")
	}

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	s.listener = listener

	// Capture the bound port; matters when configured with port 0.
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.httpServer.Addr = fmt.Sprintf("%s:%d", s.Host(), tcpAddr.Port)
	}

	s.isRunning = true

	go func() {
		if serveErr := s.httpServer.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}
	}()

	select {
	case <-ctx.Done():
		s.isRunning = false
		_ = listener.Close()
		return ctx.Err()
	default:
		return nil
	}
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}
	s.isRunning = false

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Address returns the server's listening address.
func (s *Server) Address() string {
	return s.httpServer.Addr
}

// Host returns the server's host.
func (s *Server) Host() string {
	host := s.config.API.Host
	if host == "" {
		return "0.0.0.0"
	}
	return host
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// HasRoute checks if a specific route is registered.
func (s *Server) HasRoute(pattern string) bool {
	return s.routeRegistry.HasRoute(pattern)
}

// Handler returns the server's fully wired HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// validateServerConfig validates the server configuration.
func validateServerConfig(cfg *config.Config) error {
	if cfg == nil {
		return errors.New("config cannot be nil")
	}

	if cfg.API.Port != "" && cfg.API.Port != "0" {
		if port, err := strconv.Atoi(cfg.API.Port); err != nil || port < 0 || port > 65535 {
			return errors.New("invalid port")
		}
	}

	if cfg.API.ReadTimeout < 0 || cfg.API.WriteTimeout < 0 {
		return errors.New("invalid timeout")
	}
	return nil
}
