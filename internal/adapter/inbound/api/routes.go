package api

import (
	"fmt"
	"net/http"
	"strings"
)

// RouteRegistry manages HTTP route registration using Go 1.22+ ServeMux
// "METHOD /path" patterns.
type RouteRegistry struct {
	routes   map[string]http.Handler
	patterns []string
	mux      *http.ServeMux
}

// NewRouteRegistry creates a new RouteRegistry.
func NewRouteRegistry() *RouteRegistry {
	return &RouteRegistry{
		routes:   make(map[string]http.Handler),
		patterns: make([]string, 0),
		mux:      http.NewServeMux(),
	}
}

// RegisterAPIRoutes registers all API routes with their handlers.
func (r *RouteRegistry) RegisterAPIRoutes(
	healthHandler *HealthHandler,
	documentHandler *DocumentHandler,
	jobHandler *JobHandler,
	eventHandler *EventHandler,
) {
	register := func(pattern string, handler http.HandlerFunc) {
		if err := r.RegisterRoute(pattern, handler); err != nil {
			panic(fmt.Errorf("failed to register route %s: %w", pattern, err))
		}
	}

	register("GET /health", healthHandler.GetHealth)

	register("POST /documents", documentHandler.AcceptUpload)
	register("GET /documents/{id}/events", eventHandler.ListDocumentEvents)

	register("GET /jobs", jobHandler.ListJobs)
	register("GET /jobs/{id}", jobHandler.GetJob)
	register("POST /jobs/{id}/retry", jobHandler.RetryJob)
}

// RegisterRoute registers a single route with the given pattern and handler.
func (r *RouteRegistry) RegisterRoute(pattern string, handler http.Handler) error {
	if err := validatePattern(pattern); err != nil {
		return err
	}
	if _, exists := r.routes[pattern]; exists {
		return fmt.Errorf("route conflict: pattern %q already registered", pattern)
	}

	r.mux.Handle(pattern, handler)
	r.routes[pattern] = handler
	r.patterns = append(r.patterns, pattern)
	return nil
}

// BuildServeMux returns the configured ServeMux.
func (r *RouteRegistry) BuildServeMux() *http.ServeMux {
	return r.mux
}

// HasRoute checks if a route pattern is registered.
func (r *RouteRegistry) HasRoute(pattern string) bool {
	_, exists := r.routes[pattern]
	return exists
}

// RouteCount returns the number of registered routes.
func (r *RouteRegistry) RouteCount() int {
	return len(r.routes)
}

// GetPatterns returns all registered route patterns.
func (r *RouteRegistry) GetPatterns() []string {
	return r.patterns
}

var validMethods = map[string]bool{
	http.MethodGet: true, http.MethodPost: true, http.MethodPut: true,
	http.MethodDelete: true, http.MethodPatch: true, http.MethodHead: true,
	http.MethodOptions: true,
}

// validatePattern validates a "METHOD /path" ServeMux pattern.
func validatePattern(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return fmt.Errorf("route pattern cannot be empty")
	}

	parts := strings.SplitN(pattern, " ", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid route pattern %q: must have format 'METHOD /path'", pattern)
	}

	method, path := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if !validMethods[strings.ToUpper(method)] {
		return fmt.Errorf("invalid HTTP method %q in pattern %q", method, pattern)
	}
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("path %q in pattern %q must start with '/'", path, pattern)
	}
	if strings.Contains(path, "//") {
		return fmt.Errorf("path %q in pattern %q contains double slashes", path, pattern)
	}
	return nil
}
