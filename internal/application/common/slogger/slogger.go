// Package slogger is the package-level logging facade used across the
// application. It lazily initializes a default JSON logger and allows tests
// or main to swap in a configured one.
package slogger

import (
	"context"
	"sync"

	"docingest/internal/application/common/logging"
)

// Fields is an alias for logging.Fields for convenience.
type Fields = logging.Fields

var (
	defaultLogger logging.ApplicationLogger //nolint:gochecknoglobals // singleton logging infrastructure
	defaultOnce   sync.Once                 //nolint:gochecknoglobals // thread-safe singleton initialization
	mu            sync.RWMutex              //nolint:gochecknoglobals // guards logger replacement
)

func getLogger() logging.ApplicationLogger {
	mu.RLock()
	if defaultLogger != nil {
		defer mu.RUnlock()
		return defaultLogger
	}
	mu.RUnlock()

	defaultOnce.Do(func() {
		logger, err := logging.NewApplicationLogger(logging.Config{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		})
		if err != nil {
			panic("failed to initialize default logger: " + err.Error())
		}
		mu.Lock()
		if defaultLogger == nil {
			defaultLogger = logger
		}
		mu.Unlock()
	})

	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// SetGlobalLogger replaces the process-wide logger. Called once from main
// after configuration loads, and from tests.
func SetGlobalLogger(logger logging.ApplicationLogger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = logger
}

// Debug logs at debug level with context.
func Debug(ctx context.Context, msg string, fields Fields) {
	getLogger().Debug(ctx, msg, fields)
}

// Info logs at info level with context.
func Info(ctx context.Context, msg string, fields Fields) {
	getLogger().Info(ctx, msg, fields)
}

// Warn logs at warn level with context.
func Warn(ctx context.Context, msg string, fields Fields) {
	getLogger().Warn(ctx, msg, fields)
}

// Error logs at error level with context.
func Error(ctx context.Context, msg string, fields Fields) {
	getLogger().Error(ctx, msg, fields)
}

// ErrorWithError logs an error value at error level with context.
func ErrorWithError(ctx context.Context, err error, msg string, fields Fields) {
	getLogger().ErrorWithError(ctx, err, msg, fields)
}

// DebugNoCtx logs at debug level without context.
func DebugNoCtx(msg string, fields Fields) {
	getLogger().Debug(context.Background(), msg, fields)
}

// InfoNoCtx logs at info level without context.
func InfoNoCtx(msg string, fields Fields) {
	getLogger().Info(context.Background(), msg, fields)
}

// WarnNoCtx logs at warn level without context.
func WarnNoCtx(msg string, fields Fields) {
	getLogger().Warn(context.Background(), msg, fields)
}

// ErrorNoCtx logs at error level without context.
func ErrorNoCtx(msg string, fields Fields) {
	getLogger().Error(context.Background(), msg, fields)
}

// Field creates a single-entry Fields map.
func Field(key string, value interface{}) Fields {
	return Fields{key: value}
}

// Fields2 creates a two-entry Fields map.
func Fields2(k1 string, v1 interface{}, k2 string, v2 interface{}) Fields {
	return Fields{k1: v1, k2: v2}
}

// Fields3 creates a three-entry Fields map.
func Fields3(k1 string, v1 interface{}, k2 string, v2 interface{}, k3 string, v3 interface{}) Fields {
	return Fields{k1: v1, k2: v2, k3: v3}
}

// WithComponent returns a logger scoped to a component name.
func WithComponent(component string) logging.ApplicationLogger {
	return getLogger().WithComponent(component)
}
