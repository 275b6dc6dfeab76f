// Package messaging provides the NATS JetStream adapter that carries queued
// jobs from the API plane to the worker plane.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"docingest/internal/config"
	"docingest/internal/domain/messaging"
	"docingest/internal/port/outbound"

	"github.com/nats-io/nats.go"
)

var _ outbound.MessagePublisher = (*NATSMessagePublisher)(nil)

const (
	// StreamName is the JetStream stream holding queued ingestion jobs.
	StreamName = "INGEST"

	// SubjectJobQueued is the subject queued-job announcements publish to.
	SubjectJobQueued = "ingest.job.queued"

	// subjectWildcard covers every subject the stream retains.
	subjectWildcard = "ingest.>"

	// NATS connection timeout.
	natsConnectionTimeoutSeconds = 5

	// Stream retention. A job that sat unclaimed for a day is stale; the
	// reaper requeues anything a worker claimed and abandoned.
	streamMaxAgeHours = 24
)

// MessageMetrics tracks message publishing metrics.
type MessageMetrics struct {
	PublishedCount    int64         `json:"published_count"`
	FailedCount       int64         `json:"failed_count"`
	AverageLatency    time.Duration `json:"average_latency"`
	LastPublishedTime time.Time     `json:"last_published_time"`
}

// NATSMessagePublisher publishes job-queued messages to NATS JetStream.
type NATSMessagePublisher struct {
	config config.NATSConfig
	conn   *nats.Conn
	js     nats.JetStreamContext

	mutex          sync.RWMutex
	metrics        MessageMetrics
	connectedAt    time.Time
	reconnectCount int
	lastError      error
}

// NewNATSMessagePublisher creates a new NATS message publisher. The publisher
// is not connected until Connect is called.
func NewNATSMessagePublisher(cfg config.NATSConfig) (*NATSMessagePublisher, error) {
	if cfg.URL == "" {
		return nil, errors.New("NATS URL cannot be empty")
	}
	if !strings.HasPrefix(cfg.URL, "nats://") {
		return nil, errors.New("invalid NATS URL scheme")
	}
	if cfg.MaxReconnects < 0 {
		return nil, errors.New("max reconnects cannot be negative")
	}
	if cfg.ReconnectWait < 0 {
		return nil, errors.New("reconnect wait cannot be negative")
	}

	return &NATSMessagePublisher{config: cfg}, nil
}

// Connect establishes the connection to the NATS server and opens a
// JetStream context.
func (n *NATSMessagePublisher) Connect() error {
	opts := []nats.Option{
		nats.MaxReconnects(n.config.MaxReconnects),
		nats.ReconnectWait(n.config.ReconnectWait),
		nats.Timeout(natsConnectionTimeoutSeconds * time.Second),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			n.mutex.Lock()
			n.reconnectCount++
			n.mutex.Unlock()
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			n.mutex.Lock()
			n.lastError = err
			n.mutex.Unlock()
		}),
	}

	conn, err := nats.Connect(n.config.URL, opts...)
	if err != nil {
		n.recordError(err)
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		n.recordError(err)
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	n.mutex.Lock()
	n.conn = conn
	n.js = js
	n.connectedAt = time.Now()
	n.mutex.Unlock()
	return nil
}

// EnsureStream creates the work-queue stream if it doesn't exist.
func (n *NATSMessagePublisher) EnsureStream() error {
	if n.js == nil {
		return errors.New("not connected to NATS server")
	}

	streamConfig := &nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{subjectWildcard},
		Storage:   nats.FileStorage,
		Retention: nats.WorkQueuePolicy,
		MaxAge:    streamMaxAgeHours * time.Hour,
		Replicas:  1,
	}

	if _, err := n.js.AddStream(streamConfig); err != nil {
		// Another instance may have created it between attempts.
		if _, infoErr := n.js.StreamInfo(StreamName); infoErr == nil {
			return nil
		}
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// PublishJobQueued announces a queued job on the work queue. The message ID
// doubles as the JetStream deduplication key, so a retried publish of the
// same message is delivered once.
func (n *NATSMessagePublisher) PublishJobQueued(ctx context.Context, message messaging.JobQueuedMessage) error {
	start := time.Now()

	select {
	case <-ctx.Done():
		n.updateMetrics(false, time.Since(start))
		return ctx.Err()
	default:
	}

	if err := message.Validate(); err != nil {
		n.updateMetrics(false, time.Since(start))
		return fmt.Errorf("invalid job queued message: %w", err)
	}

	if n.js == nil {
		n.updateMetrics(false, time.Since(start))
		return errors.New("publish failed: not connected to NATS")
	}

	data, err := json.Marshal(message)
	if err != nil {
		n.updateMetrics(false, time.Since(start))
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	_, err = n.js.Publish(SubjectJobQueued, data,
		nats.Context(ctx),
		nats.MsgId(message.MessageID),
	)
	if err != nil {
		n.recordError(err)
		n.updateMetrics(false, time.Since(start))
		return fmt.Errorf("failed to publish message: %w", err)
	}

	n.updateMetrics(true, time.Since(start))
	return nil
}

// Close releases the NATS connection.
func (n *NATSMessagePublisher) Close() error {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	if n.conn != nil {
		n.conn.Close()
		n.conn = nil
		n.js = nil
	}
	return nil
}

// Ping reports whether the NATS connection is currently usable.
func (n *NATSMessagePublisher) Ping(_ context.Context) error {
	n.mutex.RLock()
	defer n.mutex.RUnlock()

	if n.conn == nil || !n.conn.IsConnected() {
		return errors.New("not connected to NATS")
	}
	return nil
}

// GetMessageMetrics returns current message publishing metrics.
func (n *NATSMessagePublisher) GetMessageMetrics() MessageMetrics {
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	return n.metrics
}

func (n *NATSMessagePublisher) recordError(err error) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.lastError = err
}

func (n *NATSMessagePublisher) updateMetrics(success bool, latency time.Duration) {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	if !success {
		n.metrics.FailedCount++
		return
	}

	n.metrics.PublishedCount++
	n.metrics.LastPublishedTime = time.Now()

	// Exponential moving average with alpha = 0.1.
	if n.metrics.AverageLatency == 0 {
		n.metrics.AverageLatency = latency
	} else {
		n.metrics.AverageLatency = time.Duration(
			0.9*float64(n.metrics.AverageLatency) + 0.1*float64(latency),
		)
	}
}
