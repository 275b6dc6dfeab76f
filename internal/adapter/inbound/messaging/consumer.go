// Package messaging provides the NATS JetStream consumer that feeds queued
// jobs to the pipeline processor.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"docingest/internal/application/common/logging"
	"docingest/internal/application/common/slogger"
	"docingest/internal/application/worker"
	"docingest/internal/config"
	"docingest/internal/domain/messaging"
	"docingest/internal/port/inbound"

	"github.com/nats-io/nats.go"
)

const natsConnectionTimeoutSeconds = 5

var _ worker.MessageConsumer = (*NATSJobConsumer)(nil)

// ConsumerConfig holds configuration for the job queue consumer.
type ConsumerConfig struct {
	Subject       string
	QueueGroup    string
	DurableName   string
	AckWait       time.Duration
	MaxDeliver    int
	MaxAckPending int
}

// ConsumerStats tracks message consumption counters.
type ConsumerStats struct {
	MessagesReceived  int64
	MessagesProcessed int64
	MessagesRetried   int64
	MessagesFailed    int64
	LastMessageTime   time.Time
}

// NATSJobConsumer subscribes to the job queue and hands each message to the
// job processor. Processing outcome drives the acknowledgment: success (and
// every terminal outcome) acks, a scheduled retry naks with the backoff
// delay so JetStream redelivers after it elapses.
type NATSJobConsumer struct {
	config       ConsumerConfig
	natsConfig   config.NATSConfig
	jobProcessor inbound.JobProcessor

	mu           sync.RWMutex
	conn         *nats.Conn
	subscription *nats.Subscription
	running      bool
	stats        ConsumerStats
}

// NewNATSJobConsumer creates a job queue consumer.
func NewNATSJobConsumer(
	cfg ConsumerConfig,
	natsConfig config.NATSConfig,
	processor inbound.JobProcessor,
) (*NATSJobConsumer, error) {
	if err := validateConsumerConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid consumer configuration: %w", err)
	}
	if processor == nil {
		return nil, errors.New("job processor cannot be nil")
	}

	return &NATSJobConsumer{
		config:       cfg,
		natsConfig:   natsConfig,
		jobProcessor: processor,
	}, nil
}

func validateConsumerConfig(cfg ConsumerConfig) error {
	if cfg.Subject == "" {
		return errors.New("subject cannot be empty")
	}
	if cfg.QueueGroup == "" {
		return errors.New("queue group cannot be empty")
	}
	if cfg.AckWait <= 0 {
		return errors.New("ack wait duration must be positive")
	}
	if cfg.MaxDeliver <= 0 {
		return errors.New("max deliver count must be positive")
	}
	if cfg.MaxAckPending <= 0 {
		return errors.New("max ack pending must be positive")
	}
	return nil
}

// Start connects to NATS and begins consuming. It returns once the
// subscription is established; message handling runs on NATS callbacks until
// Stop or context cancellation.
func (n *NATSJobConsumer) Start(ctx context.Context) error {
	n.mu.Lock()
	if n.running {
		n.mu.Unlock()
		return fmt.Errorf("consumer already running for subject %s", n.config.Subject)
	}
	n.running = true
	n.mu.Unlock()

	conn, err := nats.Connect(n.natsConfig.URL,
		nats.MaxReconnects(n.natsConfig.MaxReconnects),
		nats.ReconnectWait(n.natsConfig.ReconnectWait),
		nats.Timeout(natsConnectionTimeoutSeconds*time.Second),
	)
	if err != nil {
		n.markStopped()
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		n.markStopped()
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	sub, err := js.QueueSubscribe(n.config.Subject, n.config.QueueGroup, n.handleMessage,
		nats.Durable(n.config.DurableName),
		nats.ManualAck(),
		nats.AckWait(n.config.AckWait),
		nats.MaxDeliver(n.config.MaxDeliver),
		nats.MaxAckPending(n.config.MaxAckPending),
		nats.DeliverAll(),
	)
	if err != nil {
		conn.Close()
		n.markStopped()
		return fmt.Errorf("failed to subscribe to %s: %w", n.config.Subject, err)
	}

	n.mu.Lock()
	n.conn = conn
	n.subscription = sub
	n.mu.Unlock()

	slogger.Info(ctx, "Job consumer started", slogger.Fields2(
		"subject", n.config.Subject,
		"queue_group", n.config.QueueGroup,
	))

	<-ctx.Done()
	return n.Stop(context.WithoutCancel(ctx))
}

// Stop drains the subscription and closes the connection. Draining lets
// in-flight handlers finish before the connection goes away.
func (n *NATSJobConsumer) Stop(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.running {
		return nil
	}
	n.running = false

	var drainErr error
	if n.subscription != nil {
		drainErr = n.subscription.Drain()
		n.subscription = nil
	}
	if n.conn != nil {
		n.conn.Close()
		n.conn = nil
	}

	slogger.Info(ctx, "Job consumer stopped", slogger.Field("subject", n.config.Subject))
	return drainErr
}

// Stats returns a snapshot of consumption counters.
func (n *NATSJobConsumer) Stats() ConsumerStats {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.stats
}

func (n *NATSJobConsumer) markStopped() {
	n.mu.Lock()
	n.running = false
	n.mu.Unlock()
}

// handleMessage decodes one queue message and runs it through the processor.
// A message that cannot decode is terminated rather than redelivered; redeliveries
// would fail the same way forever.
func (n *NATSJobConsumer) handleMessage(msg *nats.Msg) {
	n.recordReceived()

	var jobMessage messaging.JobQueuedMessage
	if err := json.Unmarshal(msg.Data, &jobMessage); err != nil {
		slogger.ErrorNoCtx("Dropping undecodable queue message", slogger.Field("error", err.Error()))
		n.recordOutcome(false, false)
		_ = msg.Term()
		return
	}

	ctx := context.Background()
	if jobMessage.CorrelationID != "" {
		ctx = logging.WithCorrelationID(ctx, jobMessage.CorrelationID)
	}

	err := n.jobProcessor.ProcessJob(ctx, jobMessage)

	var retry *worker.RetryScheduledError
	switch {
	case errors.As(err, &retry):
		n.recordOutcome(false, true)
		if nakErr := msg.NakWithDelay(retry.Delay); nakErr != nil {
			slogger.Error(ctx, "Failed to nak message for retry", slogger.Fields2(
				"job_id", jobMessage.JobID.String(),
				"error", nakErr.Error(),
			))
		}
	case err != nil:
		// Unexpected infrastructure failure: redeliver after the ack wait.
		n.recordOutcome(false, false)
		slogger.Error(ctx, "Job processing failed", slogger.Fields2(
			"job_id", jobMessage.JobID.String(),
			"error", err.Error(),
		))
		if nakErr := msg.Nak(); nakErr != nil {
			slogger.Error(ctx, "Failed to nak message", slogger.Field("error", nakErr.Error()))
		}
	default:
		n.recordOutcome(true, false)
		if ackErr := msg.Ack(); ackErr != nil {
			slogger.Error(ctx, "Failed to ack message", slogger.Fields2(
				"job_id", jobMessage.JobID.String(),
				"error", ackErr.Error(),
			))
		}
	}
}

func (n *NATSJobConsumer) recordReceived() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stats.MessagesReceived++
	n.stats.LastMessageTime = time.Now()
}

func (n *NATSJobConsumer) recordOutcome(processed, retried bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	switch {
	case processed:
		n.stats.MessagesProcessed++
	case retried:
		n.stats.MessagesRetried++
	default:
		n.stats.MessagesFailed++
	}
}
