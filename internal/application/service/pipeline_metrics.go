package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Metric names following OpenTelemetry semantic conventions for the
// ingestion pipeline.
const (
	StageTransitionCounterName = "pipeline_stage_transition_total"
	JobCompletionCounterName   = "pipeline_job_completion_total"
	RetryScheduledCounterName  = "pipeline_retry_scheduled_total"
	DeadLetterCounterName      = "pipeline_dead_letter_total"
	DedupCounterName           = "pipeline_document_dedup_total"
	BackoffDelayHistogramName  = "pipeline_backoff_delay_seconds"
	JobDurationHistogramName   = "pipeline_job_duration_seconds"
	ProviderCostCounterName    = "pipeline_provider_cost_cents_total"
)

// Common attribute keys for consistent pipeline metrics labeling.
const (
	AttrStage       = "stage"
	AttrFromStage   = "from_stage"
	AttrRetryCount  = "retry_count"
	AttrFailureCode = "failure_code"
	AttrJobResult   = "job_result"
	AttrProvider    = "provider"
)

// PipelineMetrics defines the observability surface of the job pipeline.
type PipelineMetrics interface {
	// RecordStageTransition records a job advancing from one stage to the next.
	RecordStageTransition(ctx context.Context, fromStage, toStage string)

	// RecordJobCompletion records a job reaching done, with its total wall time.
	RecordJobCompletion(ctx context.Context, duration time.Duration, retryCount int)

	// RecordRetryScheduled records a transient failure entering the backoff path.
	RecordRetryScheduled(ctx context.Context, retryCount int, delay time.Duration, failureCode string)

	// RecordDeadLetter records a job exhausting its retry budget or failing fatally.
	RecordDeadLetter(ctx context.Context, retryCount int, failureCode string)

	// RecordDedup records an upload resolving to an already-known document.
	RecordDedup(ctx context.Context)

	// RecordProviderCost records accumulated provider cost in cents.
	RecordProviderCost(ctx context.Context, cents int64, provider string)
}

// PipelineMetricsConfig holds configuration for pipeline metrics collection.
type PipelineMetricsConfig struct {
	ServiceName    string
	ServiceVersion string
	DelayBuckets   []float64
}

// DefaultPipelineMetrics implements PipelineMetrics using OpenTelemetry.
type DefaultPipelineMetrics struct {
	config PipelineMetricsConfig

	stageTransitionCounter metric.Int64Counter
	jobCompletionCounter   metric.Int64Counter
	retryScheduledCounter  metric.Int64Counter
	deadLetterCounter      metric.Int64Counter
	dedupCounter           metric.Int64Counter
	backoffDelayHistogram  metric.Float64Histogram
	jobDurationHistogram   metric.Float64Histogram
	providerCostCounter    metric.Int64Counter
}

// NewPipelineMetrics creates a PipelineMetrics instance with a default meter
// provider backed by a manual reader.
func NewPipelineMetrics(config PipelineMetricsConfig) (PipelineMetrics, error) {
	if config.ServiceName == "" {
		return nil, errors.New("service name cannot be empty")
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", config.ServiceName),
			attribute.String("service.version", config.ServiceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewManualReader()),
	)

	return NewPipelineMetricsWithProvider(config, provider)
}

// NewPipelineMetricsWithProvider creates a PipelineMetrics instance with a
// custom meter provider.
func NewPipelineMetricsWithProvider(
	config PipelineMetricsConfig,
	provider metric.MeterProvider,
) (PipelineMetrics, error) {
	if config.ServiceName == "" {
		return nil, errors.New("service name cannot be empty")
	}

	meter := provider.Meter("pipeline-metrics")

	stageTransitionCounter, err := meter.Int64Counter(StageTransitionCounterName,
		metric.WithDescription("Total number of pipeline stage transitions"),
	)
	if err != nil {
		return nil, err
	}

	jobCompletionCounter, err := meter.Int64Counter(JobCompletionCounterName,
		metric.WithDescription("Total number of completed jobs"),
	)
	if err != nil {
		return nil, err
	}

	retryScheduledCounter, err := meter.Int64Counter(RetryScheduledCounterName,
		metric.WithDescription("Total number of scheduled retries"),
	)
	if err != nil {
		return nil, err
	}

	deadLetterCounter, err := meter.Int64Counter(DeadLetterCounterName,
		metric.WithDescription("Total number of dead-lettered jobs"),
	)
	if err != nil {
		return nil, err
	}

	dedupCounter, err := meter.Int64Counter(DedupCounterName,
		metric.WithDescription("Total number of deduplicated uploads"),
	)
	if err != nil {
		return nil, err
	}

	providerCostCounter, err := meter.Int64Counter(ProviderCostCounterName,
		metric.WithDescription("Accumulated provider cost in cents"),
	)
	if err != nil {
		return nil, err
	}

	delayHistogramOptions := []metric.Float64HistogramOption{
		metric.WithDescription("Retry backoff delay in seconds"),
	}
	if len(config.DelayBuckets) > 0 {
		delayHistogramOptions = append(delayHistogramOptions,
			metric.WithExplicitBucketBoundaries(config.DelayBuckets...))
	}
	backoffDelayHistogram, err := meter.Float64Histogram(BackoffDelayHistogramName, delayHistogramOptions...)
	if err != nil {
		return nil, err
	}

	jobDurationHistogram, err := meter.Float64Histogram(JobDurationHistogramName,
		metric.WithDescription("Job wall time from queued to done in seconds"),
	)
	if err != nil {
		return nil, err
	}

	return &DefaultPipelineMetrics{
		config:                 config,
		stageTransitionCounter: stageTransitionCounter,
		jobCompletionCounter:   jobCompletionCounter,
		retryScheduledCounter:  retryScheduledCounter,
		deadLetterCounter:      deadLetterCounter,
		dedupCounter:           dedupCounter,
		backoffDelayHistogram:  backoffDelayHistogram,
		jobDurationHistogram:   jobDurationHistogram,
		providerCostCounter:    providerCostCounter,
	}, nil
}

func (m *DefaultPipelineMetrics) RecordStageTransition(ctx context.Context, fromStage, toStage string) {
	m.stageTransitionCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(AttrFromStage, fromStage),
			attribute.String(AttrStage, toStage),
		),
	)
}

func (m *DefaultPipelineMetrics) RecordJobCompletion(
	ctx context.Context,
	duration time.Duration,
	retryCount int,
) {
	m.jobCompletionCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.Int(AttrRetryCount, retryCount),
		),
	)
	m.jobDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String(AttrJobResult, "done"),
		),
	)
}

func (m *DefaultPipelineMetrics) RecordRetryScheduled(
	ctx context.Context,
	retryCount int,
	delay time.Duration,
	failureCode string,
) {
	m.retryScheduledCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.Int(AttrRetryCount, retryCount),
			attribute.String(AttrFailureCode, failureCode),
		),
	)
	m.backoffDelayHistogram.Record(ctx, delay.Seconds(),
		metric.WithAttributes(
			attribute.Int(AttrRetryCount, retryCount),
		),
	)
}

func (m *DefaultPipelineMetrics) RecordDeadLetter(ctx context.Context, retryCount int, failureCode string) {
	m.deadLetterCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.Int(AttrRetryCount, retryCount),
			attribute.String(AttrFailureCode, failureCode),
		),
	)
}

func (m *DefaultPipelineMetrics) RecordDedup(ctx context.Context) {
	m.dedupCounter.Add(ctx, 1)
}

func (m *DefaultPipelineMetrics) RecordProviderCost(ctx context.Context, cents int64, provider string) {
	m.providerCostCounter.Add(ctx, cents,
		metric.WithAttributes(
			attribute.String(AttrProvider, provider),
		),
	)
}

// NoopPipelineMetrics discards all measurements, used where metrics are not
// wired up (tests, migrate command).
type NoopPipelineMetrics struct{}

func (NoopPipelineMetrics) RecordStageTransition(context.Context, string, string)              {}
func (NoopPipelineMetrics) RecordJobCompletion(context.Context, time.Duration, int)            {}
func (NoopPipelineMetrics) RecordRetryScheduled(context.Context, int, time.Duration, string)   {}
func (NoopPipelineMetrics) RecordDeadLetter(context.Context, int, string)                      {}
func (NoopPipelineMetrics) RecordDedup(context.Context)                                        {}
func (NoopPipelineMetrics) RecordProviderCost(context.Context, int64, string)                  {}
