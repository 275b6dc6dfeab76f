package service

import (
	"time"

	"docingest/internal/domain/errors/domain"
)

// Retry policy defaults. These are versioned configuration: the cap bounds
// worst-case queue depth at base*(2+4+8) of cumulative delay.
const (
	DefaultBaseDelay   = 3 * time.Second
	DefaultMaxRetries  = 3
	maxBackoffExponent = 3
)

// RetryPolicy computes exponential backoff delays and decides when a
// failing job is out of budget and must dead-letter. It is immutable after
// construction.
type RetryPolicy struct {
	baseDelay  time.Duration
	maxRetries int
}

// NewRetryPolicy creates the default policy: base 3s, at most 3 retries.
func NewRetryPolicy() *RetryPolicy {
	return NewRetryPolicyWith(DefaultBaseDelay, DefaultMaxRetries)
}

// NewRetryPolicyWith creates a policy with explicit parameters. Non-positive
// arguments fall back to the defaults.
func NewRetryPolicyWith(baseDelay time.Duration, maxRetries int) *RetryPolicy {
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &RetryPolicy{
		baseDelay:  baseDelay,
		maxRetries: maxRetries,
	}
}

// Delay returns the backoff delay before the given retry attempt:
// 2^min(retryCount, 3) * base for positive counts, zero otherwise.
func (p *RetryPolicy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	exponent := retryCount
	if exponent > maxBackoffExponent {
		exponent = maxBackoffExponent
	}
	return p.baseDelay * (1 << exponent)
}

// ShouldRetry reports whether a job with the given retry count has budget
// for another attempt. A false return routes the job to the dead letter.
func (p *RetryPolicy) ShouldRetry(retryCount int) bool {
	return retryCount < p.maxRetries
}

// CheckBudget returns ErrRetryBudgetExhausted when a job with the given
// retry count has no budget left, nil otherwise.
func (p *RetryPolicy) CheckBudget(retryCount int) error {
	if retryCount >= p.maxRetries {
		return domain.ErrRetryBudgetExhausted
	}
	return nil
}

// MaxRetries returns the retry budget.
func (p *RetryPolicy) MaxRetries() int {
	return p.maxRetries
}

// BaseDelay returns the configured base delay.
func (p *RetryPolicy) BaseDelay() time.Duration {
	return p.baseDelay
}
