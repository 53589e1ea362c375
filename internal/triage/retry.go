package triage

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy controls how stage provider calls are re-attempted. It is an
// explicit value injected into each stage so tests can run with zero delay.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// BaseDelay is the wait before the second attempt; it doubles per attempt.
	BaseDelay time.Duration
	// MaxDelay caps the doubling.
	MaxDelay time.Duration
	// Jitter randomizes each delay by +/- this fraction.
	Jitter float64
}

// DefaultRetryPolicy matches the production posture: 3 attempts, 250ms base,
// doubling with jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   250 * time.Millisecond,
		MaxDelay:    4 * time.Second,
		Jitter:      0.5,
	}
}

// ZeroDelayRetryPolicy keeps the attempt cap but removes all waiting.
// Intended for tests.
func ZeroDelayRetryPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts}
}

// complete runs one provider call under the policy. Only errors marked
// transient are retried; everything else aborts on the first occurrence.
// A canceled ctx abandons the in-flight attempt.
func (p RetryPolicy) complete(ctx context.Context, provider Provider, req *CompletionRequest) (*Completion, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.BaseDelay
	if p.MaxDelay > 0 {
		bo.MaxInterval = p.MaxDelay
	}
	bo.Multiplier = 2
	bo.RandomizationFactor = p.Jitter

	return backoff.Retry(ctx, func() (*Completion, error) {
		c, err := provider.Complete(ctx, req)
		if err != nil && !IsTransient(err) {
			return nil, backoff.Permanent(err)
		}
		return c, err
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(uint(attempts)))
}
