// Package retry provides the single retry-policy abstraction used by every
// outbound client in the agent (embeddings, LLM chat completions, web
// search). Each call site configures its own attempt count and interval
// bounds, but all of them go through backoff.Retry so the jitter/backoff
// math lives in exactly one place.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy configures one retry sequence.
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultEmbeddingPolicy allows up to 5 attempts.
func DefaultEmbeddingPolicy() Policy {
	return Policy{MaxAttempts: 5, InitialInterval: 250 * time.Millisecond, MaxInterval: 8 * time.Second}
}

// DefaultLLMPolicy allows up to 2 retries (3 attempts total).
func DefaultLLMPolicy() Policy {
	return Policy{MaxAttempts: 3, InitialInterval: 300 * time.Millisecond, MaxInterval: 4 * time.Second}
}

// Permanent marks an error as non-retryable (e.g. caller error, 4xx).
// Wrapping an error this way short-circuits Do on the first attempt.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// Do runs fn up to policy.MaxAttempts times with exponential backoff and
// jitter between attempts, stopping early if ctx is done or fn returns an
// error wrapped with Permanent.
func Do(ctx context.Context, policy Policy, fn func() error) error {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.InitialInterval
	b.MaxInterval = policy.MaxInterval

	op := func() (struct{}, error) {
		return struct{}{}, fn()
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(policy.MaxAttempts)),
	)
	if err != nil {
		if ctx.Err() != nil {
			return errors.Join(err, ctx.Err())
		}
		return err
	}
	return nil
}
