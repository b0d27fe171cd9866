package llmclient

import (
	"context"

	"github.com/verdana-eu/verdana-agent/internal/retry"
)

// RetryingClient wraps an inner Client with a shared retry.Policy, so every
// provider gets the same exponential-backoff-with-jitter behavior on
// transient failures without duplicating the loop per provider.
type RetryingClient struct {
	inner  Client
	policy retry.Policy
}

// NewRetryingClient wraps inner with policy.
func NewRetryingClient(inner Client, policy retry.Policy) *RetryingClient {
	return &RetryingClient{inner: inner, policy: policy}
}

func (c *RetryingClient) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	var result string
	err := retry.Do(ctx, c.policy, func() error {
		out, err := c.inner.Complete(ctx, messages, opts)
		if err != nil {
			return err
		}
		result = out
		return nil
	})
	return result, err
}
