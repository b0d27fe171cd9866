package embed

import (
	"context"

	"github.com/verdana-eu/verdana-agent/internal/retry"
)

// RetryingClient wraps an inner Client with a shared retry.Policy.
type RetryingClient struct {
	inner  Client
	policy retry.Policy
}

// NewRetryingClient wraps inner with policy.
func NewRetryingClient(inner Client, policy retry.Policy) *RetryingClient {
	return &RetryingClient{inner: inner, policy: policy}
}

func (c *RetryingClient) Dimensions() int { return c.inner.Dimensions() }

func (c *RetryingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var result [][]float32
	err := retry.Do(ctx, c.policy, func() error {
		out, err := c.inner.Embed(ctx, texts)
		if err != nil {
			return err
		}
		result = out
		return nil
	})
	return result, err
}
