package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// RetryPolicy bounds how oracle calls are retried. Only rate-limit
// responses are retried; everything else fails immediately.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy allows a single retry after a rate-limit response.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     2,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// Caller issues requests to a provider under a shared rate limiter and the
// retry policy. One Caller is shared by all analysis requests in a run.
type Caller struct {
	Provider Provider
	Policy   RetryPolicy
	Limiter  *rate.Limiter
}

// NewCaller builds a Caller with the given requests-per-second budget.
func NewCaller(provider Provider, policy RetryPolicy, requestsPerSecond float64) *Caller {
	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return &Caller{Provider: provider, Policy: policy, Limiter: limiter}
}

// Call sends one request, waiting for the rate limiter and retrying
// rate-limit responses within the policy bounds. Auth failures and parse
// errors are surfaced unretried.
func (c *Caller) Call(ctx context.Context, req Request) (string, error) {
	if c.Provider == nil {
		return "", fmt.Errorf("no oracle provider configured")
	}

	attempts := c.Policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var out string
	op := func() error {
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}

		text, err := c.Provider.Generate(ctx, req)
		if err != nil {
			var rl *RateLimitError
			if errors.As(err, &rl) {
				return err
			}
			return backoff.Permanent(err)
		}
		out = text
		return nil
	}

	b := backoff.NewExponentialBackOff()
	if c.Policy.InitialInterval > 0 {
		b.InitialInterval = c.Policy.InitialInterval
	}
	if c.Policy.MaxInterval > 0 {
		b.MaxInterval = c.Policy.MaxInterval
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx))
	if err != nil {
		return "", err
	}
	return out, nil
}
