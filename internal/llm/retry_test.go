package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

// scriptedProvider returns its errors in order, then the response.
type scriptedProvider struct {
	errs     []error
	response string
	calls    int
}

func (p *scriptedProvider) Generate(_ context.Context, _ Request) (string, error) {
	p.calls++
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		return "", err
	}
	return p.response, nil
}

func (p *scriptedProvider) IsConfigured() bool { return true }

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     attempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	}
}

func TestCallSucceedsFirstTry(t *testing.T) {
	p := &scriptedProvider{response: "ok"}
	c := &Caller{Provider: p, Policy: fastPolicy(2)}

	out, err := c.Call(context.Background(), Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "ok" {
		t.Errorf("expected 'ok', got %q", out)
	}
	if p.calls != 1 {
		t.Errorf("expected 1 call, got %d", p.calls)
	}
}

func TestCallRetriesRateLimit(t *testing.T) {
	p := &scriptedProvider{errs: []error{&RateLimitError{}}, response: "recovered"}
	c := &Caller{Provider: p, Policy: fastPolicy(2)}

	out, err := c.Call(context.Background(), Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "recovered" {
		t.Errorf("expected 'recovered', got %q", out)
	}
	if p.calls != 2 {
		t.Errorf("expected 2 calls, got %d", p.calls)
	}
}

func TestCallExhaustsRetries(t *testing.T) {
	p := &scriptedProvider{errs: []error{&RateLimitError{}, &RateLimitError{}, &RateLimitError{}}}
	c := &Caller{Provider: p, Policy: fastPolicy(2)}

	_, err := c.Call(context.Background(), Request{Prompt: "hi"})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Errorf("expected RateLimitError, got %v", err)
	}
	if p.calls != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", p.calls)
	}
}

func TestCallDoesNotRetryAuthFailure(t *testing.T) {
	p := &scriptedProvider{errs: []error{ErrAuth}}
	c := &Caller{Provider: p, Policy: fastPolicy(3)}

	_, err := c.Call(context.Background(), Request{Prompt: "hi"})
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if p.calls != 1 {
		t.Errorf("auth failures must not be retried; got %d calls", p.calls)
	}
}

func TestCallNoProvider(t *testing.T) {
	c := &Caller{Policy: fastPolicy(1)}
	if _, err := c.Call(context.Background(), Request{}); err == nil {
		t.Error("expected error with no provider")
	}
}
