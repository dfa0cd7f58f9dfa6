package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes how failed operations are retried
type Policy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	MaxRetries      uint64
}

// Option represents an option for configuring a retry policy
type Option func(*Policy)

// WithInitialInterval sets the delay before the first retry
func WithInitialInterval(d time.Duration) Option {
	return func(p *Policy) {
		p.InitialInterval = d
	}
}

// WithMaxInterval caps the delay between retries
func WithMaxInterval(d time.Duration) Option {
	return func(p *Policy) {
		p.MaxInterval = d
	}
}

// WithMultiplier sets the backoff growth factor
func WithMultiplier(m float64) Option {
	return func(p *Policy) {
		p.Multiplier = m
	}
}

// WithMaxRetries sets how many times an operation is retried
func WithMaxRetries(n uint64) Option {
	return func(p *Policy) {
		p.MaxRetries = n
	}
}

// NewPolicy creates a retry policy with exponential backoff defaults
func NewPolicy(options ...Option) *Policy {
	policy := &Policy{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		Multiplier:      2.0,
		MaxRetries:      3,
	}

	for _, option := range options {
		option(policy)
	}

	return policy
}

// Executor runs operations under a retry policy
type Executor struct {
	policy *Policy
}

// NewExecutor creates an executor for the given policy
func NewExecutor(policy *Policy) *Executor {
	if policy == nil {
		policy = NewPolicy()
	}
	return &Executor{policy: policy}
}

// Execute runs op, retrying failures per the policy until the context is
// cancelled or the retry budget is exhausted. The last error is returned.
func (e *Executor) Execute(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.policy.InitialInterval
	b.MaxInterval = e.policy.MaxInterval
	b.Multiplier = e.policy.Multiplier
	b.MaxElapsedTime = 0

	return backoff.Retry(op, backoff.WithMaxRetries(backoff.WithContext(b, ctx), e.policy.MaxRetries))
}
