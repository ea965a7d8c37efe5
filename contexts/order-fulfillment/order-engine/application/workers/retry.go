package workers

import (
	"context"
	"errors"
	"time"

	"maestro/contexts/order-fulfillment/order-engine/ports"
)

// RetryPolicy bounds attempts against one external call: fixed delay, no
// backoff curve. The budget is pipeline-local and does not touch the lease.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// Retriable reports whether the failure is a transient external signal
// (rate limit, 5xx class). Anything else fails fast.
func Retriable(err error) bool {
	var publishErr *ports.PublishError
	return errors.As(err, &publishErr) && publishErr.Retriable
}

// Run executes call up to MaxAttempts times, invoking onRetry before every
// re-attempt so the pipeline can emit a progress event and persist the
// retry counter.
func (p RetryPolicy) Run(ctx context.Context, call func() error, onRetry func(attempt int, err error)) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = call()
		if err == nil {
			return nil
		}
		if !Retriable(err) || attempt == attempts {
			return err
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Delay):
		}
	}
	return err
}
