package resilience

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy re-invokes a fallible operation on transient failure with
// exponential backoff. The policy itself is stateless; each Do call runs
// its own attempt counter.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int
	// InitialBackoff is the delay before the first retry; it doubles
	// with every subsequent attempt.
	InitialBackoff time.Duration

	logger *zap.Logger

	// sleep is replaceable in tests to make delays observable.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryPolicy creates a retry policy. A nil logger disables retry logging.
func NewRetryPolicy(maxRetries int, initialBackoff time.Duration, logger *zap.Logger) RetryPolicy {
	if initialBackoff <= 0 {
		initialBackoff = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return RetryPolicy{
		MaxRetries:     maxRetries,
		InitialBackoff: initialBackoff,
		logger:         logger,
		sleep:          sleepContext,
	}
}

// Backoff returns the delay before retry attempt k (1-based):
// InitialBackoff * 2^(k-1).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return p.InitialBackoff << (attempt - 1)
}

// Do executes op, retrying transient failures up to MaxRetries times.
// Non-transient errors propagate immediately. After exhaustion the last
// error is returned wrapped with the operation name and attempt count.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func() error) error {
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}

		lastErr = err
		if attempt > p.MaxRetries {
			p.logger.Error("retries exhausted",
				zap.String("op", op),
				zap.Int("retries", p.MaxRetries),
				zap.Error(lastErr),
			)
			return fmt.Errorf("%s failed after %d attempts: %w", op, attempt, lastErr)
		}

		delay := p.Backoff(attempt)
		p.logger.Warn("transient failure, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// sleepContext blocks for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
