/*
Package resilience provides the retry and circuit breaker primitives that
guard the database connection pool and the scoring API.

# Overview

Two composable pieces:

  - RetryPolicy re-invokes a fallible operation on transient failure with
    exponential backoff (attempt k waits InitialBackoff * 2^(k-1)).
  - Breaker tracks consecutive failures across calls and, once a threshold
    is crossed, short-circuits all further attempts for a cooldown window.

# Usage

	breaker := resilience.NewBreaker("database", resilience.Settings{
		MaxFailures: 5,
		Cooldown:    5 * time.Minute,
		OnStateChange: func(name string, from, to resilience.State) {
			log.Printf("breaker %s: %s -> %s", name, from, to)
		},
	})
	retry := resilience.NewRetryPolicy(3, time.Second, logger)

	if breaker.IsOpen() {
		return resilience.ErrCircuitOpen
	}
	err := retry.Do(ctx, "connect", func() error { return dial() })
	if err != nil {
		if resilience.IsTransient(err) {
			breaker.RecordFailure()
		}
		return err
	}
	breaker.RecordSuccess()

# States

The breaker has two states. Closed: calls pass through. Open: calls are
rejected with ErrCircuitOpen until the cooldown elapses. The open->closed
transition is evaluated lazily on the next IsOpen check, not by a timer,
and any recorded success immediately heals the breaker.
*/
package resilience
