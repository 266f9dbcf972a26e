// Package retry implements the gateway's uniform fail-soft contract: a fixed
// attempt budget with spacing, and a caller-supplied fallback value on
// exhaustion instead of an error.
package retry

import (
	"context"
	"time"
)

// Policy describes a retry budget.
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultPolicy is the gateway default: three attempts, one second apart.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Backoff: time.Second}
}

// Do invokes op at most p.MaxAttempts times, sleeping p.Backoff between
// attempts. The first successful value wins; on exhaustion the fallback
// supplier is called with the last error and its value is returned. Do never
// returns an error; all failure is encoded in the fallback value.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error), fallback func(error) T) T {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 && p.Backoff > 0 {
			select {
			case <-ctx.Done():
				return fallback(ctx.Err())
			case <-time.After(p.Backoff):
			}
		}

		v, err := op(ctx)
		if err == nil {
			return v
		}
		lastErr = err
	}
	return fallback(lastErr)
}
