package retry

import (
	"context"
	"errors"
	"time"
)

// ExponentialBackoff returns delay based on attempt number.
// The delay doubles with each attempt: base * 2^attempt
func ExponentialBackoff(attempt int, base time.Duration) time.Duration {
	return base * (1 << attempt)
}

// CappedBackoff is ExponentialBackoff limited to max.
func CappedBackoff(attempt int, base, max time.Duration) time.Duration {
	// past 2^30 the shift overflows; the cap applies long before that anyway
	if attempt > 30 {
		return max
	}
	d := ExponentialBackoff(attempt, base)
	if d > max || d <= 0 {
		return max
	}
	return d
}

// Until calls fn until it returns nil or ctx is done, sleeping between calls
// with a backoff growing from base up to max. On expiry the last error from
// fn is returned together with the context error.
func Until(ctx context.Context, base, max time.Duration, fn func(context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(CappedBackoff(attempt, base, max)):
		}
	}
}
