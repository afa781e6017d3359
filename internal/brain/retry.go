package brain

import (
	"errors"
	"time"
)

// isRetryable reports whether another attempt could plausibly succeed.
// Authentication and request-shape failures will fail identically on
// retry; rate limits, server errors, and transport faults may clear.
func isRetryable(err error) bool {
	if errors.Is(err, ErrAuthentication) || errors.Is(err, ErrInvalidRequest) {
		return false
	}
	return true
}

// backoff computes a deterministic capped exponential backoff duration.
func backoff(attempt int, base, cap time.Duration) time.Duration {
	if attempt <= 0 {
		return base
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= cap {
			return cap
		}
	}
	return d
}
