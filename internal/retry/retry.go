package retry

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"
)

// StatusCoder is implemented by errors that carry an HTTP status code.
type StatusCoder interface {
	StatusCode() int
}

// Retry executes fn with exponential backoff until it succeeds, maxAttempts is
// reached or ctx is done. The backoff doubles after each failed attempt
// starting from initialBackoff.
// Non-retryable errors (like 401, 404) return immediately without retry.
func Retry(ctx context.Context, fn func() error, maxAttempts int, initialBackoff time.Duration) error {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !IsRetryable(lastErr) && !IsRateLimited(lastErr) {
			return lastErr
		}

		// Don't sleep after the last attempt
		if attempt < maxAttempts {
			timer := time.NewTimer(Backoff(initialBackoff, attempt, lastErr))
			select {
			case <-ctx.Done():
				timer.Stop()
				return errors.Join(lastErr, ctx.Err())
			case <-timer.C:
			}
		}
	}

	return lastErr
}

// Backoff returns the delay before the attempt following the given one.
// Rate limited errors wait twice as long.
func Backoff(initial time.Duration, attempt int, err error) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := initial * time.Duration(1<<(attempt-1))
	if IsRateLimited(err) {
		d *= 2
	}
	return d
}

// IsRetryable returns true if the error is a transient error that should be retried.
// This includes network timeouts and 5xx server errors.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode() >= 500 && sc.StatusCode() <= 504
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
	}

	errStr := err.Error()
	if strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "i/o timeout") ||
		strings.Contains(errStr, "temporary failure") {
		return true
	}

	return false
}

// IsRateLimited returns true if the error indicates rate limiting (HTTP 429).
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode() == 429
	}
	return false
}
