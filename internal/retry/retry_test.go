package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type statusErr int

func (e statusErr) Error() string   { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) StatusCode() int { return int(e) }

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return statusErr(503)
		}
		return nil
	}, 5, time.Millisecond)

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_NonRetryableReturnsImmediately(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), func() error {
		calls++
		return statusErr(404)
	}, 5, time.Millisecond)

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call for 404, got %d", calls)
	}
}

func TestRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), func() error {
		calls++
		return statusErr(500)
	}, 3, time.Millisecond)

	var sc StatusCoder
	if !errors.As(err, &sc) || sc.StatusCode() != 500 {
		t.Fatalf("expected last status error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = Retry(context.Background(), func() error {
		calls++
		return statusErr(500)
	}, 0, time.Millisecond)

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, func() error {
		calls++
		cancel()
		return statusErr(502)
	}, 5, time.Hour)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestClassification(t *testing.T) {
	testCases := []struct {
		err         error
		retryable   bool
		rateLimited bool
	}{
		{nil, false, false},
		{statusErr(500), true, false},
		{statusErr(504), true, false},
		{statusErr(429), false, true},
		{statusErr(401), false, false},
		{fmt.Errorf("wrapped: %w", statusErr(503)), true, false},
		{errors.New("read tcp: connection reset by peer"), true, false},
		{errors.New("dial tcp: lookup api: no such host"), true, false},
		{context.Canceled, false, false},
		{errors.New("boom"), false, false},
	}

	for _, tc := range testCases {
		if got := IsRetryable(tc.err); got != tc.retryable {
			t.Errorf("IsRetryable(%v) = %v, want %v", tc.err, got, tc.retryable)
		}
		if got := IsRateLimited(tc.err); got != tc.rateLimited {
			t.Errorf("IsRateLimited(%v) = %v, want %v", tc.err, got, tc.rateLimited)
		}
	}
}

func TestBackoff(t *testing.T) {
	base := 100 * time.Millisecond
	if got := Backoff(base, 1, statusErr(500)); got != base {
		t.Errorf("attempt 1: got %v, want %v", got, base)
	}
	if got := Backoff(base, 3, statusErr(500)); got != 4*base {
		t.Errorf("attempt 3: got %v, want %v", got, 4*base)
	}
	if got := Backoff(base, 2, statusErr(429)); got != 4*base {
		t.Errorf("rate limited attempt 2: got %v, want %v", got, 4*base)
	}
}
