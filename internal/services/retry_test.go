package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoffDelayDoubles(t *testing.T) {
	policy := RetryPolicy{BaseDelay: time.Second, MaxDelay: 10 * time.Second}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second, 10 * time.Second}
	for i, expected := range want {
		if got := policy.BackoffDelay(i + 1); got != expected {
			t.Errorf("BackoffDelay(%d) = %v, want %v", i+1, got, expected)
		}
	}
}

func TestRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	policy := RetryPolicy{MaxAttempts: 3, Sleeper: func(context.Context, time.Duration) error { return nil }}
	err := Retry(context.Background(), policy, func(context.Context) error {
		calls++
		if calls < 2 {
			return Wrap(ErrNetwork, "test", "op", "boom", nil)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry returned error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestRetryDoesNotRetryNonRetriable(t *testing.T) {
	calls := 0
	policy := RetryPolicy{MaxAttempts: 3, Sleeper: func(context.Context, time.Duration) error { return nil }}
	sentinel := Wrap(ErrValidation, "test", "op", "bad input", nil)
	err := Retry(context.Background(), policy, func(context.Context) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	slept := []time.Duration{}
	policy := RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
		Sleeper: func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
	}
	err := Retry(context.Background(), policy, func(context.Context) error {
		calls++
		return Wrap(ErrTimeout, "test", "op", "slow", nil)
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if len(slept) != 2 || slept[0] != time.Second || slept[1] != 2*time.Second {
		t.Errorf("unexpected sleeps: %v", slept)
	}
}

func TestIsRetriable(t *testing.T) {
	if IsRetriable(nil) {
		t.Error("nil should not be retriable")
	}
	if IsRetriable(context.Canceled) {
		t.Error("cancellation should not be retriable")
	}
	if !IsRetriable(errors.New("danmaku search returned 503")) {
		t.Error("503 should be retriable")
	}
	if !IsRetriable(Wrap(ErrTimeout, "dandan", "comment", "deadline", nil)) {
		t.Error("timeout sentinel should be retriable")
	}
	if IsRetriable(Wrap(ErrNotFound, "dandan", "bangumi", "missing", nil)) {
		t.Error("not-found should not be retriable")
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc123")
	id, ok := RequestIDFromContext(ctx)
	if !ok || id != "abc123" {
		t.Errorf("RequestIDFromContext = %q, %v", id, ok)
	}
	if _, ok := RequestIDFromContext(context.Background()); ok {
		t.Error("empty context should not carry a request id")
	}
}
