package exchange

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 4, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
	attempts := 0

	got, err := withRetry(context.Background(), cfg, "test_op", func(ctx context.Context) (int, error) {
		attempts++
		if attempts < 3 {
			return 0, errors.New("connection reset")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Errorf("got %d, want 42", got)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestWithRetryDoesNotRetryNonTransient(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 5, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
	attempts := 0

	_, err := withRetry(context.Background(), cfg, "test_op", func(ctx context.Context) (int, error) {
		attempts++
		return 0, errors.New("Invalid symbol.")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 for a non-transient error", attempts)
	}
}

func TestWithRetryExhaustsMaxAttempts(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
	attempts := 0

	_, err := withRetry(context.Background(), cfg, "test_op", func(ctx context.Context) (int, error) {
		attempts++
		return 0, errors.New("timeout")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}
