package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func fastConfig(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	v, err := Do(context.Background(), "flaky", fastConfig(4), func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 7, nil
	})
	if err != nil || v != 7 {
		t.Fatalf("Do() = %d, %v; want 7, nil", v, err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRetryGivesUp(t *testing.T) {
	sentinel := errors.New("down")
	calls := 0
	err := Retry(context.Background(), "broken", fastConfig(3), func() error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) || calls != 3 {
		t.Fatalf("Retry() = %v after %d calls, want wrapped sentinel after 3", err, calls)
	}
}

func TestPermanentStopsImmediately(t *testing.T) {
	sentinel := errors.New("bad payload")
	calls := 0
	err := Retry(context.Background(), "decode", fastConfig(5), func() error {
		calls++
		return Permanent(sentinel)
	})
	if err != sentinel || calls != 1 {
		t.Fatalf("Retry() = %v after %d calls, want sentinel after 1", err, calls)
	}
	if !IsPermanent(fmt.Errorf("wrapped: %w", Permanent(sentinel))) || IsPermanent(sentinel) {
		t.Fatal("IsPermanent misreports")
	}
}

func TestRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, "cancelled", RetryConfig{MaxAttempts: 3, InitialDelay: time.Hour}, func() error {
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Retry() = %v, want context.Canceled", err)
	}
}

func TestComputeDelayCapped(t *testing.T) {
	cfg := withDefaults(RetryConfig{InitialDelay: time.Second, MaxDelay: 3 * time.Second})
	if d := computeDelay(10, cfg); d > 3*time.Second {
		t.Fatalf("delay = %v, want at most 3s", d)
	}
}
