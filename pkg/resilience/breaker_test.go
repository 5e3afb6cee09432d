package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestBreakerOpensAndRecovers(t *testing.T) {
	var transitions []State
	b := NewBreaker("redis", BreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Minute,
		OnStateChange:    func(_ string, _, to State) { transitions = append(transitions, to) },
	})
	clock := time.Unix(1000, 0)
	b.now = func() time.Time { return clock }

	fail := errors.New("connection refused")
	for i := 0; i < 2; i++ {
		if err := b.Execute(func() error { return fail }); !errors.Is(err, fail) {
			t.Fatalf("Execute() = %v, want %v", err, fail)
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("state = %s, want open", b.State())
	}
	called := false
	if err := b.Execute(func() error { called = true; return nil }); !errors.Is(err, ErrCircuitOpen) || called {
		t.Fatalf("open breaker ran fn or returned %v", err)
	}

	clock = clock.Add(time.Minute)
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe Execute() = %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("state = %s, want closed after successful probe", b.State())
	}
	want := []State{StateOpen, StateHalfOpen, StateClosed}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", transitions, want)
		}
	}
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	b := NewBreaker("redis", BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second})
	clock := time.Unix(0, 0)
	b.now = func() time.Time { return clock }

	b.Execute(func() error { return errors.New("down") })
	clock = clock.Add(2 * time.Second)
	b.Execute(func() error { return errors.New("still down") })
	if b.State() != StateOpen {
		t.Fatalf("state = %s, want open", b.State())
	}
	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Execute() right after failed probe = %v, want ErrCircuitOpen", err)
	}
}
