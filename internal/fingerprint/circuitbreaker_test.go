package fingerprint

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_OpensAndRecovers(t *testing.T) {
	cb := NewCircuitBreaker(5, 60*time.Second, 3)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return clock }

	fail := errors.New("boom")
	for i := 0; i < 5; i++ {
		if err := cb.Execute(func() error { return fail }); err != fail {
			t.Fatalf("attempt %d: err = %v, want %v", i, err, fail)
		}
	}
	if cb.State() != CircuitOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}
	if cb.CanExecute() {
		t.Fatal("canExecute should be false immediately after opening")
	}

	clock = clock.Add(60 * time.Second)
	if !cb.CanExecute() {
		t.Fatal("canExecute should be true once resetTimeout has elapsed")
	}
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("state = %v, want halfOpen", cb.State())
	}

	for i := 0; i < 3; i++ {
		if err := cb.Execute(func() error { return nil }); err != nil {
			t.Fatalf("half-open attempt %d: err = %v", i, err)
		}
	}
	if cb.State() != CircuitClosed {
		t.Fatalf("state = %v, want closed", cb.State())
	}
	if cb.failureCount != 0 {
		t.Fatalf("failureCount = %d, want 0", cb.failureCount)
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(2, time.Second, 3)
	clock := time.Now()
	cb.now = func() time.Time { return clock }

	fail := errors.New("boom")
	cb.Execute(func() error { return fail })
	cb.Execute(func() error { return fail })
	if cb.State() != CircuitOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	clock = clock.Add(time.Second)
	cb.CanExecute()
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("state = %v, want halfOpen", cb.State())
	}

	cb.Execute(func() error { return fail })
	if cb.State() != CircuitOpen {
		t.Fatalf("state = %v, want open after half-open failure", cb.State())
	}
}
