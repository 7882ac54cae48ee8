package crawler

import (
	"context"
	"testing"
	"time"
)

// TestLimiterWait tests request spacing.
func TestLimiterWait(t *testing.T) {
	t.Parallel()

	t.Run("first call returns immediately", func(t *testing.T) {
		t.Parallel()

		l := NewLimiter(time.Second, 0)

		start := time.Now()
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
			t.Errorf("expected immediate first call, waited %v", elapsed)
		}
	})

	t.Run("second call waits at least the delay", func(t *testing.T) {
		t.Parallel()

		const delay = 50 * time.Millisecond
		l := NewLimiter(delay, 0)

		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		start := time.Now()
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if elapsed := time.Since(start); elapsed < delay {
			t.Errorf("expected wait of at least %v, got %v", delay, elapsed)
		}
	})

	t.Run("jitter stays within bounds", func(t *testing.T) {
		t.Parallel()

		const (
			delay  = 20 * time.Millisecond
			jitter = 30 * time.Millisecond
		)
		l := NewLimiter(delay, jitter)

		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		start := time.Now()
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		elapsed := time.Since(start)
		if elapsed < delay {
			t.Errorf("expected wait of at least %v, got %v", delay, elapsed)
		}
		// Generous upper bound to absorb scheduler slack.
		if elapsed > delay+jitter+100*time.Millisecond {
			t.Errorf("expected wait under %v, got %v", delay+jitter, elapsed)
		}
	})

	t.Run("cancellation interrupts the wait", func(t *testing.T) {
		t.Parallel()

		l := NewLimiter(10*time.Second, 0)

		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		start := time.Now()
		err := l.Wait(ctx)
		if err == nil {
			t.Fatal("expected cancellation error")
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("expected prompt cancellation, waited %v", elapsed)
		}
	})

	t.Run("zero delay and jitter never blocks", func(t *testing.T) {
		t.Parallel()

		l := NewLimiter(0, 0)
		for i := 0; i < 5; i++ {
			if err := l.Wait(context.Background()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
	})
}
