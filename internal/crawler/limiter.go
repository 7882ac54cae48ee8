package crawler

import (
	"context"
	"math/rand/v2"
	"time"
)

// Limiter enforces minimum spacing between requests for one worker.
// Each worker owns one domain, so limiter state is per-worker rather
// than shared: the spacing is a courtesy to that domain's origin server,
// not a global proxy cap.
type Limiter struct {
	// delay is the minimum time between permitted fetches.
	delay time.Duration

	// jitter is the maximum random addition to delay. Randomized
	// spacing avoids a mechanical request rhythm.
	jitter time.Duration

	// last is when the previous fetch was permitted. Zero before the
	// first call, so the first fetch proceeds immediately.
	last time.Time
}

// NewLimiter creates a limiter with the given base delay and jitter cap.
func NewLimiter(delay, jitter time.Duration) *Limiter {
	return &Limiter{
		delay:  delay,
		jitter: jitter,
	}
}

// Wait blocks until at least delay plus a random jitter has elapsed
// since the previous permitted fetch, or until the context is
// cancelled. The first call returns immediately.
//
// Not safe for concurrent use: a limiter belongs to exactly one worker,
// whose fetches are sequential by design.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.delay <= 0 && l.jitter <= 0 {
		l.last = time.Now()
		return nil
	}

	wait := l.delay
	if l.jitter > 0 {
		wait += rand.N(l.jitter)
	}

	if !l.last.IsZero() {
		elapsed := time.Since(l.last)
		if remaining := wait - elapsed; remaining > 0 {
			timer := time.NewTimer(remaining)
			defer timer.Stop()

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	l.last = time.Now()
	return nil
}
