package listings

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrMaxWaitExceeded is returned when a caller has slept through the
// maximum number of window resets without obtaining a slot. It bounds
// queuing under sustained overload.
var ErrMaxWaitExceeded = errors.New("listings: max wait attempts exceeded")

// WindowLimiter grants a fixed number of request slots per rolling time
// window. When the window budget is exhausted, Acquire sleeps until the
// window resets rather than failing immediately, up to a bounded number
// of waits.
type WindowLimiter struct {
	mu          sync.Mutex
	limit       int
	window      time.Duration
	maxWaits    int
	count       int
	windowStart time.Time

	now func() time.Time
}

// NewWindowLimiter creates a limiter allowing limit requests per window,
// with at most maxWaits sleeps per Acquire before giving up.
func NewWindowLimiter(limit int, window time.Duration, maxWaits int) *WindowLimiter {
	return &WindowLimiter{
		limit:    limit,
		window:   window,
		maxWaits: maxWaits,
		now:      time.Now,
	}
}

// Acquire blocks until a request slot is available in the current window,
// or fails with ErrMaxWaitExceeded after maxWaits window resets, or with
// the context's error if ctx is cancelled while waiting.
func (l *WindowLimiter) Acquire(ctx context.Context) error {
	waits := 0

	for {
		l.mu.Lock()
		now := l.now()

		if l.windowStart.IsZero() || now.Sub(l.windowStart) >= l.window {
			l.windowStart = now
			l.count = 0
		}

		if l.count < l.limit {
			l.count++
			l.mu.Unlock()
			return nil
		}

		sleepFor := l.window - now.Sub(l.windowStart)
		l.mu.Unlock()

		if waits >= l.maxWaits {
			return ErrMaxWaitExceeded
		}
		waits++

		timer := time.NewTimer(sleepFor)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}
