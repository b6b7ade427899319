// Package dedup collapses concurrent identical requests into a single
// upstream call. Callers that arrive while a fetch for the same key is in
// flight wait for the shared result instead of issuing their own request.
package dedup

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

const (
	// DefaultMaxInFlight is the hard ceiling on distinct concurrent keys.
	DefaultMaxInFlight = 500

	// DefaultWarnDepth is the soft threshold at which a warning is logged.
	DefaultWarnDepth = 100
)

// ErrQueueFull is returned when the number of distinct in-flight keys has
// reached the hard limit. It is never retried internally; under sustained
// overload a retry would not help.
var ErrQueueFull = errors.New("dedup: request queue full")

// Group deduplicates in-flight requests by key.
type Group struct {
	mu      sync.Mutex
	flights map[string]*flight

	maxInFlight int
	warnDepth   int
	logger      *slog.Logger
}

// flight is a single in-flight upstream call plus its waiters.
type flight struct {
	done    chan struct{}
	val     interface{}
	err     error
	waiters int
}

// Options configures a Group.
type Options struct {
	// MaxInFlight is the hard cap on distinct concurrent keys (default 500).
	MaxInFlight int

	// WarnDepth is the depth at which a warning is logged (default 100).
	WarnDepth int

	// Logger receives queue-depth warnings (default slog.Default()).
	Logger *slog.Logger
}

// NewGroup creates a request deduplication group.
func NewGroup(options Options) *Group {
	if options.MaxInFlight <= 0 {
		options.MaxInFlight = DefaultMaxInFlight
	}
	if options.WarnDepth <= 0 {
		options.WarnDepth = DefaultWarnDepth
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	return &Group{
		flights:     make(map[string]*flight),
		maxInFlight: options.MaxInFlight,
		warnDepth:   options.WarnDepth,
		logger:      options.Logger,
	}
}

// Do executes fn for key, unless a call for the same key is already in
// flight, in which case it waits for and returns that call's outcome. For N
// concurrent callers with the same key, fn runs exactly once and every
// caller observes the same value or error.
func (g *Group) Do(ctx context.Context, key string, fn func() (interface{}, error)) (interface{}, error) {
	g.mu.Lock()

	if f, ok := g.flights[key]; ok {
		f.waiters++
		g.mu.Unlock()

		select {
		case <-f.done:
			return f.val, f.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	// The size check and the insert stay inside one critical section so a
	// concurrent caller cannot slip past the cap.
	if len(g.flights) >= g.maxInFlight {
		g.mu.Unlock()
		return nil, ErrQueueFull
	}

	f := &flight{done: make(chan struct{})}
	g.flights[key] = f

	if depth := len(g.flights); depth == g.warnDepth {
		g.logger.Warn("dedup queue depth crossed soft threshold",
			"depth", depth,
			"max", g.maxInFlight)
	}
	g.mu.Unlock()

	f.val, f.err = fn()

	// Remove the entry before releasing waiters so a subsequent call for
	// the same key starts a fresh flight.
	g.mu.Lock()
	delete(g.flights, key)
	g.mu.Unlock()
	close(f.done)

	return f.val, f.err
}

// Len reports the number of distinct keys currently in flight.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.flights)
}

// Waiting reports how many callers are blocked on key's in-flight call,
// not counting the producer. Zero when no call is in flight.
func (g *Group) Waiting(key string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if f, ok := g.flights[key]; ok {
		return f.waiters
	}
	return 0
}
