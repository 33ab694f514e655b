// Package ratelimit provides a sliding-window admission gate for outbound
// requests against an upstream API quota.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrBudgetExhausted is returned when a caller has slept through the maximum
// number of window waits without winning a slot. With a single sequential
// caller this cannot happen; it guards against pathological contention.
var ErrBudgetExhausted = fmt.Errorf("rate limit budget exhausted")

// defaultMaxWaits caps how many times one Acquire call will sleep out the
// window before giving up.
const defaultMaxWaits = 8

// Limiter admits at most maxRequests grants per trailing window. Each
// upstream API family gets its own instance; instances never share state.
//
// The algorithm is sliding-window counting: an ordered list of grant
// timestamps is pruned to the trailing window on every call. When the window
// is full the caller sleeps until the oldest grant ages out, then re-checks,
// because more slots may have freed while sleeping.
type Limiter struct {
	name        string
	maxRequests int
	window      time.Duration
	maxWaits    int
	clock       clockwork.Clock

	mu     sync.Mutex
	grants []time.Time
}

// New creates a limiter admitting maxRequests per window.
func New(name string, maxRequests int, window time.Duration) *Limiter {
	return &Limiter{
		name:        name,
		maxRequests: maxRequests,
		window:      window,
		maxWaits:    defaultMaxWaits,
		clock:       clockwork.NewRealClock(),
	}
}

// Name identifies the upstream family this limiter guards.
func (l *Limiter) Name() string { return l.name }

// Acquire blocks until the caller may proceed, records the grant, and returns
// nil. It fails only on context cancellation or after exhausting the wait
// budget; the limiter itself has no external failure path.
func (l *Limiter) Acquire(ctx context.Context) error {
	for attempt := 0; ; attempt++ {
		wait, granted := l.tryAcquire()
		if granted {
			return nil
		}
		if attempt >= l.maxWaits {
			return fmt.Errorf("limiter %q: %w", l.name, ErrBudgetExhausted)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.clock.After(wait):
		}
	}
}

// tryAcquire prunes the window and either records a grant or reports how long
// to sleep before the oldest grant ages out.
func (l *Limiter) tryAcquire() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.prune(now)

	if len(l.grants) < l.maxRequests {
		l.grants = append(l.grants, now)
		return 0, true
	}

	return l.window - now.Sub(l.grants[0]), false
}

// prune drops grants older than the trailing window. Grants are appended in
// time order, so the slice stays sorted.
func (l *Limiter) prune(now time.Time) {
	cutoff := 0
	for cutoff < len(l.grants) && now.Sub(l.grants[cutoff]) >= l.window {
		cutoff++
	}
	if cutoff > 0 {
		l.grants = l.grants[cutoff:]
	}
}
