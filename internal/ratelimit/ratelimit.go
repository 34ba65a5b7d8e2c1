// Package ratelimit throttles login attempts per username.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Limiter interface {
	// Allow consumes one attempt for key and reports whether it may proceed.
	Allow(ctx context.Context, key string) (bool, error)
}

const maxTrackedKeys = 10_000

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Local is an in-process token bucket per key, used when no Redis is
// configured.
type Local struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]*localEntry
}

func NewLocal(perMinute, burst int) *Local {
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &Local{
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   burst,
		now:     time.Now,
		entries: make(map[string]*localEntry),
	}
}

func (l *Local) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok {
		if len(l.entries) >= maxTrackedKeys {
			l.evictIdle(now)
		}
		e = &localEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1), nil
}

// evictIdle drops buckets that have fully refilled; they carry no state.
func (l *Local) evictIdle(now time.Time) {
	refill := time.Duration(float64(l.burst) / float64(l.limit) * float64(time.Second))
	for k, e := range l.entries {
		if now.Sub(e.lastSeen) > refill {
			delete(l.entries, k)
		}
	}
}
