package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	lim  *rate.Limiter
	seen time.Time
}

// Limiter throttles login attempts per key (the username being tried).
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	r       rate.Limit
	burst   int
	idle    time.Duration
	lastGC  time.Time
}

func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{
		entries: make(map[string]*entry),
		r:       rate.Limit(rps),
		burst:   burst,
		idle:    3 * time.Minute,
		lastGC:  time.Now(),
	}
}

func (l *Limiter) Allow(key string) bool {
	return l.get(key).Allow()
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	// drop stale entries at most once a minute
	if now.Sub(l.lastGC) > time.Minute {
		for k, e := range l.entries {
			if now.Sub(e.seen) > l.idle {
				delete(l.entries, k)
			}
		}
		l.lastGC = now
	}

	if e, ok := l.entries[key]; ok {
		e.seen = now
		return e.lim
	}
	lim := rate.NewLimiter(l.r, l.burst)
	l.entries[key] = &entry{lim: lim, seen: now}
	return lim
}
