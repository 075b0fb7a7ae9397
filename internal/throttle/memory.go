package throttle

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter is a token bucket limiter local to a single instance of the service. Idle keys are removed by the
// janitor.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   int
	every   rate.Limit
	idleTTL time.Duration
}

// NewMemoryLimiter creates a limiter that allows perMinute calls per minute for each key, with bursts of up to
// perMinute calls.
func NewMemoryLimiter(perMinute int) *MemoryLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &MemoryLimiter{
		entries: make(map[string]*entry),
		limit:   perMinute,
		every:   rate.Every(time.Minute / time.Duration(perMinute)),
		idleTTL: 15 * time.Minute,
	}
}

// Limit returns the number of calls allowed per minute.
func (m *MemoryLimiter) Limit() int {
	return m.limit
}

// Allow implements Limiter.
func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(m.every, m.limit)}
		m.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1), nil
}

// Cleanup removes the keys that haven't been seen recently.
func (m *MemoryLimiter) Cleanup() {
	cutoff := time.Now().Add(-m.idleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()

	for k, e := range m.entries {
		if e.lastSeen.Before(cutoff) {
			delete(m.entries, k)
		}
	}
}

// StartJanitor removes idle keys periodically until the context is cancelled.
func (m *MemoryLimiter) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				m.Cleanup()
			}
		}
	}()
}

// Len returns the number of tracked keys.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
