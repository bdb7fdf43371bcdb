package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int64
	resetAt time.Time
}

// Memory is a process-local fixed-window limiter.
type Memory struct {
	limit  int
	window time.Duration
	clock  func() time.Time

	mu      sync.Mutex
	windows map[string]window
}

func NewMemory(limit int, win time.Duration) *Memory {
	return &Memory{limit: limit, window: win, clock: time.Now, windows: make(map[string]window)}
}

func (m *Memory) Allow(ctx context.Context, key string) (Decision, error) {
	now := m.clock()

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = window{resetAt: now.Add(m.window)}
		m.sweep(now)
	}
	w.count++
	m.windows[key] = w
	return decide(m.limit, w.count, w.resetAt), nil
}

// sweep drops expired windows so idle keys do not accumulate.
func (m *Memory) sweep(now time.Time) {
	for k, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, k)
		}
	}
}
