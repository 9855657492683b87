// Package cooldown remembers when each client last booked successfully.
package cooldown

import (
	"context"
	"sync"
	"time"
)

// Store keeps one timestamp per client key. Entries only need to live as
// long as the cooldown window.
type Store interface {
	Last(ctx context.Context, key string) (time.Time, bool, error)
	Record(ctx context.Context, key string, at time.Time) error
}

type Memory struct {
	mu   sync.Mutex
	last map[string]time.Time
	ttl  time.Duration
	stop chan struct{}
	once sync.Once
}

func NewMemory(ttl time.Duration) *Memory {
	m := &Memory{
		last: make(map[string]time.Time),
		ttl:  ttl,
		stop: make(chan struct{}),
	}
	// drop expired entries every minute
	go func() {
		t := time.NewTicker(time.Minute)
		defer t.Stop()
		for {
			select {
			case <-m.stop:
				return
			case now := <-t.C:
				m.sweep(now)
			}
		}
	}()
	return m
}

func (m *Memory) Last(_ context.Context, key string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	at, ok := m.last[key]
	return at, ok, nil
}

func (m *Memory) Record(_ context.Context, key string, at time.Time) error {
	m.mu.Lock()
	m.last[key] = at
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() {
	m.once.Do(func() { close(m.stop) })
}

func (m *Memory) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, at := range m.last {
		if now.Sub(at) > m.ttl {
			delete(m.last, k)
		}
	}
}
