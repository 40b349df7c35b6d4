package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrNotFound = errors.New("cache entry not found")

type entry[V any] struct {
	expiresAt time.Time
	v         V
}

// Memory is a process local cache whose entries expire after a fixed TTL.
// Expired entries are dropped lazily, on access.
type Memory[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	ttl     time.Duration
	now     func() time.Time
}

func NewMemory[V any](ttl time.Duration) *Memory[V] {
	return &Memory[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *Memory[V]) Set(k string, v V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[k] = entry[V]{expiresAt: m.now().Add(m.ttl), v: v}
	slog.Debug("new cache entry", "key", k)
}

func (m *Memory[V]) Get(k string) (v V, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, found := m.entries[k]
	if !found {
		return v, ErrNotFound
	}
	if !m.now().Before(e.expiresAt) {
		slog.Debug("cache expired", "key", k)
		delete(m.entries, k)
		return v, ErrNotFound
	}
	return e.v, nil
}

func (m *Memory[V]) Delete(k string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, k)
}

// GetOrSet returns the cached value of key, computing and caching it with
// valueFunc when absent. Failed computations are not cached.
func (m *Memory[V]) GetOrSet(ctx context.Context, key string, valueFunc func(ctx context.Context) (V, error)) (v V, err error) {
	v, err = m.Get(key)
	if err == nil {
		return v, nil
	}

	v, err = valueFunc(ctx)
	if err != nil {
		return v, err
	}
	m.Set(key, v)
	return v, nil
}
