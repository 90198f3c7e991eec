// internal/cache/memory.go
package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Cache with the same semantics as the Redis
// implementation, including the HDel removal count. Used by tests and as a
// fallback when no Redis address is configured.
type Memory struct {
	mu      sync.Mutex
	values  map[string]string
	hashes  map[string]map[string]string
	expires map[string]time.Time
}

func NewMemory() *Memory {
	return &Memory{
		values:  make(map[string]string),
		hashes:  make(map[string]map[string]string),
		expires: make(map[string]time.Time),
	}
}

// expired reports and reaps a lapsed key. Caller holds the lock.
func (m *Memory) expired(key string) bool {
	exp, ok := m.expires[key]
	if !ok || time.Now().Before(exp) {
		return false
	}
	delete(m.values, key)
	delete(m.hashes, key)
	delete(m.expires, key)
	return true
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.expired(key) {
		return "", false, nil
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	if ttl > 0 {
		m.expires[key] = time.Now().Add(ttl)
	} else {
		delete(m.expires, key)
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	delete(m.expires, key)
	return nil
}

func (m *Memory) HGet(_ context.Context, key, field string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.expired(key) {
		return "", false, nil
	}
	h, ok := m.hashes[key]
	if !ok {
		return "", false, nil
	}
	v, ok := h[field]
	return v, ok, nil
}

func (m *Memory) HSet(_ context.Context, key, field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expired(key)
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	h[field] = value
	return nil
}

func (m *Memory) HDel(_ context.Context, key, field string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.expired(key) {
		return 0, nil
	}
	h, ok := m.hashes[key]
	if !ok {
		return 0, nil
	}
	if _, ok := h[field]; !ok {
		return 0, nil
	}
	delete(h, field)
	return 1, nil
}

func (m *Memory) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.expired(key) {
		return map[string]string{}, nil
	}
	out := make(map[string]string, len(m.hashes[key]))
	for f, v := range m.hashes[key] {
		out[f] = v
	}
	return out, nil
}

func (m *Memory) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ttl > 0 {
		m.expires[key] = time.Now().Add(ttl)
	}
	return nil
}
