package cache

import (
	"context"
	"sync"
	"time"
)

// purgeThreshold bounds how large the map may grow before a write triggers
// a scan for expired entries.
const purgeThreshold = 1024

// MemoryProvider is a TTL-aware in-process Provider for single-node
// deployments and local development. Expired entries are treated as misses
// immediately and physically removed on later writes.
type MemoryProvider struct {
	mu    sync.Mutex
	items map[string]memoryItem
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

func (it memoryItem) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && now.After(it.expiresAt)
}

// NewMemoryProvider returns an empty in-process cache.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{items: make(map[string]memoryItem)}
}

// Get returns a copy of the stored bytes or ErrCacheMiss.
func (m *MemoryProvider) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[key]
	if !ok || it.expired(time.Now()) {
		return nil, ErrCacheMiss
	}
	out := make([]byte, len(it.value))
	copy(out, it.value)
	return out, nil
}

// Set stores a copy of value under key with an optional TTL.
func (m *MemoryProvider) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(key, value, ttl)
	return nil
}

// SetNX stores the value only when the key is absent or expired, reporting
// whether the write happened.
func (m *MemoryProvider) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if it, ok := m.items[key]; ok && !it.expired(time.Now()) {
		return false, nil
	}
	m.setLocked(key, value, ttl)
	return true, nil
}

// Del removes an entry.
func (m *MemoryProvider) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// Close drops all entries.
func (m *MemoryProvider) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]memoryItem)
	return nil
}

func (m *MemoryProvider) setLocked(key string, value []byte, ttl time.Duration) {
	now := time.Now()
	if len(m.items) >= purgeThreshold {
		for k, it := range m.items {
			if it.expired(now) {
				delete(m.items, k)
			}
		}
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	var expires time.Time
	if ttl > 0 {
		expires = now.Add(ttl)
	}
	m.items[key] = memoryItem{value: stored, expiresAt: expires}
}
