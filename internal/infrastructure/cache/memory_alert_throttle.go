package cache

import (
	"context"
	"sync"
	"time"

	"github.com/oficina/backend/internal/application/stock"
)

// MemoryAlertThrottle implements AlertThrottle with an in-memory map.
// It is suitable for single-instance deployments and testing.
type MemoryAlertThrottle struct {
	mu      sync.Mutex
	entries map[string]time.Time // key -> expiry
	now     func() time.Time
}

// NewMemoryAlertThrottle creates a new in-memory alert throttle
func NewMemoryAlertThrottle() *MemoryAlertThrottle {
	return &MemoryAlertThrottle{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Allow returns true if key was not seen within ttl, and records it
func (t *MemoryAlertThrottle) Allow(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if expiresAt, ok := t.entries[key]; ok && now.Before(expiresAt) {
		return false, nil
	}
	t.entries[key] = now.Add(ttl)
	t.evictExpired(now)
	return true, nil
}

// evictExpired drops expired keys; callers hold mu
func (t *MemoryAlertThrottle) evictExpired(now time.Time) {
	for key, expiresAt := range t.entries {
		if !now.Before(expiresAt) {
			delete(t.entries, key)
		}
	}
}

// Len returns the number of live keys
func (t *MemoryAlertThrottle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

var _ stock.AlertThrottle = (*MemoryAlertThrottle)(nil)
