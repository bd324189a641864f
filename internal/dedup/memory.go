package dedup

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a map-backed domain.DedupStore with the same TTL semantics
// as the SQLite store. Used in tests and store-less development runs.
type MemoryStore struct {
	mu        sync.RWMutex
	seen      map[string]time.Time // message id → expiry
	retention time.Duration
}

func NewMemoryStore(retention time.Duration) *MemoryStore {
	return &MemoryStore{
		seen:      make(map[string]time.Time),
		retention: retention,
	}
}

func (m *MemoryStore) HasSeen(_ context.Context, messageID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	expiry, ok := m.seen[messageID]
	return ok && expiry.After(time.Now()), nil
}

func (m *MemoryStore) MarkSeen(_ context.Context, messageID string) error {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, expiry := range m.seen {
		if !expiry.After(now) {
			delete(m.seen, id)
		}
	}
	m.seen[messageID] = now.Add(m.retention)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
