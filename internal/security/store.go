// Package security holds login throttling, token revocation and password
// rules. Counters live in a CounterStore that is either process-local or
// backed by Redis so several API nodes share lockouts.
package security

import (
	"context"
	"sync"
	"time"
)

// CounterStore keeps expiring counters and flags.
type CounterStore interface {
	// Increment adds one to key and returns the new value. The ttl is applied
	// when the counter is created.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
	SetFlag(ctx context.Context, key string, ttl time.Duration) error
	HasFlag(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

type memoryEntry struct {
	value     int64
	expiresAt time.Time
}

// MemoryStore is a CounterStore for single-node deployments and tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Increment(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.live(key)
	if !ok {
		entry = memoryEntry{expiresAt: s.now().Add(ttl)}
	}
	entry.value++
	s.entries[key] = entry
	return entry.value, nil
}

func (s *MemoryStore) SetFlag(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{value: 1, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) HasFlag(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.live(key)
	return ok, nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.entries, key)
	}
	return nil
}

// live returns the entry for key, dropping it when expired. Caller holds mu.
func (s *MemoryStore) live(key string) (memoryEntry, bool) {
	entry, ok := s.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.expiresAt.After(s.now()) {
		delete(s.entries, key)
		return memoryEntry{}, false
	}
	return entry, true
}
