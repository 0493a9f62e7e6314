package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps selections in process memory. Selections are lost on
// restart, which is acceptable for single-instance deployments.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	data      *Data
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Data, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.entries, key)
		return nil, false
	}

	return cloneData(entry.data), true
}

func (s *MemoryStore) Set(_ context.Context, key string, data *Data, ttl time.Duration) error {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpiredLocked(now)
	s.entries[key] = memoryEntry{
		data:      cloneData(data),
		expiresAt: now.Add(ttl),
	}
	return nil
}

func (s *MemoryStore) SetIfRevision(_ context.Context, key string, expected int64, data *Data, ttl time.Duration) error {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	current := NoRevision
	if entry, ok := s.entries[key]; ok && !now.After(entry.expiresAt) {
		current = entry.data.Selection.Revision
	}
	if current != expected {
		return ErrConflict
	}

	s.evictExpiredLocked(now)
	s.entries[key] = memoryEntry{
		data:      cloneData(data),
		expiresAt: now.Add(ttl),
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

func (s *MemoryStore) evictExpiredLocked(now time.Time) {
	for key, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, key)
		}
	}
}

func (s *MemoryStore) Close() error {
	return nil
}
