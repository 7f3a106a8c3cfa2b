package query

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Entry is one cached read result.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Stale     bool            `json:"stale"`
}

// Store keeps entries. Invalidate marks (or drops) every entry whose key has
// the given prefix and returns how many were affected.
type Store interface {
	Get(ctx context.Context, key Key) (Entry, bool, error)
	Set(ctx context.Context, key Key, e Entry) error
	Invalidate(ctx context.Context, prefix Key) (int, error)
	Clear(ctx context.Context) error
}

type memEntry struct {
	key        Key
	entry      Entry
	lastAccess time.Time
}

// MemoryStore is the in-process store. Invalidated entries keep their
// last-known data with Stale set; entries unused for gcTime are evicted.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memEntry
	gcTime  time.Duration
	now     func() time.Time
}

func NewMemoryStore(gcTime time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memEntry),
		gcTime:  gcTime,
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key Key) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := key.String()
	e, ok := s.entries[id]
	if !ok {
		return Entry{}, false, nil
	}
	now := s.now()
	if s.expired(e, now) {
		delete(s.entries, id)
		return Entry{}, false, nil
	}
	e.lastAccess = now
	return e.entry, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key Key, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)
	s.entries[key.String()] = &memEntry{key: key, entry: entry, lastAccess: now}
	return nil
}

func (s *MemoryStore) Invalidate(_ context.Context, prefix Key) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range s.entries {
		if e.key.HasPrefix(prefix) {
			e.entry.Stale = true
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*memEntry)
	return nil
}

// Len returns the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep(s.now())
	return len(s.entries)
}

func (s *MemoryStore) expired(e *memEntry, now time.Time) bool {
	return s.gcTime > 0 && now.Sub(e.lastAccess) > s.gcTime
}

func (s *MemoryStore) sweep(now time.Time) {
	for id, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, id)
		}
	}
}
