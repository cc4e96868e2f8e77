package session

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore is an in-process Store backed by go-cache. Suitable for a single instance.
type MemoryStore struct {
	mu sync.Mutex
	c  *gocache.Cache
}

// NewMemoryStore returns a MemoryStore whose sessions expire ttl after their last write.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{c: gocache.New(ttl, time.Minute)}
}

// Put merges notes into the session and refreshes its expiry.
func (s *MemoryStore) Put(ctx context.Context, sessionID string, notes Notes) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := Notes{}
	if v, ok := s.c.Get(sessionID); ok {
		for k, val := range v.(Notes) {
			merged[k] = val
		}
	}
	for k, v := range notes {
		merged[k] = v
	}
	s.c.SetDefault(sessionID, merged)
	return nil
}

// Get returns the requested keys present for the session.
func (s *MemoryStore) Get(ctx context.Context, sessionID string, keys ...string) (Notes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Notes{}
	v, ok := s.c.Get(sessionID)
	if !ok {
		return out, nil
	}
	stored := v.(Notes)
	for _, k := range keys {
		if val, ok := stored[k]; ok {
			out[k] = val
		}
	}
	return out, nil
}

// Remove deletes keys from the session; the session entry goes away once it is empty.
func (s *MemoryStore) Remove(ctx context.Context, sessionID string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.c.Get(sessionID)
	if !ok {
		return nil
	}
	remaining := Notes{}
	for k, val := range v.(Notes) {
		remaining[k] = val
	}
	for _, k := range keys {
		delete(remaining, k)
	}
	if len(remaining) == 0 {
		s.c.Delete(sessionID)
		return nil
	}
	s.c.SetDefault(sessionID, remaining)
	return nil
}
