package repository

import (
	"context"
	"sync"
)

// MemoryRepository keeps attributes in process memory. Used when DATABASE_URL is unset.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]map[string]string
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]map[string]string)}
}

// Attributes returns a copy of the user's attributes.
func (r *MemoryRepository) Attributes(ctx context.Context, userID string) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.users[userID]))
	for k, v := range r.users[userID] {
		out[k] = v
	}
	return out, nil
}

// SetAttribute creates or replaces one attribute.
func (r *MemoryRepository) SetAttribute(ctx context.Context, userID, name, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	attrs, ok := r.users[userID]
	if !ok {
		attrs = make(map[string]string)
		r.users[userID] = attrs
	}
	attrs[name] = value
	return nil
}
