// Package devotp keeps the SMS messages produced in simulation mode so they can be read
// back through the dev-only endpoint (GET /dev/otp). Never enabled in production.
package devotp

import (
	"context"
	"sync"
	"time"
)

// DefaultRetention is how long a simulated message stays readable.
const DefaultRetention = 10 * time.Minute

// Message is one simulated SMS.
type Message struct {
	Phone  string    `json:"phone"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sentAt"`
}

type entry struct {
	msg       Message
	expiresAt time.Time
}

// MemoryStore holds the latest simulated message per phone number. It implements the
// sms.Outbox interface.
type MemoryStore struct {
	mu        sync.RWMutex
	m         map[string]entry
	retention time.Duration
	nowF      func() time.Time
}

// NewMemoryStore returns a store that keeps messages for retention (DefaultRetention if zero).
func NewMemoryStore(retention time.Duration) *MemoryStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &MemoryStore{
		m:         make(map[string]entry),
		retention: retention,
		nowF:      func() time.Time { return time.Now().UTC() },
	}
}

// Record stores message as the latest one sent to phone.
func (s *MemoryStore) Record(ctx context.Context, phone, message string) {
	now := s.nowF()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[phone] = entry{
		msg:       Message{Phone: phone, Text: message, SentAt: now},
		expiresAt: now.Add(s.retention),
	}
}

// Latest returns the last message recorded for phone if it has not aged out.
func (s *MemoryStore) Latest(ctx context.Context, phone string) (Message, bool) {
	s.mu.RLock()
	e, ok := s.m[phone]
	s.mu.RUnlock()
	if !ok {
		return Message{}, false
	}
	if !e.expiresAt.After(s.nowF()) {
		s.mu.Lock()
		delete(s.m, phone)
		s.mu.Unlock()
		return Message{}, false
	}
	return e.msg, true
}
