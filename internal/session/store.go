// Package session stores the per-attempt notes of an authentication session (the issued
// code and its expiry). Notes are scoped to one session ID and expire with the session.
package session

import (
	"context"
	"time"
)

// DefaultTTL is how long notes outlive their last write when no TTL is configured.
const DefaultTTL = 30 * time.Minute

// Notes is a string key/value bag belonging to one authentication session.
type Notes map[string]string

// Store persists session notes. Implementations isolate sessions from each other; callers
// must not write the same session concurrently.
type Store interface {
	// Put merges notes into the session, overwriting existing keys, and refreshes its expiry.
	Put(ctx context.Context, sessionID string, notes Notes) error
	// Get returns the requested keys that are present. Missing keys are absent from the result.
	Get(ctx context.Context, sessionID string, keys ...string) (Notes, error)
	// Remove deletes the given keys. Removing absent keys is not an error.
	Remove(ctx context.Context, sessionID string, keys ...string) error
}
