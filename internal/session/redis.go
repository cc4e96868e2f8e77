package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "authsession:notes:"

// RedisStore keeps each session's notes in a Redis hash so several instances can serve
// the same authentication attempt.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore returns a Store using client. Hashes expire ttl after their last write.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// NewRedisClient parses a redis:// URL and returns a client for it.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("session: redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func redisKey(sessionID string) string {
	return redisKeyPrefix + sessionID
}

// Put writes notes into the session hash and refreshes its expiry in one transaction.
func (s *RedisStore) Put(ctx context.Context, sessionID string, notes Notes) error {
	if len(notes) == 0 {
		return nil
	}
	values := make(map[string]interface{}, len(notes))
	for k, v := range notes {
		values[k] = v
	}
	key := redisKey(sessionID)
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, values)
		p.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("session: redis put: %w", err)
	}
	return nil
}

// Get reads the requested fields of the session hash.
func (s *RedisStore) Get(ctx context.Context, sessionID string, keys ...string) (Notes, error) {
	out := Notes{}
	if len(keys) == 0 {
		return out, nil
	}
	vals, err := s.client.HMGet(ctx, redisKey(sessionID), keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("session: redis get: %w", err)
	}
	for i, v := range vals {
		if str, ok := v.(string); ok {
			out[keys[i]] = str
		}
	}
	return out, nil
}

// Remove deletes fields from the session hash.
func (s *RedisStore) Remove(ctx context.Context, sessionID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.HDel(ctx, redisKey(sessionID), keys...).Err(); err != nil {
		return fmt.Errorf("session: redis remove: %w", err)
	}
	return nil
}
