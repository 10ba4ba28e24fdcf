package query

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by a Store when the key is absent or expired.
var ErrMiss = errors.New("query: cache miss")

// Store keeps encoded query results until their stale time passes.
type Store interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	Set(ctx context.Context, key Key, value []byte, ttl time.Duration) error
	// DeletePrefix removes every key under prefix.
	DeletePrefix(ctx context.Context, prefix Key) error
}

const redisPrefix = "portal:q:"

type RedisStore struct {
	Redis redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{Redis: client}
}

func (s *RedisStore) Get(ctx context.Context, key Key) ([]byte, error) {
	val, err := s.Redis.Get(ctx, redisPrefix+key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, key Key, value []byte, ttl time.Duration) error {
	if err := s.Redis.Set(ctx, redisPrefix+key.String(), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// DeletePrefix removes the key itself and everything below it.
func (s *RedisStore) DeletePrefix(ctx context.Context, prefix Key) error {
	base := redisPrefix + prefix.String()
	if err := s.Redis.Del(ctx, base).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}

	var cursor uint64
	for {
		keys, next, err := s.Redis.Scan(ctx, cursor, base+":*", 100).Result()
		if err != nil {
			return fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			if err := s.Redis.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

type memoryEntry struct {
	key     Key
	value   []byte
	expires time.Time
}

// MemoryStore is a process-local Store for tests and Redis-less runs.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, key Key) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.entries[key.String()]
	s.mu.RUnlock()
	if !ok || !s.now().Before(e.expires) {
		return nil, ErrMiss
	}
	return e.value, nil
}

func (s *MemoryStore) Set(_ context.Context, key Key, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	s.entries[key.String()] = memoryEntry{key: key, value: value, expires: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeletePrefix(_ context.Context, prefix Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if e.key.HasPrefix(prefix) {
			delete(s.entries, k)
		}
	}
	return nil
}
