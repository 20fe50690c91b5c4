package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// Cache is a key/value backend for session checkpoints.
type Cache[S any] interface {
	Set(ctx context.Context, key string, val S) error
	Get(ctx context.Context, key string) (S, bool, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

type memoryEntry[S any] struct {
	val     S
	expires time.Time
}

// MemoryCache keeps values in process. A zero ttl never expires.
type MemoryCache[S any] struct {
	mu  sync.RWMutex
	m   map[string]memoryEntry[S]
	ttl time.Duration
	now func() time.Time
}

func NewMemoryCache[S any](ttl time.Duration) *MemoryCache[S] {
	return &MemoryCache[S]{m: map[string]memoryEntry[S]{}, ttl: ttl, now: time.Now}
}

func (m *MemoryCache[S]) Set(ctx context.Context, key string, val S) error {
	entry := memoryEntry[S]{val: val}
	if m.ttl > 0 {
		entry.expires = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.m[key] = entry
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[S]) Get(ctx context.Context, key string) (S, bool, error) {
	m.mu.RLock()
	entry, ok := m.m[key]
	m.mu.RUnlock()
	if !ok || m.expired(entry) {
		var zero S
		return zero, false, nil
	}
	return entry.val, true, nil
}

func (m *MemoryCache[S]) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.m, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[S]) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := m.Get(ctx, key)
	return ok, err
}

func (m *MemoryCache[S]) expired(e memoryEntry[S]) bool {
	return !e.expires.IsZero() && m.now().After(e.expires)
}

// RedisCache stores values as JSON strings.
type RedisCache[S any] struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisCache[S any](client redis.UniversalClient, ttl time.Duration) *RedisCache[S] {
	return &RedisCache[S]{client: client, ttl: ttl}
}

func (r *RedisCache[S]) Set(ctx context.Context, key string, val S) error {
	data, err := sonic.Marshal(val)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisCache[S]) Get(ctx context.Context, key string) (S, bool, error) {
	var zero S
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var val S
	if err := sonic.Unmarshal(data, &val); err != nil {
		return zero, false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return val, true, nil
}

func (r *RedisCache[S]) Del(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (r *RedisCache[S]) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}
	return n > 0, nil
}
