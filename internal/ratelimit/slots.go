package ratelimit

import (
	"context"
	"sync"
	"time"

	"portfolio-api/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// Slots caps concurrent holders per key, e.g. open voice sockets per visitor.
type Slots interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type RedisSlots struct {
	rdb    redis.Scripter
	prefix string
	limit  int
	ttl    time.Duration
}

// NewRedisSlots caps holders at limit. ttl bounds how long a slot survives a
// crashed holder and should exceed the longest session.
func NewRedisSlots(rdb redis.Scripter, prefix string, limit int, ttl time.Duration) *RedisSlots {
	return &RedisSlots{rdb: rdb, prefix: prefix, limit: limit, ttl: ttl}
}

func (s *RedisSlots) Acquire(ctx context.Context, key string) (bool, error) {
	return utils.AcquireSlot(ctx, s.rdb, s.prefix+key, s.limit, s.ttl)
}

func (s *RedisSlots) Release(ctx context.Context, key string) error {
	return utils.ReleaseSlot(ctx, s.rdb, s.prefix+key)
}

type MemorySlots struct {
	limit int

	mu   sync.Mutex
	held map[string]int
}

func NewMemorySlots(limit int) *MemorySlots {
	return &MemorySlots{limit: limit, held: make(map[string]int)}
}

func (s *MemorySlots) Acquire(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.held[key] >= s.limit {
		return false, nil
	}
	s.held[key]++
	return true, nil
}

func (s *MemorySlots) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.held[key] <= 1 {
		delete(s.held, key)
		return nil
	}
	s.held[key]--
	return nil
}
