package ratelimit

import (
	"context"
	"time"

	"portfolio-api/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// Redis is a fixed-window limiter shared by every API instance.
type Redis struct {
	rdb    redis.Scripter
	prefix string
	limit  int
	window time.Duration
	clock  func() time.Time
}

func NewRedis(rdb redis.Scripter, prefix string, limit int, win time.Duration) *Redis {
	return &Redis{rdb: rdb, prefix: prefix, limit: limit, window: win, clock: time.Now}
}

func (r *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	count, ttl, err := utils.HitFixedWindow(ctx, r.rdb, r.prefix+key, r.window)
	if err != nil {
		return Decision{}, err
	}
	return decide(r.limit, count, r.clock().Add(ttl)), nil
}
