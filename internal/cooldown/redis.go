package cooldown

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "booking:cooldown:"

// Redis shares cooldowns between server instances. Values are unix
// milliseconds and expire with the window.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func (r *Redis) Last(ctx context.Context, key string) (time.Time, bool, error) {
	v, err := r.rdb.Get(ctx, redisPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		// unreadable value, treat as no cooldown
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms), true, nil
}

func (r *Redis) Record(ctx context.Context, key string, at time.Time) error {
	return r.rdb.Set(ctx, redisPrefix+key, strconv.FormatInt(at.UnixMilli(), 10), r.ttl).Err()
}
