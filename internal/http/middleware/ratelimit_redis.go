package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "enquiry:ratelimit:"

// RedisWindowLimiter allows at most Max requests per key in each fixed
// Window, counting in Redis so all replicas share the budget.
//
// Each decision is one MULTI/EXEC of INCR + PTTL. When the key has no TTL
// (the first request of a window, or a key left behind without one) a
// PEXPIRE follows, so the window starts at that request and the key expires
// with it. Only commands available since Redis 2.6 are used.
type RedisWindowLimiter struct {
	Max    int64
	Window time.Duration

	// incr returns the post-increment count and remaining window for key.
	incr func(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// NewRedisWindowLimiter builds a limiter over rdb. max <= 0 is coerced to 1
// and window <= 0 to one minute.
func NewRedisWindowLimiter(rdb redis.Cmdable, max int, window time.Duration) *RedisWindowLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisWindowLimiter{
		Max:    int64(max),
		Window: window,
		incr:   redisIncr(rdb),
	}
}

func redisIncr(rdb redis.Cmdable) func(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return func(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
		var (
			incr *redis.IntCmd
			pttl *redis.DurationCmd
		)
		_, err := rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
			incr = p.Incr(ctx, key)
			pttl = p.PTTL(ctx, key)
			return nil
		})
		if err != nil {
			return 0, 0, fmt.Errorf("redis rate window: %w", err)
		}

		// PTTL reports -1 for a key without expiry.
		ttl := pttl.Val()
		if ttl < 0 {
			if err := rdb.PExpire(ctx, key, window).Err(); err != nil {
				return 0, 0, fmt.Errorf("redis rate window expire: %w", err)
			}
			ttl = window
		}
		return incr.Val(), ttl, nil
	}
}

// Allow counts one request against key's current window.
func (l *RedisWindowLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	n, ttl, err := l.incr(ctx, redisKeyPrefix+key, l.Window)
	if err != nil {
		return false, 0, err
	}
	if n <= l.Max {
		return true, 0, nil
	}
	if ttl <= 0 {
		ttl = l.Window
	}
	return false, ttl, nil
}

// ConnectRedis returns a client for addr after a successful PING.
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return rdb, nil
}
