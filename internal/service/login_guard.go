package service

import (
	"context"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jobhunter-backend/auth-service/pkg/redis"
)

const lockoutKeyPrefix = "auth:lockout:"

// RedisLoginGuard tracks failed login attempts in Redis. Counters live under
// a shared prefix and expire after the lockout window, so a lockout lifts on
// its own without any cleanup job.
type RedisLoginGuard struct {
	client   *redis.Client
	maxFails int
	window   time.Duration
}

// NewRedisLoginGuard creates a new RedisLoginGuard
func NewRedisLoginGuard(client *redis.Client, maxFails int, window time.Duration) *RedisLoginGuard {
	if maxFails <= 0 {
		maxFails = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &RedisLoginGuard{
		client:   client,
		maxFails: maxFails,
		window:   window,
	}
}

// Allow reports whether another attempt is permitted for the key
func (g *RedisLoginGuard) Allow(ctx context.Context, key string) (bool, error) {
	val, err := g.client.Get(ctx, lockoutKeyPrefix+key).Result()
	if err == goredis.Nil {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	count, err := strconv.Atoi(val)
	if err != nil {
		return true, nil
	}
	return count < g.maxFails, nil
}

// RecordFailure counts a failed attempt for the key
func (g *RedisLoginGuard) RecordFailure(ctx context.Context, key string) error {
	redisKey := lockoutKeyPrefix + key
	count, err := g.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return err
	}
	// Start the window on the first failure
	if count == 1 {
		return g.client.Expire(ctx, redisKey, g.window).Err()
	}
	return nil
}

// Reset clears the failure count after a successful login
func (g *RedisLoginGuard) Reset(ctx context.Context, key string) error {
	return g.client.Del(ctx, lockoutKeyPrefix+key).Err()
}
