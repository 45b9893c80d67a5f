// Copyright (c) 2026 CBCoder. All rights reserved.

package auth

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lucleber13/webapp/internal/platform/constants"
)

// RedisLoginThrottle counts consecutive failed logins per email in Redis.
//
// Counters are the only server-side login state; issued tokens stay fully
// stateless. A counter expires on its own after [LoginLockoutTTL], so a
// locked account unlocks without operator action.
type RedisLoginThrottle struct {
	client *redis.Client
}

// NewLoginThrottle creates a Redis-backed failed-login counter.
func NewLoginThrottle(client *redis.Client) *RedisLoginThrottle {
	return &RedisLoginThrottle{client: client}
}

func throttleKey(email string) string {
	return constants.RedisPrefixLoginAttempts + email
}

// Failures returns the current consecutive-failure count for the email.
// A missing key counts as zero.
func (throttle *RedisLoginThrottle) Failures(ctx context.Context, email string) (int, error) {
	count, err := throttle.client.Get(ctx, throttleKey(email)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis_login_throttle_get_failed: %w", err)
	}
	return count, nil
}

// RecordFailure increments the counter and refreshes its expiry window.
func (throttle *RedisLoginThrottle) RecordFailure(ctx context.Context, email string) error {
	key := throttleKey(email)

	pipe := throttle.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, LoginLockoutTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis_login_throttle_incr_failed: %w", err)
	}

	return nil
}

// Reset clears the counter after a successful login.
func (throttle *RedisLoginThrottle) Reset(ctx context.Context, email string) error {
	if err := throttle.client.Del(ctx, throttleKey(email)).Err(); err != nil {
		return fmt.Errorf("redis_login_throttle_reset_failed: %w", err)
	}
	return nil
}
