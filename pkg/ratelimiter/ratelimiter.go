package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter wraps the Redis-backed limits. A nil client turns every check into a no-op.
type Limiter struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Limiter {
	return &Limiter{rdb: rdb}
}

// CheckAndSetCooldown reports whether the action is allowed and, if it is, starts a
// cooldown of length limit for subject.
func (l *Limiter) CheckAndSetCooldown(ctx context.Context, subject, action string, limit time.Duration) (bool, error) {
	if l == nil || l.rdb == nil {
		return true, nil
	}

	wasSet, err := l.rdb.SetNX(ctx, cooldownKey(subject, action), "locked", limit).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}

	return wasSet, nil
}

func (l *Limiter) CooldownTTL(ctx context.Context, subject, action string) (time.Duration, error) {
	if l == nil || l.rdb == nil {
		return 0, nil
	}
	return l.rdb.TTL(ctx, cooldownKey(subject, action)).Result()
}

func (l *Limiter) ClearCooldown(ctx context.Context, subject, action string) error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Del(ctx, cooldownKey(subject, action)).Err()
}

// Exceeded reports whether subject already used max hits of action in the current window.
func (l *Limiter) Exceeded(ctx context.Context, subject, action string, max int64) (bool, error) {
	if l == nil || l.rdb == nil || max <= 0 {
		return false, nil
	}

	count, err := l.rdb.Get(ctx, windowKey(subject, action)).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read rate limit counter: %w", err)
	}
	return count >= max, nil
}

// Hit counts one use of action. The window starts with the first hit.
func (l *Limiter) Hit(ctx context.Context, subject, action string, window time.Duration) (int64, error) {
	if l == nil || l.rdb == nil {
		return 0, nil
	}

	key := windowKey(subject, action)
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}
	if count == 1 {
		l.rdb.Expire(ctx, key, window)
	}
	return count, nil
}

func (l *Limiter) Reset(ctx context.Context, subject, action string) error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Del(ctx, windowKey(subject, action)).Err()
}

func cooldownKey(subject, action string) string {
	return fmt.Sprintf("rate_limit:user:%s:%s", subject, action)
}

func windowKey(subject, action string) string {
	return fmt.Sprintf("rate_limit:window:%s:%s", action, subject)
}
