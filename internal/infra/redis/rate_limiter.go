package redis

import (
	"context"
	"fmt"
	"time"

	"digital-storefront/internal/domain/ports/adapter"
)

var _ adapter.RateLimiter = (*RateLimiter)(nil)

// RateLimiter is a fixed-window counter: INCR, with the window set on the first hit.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, window); err != nil {
			// a counter without TTL would lock the key out forever
			_ = r.client.Del(ctx, key)
			return false, err
		}
	}
	return count <= int64(limit), nil
}

func SessionActionKey(sessionID, action string) string {
	return fmt.Sprintf("rate_limit:%s:%s", sessionID, action)
}
