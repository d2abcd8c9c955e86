package adapter

import (
	"context"
	"time"

	"digital-storefront/internal/domain/model"
)

// EventPublisher forwards analytics/audit events. Implementations must not block
// on slow sinks for longer than the caller's context allows.
type EventPublisher interface {
	Publish(ctx context.Context, e model.Event) error
}

// SupportNotifier alerts the support staff about orders needing a human.
type SupportNotifier interface {
	Notify(ctx context.Context, text string) error
}

// Locker is a best-effort distributed mutex.
// TryLock returns domain.ErrLocked when the key is already held.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// RateLimiter reports whether another call is allowed for key inside window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
