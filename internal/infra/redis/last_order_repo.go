package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"digital-storefront/internal/domain"
	"digital-storefront/internal/domain/model"
	"digital-storefront/internal/domain/ports/repository"
	"digital-storefront/internal/infra/security"
)

var _ repository.LastOrderRepository = (*LastOrderRepo)(nil)

// LastOrderRepo keeps the confirmation snapshot of the latest order per session.
// Snapshots carry delivered secrets, so they are sealed bound to their key.
type LastOrderRepo struct {
	client RedisClient
	ttl    time.Duration
	sealer security.Sealer
}

// NewLastOrderRepo stores snapshots unsealed when sealer is nil.
func NewLastOrderRepo(client RedisClient, ttl time.Duration, sealer security.Sealer) *LastOrderRepo {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if sealer == nil {
		sealer = security.PlainSealer{}
	}
	return &LastOrderRepo{client: client, ttl: ttl, sealer: sealer}
}

func lastOrderKey(sessionID string) string { return fmt.Sprintf("last_order:%s", sessionID) }

func (r *LastOrderRepo) Save(ctx context.Context, sessionID string, order *model.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal last order: %w", err)
	}
	key := lastOrderKey(sessionID)
	sealed, err := r.sealer.Seal(string(data), key)
	if err != nil {
		return fmt.Errorf("seal last order: %w", err)
	}
	return r.client.Set(ctx, key, sealed, r.ttl)
}

func (r *LastOrderRepo) Get(ctx context.Context, sessionID string) (*model.Order, error) {
	key := lastOrderKey(sessionID)
	sealed, err := r.client.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get last order: %w", err)
	}
	data, err := r.sealer.Open(sealed, key)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	var o model.Order
	if err := json.Unmarshal([]byte(data), &o); err != nil {
		// unreadable snapshot reads as absent
		return nil, domain.ErrNotFound
	}
	return &o, nil
}
