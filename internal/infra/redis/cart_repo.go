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
)

var _ repository.CartRepository = (*CartRepo)(nil)

// CartRepo stores the whole line list of a session as one JSON record.
// Every write refreshes the TTL, so an active session never loses its cart.
type CartRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewCartRepo(client RedisClient, ttl time.Duration) *CartRepo {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &CartRepo{client: client, ttl: ttl}
}

func cartKey(sessionID string) string { return fmt.Sprintf("cart:%s", sessionID) }

func (r *CartRepo) Load(ctx context.Context, sessionID string) ([]model.CartLine, error) {
	data, err := r.client.Get(ctx, cartKey(sessionID))
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get cart: %w", err)
	}
	var lines []model.CartLine
	if err := json.Unmarshal([]byte(data), &lines); err != nil {
		return nil, &domain.MalformedPersistedCartError{SessionID: sessionID, Err: err}
	}
	return lines, nil
}

func (r *CartRepo) Save(ctx context.Context, sessionID string, lines []model.CartLine) error {
	if lines == nil {
		lines = []model.CartLine{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := r.client.Set(ctx, cartKey(sessionID), data, r.ttl); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

func (r *CartRepo) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, cartKey(sessionID)); err != nil {
		return fmt.Errorf("redis delete cart: %w", err)
	}
	return nil
}
