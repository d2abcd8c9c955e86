package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"digital-storefront/internal/domain/model"
	"digital-storefront/internal/domain/ports/repository"
	"digital-storefront/internal/infra/metrics"
	red "digital-storefront/internal/infra/redis"
)

var _ repository.ProductRepository = (*productRepoCacheDecorator)(nil)

const productListKey = "products:all"

// productRepoCacheDecorator serves catalog reads from Redis. Concurrent misses
// for the same key collapse into one database read.
type productRepoCacheDecorator struct {
	inner repository.ProductRepository
	cache red.RedisClient
	ttl   time.Duration
	group singleflight.Group
	log   *zerolog.Logger
}

func NewProductRepoCacheDecorator(inner repository.ProductRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.ProductRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &productRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: logger}
}

func productKey(id string) string { return fmt.Sprintf("product:%s", id) }

func (d *productRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	// reads inside a transaction must see the transaction's view
	if tx != nil {
		return d.inner.FindByID(ctx, tx, id)
	}
	key := productKey(id)
	if val, err := d.cache.Get(ctx, key); err == nil {
		var p model.Product
		if json.Unmarshal([]byte(val), &p) == nil {
			metrics.IncCacheRequest("product", "hit")
			return &p, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		d.log.Warn().Err(err).Str("key", key).Msg("product cache read failed")
	}

	metrics.IncCacheRequest("product", "miss")
	v, err, _ := d.group.Do(key, func() (interface{}, error) {
		p, err := d.inner.FindByID(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if bytes, err := json.Marshal(p); err == nil {
			if err := d.cache.Set(ctx, key, bytes, d.ttl); err != nil {
				d.log.Warn().Err(err).Str("key", key).Msg("product cache write failed")
			}
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	cp := *v.(*model.Product)
	return &cp, nil
}

func (d *productRepoCacheDecorator) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	if tx != nil {
		return d.inner.ListAll(ctx, tx)
	}
	if val, err := d.cache.Get(ctx, productListKey); err == nil {
		var ps []*model.Product
		if json.Unmarshal([]byte(val), &ps) == nil {
			metrics.IncCacheRequest("product_list", "hit")
			return ps, nil
		}
	}

	metrics.IncCacheRequest("product_list", "miss")
	v, err, _ := d.group.Do(productListKey, func() (interface{}, error) {
		ps, err := d.inner.ListAll(ctx, tx)
		if err != nil {
			return nil, err
		}
		if len(ps) > 0 {
			bytes, _ := json.Marshal(ps)
			_ = d.cache.Set(ctx, productListKey, bytes, d.ttl)
		}
		return ps, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*model.Product), nil
}

// Save writes through and invalidates both the item and the list.
func (d *productRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	if err := d.inner.Save(ctx, tx, p); err != nil {
		return err
	}
	if err := d.cache.Del(ctx, productKey(p.ID), productListKey); err != nil {
		d.log.Warn().Err(err).Str("product_id", p.ID).Msg("product cache invalidation failed")
	}
	return nil
}
