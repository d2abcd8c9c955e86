//go:build !integration

package postgres

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"digital-storefront/internal/domain/model"
	"digital-storefront/internal/domain/ports/repository"
	red "digital-storefront/internal/infra/redis"
)

// mockInnerProductRepo stands in for the database repository behind the cache decorator.
type mockInnerProductRepo struct {
	mu           sync.Mutex
	findCalls    int
	listCalls    int
	SaveFunc     func(ctx context.Context, tx repository.Tx, p *model.Product) error
	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Product, error)
	ListAllFunc  func(ctx context.Context, tx repository.Tx) ([]*model.Product, error)
}

func (m *mockInnerProductRepo) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	if m.SaveFunc == nil {
		return nil
	}
	return m.SaveFunc(ctx, tx, p)
}

func (m *mockInnerProductRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	m.mu.Lock()
	m.findCalls++
	m.mu.Unlock()
	return m.FindByIDFunc(ctx, tx, id)
}

func (m *mockInnerProductRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	m.mu.Lock()
	m.listCalls++
	m.mu.Unlock()
	return m.ListAllFunc(ctx, tx)
}

func (m *mockInnerProductRepo) calls() (find, list int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findCalls, m.listCalls
}

// mockRedisClient is an in-memory red.RedisClient without expiry.
type mockRedisClient struct {
	mu     sync.Mutex
	data   map[string]string
	GetErr error
}

var _ red.RedisClient = (*mockRedisClient)(nil)

func newMockRedisClient() *mockRedisClient {
	return &mockRedisClient{data: map[string]string{}}
}

func (m *mockRedisClient) Ping(ctx context.Context) error { return nil }
func (m *mockRedisClient) Close() error                   { return nil }

func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	return nil
}

func (m *mockRedisClient) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	_, held := m.data[key]
	m.mu.Unlock()
	if held {
		return false, nil
	}
	return true, m.Set(ctx, key, value, ttl)
}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return "", m.GetErr
	}
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) { return 0, nil }

func (m *mockRedisClient) Expire(ctx context.Context, key string, _ time.Duration) error { return nil }

func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *mockRedisClient) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}
