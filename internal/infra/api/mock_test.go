//go:build !integration

package api

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"digital-storefront/internal/domain"
	"digital-storefront/internal/domain/model"
	"digital-storefront/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// ---- catalog ----

type mockCatalog struct {
	products map[string]*model.Product
	upserted []*model.Product
}

func (m *mockCatalog) List(ctx context.Context) ([]*model.Product, error) {
	out := make([]*model.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockCatalog) Get(ctx context.Context, id string) (*model.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (m *mockCatalog) Upsert(ctx context.Context, p *model.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	m.upserted = append(m.upserted, p)
	return nil
}

// ---- cart ----

type mockCart struct {
	sessions   []string
	AddFunc    func(ctx context.Context, sessionID, productID string) (usecase.CartSummary, error)
	UpdateFunc func(ctx context.Context, sessionID, productID string, quantity int) (usecase.CartSummary, error)
	cleared    int
}

func (m *mockCart) Get(ctx context.Context, sessionID string) (usecase.CartSummary, error) {
	m.sessions = append(m.sessions, sessionID)
	return usecase.CartSummary{Lines: []model.CartLine{}}, nil
}

func (m *mockCart) AddProduct(ctx context.Context, sessionID, productID string) (usecase.CartSummary, error) {
	m.sessions = append(m.sessions, sessionID)
	return m.AddFunc(ctx, sessionID, productID)
}

func (m *mockCart) Remove(ctx context.Context, sessionID, productID string) (usecase.CartSummary, error) {
	return usecase.CartSummary{Lines: []model.CartLine{}}, nil
}

func (m *mockCart) UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (usecase.CartSummary, error) {
	return m.UpdateFunc(ctx, sessionID, productID, quantity)
}

func (m *mockCart) Clear(ctx context.Context, sessionID string) error {
	m.cleared++
	return nil
}

// ---- checkout ----

type mockCheckout struct {
	SubmitFunc func(ctx context.Context, actor model.Actor, in usecase.CheckoutInput) (*usecase.CheckoutResult, error)
	last       *model.Order
}

func (m *mockCheckout) Submit(ctx context.Context, actor model.Actor, in usecase.CheckoutInput) (*usecase.CheckoutResult, error) {
	return m.SubmitFunc(ctx, actor, in)
}

func (m *mockCheckout) LastOrder(ctx context.Context, sessionID string) (*model.Order, error) {
	if m.last == nil {
		return nil, domain.ErrNotFound
	}
	return m.last, nil
}

// ---- orders ----

type mockOrders struct {
	usecase.OrderUseCase
	orders map[string]*model.Order
}

func (m *mockOrders) Get(ctx context.Context, actor model.Actor, orderID string) (*model.OrderView, error) {
	o, ok := m.orders[orderID]
	if !ok || (o.UserID != actor.UserID && !actor.IsSupport()) {
		return nil, domain.ErrNotFound
	}
	v := o.ViewAt(time.Now())
	return &v, nil
}

func (m *mockOrders) ListByUser(ctx context.Context, actor model.Actor) ([]model.OrderView, error) {
	views := []model.OrderView{}
	for _, o := range m.orders {
		if o.UserID == actor.UserID {
			views = append(views, o.ViewAt(time.Now()))
		}
	}
	return views, nil
}

func (m *mockOrders) AppendReplacement(ctx context.Context, actor model.Actor, orderID, reason string) (*model.OrderView, error) {
	o, ok := m.orders[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if _, err := o.AppendReplacement(reason, time.Now()); err != nil {
		return nil, err
	}
	v := o.ViewAt(time.Now())
	return &v, nil
}

func (m *mockOrders) PendingOlderThan(ctx context.Context, age time.Duration, limit int) ([]*model.Order, error) {
	return nil, nil
}

// ---- tickets ----

type mockTickets struct {
	opened []*model.SupportTicket
}

func (m *mockTickets) Open(ctx context.Context, actor model.Actor, orderID, subject, message string) (*model.SupportTicket, error) {
	t, err := model.NewSupportTicket(orderID, actor.UserID, subject, message, time.Now())
	if err != nil {
		return nil, err
	}
	m.opened = append(m.opened, t)
	return t, nil
}

func (m *mockTickets) ListByOrder(ctx context.Context, actor model.Actor, orderID string) ([]*model.SupportTicket, error) {
	return m.opened, nil
}

// ---- balances ----

type mockBalances struct{ amount int64 }

func (m *mockBalances) Get(ctx context.Context, actor model.Actor) (int64, error) { return m.amount, nil }

func (m *mockBalances) Credit(ctx context.Context, actor model.Actor, userID string, amount int64) (int64, error) {
	m.amount += amount
	return m.amount, nil
}

// ---- rate limiter ----

type mockLimiter struct {
	calls int
	limit int
	err   error
}

func (m *mockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	m.calls++
	if m.limit > 0 && m.calls > m.limit {
		return false, nil
	}
	return true, nil
}
