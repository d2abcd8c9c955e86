//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"digital-storefront/internal/domain"
	"digital-storefront/internal/domain/model"
	"digital-storefront/internal/domain/ports/adapter"
	"digital-storefront/internal/domain/ports/repository"
)

// -----------------------------
// Utilities: tiny helpers
// -----------------------------

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func product(id string, pt model.ProductType, dt model.DeliveryType, price int64) model.Product {
	return model.Product{
		ID:           id,
		Name:         "Product " + id,
		Category:     "software",
		Price:        price,
		ProductType:  pt,
		DeliveryType: dt,
		Stock:        10,
		DurationDays: 30,
	}
}

// =============================
// Repositories
// =============================

// ---- Mock CartRepository ----

type MockCartRepo struct {
	mu    sync.Mutex
	data  map[string][]model.CartLine
	Saves int

	LoadFunc   func(ctx context.Context, sessionID string) ([]model.CartLine, error)
	SaveFunc   func(ctx context.Context, sessionID string, lines []model.CartLine) error
	DeleteFunc func(ctx context.Context, sessionID string) error
}

func NewMockCartRepo() *MockCartRepo { return &MockCartRepo{data: map[string][]model.CartLine{}} }

var _ repository.CartRepository = (*MockCartRepo)(nil)

func (m *MockCartRepo) Load(ctx context.Context, sessionID string) ([]model.CartLine, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, sessionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	lines, ok := m.data[sessionID]
	if !ok {
		return nil, nil
	}
	out := make([]model.CartLine, len(lines))
	copy(out, lines)
	return out, nil
}

func (m *MockCartRepo) Save(ctx context.Context, sessionID string, lines []model.CartLine) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, sessionID, lines)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]model.CartLine, len(lines))
	copy(cp, lines)
	m.data[sessionID] = cp
	m.Saves++
	return nil
}

func (m *MockCartRepo) Delete(ctx context.Context, sessionID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, sessionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, sessionID)
	return nil
}

func (m *MockCartRepo) Stored(sessionID string) ([]model.CartLine, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.data[sessionID]
	return l, ok
}

// ---- Mock LastOrderRepository ----

type MockLastOrderRepo struct {
	mu   sync.Mutex
	data map[string]*model.Order

	SaveFunc func(ctx context.Context, sessionID string, o *model.Order) error
}

func NewMockLastOrderRepo() *MockLastOrderRepo {
	return &MockLastOrderRepo{data: map[string]*model.Order{}}
}

var _ repository.LastOrderRepository = (*MockLastOrderRepo)(nil)

func (m *MockLastOrderRepo) Save(ctx context.Context, sessionID string, o *model.Order) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, sessionID, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[sessionID] = o
	return nil
}

func (m *MockLastOrderRepo) Get(ctx context.Context, sessionID string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.data[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

// ---- Mock ProductRepository ----

type MockProductRepo struct {
	mu   sync.Mutex
	data map[string]*model.Product
}

func NewMockProductRepo(ps ...model.Product) *MockProductRepo {
	m := &MockProductRepo{data: map[string]*model.Product{}}
	for i := range ps {
		p := ps[i]
		m.data[p.ID] = &p
	}
	return m
}

var _ repository.ProductRepository = (*MockProductRepo)(nil)

func (m *MockProductRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockProductRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Product, 0, len(m.data))
	for _, p := range m.data {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockProductRepo) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.data[p.ID] = &cp
	return nil
}

// ---- Mock OrderRepository ----

type MockOrderRepo struct {
	mu   sync.Mutex
	data map[string]*model.Order

	SaveFunc func(ctx context.Context, tx repository.Tx, o *model.Order) error
}

func NewMockOrderRepo() *MockOrderRepo { return &MockOrderRepo{data: map[string]*model.Order{}} }

var _ repository.OrderRepository = (*MockOrderRepo)(nil)

func cloneOrder(o *model.Order) *model.Order {
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	cp.ReplacementHistory = append([]model.ReplacementEntry(nil), o.ReplacementHistory...)
	return &cp
}

func (m *MockOrderRepo) Save(ctx context.Context, tx repository.Tx, o *model.Order) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[o.ID]; exists {
		return domain.ErrAlreadyExists
	}
	m.data[o.ID] = cloneOrder(o)
	return nil
}

func (m *MockOrderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (m *MockOrderRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Order
	for _, o := range m.data {
		if o.UserID == userID {
			out = append(out, cloneOrder(o))
		}
	}
	return out, nil
}

func (m *MockOrderRepo) AppendReplacement(ctx context.Context, tx repository.Tx, orderID string, e model.ReplacementEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.data[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	o.ReplacementHistory = append(o.ReplacementHistory, e)
	return nil
}

func (m *MockOrderRepo) UpdateItemOutcome(ctx context.Context, tx repository.Tx, orderID, productID string, outcome model.DeliveryOutcome, fulfilledAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.data[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	for i := range o.Items {
		if o.Items[i].Product.ID == productID {
			at := fulfilledAt
			o.Items[i].Outcome = outcome
			o.Items[i].FulfilledAt = &at
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *MockOrderRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, before time.Time, limit int) ([]*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Order
	for _, o := range m.data {
		if o.Pending() && o.PurchasedAt.Before(before) && len(out) < limit {
			out = append(out, cloneOrder(o))
		}
	}
	return out, nil
}

// ---- Mock BalanceRepository ----

type MockBalanceRepo struct {
	mu   sync.Mutex
	data map[string]int64

	// BeforeDebit runs inside Debit, before the balance is checked.
	BeforeDebit func(userID string)
}

func NewMockBalanceRepo() *MockBalanceRepo { return &MockBalanceRepo{data: map[string]int64{}} }

var _ repository.BalanceRepository = (*MockBalanceRepo)(nil)

func (m *MockBalanceRepo) Get(ctx context.Context, tx repository.Tx, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[userID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return v, nil
}

func (m *MockBalanceRepo) Debit(ctx context.Context, tx repository.Tx, userID string, amount int64) (bool, error) {
	if m.BeforeDebit != nil {
		m.BeforeDebit(userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[userID] < amount {
		return false, nil
	}
	m.data[userID] -= amount
	return true, nil
}

func (m *MockBalanceRepo) Credit(ctx context.Context, tx repository.Tx, userID string, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[userID] += amount
	return nil
}

// ---- Mock TicketRepository ----

type MockTicketRepo struct {
	mu    sync.Mutex
	Saved []*model.SupportTicket
}

var _ repository.TicketRepository = (*MockTicketRepo)(nil)

func (m *MockTicketRepo) Save(ctx context.Context, tx repository.Tx, t *model.SupportTicket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saved = append(m.Saved, t)
	return nil
}

func (m *MockTicketRepo) ListByOrder(ctx context.Context, tx repository.Tx, orderID string) ([]*model.SupportTicket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.SupportTicket
	for _, t := range m.Saved {
		if t.OrderID == orderID {
			out = append(out, t)
		}
	}
	return out, nil
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with NoTX unless WithTxFunc is set.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// =============================
// Adapters
// =============================

// ---- Mock PaymentGateway ----

type MockPaymentGateway struct {
	mu      sync.Mutex
	Charges []int64
	Refunds []string

	ChargeFunc func(ctx context.Context, method model.PaymentMethod, amount int64, reference string) (string, error)
	RefundFunc func(ctx context.Context, providerRef string, amount int64) error
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func (m *MockPaymentGateway) Name() string { return "mock" }

func (m *MockPaymentGateway) Charge(ctx context.Context, method model.PaymentMethod, amount int64, reference string) (string, error) {
	if m.ChargeFunc != nil {
		return m.ChargeFunc(ctx, method, amount, reference)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Charges = append(m.Charges, amount)
	return "ref-" + reference, nil
}

func (m *MockPaymentGateway) Refund(ctx context.Context, providerRef string, amount int64) error {
	if m.RefundFunc != nil {
		return m.RefundFunc(ctx, providerRef, amount)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Refunds = append(m.Refunds, providerRef)
	return nil
}

// ---- Mock EventPublisher ----

type MockEvents struct {
	mu     sync.Mutex
	Events []model.Event

	PublishErr error
}

var _ adapter.EventPublisher = (*MockEvents)(nil)

func (m *MockEvents) Publish(ctx context.Context, e model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, e)
	return m.PublishErr
}

func (m *MockEvents) Types() []model.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.EventType, len(m.Events))
	for i, e := range m.Events {
		out[i] = e.Type
	}
	return out
}

// ---- Mock SupportNotifier ----

type MockNotifier struct {
	mu   sync.Mutex
	Sent []string
}

var _ adapter.SupportNotifier = (*MockNotifier)(nil)

func (m *MockNotifier) Notify(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, text)
	return nil
}

func (m *MockNotifier) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// ---- In-memory Locker ----

type MockLocker struct {
	mu   sync.Mutex
	held map[string]string
}

func NewMockLocker() *MockLocker { return &MockLocker{held: map[string]string{}} }

var _ adapter.Locker = (*MockLocker)(nil)

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return "", domain.ErrLocked
	}
	tok := uuid.NewString()
	l.held[key] = tok
	return tok, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
		return nil
	}
	return domain.ErrLocked
}

// Hold takes key on behalf of another instance.
func (l *MockLocker) Hold(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held[key] = "other"
}
