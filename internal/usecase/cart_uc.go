package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"digital-storefront/internal/domain"
	"digital-storefront/internal/domain/model"
	"digital-storefront/internal/domain/ports/adapter"
	"digital-storefront/internal/domain/ports/repository"
)

// CartStore is the cart of one session. Every mutation is written through to
// storage before it becomes visible; a failed write leaves the in-memory cart unchanged.
type CartStore struct {
	sessionID string
	storage   repository.CartRepository
	events    adapter.EventPublisher
	log       *zerolog.Logger

	mu   sync.Mutex
	cart *model.Cart
}

// OpenCartStore rehydrates the session cart. A record that cannot be decoded is
// logged and treated as an empty cart; any other storage failure is returned.
func OpenCartStore(ctx context.Context, sessionID string, storage repository.CartRepository, events adapter.EventPublisher, logger *zerolog.Logger) (*CartStore, error) {
	if sessionID == "" {
		return nil, domain.ErrInvalidArgument
	}
	lines, err := storage.Load(ctx, sessionID)
	if err != nil {
		var malformed *domain.MalformedPersistedCartError
		if !errors.As(err, &malformed) {
			return nil, err
		}
		logger.Warn().Err(err).Str("session_id", sessionID).Msg("discarding malformed cart record")
		lines = nil
	}
	return &CartStore{
		sessionID: sessionID,
		storage:   storage,
		events:    events,
		log:       logger,
		cart:      model.NewCart(lines),
	}, nil
}

func (s *CartStore) SessionID() string { return s.sessionID }

// mutate applies fn to a copy of the cart, persists the copy and then swaps it in.
// fn reports whether anything changed; unchanged carts are not rewritten.
func (s *CartStore) mutate(ctx context.Context, fn func(c *model.Cart) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := model.NewCart(s.cart.Lines())
	if !fn(next) {
		return false, nil
	}
	var err error
	if next.IsEmpty() {
		err = s.storage.Delete(ctx, s.sessionID)
	} else {
		err = s.storage.Save(ctx, s.sessionID, next.Lines())
	}
	if err != nil {
		return false, err
	}
	s.cart = next
	return true, nil
}

func (s *CartStore) publish(ctx context.Context, e model.Event) {
	if s.events == nil {
		return
	}
	e.SessionID = s.sessionID
	e.At = time.Now()
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warn().Err(err).Str("event", string(e.Type)).Msg("failed to publish cart event")
	}
}

// Add increments the line for p or appends it with quantity 1.
func (s *CartStore) Add(ctx context.Context, p model.Product) (int, error) {
	var qty int
	if _, err := s.mutate(ctx, func(c *model.Cart) bool {
		qty = c.Add(p)
		return true
	}); err != nil {
		return 0, err
	}
	s.publish(ctx, model.Event{Type: model.EventCartItemAdded, ProductID: p.ID, Quantity: qty, Amount: p.Price})
	return qty, nil
}

// Remove deletes the line for productID. Removing an absent line is not an error.
func (s *CartStore) Remove(ctx context.Context, productID string) error {
	changed, err := s.mutate(ctx, func(c *model.Cart) bool { return c.Remove(productID) })
	if err != nil {
		return err
	}
	if changed {
		s.publish(ctx, model.Event{Type: model.EventCartItemRemoved, ProductID: productID})
	}
	return nil
}

// UpdateQuantity sets the quantity of productID; a quantity below 1 behaves exactly like Remove.
// Quantities above model.MaxLineQuantity are rejected.
func (s *CartStore) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return s.Remove(ctx, productID)
	}
	if quantity > model.MaxLineQuantity {
		return domain.ErrInvalidArgument
	}
	changed, err := s.mutate(ctx, func(c *model.Cart) bool { return c.SetQuantity(productID, quantity) })
	if err != nil {
		return err
	}
	if changed {
		s.publish(ctx, model.Event{Type: model.EventCartQuantityUpdated, ProductID: productID, Quantity: quantity})
	}
	return nil
}

func (s *CartStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storage.Delete(ctx, s.sessionID); err != nil {
		return err
	}
	wasEmpty := s.cart.IsEmpty()
	s.cart = model.NewCart(nil)
	if !wasEmpty {
		s.publish(ctx, model.Event{Type: model.EventCartCleared})
	}
	return nil
}

// Consume takes the submitted quantities out of the cart. Lines added or raised
// after the snapshot was taken keep the difference.
func (s *CartStore) Consume(ctx context.Context, submitted []model.CartLine) error {
	var removed []string
	changed, err := s.mutate(ctx, func(c *model.Cart) bool {
		removed = removed[:0]
		changed := false
		for _, l := range submitted {
			cur, ok := c.Line(l.Product.ID)
			if !ok {
				continue
			}
			if c.SetQuantity(l.Product.ID, cur.Quantity-l.Quantity) {
				changed = true
			}
			if _, ok := c.Line(l.Product.ID); !ok {
				removed = append(removed, l.Product.ID)
			}
		}
		return changed
	})
	if err != nil || !changed {
		return err
	}
	if s.Count() == 0 {
		s.publish(ctx, model.Event{Type: model.EventCartCleared})
		return nil
	}
	for _, id := range removed {
		s.publish(ctx, model.Event{Type: model.EventCartItemRemoved, ProductID: id})
	}
	return nil
}

func (s *CartStore) Lines() []model.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Lines()
}

func (s *CartStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Count()
}

func (s *CartStore) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Total()
}

func (s *CartStore) Savings() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Savings()
}

// CartSummary is the read shape of a cart.
type CartSummary struct {
	Lines   []model.CartLine `json:"lines"`
	Count   int              `json:"count"`
	Total   int64            `json:"total"`
	Savings int64            `json:"savings"`
}

func (s *CartStore) Summary() CartSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CartSummary{
		Lines:   s.cart.Lines(),
		Count:   s.cart.Count(),
		Total:   s.cart.Total(),
		Savings: s.cart.Savings(),
	}
}

// -----------------------------
// Session-facing facade
// -----------------------------

// Compile-time check
var _ CartUseCase = (*cartUC)(nil)

type CartUseCase interface {
	Get(ctx context.Context, sessionID string) (CartSummary, error)
	// AddProduct looks the product up in the catalog and snapshots it into the cart.
	AddProduct(ctx context.Context, sessionID, productID string) (CartSummary, error)
	Remove(ctx context.Context, sessionID, productID string) (CartSummary, error)
	UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (CartSummary, error)
	Clear(ctx context.Context, sessionID string) error
}

type cartUC struct {
	storage  repository.CartRepository
	products repository.ProductRepository
	events   adapter.EventPublisher
	sessions *SessionLocks
	log      *zerolog.Logger
}

// NewCartUseCase builds the session facade. sessions is shared with the checkout
// orchestrator; nil gets a private set.
func NewCartUseCase(storage repository.CartRepository, products repository.ProductRepository, events adapter.EventPublisher, sessions *SessionLocks, logger *zerolog.Logger) *cartUC {
	if sessions == nil {
		sessions = NewSessionLocks()
	}
	return &cartUC{storage: storage, products: products, events: events, sessions: sessions, log: logger}
}

func (u *cartUC) open(ctx context.Context, sessionID string) (*CartStore, error) {
	return OpenCartStore(ctx, sessionID, u.storage, u.events, u.log)
}

func (u *cartUC) Get(ctx context.Context, sessionID string) (CartSummary, error) {
	s, err := u.open(ctx, sessionID)
	if err != nil {
		return CartSummary{}, err
	}
	return s.Summary(), nil
}

func (u *cartUC) AddProduct(ctx context.Context, sessionID, productID string) (CartSummary, error) {
	if productID == "" {
		return CartSummary{}, domain.ErrInvalidArgument
	}
	p, err := u.products.FindByID(ctx, repository.NoTX, productID)
	if err != nil {
		return CartSummary{}, err
	}
	if err := p.Validate(); err != nil {
		return CartSummary{}, err
	}
	if !p.InStock() {
		return CartSummary{}, domain.ErrOutOfStock
	}
	defer u.sessions.Lock(sessionID)()
	s, err := u.open(ctx, sessionID)
	if err != nil {
		return CartSummary{}, err
	}
	if _, err := s.Add(ctx, *p); err != nil {
		return CartSummary{}, err
	}
	return s.Summary(), nil
}

func (u *cartUC) Remove(ctx context.Context, sessionID, productID string) (CartSummary, error) {
	defer u.sessions.Lock(sessionID)()
	s, err := u.open(ctx, sessionID)
	if err != nil {
		return CartSummary{}, err
	}
	if err := s.Remove(ctx, productID); err != nil {
		return CartSummary{}, err
	}
	return s.Summary(), nil
}

func (u *cartUC) UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (CartSummary, error) {
	defer u.sessions.Lock(sessionID)()
	s, err := u.open(ctx, sessionID)
	if err != nil {
		return CartSummary{}, err
	}
	if err := s.UpdateQuantity(ctx, productID, quantity); err != nil {
		return CartSummary{}, err
	}
	return s.Summary(), nil
}

func (u *cartUC) Clear(ctx context.Context, sessionID string) error {
	defer u.sessions.Lock(sessionID)()
	s, err := u.open(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.Clear(ctx)
}
