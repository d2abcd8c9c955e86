package repository

import (
	"context"
	"time"

	"digital-storefront/internal/domain/model"
)

// -----------------------------
// Catalog
// -----------------------------

type ProductRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Product, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Product, error)
	Save(ctx context.Context, tx Tx, p *model.Product) error
}

// -----------------------------
// Orders
// -----------------------------

type OrderRepository interface {
	Save(ctx context.Context, tx Tx, o *model.Order) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Order, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Order, error)
	AppendReplacement(ctx context.Context, tx Tx, orderID string, e model.ReplacementEntry) error
	UpdateItemOutcome(ctx context.Context, tx Tx, orderID, productID string, outcome model.DeliveryOutcome, fulfilledAt time.Time) error
	// ListPendingOlderThan returns orders that still have a processing line and were purchased before the cutoff.
	ListPendingOlderThan(ctx context.Context, tx Tx, before time.Time, limit int) ([]*model.Order, error)
}

// -----------------------------
// Stored balance
// -----------------------------

type BalanceRepository interface {
	Get(ctx context.Context, tx Tx, userID string) (int64, error)
	// Debit subtracts amount only when the balance covers it; ok is false otherwise.
	Debit(ctx context.Context, tx Tx, userID string, amount int64) (ok bool, err error)
	Credit(ctx context.Context, tx Tx, userID string, amount int64) error
}

// -----------------------------
// Support tickets
// -----------------------------

type TicketRepository interface {
	Save(ctx context.Context, tx Tx, t *model.SupportTicket) error
	ListByOrder(ctx context.Context, tx Tx, orderID string) ([]*model.SupportTicket, error)
}
