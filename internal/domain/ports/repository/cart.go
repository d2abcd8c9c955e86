package repository

import (
	"context"

	"digital-storefront/internal/domain/model"
)

// -----------------------------
// Session-scoped key/value records
// -----------------------------

// CartRepository persists a session's cart lines as one record.
// Load returns (nil, nil) when the session has no record and a
// *domain.MalformedPersistedCartError when the record cannot be decoded.
type CartRepository interface {
	Load(ctx context.Context, sessionID string) ([]model.CartLine, error)
	Save(ctx context.Context, sessionID string, lines []model.CartLine) error
	Delete(ctx context.Context, sessionID string) error
}

// LastOrderRepository keeps the most recent placed order per session so the
// confirmation view survives a reload after the cart has been cleared.
type LastOrderRepository interface {
	Save(ctx context.Context, sessionID string, order *model.Order) error
	Get(ctx context.Context, sessionID string) (*model.Order, error)
}
