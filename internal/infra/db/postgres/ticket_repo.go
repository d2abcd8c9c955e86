package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"digital-storefront/internal/domain"
	"digital-storefront/internal/domain/model"
	"digital-storefront/internal/domain/ports/repository"
)

var _ repository.TicketRepository = (*TicketRepo)(nil)

type TicketRepo struct {
	pool *pgxpool.Pool
}

func NewTicketRepo(pool *pgxpool.Pool) *TicketRepo {
	return &TicketRepo{pool: pool}
}

func (r *TicketRepo) Save(ctx context.Context, tx repository.Tx, t *model.SupportTicket) error {
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = exec.Exec(ctx, `
INSERT INTO support_tickets (id, order_id, user_id, subject, message, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status;`,
		t.ID, t.OrderID, t.UserID, t.Subject, t.Message, string(t.Status), t.CreatedAt)
	if err != nil {
		return fmt.Errorf("save ticket: %w", err)
	}
	return nil
}

func (r *TicketRepo) ListByOrder(ctx context.Context, tx repository.Tx, orderID string) ([]*model.SupportTicket, error) {
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := exec.Query(ctx, `
SELECT id, order_id, user_id, subject, message, status, created_at
  FROM support_tickets WHERE order_id = $1 ORDER BY created_at, id;`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()
	var out []*model.SupportTicket
	for rows.Next() {
		var t model.SupportTicket
		if err := rows.Scan(&t.ID, &t.OrderID, &t.UserID, &t.Subject, &t.Message, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
