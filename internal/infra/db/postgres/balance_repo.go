package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"digital-storefront/internal/domain"
	"digital-storefront/internal/domain/ports/repository"
)

var _ repository.BalanceRepository = (*BalanceRepo)(nil)

type BalanceRepo struct {
	pool *pgxpool.Pool
}

func NewBalanceRepo(pool *pgxpool.Pool) *BalanceRepo {
	return &BalanceRepo{pool: pool}
}

func (r *BalanceRepo) Get(ctx context.Context, tx repository.Tx, userID string) (int64, error) {
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var amount int64
	err = exec.QueryRow(ctx, `SELECT amount FROM balances WHERE user_id = $1;`, userID).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return amount, nil
}

// Debit is a single conditional update, so two concurrent checkouts can never
// both spend the same funds.
func (r *BalanceRepo) Debit(ctx context.Context, tx repository.Tx, userID string, amount int64) (bool, error) {
	if amount < 0 {
		return false, domain.ErrInvalidArgument
	}
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return false, err
	}
	tag, err := exec.Exec(ctx, `
UPDATE balances
   SET amount = amount - $2, updated_at = now()
 WHERE user_id = $1 AND amount >= $2;`, userID, amount)
	if err != nil {
		return false, fmt.Errorf("debit balance: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *BalanceRepo) Credit(ctx context.Context, tx repository.Tx, userID string, amount int64) error {
	if amount < 0 {
		return domain.ErrInvalidArgument
	}
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = exec.Exec(ctx, `
INSERT INTO balances (user_id, amount) VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE
  SET amount = balances.amount + EXCLUDED.amount, updated_at = now();`, userID, amount)
	if err != nil {
		return fmt.Errorf("credit balance: %w", err)
	}
	return nil
}
