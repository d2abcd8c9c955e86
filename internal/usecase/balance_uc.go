package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"digital-storefront/internal/domain"
	"digital-storefront/internal/domain/model"
	"digital-storefront/internal/domain/ports/repository"
)

var _ BalanceUseCase = (*balanceUC)(nil)

type BalanceUseCase interface {
	// Get returns the actor's stored balance; a user without a record has 0.
	Get(ctx context.Context, actor model.Actor) (int64, error)
	// Credit tops up userID. Support only.
	Credit(ctx context.Context, actor model.Actor, userID string, amount int64) (int64, error)
}

type balanceUC struct {
	balances repository.BalanceRepository
	log      *zerolog.Logger
}

func NewBalanceUseCase(balances repository.BalanceRepository, logger *zerolog.Logger) *balanceUC {
	return &balanceUC{balances: balances, log: logger}
}

func (u *balanceUC) get(ctx context.Context, userID string) (int64, error) {
	v, err := u.balances.Get(ctx, repository.NoTX, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	return v, err
}

func (u *balanceUC) Get(ctx context.Context, actor model.Actor) (int64, error) {
	if actor.UserID == "" {
		return 0, domain.ErrInvalidArgument
	}
	return u.get(ctx, actor.UserID)
}

func (u *balanceUC) Credit(ctx context.Context, actor model.Actor, userID string, amount int64) (int64, error) {
	if !actor.IsSupport() {
		return 0, domain.ErrForbidden
	}
	if userID == "" || amount <= 0 {
		return 0, domain.ErrInvalidArgument
	}
	if err := u.balances.Credit(ctx, repository.NoTX, userID, amount); err != nil {
		return 0, err
	}
	u.log.Info().Str("user_id", userID).Int64("amount", amount).Str("actor", actor.UserID).Msg("balance credited")
	return u.get(ctx, userID)
}
