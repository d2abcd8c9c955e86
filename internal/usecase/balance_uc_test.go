//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"digital-storefront/internal/domain"
	"digital-storefront/internal/domain/model"
	"digital-storefront/internal/usecase"
)

func TestBalanceUseCase(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewBalanceUseCase(NewMockBalanceRepo(), newTestLogger())
	customer := model.Actor{UserID: "u1"}
	support := model.Actor{UserID: "agent", Role: model.RoleSupport}

	t.Run("should report zero for a user without a record", func(t *testing.T) {
		v, err := uc.Get(ctx, customer)
		if err != nil || v != 0 {
			t.Errorf("expected 0, got %d err=%v", v, err)
		}
	})

	t.Run("should let only support credit", func(t *testing.T) {
		if _, err := uc.Credit(ctx, customer, "u1", 100); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		if _, err := uc.Credit(ctx, support, "u1", 0); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
		v, err := uc.Credit(ctx, support, "u1", 250)
		if err != nil || v != 250 {
			t.Errorf("expected 250, got %d err=%v", v, err)
		}
		if v, _ := uc.Get(ctx, customer); v != 250 {
			t.Errorf("expected the buyer to see 250, got %d", v)
		}
	})
}
