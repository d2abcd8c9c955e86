//go:build !integration

package payment

import (
	"context"
	"errors"
	"testing"

	"digital-storefront/internal/domain"
	"digital-storefront/internal/domain/model"
)

func TestNoopPaymentGateway_Charge(t *testing.T) {
	ctx := context.Background()
	g := NewNoopPaymentGateway()

	t.Run("should return a stable reference for retries", func(t *testing.T) {
		a, err := g.Charge(ctx, model.PaymentMobileWalletA, 300, "ORD1")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		b, err := g.Charge(ctx, model.PaymentMobileWalletA, 300, "ORD1")
		if err != nil || a != b {
			t.Errorf("expected the same reference, got %q and %q (err=%v)", a, b, err)
		}
	})

	t.Run("should reject an amount change for a known reference", func(t *testing.T) {
		if _, err := g.Charge(ctx, model.PaymentMobileWalletA, 301, "ORD1"); err == nil {
			t.Error("expected an amount mismatch error")
		}
	})

	t.Run("should refuse stored balance", func(t *testing.T) {
		if _, err := g.Charge(ctx, model.PaymentStoredBalance, 10, "ORD2"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestNoopPaymentGateway_Refund(t *testing.T) {
	ctx := context.Background()
	g := NewNoopPaymentGateway()
	ref, err := g.Charge(ctx, model.PaymentMobileWalletB, 500, "ORD9")
	if err != nil {
		t.Fatalf("charge: %v", err)
	}

	t.Run("should reject a different amount", func(t *testing.T) {
		if err := g.Refund(ctx, ref, 499); err == nil {
			t.Error("expected an amount mismatch error")
		}
		if g.Refunded(ref) {
			t.Error("a rejected refund must not reverse the capture")
		}
	})

	t.Run("should reverse the capture once and tolerate repeats", func(t *testing.T) {
		if err := g.Refund(ctx, ref, 500); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if err := g.Refund(ctx, ref, 500); err != nil {
			t.Errorf("expected a repeated refund to succeed, got %v", err)
		}
		if !g.Refunded(ref) {
			t.Error("expected the capture to be refunded")
		}
	})

	t.Run("should report unknown references", func(t *testing.T) {
		if err := g.Refund(ctx, "noop-missing", 1); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
