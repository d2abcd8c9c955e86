package payment

import (
	"context"
	"fmt"
	"sync"

	"digital-storefront/internal/domain"
	"digital-storefront/internal/domain/model"
	"digital-storefront/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway authorises every mobile-wallet charge in memory.
// Charging the same reference twice returns the first provider reference.
type NoopPaymentGateway struct {
	mu      sync.Mutex
	seq     int64
	charges map[string]*charge // reference -> charge
	byRef   map[string]*charge // provider ref -> charge
}

type charge struct {
	ref      string
	amount   int64
	refunded bool
}

func NewNoopPaymentGateway() *NoopPaymentGateway {
	return &NoopPaymentGateway{charges: make(map[string]*charge), byRef: make(map[string]*charge)}
}

func (g *NoopPaymentGateway) Name() string { return "noop" }

func (g *NoopPaymentGateway) Charge(ctx context.Context, method model.PaymentMethod, amount int64, reference string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if method != model.PaymentMobileWalletA && method != model.PaymentMobileWalletB {
		return "", fmt.Errorf("noop: %w: method %q is not a wallet", domain.ErrInvalidArgument, method)
	}
	if amount < 0 || reference == "" {
		return "", domain.ErrInvalidArgument
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.charges[reference]; ok {
		if c.amount != amount {
			return "", fmt.Errorf("noop: amount mismatch for %s: charged %d, got %d", reference, c.amount, amount)
		}
		return c.ref, nil
	}
	g.seq++
	c := &charge{ref: fmt.Sprintf("noop-%s-%d", method, g.seq), amount: amount}
	g.charges[reference] = c
	g.byRef[c.ref] = c
	return c.ref, nil
}

func (g *NoopPaymentGateway) Refund(ctx context.Context, providerRef string, amount int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.byRef[providerRef]
	if !ok {
		return fmt.Errorf("noop: refund %s: %w", providerRef, domain.ErrNotFound)
	}
	if c.amount != amount {
		return fmt.Errorf("noop: refund amount mismatch for %s: charged %d, got %d", providerRef, c.amount, amount)
	}
	c.refunded = true
	return nil
}

// Refunded reports whether the capture behind providerRef was reversed.
func (g *NoopPaymentGateway) Refunded(providerRef string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.byRef[providerRef]
	return ok && c.refunded
}
