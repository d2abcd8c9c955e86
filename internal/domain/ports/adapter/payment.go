package adapter

import (
	"context"

	"digital-storefront/internal/domain/model"
)

// PaymentGateway is the hex port for external wallet providers.
// Stored-balance payments never reach a gateway.
type PaymentGateway interface {
	Name() string
	// Charge captures amount (minor units) and returns the provider reference.
	Charge(ctx context.Context, method model.PaymentMethod, amount int64, reference string) (providerRef string, err error)
	// Refund reverses a capture made by Charge. Refunding the same capture twice is a no-op.
	Refund(ctx context.Context, providerRef string, amount int64) error
}
