package model

import (
	"strings"

	"digital-storefront/internal/domain"
)

// ProductType is the kind of digital good being sold.
type ProductType string

const (
	ProductTypeAccount      ProductType = "account"
	ProductTypeSubscription ProductType = "subscription"
	ProductTypeLicenseKey   ProductType = "license-key"
	ProductTypeDownload     ProductType = "download"
)

func (t ProductType) Valid() bool {
	switch t {
	case ProductTypeAccount, ProductTypeSubscription, ProductTypeLicenseKey, ProductTypeDownload:
		return true
	}
	return false
}

// DeliveryType tells whether the secret is revealed instantly or by a human later.
type DeliveryType string

const (
	DeliveryAuto   DeliveryType = "auto"
	DeliveryManual DeliveryType = "manual"
)

func (d DeliveryType) Valid() bool { return d == DeliveryAuto || d == DeliveryManual }

// Product is a catalog record. It is immutable from the cart's point of view;
// lines hold a snapshot taken when the product was added.
type Product struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Category      string       `json:"category"`
	Price         int64        `json:"price"`
	OriginalPrice *int64       `json:"original_price,omitempty"`
	ProductType   ProductType  `json:"product_type"`
	DeliveryType  DeliveryType `json:"delivery_type"`
	Stock         int          `json:"stock"`
	DurationDays  int          `json:"duration_days"` // 0 = lifetime
	WarrantyDays  int          `json:"warranty_days"`
}

func (p *Product) IsLifetime() bool { return p.DurationDays <= 0 }
func (p *Product) InStock() bool    { return p.Stock > 0 }

// Validate checks the catalog record before it is accepted into a cart.
func (p *Product) Validate() error {
	if p == nil || strings.TrimSpace(p.ID) == "" || p.Price < 0 || p.Stock < 0 || p.DurationDays < 0 {
		return domain.ErrInvalidArgument
	}
	if !p.ProductType.Valid() || !p.DeliveryType.Valid() {
		return domain.ErrInvalidArgument
	}
	if p.OriginalPrice != nil && *p.OriginalPrice < 0 {
		return domain.ErrInvalidArgument
	}
	return nil
}
