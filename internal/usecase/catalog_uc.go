package usecase

import (
	"context"

	"digital-storefront/internal/domain/model"
	"digital-storefront/internal/domain/ports/repository"
)

// Compile-time check
var _ CatalogUseCase = (*catalogUC)(nil)

// CatalogUseCase is the read side of the product catalog plus the seeding write path.
type CatalogUseCase interface {
	List(ctx context.Context) ([]*model.Product, error)
	Get(ctx context.Context, id string) (*model.Product, error)
	Upsert(ctx context.Context, p *model.Product) error
}

type catalogUC struct {
	products repository.ProductRepository
}

func NewCatalogUseCase(products repository.ProductRepository) *catalogUC {
	return &catalogUC{products: products}
}

func (u *catalogUC) List(ctx context.Context) ([]*model.Product, error) {
	return u.products.ListAll(ctx, repository.NoTX)
}

func (u *catalogUC) Get(ctx context.Context, id string) (*model.Product, error) {
	return u.products.FindByID(ctx, repository.NoTX, id)
}

func (u *catalogUC) Upsert(ctx context.Context, p *model.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return u.products.Save(ctx, repository.NoTX, p)
}
