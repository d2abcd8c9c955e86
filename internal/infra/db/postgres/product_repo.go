package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"digital-storefront/internal/domain"
	"digital-storefront/internal/domain/model"
	"digital-storefront/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.ProductRepository = (*ProductRepo)(nil)

type ProductRepo struct {
	pool *pgxpool.Pool
}

func NewProductRepo(pool *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

const productColumns = `id, name, category, price, original_price, product_type, delivery_type, stock, duration_days, warranty_days`

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.OriginalPrice,
		&p.ProductType, &p.DeliveryType, &p.Stock, &p.DurationDays, &p.WarrantyDays); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepo) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const sql = `
INSERT INTO products (` + productColumns + `, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
ON CONFLICT (id) DO UPDATE
  SET name           = EXCLUDED.name,
      category       = EXCLUDED.category,
      price          = EXCLUDED.price,
      original_price = EXCLUDED.original_price,
      product_type   = EXCLUDED.product_type,
      delivery_type  = EXCLUDED.delivery_type,
      stock          = EXCLUDED.stock,
      duration_days  = EXCLUDED.duration_days,
      warranty_days  = EXCLUDED.warranty_days,
      updated_at     = now();
`
	if _, err := exec.Exec(ctx, sql, p.ID, p.Name, p.Category, p.Price, p.OriginalPrice,
		string(p.ProductType), string(p.DeliveryType), p.Stock, p.DurationDays, p.WarrantyDays); err != nil {
		return fmt.Errorf("save product: %w", err)
	}
	return nil
}

func (r *ProductRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	p, err := scanProduct(exec.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1;`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return p, nil
}

func (r *ProductRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := exec.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY category, name;`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var out []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
