package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"digital-storefront/internal/domain"
	"digital-storefront/internal/domain/model"
	"digital-storefront/internal/domain/ports/repository"
	"digital-storefront/internal/infra/security"
)

// Ensure interface compliance
var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo stores orders across orders, order_items and order_replacements.
// Delivery outcomes carry secrets and are sealed at rest.
type OrderRepo struct {
	pool   *pgxpool.Pool
	sealer security.Sealer
}

func NewOrderRepo(pool *pgxpool.Pool, sealer security.Sealer) *OrderRepo {
	if sealer == nil {
		sealer = security.PlainSealer{}
	}
	return &OrderRepo{pool: pool, sealer: sealer}
}

func outcomeAAD(orderID, productID string) string { return orderID + ":" + productID }

func (r *OrderRepo) sealOutcome(orderID, productID string, o model.DeliveryOutcome) (string, error) {
	raw, err := json.Marshal(o)
	if err != nil {
		return "", err
	}
	return r.sealer.Seal(string(raw), outcomeAAD(orderID, productID))
}

func (r *OrderRepo) openOutcome(orderID, productID, sealed string) (model.DeliveryOutcome, error) {
	var out model.DeliveryOutcome
	plain, err := r.sealer.Open(sealed, outcomeAAD(orderID, productID))
	if err != nil {
		return out, err
	}
	err = json.Unmarshal([]byte(plain), &out)
	return out, err
}

func (r *OrderRepo) Save(ctx context.Context, tx repository.Tx, o *model.Order) (err error) {
	if o == nil || o.ID == "" || len(o.Items) == 0 {
		return domain.ErrInvalidArgument
	}
	t, finish, err := inTx(ctx, r.pool, tx)
	if err != nil {
		return err
	}
	defer func() { err = finish(err) }()

	const insOrder = `
INSERT INTO orders (id, user_id, session_id, contact_email, contact_phone, payment_method,
                    payment_ref, total, savings, purchased_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
`
	if _, err = t.Exec(ctx, insOrder, o.ID, o.UserID, o.SessionID, o.Contact.Email, o.Contact.Phone,
		string(o.PaymentMethod), o.PaymentRef, o.Total, o.Savings, o.PurchasedAt, o.ExpiresAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert order: %w", err)
	}

	const insItem = `
INSERT INTO order_items (order_id, position, product_id, product, quantity, recipient_email,
                         outcome_kind, outcome, fulfilled_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`
	for i, it := range o.Items {
		product, mErr := json.Marshal(it.Product)
		if mErr != nil {
			return mErr
		}
		sealed, sErr := r.sealOutcome(o.ID, it.Product.ID, it.Outcome)
		if sErr != nil {
			return fmt.Errorf("seal outcome: %w", sErr)
		}
		if _, err = t.Exec(ctx, insItem, o.ID, i, it.Product.ID, product, it.Quantity, it.RecipientEmail,
			string(it.Outcome.Kind), sealed, it.FulfilledAt); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	for _, e := range o.ReplacementHistory {
		if err = insertReplacement(ctx, t, o.ID, e); err != nil {
			return err
		}
	}
	return nil
}

func insertReplacement(ctx context.Context, exec executor, orderID string, e model.ReplacementEntry) error {
	_, err := exec.Exec(ctx, `INSERT INTO order_replacements (order_id, replaced_at, reason) VALUES ($1, $2, $3);`,
		orderID, e.Date, e.Reason)
	if err != nil {
		return fmt.Errorf("insert replacement: %w", err)
	}
	return nil
}

const orderColumns = `id, user_id, session_id, contact_email, contact_phone, payment_method, payment_ref,
       total, savings, purchased_at, expires_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	if err := row.Scan(&o.ID, &o.UserID, &o.SessionID, &o.Contact.Email, &o.Contact.Phone, &o.PaymentMethod,
		&o.PaymentRef, &o.Total, &o.Savings, &o.PurchasedAt, &o.ExpiresAt); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Order, error) {
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	o, err := scanOrder(exec.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1;`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	if err := r.loadChildren(ctx, exec, []*model.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Order, error) {
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	return r.queryOrders(ctx, exec,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY purchased_at DESC, id DESC;`, userID)
}

func (r *OrderRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, before time.Time, limit int) ([]*model.Order, error) {
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	const sql = `
SELECT ` + orderColumns + `
  FROM orders o
 WHERE o.purchased_at < $1
   AND (o.expires_at IS NULL OR o.expires_at > now())
   AND EXISTS (SELECT 1 FROM order_items i WHERE i.order_id = o.id AND i.outcome_kind = 'processing')
 ORDER BY o.purchased_at
 LIMIT $2;
`
	return r.queryOrders(ctx, exec, sql, before, limit)
}

func (r *OrderRepo) queryOrders(ctx context.Context, exec executor, sql string, args ...interface{}) ([]*model.Order, error) {
	rows, err := exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	var out []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, exec, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadChildren fills items and replacement history for the given orders in two queries.
func (r *OrderRepo) loadChildren(ctx context.Context, exec executor, orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	byID := make(map[string]*model.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
		o.Items = nil
		o.ReplacementHistory = []model.ReplacementEntry{}
	}

	rows, err := exec.Query(ctx, `
SELECT order_id, product, quantity, recipient_email, outcome, fulfilled_at
  FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, position;`, ids)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	for rows.Next() {
		var (
			orderID, sealed string
			product         []byte
			it              model.OrderItem
		)
		if err := rows.Scan(&orderID, &product, &it.Quantity, &it.RecipientEmail, &sealed, &it.FulfilledAt); err != nil {
			rows.Close()
			return fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		if err := json.Unmarshal(product, &it.Product); err != nil {
			rows.Close()
			return fmt.Errorf("%w: product snapshot: %v", domain.ErrReadDatabaseRow, err)
		}
		if it.Outcome, err = r.openOutcome(orderID, it.Product.ID, sealed); err != nil {
			rows.Close()
			return fmt.Errorf("%w: outcome for %s/%s: %v", domain.ErrReadDatabaseRow, orderID, it.Product.ID, err)
		}
		o := byID[orderID]
		o.Items = append(o.Items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = exec.Query(ctx, `
SELECT order_id, replaced_at, reason
  FROM order_replacements WHERE order_id = ANY($1) ORDER BY order_id, id;`, ids)
	if err != nil {
		return fmt.Errorf("query replacements: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orderID string
			e       model.ReplacementEntry
		)
		if err := rows.Scan(&orderID, &e.Date, &e.Reason); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		o := byID[orderID]
		o.ReplacementHistory = append(o.ReplacementHistory, e)
	}
	return rows.Err()
}

func (r *OrderRepo) AppendReplacement(ctx context.Context, tx repository.Tx, orderID string, e model.ReplacementEntry) error {
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	// the order must exist; the foreign key would also refuse, but with a less useful error
	var exists bool
	if err := exec.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1);`, orderID).Scan(&exists); err != nil {
		return fmt.Errorf("check order: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return insertReplacement(ctx, exec, orderID, e)
}

// UpdateItemOutcome replaces a processing outcome. Lines that are already
// fulfilled are left untouched and reported as ErrNotProcessing.
func (r *OrderRepo) UpdateItemOutcome(ctx context.Context, tx repository.Tx, orderID, productID string, outcome model.DeliveryOutcome, fulfilledAt time.Time) error {
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	sealed, err := r.sealOutcome(orderID, productID, outcome)
	if err != nil {
		return fmt.Errorf("seal outcome: %w", err)
	}
	tag, err := exec.Exec(ctx, `
UPDATE order_items
   SET outcome_kind = $3, outcome = $4, fulfilled_at = $5
 WHERE order_id = $1 AND product_id = $2 AND outcome_kind = 'processing';`,
		orderID, productID, string(outcome.Kind), sealed, fulfilledAt)
	if err != nil {
		return fmt.Errorf("update outcome: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var kind string
	err = exec.QueryRow(ctx, `SELECT outcome_kind FROM order_items WHERE order_id = $1 AND product_id = $2;`,
		orderID, productID).Scan(&kind)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check outcome: %w", err)
	}
	return domain.ErrNotProcessing
}
