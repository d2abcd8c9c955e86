package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"digital-storefront/internal/domain"
	"digital-storefront/internal/domain/model"
	"digital-storefront/internal/domain/ports/adapter"
	"digital-storefront/internal/domain/ports/repository"
	"digital-storefront/internal/infra/logging"
)

// Compile-time check
var _ OrderUseCase = (*orderUC)(nil)

type OrderUseCase interface {
	OrderSubmitter
	Get(ctx context.Context, actor model.Actor, orderID string) (*model.OrderView, error)
	ListByUser(ctx context.Context, actor model.Actor) ([]model.OrderView, error)
	// AppendReplacement and CompleteFulfillment are support-only.
	AppendReplacement(ctx context.Context, actor model.Actor, orderID, reason string) (*model.OrderView, error)
	CompleteFulfillment(ctx context.Context, actor model.Actor, orderID, productID string, outcome model.DeliveryOutcome) (*model.OrderView, error)
	// PendingOlderThan lists orders still processing after age has passed since purchase.
	PendingOlderThan(ctx context.Context, age time.Duration, limit int) ([]*model.Order, error)
}

type orderUC struct {
	orders   repository.OrderRepository
	balances repository.BalanceRepository
	tm       repository.TransactionManager
	gateway  adapter.PaymentGateway
	resolver *DeliveryResolver
	events   adapter.EventPublisher
	notifier adapter.SupportNotifier
	log      *zerolog.Logger
	dev      bool
	now      func() time.Time
}

func NewOrderUseCase(
	orders repository.OrderRepository,
	balances repository.BalanceRepository,
	tm repository.TransactionManager,
	gateway adapter.PaymentGateway,
	resolver *DeliveryResolver,
	events adapter.EventPublisher,
	notifier adapter.SupportNotifier,
	logger *zerolog.Logger,
	dev bool,
) *orderUC {
	return &orderUC{
		orders:   orders,
		balances: balances,
		tm:       tm,
		gateway:  gateway,
		resolver: resolver,
		events:   events,
		notifier: notifier,
		log:      logger,
		dev:      dev,
		now:      time.Now,
	}
}

// Submit resolves every line, takes the payment and records the order.
// Stored-balance is debited in the same transaction that saves the order;
// wallet charges happen before the transaction opens and are refunded when it fails.
func (u *orderUC) Submit(ctx context.Context, actor model.Actor, req *model.CheckoutRequest) (*model.Order, error) {
	defer logging.TraceDuration(u.log, "OrderUC.Submit")()
	if req == nil || len(req.Lines) == 0 {
		return nil, &domain.EmptyCartError{}
	}
	if actor.UserID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := u.now()
	id := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()

	order, err := model.NewOrder(id, actor.UserID, actor.SessionID, req, u.resolver.ResolveAll(id, req.Lines), now)
	if err != nil {
		return nil, err
	}

	if req.PaymentMethod != model.PaymentStoredBalance {
		ref, err := u.gateway.Charge(ctx, req.PaymentMethod, req.Total, id)
		if err != nil {
			return nil, fmt.Errorf("charge %s: %w", req.PaymentMethod, err)
		}
		order.PaymentRef = ref
	}

	err = u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		if req.PaymentMethod == model.PaymentStoredBalance {
			ok, err := u.balances.Debit(ctx, tx, actor.UserID, req.Total)
			if err != nil {
				return err
			}
			if !ok {
				balance, err := u.balances.Get(ctx, tx, actor.UserID)
				if err != nil && !errors.Is(err, domain.ErrNotFound) {
					return err
				}
				return domain.NewInsufficientBalanceError(req.Total, balance)
			}
			order.PaymentRef = "balance:" + id
		}
		return u.orders.Save(ctx, tx, order)
	})
	if err != nil {
		if req.PaymentMethod != model.PaymentStoredBalance {
			u.refund(ctx, order)
		}
		return nil, err
	}

	ev := u.log.Info().
		Str("order_id", order.ID).
		Str("user_id", order.UserID).
		Str("contact", logging.Redact(order.Contact.Email, u.dev))
	if order.Contact.Phone != "" {
		ev = ev.Str("phone", logging.Redact(order.Contact.Phone, u.dev))
	}
	ev.Str("method", string(order.PaymentMethod)).
		Int64("total", order.Total).
		Bool("pending", order.Pending()).
		Msg("order placed")

	u.publish(ctx, model.Event{
		Type:      model.EventOrderPlaced,
		SessionID: order.SessionID,
		UserID:    order.UserID,
		OrderID:   order.ID,
		Quantity:  model.CountOf(req.Lines),
		Amount:    order.Total,
		Method:    string(order.PaymentMethod),
	})
	for _, it := range order.Items {
		if !it.Outcome.IsProcessing() {
			u.publish(ctx, model.Event{Type: model.EventOrderFulfilled, UserID: order.UserID, OrderID: order.ID, ProductID: it.Product.ID, Method: string(it.Outcome.Kind)})
		}
	}
	if order.Pending() {
		u.notify(ctx, pendingMessage(order, u.dev))
	}
	return order, nil
}

func (u *orderUC) Get(ctx context.Context, actor model.Actor, orderID string) (*model.OrderView, error) {
	o, err := u.orders.FindByID(ctx, repository.NoTX, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != actor.UserID && !actor.IsSupport() {
		return nil, domain.ErrNotFound
	}
	v := o.ViewAt(u.now())
	return &v, nil
}

func (u *orderUC) ListByUser(ctx context.Context, actor model.Actor) ([]model.OrderView, error) {
	if actor.UserID == "" {
		return nil, domain.ErrInvalidArgument
	}
	orders, err := u.orders.ListByUser(ctx, repository.NoTX, actor.UserID)
	if err != nil {
		return nil, err
	}
	now := u.now()
	views := make([]model.OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, o.ViewAt(now))
	}
	return views, nil
}

func (u *orderUC) AppendReplacement(ctx context.Context, actor model.Actor, orderID, reason string) (*model.OrderView, error) {
	if !actor.IsSupport() {
		return nil, domain.ErrForbidden
	}
	o, err := u.orders.FindByID(ctx, repository.NoTX, orderID)
	if err != nil {
		return nil, err
	}
	now := u.now()
	entry, err := o.AppendReplacement(reason, now)
	if err != nil {
		return nil, err
	}
	if err := u.orders.AppendReplacement(ctx, repository.NoTX, o.ID, entry); err != nil {
		return nil, err
	}
	u.log.Info().Str("order_id", o.ID).Str("actor", actor.UserID).Msg("replacement recorded")
	u.publish(ctx, model.Event{Type: model.EventOrderReplacementAdded, UserID: o.UserID, OrderID: o.ID})
	v := o.ViewAt(now)
	return &v, nil
}

func (u *orderUC) CompleteFulfillment(ctx context.Context, actor model.Actor, orderID, productID string, outcome model.DeliveryOutcome) (*model.OrderView, error) {
	if !actor.IsSupport() {
		return nil, domain.ErrForbidden
	}
	o, err := u.orders.FindByID(ctx, repository.NoTX, orderID)
	if err != nil {
		return nil, err
	}
	now := u.now()
	if err := o.CompleteItem(productID, outcome, now); err != nil {
		return nil, err
	}
	if err := u.orders.UpdateItemOutcome(ctx, repository.NoTX, o.ID, productID, outcome, now); err != nil {
		return nil, err
	}
	u.log.Info().Str("order_id", o.ID).Str("product_id", productID).Str("actor", actor.UserID).Msg("order line fulfilled")
	u.publish(ctx, model.Event{Type: model.EventOrderFulfilled, UserID: o.UserID, OrderID: o.ID, ProductID: productID, Method: string(outcome.Kind)})
	v := o.ViewAt(now)
	return &v, nil
}

func (u *orderUC) PendingOlderThan(ctx context.Context, age time.Duration, limit int) ([]*model.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	return u.orders.ListPendingOlderThan(ctx, repository.NoTX, u.now().Add(-age), limit)
}

func (u *orderUC) publish(ctx context.Context, e model.Event) {
	if u.events == nil {
		return
	}
	e.At = u.now()
	if err := u.events.Publish(ctx, e); err != nil {
		u.log.Warn().Err(err).Str("event", string(e.Type)).Msg("failed to publish order event")
	}
}

// refund reverses the wallet capture of an order that was never recorded.
// A failed refund leaves a capture without an order, so support is told.
func (u *orderUC) refund(ctx context.Context, order *model.Order) {
	ctx = context.WithoutCancel(ctx)
	if err := u.gateway.Refund(ctx, order.PaymentRef, order.Total); err != nil {
		u.log.Error().Err(err).
			Str("order_id", order.ID).
			Str("payment_ref", order.PaymentRef).
			Int64("amount", order.Total).
			Msg("refund after failed order save")
		u.notify(ctx, fmt.Sprintf("Refund needed: %s via %s captured %d for order %s, but the order was not saved.",
			order.PaymentRef, order.PaymentMethod, order.Total, order.ID))
		return
	}
	u.log.Warn().Str("order_id", order.ID).Str("payment_ref", order.PaymentRef).Msg("wallet charge refunded after failed order save")
}

func (u *orderUC) notify(ctx context.Context, text string) {
	if u.notifier == nil {
		return
	}
	if err := u.notifier.Notify(ctx, text); err != nil {
		u.log.Warn().Err(err).Msg("failed to notify support")
	}
}

// pendingMessage lists the lines support must fulfil. Recipient emails are redacted outside dev.
func pendingMessage(o *model.Order, dev bool) string {
	msg := fmt.Sprintf("Order %s needs manual fulfillment:", o.ID)
	for _, it := range o.Items {
		if !it.Outcome.IsProcessing() {
			continue
		}
		line := fmt.Sprintf("\n- %s x%d", it.Product.Name, it.Quantity)
		if it.RecipientEmail != "" {
			line += " (invite " + logging.Redact(it.RecipientEmail, dev) + ")"
		}
		msg += line
	}
	if !dev {
		msg += "\nRecipient details: GET /api/v1/orders/" + o.ID
	}
	return msg
}
