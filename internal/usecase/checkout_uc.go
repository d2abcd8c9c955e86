package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"digital-storefront/internal/domain"
	"digital-storefront/internal/domain/model"
	"digital-storefront/internal/domain/ports/adapter"
	"digital-storefront/internal/domain/ports/repository"
	"digital-storefront/internal/infra/logging"
)

// CheckoutInput is what the buyer supplies at the checkout step.
type CheckoutInput struct {
	Contact         model.Contact
	PaymentMethod   model.PaymentMethod
	RecipientEmails map[string]string
}

// PrepareCheckout validates a cart snapshot and builds the submission request.
// Checks run in order and the first failure wins:
//  1. the cart is not empty
//  2. every subscription line has a recipient email
//  3. a stored-balance payment is covered by balance
//
// balance is ignored for other payment methods.
func PrepareCheckout(lines []model.CartLine, in CheckoutInput, balance int64) (*model.CheckoutRequest, error) {
	if len(lines) == 0 {
		return nil, &domain.EmptyCartError{}
	}
	emails := make(map[string]string)
	for _, l := range lines {
		if l.Product.ProductType != model.ProductTypeSubscription {
			continue
		}
		email := strings.TrimSpace(in.RecipientEmails[l.Product.ID])
		if email == "" {
			return nil, &domain.MissingRecipientEmailError{ProductID: l.Product.ID}
		}
		emails[l.Product.ID] = email
	}
	total := model.TotalOf(lines)
	if in.PaymentMethod == model.PaymentStoredBalance && total > balance {
		return nil, domain.NewInsufficientBalanceError(total, balance)
	}
	if !in.PaymentMethod.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	snapshot := make([]model.CartLine, len(lines))
	copy(snapshot, lines)
	return &model.CheckoutRequest{
		Contact:         model.Contact{Email: strings.TrimSpace(in.Contact.Email), Phone: strings.TrimSpace(in.Contact.Phone)},
		PaymentMethod:   in.PaymentMethod,
		RecipientEmails: emails,
		Lines:           snapshot,
		Total:           total,
		Savings:         model.SavingsOf(lines),
	}, nil
}

// IsCheckoutValidationError reports whether err blocks a checkout before submission.
func IsCheckoutValidationError(err error) bool {
	var (
		empty   *domain.EmptyCartError
		missing *domain.MissingRecipientEmailError
		balance *domain.InsufficientBalanceError
	)
	return errors.As(err, &empty) || errors.As(err, &missing) || errors.As(err, &balance)
}

// OrderSubmitter records a validated checkout as an order.
type OrderSubmitter interface {
	Submit(ctx context.Context, actor model.Actor, req *model.CheckoutRequest) (*model.Order, error)
}

// CheckoutResult tells the caller to drop its local cart state and show the order.
type CheckoutResult struct {
	Order     *model.Order `json:"order"`
	ClearCart bool         `json:"clear_cart"`
}

type CheckoutOptions struct {
	// LockTTL bounds the cross-instance submission lock; zero disables it.
	LockTTL time.Duration
	// SubmitTimeout bounds one submission exchange; zero means the caller's context only.
	SubmitTimeout time.Duration
	// Sessions is shared with the cart facade so settling the cart after an order
	// does not interleave with cart edits. Nil gets a private set.
	Sessions *SessionLocks
}

// CheckoutOrchestrator drives validation and submission of a session's cart.
// At most one submission per session is outstanding at a time.
type CheckoutOrchestrator struct {
	carts      repository.CartRepository
	lastOrders repository.LastOrderRepository
	balances   repository.BalanceRepository
	submitter  OrderSubmitter
	locker     adapter.Locker
	events     adapter.EventPublisher
	opts       CheckoutOptions
	log        *zerolog.Logger

	inflight sync.Map // sessionID -> struct{}
}

func NewCheckoutOrchestrator(
	carts repository.CartRepository,
	lastOrders repository.LastOrderRepository,
	balances repository.BalanceRepository,
	submitter OrderSubmitter,
	locker adapter.Locker,
	events adapter.EventPublisher,
	opts CheckoutOptions,
	logger *zerolog.Logger,
) *CheckoutOrchestrator {
	if opts.Sessions == nil {
		opts.Sessions = NewSessionLocks()
	}
	return &CheckoutOrchestrator{
		carts:      carts,
		lastOrders: lastOrders,
		balances:   balances,
		submitter:  submitter,
		locker:     locker,
		events:     events,
		opts:       opts,
		log:        logger,
	}
}

// Submit validates the session cart and submits it. Validation errors are returned
// as-is; any failure of the submission itself is wrapped in *domain.SubmissionNetworkError
// and leaves the cart untouched.
func (o *CheckoutOrchestrator) Submit(ctx context.Context, actor model.Actor, in CheckoutInput) (*CheckoutResult, error) {
	defer logging.TraceDuration(o.log, "Checkout.Submit")()
	sessionID := actor.SessionID
	if sessionID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if _, busy := o.inflight.LoadOrStore(sessionID, struct{}{}); busy {
		return nil, &domain.CheckoutInProgressError{SessionID: sessionID}
	}
	defer o.inflight.Delete(sessionID)

	if o.locker != nil && o.opts.LockTTL > 0 {
		key := "checkout:" + sessionID
		token, err := o.locker.TryLock(ctx, key, o.opts.LockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrLocked) {
				return nil, &domain.CheckoutInProgressError{SessionID: sessionID}
			}
			return nil, err
		}
		defer func() {
			if err := o.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
				o.log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to release checkout lock")
			}
		}()
	}

	store, err := OpenCartStore(ctx, sessionID, o.carts, o.events, o.log)
	if err != nil {
		return nil, err
	}

	var balance int64
	if in.PaymentMethod == model.PaymentStoredBalance && store.Count() > 0 {
		balance, err = o.balances.Get(ctx, repository.NoTX, actor.UserID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	req, err := PrepareCheckout(store.Lines(), in, balance)
	if err != nil {
		return nil, err
	}

	submitCtx := ctx
	if o.opts.SubmitTimeout > 0 {
		var cancel context.CancelFunc
		submitCtx, cancel = context.WithTimeout(ctx, o.opts.SubmitTimeout)
		defer cancel()
	}
	order, err := o.submitter.Submit(submitCtx, actor, req)
	if err != nil {
		if IsCheckoutValidationError(err) {
			return nil, err
		}
		o.log.Error().Err(err).Str("session_id", sessionID).Msg("checkout submission failed")
		return nil, &domain.SubmissionNetworkError{Err: err}
	}

	// The order exists now; follow-up writes are logged, never surfaced.
	if err := o.settleCart(ctx, sessionID, req.Lines); err != nil {
		o.log.Error().Err(err).Str("session_id", sessionID).Str("order_id", order.ID).Msg("failed to clear cart after checkout")
	}
	if err := o.lastOrders.Save(ctx, sessionID, order); err != nil {
		o.log.Error().Err(err).Str("session_id", sessionID).Str("order_id", order.ID).Msg("failed to persist last order snapshot")
	}
	return &CheckoutResult{Order: order, ClearCart: true}, nil
}

// settleCart removes the purchased lines from the current cart record. Anything the
// session added while the submission was outstanding stays in the cart.
func (o *CheckoutOrchestrator) settleCart(ctx context.Context, sessionID string, purchased []model.CartLine) error {
	defer o.opts.Sessions.Lock(sessionID)()
	store, err := OpenCartStore(ctx, sessionID, o.carts, o.events, o.log)
	if err != nil {
		return err
	}
	return store.Consume(ctx, purchased)
}

// LastOrder returns the success-page snapshot for the session.
func (o *CheckoutOrchestrator) LastOrder(ctx context.Context, sessionID string) (*model.Order, error) {
	return o.lastOrders.Get(ctx, sessionID)
}
