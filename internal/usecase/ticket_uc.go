package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"digital-storefront/internal/domain"
	"digital-storefront/internal/domain/model"
	"digital-storefront/internal/domain/ports/adapter"
	"digital-storefront/internal/domain/ports/repository"
)

// Compile-time check
var _ TicketUseCase = (*ticketUC)(nil)

type TicketUseCase interface {
	// Open creates a ticket against an order owned by the actor.
	Open(ctx context.Context, actor model.Actor, orderID, subject, message string) (*model.SupportTicket, error)
	ListByOrder(ctx context.Context, actor model.Actor, orderID string) ([]*model.SupportTicket, error)
}

type ticketUC struct {
	tickets  repository.TicketRepository
	orders   repository.OrderRepository
	notifier adapter.SupportNotifier
	log      *zerolog.Logger
}

func NewTicketUseCase(tickets repository.TicketRepository, orders repository.OrderRepository, notifier adapter.SupportNotifier, logger *zerolog.Logger) *ticketUC {
	return &ticketUC{tickets: tickets, orders: orders, notifier: notifier, log: logger}
}

func (u *ticketUC) owned(ctx context.Context, actor model.Actor, orderID string) (*model.Order, error) {
	o, err := u.orders.FindByID(ctx, repository.NoTX, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != actor.UserID && !actor.IsSupport() {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (u *ticketUC) Open(ctx context.Context, actor model.Actor, orderID, subject, message string) (*model.SupportTicket, error) {
	o, err := u.owned(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	t, err := model.NewSupportTicket(o.ID, actor.UserID, subject, message, time.Now())
	if err != nil {
		return nil, err
	}
	if err := u.tickets.Save(ctx, repository.NoTX, t); err != nil {
		return nil, err
	}
	u.log.Info().Str("ticket_id", t.ID).Str("order_id", o.ID).Msg("support ticket opened")
	if u.notifier != nil {
		text := fmt.Sprintf("Ticket %s on order %s: %s", t.ID, o.ID, t.Subject)
		if err := u.notifier.Notify(ctx, text); err != nil {
			u.log.Warn().Err(err).Str("ticket_id", t.ID).Msg("failed to notify support")
		}
	}
	return t, nil
}

func (u *ticketUC) ListByOrder(ctx context.Context, actor model.Actor, orderID string) ([]*model.SupportTicket, error) {
	if _, err := u.owned(ctx, actor, orderID); err != nil {
		return nil, err
	}
	return u.tickets.ListByOrder(ctx, repository.NoTX, orderID)
}
