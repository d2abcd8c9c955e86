package model

import (
	"strings"
	"time"

	"digital-storefront/internal/domain"

	"github.com/google/uuid"
)

type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "open"
	TicketStatusClosed TicketStatus = "closed"
)

// SupportTicket is a customer request opened against one of their orders.
type SupportTicket struct {
	ID        string       `json:"id"`
	OrderID   string       `json:"order_id"`
	UserID    string       `json:"user_id"`
	Subject   string       `json:"subject"`
	Message   string       `json:"message"`
	Status    TicketStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

func NewSupportTicket(orderID, userID, subject, message string, now time.Time) (*SupportTicket, error) {
	subject, message = strings.TrimSpace(subject), strings.TrimSpace(message)
	if orderID == "" || userID == "" || subject == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &SupportTicket{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		UserID:    userID,
		Subject:   subject,
		Message:   message,
		Status:    TicketStatusOpen,
		CreatedAt: now,
	}, nil
}
