package model

import (
	"strings"
	"time"

	"digital-storefront/internal/domain"
)

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusActive     OrderStatus = "active"
	OrderStatusExpired    OrderStatus = "expired"
)

// OrderItem is one purchased line with its resolved delivery outcome.
type OrderItem struct {
	Product        Product         `json:"product"`
	Quantity       int             `json:"quantity"`
	RecipientEmail string          `json:"recipient_email,omitempty"`
	Outcome        DeliveryOutcome `json:"outcome"`
	FulfilledAt    *time.Time      `json:"fulfilled_at,omitempty"` // nil while Outcome is processing
}

// ReplacementEntry records one credential/key replacement issued against the order.
type ReplacementEntry struct {
	Date   time.Time `json:"date"`
	Reason string    `json:"reason"`
}

// Order is created once on successful checkout and is append-only afterwards.
// Its status is not stored: it is derived from the items and ExpiresAt on every read.
type Order struct {
	ID                 string             `json:"id"`
	UserID             string             `json:"user_id"`
	SessionID          string             `json:"-"`
	Contact            Contact            `json:"contact"`
	PaymentMethod      PaymentMethod      `json:"payment_method"`
	PaymentRef         string             `json:"payment_ref,omitempty"`
	Items              []OrderItem        `json:"items"`
	Total              int64              `json:"total"`
	Savings            int64              `json:"savings"`
	PurchasedAt        time.Time          `json:"purchased_at"`
	ExpiresAt          *time.Time         `json:"expires_at"` // nil = lifetime
	ReplacementHistory []ReplacementEntry `json:"replacement_history"`
}

// NewOrder records a checkout request together with the outcome resolved for each line.
// outcomes must be index-aligned with req.Lines.
func NewOrder(id, userID, sessionID string, req *CheckoutRequest, outcomes []DeliveryOutcome, now time.Time) (*Order, error) {
	if id == "" || req == nil || len(req.Lines) == 0 || len(outcomes) != len(req.Lines) {
		return nil, domain.ErrInvalidArgument
	}
	items := make([]OrderItem, len(req.Lines))
	for i, l := range req.Lines {
		item := OrderItem{
			Product:        l.Product,
			Quantity:       l.Quantity,
			RecipientEmail: strings.TrimSpace(req.RecipientEmails[l.Product.ID]),
			Outcome:        outcomes[i],
		}
		if !outcomes[i].IsProcessing() {
			at := now
			item.FulfilledAt = &at
		}
		items[i] = item
	}
	return &Order{
		ID:                 id,
		UserID:             userID,
		SessionID:          sessionID,
		Contact:            req.Contact,
		PaymentMethod:      req.PaymentMethod,
		Items:              items,
		Total:              req.Total,
		Savings:            req.Savings,
		PurchasedAt:        now,
		ExpiresAt:          ExpiryFor(req.Lines, now),
		ReplacementHistory: []ReplacementEntry{},
	}, nil
}

// ExpiryFor returns the latest entitlement end among lines, or nil (lifetime)
// when any line is a lifetime product.
func ExpiryFor(lines []CartLine, from time.Time) *time.Time {
	var latest time.Time
	for _, l := range lines {
		if l.Product.IsLifetime() {
			return nil
		}
		if end := from.AddDate(0, 0, l.Product.DurationDays); end.After(latest) {
			latest = end
		}
	}
	if latest.IsZero() {
		return nil
	}
	return &latest
}

func (o *Order) IsLifetime() bool { return o.ExpiresAt == nil }

// Pending reports whether any line still waits for manual or invite fulfillment.
func (o *Order) Pending() bool {
	for _, it := range o.Items {
		if it.Outcome.IsProcessing() {
			return true
		}
	}
	return false
}

// ComputeStatus derives the status at now. A concrete past expiry wins (expired is terminal);
// otherwise the order is processing while any line is pending, else active.
func ComputeStatus(o *Order, now time.Time) OrderStatus {
	if o.ExpiresAt != nil && !now.Before(*o.ExpiresAt) {
		return OrderStatusExpired
	}
	if o.Pending() {
		return OrderStatusProcessing
	}
	return OrderStatusActive
}

// AppendReplacement adds a replacement entry; earlier entries are never touched.
func (o *Order) AppendReplacement(reason string, now time.Time) (ReplacementEntry, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ReplacementEntry{}, domain.ErrInvalidArgument
	}
	if ComputeStatus(o, now) == OrderStatusExpired {
		return ReplacementEntry{}, domain.ErrOrderExpired
	}
	e := ReplacementEntry{Date: now, Reason: reason}
	o.ReplacementHistory = append(o.ReplacementHistory, e)
	return e, nil
}

// CompleteItem replaces the processing placeholder of one line with a concrete outcome.
func (o *Order) CompleteItem(productID string, outcome DeliveryOutcome, now time.Time) error {
	if outcome.IsProcessing() || !outcome.Valid() {
		return domain.ErrInvalidArgument
	}
	if ComputeStatus(o, now) == OrderStatusExpired {
		return domain.ErrOrderExpired
	}
	for i := range o.Items {
		if o.Items[i].Product.ID != productID {
			continue
		}
		if !o.Items[i].Outcome.IsProcessing() {
			return domain.ErrNotProcessing
		}
		at := now
		o.Items[i].Outcome = outcome
		o.Items[i].FulfilledAt = &at
		return nil
	}
	return domain.ErrNotFound
}

// OrderView is the read shape for display surfaces: the order plus its status at read time.
type OrderView struct {
	Order
	Status   OrderStatus `json:"status"`
	Lifetime bool        `json:"lifetime"`
}

func (o *Order) ViewAt(now time.Time) OrderView {
	return OrderView{Order: *o, Status: ComputeStatus(o, now), Lifetime: o.IsLifetime()}
}
