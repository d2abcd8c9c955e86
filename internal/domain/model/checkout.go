package model

import "strings"

type PaymentMethod string

const (
	PaymentMobileWalletA PaymentMethod = "mobile-wallet-a"
	PaymentMobileWalletB PaymentMethod = "mobile-wallet-b"
	PaymentStoredBalance PaymentMethod = "stored-balance"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMobileWalletA, PaymentMobileWalletB, PaymentStoredBalance:
		return true
	}
	return false
}

// ParsePaymentMethod accepts the wire value case-insensitively.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	return m, m.Valid()
}

type Contact struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// CheckoutRequest is a validated cart snapshot ready for submission.
type CheckoutRequest struct {
	Contact         Contact           `json:"contact"`
	PaymentMethod   PaymentMethod     `json:"payment_method"`
	RecipientEmails map[string]string `json:"recipient_emails,omitempty"` // product id -> invite recipient
	Lines           []CartLine        `json:"lines"`
	Total           int64             `json:"total"`
	Savings         int64             `json:"savings"`
}
