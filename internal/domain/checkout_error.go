package domain

import "fmt"

// EmptyCartError is returned when a checkout is attempted with no lines.
type EmptyCartError struct{}

func (EmptyCartError) Error() string { return "cart is empty, nothing to checkout" }

// MissingRecipientEmailError is returned when a subscription line has no invite recipient.
type MissingRecipientEmailError struct {
	ProductID string
}

func (e *MissingRecipientEmailError) Error() string {
	return fmt.Sprintf("recipient email is required for subscription product %q", e.ProductID)
}

// InsufficientBalanceError is returned when the stored balance cannot cover the total.
type InsufficientBalanceError struct {
	Total     int64
	Balance   int64
	Shortfall int64
}

func NewInsufficientBalanceError(total, balance int64) *InsufficientBalanceError {
	return &InsufficientBalanceError{Total: total, Balance: balance, Shortfall: total - balance}
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: total %d, balance %d, shortfall %d", e.Total, e.Balance, e.Shortfall)
}

// SubmissionNetworkError wraps any failure of the submission exchange itself.
// The cart is left intact when this is returned.
type SubmissionNetworkError struct {
	Err error
}

func (e *SubmissionNetworkError) Error() string { return "checkout submission failed: " + e.Err.Error() }
func (e *SubmissionNetworkError) Unwrap() error { return e.Err }

// MalformedPersistedCartError reports a cart record that could not be decoded.
// Callers recover by starting from an empty cart.
type MalformedPersistedCartError struct {
	SessionID string
	Err       error
}

func (e *MalformedPersistedCartError) Error() string {
	return fmt.Sprintf("malformed cart record for session %s: %v", e.SessionID, e.Err)
}
func (e *MalformedPersistedCartError) Unwrap() error { return e.Err }

// CheckoutInProgressError is returned while another submission for the same session is outstanding.
type CheckoutInProgressError struct {
	SessionID string
}

func (e *CheckoutInProgressError) Error() string {
	return "a checkout for session " + e.SessionID + " is already in progress"
}
