package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"digital-storefront/internal/domain"
	"digital-storefront/internal/infra/logging"
)

type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeError maps domain and checkout errors to HTTP responses. Anything it
// does not recognise is logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *zerolog.Logger, err error) {
	var (
		empty      *domain.EmptyCartError
		missing    *domain.MissingRecipientEmailError
		balance    *domain.InsufficientBalanceError
		network    *domain.SubmissionNetworkError
		inProgress *domain.CheckoutInProgressError
	)
	switch {
	case errors.As(err, &empty):
		respondError(w, http.StatusUnprocessableEntity, "empty_cart", empty.Error())
	case errors.As(err, &missing):
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   missing.Error(),
			Code:    "missing_recipient_email",
			Details: map[string]any{"product_id": missing.ProductID},
		})
	case errors.As(err, &balance):
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   balance.Error(),
			Code:    "insufficient_balance",
			Details: map[string]any{"total": balance.Total, "balance": balance.Balance, "shortfall": balance.Shortfall},
		})
	case errors.As(err, &inProgress):
		respondError(w, http.StatusConflict, "checkout_in_progress", "a checkout for this session is already running")
	case errors.As(err, &network):
		l := logging.With(r.Context(), logger)
		l.Error().Err(network.Err).Msg("checkout submission failed")
		respondError(w, http.StatusBadGateway, "submission_failed", "we could not place your order, please try again")
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, domain.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden", "forbidden")
	case errors.Is(err, domain.ErrInvalidArgument):
		respondError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, domain.ErrOutOfStock):
		respondError(w, http.StatusConflict, "out_of_stock", "product is out of stock")
	case errors.Is(err, domain.ErrOrderExpired):
		respondError(w, http.StatusConflict, "order_expired", "order has expired")
	case errors.Is(err, domain.ErrNotProcessing):
		respondError(w, http.StatusConflict, "not_processing", "line is already fulfilled")
	case errors.Is(err, domain.ErrAlreadyExists):
		respondError(w, http.StatusConflict, "already_exists", "already exists")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		l := logging.With(r.Context(), logger)
		l.Error().Err(err).Msg("unhandled error")
		respondError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
