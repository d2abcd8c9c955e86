package api

import (
	"errors"
	"net/http"

	"digital-storefront/internal/domain"
	"digital-storefront/internal/domain/model"
	"digital-storefront/internal/infra/metrics"
	"digital-storefront/internal/usecase"
)

type checkoutRequest struct {
	Contact struct {
		Email string `json:"email"`
		Phone string `json:"phone"`
	} `json:"contact"`
	PaymentMethod   string            `json:"payment_method"`
	RecipientEmails map[string]string `json:"recipient_emails"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	var req checkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	method, ok := model.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		metrics.IncCheckoutAttempt("rejected")
		respondError(w, http.StatusBadRequest, "invalid_argument", "unsupported payment method")
		return
	}
	in := usecase.CheckoutInput{
		Contact:         model.Contact{Email: req.Contact.Email, Phone: req.Contact.Phone},
		PaymentMethod:   method,
		RecipientEmails: req.RecipientEmails,
	}

	res, err := s.deps.Checkout.Submit(r.Context(), actor, in)
	metrics.IncCheckoutAttempt(checkoutResult(err))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

func checkoutResult(err error) string {
	var (
		inProgress *domain.CheckoutInProgressError
		network    *domain.SubmissionNetworkError
	)
	switch {
	case err == nil:
		return "success"
	case usecase.IsCheckoutValidationError(err):
		return "rejected"
	case errors.As(err, &inProgress):
		return "in_progress"
	case errors.As(err, &network):
		return "failed"
	}
	return "error"
}

func (s *Server) handleLastOrder(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	o, err := s.deps.Checkout.LastOrder(r.Context(), actor.SessionID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, o.ViewAt(nowFunc()))
}
