package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"digital-storefront/internal/domain/model"
)

type replacementRequest struct {
	Reason string `json:"reason"`
}

type fulfillRequest struct {
	ProductID string                `json:"product_id"`
	Outcome   model.DeliveryOutcome `json:"outcome"`
}

type creditRequest struct {
	Amount int64 `json:"amount"`
}

func (s *Server) handleAppendReplacement(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	var req replacementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	v, err := s.deps.Orders.AppendReplacement(r.Context(), actor, chi.URLParam(r, "orderID"), req.Reason)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

func (s *Server) handleFulfill(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	var req fulfillRequest
	if err := decodeJSON(w, r, &req); err != nil || req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "product_id and outcome are required")
		return
	}
	v, err := s.deps.Orders.CompleteFulfillment(r.Context(), actor, chi.URLParam(r, "orderID"), req.ProductID, req.Outcome)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// handlePendingOrders accepts ?older_than=<duration>; the default is the fulfillment SLA.
func (s *Server) handlePendingOrders(w http.ResponseWriter, r *http.Request) {
	age := time.Duration(s.cfg.Fulfillment.SLAMinutes) * time.Minute
	if q := r.URL.Query().Get("older_than"); q != "" {
		d, err := time.ParseDuration(q)
		if err != nil || d < 0 {
			respondError(w, http.StatusBadRequest, "invalid_request", "older_than must be a duration like 45m")
			return
		}
		age = d
	}
	orders, err := s.deps.Orders.PendingOlderThan(r.Context(), age, 0)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	now := nowFunc()
	views := make([]model.OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, o.ViewAt(now))
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleUpsertProduct(w http.ResponseWriter, r *http.Request) {
	var p model.Product
	if err := decodeJSON(w, r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	p.ID = chi.URLParam(r, "productID")
	if err := s.deps.Catalog.Upsert(r.Context(), &p); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreditBalance(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	var req creditRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	v, err := s.deps.Balances.Credit(r.Context(), actor, chi.URLParam(r, "userID"), req.Amount)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"balance": v})
}
