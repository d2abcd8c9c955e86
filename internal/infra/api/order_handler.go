package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"digital-storefront/internal/domain/model"
)

var nowFunc = time.Now

type ticketRequest struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	views, err := s.deps.Orders.ListByUser(r.Context(), actor)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	v, err := s.deps.Orders.Get(r.Context(), actor, chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

func (s *Server) handleOpenTicket(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	var req ticketRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	t, err := s.deps.Tickets.Open(r.Context(), actor, chi.URLParam(r, "orderID"), req.Subject, req.Message)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, t)
}

func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	ts, err := s.deps.Tickets.ListByOrder(r.Context(), actor, chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if ts == nil {
		ts = []*model.SupportTicket{}
	}
	respondJSON(w, http.StatusOK, ts)
}
