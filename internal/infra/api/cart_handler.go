package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type addItemRequest struct {
	ProductID string `json:"product_id"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	sum, err := s.deps.Cart.Get(r.Context(), actor.SessionID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, sum)
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.ProductID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "product_id is required")
		return
	}
	sum, err := s.deps.Cart.AddProduct(r.Context(), actor.SessionID, strings.TrimSpace(req.ProductID))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, sum)
}

// handleUpdateItem treats a quantity below 1 as a removal.
func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	var req updateQuantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	sum, err := s.deps.Cart.UpdateQuantity(r.Context(), actor.SessionID, chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, sum)
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	sum, err := s.deps.Cart.Remove(r.Context(), actor.SessionID, chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, sum)
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	if err := s.deps.Cart.Clear(r.Context(), actor.SessionID); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
