package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"digital-storefront/internal/domain/model"
)

type sessionResponse struct {
	SessionID string     `json:"session_id"`
	UserID    string     `json:"user_id"`
	Role      model.Role `json:"role"`
	Token     string     `json:"token"`
}

// handleSession refreshes a valid customer session or starts a guest one.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	actor, err := s.deps.Auth.ParseFromRequest(r)
	if err != nil || actor.IsSupport() {
		actor = NewGuestActor()
	}
	token, err := s.deps.Auth.Mint(w, actor)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{
		SessionID: actor.SessionID,
		UserID:    actor.UserID,
		Role:      actor.Role,
		Token:     token,
	})
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := s.deps.Catalog.List(r.Context())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if ps == nil {
		ps = []*model.Product{}
	}
	respondJSON(w, http.StatusOK, ps)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Catalog.Get(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	v, err := s.deps.Balances.Get(r.Context(), actor)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"balance": v})
}
