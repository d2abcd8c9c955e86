package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"digital-storefront/internal/config"
	"digital-storefront/internal/domain/model"
	"digital-storefront/internal/domain/ports/adapter"
	"digital-storefront/internal/infra/logging"
	"digital-storefront/internal/infra/metrics"
	"digital-storefront/internal/usecase"
)

// CheckoutService is the part of the checkout orchestrator the API drives.
type CheckoutService interface {
	Submit(ctx context.Context, actor model.Actor, in usecase.CheckoutInput) (*usecase.CheckoutResult, error)
	LastOrder(ctx context.Context, sessionID string) (*model.Order, error)
}

// Deps groups everything the HTTP layer talks to.
type Deps struct {
	Auth     *AuthManager
	Catalog  usecase.CatalogUseCase
	Cart     usecase.CartUseCase
	Checkout CheckoutService
	Orders   usecase.OrderUseCase
	Tickets  usecase.TicketUseCase
	Balances usecase.BalanceUseCase
	Limiter  adapter.RateLimiter
	// Health reports readiness of backing stores; nil means always healthy.
	Health func(ctx context.Context) error
}

type Server struct {
	deps   Deps
	cfg    config.Config
	log    *zerolog.Logger
	server *http.Server
}

func NewServer(cfg config.Config, deps Deps, logger *zerolog.Logger) *Server {
	return &Server{deps: deps, cfg: cfg, log: logging.Component(logger, "api")}
}

// Router builds the chi router with every route mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log), Timeout(s.cfg.HTTP.RequestTimeout))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/session", s.handleSession)
		r.Get("/products", s.handleListProducts)
		r.Get("/products/{productID}", s.handleGetProduct)

		r.Group(func(r chi.Router) {
			r.Use(RequireSession(s.deps.Auth))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", s.handleGetCart)
				r.Delete("/", s.handleClearCart)
				r.Post("/items", s.handleAddItem)
				r.Patch("/items/{productID}", s.handleUpdateItem)
				r.Delete("/items/{productID}", s.handleRemoveItem)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.With(RateLimit(s.deps.Limiter, "checkout", s.cfg.Checkout.RateLimit, s.cfg.Checkout.RateWindow, s.log)).
					Post("/", s.handleCheckout)
				r.Get("/last", s.handleLastOrder)
			})

			r.Get("/balance", s.handleGetBalance)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", s.handleListOrders)
				r.With(OrderScope()).Get("/{orderID}", s.handleGetOrder)
				r.With(OrderScope()).Post("/{orderID}/tickets", s.handleOpenTicket)
				r.With(OrderScope()).Get("/{orderID}/tickets", s.handleListTickets)
			})

			r.Route("/support", func(r chi.Router) {
				r.Use(RequireRole(model.RoleSupport))
				r.Get("/orders/pending", s.handlePendingOrders)
				r.With(OrderScope()).Post("/orders/{orderID}/replacements", s.handleAppendReplacement)
				r.With(OrderScope()).Post("/orders/{orderID}/fulfill", s.handleFulfill)
				r.Put("/products/{productID}", s.handleUpsertProduct)
				r.Post("/balances/{userID}", s.handleCreditBalance)
			})
		})
	})
	return r
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.HTTP.Port),
		Handler:           s.Router(),
		ReadTimeout:       s.cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.cfg.HTTP.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	s.log.Info().Int("port", s.cfg.HTTP.Port).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		if err := s.deps.Health(r.Context()); err != nil {
			s.log.Warn().Err(err).Msg("health check failed")
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
