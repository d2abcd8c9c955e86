package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"digital-storefront/internal/domain/model"
	"digital-storefront/internal/domain/ports/adapter"
	"digital-storefront/internal/infra/metrics"
)

var _ adapter.EventPublisher = (*Bus)(nil)

// Sink receives every event published on the bus.
type Sink interface {
	Name() string
	Handle(ctx context.Context, e model.Event) error
}

// Bus fans a domain event out to its sinks in registration order.
// A failing sink does not stop the others; their errors are joined.
type Bus struct {
	mu    sync.RWMutex
	sinks []Sink
	log   *zerolog.Logger
}

func NewBus(logger *zerolog.Logger, sinks ...Sink) *Bus {
	return &Bus{sinks: sinks, log: logger}
}

func (b *Bus) Subscribe(s Sink) {
	b.mu.Lock()
	b.sinks = append(b.sinks, s)
	b.mu.Unlock()
}

func (b *Bus) Publish(ctx context.Context, e model.Event) error {
	b.mu.RLock()
	sinks := make([]Sink, len(b.sinks))
	copy(sinks, b.sinks)
	b.mu.RUnlock()

	var errs []error
	for _, s := range sinks {
		if err := s.Handle(ctx, e); err != nil {
			metrics.IncEventPublished(s.Name(), "error")
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		metrics.IncEventPublished(s.Name(), "ok")
	}
	return errors.Join(errs...)
}

// -----------------------------
// Built-in sinks
// -----------------------------

// LogSink writes each event as a debug line.
type LogSink struct {
	log *zerolog.Logger
}

func NewLogSink(logger *zerolog.Logger) *LogSink { return &LogSink{log: logger} }

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Handle(_ context.Context, e model.Event) error {
	ev := s.log.Debug().Str("event", string(e.Type)).Time("at", e.At)
	if e.SessionID != "" {
		ev = ev.Str("session_id", e.SessionID)
	}
	if e.OrderID != "" {
		ev = ev.Str("order_id", e.OrderID)
	}
	if e.ProductID != "" {
		ev = ev.Str("product_id", e.ProductID).Int("quantity", e.Quantity)
	}
	ev.Msg("domain event")
	return nil
}

// MetricsSink turns events into storefront counters.
type MetricsSink struct{}

func (MetricsSink) Name() string { return "metrics" }

func (MetricsSink) Handle(_ context.Context, e model.Event) error {
	switch e.Type {
	case model.EventCartItemAdded:
		metrics.IncCartMutation("add")
	case model.EventCartItemRemoved:
		metrics.IncCartMutation("remove")
	case model.EventCartQuantityUpdated:
		metrics.IncCartMutation("update")
	case model.EventCartCleared:
		metrics.IncCartMutation("clear")
	case model.EventOrderPlaced:
		metrics.AddCheckoutRevenue(e.Method, e.Amount)
	case model.EventOrderFulfilled:
		metrics.IncDeliveryOutcome(e.Method)
	case model.EventOrderReplacementAdded:
		metrics.IncReplacement()
	}
	return nil
}
