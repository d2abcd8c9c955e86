package sched

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"digital-storefront/internal/domain/model"
	"digital-storefront/internal/domain/ports/adapter"
	"digital-storefront/internal/infra/logging"
	"digital-storefront/internal/infra/metrics"
)

// PendingFinder lists orders whose manual lines have waited longer than age.
type PendingFinder interface {
	PendingOlderThan(ctx context.Context, age time.Duration, limit int) ([]*model.Order, error)
}

// SLAWatchdog periodically looks for orders stuck in processing past the
// fulfillment window and escalates them to support, once per order.
type SLAWatchdog struct {
	interval time.Duration
	window   time.Duration
	limit    int
	orders   PendingFinder
	notifier adapter.SupportNotifier
	log      *zerolog.Logger

	alerted map[string]struct{}
}

func NewSLAWatchdog(interval, window time.Duration, orders PendingFinder, notifier adapter.SupportNotifier, logger *zerolog.Logger) *SLAWatchdog {
	if interval <= 0 {
		interval = time.Minute
	}
	if window <= 0 {
		window = 30 * time.Minute
	}
	return &SLAWatchdog{
		interval: interval,
		window:   window,
		limit:    200,
		orders:   orders,
		notifier: notifier,
		log:      logging.Component(logger, "SLAWatchdog"),
		alerted:  make(map[string]struct{}),
	}
}

func (w *SLAWatchdog) Run(ctx context.Context) error {
	w.log.Info().Dur("window", w.window).Msg("Starting SLA watchdog")
	w.runCheck(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping SLA watchdog")
			return ctx.Err()
		case <-ticker.C:
			w.runCheck(ctx)
		}
	}
}

// runCheck returns the number of orders newly escalated.
func (w *SLAWatchdog) runCheck(ctx context.Context) int {
	late, err := w.orders.PendingOlderThan(ctx, w.window, w.limit)
	if err != nil {
		w.log.Error().Err(err).Msg("pending order scan failed")
		return 0
	}
	metrics.SetOrdersPendingOverSLA(len(late))

	still := make(map[string]struct{}, len(late))
	var fresh []*model.Order
	for _, o := range late {
		still[o.ID] = struct{}{}
		if _, done := w.alerted[o.ID]; !done {
			fresh = append(fresh, o)
		}
	}
	// forget orders that were fulfilled since the last pass
	for id := range w.alerted {
		if _, ok := still[id]; !ok {
			delete(w.alerted, id)
		}
	}
	if len(fresh) == 0 {
		return 0
	}

	if err := w.notifier.Notify(ctx, overdueMessage(fresh, w.window)); err != nil {
		w.log.Warn().Err(err).Int("count", len(fresh)).Msg("overdue alert not sent")
		return 0
	}
	for _, o := range fresh {
		w.alerted[o.ID] = struct{}{}
	}
	w.log.Info().Int("count", len(fresh)).Msg("overdue orders escalated")
	return len(fresh)
}

func overdueMessage(orders []*model.Order, window time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d order(s) still processing after %s:", len(orders), window)
	for _, o := range orders {
		fmt.Fprintf(&b, "\n- %s (placed %s)", o.ID, o.PurchasedAt.UTC().Format(time.RFC3339))
	}
	return b.String()
}
