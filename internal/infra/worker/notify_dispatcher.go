package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"digital-storefront/internal/domain/ports/adapter"
	"digital-storefront/internal/infra/metrics"
)

var _ adapter.SupportNotifier = (*NotifyDispatcher)(nil)

// NotifyDispatcher hands support alerts to the pool so a slow chat API never
// holds up checkout. Each delivery gets its own timeout, detached from the
// request that produced it.
type NotifyDispatcher struct {
	pool    *Pool
	next    adapter.SupportNotifier
	timeout time.Duration
	log     *zerolog.Logger
}

func NewNotifyDispatcher(pool *Pool, next adapter.SupportNotifier, timeout time.Duration, logger *zerolog.Logger) *NotifyDispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NotifyDispatcher{pool: pool, next: next, timeout: timeout, log: logger}
}

func (d *NotifyDispatcher) Notify(ctx context.Context, text string) error {
	err := d.pool.Submit(func(workerCtx context.Context) error {
		sendCtx, cancel := context.WithTimeout(workerCtx, d.timeout)
		defer cancel()
		if err := d.next.Notify(sendCtx, text); err != nil {
			metrics.IncSupportNotification("error")
			return err
		}
		metrics.IncSupportNotification("ok")
		return nil
	})
	if err != nil {
		metrics.IncSupportNotification("dropped")
		d.log.Warn().Err(err).Msg("support alert dropped")
	}
	return err
}
