//go:build !integration

package sched

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"digital-storefront/internal/domain/model"
)

type mockFinder struct {
	orders []*model.Order
	err    error
}

func (m *mockFinder) PendingOlderThan(ctx context.Context, age time.Duration, limit int) ([]*model.Order, error) {
	return m.orders, m.err
}

type mockNotifier struct {
	texts []string
	err   error
}

func (m *mockNotifier) Notify(ctx context.Context, text string) error {
	if m.err != nil {
		return m.err
	}
	m.texts = append(m.texts, text)
	return nil
}

func TestSLAWatchdog_RunCheck(t *testing.T) {
	logger := zerolog.New(io.Discard)
	ctx := context.Background()
	o1 := &model.Order{ID: "ORD1", PurchasedAt: time.Now().Add(-time.Hour)}
	o2 := &model.Order{ID: "ORD2", PurchasedAt: time.Now().Add(-2 * time.Hour)}

	t.Run("should escalate each late order once", func(t *testing.T) {
		finder := &mockFinder{orders: []*model.Order{o1}}
		notifier := &mockNotifier{}
		w := NewSLAWatchdog(time.Minute, 30*time.Minute, finder, notifier, &logger)

		if n := w.runCheck(ctx); n != 1 {
			t.Fatalf("expected 1 escalation, got %d", n)
		}
		if n := w.runCheck(ctx); n != 0 {
			t.Errorf("expected no repeat escalation, got %d", n)
		}
		finder.orders = []*model.Order{o1, o2}
		if n := w.runCheck(ctx); n != 1 {
			t.Errorf("expected only the new order, got %d", n)
		}
		if len(notifier.texts) != 2 || !strings.Contains(notifier.texts[1], "ORD2") {
			t.Errorf("unexpected alerts %v", notifier.texts)
		}
	})

	t.Run("should retry when the alert could not be sent", func(t *testing.T) {
		finder := &mockFinder{orders: []*model.Order{o1}}
		notifier := &mockNotifier{err: errors.New("down")}
		w := NewSLAWatchdog(time.Minute, 30*time.Minute, finder, notifier, &logger)

		if n := w.runCheck(ctx); n != 0 {
			t.Fatalf("expected 0, got %d", n)
		}
		notifier.err = nil
		if n := w.runCheck(ctx); n != 1 {
			t.Errorf("expected the retry to escalate, got %d", n)
		}
	})

	t.Run("should survive scan errors", func(t *testing.T) {
		w := NewSLAWatchdog(time.Minute, 30*time.Minute, &mockFinder{err: errors.New("db down")}, &mockNotifier{}, &logger)
		if n := w.runCheck(ctx); n != 0 {
			t.Errorf("expected 0, got %d", n)
		}
	})

	t.Run("should stop when the context ends", func(t *testing.T) {
		w := NewSLAWatchdog(10*time.Millisecond, time.Minute, &mockFinder{}, &mockNotifier{}, &logger)
		cctx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
		defer cancel()
		if err := w.Run(cctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	})
}
