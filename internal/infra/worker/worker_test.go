//go:build !integration

package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func TestPool(t *testing.T) {
	t.Run("should run queued tasks before stopping", func(t *testing.T) {
		p := NewPool(2, newTestLogger())
		p.Start(context.Background())

		var ran int32
		for i := 0; i < 6; i++ {
			require.NoError(t, p.Submit(func(ctx context.Context) error {
				atomic.AddInt32(&ran, 1)
				return nil
			}))
		}
		p.Stop()
		assert.Equal(t, int32(6), atomic.LoadInt32(&ran))
		assert.ErrorIs(t, p.Submit(func(ctx context.Context) error { return nil }), ErrStopped)
	})

	t.Run("should reject when saturated", func(t *testing.T) {
		p := NewPool(1, newTestLogger())
		for i := 0; i < 4; i++ {
			require.NoError(t, p.Submit(func(ctx context.Context) error { return nil }))
		}
		assert.ErrorIs(t, p.Submit(func(ctx context.Context) error { return nil }), ErrQueueFull)
		assert.ErrorIs(t, p.Submit(nil), ErrNilTask)
	})
}

type recordingNotifier struct {
	mu   sync.Mutex
	got  []string
	fail bool
}

func (r *recordingNotifier) Notify(ctx context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("down")
	}
	r.got = append(r.got, text)
	return nil
}

func TestNotifyDispatcher(t *testing.T) {
	p := NewPool(1, newTestLogger())
	p.Start(context.Background())
	next := &recordingNotifier{}
	d := NewNotifyDispatcher(p, next, time.Second, newTestLogger())

	// a cancelled request context must not cancel the delivery
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.Notify(ctx, "Order ORD1 needs manual fulfillment"))
	p.Stop()

	require.Len(t, next.got, 1)
	assert.Contains(t, next.got[0], "ORD1")
}
