//go:build !integration

package usecase

import (
	"sync"
	"testing"
)

func TestSessionLocks(t *testing.T) {
	t.Run("should serialise holders of one session", func(t *testing.T) {
		l := NewSessionLocks()
		var (
			wg      sync.WaitGroup
			counter int
		)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := l.Lock("s1")
				counter++
				unlock()
			}()
		}
		wg.Wait()
		if counter != 50 {
			t.Errorf("expected 50, got %d", counter)
		}
	})

	t.Run("should drop released entries", func(t *testing.T) {
		l := NewSessionLocks()
		unlockA := l.Lock("a")
		unlockB := l.Lock("b")
		if l.size() != 2 {
			t.Fatalf("expected 2 entries, got %d", l.size())
		}
		unlockA()
		unlockB()
		if l.size() != 0 {
			t.Errorf("expected no entries, got %d", l.size())
		}
	})
}
