package session

import (
	"context"
	"sync"
)

// opLock is a mutex that grants ownership in strict arrival order. Release
// hands the lock directly to the oldest waiter, so queued label operations
// apply in the order they were triggered.
type opLock struct {
	mu      sync.Mutex
	locked  bool
	waiters []chan struct{}
}

func (l *opLock) acquire(ctx context.Context) error {
	l.mu.Lock()
	if !l.locked {
		l.locked = true
		l.mu.Unlock()
		return nil
	}

	ch := make(chan struct{})
	l.waiters = append(l.waiters, ch)
	l.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		for i, w := range l.waiters {
			if w == ch {
				l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
				l.mu.Unlock()
				return ctx.Err()
			}
		}
		l.mu.Unlock()
		// Ownership was handed over while we were cancelling; pass it on.
		l.release()
		return ctx.Err()
	}
}

func (l *opLock) release() {
	l.mu.Lock()
	if len(l.waiters) > 0 {
		ch := l.waiters[0]
		l.waiters = l.waiters[1:]
		l.mu.Unlock()
		close(ch)
		return
	}
	l.locked = false
	l.mu.Unlock()
}
