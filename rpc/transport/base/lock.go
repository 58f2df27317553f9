package base

import (
	"context"
	"github.com/edwingeng/deque/v2"
	"sync"
)

// waiter is a goroutine queued for the connection
type waiter struct {
	ready     chan struct{} // closed when the lock is handed over
	abandoned bool          // the waiter gave up, skip it on hand over
}

// connLock is a mutual exclusion lock that hands the connection over to
// waiters in arrival order.
//
// Waiters are pushed to the front and popped from the back of the deque.
type connLock struct {
	mu      sync.Mutex
	held    bool
	waiters *deque.Deque[*waiter]
}

func newConnLock() *connLock {
	return &connLock{
		waiters: deque.NewDeque[*waiter](),
	}
}

// Lock acquires the lock or returns the context error if ctx is done first
func (l *connLock) Lock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	if !l.held {
		l.held = true
		l.mu.Unlock()
		return nil
	}
	w := &waiter{ready: make(chan struct{})}
	l.waiters.PushFront(w)
	l.mu.Unlock()

	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		select {
		case <-w.ready:
			// handed over while we were cancelled, we own the lock now
			l.mu.Unlock()
			l.Unlock()
		default:
			w.abandoned = true
			l.mu.Unlock()
		}
		return ctx.Err()
	}
}

// Unlock hands the lock to the longest waiting goroutine or releases it
func (l *connLock) Unlock() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.held {
		panic("keyz: unlock of unlocked connection lock")
	}

	for l.waiters.Len() > 0 {
		w := l.waiters.PopBack()
		if w.abandoned {
			continue
		}
		// ownership passes directly, held stays true
		close(w.ready)
		return
	}
	l.held = false
}

// queued returns the number of goroutines waiting for the lock (including abandoned ones)
func (l *connLock) queued() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.waiters.Len()
}
