package service

import (
	"context"
	"time"

	"marketplace-service/internal/apperr"
)

// CartLock serializes cart mutations and checkout. Acquire waits a bounded
// time and reports busy on timeout so callers can retry instead of blocking
// indefinitely.
type CartLock struct {
	ch chan struct{}
}

// NewCartLock creates an unlocked cart lock
func NewCartLock() *CartLock {
	return &CartLock{ch: make(chan struct{}, 1)}
}

// Acquire takes the lock, waiting at most wait.
func (l *CartLock) Acquire(ctx context.Context, wait time.Duration) error {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case l.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return apperr.Wrap(apperr.Busy, ctx.Err(), "cart lock wait cancelled")
	case <-timer.C:
		return apperr.New(apperr.Busy, "cart is busy, retry")
	}
}

// Release releases the lock. Must only be called after a successful Acquire.
func (l *CartLock) Release() {
	<-l.ch
}
