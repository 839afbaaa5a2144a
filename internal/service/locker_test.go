package service

import (
	"context"
	"testing"
	"time"

	"marketplace-service/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartLockAcquireRelease(t *testing.T) {
	lock := NewCartLock()
	ctx := context.Background()

	require.NoError(t, lock.Acquire(ctx, 10*time.Millisecond))
	lock.Release()
	require.NoError(t, lock.Acquire(ctx, 10*time.Millisecond))
	lock.Release()
}

func TestCartLockBusyOnTimeout(t *testing.T) {
	lock := NewCartLock()
	ctx := context.Background()

	require.NoError(t, lock.Acquire(ctx, 10*time.Millisecond))
	defer lock.Release()

	err := lock.Acquire(ctx, 10*time.Millisecond)
	assert.True(t, apperr.Is(err, apperr.Busy))
}

func TestCartLockCancelledContext(t *testing.T) {
	lock := NewCartLock()

	require.NoError(t, lock.Acquire(context.Background(), 10*time.Millisecond))
	defer lock.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := lock.Acquire(ctx, time.Second)
	assert.True(t, apperr.Is(err, apperr.Busy))
}
