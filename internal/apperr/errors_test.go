package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := New(NotFound, "item %q not found", "Widget")
	assert.Equal(t, NotFound, KindOf(err))
	assert.True(t, Is(err, NotFound))
	assert.False(t, Is(err, Conflict))
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := New(InsufficientStock, "requested 6, in stock 5")
	wrapped := fmt.Errorf("add to cart: %w", inner)

	assert.True(t, Is(wrapped, InsufficientStock))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(StoreUnavailable, cause, "get cart")

	assert.True(t, Is(err, StoreUnavailable))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
	assert.False(t, Is(nil, NotFound))
}
