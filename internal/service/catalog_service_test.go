package service

import (
	"context"
	"testing"
	"time"

	"marketplace-service/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogAddItem(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	item, err := env.catSvc.AddItem(ctx, "Widget", 1000, 5)
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
	assert.Equal(t, "Widget", item.Title)
	assert.Equal(t, int64(1000), item.Price)
	assert.Equal(t, 5, item.Stock)
}

func TestCatalogAddItemValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	cases := []struct {
		name  string
		title string
		price int64
		stock int
	}{
		{"empty title", "", 100, 1},
		{"blank title", "   ", 100, 1},
		{"negative price", "Widget", -1, 1},
		{"negative stock", "Widget", 100, -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.catSvc.AddItem(ctx, tc.title, tc.price, tc.stock)
			assert.True(t, apperr.Is(err, apperr.Validation))
		})
	}
}

func TestCatalogAddItemDuplicateTitle(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.mustAddItem("Widget", 1000, 5)

	_, err := env.catSvc.AddItem(ctx, "Widget", 500, 3)
	assert.True(t, apperr.Is(err, apperr.Conflict))
}

func TestCatalogListItems(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.catSvc.ListItems(ctx)
	assert.True(t, apperr.Is(err, apperr.Empty))

	env.mustAddItem("Widget", 1000, 5)
	env.mustAddItem("Gadget", 500, 0)

	items, err := env.catSvc.ListItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestCatalogFindItemsByTitle(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.mustAddItem("Widget", 1000, 5)
	env.mustAddItem("Gadget", 500, 0)

	items, err := env.catSvc.FindItemsByTitle(ctx, "Widget", false)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Widget", items[0].Title)

	_, err = env.catSvc.FindItemsByTitle(ctx, "Ghost", false)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	// zero-stock match filtered out
	_, err = env.catSvc.FindItemsByTitle(ctx, "Gadget", true)
	assert.True(t, apperr.Is(err, apperr.Empty))

	items, err = env.catSvc.FindItemsByTitle(ctx, "Widget", true)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCatalogRemoveItem(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.mustAddItem("Widget", 1000, 5)

	require.NoError(t, env.catSvc.RemoveItem(ctx, "Widget"))

	err := env.catSvc.RemoveItem(ctx, "Widget")
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestCatalogRemoveItemBusyLeavesStateUntouched(t *testing.T) {
	catalog := newFakeCatalog()
	carts := newFakeCarts(catalog)
	lock := NewCartLock()
	publisher := &fakePublisher{}
	cartSvc := NewCartService(catalog, carts, lock, 20*time.Millisecond, publisher)
	catSvc := NewCatalogService(catalog, cartSvc, lock, 20*time.Millisecond, publisher)

	ctx := context.Background()
	_, err := catSvc.AddItem(ctx, "Widget", 10, 5)
	require.NoError(t, err)
	_, err = cartSvc.AddItem(ctx, "Widget", 2)
	require.NoError(t, err)

	// a busy cart lock must surface before the catalog delete is issued
	require.NoError(t, lock.Acquire(ctx, time.Second))
	err = catSvc.RemoveItem(ctx, "Widget")
	assert.True(t, apperr.Is(err, apperr.Busy))
	lock.Release()

	// neither store mutated: the item is still in the catalog and the
	// cart line still resolves
	item, err := catalog.GetItemByTitle(ctx, "Widget")
	require.NoError(t, err)
	assert.Equal(t, 5, item.Stock)

	cart, err := carts.GetCart(ctx)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, int64(20), cart.Total)

	// the retry completes the cascade
	require.NoError(t, catSvc.RemoveItem(ctx, "Widget"))
	_, err = catalog.GetItemByTitle(ctx, "Widget")
	assert.True(t, apperr.Is(err, apperr.NotFound))

	cart, err = carts.GetCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
	assert.Zero(t, cart.Total)
}

func TestCatalogRestock(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.mustAddItem("Widget", 1000, 5)

	item, err := env.catSvc.Restock(ctx, "Widget", 7)
	require.NoError(t, err)
	assert.Equal(t, 12, item.Stock)

	_, err = env.catSvc.Restock(ctx, "Widget", 0)
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = env.catSvc.Restock(ctx, "Widget", -2)
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = env.catSvc.Restock(ctx, "Ghost", 1)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}
