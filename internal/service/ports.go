package service

import (
	"context"

	"marketplace-service/internal/models"
)

// CatalogStore is the persistence port for catalog items, keyed by their
// unique title.
type CatalogStore interface {
	CreateItem(ctx context.Context, item *models.Item) error
	DeleteItem(ctx context.Context, title string) error
	GetItems(ctx context.Context) ([]models.Item, error)
	GetItemByTitle(ctx context.Context, title string) (*models.Item, error)
	GetItemsByTitles(ctx context.Context, titles []string) ([]models.Item, error)
	AdjustStock(ctx context.Context, title string, delta int) (int, error)
}

// CartStore is the persistence port for the single active cart. CreateCart
// must be exactly-once under concurrent first accesses and return the
// winning record. CommitCheckout must apply all stock decrements plus the
// cart deletion atomically, re-validating quantities against current stock.
type CartStore interface {
	GetCart(ctx context.Context) (*models.Cart, error)
	CreateCart(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	SaveCart(ctx context.Context, cart *models.Cart) error
	PurgeLines(ctx context.Context, cartID, title string, amount int64) error
	CommitCheckout(ctx context.Context, cartID string) error
}

// EventPublisher publishes domain events after successful mutations.
type EventPublisher interface {
	PublishItemCreated(ctx context.Context, event *models.ItemCreatedEvent) error
	PublishItemDeleted(ctx context.Context, event *models.ItemDeletedEvent) error
	PublishStockAdjusted(ctx context.Context, event *models.StockAdjustedEvent) error
	PublishCartUpdated(ctx context.Context, event *models.CartUpdatedEvent) error
	PublishCheckoutCompleted(ctx context.Context, event *models.CheckoutCompletedEvent) error
}
