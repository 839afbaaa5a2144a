package worker

import (
	"context"
	"log"

	"marketplace-service/internal/broker"
	"marketplace-service/internal/models"
	"marketplace-service/internal/service"
)

// StockCacheWorker consumes marketplace events and keeps the Redis stock
// cache in step with the catalog.
type StockCacheWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	cache        *service.StockCache
}

// NewStockCacheWorker creates a new stock cache worker
func NewStockCacheWorker(consumer *broker.Consumer, cache *service.StockCache) *StockCacheWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnItemCreated(func(ctx context.Context, event *models.ItemCreatedEvent) error {
		return cache.Set(ctx, event.Title, event.Stock)
	})

	eventHandler.OnItemDeleted(func(ctx context.Context, event *models.ItemDeletedEvent) error {
		return cache.Evict(ctx, event.Title)
	})

	eventHandler.OnStockAdjusted(func(ctx context.Context, event *models.StockAdjustedEvent) error {
		return cache.Set(ctx, event.Title, event.Stock)
	})

	eventHandler.OnCheckoutCompleted(func(ctx context.Context, event *models.CheckoutCompletedEvent) error {
		for _, line := range event.Lines {
			if err := cache.Apply(ctx, line.Title, -line.Quantity); err != nil {
				return err
			}
		}
		return nil
	})

	return &StockCacheWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		cache:        cache,
	}
}

// Start starts the worker
func (w *StockCacheWorker) Start(ctx context.Context) error {
	log.Println("Starting stock cache worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *StockCacheWorker) Stop() error {
	log.Println("Stopping stock cache worker...")
	return w.consumer.Close()
}
