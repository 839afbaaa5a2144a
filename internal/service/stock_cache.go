package service

import (
	"context"
	"fmt"

	"marketplace-service/internal/redisclient"
	"marketplace-service/internal/util"

	"go.uber.org/zap"
)

// StockCache serves stock counts from Redis with a database fallback. The
// cache is advisory: the no-oversell checks always run against the catalog
// store, this only keeps availability reads off the database.
type StockCache struct {
	catalog CatalogStore
	redis   *redisclient.Client
	logger  *zap.Logger
}

// NewStockCache creates a new stock cache
func NewStockCache(catalog CatalogStore, redis *redisclient.Client) *StockCache {
	return &StockCache{
		catalog: catalog,
		redis:   redis,
		logger:  util.GetLogger(),
	}
}

// Available returns the current stock count for an item (fast path via
// Redis, falling back to the catalog store on a miss).
func (sc *StockCache) Available(ctx context.Context, title string) (int, error) {
	ctx, span := util.StartSpan(ctx, "StockCache.Available")
	defer span.End()

	stock, ok, err := sc.redis.GetStock(ctx, title)
	if err != nil {
		sc.logger.Warn("Stock cache read failed, falling back to DB",
			zap.String("title", title),
			zap.Error(err))
	} else if ok {
		util.StockCacheHitsTotal.Inc()
		return stock, nil
	}

	util.StockCacheMissesTotal.Inc()

	item, err := sc.catalog.GetItemByTitle(ctx, title)
	if err != nil {
		return 0, err
	}

	if err := sc.redis.SetStock(ctx, title, item.Stock); err != nil {
		sc.logger.Warn("Failed to refill stock cache",
			zap.String("title", title),
			zap.Error(err))
	}
	return item.Stock, nil
}

// Set caches a known stock count
func (sc *StockCache) Set(ctx context.Context, title string, stock int) error {
	return sc.redis.SetStock(ctx, title, stock)
}

// Apply adjusts the cached count by delta. On a cache miss the entry is
// re-synced from the catalog store instead.
func (sc *StockCache) Apply(ctx context.Context, title string, delta int) error {
	updated, err := sc.redis.AdjustStock(ctx, title, delta)
	if err != nil {
		return err
	}
	if updated < 0 {
		return sc.Refresh(ctx, title)
	}
	return nil
}

// Refresh re-reads an item's stock from the catalog store into the cache
func (sc *StockCache) Refresh(ctx context.Context, title string) error {
	item, err := sc.catalog.GetItemByTitle(ctx, title)
	if err != nil {
		return err
	}
	return sc.redis.SetStock(ctx, title, item.Stock)
}

// Evict drops an item's cached stock count
func (sc *StockCache) Evict(ctx context.Context, title string) error {
	return sc.redis.EvictStock(ctx, title)
}

// Sync loads every catalog item's stock count into Redis. Called once at
// startup, like after a cache flush.
func (sc *StockCache) Sync(ctx context.Context) error {
	sc.logger.Info("Starting stock sync to Redis")

	items, err := sc.catalog.GetItems(ctx)
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}

	for _, item := range items {
		if err := sc.redis.SetStock(ctx, item.Title, item.Stock); err != nil {
			sc.logger.Error("Failed to cache stock",
				zap.String("title", item.Title),
				zap.Error(err))
		}
	}

	sc.logger.Info("Stock sync completed", zap.Int("count", len(items)))
	return nil
}
