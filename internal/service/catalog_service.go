package service

import (
	"context"
	"strings"
	"time"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"
	"marketplace-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogService handles catalog business logic. Deleting an item cascades
// into the cart so no line ever references a missing title; the delete and
// the purge run under one hold of the shared cart lock.
type CatalogService struct {
	store     CatalogStore
	cart      *CartService
	lock      *CartLock
	lockWait  time.Duration
	publisher EventPublisher
	logger    *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	store CatalogStore,
	cart *CartService,
	lock *CartLock,
	lockWait time.Duration,
	publisher EventPublisher,
) *CatalogService {
	return &CatalogService{
		store:     store,
		cart:      cart,
		lock:      lock,
		lockWait:  lockWait,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// AddItemRequest represents a request to add a catalog item
type AddItemRequest struct {
	Title string `json:"title" binding:"required"`
	Price *int64 `json:"price" binding:"required"`
	Stock *int   `json:"stock" binding:"required"`
}

// AddItem creates a new catalog item with a fresh identifier.
func (s *CatalogService) AddItem(ctx context.Context, title string, price int64, stock int) (*models.Item, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.AddItem")
	defer span.End()

	if strings.TrimSpace(title) == "" {
		return nil, apperr.New(apperr.Validation, "item title must not be empty")
	}
	if price < 0 {
		return nil, apperr.New(apperr.Validation, "item price must not be negative, got %d", price)
	}
	if stock < 0 {
		return nil, apperr.New(apperr.Validation, "item stock must not be negative, got %d", stock)
	}

	item := &models.Item{Title: title, Price: price, Stock: stock}
	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	util.ItemsCreatedTotal.Inc()
	s.logger.Info("Item created",
		zap.String("title", item.Title),
		zap.Int64("price", item.Price),
		zap.Int("stock", item.Stock))

	s.publishItemCreated(ctx, item)
	return item, nil
}

// RemoveItem deletes a catalog item and purges any cart line referencing
// it, keeping the back-reference invariant intact. The cart lock is taken
// before the delete is issued, so a busy timeout leaves both stores
// untouched and the caller can simply retry.
func (s *CatalogService) RemoveItem(ctx context.Context, title string) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.RemoveItem")
	defer span.End()

	item, err := s.store.GetItemByTitle(ctx, title)
	if err != nil {
		return err
	}

	if err := s.lock.Acquire(ctx, s.lockWait); err != nil {
		return err
	}
	quantity, cart, err := s.removeItemLocked(ctx, item)
	s.lock.Release()
	if err != nil {
		s.logger.Error("Failed to delete item with cart purge",
			zap.String("title", title),
			zap.Error(err))
		return err
	}

	util.ItemsDeletedTotal.Inc()
	s.logger.Info("Item deleted", zap.String("title", title))

	s.publishItemDeleted(ctx, title)
	if quantity > 0 {
		s.cart.publishCartUpdated(ctx, cart, models.CartActionPurge, item.Title, quantity)
	}
	return nil
}

func (s *CatalogService) removeItemLocked(ctx context.Context, item *models.Item) (int, *models.Cart, error) {
	if err := s.store.DeleteItem(ctx, item.Title); err != nil {
		return 0, nil, err
	}
	return s.cart.purgeItemLocked(ctx, item)
}

// ListItems returns the full catalog. An empty catalog is reportable, not
// fatal.
func (s *CatalogService) ListItems(ctx context.Context) ([]models.Item, error) {
	items, err := s.store.GetItems(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperr.New(apperr.Empty, "there are no items in the marketplace")
	}
	return items, nil
}

// FindItemsByTitle looks up the zero-or-one item with the given title.
// With inStockOnly set, a zero-stock match is reported as empty.
func (s *CatalogService) FindItemsByTitle(ctx context.Context, title string, inStockOnly bool) ([]models.Item, error) {
	item, err := s.store.GetItemByTitle(ctx, title)
	if err != nil {
		return nil, err
	}
	if inStockOnly && item.Stock == 0 {
		return nil, apperr.New(apperr.Empty, "no items with title %q are in stock", title)
	}
	return []models.Item{*item}, nil
}

// Restock increases an item's stock by quantity. Negative adjustments
// happen only inside checkout's transaction.
func (s *CatalogService) Restock(ctx context.Context, title string, quantity int) (*models.Item, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.Restock")
	defer span.End()

	if quantity <= 0 {
		return nil, apperr.New(apperr.Validation, "restock quantity must be positive, got %d", quantity)
	}

	updated, err := s.store.AdjustStock(ctx, title, quantity)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Item restocked",
		zap.String("title", title),
		zap.Int("quantity", quantity),
		zap.Int("stock", updated))

	s.publishStockAdjusted(ctx, title, quantity, updated)

	return s.store.GetItemByTitle(ctx, title)
}

func (s *CatalogService) publishItemCreated(ctx context.Context, item *models.Item) {
	if s.publisher == nil {
		return
	}

	event := &models.ItemCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeItemCreated,
			Timestamp: time.Now(),
		},
		Title: item.Title,
		Price: item.Price,
		Stock: item.Stock,
	}

	if err := s.publisher.PublishItemCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish ItemCreated event",
			zap.String("title", item.Title),
			zap.Error(err))
	}
}

func (s *CatalogService) publishItemDeleted(ctx context.Context, title string) {
	if s.publisher == nil {
		return
	}

	event := &models.ItemDeletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeItemDeleted,
			Timestamp: time.Now(),
		},
		Title: title,
	}

	if err := s.publisher.PublishItemDeleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish ItemDeleted event",
			zap.String("title", title),
			zap.Error(err))
	}
}

func (s *CatalogService) publishStockAdjusted(ctx context.Context, title string, delta, stock int) {
	if s.publisher == nil {
		return
	}

	event := &models.StockAdjustedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeStockAdjusted,
			Timestamp: time.Now(),
		},
		Title: title,
		Delta: delta,
		Stock: stock,
	}

	if err := s.publisher.PublishStockAdjusted(ctx, event); err != nil {
		s.logger.Error("Failed to publish StockAdjusted event",
			zap.String("title", title),
			zap.Error(err))
	}
}
