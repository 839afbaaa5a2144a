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

// CartService mutates the single cart under the no-oversell invariant: a
// cart line may never request more than the referenced item's current
// stock. Mutations are serialized by the shared cart lock; the lock covers
// only the validate+write sequence, event publishing happens outside it.
type CartService struct {
	catalog   CatalogStore
	carts     CartStore
	lock      *CartLock
	lockWait  time.Duration
	publisher EventPublisher
	logger    *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(
	catalog CatalogStore,
	carts CartStore,
	lock *CartLock,
	lockWait time.Duration,
	publisher EventPublisher,
) *CartService {
	return &CartService{
		catalog:   catalog,
		carts:     carts,
		lock:      lock,
		lockWait:  lockWait,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// GetOrCreateCart returns the active cart, creating an empty one if none
// exists. Creation is exactly-once: the store's singleton constraint
// resolves concurrent first accesses to a single winning record.
func (s *CartService) GetOrCreateCart(ctx context.Context) (*models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "CartService.GetOrCreateCart")
	defer span.End()

	cart, err := s.carts.GetCart(ctx)
	if err == nil {
		return cart, nil
	}
	if !apperr.Is(err, apperr.NotFound) {
		return nil, err
	}

	fresh := &models.Cart{
		ID:    uuid.New().String(),
		Lines: []models.CartLine{},
		Total: 0,
	}
	return s.carts.CreateCart(ctx, fresh)
}

// AddItem adds quantity units of the titled item to the cart.
func (s *CartService) AddItem(ctx context.Context, title string, quantity int) (*models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "CartService.AddItem")
	defer span.End()

	if err := validateLineInput(title, quantity); err != nil {
		return nil, err
	}

	if err := s.lock.Acquire(ctx, s.lockWait); err != nil {
		util.CartRejectionsTotal.WithLabelValues("busy").Inc()
		return nil, err
	}
	cart, err := s.addItemLocked(ctx, title, quantity)
	s.lock.Release()
	if err != nil {
		if apperr.Is(err, apperr.InsufficientStock) {
			util.CartRejectionsTotal.WithLabelValues("insufficient_stock").Inc()
		}
		return nil, err
	}

	util.CartAddsTotal.Inc()
	s.publishCartUpdated(ctx, cart, models.CartActionAdd, title, quantity)
	return cart, nil
}

func (s *CartService) addItemLocked(ctx context.Context, title string, quantity int) (*models.Cart, error) {
	item, err := s.catalog.GetItemByTitle(ctx, title)
	if err != nil {
		return nil, err
	}

	cart, err := s.GetOrCreateCart(ctx)
	if err != nil {
		return nil, err
	}

	if i := cart.LineFor(title); i >= 0 {
		updated := cart.Lines[i].Quantity + quantity
		if updated > item.Stock {
			return nil, apperr.New(apperr.InsufficientStock,
				"item %q: requested %d, in stock %d", title, updated, item.Stock)
		}
		cart.Lines[i].Quantity = updated
	} else {
		if quantity > item.Stock {
			return nil, apperr.New(apperr.InsufficientStock,
				"item %q: requested %d, in stock %d", title, quantity, item.Stock)
		}
		cart.Lines = append(cart.Lines, models.CartLine{Title: title, Quantity: quantity})
	}

	// total was consistent before this call, so the incremental update
	// keeps it consistent
	cart.Total += item.Price * int64(quantity)

	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem removes quantity units of the titled item from the cart. A
// line decremented to zero is deleted rather than left behind.
func (s *CartService) RemoveItem(ctx context.Context, title string, quantity int) (*models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "CartService.RemoveItem")
	defer span.End()

	if err := validateLineInput(title, quantity); err != nil {
		return nil, err
	}

	if err := s.lock.Acquire(ctx, s.lockWait); err != nil {
		util.CartRejectionsTotal.WithLabelValues("busy").Inc()
		return nil, err
	}
	cart, err := s.removeItemLocked(ctx, title, quantity)
	s.lock.Release()
	if err != nil {
		return nil, err
	}

	util.CartRemovesTotal.Inc()
	s.publishCartUpdated(ctx, cart, models.CartActionRemove, title, quantity)
	return cart, nil
}

func (s *CartService) removeItemLocked(ctx context.Context, title string, quantity int) (*models.Cart, error) {
	item, err := s.catalog.GetItemByTitle(ctx, title)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.GetCart(ctx)
	if err != nil {
		return nil, err
	}

	i := cart.LineFor(title)
	if i < 0 {
		return nil, apperr.New(apperr.NotFound, "item %q is not in the cart", title)
	}
	if quantity > cart.Lines[i].Quantity {
		return nil, apperr.New(apperr.Validation,
			"cannot remove %d of %q, only %d in cart", quantity, title, cart.Lines[i].Quantity)
	}

	cart.Lines[i].Quantity -= quantity
	if cart.Lines[i].Quantity == 0 {
		cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
	}
	cart.Total -= item.Price * int64(quantity)

	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// purgeItemLocked removes every line referencing a deleted catalog item and
// adjusts the cached total, in one atomic write. Invoked by the catalog
// service as the delete cascade, inside its hold of the cart lock; the item
// no longer exists, so its last known price rides in on the item argument.
func (s *CartService) purgeItemLocked(ctx context.Context, item *models.Item) (int, *models.Cart, error) {
	cart, err := s.carts.GetCart(ctx)
	if apperr.Is(err, apperr.NotFound) {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, err
	}

	i := cart.LineFor(item.Title)
	if i < 0 {
		return 0, nil, nil
	}

	quantity := cart.Lines[i].Quantity
	amount := item.Price * int64(quantity)
	if err := s.carts.PurgeLines(ctx, cart.ID, item.Title, amount); err != nil {
		return 0, nil, err
	}

	cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
	cart.Total -= amount
	return quantity, cart, nil
}

func (s *CartService) publishCartUpdated(ctx context.Context, cart *models.Cart, action, title string, quantity int) {
	if s.publisher == nil {
		return
	}

	event := &models.CartUpdatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeCartUpdated,
			Timestamp: time.Now(),
		},
		CartID:   cart.ID,
		Action:   action,
		Title:    title,
		Quantity: quantity,
		Total:    cart.Total,
	}

	if err := s.publisher.PublishCartUpdated(ctx, event); err != nil {
		s.logger.Error("Failed to publish CartUpdated event",
			zap.String("cart_id", cart.ID),
			zap.Error(err))
	}
}

func validateLineInput(title string, quantity int) error {
	if strings.TrimSpace(title) == "" {
		return apperr.New(apperr.Validation, "item title must not be empty")
	}
	if quantity <= 0 {
		return apperr.New(apperr.Validation, "quantity must be positive, got %d", quantity)
	}
	return nil
}
