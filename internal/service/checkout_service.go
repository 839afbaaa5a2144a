package service

import (
	"context"
	"time"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"
	"marketplace-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutService converts the cart into permanent stock decrements and
// clears it, as one all-or-nothing unit. Validation failures leave both the
// cart and catalog stock unmodified.
type CheckoutService struct {
	catalog   CatalogStore
	carts     CartStore
	lock      *CartLock
	lockWait  time.Duration
	publisher EventPublisher
	logger    *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	catalog CatalogStore,
	carts CartStore,
	lock *CartLock,
	lockWait time.Duration,
	publisher EventPublisher,
) *CheckoutService {
	return &CheckoutService{
		catalog:   catalog,
		carts:     carts,
		lock:      lock,
		lockWait:  lockWait,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// Checkout validates every cart line against current stock, then applies
// all decrements and deletes the cart atomically. Stock is re-validated
// here rather than trusted from add-time, because it may have changed
// since.
func (s *CheckoutService) Checkout(ctx context.Context) (*models.CheckoutReceipt, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Checkout")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	if err := s.lock.Acquire(ctx, s.lockWait); err != nil {
		util.CheckoutsFailedTotal.WithLabelValues("busy").Inc()
		return nil, err
	}
	receipt, event, err := s.checkoutLocked(ctx)
	s.lock.Release()
	if err != nil {
		util.CheckoutsFailedTotal.WithLabelValues(apperr.KindOf(err).String()).Inc()
		return nil, err
	}

	util.CheckoutsTotal.Inc()
	s.logger.Info("Checkout completed",
		zap.String("cart_id", event.CartID),
		zap.Int64("total", receipt.Total))

	s.publishCheckoutCompleted(ctx, event)
	return receipt, nil
}

func (s *CheckoutService) checkoutLocked(ctx context.Context) (*models.CheckoutReceipt, *models.CheckoutCompletedEvent, error) {
	cart, err := s.carts.GetCart(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(cart.Lines) == 0 {
		return nil, nil, apperr.New(apperr.NotFound, "there is no cart to checkout")
	}

	titles := make([]string, len(cart.Lines))
	for i, line := range cart.Lines {
		titles[i] = line.Title
	}

	items, err := s.catalog.GetItemsByTitles(ctx, titles)
	if err != nil {
		return nil, nil, err
	}

	itemMap := make(map[string]*models.Item, len(items))
	for i := range items {
		itemMap[items[i].Title] = &items[i]
	}

	// the purge cascade should make dangling titles impossible, but
	// checkout is the wrong place to trust that
	lines := make([]models.CartLineData, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		item, ok := itemMap[line.Title]
		if !ok {
			return nil, nil, apperr.New(apperr.InconsistentState,
				"cart references missing item %q", line.Title)
		}
		if line.Quantity > item.Stock {
			return nil, nil, apperr.New(apperr.InsufficientStock,
				"item %q: requested %d, in stock %d", line.Title, line.Quantity, item.Stock)
		}
		lines = append(lines, models.CartLineData{
			Title:     line.Title,
			Quantity:  line.Quantity,
			UnitPrice: item.Price,
		})
	}

	// CommitCheckout re-validates under row locks, so a stock change that
	// slips in between the batch lookup and here still cannot oversell
	if err := s.carts.CommitCheckout(ctx, cart.ID); err != nil {
		return nil, nil, err
	}

	receipt := &models.CheckoutReceipt{
		Status: models.CheckoutStatusSuccess,
		Total:  cart.Total,
	}
	event := &models.CheckoutCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeCheckoutCompleted,
			Timestamp: time.Now(),
		},
		CartID: cart.ID,
		Total:  cart.Total,
		Lines:  lines,
	}
	return receipt, event, nil
}

func (s *CheckoutService) publishCheckoutCompleted(ctx context.Context, event *models.CheckoutCompletedEvent) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.PublishCheckoutCompleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish CheckoutCompleted event",
			zap.String("cart_id", event.CartID),
			zap.Error(err))
	}
}
