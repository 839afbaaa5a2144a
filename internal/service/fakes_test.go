package service

import (
	"context"
	"sync"
	"time"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"
)

// In-memory stores implementing the persistence ports, with the same
// atomicity guarantees the Postgres store provides.

type fakeCatalog struct {
	mu     sync.Mutex
	items  map[string]*models.Item
	nextID int64
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{items: make(map[string]*models.Item)}
}

func (f *fakeCatalog) CreateItem(ctx context.Context, item *models.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.items[item.Title]; ok {
		return apperr.New(apperr.Conflict, "item title %q already taken", item.Title)
	}
	f.nextID++
	item.ID = f.nextID
	item.CreatedAt = time.Now()
	stored := *item
	f.items[item.Title] = &stored
	return nil
}

func (f *fakeCatalog) DeleteItem(ctx context.Context, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.items[title]; !ok {
		return apperr.New(apperr.NotFound, "item %q not found", title)
	}
	delete(f.items, title)
	return nil
}

func (f *fakeCatalog) GetItems(ctx context.Context) ([]models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items := make([]models.Item, 0, len(f.items))
	for _, item := range f.items {
		items = append(items, *item)
	}
	return items, nil
}

func (f *fakeCatalog) GetItemByTitle(ctx context.Context, title string) (*models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	item, ok := f.items[title]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "item %q not found", title)
	}
	copied := *item
	return &copied, nil
}

func (f *fakeCatalog) GetItemsByTitles(ctx context.Context, titles []string) ([]models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var items []models.Item
	for _, title := range titles {
		if item, ok := f.items[title]; ok {
			items = append(items, *item)
		}
	}
	return items, nil
}

func (f *fakeCatalog) AdjustStock(ctx context.Context, title string, delta int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	item, ok := f.items[title]
	if !ok {
		return 0, apperr.New(apperr.NotFound, "item %q not found", title)
	}
	updated := item.Stock + delta
	if updated < 0 {
		return 0, apperr.New(apperr.InsufficientStock,
			"stock for %q would go negative: have %d, delta %d", title, item.Stock, delta)
	}
	item.Stock = updated
	return updated, nil
}

// setStock mutates stock directly, simulating another writer changing the
// catalog behind the cart's back.
func (f *fakeCatalog) setStock(title string, stock int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[title].Stock = stock
}

// dropItem deletes an item without the purge cascade, manufacturing the
// inconsistent state checkout must detect.
func (f *fakeCatalog) dropItem(title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, title)
}

func (f *fakeCatalog) stockOf(title string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[title].Stock
}

type fakeCarts struct {
	mu      sync.Mutex
	cart    *models.Cart
	catalog *fakeCatalog
}

func newFakeCarts(catalog *fakeCatalog) *fakeCarts {
	return &fakeCarts{catalog: catalog}
}

func copyCart(cart *models.Cart) *models.Cart {
	copied := *cart
	copied.Lines = append([]models.CartLine(nil), cart.Lines...)
	return &copied
}

func (f *fakeCarts) GetCart(ctx context.Context) (*models.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cart == nil {
		return nil, apperr.New(apperr.NotFound, "no cart exists")
	}
	return copyCart(f.cart), nil
}

func (f *fakeCarts) CreateCart(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cart == nil {
		f.cart = copyCart(cart)
		f.cart.CreatedAt = time.Now()
	}
	return copyCart(f.cart), nil
}

func (f *fakeCarts) SaveCart(ctx context.Context, cart *models.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cart == nil || f.cart.ID != cart.ID {
		return apperr.New(apperr.NotFound, "cart %s not found", cart.ID)
	}
	saved := copyCart(cart)
	saved.UpdatedAt = time.Now()
	f.cart = saved
	return nil
}

func (f *fakeCarts) PurgeLines(ctx context.Context, cartID, title string, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cart == nil || f.cart.ID != cartID {
		return apperr.New(apperr.NotFound, "cart %s not found", cartID)
	}
	kept := f.cart.Lines[:0]
	for _, line := range f.cart.Lines {
		if line.Title != title {
			kept = append(kept, line)
		}
	}
	f.cart.Lines = kept
	f.cart.Total -= amount
	return nil
}

func (f *fakeCarts) CommitCheckout(ctx context.Context, cartID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cart == nil || f.cart.ID != cartID {
		return apperr.New(apperr.NotFound, "cart %s not found", cartID)
	}
	if len(f.cart.Lines) == 0 {
		return apperr.New(apperr.NotFound, "cart %s is empty", cartID)
	}

	f.catalog.mu.Lock()
	defer f.catalog.mu.Unlock()

	for _, line := range f.cart.Lines {
		item, ok := f.catalog.items[line.Title]
		if !ok {
			return apperr.New(apperr.InconsistentState,
				"cart references missing item %q", line.Title)
		}
		if line.Quantity > item.Stock {
			return apperr.New(apperr.InsufficientStock,
				"item %q: requested %d, in stock %d", line.Title, line.Quantity, item.Stock)
		}
	}

	for _, line := range f.cart.Lines {
		f.catalog.items[line.Title].Stock -= line.Quantity
	}
	f.cart = nil
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []interface{}
}

func (p *fakePublisher) record(event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) PublishItemCreated(ctx context.Context, e *models.ItemCreatedEvent) error {
	return p.record(e)
}

func (p *fakePublisher) PublishItemDeleted(ctx context.Context, e *models.ItemDeletedEvent) error {
	return p.record(e)
}

func (p *fakePublisher) PublishStockAdjusted(ctx context.Context, e *models.StockAdjustedEvent) error {
	return p.record(e)
}

func (p *fakePublisher) PublishCartUpdated(ctx context.Context, e *models.CartUpdatedEvent) error {
	return p.record(e)
}

func (p *fakePublisher) PublishCheckoutCompleted(ctx context.Context, e *models.CheckoutCompletedEvent) error {
	return p.record(e)
}

type testEnv struct {
	catalog   *fakeCatalog
	carts     *fakeCarts
	publisher *fakePublisher
	cartSvc   *CartService
	catSvc    *CatalogService
	coSvc     *CheckoutService
}

func newTestEnv() *testEnv {
	catalog := newFakeCatalog()
	carts := newFakeCarts(catalog)
	publisher := &fakePublisher{}
	lock := NewCartLock()
	wait := 2 * time.Second

	cartSvc := NewCartService(catalog, carts, lock, wait, publisher)
	catSvc := NewCatalogService(catalog, cartSvc, lock, wait, publisher)
	coSvc := NewCheckoutService(catalog, carts, lock, wait, publisher)

	return &testEnv{
		catalog:   catalog,
		carts:     carts,
		publisher: publisher,
		cartSvc:   cartSvc,
		catSvc:    catSvc,
		coSvc:     coSvc,
	}
}

func (e *testEnv) mustAddItem(title string, price int64, stock int) {
	if _, err := e.catSvc.AddItem(context.Background(), title, price, stock); err != nil {
		panic(err)
	}
}
