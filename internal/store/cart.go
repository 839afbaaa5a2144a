package store

import (
	"context"
	"database/sql"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"
)

// GetCart retrieves the single active cart with its lines in insertion
// order.
func (s *Store) GetCart(ctx context.Context) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.GetContext(ctx, &cart,
		"SELECT id, total, created_at, updated_at FROM carts LIMIT 1")
	if err == sql.ErrNoRows {
		return nil, apperr.New(apperr.NotFound, "no cart exists")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, err, "get cart")
	}

	err = s.db.SelectContext(ctx, &cart.Lines,
		"SELECT title, quantity FROM cart_lines WHERE cart_id = $1 ORDER BY position",
		cart.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, err, "get cart lines")
	}
	return &cart, nil
}

// CreateCart inserts the cart if none exists yet. The unique singleton
// constraint makes creation exactly-once under concurrent first accesses;
// the winning record is returned either way.
func (s *Store) CreateCart(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO carts (id, total) VALUES ($1, $2) ON CONFLICT (singleton) DO NOTHING",
		cart.ID, cart.Total)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, err, "create cart")
	}
	return s.GetCart(ctx)
}

// SaveCart persists lines and total as one atomic write
func (s *Store) SaveCart(ctx context.Context, cart *models.Cart) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.StoreUnavailable, err, "begin save cart")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE carts SET total = $1, updated_at = NOW() WHERE id = $2",
		cart.Total, cart.ID)
	if err != nil {
		return apperr.Wrap(apperr.StoreUnavailable, err, "update cart total")
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return apperr.Wrap(apperr.StoreUnavailable, err, "update cart total")
	}
	if rows == 0 {
		return apperr.New(apperr.NotFound, "cart %s not found", cart.ID)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM cart_lines WHERE cart_id = $1", cart.ID); err != nil {
		return apperr.Wrap(apperr.StoreUnavailable, err, "clear cart lines")
	}

	for i, line := range cart.Lines {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO cart_lines (cart_id, title, quantity, position) VALUES ($1, $2, $3, $4)",
			cart.ID, line.Title, line.Quantity, i)
		if err != nil {
			return apperr.Wrap(apperr.StoreUnavailable, err, "insert cart line %q", line.Title)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.StoreUnavailable, err, "commit save cart")
	}
	return nil
}

// CommitCheckout applies every stock decrement and deletes the cart as one
// transaction. The cart row and every referenced item row are locked FOR
// UPDATE (items in title order, to keep lock acquisition deterministic),
// every quantity is re-validated against current stock, and only then are
// the decrements applied. Any failure rolls the whole unit back.
func (s *Store) CommitCheckout(ctx context.Context, cartID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.StoreUnavailable, err, "begin checkout")
	}
	defer tx.Rollback()

	var total int64
	err = tx.GetContext(ctx, &total,
		"SELECT total FROM carts WHERE id = $1 FOR UPDATE", cartID)
	if err == sql.ErrNoRows {
		return apperr.New(apperr.NotFound, "cart %s not found", cartID)
	}
	if err != nil {
		return apperr.Wrap(apperr.StoreUnavailable, err, "lock cart")
	}

	var lines []models.CartLine
	err = tx.SelectContext(ctx, &lines,
		"SELECT title, quantity FROM cart_lines WHERE cart_id = $1 ORDER BY title", cartID)
	if err != nil {
		return apperr.Wrap(apperr.StoreUnavailable, err, "read cart lines")
	}
	if len(lines) == 0 {
		return apperr.New(apperr.NotFound, "cart %s is empty", cartID)
	}

	for _, line := range lines {
		var stock int
		err = tx.GetContext(ctx, &stock,
			"SELECT stock FROM items WHERE title = $1 FOR UPDATE", line.Title)
		if err == sql.ErrNoRows {
			return apperr.New(apperr.InconsistentState,
				"cart references missing item %q", line.Title)
		}
		if err != nil {
			return apperr.Wrap(apperr.StoreUnavailable, err, "lock item %q", line.Title)
		}
		if line.Quantity > stock {
			return apperr.New(apperr.InsufficientStock,
				"item %q: requested %d, in stock %d", line.Title, line.Quantity, stock)
		}
	}

	for _, line := range lines {
		_, err := tx.ExecContext(ctx,
			"UPDATE items SET stock = stock - $1 WHERE title = $2",
			line.Quantity, line.Title)
		if err != nil {
			return apperr.Wrap(apperr.StoreUnavailable, err, "decrement stock for %q", line.Title)
		}
	}

	// cart_lines cascade with the cart row
	if _, err := tx.ExecContext(ctx, "DELETE FROM carts WHERE id = $1", cartID); err != nil {
		return apperr.Wrap(apperr.StoreUnavailable, err, "delete cart")
	}

	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.StoreUnavailable, err, "commit checkout")
	}
	return nil
}

// PurgeLines removes every line referencing title and subtracts the given
// amount from the cached total, in one atomic write.
func (s *Store) PurgeLines(ctx context.Context, cartID, title string, amount int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.StoreUnavailable, err, "begin purge")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM cart_lines WHERE cart_id = $1 AND title = $2", cartID, title); err != nil {
		return apperr.Wrap(apperr.StoreUnavailable, err, "purge lines for %q", title)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE carts SET total = total - $1, updated_at = NOW() WHERE id = $2",
		amount, cartID); err != nil {
		return apperr.Wrap(apperr.StoreUnavailable, err, "adjust total after purge")
	}

	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.StoreUnavailable, err, "commit purge")
	}
	return nil
}
