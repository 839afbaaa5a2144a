package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// CreateItem inserts a new catalog item. The unique constraint on title
// maps to a conflict error.
func (s *Store) CreateItem(ctx context.Context, item *models.Item) error {
	query := `
		INSERT INTO items (title, price, stock)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := s.db.GetContext(ctx, item, query, item.Title, item.Price, item.Stock)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return apperr.New(apperr.Conflict, "item title %q already taken", item.Title)
		}
		return apperr.Wrap(apperr.StoreUnavailable, err, "insert item %q", item.Title)
	}
	return nil
}

// DeleteItem removes a catalog item by title
func (s *Store) DeleteItem(ctx context.Context, title string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM items WHERE title = $1", title)
	if err != nil {
		return apperr.Wrap(apperr.StoreUnavailable, err, "delete item %q", title)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return apperr.Wrap(apperr.StoreUnavailable, err, "delete item %q", title)
	}
	if rows == 0 {
		return apperr.New(apperr.NotFound, "item %q not found", title)
	}
	return nil
}

// GetItems retrieves all catalog items
func (s *Store) GetItems(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	err := s.db.SelectContext(ctx, &items, "SELECT * FROM items ORDER BY id")
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, err, "list items")
	}
	return items, nil
}

// GetItemByTitle retrieves an item by its unique title
func (s *Store) GetItemByTitle(ctx context.Context, title string) (*models.Item, error) {
	var item models.Item
	err := s.db.GetContext(ctx, &item, "SELECT * FROM items WHERE title = $1", title)
	if err == sql.ErrNoRows {
		return nil, apperr.New(apperr.NotFound, "item %q not found", title)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, err, "get item %q", title)
	}
	return &item, nil
}

// GetItemsByTitles retrieves multiple items in one batch lookup
func (s *Store) GetItemsByTitles(ctx context.Context, titles []string) ([]models.Item, error) {
	if len(titles) == 0 {
		return []models.Item{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM items WHERE title IN (?)", titles)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, err, "batch item lookup")
	}
	query = s.db.Rebind(query)

	var items []models.Item
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, err, "batch item lookup")
	}
	return items, nil
}

// AdjustStock changes an item's stock by delta inside its own transaction,
// holding a row lock across the check. Returns the updated stock count.
func (s *Store) AdjustStock(ctx context.Context, title string, delta int) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, apperr.Wrap(apperr.StoreUnavailable, err, "begin adjust stock")
	}
	defer tx.Rollback()

	var stock int
	err = tx.GetContext(ctx, &stock,
		"SELECT stock FROM items WHERE title = $1 FOR UPDATE", title)
	if err == sql.ErrNoRows {
		return 0, apperr.New(apperr.NotFound, "item %q not found", title)
	}
	if err != nil {
		return 0, apperr.Wrap(apperr.StoreUnavailable, err, "lock item %q", title)
	}

	updated := stock + delta
	if updated < 0 {
		return 0, apperr.New(apperr.InsufficientStock,
			"stock for %q would go negative: have %d, delta %d", title, stock, delta)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE items SET stock = $1 WHERE title = $2", updated, title)
	if err != nil {
		return 0, apperr.Wrap(apperr.StoreUnavailable, err, "update stock for %q", title)
	}

	if err := tx.Commit(); err != nil {
		return 0, apperr.Wrap(apperr.StoreUnavailable, err, "commit adjust stock")
	}
	return updated, nil
}
