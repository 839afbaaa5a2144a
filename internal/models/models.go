package models

import "time"

// Item represents a sellable catalog entry. Titles are unique across the
// catalog; price is in minor currency units.
type Item struct {
	ID        int64     `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Price     int64     `db:"price" json:"price"`
	Stock     int       `db:"stock" json:"stock"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CartLine is one (title, quantity) entry in the cart. A title appears at
// most once; repeated adds increment the existing line.
type CartLine struct {
	Title    string `db:"title" json:"title"`
	Quantity int    `db:"quantity" json:"quantity"`
}

// Cart holds the single active shopping cart. Total is a cached sum of
// price×quantity over all lines, adjusted on every mutation.
type Cart struct {
	ID        string     `db:"id" json:"id"`
	Lines     []CartLine `db:"-" json:"lines"`
	Total     int64      `db:"total" json:"total"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// LineFor returns the index of the line for title, or -1 if no line
// references it.
func (c *Cart) LineFor(title string) int {
	for i := range c.Lines {
		if c.Lines[i].Title == title {
			return i
		}
	}
	return -1
}

// CheckoutReceipt is returned by a successful checkout.
type CheckoutReceipt struct {
	Status string `json:"status"`
	Total  int64  `json:"total"`
}

// Checkout statuses
const (
	CheckoutStatusSuccess = "success"
)

// Cart mutation actions carried on CartUpdated events
const (
	CartActionAdd    = "add"
	CartActionRemove = "remove"
	CartActionPurge  = "purge"
)
