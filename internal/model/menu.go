package model

import "time"

// MenuItem is a dish guests can pre-order with a reservation.  Items are
// seeded from the layout file and matched by name.
type MenuItem struct {
	ID          uint64    `json:"id"`                    // menu_items.id
	Name        string    `json:"name"`                  // menu_items.name
	Description string    `json:"description,omitempty"` // menu_items.description
	Price       float64   `json:"price"`                 // menu_items.price
	IsSpecial   bool      `json:"is_special"`            // menu_items.is_special
	IsActive    bool      `json:"-"`                     // menu_items.is_active
	CreatedAt   time.Time `json:"-"`                     // menu_items.created_at
}

// ReservationItem is one pre-ordered line on a reservation.  Name and
// Price are copied from the menu when the line is read.
type ReservationItem struct {
	ID            uint64  `json:"id"`
	ReservationID uint64  `json:"reservation_id"`
	MenuItemID    uint64  `json:"menu_item_id"`
	Name          string  `json:"name,omitempty"`
	Price         float64 `json:"price"`
	Quantity      int     `json:"quantity"`
}
