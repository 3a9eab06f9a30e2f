package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one (user, product, quantity) row of a buyer's cart. There is at
// most one line per (UserID, ProductID).
type CartLine struct {
	ID        int64
	UserID    int64
	ProductID int64
	Quantity  int
	CreatedAt time.Time
}

// CartLineView is a cart line joined with the current state of its product.
type CartLineView struct {
	ID          int64
	ProductID   int64
	Quantity    int
	Title       string
	Description string
	Stock       int
	Price       decimal.Decimal
	Image       string
	CreatedAt   time.Time
}

// CartLineStock is an owned cart line together with its product's current
// stock, as needed to validate a quantity change.
type CartLineStock struct {
	LineID    int64
	ProductID int64
	Quantity  int
	Stock     int
}
