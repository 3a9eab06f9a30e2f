package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultMaxStock = 10000
	PriceScale      = 2
)

// DefaultMaxPrice is the upper bound applied when no limit is configured.
var DefaultMaxPrice = decimal.RequireFromString("99999.99")

// Product is a catalog entry. Stock and Price are always within the
// configured ProductLimits once persisted.
type Product struct {
	ID          int64           `json:"id"`
	Title       string          `json:"titulo"`
	Description string          `json:"detalle"`
	Stock       int             `json:"cantidad"`
	Price       decimal.Decimal `json:"precio"`
	Image       string          `json:"imagen,omitempty"`
	AdminID     int64           `json:"admin_id"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ProductFields are the editable, already validated attributes of a product.
type ProductFields struct {
	Title       string
	Description string
	Stock       int
	Price       decimal.Decimal
}

// ProductLimits bounds stock and price.
type ProductLimits struct {
	MaxStock int
	MaxPrice decimal.Decimal
}

// DefaultProductLimits returns the stock and price ceilings used when none
// are configured.
func DefaultProductLimits() ProductLimits {
	return ProductLimits{MaxStock: DefaultMaxStock, MaxPrice: DefaultMaxPrice}
}
