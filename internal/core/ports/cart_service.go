package ports

import (
	"context"

	"github.com/skateshop/storefront/internal/core/domain"
)

// AddToCartResult reports the line touched by AddToCart and its quantity
// after the write.
type AddToCartResult struct {
	LineID   int64
	Quantity int
	Created  bool
}

type CartService interface {
	GetCart(ctx context.Context, userID int64) ([]domain.CartLineView, error)
	AddToCart(ctx context.Context, userID, productID int64, quantity int) (*AddToCartResult, error)
	UpdateQuantity(ctx context.Context, userID, lineID int64, quantity int) error
	RemoveLine(ctx context.Context, userID, lineID int64) error
	ClearCart(ctx context.Context, userID int64) error
}
