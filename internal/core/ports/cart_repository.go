package ports

import (
	"context"

	"github.com/skateshop/storefront/internal/core/domain"
)

// CartRepository defines persistence operations for cart lines. Every
// operation is scoped to the owning user.
type CartRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]domain.CartLineView, error)
	// ProductStock returns the current stock of a product, or
	// domain.ErrProductNotFound.
	ProductStock(ctx context.Context, productID int64) (int, error)
	// FindLine returns the line for (userID, productID), or
	// domain.ErrCartLineNotFound.
	FindLine(ctx context.Context, userID, productID int64) (*domain.CartLine, error)
	// InsertLine creates a line. Returns domain.ErrCartLineExists when a line
	// for (userID, productID) already exists.
	InsertLine(ctx context.Context, userID, productID int64, quantity int) (*domain.CartLine, error)
	// IncrementLine adds delta to a line in a single conditional statement that
	// only applies when the result stays within the product's stock. Returns
	// the new quantity, or domain.ErrInsufficientStock when the condition fails.
	IncrementLine(ctx context.Context, lineID int64, delta int) (int, error)
	// OwnedLine returns a line owned by userID with its product's stock, or
	// domain.ErrCartLineNotFound.
	OwnedLine(ctx context.Context, userID, lineID int64) (*domain.CartLineStock, error)
	SetQuantity(ctx context.Context, userID, lineID int64, quantity int) error
	// DeleteLine reports the number of rows removed.
	DeleteLine(ctx context.Context, userID, lineID int64) (int64, error)
	// Clear reports the number of rows removed.
	Clear(ctx context.Context, userID int64) (int64, error)
}
