package ports

import (
	"context"

	"github.com/skateshop/storefront/internal/core/domain"
)

// ProductInput carries the raw product form as submitted. Numeric fields are
// parsed and range-checked by the service.
type ProductInput struct {
	Title       string
	Description string
	Quantity    string
	Price       string
}

type ProductService interface {
	ListProducts(ctx context.Context, search string) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, adminID int64, input ProductInput, imageRef string) (*domain.Product, error)
	// UpdateProduct keeps the stored image when imageRef is nil.
	UpdateProduct(ctx context.Context, id int64, input ProductInput, imageRef *string) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}
