package ports

import (
	"context"

	"github.com/skateshop/storefront/internal/core/domain"
)

// ProductRepository defines persistence operations for the catalog.
// All list operations return products ordered newest first.
type ProductRepository interface {
	List(ctx context.Context) ([]domain.Product, error)
	// Search matches term as a case-insensitive substring of the title.
	Search(ctx context.Context, term string) ([]domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) (*domain.Product, error)
	// Update overwrites the editable fields of product id. When image is nil the
	// stored image is kept. It returns the updated product and the image
	// reference it held before the update.
	Update(ctx context.Context, id int64, fields domain.ProductFields, image *string) (*domain.Product, string, error)
	// Delete removes product id and returns its image reference.
	Delete(ctx context.Context, id int64) (string, error)
}
