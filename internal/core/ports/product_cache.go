package ports

import (
	"context"
	"errors"
	"time"

	"github.com/skateshop/storefront/internal/core/domain"
)

// ErrCacheMiss is returned by ProductCache.Get when the slot is empty.
var ErrCacheMiss = errors.New("cache miss")

// CachedProducts is the content of the catalog cache slot.
type CachedProducts struct {
	Products    []domain.Product `json:"products"`
	PopulatedAt time.Time        `json:"populated_at"`
}

// ProductCache holds the full, unfiltered product list. Freshness is decided
// by the caller from PopulatedAt.
type ProductCache interface {
	Get(ctx context.Context) (*CachedProducts, error)
	Set(ctx context.Context, products []domain.Product, populatedAt time.Time) error
	Invalidate(ctx context.Context) error
}
