// Package cache holds the in-process implementation of the catalog cache.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/skateshop/storefront/internal/core/domain"
	"github.com/skateshop/storefront/internal/core/ports"
)

// MemoryProductCache is a single process-local slot. Readers get the slice
// that was stored; callers must not mutate it.
type MemoryProductCache struct {
	mu   sync.RWMutex
	slot *ports.CachedProducts
}

var _ ports.ProductCache = (*MemoryProductCache)(nil)

func NewMemoryProductCache() *MemoryProductCache {
	return &MemoryProductCache{}
}

func (c *MemoryProductCache) Get(context.Context) (*ports.CachedProducts, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.slot == nil {
		return nil, ports.ErrCacheMiss
	}
	return c.slot, nil
}

func (c *MemoryProductCache) Set(_ context.Context, products []domain.Product, populatedAt time.Time) error {
	c.mu.Lock()
	c.slot = &ports.CachedProducts{Products: products, PopulatedAt: populatedAt}
	c.mu.Unlock()
	return nil
}

func (c *MemoryProductCache) Invalidate(context.Context) error {
	c.mu.Lock()
	c.slot = nil
	c.mu.Unlock()
	return nil
}
