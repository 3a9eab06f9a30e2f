package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/skateshop/storefront/internal/core/domain"
	"github.com/skateshop/storefront/internal/core/ports"
)

const (
	productsKey = "catalog:products"

	// defaultSlotTTL only bounds how long an abandoned slot lingers in Redis.
	// Freshness is decided by the caller from PopulatedAt.
	defaultSlotTTL = 5 * time.Minute
)

// ProductCache keeps the catalog slot in Redis so that several instances
// share it and a write on one of them invalidates it for all.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.ProductCache = (*ProductCache)(nil)

// NewProductCache wraps client. If ttl <= 0, defaultSlotTTL is used.
func NewProductCache(client *redis.Client, ttl time.Duration) *ProductCache {
	if ttl <= 0 {
		ttl = defaultSlotTTL
	}
	return &ProductCache{client: client, ttl: ttl}
}

func (c *ProductCache) Get(ctx context.Context) (*ports.CachedProducts, error) {
	data, err := c.client.Get(ctx, productsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ports.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var cached ports.CachedProducts
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("decode cached products: %w", err)
	}
	return &cached, nil
}

func (c *ProductCache) Set(ctx context.Context, products []domain.Product, populatedAt time.Time) error {
	data, err := json.Marshal(ports.CachedProducts{Products: products, PopulatedAt: populatedAt})
	if err != nil {
		return fmt.Errorf("encode cached products: %w", err)
	}
	if err := c.client.Set(ctx, productsKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *ProductCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, productsKey).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
