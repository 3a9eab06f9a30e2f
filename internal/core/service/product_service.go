package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/skateshop/storefront/internal/api/metrics"
	"github.com/skateshop/storefront/internal/core/domain"
	"github.com/skateshop/storefront/internal/core/ports"
)

// DefaultCatalogCacheTTL is the freshness window of the cached product list.
const DefaultCatalogCacheTTL = 30 * time.Second

// catalogLoadTimeout bounds a shared catalog reload.
const catalogLoadTimeout = 10 * time.Second

// ProductService implements the catalog use cases and owns the catalog cache:
// unsearched listings are served from the cache while it is fresh, searches
// always go to the store, and every successful mutation invalidates it.
type ProductService struct {
	repo   ports.ProductRepository
	cache  ports.ProductCache
	images ports.ImageRemover
	limits domain.ProductLimits
	ttl    time.Duration
	now    func() time.Time
	log    zerolog.Logger

	// loads collapses concurrent cache misses into one store read.
	loads singleflight.Group
	// generation is bumped on every invalidation; a reload only repopulates
	// the cache if no invalidation happened while it was reading.
	generation atomic.Uint64
}

// ProductServiceOption customises a ProductService.
type ProductServiceOption func(*ProductService)

// WithCacheTTL overrides DefaultCatalogCacheTTL.
func WithCacheTTL(ttl time.Duration) ProductServiceOption {
	return func(s *ProductService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithLimits overrides the default stock and price ceilings.
func WithLimits(limits domain.ProductLimits) ProductServiceOption {
	return func(s *ProductService) { s.limits = limits }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) ProductServiceOption {
	return func(s *ProductService) { s.now = now }
}

// WithImageRemover lets the service remove images superseded by an update or
// orphaned by a delete.
func WithImageRemover(images ports.ImageRemover) ProductServiceOption {
	return func(s *ProductService) { s.images = images }
}

func NewProductService(repo ports.ProductRepository, cache ports.ProductCache, log zerolog.Logger, opts ...ProductServiceOption) *ProductService {
	s := &ProductService{
		repo:   repo,
		cache:  cache,
		limits: domain.DefaultProductLimits(),
		ttl:    DefaultCatalogCacheTTL,
		now:    time.Now,
		log:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListProducts returns the catalog newest first. A non-blank search term
// bypasses the cache entirely.
func (s *ProductService) ListProducts(ctx context.Context, search string) ([]domain.Product, error) {
	if term := strings.TrimSpace(search); term != "" {
		products, err := s.repo.Search(ctx, term)
		if err != nil {
			return nil, fmt.Errorf("search products: %w", err)
		}
		return products, nil
	}

	cached, err := s.cache.Get(ctx)
	switch {
	case err == nil:
		if s.now().Sub(cached.PopulatedAt) < s.ttl {
			metrics.CatalogCacheTotal.WithLabelValues("hit").Inc()
			return cached.Products, nil
		}
		metrics.CatalogCacheTotal.WithLabelValues("miss").Inc()
	case errors.Is(err, ports.ErrCacheMiss):
		metrics.CatalogCacheTotal.WithLabelValues("miss").Inc()
	default:
		metrics.CatalogCacheTotal.WithLabelValues("error").Inc()
		s.log.Warn().Err(err).Msg("catalog cache read failed, reading from store")
	}

	return s.reload(ctx)
}

// reload reads the catalog once for every caller waiting on the same
// generation. The shared read is detached from the caller that started it.
func (s *ProductService) reload(ctx context.Context) ([]domain.Product, error) {
	gen := s.generation.Load()
	v, err, _ := s.loads.Do("products:"+strconv.FormatUint(gen, 10), func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), catalogLoadTimeout)
		defer cancel()

		products, err := s.repo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}

		if s.generation.Load() == gen {
			if err := s.cache.Set(ctx, products, s.now()); err != nil {
				s.log.Warn().Err(err).Msg("catalog cache write failed")
			}
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Product), nil
}

// GetProduct is an uncached point read.
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *ProductService) CreateProduct(ctx context.Context, adminID int64, in ports.ProductInput, imageRef string) (*domain.Product, error) {
	fields, err := s.parseFields(in)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, &domain.Product{
		Title:       fields.Title,
		Description: fields.Description,
		Stock:       fields.Stock,
		Price:       fields.Price,
		Image:       imageRef,
		AdminID:     adminID,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.invalidate(ctx, "create")
	s.log.Info().Int64("product_id", created.ID).Int64("admin_id", adminID).Msg("product created")
	return created, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id int64, in ports.ProductInput, imageRef *string) (*domain.Product, error) {
	fields, err := s.parseFields(in)
	if err != nil {
		return nil, err
	}

	updated, previousImage, err := s.repo.Update(ctx, id, fields, imageRef)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.invalidate(ctx, "update")
	if imageRef != nil && previousImage != *imageRef {
		s.removeImage(ctx, previousImage)
	}
	s.log.Info().Int64("product_id", id).Msg("product updated")
	return updated, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	image, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.invalidate(ctx, "delete")
	s.removeImage(ctx, image)
	s.log.Info().Int64("product_id", id).Msg("product deleted")
	return nil
}

func (s *ProductService) invalidate(ctx context.Context, op string) {
	s.generation.Add(1)
	metrics.CatalogInvalidationsTotal.WithLabelValues(op).Inc()
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Error().Err(err).Str("op", op).Msg("catalog cache invalidation failed")
	}
}

func (s *ProductService) removeImage(ctx context.Context, ref string) {
	if s.images == nil || ref == "" {
		return
	}
	if err := s.images.Delete(ctx, ref); err != nil {
		s.log.Warn().Err(err).Str("image", ref).Msg("failed to remove product image")
	}
}

// parseFields validates the raw form against the configured limits. It never
// touches the store.
func (s *ProductService) parseFields(in ports.ProductInput) (domain.ProductFields, error) {
	var f domain.ProductFields

	f.Title = strings.TrimSpace(in.Title)
	if f.Title == "" {
		return f, domain.NewInputError("titulo is required")
	}
	f.Description = strings.TrimSpace(in.Description)
	if f.Description == "" {
		return f, domain.NewInputError("detalle is required")
	}

	rawQty := strings.TrimSpace(in.Quantity)
	if rawQty == "" {
		return f, domain.NewInputError("cantidad is required")
	}
	qty, err := strconv.Atoi(rawQty)
	if err != nil {
		return f, domain.NewInputError("cantidad must be a whole number")
	}
	if qty < 0 || qty > s.limits.MaxStock {
		return f, domain.NewInputError("cantidad must be between 0 and %d", s.limits.MaxStock)
	}
	f.Stock = qty

	rawPrice := strings.TrimSpace(in.Price)
	if rawPrice == "" {
		return f, domain.NewInputError("precio is required")
	}
	price, err := decimal.NewFromString(rawPrice)
	if err != nil {
		return f, domain.NewInputError("precio must be a number")
	}
	if price.IsNegative() || price.GreaterThan(s.limits.MaxPrice) {
		return f, domain.NewInputError("precio must be between 0 and %s", s.limits.MaxPrice.StringFixed(domain.PriceScale))
	}
	f.Price = price.Round(domain.PriceScale)

	return f, nil
}
